package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"sync"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

const filePerm = 0o644

// FileStorage persists one namespace of a shared YAML document. Writes are
// staged in memory until Flush. Sections owned by other namespaces are kept
// as parsed nodes and written back unchanged, whatever their shape.
type FileStorage struct {
	path      string
	namespace string

	mu sync.RWMutex
	// order lists the top-level sections as they appear in the file.
	order  []string
	others map[string]*yaml.Node
	keys   []string
	values map[string]string
	dirty  bool
}

// NewFileStorage returns a store for namespace inside the YAML file at path.
// The file is not touched until Refresh or Flush.
func NewFileStorage(path, namespace string) *FileStorage {
	return &FileStorage{
		path:      path,
		namespace: namespace,
		others:    make(map[string]*yaml.Node),
		values:    make(map[string]string),
	}
}

// Path returns the location of the backing file.
func (s *FileStorage) Path() string {
	return s.path
}

// Namespace returns the section this store reads and writes.
func (s *FileStorage) Namespace() string {
	return s.namespace
}

// Read returns the value of key in this store's namespace.
func (s *FileStorage) Read(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	return value, ok, nil
}

// Write stages value under key. Call Flush to persist.
func (s *FileStorage) Write(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.values[key]
	if ok && current == value {
		return nil
	}
	if !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
	s.dirty = true
	return nil
}

// Refresh replaces the in-memory document with the file contents, discarding
// unflushed writes. A missing file yields an empty document.
func (s *FileStorage) Refresh() error {
	data, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read store file: %w", err)
	}

	var root yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &root); err != nil {
			return fmt.Errorf("parse store file: %w", err)
		}
	}

	var order, keys []string
	others := make(map[string]*yaml.Node)
	values := make(map[string]string)
	if top := documentBody(&root); top != nil {
		if top.Kind != yaml.MappingNode {
			return fmt.Errorf("parse store file: top level is not a mapping")
		}
		seen := make(map[string]bool)
		for i := 0; i+1 < len(top.Content); i += 2 {
			name, section := top.Content[i].Value, top.Content[i+1]
			if seen[name] {
				return fmt.Errorf("parse store file: duplicate section %q", name)
			}
			seen[name] = true
			order = append(order, name)
			if name != s.namespace {
				others[name] = section
				continue
			}
			keys, values, err = decodeSection(section)
			if err != nil {
				return fmt.Errorf("parse store file: section %q: %w", name, err)
			}
		}
	}

	s.mu.Lock()
	s.order = order
	s.others = others
	s.keys = keys
	s.values = values
	s.dirty = false
	s.mu.Unlock()

	return nil
}

// Flush atomically replaces the file with the in-memory document when there
// are staged writes.
func (s *FileStorage) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	data, err := yaml.Marshal(s.encode())
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}
	if err := renameio.WriteFile(s.path, data, filePerm); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}

	s.dirty = false
	return nil
}

// Values returns a copy of the values held for this store's namespace.
func (s *FileStorage) Values() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.values)
}

// encode builds the document to persist. The caller holds s.mu.
func (s *FileStorage) encode() *yaml.Node {
	own := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range s.keys {
		own.Content = append(own.Content, plainScalar(key), valueScalar(s.values[key]))
	}

	top := &yaml.Node{Kind: yaml.MappingNode}
	placed := false
	for _, name := range s.order {
		section := s.others[name]
		if name == s.namespace {
			section, placed = own, true
		}
		top.Content = append(top.Content, plainScalar(name), section)
	}
	if !placed {
		top.Content = append(top.Content, plainScalar(s.namespace), own)
	}
	return top
}

// documentBody returns the top-level node of a parsed document, or nil for
// an empty one.
func documentBody(root *yaml.Node) *yaml.Node {
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil
		}
		root = root.Content[0]
	}
	if root.Kind == 0 || root.ShortTag() == "!!null" {
		return nil
	}
	return root
}

// decodeSection reads a flat key/value mapping, keeping the key order. Any
// scalar is accepted and kept in its text form.
func decodeSection(node *yaml.Node) ([]string, map[string]string, error) {
	values := make(map[string]string)
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return nil, values, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("line %d: expected a mapping", node.Line)
	}

	var keys []string
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Kind == yaml.AliasNode {
			v = v.Alias
		}
		if v.Kind != yaml.ScalarNode {
			return nil, nil, fmt.Errorf("line %d: %q must hold a plain value", v.Line, k.Value)
		}
		if _, dup := values[k.Value]; !dup {
			keys = append(keys, k.Value)
		}
		if v.ShortTag() == "!!null" {
			values[k.Value] = ""
			continue
		}
		values[k.Value] = v.Value
	}
	return keys, values, nil
}

func plainScalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: value}
}

// valueScalar emits value untagged so numbers and booleans stay plain YAML.
// Text that would read back as null is quoted.
func valueScalar(value string) *yaml.Node {
	n := plainScalar(value)
	switch value {
	case "", "~", "null", "Null", "NULL":
		n.Style = yaml.DoubleQuotedStyle
	}
	return n
}
