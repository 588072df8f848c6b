package settings

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wile/rsgauges-config/internal/storage"
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for load warnings and re-sync events.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTitle sets the language key under which hosts display the section.
func WithTitle(langKey string) Option {
	return func(r *Registry) {
		r.title = langKey
	}
}

// WithPostUpdate installs the hook run after every external-change re-sync.
// The hook must not call Load, OnExternalChange or PostInit.
func WithPostUpdate(hook func(*Registry)) Option {
	return func(r *Registry) {
		if hook != nil {
			r.postUpdate = hook
		}
	}
}

type entry struct {
	def   Definition
	value any
}

// Registry holds the in-memory values of declared settings and keeps them
// consistent with a persisted store. Values change only through Load and the
// re-syncs built on it, each of which replaces every value at once.
type Registry struct {
	namespace  string
	title      string
	logger     *zap.Logger
	postUpdate func(*Registry)

	// syncMu serialises whole-registry re-syncs.
	syncMu sync.Mutex

	// initMu guards initialized and is held for the whole of PostInit.
	initMu      sync.Mutex
	initialized bool

	mu      sync.RWMutex
	order   []string
	entries map[string]*entry
	loaded  bool
}

// New creates an empty registry for namespace.
func New(namespace string, opts ...Option) *Registry {
	r := &Registry{
		namespace:  namespace,
		logger:     zap.NewNop(),
		postUpdate: func(*Registry) {},
		entries:    make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("namespace", namespace))
	return r
}

// Namespace returns the identifier of this registry's configuration section.
func (r *Registry) Namespace() string {
	return r.namespace
}

// Title returns the language key naming the configuration section, if set.
func (r *Registry) Title() string {
	return r.title
}

// Declare registers a setting holding its default value.
func (r *Registry) Declare(def Definition) (Setting, error) {
	if err := def.validate(); err != nil {
		return Setting{}, err
	}
	if def.Bounds != nil {
		bounds := *def.Bounds
		def.Bounds = &bounds
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[def.Key]; exists {
		return Setting{}, fmt.Errorf("%w: %q", ErrDuplicateKey, def.Key)
	}
	e := &entry{def: def, value: def.Default}
	r.entries[def.Key] = e
	r.order = append(r.order, def.Key)
	return e.snapshot(), nil
}

// Get returns the current value of key.
func (r *Registry) Get(key string) (any, error) {
	s, err := r.Lookup(key)
	if err != nil {
		return nil, err
	}
	return s.Value, nil
}

// Lookup returns a snapshot of the setting declared under key.
func (r *Registry) Lookup(key string) (Setting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[key]
	if !ok {
		return Setting{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return e.snapshot(), nil
}

// Int returns the value of an integer setting.
func (r *Registry) Int(key string) (int, error) {
	v, err := r.typed(key, KindInt)
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// Bool returns the value of a boolean setting.
func (r *Registry) Bool(key string) (bool, error) {
	v, err := r.typed(key, KindBool)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// String returns the value of a string setting.
func (r *Registry) String(key string) (string, error) {
	v, err := r.typed(key, KindString)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Settings returns snapshots of all settings in declaration order.
func (r *Registry) Settings() []Setting {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Setting, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.entries[key].snapshot())
	}
	return out
}

// Load reads every declared setting from store. Absent or unparsable values
// fall back to the default, integers outside their bounds are clamped, and in
// both cases the resulting value is written back. Write-backs start only after
// every read succeeded, and values are replaced only if every store operation
// succeeds; store errors are returned as-is.
func (r *Registry) Load(store storage.Store) error {
	r.syncMu.Lock()
	defer r.syncMu.Unlock()

	return r.load(store)
}

// OnExternalChange re-syncs from store after the host detected an external
// modification, then runs the post-update hook.
func (r *Registry) OnExternalChange(store storage.Store) error {
	if err := r.Load(store); err != nil {
		return err
	}
	r.postUpdate(r)
	return nil
}

// HandleEvent forwards ev to OnExternalChange when it targets this
// registry's namespace. It reports whether the event was applied.
func (r *Registry) HandleEvent(ev ChangeEvent, store storage.Store) (bool, error) {
	if ev.Namespace != r.namespace {
		r.logger.Debug("ignoring change event for foreign namespace", zap.String("event_namespace", ev.Namespace))
		return false, nil
	}
	if err := r.OnExternalChange(store); err != nil {
		return false, err
	}
	return true, nil
}

// PostInit runs once after start-up completes and performs the same re-sync
// as OnExternalChange. A failed call may be retried.
func (r *Registry) PostInit(store storage.Store) error {
	r.initMu.Lock()
	defer r.initMu.Unlock()

	if r.initialized {
		return ErrAlreadyInitialized
	}
	if err := r.OnExternalChange(store); err != nil {
		return err
	}
	r.initialized = true
	return nil
}

func (r *Registry) load(store storage.Store) error {
	syncer, durable := store.(storage.Syncer)
	if durable {
		if err := syncer.Refresh(); err != nil {
			return err
		}
	}

	defs := r.definitions()
	staged := make(map[string]any, len(defs))
	var writeBacks []string
	for _, def := range defs {
		value, writeBack, err := r.resolve(store, def)
		if err != nil {
			return err
		}
		if writeBack {
			writeBacks = append(writeBacks, def.Key)
		}
		staged[def.Key] = value
	}

	// nothing reaches the store until every read succeeded
	for _, key := range writeBacks {
		if err := store.Write(key, formatValue(staged[key])); err != nil {
			return err
		}
	}

	if durable {
		if err := syncer.Flush(); err != nil {
			return err
		}
	}

	r.mu.Lock()
	resync := r.loaded
	var restartPending []string
	for key, value := range staged {
		e, ok := r.entries[key]
		if !ok {
			continue
		}
		if resync && e.def.RestartRequired && e.value != value {
			restartPending = append(restartPending, key)
		}
		e.value = value
	}
	r.loaded = true
	r.mu.Unlock()

	for _, key := range restartPending {
		r.logger.Info("setting changed, takes effect after restart", zap.String("key", key))
	}
	r.logger.Debug("settings synchronised", zap.Int("count", len(staged)))
	return nil
}

// resolve determines the value of def from store and whether it must be
// written back.
func (r *Registry) resolve(store storage.Store, def Definition) (any, bool, error) {
	raw, ok, err := store.Read(def.Key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return def.Default, true, nil
	}

	value, err := parseValue(def.Kind, raw)
	if err != nil {
		r.logger.Warn("unparsable persisted value, restoring default",
			zap.String("key", def.Key),
			zap.String("raw", raw),
			zap.Error(err),
		)
		return def.Default, true, nil
	}

	if def.Bounds != nil {
		n := value.(int)
		if !def.Bounds.Contains(n) {
			clamped := def.Bounds.Clamp(n)
			r.logger.Warn("clamping persisted value",
				zap.String("key", def.Key),
				zap.Int("clamped", clamped),
				zap.Error(fmt.Errorf("%w: %q=%d not in [%d,%d]", ErrRangeViolation, def.Key, n, def.Bounds.Min, def.Bounds.Max)),
			)
			return clamped, true, nil
		}
	}

	return value, false, nil
}

func (r *Registry) definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.order))
	for _, key := range r.order {
		defs = append(defs, r.entries[key].def)
	}
	return defs
}

func (r *Registry) typed(key string, kind Kind) (any, error) {
	s, err := r.Lookup(key)
	if err != nil {
		return nil, err
	}
	if s.Kind != kind {
		return nil, fmt.Errorf("%w: %q is %s, not %s", ErrKindMismatch, key, s.Kind, kind)
	}
	return s.Value, nil
}

func (e *entry) snapshot() Setting {
	def := e.def
	if def.Bounds != nil {
		bounds := *def.Bounds
		def.Bounds = &bounds
	}
	return Setting{Definition: def, Value: e.value}
}
