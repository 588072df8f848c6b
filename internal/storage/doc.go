// Package storage provides the persisted key-value stores settings are loaded
// from and written back to: an in-memory store and a YAML file holding one
// section per namespace.
package storage
