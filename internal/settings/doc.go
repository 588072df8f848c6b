// Package settings implements the configuration registry: named, typed,
// range-constrained settings declared once at start-up, loaded from a
// persisted store and re-synced whenever the host reports that the store
// changed. The rsgauges declaration table lives in mod.go.
package settings
