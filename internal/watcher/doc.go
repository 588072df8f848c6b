// Package watcher plays the host's part of the change-notification contract:
// it observes the store file and emits a namespace-tagged change event once a
// burst of modifications settles.
package watcher
