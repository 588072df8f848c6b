// Package application provides application initialization and dependency wiring.
// It creates the settings store and registry, performs the start-up load,
// and assembles the store watcher, HTTP handlers, router and server, keeping
// the main package focused on CLI parsing and orchestration.
package application
