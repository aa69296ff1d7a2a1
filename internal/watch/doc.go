// Package watch keeps a running slide presentation in sync with the file it
// presents. The Coordinator listens for vault modifications, drops the ones
// that cannot affect the visible deck, debounces the rest and hands the
// final one to a refresh strategy.
package watch
