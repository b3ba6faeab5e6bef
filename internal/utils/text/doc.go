// Package textutils normalizes free text before it is sent to remote hosting
// providers, where metadata fields reject control characters and embedded newlines.
package textutils
