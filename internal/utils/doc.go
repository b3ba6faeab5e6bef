// Package utils exposes the configuration loader, logger factory and command
// context helpers shared by the CLI and its commands.
package utils
