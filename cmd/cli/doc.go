// Package cli constructs the repomove command-line interface: the Cobra root
// command, layered configuration (embedded defaults, configuration file, dotenv
// file, environment) and the zap logger shared by every subcommand.
package cli
