// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner with zap logging and typed failures,
// OSCommandRunner runs processes through os/exec, and CommandMessageFormatter
// renders human readable lifecycle messages with credentials redacted from
// any remote URL that appears in the argument list.
package execshell
