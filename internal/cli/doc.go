// Package cli implements the bizsync command line: one-shot commands
// (backup, restore, status, whoami) and an interactive REPL used when no
// command is given.
package cli
