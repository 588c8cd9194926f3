// Package cli implements the kong command tree that dispatches onto
// pkg/linage/repo: init, commit, branch, switch, merge, rebase, log, and
// recover.
package cli

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// Globals are the flags common to every subcommand.
type Globals struct {
	Verbose  bool   `short:"V" name:"verbose" help:"Make the operation more talkative"`
	CWD      string `name:"cwd" help:"Set the path to the repository working tree"`
	Database string `name:"config" help:"Path to a config.toml used by init instead of the built-in defaults" placeholder:"<path>"`
}

// DbgPrint writes a yellow-tagged diagnostic line to stderr when Verbose is
// set.
func (g *Globals) DbgPrint(format string, args ...any) {
	if !g.Verbose {
		return
	}
	message := strings.TrimSuffix(fmt.Sprintf(format, args...), "\n")
	var buf bytes.Buffer
	for _, line := range strings.Split(message, "\n") {
		buf.WriteString("\x1b[33m* ")
		buf.WriteString(line)
		buf.WriteString("\x1b[0m\n")
	}
	_, _ = os.Stderr.Write(buf.Bytes())
}

// Root resolves the working tree this invocation targets: g.CWD if set,
// otherwise the process's current directory.
func (g *Globals) Root() (string, error) {
	if g.CWD != "" {
		return g.CWD, nil
	}
	return os.Getwd()
}
