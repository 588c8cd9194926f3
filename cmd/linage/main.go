// Command linage is the thin CLI dispatcher onto pkg/linage/repo: init,
// commit, branch, switch, merge, rebase, log, and recover.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/antgroup/linage/pkg/linage/cli"
)

const versionString = "linage 0.1.0"

type app struct {
	cli.Globals
	Init    cli.Init    `cmd:"init" help:"Create an empty linage repository"`
	Commit  cli.Commit  `cmd:"commit" help:"Record changes to the repository"`
	Branch  cli.Branch  `cmd:"branch" help:"List, create, or delete branches"`
	Switch  cli.Switch  `cmd:"switch" help:"Switch the active branch"`
	Merge   cli.Merge   `cmd:"merge" help:"Join two development histories together"`
	Rebase  cli.Rebase  `cmd:"rebase" help:"Reapply commits on top of another base tip"`
	Log     cli.Log     `cmd:"log" help:"Show commit logs"`
	Recover cli.Recover `cmd:"recover" help:"List dangling commits, or recover one onto a new branch"`
	Version kong.VersionFlag `short:"v" name:"version" help:"Show version number and quit"`
}

func main() {
	var a app
	ctx := kong.Parse(&a,
		kong.Name("linage"),
		kong.Description("A line-granular version control engine"),
		kong.UsageOnError(),
		kong.Vars{"version": versionString},
	)
	err := ctx.Run(&a.Globals)
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "linage: %v\n", err)
	os.Exit(1)
}
