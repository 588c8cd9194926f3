package cli

import (
	"context"
	"fmt"

	"github.com/antgroup/linage/pkg/linage/object"
	"github.com/antgroup/linage/pkg/linage/recovery"
)

// Recover lists dangling commits, or (with both arguments) creates a new
// branch at a recovered commit.
type Recover struct {
	Commit string `arg:"" optional:"" name:"commit" help:"Commit id to recover"`
	Branch string `arg:"" optional:"" name:"branch" help:"Name for the recovered branch"`
}

func (rc *Recover) Run(g *Globals) error {
	root, err := g.Root()
	if err != nil {
		return err
	}
	r, err := openRepo(root)
	if err != nil {
		return err
	}
	defer r.Close()

	ctx := context.Background()
	if rc.Commit == "" {
		commits, err := r.Meta.ListCommits(ctx)
		if err != nil {
			return err
		}
		byID := make(map[string]*object.Commit, len(commits))
		for _, c := range commits {
			byID[c.ID] = c
		}
		for _, id := range recovery.FindDangling(byID, r.Graph.ListBranches()) {
			fmt.Println(id)
		}
		return nil
	}

	if rc.Branch == "" {
		return fmt.Errorf("branch name required, eg: linage recover <commit> <branch>")
	}
	branch, err := r.Recovery.Recover(ctx, r.Meta, rc.Commit, rc.Branch)
	if err != nil {
		return err
	}
	fmt.Printf("Recovered %s onto branch %s\n", rc.Commit, branch.Name)
	return nil
}
