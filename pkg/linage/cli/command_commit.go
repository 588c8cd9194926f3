package cli

import (
	"context"
	"fmt"
)

// Commit snapshots the dirty set and records a new commit on the active
// branch.
type Commit struct {
	Message     string `name:"message" short:"m" required:"" help:"Commit message"`
	AuthorName  string `name:"author" default:"unknown" help:"Commit author name"`
	AuthorEmail string `name:"email" default:"unknown@local" help:"Commit author email"`
	AI          bool   `name:"ai-assisted" help:"Mark this commit as AI-assisted"`
}

func (c *Commit) Run(g *Globals) error {
	root, err := g.Root()
	if err != nil {
		return err
	}
	r, err := openRepo(root)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := r.ScanChanges(context.Background()); err != nil {
		return err
	}
	commit, err := r.Commit(context.Background(), c.Message, c.AuthorName, c.AuthorEmail, c.AI)
	if err != nil {
		return err
	}
	fmt.Printf("[%s] %s\n", commit.ID, c.Message)
	return nil
}
