package cli

import (
	"context"
	"fmt"
)

// Branch lists, creates, or deletes branches.
type Branch struct {
	Delete bool     `name:"delete" short:"d" help:"Delete the named branch"`
	Args   []string `arg:"" optional:"" name:"args" help:"Branch name to create or delete"`
}

func (b *Branch) Run(g *Globals) error {
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
	if b.Delete {
		if len(b.Args) != 1 {
			return fmt.Errorf("branch name required, eg: linage branch --delete <name>")
		}
		return r.Graph.DeleteBranch(ctx, b.Args[0])
	}
	if len(b.Args) == 0 {
		for _, br := range r.Graph.ListBranches() {
			marker := "  "
			if br.Active {
				marker = "* "
			}
			fmt.Printf("%s%s\n", marker, br.Name)
		}
		return nil
	}
	_, err = r.Graph.CreateBranch(ctx, b.Args[0])
	return err
}
