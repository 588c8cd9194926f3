package cli

import (
	"context"
	"fmt"
)

// Merge three-way merges another branch into the active branch's working
// tree, reporting any unresolved conflicts.
type Merge struct {
	Source string `arg:"" name:"source" help:"Branch to merge into the active branch"`
}

func (m *Merge) Run(g *Globals) error {
	root, err := g.Root()
	if err != nil {
		return err
	}
	r, err := openRepo(root)
	if err != nil {
		return err
	}
	defer r.Close()

	conflicts, err := r.Merge(context.Background(), m.Source)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		fmt.Println("Merge completed cleanly")
		return nil
	}
	fmt.Printf("Merge produced %d conflict(s):\n", len(conflicts))
	for _, c := range conflicts {
		fmt.Printf("  %s\n", c.Path)
	}
	return nil
}
