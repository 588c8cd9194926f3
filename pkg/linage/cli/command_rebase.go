package cli

import "context"

// Rebase replays the active branch's commits since its merge base with onto
// as new commits parented onto onto.
type Rebase struct {
	Onto string `arg:"" name:"onto" help:"Commit or branch head to rebase onto"`
}

func (rb *Rebase) Run(g *Globals) error {
	root, err := g.Root()
	if err != nil {
		return err
	}
	r, err := openRepo(root)
	if err != nil {
		return err
	}
	defer r.Close()

	onto := rb.Onto
	if b, err := r.Graph.GetBranch(rb.Onto); err == nil && b.Head != "" {
		onto = b.Head
	}
	return r.Graph.Rebase(context.Background(), onto)
}
