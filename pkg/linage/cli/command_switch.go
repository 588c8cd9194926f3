package cli

import "context"

// Switch moves the active branch pointer to an existing branch.
type Switch struct {
	Branch string `arg:"" name:"branch" help:"Branch to switch to"`
}

func (s *Switch) Run(g *Globals) error {
	root, err := g.Root()
	if err != nil {
		return err
	}
	r, err := openRepo(root)
	if err != nil {
		return err
	}
	defer r.Close()
	return r.Graph.SwitchBranch(context.Background(), s.Branch)
}
