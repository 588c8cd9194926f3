package cli

import (
	"context"
	"fmt"

	"github.com/antgroup/linage/pkg/linage/repo"
)

// Init creates a new repository rooted at Directory.
type Init struct {
	Branch    string `name:"branch" short:"b" default:"main" help:"Name of the initial branch" placeholder:"<branch>"`
	Directory string `arg:"" name:"directory" help:"Working tree directory to initialize"`
}

func (c *Init) Run(g *Globals) error {
	r, err := repo.Init(context.Background(), c.Directory, c.Branch, g.Database)
	if err != nil {
		return err
	}
	defer r.Close()
	g.DbgPrint("initialized repository at %s on branch %s", c.Directory, c.Branch)
	fmt.Printf("Initialized empty linage repository in %s\n", c.Directory)
	return nil
}
