package cli

import "fmt"

// Log prints the active branch's commit history, newest first.
type Log struct {
	Limit int `name:"limit" short:"n" help:"Maximum number of commits to show"`
}

func (l *Log) Run(g *Globals) error {
	root, err := g.Root()
	if err != nil {
		return err
	}
	r, err := openRepo(root)
	if err != nil {
		return err
	}
	defer r.Close()

	history, err := r.Graph.History()
	if err != nil {
		return err
	}
	if l.Limit > 0 && l.Limit < len(history) {
		history = history[:l.Limit]
	}
	for _, c := range history {
		fmt.Printf("commit %s\n", c.Digest)
		fmt.Printf("Author: %s <%s>\n", c.AuthorName, c.AuthorEmail)
		fmt.Printf("Date:   %s\n\n", c.Timestamp.Format("Mon Jan 2 15:04:05 2006 -0700"))
		fmt.Printf("    %s\n\n", c.Message)
	}
	return nil
}
