package cli

import (
	"context"

	"github.com/antgroup/linage/pkg/linage/repo"
)

func openRepo(root string) (*repo.Repository, error) {
	return repo.Open(context.Background(), root)
}
