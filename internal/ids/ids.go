// Package ids generates commit identifiers — distinct from the content
// digests plumbing.Hasher computes, which identify data, not rows. The other
// entities carry the metadata store's auto-increment integer ids.
package ids

import "github.com/google/uuid"

// New returns a fresh random identifier.
func New() string {
	return uuid.NewString()
}
