// Package object defines the data model shared by every component: the
// commit DAG, its snapshots and file records, branches, line changes, and
// the opaque remote/AI-activity/conflict records the metadata store
// persists on the DAG's behalf.
package object

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/antgroup/linage/modules/plumbing"
)

// ChangeType classifies a LineChange.
type ChangeType string

const (
	Added    ChangeType = "ADDED"
	Deleted  ChangeType = "DELETED"
	Modified ChangeType = "MODIFIED"
)

// Protocol is the transport a Remote is reached over. The core treats
// remotes as opaque; the shape is defined only because MetadataStore
// persists it.
type Protocol string

const (
	ProtocolHTTPS Protocol = "HTTPS"
	ProtocolSSH   Protocol = "SSH"
	ProtocolFile  Protocol = "FILE"
)

// FileRecord describes one path's state within a Snapshot. Path is
// normalized to forward slashes and relative to the repository root.
type FileRecord struct {
	ID         int64
	Path       string
	Digest     plumbing.Digest
	Size       int64
	ModifiedAt time.Time
	Deleted    bool
}

// Snapshot is the ordered set of FileRecords referenced by a Commit.
type Snapshot struct {
	ID        int64
	Timestamp time.Time
	Files     []FileRecord
}

// Digest computes the snapshot's stable Merkle-style hash: a hash of
// (path, content digest, deleted flag) triples sorted by path.
func (s Snapshot) Digest(h plumbing.Hasher) plumbing.Digest {
	files := make([]FileRecord, len(s.Files))
	copy(files, s.Files)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "%s\x00%s\x00%t\n", f.Path, f.Digest, f.Deleted)
	}
	return h.HashText(b.String())
}

// Commit is one node of the DAG. Zero parents marks a root commit, one a
// linear commit, two or more a merge commit.
type Commit struct {
	ID          string
	Digest      plumbing.Digest
	Message     string
	AuthorName  string
	AuthorEmail string
	Timestamp   time.Time
	Parents     []string
	Snapshot    Snapshot
	AIAssisted  bool
}

// ComputeDigest derives the commit's content digest from
// (message, author, timestamp, snapshot digest, sorted parent ids). Parents
// holds commit ids, so the parents' own digests are not part of the input.
// The digest is fixed at creation; any field change requires a new commit.
func (c Commit) ComputeDigest(h plumbing.Hasher) plumbing.Digest {
	parents := make([]string, len(c.Parents))
	copy(parents, c.Parents)
	sort.Strings(parents)

	snapDigest := c.Snapshot.Digest(h)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\x00%s <%s>\x00%d\x00%s\x00%s\n",
		c.Message, c.AuthorName, c.AuthorEmail, c.Timestamp.UnixNano(), snapDigest, strings.Join(parents, ","))
	return h.HashText(b.String())
}

// IsRoot reports whether the commit has no parents.
func (c Commit) IsRoot() bool { return len(c.Parents) == 0 }

// IsMerge reports whether the commit has two or more parents.
func (c Commit) IsMerge() bool { return len(c.Parents) >= 2 }

// Branch names a commit. Moving the head is the only legal mutation after
// creation; branch names are unique within a repository.
type Branch struct {
	ID        int64
	Name      string
	Head      string
	Active    bool
	CreatedAt time.Time
}

// LineChange is one hashed line delta, derived data attributable to a
// commit.
type LineChange struct {
	ID         int64
	LineNumber int
	OldDigest  plumbing.Digest
	NewDigest  plumbing.Digest
	Type       ChangeType
	Timestamp  time.Time
	CommitID   string
}

// Remote is persisted verbatim by the metadata store; the core never
// interprets its contents beyond storage.
type Remote struct {
	Name      string
	URL       string
	Protocol  Protocol
	IsDefault bool
	ProjectID string
}

// AIActivity records that a commit (or part of it) was produced with AI
// assistance, for audit and reporting purposes only.
type AIActivity struct {
	ID        int64
	CommitID  string
	Note      string
	Timestamp time.Time
}

// Conflict is one unresolved (or resolved) path from a three-way merge.
type Conflict struct {
	ID           int64
	Path         string
	BaseText     string
	LocalText    string
	RemoteText   string
	Resolved     bool
	ResolvedText string
}
