// Package blobstore implements the content-addressed, on-disk object store:
// every blob lives at a path derived from its digest, written once via a
// temp-file-then-rename so readers never observe a partial write.
package blobstore

import (
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/antgroup/linage/modules/plumbing"
	"github.com/antgroup/linage/pkg/linage/errs"
)

const component = "blobstore"

// Store is a content-addressed byte store rooted at <repoRoot>/.linage/objects.
type Store struct {
	root     string
	incoming string
	hasher   plumbing.Hasher

	count      atomic.Int64
	totalBytes atomic.Int64
}

// Open returns a Store rooted at repoRoot, creating the on-disk layout if
// absent and seeding Count/TotalBytes from what is already there.
func Open(repoRoot string, hasher plumbing.Hasher) (*Store, error) {
	root := filepath.Join(repoRoot, ".linage", "objects")
	incoming := filepath.Join(root, "incoming")
	if err := os.MkdirAll(incoming, 0o755); err != nil {
		return nil, errs.New(errs.IoError, component, root, err)
	}
	s := &Store{root: root, incoming: incoming, hasher: hasher}
	if err := s.hydrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) hydrate() error {
	return filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == s.incoming {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		s.count.Add(1)
		s.totalBytes.Add(info.Size())
		return nil
	})
}

// path returns the on-disk location for digest under the <aa>/<bb...> shard
// layout.
func (s *Store) path(digest plumbing.Digest) string {
	hex := digest.String()
	return filepath.Join(s.root, hex[:2], hex[2:])
}

// Put writes bytes keyed by their digest and returns it. A pre-existing
// blob with the same digest is left untouched.
func (s *Store) Put(data []byte) (plumbing.Digest, error) {
	digest := s.hasher.HashBytes(data)
	if s.Exists(digest) {
		return digest, nil
	}
	if err := s.writeAtomic(digest, data); err != nil {
		return plumbing.ZeroDigest, err
	}
	s.count.Add(1)
	s.totalBytes.Add(int64(len(data)))
	return digest, nil
}

// PutStream buffers r to a temp file while hashing it, then renames the
// temp file into place. The digest is only known once r is fully consumed,
// so the rename target cannot be chosen until the read completes.
func (s *Store) PutStream(r io.Reader) (plumbing.Digest, error) {
	tmp, err := os.CreateTemp(s.incoming, "blob-*")
	if err != nil {
		return plumbing.ZeroDigest, errs.New(errs.IoError, component, "", err)
	}
	tmpPath := tmp.Name()
	removeTmp := true
	defer func() {
		if removeTmp {
			_ = os.Remove(tmpPath)
		}
	}()

	hashReader := io.TeeReader(r, tmp)
	digest, err := s.hasher.HashStream(hashReader)
	if err != nil {
		_ = tmp.Close()
		return plumbing.ZeroDigest, errs.New(errs.IoError, component, "", err)
	}
	if err := tmp.Close(); err != nil {
		return plumbing.ZeroDigest, errs.New(errs.IoError, component, "", err)
	}

	if s.Exists(digest) {
		return digest, nil
	}
	dest := s.path(digest)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return plumbing.ZeroDigest, errs.New(errs.IoError, component, dest, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return plumbing.ZeroDigest, errs.New(errs.IoError, component, dest, err)
	}
	removeTmp = false
	_ = os.Chmod(dest, 0o444)

	info, err := os.Stat(dest)
	if err == nil {
		s.count.Add(1)
		s.totalBytes.Add(info.Size())
	}
	return digest, nil
}

func (s *Store) writeAtomic(digest plumbing.Digest, data []byte) error {
	tmp, err := os.CreateTemp(s.incoming, "blob-*")
	if err != nil {
		return errs.New(errs.IoError, component, "", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errs.New(errs.IoError, component, "", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errs.New(errs.IoError, component, "", err)
	}

	dest := s.path(digest)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		_ = os.Remove(tmpPath)
		return errs.New(errs.IoError, component, dest, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return errs.New(errs.IoError, component, dest, err)
	}
	_ = os.Chmod(dest, 0o444)
	return nil
}

// Get reads the full contents of digest.
func (s *Store) Get(digest plumbing.Digest) ([]byte, error) {
	data, err := os.ReadFile(s.path(digest))
	if os.IsNotExist(err) {
		return nil, errs.New(errs.NotFound, component, digest.String(), err)
	}
	if err != nil {
		return nil, errs.New(errs.IoError, component, digest.String(), err)
	}
	return data, nil
}

// Open returns a reader over digest's contents. The caller must Close it.
func (s *Store) Open(digest plumbing.Digest) (io.ReadCloser, error) {
	f, err := os.Open(s.path(digest))
	if os.IsNotExist(err) {
		return nil, errs.New(errs.NotFound, component, digest.String(), err)
	}
	if err != nil {
		return nil, errs.New(errs.IoError, component, digest.String(), err)
	}
	return f, nil
}

// Exists reports whether digest is already stored.
func (s *Store) Exists(digest plumbing.Digest) bool {
	_, err := os.Stat(s.path(digest))
	return err == nil
}

// Size returns the stored byte length of digest.
func (s *Store) Size(digest plumbing.Digest) (int64, error) {
	info, err := os.Stat(s.path(digest))
	if os.IsNotExist(err) {
		return 0, errs.New(errs.NotFound, component, digest.String(), err)
	}
	if err != nil {
		return 0, errs.New(errs.IoError, component, digest.String(), err)
	}
	return info.Size(), nil
}

// Delete removes digest from the store. Not exposed as part of any
// garbage-collection policy; callers are responsible for reachability.
func (s *Store) Delete(digest plumbing.Digest) error {
	size, err := s.Size(digest)
	if err != nil {
		return err
	}
	if err := os.Remove(s.path(digest)); err != nil {
		return errs.New(errs.IoError, component, digest.String(), err)
	}
	s.count.Add(-1)
	s.totalBytes.Add(-size)
	return nil
}

// Count returns the number of blobs currently stored.
func (s *Store) Count() int64 { return s.count.Load() }

// TotalBytes returns the sum of stored blob sizes.
func (s *Store) TotalBytes() int64 { return s.totalBytes.Load() }
