package blobstore

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/antgroup/linage/modules/plumbing"
	"github.com/antgroup/linage/pkg/linage/errs"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	h, err := plumbing.NewHasher("SHA256")
	require.NoError(t, err)
	s, err := Open(t.TempDir(), h)
	require.NoError(t, err)
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newStore(t)
	digest, err := s.Put([]byte("hello\n"))
	require.NoError(t, err)

	got, err := s.Get(digest)
	require.NoError(t, err)
	require.Equal(t, []byte("hello\n"), got)
	require.True(t, s.Exists(digest))
}

func TestPutIsIdempotent(t *testing.T) {
	s := newStore(t)
	d1, err := s.Put([]byte("content"))
	require.NoError(t, err)
	d2, err := s.Put([]byte("content"))
	require.NoError(t, err)
	require.Equal(t, d1, d2)
	require.Equal(t, int64(1), s.Count())
}

func TestPutStreamMatchesPut(t *testing.T) {
	s := newStore(t)
	want, err := s.Put([]byte("streamed"))
	require.NoError(t, err)

	s2 := newStore(t)
	got, err := s2.PutStream(bytes.NewReader([]byte("streamed")))
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestGetMissingIsNotFound(t *testing.T) {
	s := newStore(t)
	h, _ := plumbing.NewHasher("SHA256")
	_, err := s.Get(h.HashText("never written"))
	require.True(t, errs.IsNotFound(err))
}

func TestOpenReturnsReadableStream(t *testing.T) {
	s := newStore(t)
	digest, err := s.Put([]byte("payload"))
	require.NoError(t, err)

	r, err := s.Open(digest)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), data)
}

func TestDeleteUpdatesStats(t *testing.T) {
	s := newStore(t)
	digest, err := s.Put([]byte("gone"))
	require.NoError(t, err)
	require.Equal(t, int64(1), s.Count())

	require.NoError(t, s.Delete(digest))
	require.False(t, s.Exists(digest))
	require.Equal(t, int64(0), s.Count())
	require.Equal(t, int64(0), s.TotalBytes())
}

func TestShardLayout(t *testing.T) {
	dir := t.TempDir()
	h, _ := plumbing.NewHasher("SHA256")
	s, err := Open(dir, h)
	require.NoError(t, err)
	digest, err := s.Put([]byte("sharded"))
	require.NoError(t, err)

	hex := digest.String()
	want := filepath.Join(dir, ".linage", "objects", hex[:2], hex[2:])
	_, err = os.Stat(want)
	require.NoError(t, err)
}

func TestHydrateRestoresStatsFromDisk(t *testing.T) {
	dir := t.TempDir()
	h, _ := plumbing.NewHasher("SHA256")
	s, err := Open(dir, h)
	require.NoError(t, err)
	_, err = s.Put([]byte("a"))
	require.NoError(t, err)
	_, err = s.Put([]byte("bb"))
	require.NoError(t, err)

	reopened, err := Open(dir, h)
	require.NoError(t, err)
	require.Equal(t, int64(2), reopened.Count())
	require.Equal(t, int64(3), reopened.TotalBytes())
}
