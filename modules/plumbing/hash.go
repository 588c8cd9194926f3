package plumbing

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"sort"

	"github.com/zeebo/blake3"
)

const (
	// DigestSize is the length in bytes of a Digest.
	DigestSize = 32
	// DigestHexSize is the length of a Digest's hex encoding.
	DigestHexSize = 64
	reverseHexTable = "" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\x00\x01\x02\x03\x04\x05\x06\x07\x08\x09\xff\xff\xff\xff\xff\xff" +
		"\xff\x0a\x0b\x0c\x0d\x0e\x0f\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\x0a\x0b\x0c\x0d\x0e\x0f\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff"
)

// ZeroDigest is the Digest with all bytes zero; it never names a real blob.
var ZeroDigest Digest

// Digest is a content digest: 32 bytes, serialized as 64 lowercase hex
// characters, totally ordered by lexicographic hex.
type Digest [DigestSize]byte

func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Digest) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return err
	}
	copy(d[:], b)
	return nil
}

// NewDigest parses a hex string into a Digest without reporting errors: the
// hex pairs before the first malformed character are decoded and every
// remaining byte is left zero. Use NewDigestStrict to detect malformed input.
func NewDigest(s string) Digest {
	b, _ := hex.DecodeString(s)
	var d Digest
	copy(d[:], b)
	return d
}

func (d Digest) IsZero() bool {
	return d == ZeroDigest
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// ValidateDigestHex returns true if s is a well-formed digest hex string.
func ValidateDigestHex(s string) bool {
	if len(s) != DigestHexSize {
		return false
	}
	for _, b := range []byte(s) {
		if c := reverseHexTable[b]; c > 0x0f {
			return false
		}
	}
	return true
}

// NewDigestStrict parses s, reporting malformed input as an error.
func NewDigestStrict(s string) (Digest, error) {
	if !ValidateDigestHex(s) {
		return ZeroDigest, fmt.Errorf("linage: %q is not a valid digest", s)
	}
	return NewDigest(s), nil
}

// IsShardDir reports whether s is a valid two-hex-character shard directory
// name under the blob store root.
func IsShardDir(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, b := range []byte(s) {
		if c := reverseHexTable[b]; c > 0x0f {
			return false
		}
	}
	return true
}

// DigestSlice attaches sort.Interface to []Digest, sorting in increasing
// lexicographic hex order.
type DigestSlice []Digest

func (p DigestSlice) Len() int           { return len(p) }
func (p DigestSlice) Less(i, j int) bool { return bytes.Compare(p[i][:], p[j][:]) < 0 }
func (p DigestSlice) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }

// SortDigests sorts a slice of Digests in increasing order.
func SortDigests(a []Digest) {
	sort.Sort(DigestSlice(a))
}

// Hasher computes stable content digests over bytes, streams, and text.
// Algorithm is selected at construction; content is public, so comparisons
// need not be constant-time.
type Hasher interface {
	HashBytes(b []byte) Digest
	HashStream(r io.Reader) (Digest, error)
	HashText(t string) Digest
	Verify(text string, want Digest) bool
	Algorithm() string
}

type hasher struct {
	algo string
	new  func() hash.Hash
}

// NewHasher constructs a Hasher for the named algorithm. "" and "SHA256"
// select the default (stdlib SHA-256); "BLAKE3" selects blake3. An unknown
// name is an InvalidInput-class error.
func NewHasher(algo string) (Hasher, error) {
	switch algo {
	case "", "SHA256", "sha256":
		return &hasher{algo: "SHA256", new: func() hash.Hash { return sha256.New() }}, nil
	case "BLAKE3", "blake3":
		return &hasher{algo: "BLAKE3", new: func() hash.Hash { return blake3.New() }}, nil
	default:
		return nil, fmt.Errorf("linage: unknown hash algorithm %q", algo)
	}
}

func (h *hasher) HashBytes(b []byte) Digest {
	sum := h.new()
	_, _ = sum.Write(b)
	var d Digest
	copy(d[:], sum.Sum(nil))
	return d
}

func (h *hasher) HashStream(r io.Reader) (Digest, error) {
	sum := h.new()
	if _, err := io.Copy(sum, r); err != nil {
		return ZeroDigest, fmt.Errorf("linage: hash stream: %w", err)
	}
	var d Digest
	copy(d[:], sum.Sum(nil))
	return d, nil
}

func (h *hasher) HashText(t string) Digest {
	return h.HashBytes([]byte(t))
}

func (h *hasher) Verify(text string, want Digest) bool {
	return h.HashText(text) == want
}

func (h *hasher) Algorithm() string {
	return h.algo
}
