package download

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/conn-castle/install-unity/internal/messages"
)

// checksum is an expected digest and the algorithm producing it.
type checksum struct {
	algo   string
	digest string
}

// parseChecksum accepts "md5:<hex>", "sha256:<hex>", or a bare hex digest whose
// length selects the algorithm. An empty string yields the zero checksum.
func parseChecksum(raw string) (checksum, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return checksum{}, nil
	}
	algo, digest, found := strings.Cut(raw, ":")
	if !found {
		digest = algo
		switch len(digest) {
		case md5.Size * 2:
			algo = "md5"
		case sha256.Size * 2:
			algo = "sha256"
		default:
			return checksum{}, fmt.Errorf(messages.DownloadInvalidChecksumFmt, raw)
		}
	}
	algo = strings.ToLower(algo)
	digest = strings.ToLower(digest)
	want := 0
	switch algo {
	case "md5":
		want = md5.Size * 2
	case "sha256":
		want = sha256.Size * 2
	default:
		return checksum{}, fmt.Errorf(messages.DownloadUnsupportedHashFmt, algo)
	}
	if _, err := hex.DecodeString(digest); err != nil || len(digest) != want {
		return checksum{}, fmt.Errorf(messages.DownloadInvalidChecksumFmt, raw)
	}
	return checksum{algo: algo, digest: digest}, nil
}

func (c checksum) empty() bool {
	return c.digest == ""
}

func (c checksum) newHash() hash.Hash {
	if c.algo == "md5" {
		return md5.New()
	}
	return sha256.New()
}

func (c checksum) String() string {
	return c.algo + ":" + c.digest
}

// verifyFile hashes path and compares the result with c. onRead is called with
// the number of bytes hashed so far.
func verifyFile(ctx context.Context, path string, c checksum, onRead func(int64)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf(messages.DownloadOpenFileFmt, path, err)
	}
	defer func() { _ = f.Close() }()

	h := c.newHash()
	r := &progressReader{ctx: ctx, r: f, onRead: onRead}
	if _, err := io.Copy(h, r); err != nil {
		return fmt.Errorf(messages.DownloadHashFileFmt, path, err)
	}
	actual := hex.EncodeToString(h.Sum(nil))
	if actual != c.digest {
		return fmt.Errorf(messages.DownloadChecksumMismatchFmt, path, c.digest, actual)
	}
	return nil
}

// progressReader reports cumulative reads and stops once ctx is done.
type progressReader struct {
	ctx    context.Context
	r      io.Reader
	n      int64
	onRead func(int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.r.Read(b)
	p.n += int64(n)
	if p.onRead != nil && n > 0 {
		p.onRead(p.n)
	}
	return n, err
}
