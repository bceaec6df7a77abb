package state

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"
)

// digestPrefix labels every printed hash with the digest family in use, so
// manifests stay readable across future algorithm upgrades (§4.3, §9 open
// question (i)). xxHash64 was chosen over FNV-1a for its much lower
// collision rate at comparable speed.
const digestPrefix = "xxh64:"

// hashReader digests r's content and returns it prefixed and formatted as
// "xxh64:%016x".
func hashReader(r io.Reader) (string, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", zerr.Wrap(err, "failed to hash content")
	}
	return formatDigest(h.Sum64()), nil
}

func formatDigest(sum uint64) string {
	return fmt.Sprintf("%s%016x", digestPrefix, sum)
}

// hashFileContent digests the file at path.
func hashFileContent(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path is controlled by the caller
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck
	return hashReader(f)
}

// hashCombinedSources digests the concatenation of each source's own digest,
// in declared order, separated by a NUL byte (§9 open question (iii)).
func hashCombinedSources(digests []string) string {
	h := xxhash.New()
	for _, d := range digests {
		_, _ = h.WriteString(d)
		_, _ = h.Write([]byte{0})
	}
	return formatDigest(h.Sum64())
}

// hashFlags digests an ordered flag list with a NUL separator between
// elements (§4.3).
func hashFlags(flags []string) string {
	h := xxhash.New()
	for _, f := range flags {
		_, _ = h.WriteString(f)
		_, _ = h.Write([]byte{0})
	}
	return formatDigest(h.Sum64())
}
