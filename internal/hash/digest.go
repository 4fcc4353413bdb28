package phash

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// 1024 bytes * 64
const digestBufferSize = 65536

// ContentDigest hashes the whole file with xxhash seeded by its size, so files
// of different lengths never share a digest. The result is the decimal form of
// the 64 bit sum.
func ContentDigest(path string, size int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	h := xxhash.NewWithSeed(uint64(size))
	if err := writeDigest(h, f); err != nil {
		return "", fmt.Errorf("digest %q: %w", path, err)
	}
	return strconv.FormatUint(h.Sum64(), 10), nil
}

func writeDigest(h *xxhash.Digest, r io.ReaderAt) error {
	offset := int64(0)
	buf := make([]byte, digestBufferSize)
	for {
		n, err := r.ReadAt(buf, offset)
		// always returns len(b), nil
		_, _ = h.Write(buf[:n])
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}
		offset += int64(n)
	}
}
