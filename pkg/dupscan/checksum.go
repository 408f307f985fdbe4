package dupscan

import (
	"fmt"
	"hash/adler32"
	"io"
	"os"
)

// ChecksumEngine streams a file through Adler-32. Its accumulator is
// reset at the start of every call to Sum, so a single instance can be
// reused across files.
type ChecksumEngine struct {
	buf []byte
}

// NewChecksumEngine returns a ChecksumEngine using the recommended 4 KiB
// read buffer.
func NewChecksumEngine() *ChecksumEngine {
	return &ChecksumEngine{buf: make([]byte, ChecksumBufferSize)}
}

// Sum computes the Adler-32 checksum of the file at path. The result is
// widened to uint64 to mirror the source's accumulator width, but only
// the low 32 bits are ever significant.
func (c *ChecksumEngine) Sum(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	h := adler32.New()
	for {
		n, err := f.Read(c.buf)
		if n > 0 {
			h.Write(c.buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read file %s: %w", path, err)
		}
	}

	return uint64(h.Sum32()), nil
}
