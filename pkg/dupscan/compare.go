package dupscan

import (
	"bufio"
	"io"
	"os"
)

// ContentComparator does byte-exact comparison of two files, tolerant
// of either file having disappeared since it was catalogued.
type ContentComparator struct{}

// NewContentComparator returns a ready-to-use comparator. It carries no
// state; the zero value would work too, but the constructor matches the
// package's other component types.
func NewContentComparator() *ContentComparator {
	return &ContentComparator{}
}

// Compare returns 0 iff both files exist and have byte-identical
// contents. A negative result means p1 is "less" (missing, shorter, or
// has a lower first differing byte); positive means the opposite. Sign
// is not meaningful when either input does not exist or an I/O error
// occurs mid-read — only the zero/non-zero distinction is a contract.
func (c *ContentComparator) Compare(p1, p2 string) int {
	info1, err1 := os.Stat(p1)
	info2, err2 := os.Stat(p2)

	if err1 != nil {
		return -1
	}
	if err2 != nil {
		return 1
	}

	len1, len2 := uint64(info1.Size()), uint64(info2.Size())
	if len1 != len2 {
		if len1 < len2 {
			return -1
		}
		return 1
	}

	f1, err := os.Open(p1)
	if err != nil {
		VerboseLog(1, "compare: failed to open %s: %v", p1, err)
		return -1
	}
	defer f1.Close()

	f2, err := os.Open(p2)
	if err != nil {
		VerboseLog(1, "compare: failed to open %s: %v", p2, err)
		return -1
	}
	defer f2.Close()

	r1 := bufio.NewReaderSize(f1, CompareBufferSize)
	r2 := bufio.NewReaderSize(f2, CompareBufferSize)

	for {
		b1, err1 := r1.ReadByte()
		b2, err2 := r2.ReadByte()

		if err1 == io.EOF && err2 == io.EOF {
			return 0
		}
		if err1 != nil && err1 != io.EOF {
			VerboseLog(1, "compare: read error on %s: %v", p1, err1)
			return -1
		}
		if err2 != nil && err2 != io.EOF {
			VerboseLog(1, "compare: read error on %s: %v", p2, err2)
			return -1
		}
		// One EOF and not the other can't happen given the equal-length
		// check above, unless the file changed size underneath us.
		if err1 == io.EOF || err2 == io.EOF {
			if err1 == io.EOF {
				return -1
			}
			return 1
		}

		if b1 != b2 {
			if b1 < b2 {
				return -1
			}
			return 1
		}
	}
}
