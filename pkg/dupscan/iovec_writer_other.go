//go:build windows || plan9

package dupscan

import (
	"bufio"
	"fmt"
	"os"
)

// writeLinesBatched falls back to buffered sequential writes on
// platforms without writev(2)/vectorio support.
func writeLinesBatched(f *os.File, lines [][]byte) error {
	w := bufio.NewWriterSize(f, CompareBufferSize)
	for _, line := range lines {
		if _, err := w.Write(line); err != nil {
			return fmt.Errorf("failed to write line: %w", err)
		}
	}
	return w.Flush()
}
