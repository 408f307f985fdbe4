package dupscan

import (
	"bufio"
	"fmt"
	"os"
)

// SortedCollector is an external-memory sorted multiset: an in-memory
// run accumulates pushed (key, path) pairs until it hits MaxMapSize, at
// which point it is flushed to disk and merged with whatever sorted
// file the collector already owns.
type SortedCollector struct {
	tempDir    string
	run        *runIndex
	sortedPath string
	hasFile    bool
}

// NewSortedCollector creates an empty collector whose scratch files
// live under tempDir.
func NewSortedCollector(tempDir string) *SortedCollector {
	return &SortedCollector{
		tempDir: tempDir,
		run:     newRunIndex(),
	}
}

// Push appends (key, path) to the current in-memory run, flushing to
// disk first if the run has reached MaxMapSize.
func (sc *SortedCollector) Push(key, path string) error {
	if sc.run.len() >= MaxMapSize {
		if err := sc.flush(); err != nil {
			return err
		}
	}
	sc.run.push(key, path)
	return nil
}

// Finish flushes any remaining in-memory entries and returns the path
// to the collector's sorted file. The bool is false if nothing was ever
// pushed, in which case the collector owns no file.
func (sc *SortedCollector) Finish() (string, bool, error) {
	if err := sc.flush(); err != nil {
		return "", false, err
	}
	return sc.sortedPath, sc.hasFile, nil
}

// SortedFile reports the same result Finish returned, without flushing.
func (sc *SortedCollector) SortedFile() (string, bool) {
	return sc.sortedPath, sc.hasFile
}

func (sc *SortedCollector) flush() error {
	if sc.run.isEmpty() {
		return nil
	}
	if !sc.hasFile {
		return sc.flushInitial()
	}
	return sc.flushMerge()
}

// flushInitial handles the first flush: there is no existing sorted
// file yet, so the run is written out directly in ascending key order.
func (sc *SortedCollector) flushInitial() error {
	f, err := os.CreateTemp(sc.tempDir, "sortedFiles-*.tmp")
	if err != nil {
		return &IoError{Op: "create initial sorted file", Err: err}
	}
	path := f.Name()

	var lines [][]byte
	sc.run.forEach(func(group *runGroup) {
		for _, p := range group.Paths {
			lines = append(lines, []byte(group.Key+RecordDelimiter+p+"\n"))
		}
	})

	if err := writeLinesBatched(f, lines); err != nil {
		f.Close()
		if rmErr := os.Remove(path); rmErr != nil {
			VerboseLog(1, "flush: failed to clean up partial sorted file %s: %v", path, rmErr)
		}
		VerboseLog(1, "flush: failed to write initial sorted file, dropping run: %v", err)
		sc.run = newRunIndex()
		return nil
	}

	if err := f.Close(); err != nil {
		VerboseLog(1, "flush: failed to close initial sorted file: %v", err)
	}

	sc.sortedPath = path
	sc.hasFile = true
	sc.run = newRunIndex()
	return nil
}

// flushMerge handles every subsequent flush: the run is merged with the
// existing sorted file into a fresh temp file, which then becomes the
// collector's sorted file.
func (sc *SortedCollector) flushMerge() error {
	newFile, err := os.CreateTemp(sc.tempDir, "sortedFiles-*.tmp")
	if err != nil {
		return &IoError{Op: "create merge sorted file", Err: err}
	}
	newPath := newFile.Name()

	if err := sc.mergeInto(newFile); err != nil {
		newFile.Close()
		os.Remove(newPath)
		return &IoError{Op: "merge sorted file", Err: err}
	}

	if err := newFile.Close(); err != nil {
		return &IoError{Op: "close merged sorted file", Err: err}
	}

	oldPath := sc.sortedPath
	sc.sortedPath = newPath
	sc.run = newRunIndex()

	if err := os.Remove(oldPath); err != nil {
		VerboseLog(1, "flush: failed to remove superseded sorted file %s: %v", oldPath, err)
	}
	return nil
}

// mergeInto performs the two-way linear merge of the collector's
// existing sorted file with its in-memory run, writing the result to
// dst. On a key tie the on-disk line is emitted first — this preserves
// the temporal order of equal keys pushed across flush boundaries and
// must not be changed.
func (sc *SortedCollector) mergeInto(dst *os.File) error {
	oldFile, err := os.Open(sc.sortedPath)
	if err != nil {
		return fmt.Errorf("failed to open existing sorted file: %w", err)
	}
	defer oldFile.Close()

	scanner := bufio.NewScanner(oldFile)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var oldLine, oldKey string
	oldHasLine := scanner.Scan()
	if oldHasLine {
		oldLine = scanner.Text()
		if rec, ok := parseSortedLine(oldLine); ok {
			oldKey = rec.Key
		}
	}

	node := sc.run.skiplist.First()

	const batchSize = 4096
	var lines [][]byte

	flushBatch := func() error {
		if len(lines) == 0 {
			return nil
		}
		if err := writeLinesBatched(dst, lines); err != nil {
			return err
		}
		lines = lines[:0]
		return nil
	}

	emitGroup := func(group *runGroup) {
		for _, p := range group.Paths {
			lines = append(lines, []byte(group.Key+RecordDelimiter+p+"\n"))
		}
	}

	for oldHasLine || node != nil {
		switch {
		case oldHasLine && node != nil:
			if node.Item().Key >= oldKey {
				lines = append(lines, []byte(oldLine+"\n"))
				oldHasLine = scanner.Scan()
				if oldHasLine {
					oldLine = scanner.Text()
					if rec, ok := parseSortedLine(oldLine); ok {
						oldKey = rec.Key
					}
				}
			} else {
				emitGroup(node.Item())
				node = node.Next()
			}
		case node != nil:
			emitGroup(node.Item())
			node = node.Next()
		default:
			lines = append(lines, []byte(oldLine+"\n"))
			oldHasLine = scanner.Scan()
			if oldHasLine {
				oldLine = scanner.Text()
				if rec, ok := parseSortedLine(oldLine); ok {
					oldKey = rec.Key
				}
			}
		}

		if len(lines) >= batchSize {
			if err := flushBatch(); err != nil {
				return err
			}
		}
	}

	if err := flushBatch(); err != nil {
		return err
	}
	return scanner.Err()
}
