package dupscan

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DuplicateClassifier implements both passes of the duplicate-detection
// algorithm over a sorted file produced by a SortedCollector.
//
// Pass 1 reads pass-1 keys ("<length>\<inode>") one record at a time.
// Because the input is sorted, records sharing an inode are adjacent;
// each is compared only to its immediate predecessor, so hard links
// are reported without ever buffering a whole inode group. The first
// record of each distinct inode within a same-length run is a
// candidate: while a run holds fewer than MinCountChecksum candidates
// they are buffered (at most MinCountChecksum-1 paths) for a direct
// pairwise compare once the run ends; the moment a run's candidate
// count reaches MinCountChecksum, the buffered candidates and every
// candidate after them are checksummed and handed to a second
// collector for pass 2 as they are seen, so a same-length run of any
// size is processed in bounded memory.
//
// Pass 2 reads pass-2 keys ("<adler32>\<length>") and confirms every
// checksum collision with a byte-exact comparison before reporting a
// duplicate, since Adler-32 is not collision-free. Pass 2's groups are
// bounded by true duplicate-content count rather than total file
// population, so buffering a whole group is acceptable here.
type DuplicateClassifier struct {
	compare  *ContentComparator
	checksum *ChecksumEngine
	report   *Reporter
}

// NewDuplicateClassifier returns a classifier that writes findings to
// report.
func NewDuplicateClassifier(report *Reporter) *DuplicateClassifier {
	return &DuplicateClassifier{
		compare:  NewContentComparator(),
		checksum: NewChecksumEngine(),
		report:   report,
	}
}

type sortedRecord struct {
	Key  string
	Path string
}

func parseSortedLine(line string) (sortedRecord, bool) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return sortedRecord{}, false
	}
	return sortedRecord{Key: line[:idx], Path: line[idx+1:]}, true
}

// clusterReader groups consecutive sorted-file records for which
// sameCluster reports true against the cluster's first key. Because the
// input is sorted, all such records are contiguous. The final cluster
// is returned when the underlying scanner is exhausted rather than
// being dropped, which is required to match every record in the file.
type clusterReader struct {
	scanner *bufio.Scanner
	pending *sortedRecord
	done    bool
	scanErr error
}

func newClusterReader(f *os.File) *clusterReader {
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &clusterReader{scanner: scanner}
}

func (cr *clusterReader) next(sameCluster func(a, b string) bool) []sortedRecord {
	if cr.done && cr.pending == nil {
		return nil
	}

	var cluster []sortedRecord
	if cr.pending != nil {
		cluster = append(cluster, *cr.pending)
		cr.pending = nil
	}

	for cr.scanner.Scan() {
		rec, ok := parseSortedLine(cr.scanner.Text())
		if !ok {
			continue
		}
		if len(cluster) == 0 || sameCluster(cluster[0].Key, rec.Key) {
			cluster = append(cluster, rec)
			continue
		}
		cr.pending = &rec
		return cluster
	}

	cr.done = true
	cr.scanErr = cr.scanner.Err()
	if len(cluster) == 0 {
		return nil
	}
	return cluster
}

func (cr *clusterReader) err() error {
	return cr.scanErr
}

// Pass1 streams the pass-1 sorted file at sortedPath record by record,
// reporting hard links as adjacent same-inode records are found,
// resolving small same-length runs with a direct pairwise compare, and
// pushing checksum candidates for larger runs into next as they are
// seen rather than buffering the run.
func (dc *DuplicateClassifier) Pass1(sortedPath string, next *SortedCollector) error {
	f, err := os.Open(sortedPath)
	if err != nil {
		return fmt.Errorf("failed to open pass-1 sorted file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var (
		curLength    string
		prevInode    string
		prevPath     string
		hasPrev      bool
		candidates   int
		checksumMode bool
		pending      []sortedRecord // at most MinCountChecksum-1 buffered candidates
	)

	flushPending := func() {
		if checksumMode || len(pending) == 0 {
			return
		}
		paths := make([]string, len(pending))
		for i, r := range pending {
			paths[i] = r.Path
		}
		dc.dedupeByContent(paths)
	}

	startRun := func(length string) {
		flushPending()
		curLength = length
		hasPrev = false
		candidates = 0
		checksumMode = false
		pending = nil
	}

	for scanner.Scan() {
		rec, ok := parseSortedLine(scanner.Text())
		if !ok {
			continue
		}
		length, inode := splitKey(rec.Key)

		if length != curLength {
			startRun(length)
		}

		if hasPrev && inode == prevInode && inode != NoInodeSentinel {
			// Sorted order makes hard links adjacent, so each is
			// reported relative to its immediate predecessor rather
			// than a single run-wide representative.
			dc.report.HardLink(rec.Path, prevPath)
			prevPath = rec.Path
			hasPrev = true
			continue
		}

		candidates++
		switch {
		case checksumMode:
			if err := dc.checksumAndPush(rec, next); err != nil {
				return err
			}
		case candidates < MinCountChecksum:
			pending = append(pending, rec)
		default:
			checksumMode = true
			for _, buffered := range pending {
				if err := dc.checksumAndPush(buffered, next); err != nil {
					return err
				}
			}
			pending = nil
			if err := dc.checksumAndPush(rec, next); err != nil {
				return err
			}
		}

		prevInode = inode
		prevPath = rec.Path
		hasPrev = true
	}

	flushPending()
	return scanner.Err()
}

// checksumAndPush computes rec's checksum and pushes it, keyed for
// pass 2, into next. A checksum failure is logged and the record is
// dropped rather than failing the whole pass.
func (dc *DuplicateClassifier) checksumAndPush(rec sortedRecord, next *SortedCollector) error {
	lengthStr, _ := splitKey(rec.Key)
	length, err := strconv.ParseUint(lengthStr, 10, 64)
	if err != nil {
		return fmt.Errorf("corrupt pass-1 length key %q: %w", rec.Key, err)
	}

	sum, err := dc.checksum.Sum(rec.Path)
	if err != nil {
		VerboseLog(1, "pass1: failed to checksum %s, skipping: %v", rec.Path, err)
		return nil
	}

	if err := next.Push(ChecksumKey(sum, length), rec.Path); err != nil {
		return fmt.Errorf("failed to push checksum entry for %s: %w", rec.Path, err)
	}
	return nil
}

// Pass2 reads the pass-2 sorted file at sortedPath and reports every
// confirmed duplicate within each checksum cluster.
func (dc *DuplicateClassifier) Pass2(sortedPath string) error {
	f, err := os.Open(sortedPath)
	if err != nil {
		return fmt.Errorf("failed to open pass-2 sorted file: %w", err)
	}
	defer f.Close()

	cr := newClusterReader(f)
	sameKey := func(a, b string) bool { return a == b }

	for {
		cluster := cr.next(sameKey)
		if cluster == nil {
			break
		}
		if len(cluster) < 2 {
			continue
		}

		paths := make([]string, len(cluster))
		for i, r := range cluster {
			paths[i] = r.Path
		}
		dc.dedupeByContent(paths)
	}
	return cr.err()
}

// dedupeByContent partitions paths into buckets of byte-identical
// content, reporting every non-first member of a bucket as a duplicate
// of that bucket's first member. Adler-32 collisions between files with
// genuinely different content simply land in different buckets.
func (dc *DuplicateClassifier) dedupeByContent(paths []string) {
	var reps []string
	for _, p := range paths {
		matched := false
		for _, rep := range reps {
			if dc.compare.Compare(rep, p) == 0 {
				dc.report.DuplicateFile(rep, p)
				matched = true
				break
			}
		}
		if !matched {
			reps = append(reps, p)
		}
	}
}
