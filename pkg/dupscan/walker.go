package dupscan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Walker performs the depth-first traversal: every non-empty regular
// file it can stat and open for reading is pushed into a
// SortedCollector keyed on "<length>\<inode>",
// the pass-1 key. Directory symlinks are never followed; file symlinks
// are followed only when SymlinkConfig allows it.
type Walker struct {
	symlinks   *SymlinkConfig
	collector  *SortedCollector
	filesSeen  int
	bytesTotal uint64
}

// NewWalker builds a Walker that pushes into collector, honoring
// symlinks (nil means the default: follow file symlinks, skip
// directory symlinks).
func NewWalker(collector *SortedCollector, symlinks *SymlinkConfig) *Walker {
	if symlinks == nil {
		symlinks = &SymlinkConfig{Mode: "all"}
	}
	return &Walker{symlinks: symlinks, collector: collector}
}

// Walk traverses root, pushing every eligible regular file into the
// walker's collector. It does not fail the whole traversal on a single
// unreadable entry; such entries are skipped and logged.
func (w *Walker) Walk(root string) error {
	defer VerboseEnter()()

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			VerboseLog(1, "walk: skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		return w.visit(path, d)
	})
}

func (w *Walker) visit(path string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		VerboseLog(1, "walk: cannot stat %s: %v", path, err)
		return nil
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		if w.symlinks.Mode == "none" {
			VerboseLog(2, "walk: skipping symlink %s (symlinks disabled)", path)
			return nil
		}

		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			VerboseLog(1, "walk: unresolvable symlink %s: %v", path, err)
			return nil
		}

		target, err := os.Stat(resolved)
		if err != nil {
			VerboseLog(1, "walk: cannot stat symlink target %s: %v", resolved, err)
			return nil
		}

		if target.IsDir() {
			// Directory symlinks are never followed, matching the
			// non-recursive default expected of a bounded traversal.
			return nil
		}
		// Use the resolved target's metadata for the regular-file,
		// size, and inode checks below, but keep path as the link's
		// own path: pushing the resolved path would make a symlink
		// and its target collide on (length, inode) and be reported
		// as a hard link of itself.
		info = target
	}

	if !info.Mode().IsRegular() {
		VerboseLog(2, "walk: skipping non-regular file %s", path)
		return nil
	}

	if info.Size() == 0 {
		VerboseLog(2, "walk: skipping zero-length file %s", path)
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		VerboseLog(1, "walk: skipping unreadable file %s: %v", path, err)
		return nil
	}
	f.Close()

	inodeID, ok := inodeIdentity(info)
	if !ok {
		inodeID = NoInodeSentinel
	}

	record := FileRecord{Length: uint64(info.Size()), InodeID: inodeID, Path: path}
	key := SizeKey(record.Length, record.InodeID)

	if err := w.collector.Push(key, record.Path); err != nil {
		return fmt.Errorf("failed to push %s into collector: %w", path, err)
	}

	w.filesSeen++
	w.bytesTotal += record.Length
	return nil
}

// FilesSeen returns the count of regular files pushed so far.
func (w *Walker) FilesSeen() int {
	return w.filesSeen
}

// BytesTotal returns the sum of sizes of files pushed so far.
func (w *Walker) BytesTotal() uint64 {
	return w.bytesTotal
}
