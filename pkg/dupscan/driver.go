package dupscan

import (
	"fmt"
	"io"
	"os"
)

// Result summarizes one scan run.
type Result struct {
	FilesScanned int
	BytesScanned uint64
}

// Run drives the full pipeline: walk root into a first sorted run keyed
// by size and inode, classify it into hard links plus a second sorted
// run keyed by checksum and length, then classify that run into
// confirmed duplicates. Findings are written to out as they are
// discovered.
func Run(root string, cfg *Config, out io.Writer) (Result, error) {
	defer VerboseEnter()()

	tempDir := EffectiveTempDir(cfg)
	var symlinks *SymlinkConfig
	if cfg != nil {
		symlinks = cfg.GetSymlinkConfig()
	}

	pass1Collector := NewSortedCollector(tempDir)
	walker := NewWalker(pass1Collector, symlinks)

	if err := walker.Walk(root); err != nil {
		if p, ok := pass1Collector.SortedFile(); ok {
			cleanupTempFile(p)
		}
		return Result{}, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	pass1Sorted, hasPass1, err := pass1Collector.Finish()
	if err != nil {
		if p, ok := pass1Collector.SortedFile(); ok {
			cleanupTempFile(p)
		}
		return Result{}, fmt.Errorf("failed to finalize pass-1 sorted file: %w", err)
	}
	result := Result{FilesScanned: walker.FilesSeen(), BytesScanned: walker.BytesTotal()}
	if !hasPass1 {
		return result, nil
	}
	defer cleanupTempFile(pass1Sorted)

	report := NewReporter(out)
	classifier := NewDuplicateClassifier(report)

	pass2Collector := NewSortedCollector(tempDir)
	if err := classifier.Pass1(pass1Sorted, pass2Collector); err != nil {
		if p, ok := pass2Collector.SortedFile(); ok {
			cleanupTempFile(p)
		}
		return result, fmt.Errorf("pass 1 failed: %w", err)
	}

	pass2Sorted, hasPass2, err := pass2Collector.Finish()
	if err != nil {
		if p, ok := pass2Collector.SortedFile(); ok {
			cleanupTempFile(p)
		}
		return result, fmt.Errorf("failed to finalize pass-2 sorted file: %w", err)
	}
	if !hasPass2 {
		return result, nil
	}
	defer cleanupTempFile(pass2Sorted)

	if err := classifier.Pass2(pass2Sorted); err != nil {
		return result, fmt.Errorf("pass 2 failed: %w", err)
	}

	return result, nil
}

func cleanupTempFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		VerboseLog(1, "driver: failed to remove temp file %s: %v", path, err)
	}
}
