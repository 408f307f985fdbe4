package dupscan

import (
	"fmt"
	"io"
)

// Reporter writes discovered duplicate relationships in dupscan's report
// format. Both lines are padded identically so a report reads as two
// aligned columns of "kind: rep  =  match".
type Reporter struct {
	w io.Writer
}

// NewReporter wraps w as a Reporter. w is typically os.Stdout, but tests
// pass a bytes.Buffer.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// HardLink reports that current is a hard link to previous (same
// device and inode). Unlike DuplicateFile, the later-walked path goes
// on the left: this mirrors the source's own asymmetry between the two
// report kinds.
func (r *Reporter) HardLink(current, previous string) {
	fmt.Fprintf(r.w, "Hard Links: %s  =  %s\n", current, previous)
}

// DuplicateFile reports that path is byte-identical to rep.
func (r *Reporter) DuplicateFile(rep, path string) {
	fmt.Fprintf(r.w, "Dup  Files: %s  =  %s\n", rep, path)
}
