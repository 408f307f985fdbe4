package dupscan

import (
	"strings"

	zcsl "github.com/mattkeenan/zerocopyskiplist"
)

// runGroup holds every path pushed under one key during a single
// in-memory run, in the order they were pushed.
type runGroup struct {
	Key   string
	Paths []string
}

// runIndex is an ordered mapping from key to a non-empty ordered list
// of paths, backed by a generic skiplist so ascending iteration comes
// for free instead of requiring a separate sort pass at flush time.
type runIndex struct {
	skiplist *zcsl.ZeroCopySkiplist[runGroup, string, string]
	count    int
}

func newRunIndex() *runIndex {
	getKey := func(g *runGroup) string { return g.Key }
	getSize := func(g *runGroup) int { return len(g.Key) }
	cmpKey := func(a, b string) int { return strings.Compare(a, b) }

	return &runIndex{
		skiplist: zcsl.MakeZeroCopySkiplist[runGroup, string, string](16, getKey, getSize, cmpKey),
	}
}

// push appends path to the ordered list for key, creating the group if
// this is its first appearance in the run.
func (r *runIndex) push(key, path string) {
	if node, _ := r.skiplist.Find(key); node != nil {
		group := node.Item()
		group.Paths = append(group.Paths, path)
		r.count++
		return
	}

	group := runGroup{Key: key, Paths: []string{path}}
	r.skiplist.Insert(&group, "")
	r.count++
}

// len returns the number of (key, path) entries pushed into this run,
// counting every path even when several share a key.
func (r *runIndex) len() int {
	return r.count
}

// isEmpty reports whether the run has never been pushed to.
func (r *runIndex) isEmpty() bool {
	return r.skiplist.IsEmpty()
}

// forEach visits every group in ascending key order.
func (r *runIndex) forEach(fn func(group *runGroup)) {
	for node := r.skiplist.First(); node != nil; node = node.Next() {
		fn(node.Item())
	}
}
