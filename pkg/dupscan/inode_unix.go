//go:build !windows && !plan9

package dupscan

import (
	"os"
	"strconv"
	"syscall"
)

// inodeIdentity returns the "<dev>.<ino>" identity of info's underlying
// inode, or (NoInodeSentinel, false) if the platform stat structure is
// unavailable. The separator must not be RecordDelimiter or
// FieldDelimiter: both already partition a sorted-file line, and an
// inode identity containing either would be split at the wrong point.
func inodeIdentity(info os.FileInfo) (string, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return NoInodeSentinel, false
	}
	return strconv.FormatUint(uint64(stat.Dev), 10) + "." + strconv.FormatUint(uint64(stat.Ino), 10), true
}
