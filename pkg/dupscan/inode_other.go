//go:build windows || plan9

package dupscan

import "os"

// inodeIdentity has no portable equivalent on this platform; every file
// reports the sentinel, so hard-link detection is disabled here.
func inodeIdentity(info os.FileInfo) (string, bool) {
	return NoInodeSentinel, false
}
