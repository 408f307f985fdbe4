package dupscan

// Field and record delimiters used by the sorted-file wire format.
const (
	// FieldDelimiter separates the two parts of a key ("<length>\<inode>"
	// or "<checksum>\<length>").
	FieldDelimiter = "\\"
	// RecordDelimiter separates a key from its path on a sorted-file line.
	RecordDelimiter = ":"
)

// NoInodeSentinel is used as the inode identity when the filesystem
// does not expose one.
const NoInodeSentinel = "()"

// Tuning constants from the source implementation.
const (
	// MaxMapSize is the number of entries an in-memory run holds before
	// it is flushed to disk.
	MaxMapSize = 100_000

	// MinCountChecksum is the cluster size at which the classifier
	// switches from pairwise content comparison to Adler-32 pre-filtering.
	MinCountChecksum = 3

	// ChecksumBufferSize is the read buffer used by ChecksumEngine.
	ChecksumBufferSize = 4 * 1024

	// CompareBufferSize is the read buffer used by ContentComparator.
	CompareBufferSize = 8 * 1024
)

// ExitInputValidation is the CLI exit code for an invalid or non-directory
// starting path.
const ExitInputValidation = 501
