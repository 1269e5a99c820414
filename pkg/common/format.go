package common

// MagicBytes identifies a decaf archive. It is the 8-byte ASCII string
// "iamdecaf", read and written little-endian like every other
// multi-byte field in the format.
var MagicBytes = []byte("iamdecaf")

// vestigialMagicBytes was used by an earlier revision of the codec and
// must never be written by this package. Nothing reads it: an archive
// starting with these bytes fails decode with the same plain
// ErrBadMagic as any other non-decaf input.
var vestigialMagicBytes = []byte("notdecaf")

const (
	// MagicLength is len(MagicBytes).
	MagicLength = 8
	// ArchiveChecksumLength is the size of the archive_checksum header field.
	ArchiveChecksumLength = 8
	// BodyHeaderLength is the size of the three 8-byte body header ints
	// (listing_block_length, listing_count, bundle_count).
	BodyHeaderLength = 24
	// HeaderLength is the total size of magic + archive_checksum, i.e.
	// the offset at which the body begins.
	HeaderLength = MagicLength + ArchiveChecksumLength
	// MinArchiveLength is the decode-time size floor: anything shorter
	// fails decode with ErrTooSmall. It is above the 40 bytes of header
	// plus body header; an encoded archive always also carries at least
	// one bundle directory entry and one compressed bundle.
	MinArchiveLength = 64

	// BundleTargetSize is the soft cap described in spec.md §4.2: a
	// bundle is closed (and a new one started) once its length
	// *exceeds* this many bytes, not before.
	BundleTargetSize = 10_000_000

	// ListingRecordFixedLength is the fixed portion of a listing
	// record, i.e. everything before the variable-length path bytes.
	ListingRecordFixedLength = 44
	// BundleDirectoryEntryLength is the size of one bundle directory entry.
	BundleDirectoryEntryLength = 24

	// DirModeBit is the sentinel bit (POSIX S_IFDIR) that marks a
	// listing as a bare directory rather than a regular file.
	DirModeBit = 0o040000

	// ZstdLevel is the compression level used for every bundle.
	ZstdLevel = 3
)
