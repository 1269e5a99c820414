package common

// Listing is the unit of archiving: one file or bare directory,
// matching spec.md §3. A bare directory always has Permissions with
// DirModeBit set, zero Checksum, and empty Content.
type Listing struct {
	Path        string
	Permissions uint32
	Checksum    uint64
	Content     []byte
}

// IsDir reports whether l is a bare-directory listing.
func (l *Listing) IsDir() bool {
	return l.Permissions&DirModeBit == DirModeBit
}

// Less implements the total order from spec.md §3: content length,
// then path length, then permissions, then content bytes, all
// ascending. It is the sole determinism anchor for on-disk layout, so
// changing it changes the wire format.
func (l *Listing) Less(other *Listing) bool {
	if len(l.Content) != len(other.Content) {
		return len(l.Content) < len(other.Content)
	}
	if len(l.Path) != len(other.Path) {
		return len(l.Path) < len(other.Path)
	}
	if l.Permissions != other.Permissions {
		return l.Permissions < other.Permissions
	}
	return compareBytes(l.Content, other.Content) < 0
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// BundleDirectoryEntry locates one compressed bundle within the
// archive body, per spec.md §4.3.
type BundleDirectoryEntry struct {
	CompressedOffset     int64
	CompressedSize       int64
	UncompressedChecksum uint64
}

// ListingRecord is the on-disk shape of one listing table entry, per
// spec.md §4.3. Path is carried separately since it is variable length.
type ListingRecord struct {
	BundleIndex     int64
	OffsetInBundle  int64
	FileSize        int64
	Permissions     uint32
	ContentChecksum uint64
	Path            string
}
