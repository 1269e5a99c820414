package archive

import (
	"github.com/cespare/xxhash/v2"

	"github.com/decaf-archiver/decaf/pkg/common"
)

// packedBundle is one bundle's uncompressed content. Its checksum is
// computed on demand via checksum(), not tracked incrementally.
type packedBundle struct {
	data []byte
}

// packBundles implements the bundle packer (spec.md §4.2): it packs
// listing content into size-target-capped bundles and returns the
// listing records carrying each listing's (bundle_index, offset).
// Bare directories get the current bundle's index and current offset
// (its length so far) with a zero file size, and contribute no bytes.
//
// A new bundle starts only once the *current* one already exceeds the
// target — the last listing placed in a bundle can push it arbitrarily
// over. That is intentional: every listing lands in exactly one
// bundle with a single offset.
func packBundles(listings []common.Listing) ([]packedBundle, []common.ListingRecord) {
	bundles := []packedBundle{{}}
	records := make([]common.ListingRecord, 0, len(listings))

	bundleIndex := 0
	for i := range listings {
		l := &listings[i]

		if len(bundles[bundleIndex].data) > common.BundleTargetSize {
			bundles = append(bundles, packedBundle{})
			bundleIndex++
		}

		offset := int64(len(bundles[bundleIndex].data))
		if !l.IsDir() {
			bundles[bundleIndex].data = append(bundles[bundleIndex].data, l.Content...)
		}

		records = append(records, common.ListingRecord{
			BundleIndex:     int64(bundleIndex),
			OffsetInBundle:  offset,
			FileSize:        int64(len(l.Content)),
			Permissions:     l.Permissions,
			ContentChecksum: l.Checksum,
			Path:            l.Path,
		})
	}

	return bundles, records
}

func (b packedBundle) checksum() uint64 {
	return xxhash.Sum64(b.data)
}
