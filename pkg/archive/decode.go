package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/decaf-archiver/decaf/pkg/common"
)

// Decode implements the archive decoder (spec.md §4.4). It reads the
// whole stream into memory, verifies the magic number and every
// checksum (archive, bundle, per-listing), and returns the listing
// sequence in archive order — the order is not re-sorted. Encode writes
// listings in the order it is given, so this is the §3 total order for
// archives encoded from BuildListings output.
func Decode(r io.Reader) ([]common.Listing, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}

	if len(data) < common.MinArchiveLength {
		return nil, fmt.Errorf("archive is %d bytes: %w", len(data), common.ErrTooSmall)
	}

	if !bytes.Equal(data[:common.MagicLength], common.MagicBytes) {
		return nil, common.ErrBadMagic
	}

	storedChecksum := binary.LittleEndian.Uint64(data[common.MagicLength:common.HeaderLength])
	body := data[common.HeaderLength:]
	if xxhash.Sum64(body) != storedChecksum {
		return nil, common.ErrBadArchiveChecksum
	}

	listingBlockLength := readUint64(body, 0)
	listingCount := readUint64(body, 8)
	bundleCount := readUint64(body, 16)

	directoryStart := common.HeaderLength + common.BodyHeaderLength + int(listingBlockLength)
	bundles, err := decodeBundles(data, directoryStart, int(bundleCount))
	if err != nil {
		return nil, err
	}

	listings, err := decodeListingTable(body, common.BodyHeaderLength, int(listingCount), bundles)
	if err != nil {
		return nil, err
	}

	log.Info().Int("listings", len(listings)).Int("bundles", len(bundles)).Msg("decoded archive")

	return listings, nil
}

// decodeBundles reads the bundle directory and decompresses every
// bundle. directoryStart and the directory's own compressed_offset
// field are both counted from the start of the file (data[0]), per
// spec.md §4.3.
func decodeBundles(data []byte, directoryStart, bundleCount int) ([][]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer decoder.Close()

	bundles := make([][]byte, bundleCount)
	for i := 0; i < bundleCount; i++ {
		entryOff := directoryStart + i*common.BundleDirectoryEntryLength
		compressedOffset := int64(readUint64(data, entryOff))
		compressedSize := int64(readUint64(data, entryOff+8))
		uncompressedChecksum := readUint64(data, entryOff+16)

		compressed := data[compressedOffset : compressedOffset+compressedSize]
		raw, err := decoder.DecodeAll(compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompressing bundle %d: %w", i, err)
		}

		if xxhash.Sum64(raw) != uncompressedChecksum {
			return nil, fmt.Errorf("bundle %d: %w", i, common.ErrBadBundleChecksum)
		}

		bundles[i] = raw
	}

	return bundles, nil
}

func decodeListingTable(body []byte, start, listingCount int, bundles [][]byte) ([]common.Listing, error) {
	listings := make([]common.Listing, 0, listingCount)

	pos := start
	for i := 0; i < listingCount; i++ {
		recordLen := int(readUint64(body, pos))
		bundleIndex := int(readUint64(body, pos+8))
		offsetInBundle := int64(readUint64(body, pos+16))
		fileSize := int64(readUint64(body, pos+24))
		permissions := binary.LittleEndian.Uint32(body[pos+32 : pos+36])
		contentChecksum := readUint64(body, pos+36)
		path := string(body[pos+common.ListingRecordFixedLength : pos+recordLen])
		pos += recordLen

		listing := common.Listing{
			Path:        path,
			Permissions: permissions,
			Checksum:    contentChecksum,
		}

		if listing.Permissions&common.DirModeBit != common.DirModeBit {
			if bundleIndex < 0 || bundleIndex >= len(bundles) {
				return nil, fmt.Errorf("listing %q: bundle index %d out of range: %w", path, bundleIndex, common.ErrBadListingChecksum)
			}
			bundle := bundles[bundleIndex]
			if offsetInBundle < 0 || offsetInBundle+fileSize > int64(len(bundle)) {
				return nil, fmt.Errorf("listing %q: content range out of bounds in bundle %d: %w", path, bundleIndex, common.ErrBadListingChecksum)
			}
			content := make([]byte, fileSize)
			copy(content, bundle[offsetInBundle:offsetInBundle+fileSize])
			listing.Content = content

			if xxhash.Sum64(content) != contentChecksum {
				return nil, fmt.Errorf("listing %q: expected checksum %x, got %x (bundle %d, offset %d): %w",
					path, contentChecksum, xxhash.Sum64(content), bundleIndex, offsetInBundle, common.ErrBadListingChecksum)
			}
		}

		listings = append(listings, listing)
	}

	return listings, nil
}

func readUint64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+8])
}
