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

// Encode implements the archive encoder (spec.md §4.3): it packs
// listings into bundles, serialises the listing table and bundle
// directory, compresses every bundle, and writes magic + archive
// checksum + body to w. It returns the total number of bytes written.
func Encode(listings []common.Listing, w io.Writer) (int64, error) {
	bundles, records := packBundles(listings)

	listingBlock, err := encodeListingTable(records)
	if err != nil {
		return 0, fmt.Errorf("encoding listing table: %w", err)
	}

	compressedBundles := make([][]byte, len(bundles))
	directory := make([]common.BundleDirectoryEntry, len(bundles))

	offset := int64(common.HeaderLength + common.BodyHeaderLength + len(listingBlock) + common.BundleDirectoryEntryLength*len(bundles))
	for i, b := range bundles {
		compressed, err := compressBundle(b.data)
		if err != nil {
			return 0, fmt.Errorf("compressing bundle %d: %w", i, err)
		}
		compressedBundles[i] = compressed
		directory[i] = common.BundleDirectoryEntry{
			CompressedOffset:     offset,
			CompressedSize:       int64(len(compressed)),
			UncompressedChecksum: b.checksum(),
		}
		offset += int64(len(compressed))
		log.Debug().Int("bundle", i).Int("raw_bytes", len(b.data)).Int("compressed_bytes", len(compressed)).Msg("packed bundle")
	}

	body := new(bytes.Buffer)
	body.Grow(int(offset))

	writeUint64(body, uint64(len(listingBlock)))
	writeUint64(body, uint64(len(records)))
	writeUint64(body, uint64(len(bundles)))
	body.Write(listingBlock)

	for _, entry := range directory {
		writeUint64(body, uint64(entry.CompressedOffset))
		writeUint64(body, uint64(entry.CompressedSize))
		writeUint64(body, entry.UncompressedChecksum)
	}

	for _, compressed := range compressedBundles {
		body.Write(compressed)
	}

	checksum := xxhash.Sum64(body.Bytes())

	n, err := w.Write(common.MagicBytes)
	if err != nil {
		return int64(n), fmt.Errorf("writing magic: %w", err)
	}
	total := int64(n)

	checksumBuf := make([]byte, 8)
	binary.LittleEndian.PutUint64(checksumBuf, checksum)
	n, err = w.Write(checksumBuf)
	total += int64(n)
	if err != nil {
		return total, fmt.Errorf("writing archive checksum: %w", err)
	}

	n, err = w.Write(body.Bytes())
	total += int64(n)
	if err != nil {
		return total, fmt.Errorf("writing archive body: %w", err)
	}

	log.Info().Int("listings", len(listings)).Int("bundles", len(bundles)).Int64("bytes", total).Msg("encoded archive")

	return total, nil
}

func encodeListingTable(records []common.ListingRecord) ([]byte, error) {
	buf := new(bytes.Buffer)
	for _, r := range records {
		pathBytes := []byte(r.Path)
		recordLen := common.ListingRecordFixedLength + len(pathBytes)

		writeUint64(buf, uint64(recordLen))
		writeUint64(buf, uint64(r.BundleIndex))
		writeUint64(buf, uint64(r.OffsetInBundle))
		writeUint64(buf, uint64(r.FileSize))
		writeUint32(buf, r.Permissions)
		writeUint64(buf, r.ContentChecksum)
		buf.Write(pathBytes)
	}
	return buf.Bytes(), nil
}

func compressBundle(data []byte) ([]byte, error) {
	var out bytes.Buffer
	enc, err := zstd.NewWriter(&out,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(common.ZstdLevel)), // SpeedDefault, approximates reference zstd level 3
		zstd.WithEncoderCRC(false), // frame checksum disabled, per spec.md §4.3
	)
	if err != nil {
		return nil, err
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
