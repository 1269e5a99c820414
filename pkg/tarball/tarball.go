// Package tarball implements the deterministic ustar+gzip emitter from
// spec.md §4.6. It shares the listing model and the §3 total order
// with pkg/archive, and emits archive/tar's ustar format with every
// time/ownership field zeroed so that two runs over identical input
// produce byte-identical output.
package tarball

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/decaf-archiver/decaf/pkg/archive"
	"github.com/decaf-archiver/decaf/pkg/common"
)

// gzipUnknownOS is the RFC 1952 "unknown" OS value. Using it (instead
// of the current platform's, which compress/gzip defaults to) keeps
// create_tar_gz output identical across machines.
const gzipUnknownOS = 255

// CreateTar writes a complete ustar archive of dir to w: a synthetic
// top-level directory entry derived from dir's basename, followed by
// every listing under dir in the §3 total order, each reparented under
// that same top-level directory so the archive extracts as a single
// tree rooted at <basename>/ rather than scattering files at the
// archive root.
func CreateTar(dir string, w io.Writer) error {
	listings, err := archive.BuildListings(dir)
	if err != nil {
		return fmt.Errorf("building listings for %s: %w", dir, err)
	}

	topLevel := topLevelDirName(dir)

	tw := tar.NewWriter(w)

	if err := writeTopLevelDir(tw, dir, topLevel); err != nil {
		return err
	}

	for _, l := range listings {
		if err := writeEntry(tw, topLevel, l); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("closing tar writer: %w", err)
	}

	log.Info().Str("dir", dir).Int("entries", len(listings)).Msg("wrote tar archive")
	return nil
}

// CreateTarGz wraps CreateTar in a gzip stream with the mtime, filename
// and extra fields left empty and the OS field set to gzipUnknownOS
// (255), for byte-identical output across runs.
func CreateTarGz(dir string, w io.Writer) error {
	gz, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return fmt.Errorf("creating gzip writer: %w", err)
	}
	gz.Header.OS = gzipUnknownOS

	if err := CreateTar(dir, gz); err != nil {
		gz.Close()
		return err
	}

	if err := gz.Close(); err != nil {
		return fmt.Errorf("closing gzip writer: %w", err)
	}

	log.Info().Str("dir", dir).Msg("wrote gzipped tar archive")
	return nil
}

// topLevelDirName derives the synthetic root entry's name from dir's
// basename, the way dtar's create_tar does (falling back to "." for a
// path with no basename, e.g. "/").
func topLevelDirName(dir string) string {
	name := filepath.Base(filepath.Clean(dir))
	if name == "." || name == "/" || name == "" {
		name = "."
	}
	return path.Clean(name)
}

func writeTopLevelDir(tw *tar.Writer, dir, topLevel string) error {
	mode := os.FileMode(0o755)
	if info, err := os.Stat(dir); err == nil {
		mode = info.Mode().Perm()
	}

	hdr := &tar.Header{
		Name:     topLevel + "/",
		Typeflag: tar.TypeDir,
		Mode:     int64(mode),
		Format:   tar.FormatUSTAR,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return wrapTarHeaderErr(topLevel, err)
	}
	return nil
}

// writeEntry writes one listing's header (and content, for files) into
// tw, reparenting its path under topLevel so every entry lands inside
// the synthetic top-level directory.
func writeEntry(tw *tar.Writer, topLevel string, l common.Listing) error {
	name := topLevel + "/" + l.Path
	// USTAR stores at most 255 path bytes (155-byte prefix + 100-byte
	// name); archive/tar's own error for longer names does not wrap
	// tar.ErrFieldTooLong, so the limit is checked here.
	if len(name) > 255 {
		return fmt.Errorf("%s: %w", name, common.ErrPathTooLong)
	}
	if l.IsDir() {
		name += "/"
	}

	hdr := &tar.Header{
		Name:     name,
		Mode:     int64(l.Permissions & 0o7777),
		Size:     int64(len(l.Content)),
		Typeflag: tar.TypeReg,
		Format:   tar.FormatUSTAR,
	}
	if l.IsDir() {
		hdr.Typeflag = tar.TypeDir
		hdr.Size = 0
	}

	if err := tw.WriteHeader(hdr); err != nil {
		return wrapTarHeaderErr(name, err)
	}

	if !l.IsDir() {
		if _, err := tw.Write(l.Content); err != nil {
			return fmt.Errorf("writing tar content for %s: %w", name, err)
		}
	}

	return nil
}

func wrapTarHeaderErr(name string, err error) error {
	if errors.Is(err, tar.ErrFieldTooLong) {
		return fmt.Errorf("%s: %w", name, common.ErrPathTooLong)
	}
	return fmt.Errorf("writing tar header for %s: %w", name, err)
}
