package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/karrick/godirwalk"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"

	"github.com/decaf-archiver/decaf/internal/relpath"
	"github.com/decaf-archiver/decaf/pkg/common"
)

// BuildListings walks the directory rooted at root and returns the
// listing sequence for it, sorted per the total order in spec.md §3.
// Symlinks are skipped silently (spec.md §4.1); the codec has no
// representation for them.
func BuildListings(root string) ([]common.Listing, error) {
	root = filepath.Clean(root)

	var listings []common.Listing
	hasArchivedChild := make(map[string]bool)

	walkErr := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if osPathname == root {
				return nil
			}

			// Mark the parent non-empty before the symlink check: a
			// directory containing only symlinks has a nonzero entry
			// count, so it must not be reported as a bare-directory
			// listing, even though the symlink itself contributes none.
			hasArchivedChild[filepath.Dir(osPathname)] = true

			if de.IsSymlink() {
				log.Debug().Str("path", osPathname).Msg("skipping symlink")
				return nil
			}

			if de.IsDir() {
				// Emptiness is decided in PostChildrenCallback, once
				// every entry under this directory has been visited —
				// a single scan, per the Open Question in spec.md §4.1.
				return nil
			}

			listing, err := buildFileListing(root, osPathname)
			if err != nil {
				return err
			}
			listings = append(listings, listing)
			return nil
		},
		PostChildrenCallback: func(osPathname string, de *godirwalk.Dirent) error {
			if osPathname == root {
				return nil
			}
			if hasArchivedChild[osPathname] {
				delete(hasArchivedChild, osPathname)
				return nil
			}

			listing, err := buildDirListing(root, osPathname)
			if err != nil {
				return err
			}
			listings = append(listings, listing)
			return nil
		},
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walking %s: %w", root, walkErr)
	}

	sort.Slice(listings, func(i, j int) bool {
		return listings[i].Less(&listings[j])
	})

	return listings, nil
}

func buildFileListing(root, osPathname string) (common.Listing, error) {
	relPath, mode, err := relativePathAndMode(root, osPathname, false)
	if err != nil {
		return common.Listing{}, err
	}

	content, err := os.ReadFile(osPathname)
	if err != nil {
		return common.Listing{}, fmt.Errorf("reading %s: %w", osPathname, err)
	}

	log.Debug().Str("path", relPath).Int("bytes", len(content)).Msg("listing file")

	return common.Listing{
		Path:        relPath,
		Permissions: mode,
		Checksum:    xxhash.Sum64(content),
		Content:     content,
	}, nil
}

func buildDirListing(root, osPathname string) (common.Listing, error) {
	relPath, mode, err := relativePathAndMode(root, osPathname, true)
	if err != nil {
		return common.Listing{}, err
	}

	log.Debug().Str("path", relPath).Msg("listing empty directory")

	return common.Listing{
		Path:        relPath,
		Permissions: mode | common.DirModeBit,
	}, nil
}

func relativePathAndMode(root, osPathname string, isDir bool) (string, uint32, error) {
	relPath, err := relpath.Rel(root, osPathname)
	if err != nil {
		return "", 0, fmt.Errorf("computing relative path for %s: %w", osPathname, err)
	}
	if relPath == "" || !utf8.ValidString(relPath) {
		return "", 0, fmt.Errorf("%s: %w", osPathname, common.ErrInvalidPath)
	}
	if relpath.IsEscaping(relPath) {
		return "", 0, fmt.Errorf("%s escapes root: %w", osPathname, common.ErrInvalidPath)
	}

	var st unix.Stat_t
	if err := unix.Lstat(osPathname, &st); err != nil {
		return "", 0, fmt.Errorf("stat %s: %w", osPathname, err)
	}

	mode := st.Mode
	if isDir {
		mode |= common.DirModeBit
	}

	return relPath, mode, nil
}
