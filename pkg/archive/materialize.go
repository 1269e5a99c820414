package archive

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/decaf-archiver/decaf/pkg/common"
)

// Materialize implements the file materialiser (spec.md §4.5): it
// writes every listing to outputRoot, creating ancestor directories as
// needed and setting mode bits from Permissions. A bare directory
// results in just the directory being created. Any I/O error is
// fatal; partial output is not rolled back.
func Materialize(listings []common.Listing, outputRoot string) error {
	for _, l := range listings {
		target := filepath.Join(outputRoot, filepath.FromSlash(l.Path))

		if l.IsDir() {
			if err := os.MkdirAll(target, fs.FileMode(l.Permissions&0o7777)); err != nil {
				return fmt.Errorf("creating directory %s: %w", target, err)
			}
			log.Debug().Str("path", l.Path).Msg("materialized directory")
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating ancestor directories for %s: %w", target, err)
		}

		if err := os.WriteFile(target, l.Content, fs.FileMode(l.Permissions&0o7777)); err != nil {
			return fmt.Errorf("writing file %s: %w", target, err)
		}

		if err := os.Chmod(target, fs.FileMode(l.Permissions&0o7777)); err != nil {
			return fmt.Errorf("setting mode on %s: %w", target, err)
		}

		log.Debug().Str("path", l.Path).Int("bytes", len(l.Content)).Msg("materialized file")
	}

	return nil
}
