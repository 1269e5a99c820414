// Command df is the decaf CLI entry point (spec.md §6). Argument
// parsing, default output-name derivation, and progress printing are
// thin collaborators around the archive codec in pkg/archive and
// pkg/tarball — the out-of-scope plumbing named in spec.md §1.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/decaf-archiver/decaf/pkg/archive"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if usageErr, ok := err.(usageError); ok {
			fmt.Fprintln(os.Stderr, "usage: df [-log LEVEL] (ARCHIVE | DIRECTORY) [OUTPUT]")
			fmt.Fprintln(os.Stderr, string(usageErr))
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "df: %v\n", err)
		os.Exit(2)
	}
}

type usageError string

func (e usageError) Error() string { return string(e) }

func run(args []string) error {
	fs := flag.NewFlagSet("df", flag.ContinueOnError)
	logLevel := fs.String("log", "info", "log level: debug, info, warn, error, disabled")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}

	if err := archive.SetLogLevel(*logLevel); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) < 1 || len(rest) > 2 {
		return usageError("expected 1 or 2 arguments")
	}

	input := rest[0]
	var output string
	if len(rest) == 2 {
		output = rest[1]
	}

	if strings.HasSuffix(input, ".df") {
		if output == "" {
			output = strings.TrimSuffix(input, ".df")
		}
		return decode(input, output)
	}

	if output == "" {
		output = filepath.Base(strings.TrimRight(input, "/")) + ".df"
	}
	return encode(input, output)
}

func encode(dir, outputFile string) error {
	listings, err := archive.BuildListings(dir)
	if err != nil {
		return err
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := archive.Encode(listings, f)
	if err != nil {
		return err
	}

	fmt.Printf("wrote %s (%d listings, %d bytes)\n", outputFile, len(listings), n)
	return nil
}

func decode(archivePath, outputDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	listings, err := archive.Decode(f)
	if err != nil {
		return err
	}

	if err := archive.Materialize(listings, outputDir); err != nil {
		return err
	}

	fmt.Printf("extracted %s into %s (%d listings)\n", archivePath, outputDir, len(listings))
	return nil
}
