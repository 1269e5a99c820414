package tarball

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decaf-archiver/decaf/pkg/common"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCreateTarGzIsDeterministic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "hello")
	writeFile(t, filepath.Join(root, "dir", "b.txt"), "world")

	var buf1, buf2 bytes.Buffer
	require.NoError(t, CreateTarGz(root, &buf1))
	require.NoError(t, CreateTarGz(root, &buf2))

	assert.Equal(t, buf1.Bytes(), buf2.Bytes())
}

func TestCreateTarContainsExpectedEntries(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "hello")

	base := filepath.Base(root)
	wantName := base + "/a.txt"

	var buf bytes.Buffer
	require.NoError(t, CreateTar(root, &buf))

	tr := tar.NewReader(&buf)
	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
		if hdr.Name == wantName {
			assert.EqualValues(t, tar.TypeReg, hdr.Typeflag)
			assert.Equal(t, int64(0), hdr.ModTime.Unix())
			assert.Equal(t, 0, hdr.Uid)
			assert.Equal(t, 0, hdr.Gid)
			content, err := io.ReadAll(tr)
			require.NoError(t, err)
			assert.Equal(t, "hello", string(content))
		}
	}

	require.Contains(t, names, wantName)
	require.Contains(t, names, base+"/")
	for _, n := range names {
		assert.True(t, strings.HasPrefix(n, base+"/"), "entry %q must be nested under %q", n, base+"/")
	}
}

// TestCreateTarGzExtractsWithSystemTar covers scenario S7/invariant 7:
// a gzipped tar produced by CreateTarGz must be extractable by the
// system tar binary, reconstructing the directory tree under the
// synthetic top-level directory. Skipped if no tar binary is on PATH.
func TestCreateTarGzExtractsWithSystemTar(t *testing.T) {
	tarBin, err := exec.LookPath("tar")
	if err != nil {
		t.Skip("tar binary not found on PATH")
	}

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "hello")
	writeFile(t, filepath.Join(root, "dir", "b.txt"), "world")

	var buf bytes.Buffer
	require.NoError(t, CreateTarGz(root, &buf))

	archivePath := filepath.Join(t.TempDir(), "out.tar.gz")
	require.NoError(t, os.WriteFile(archivePath, buf.Bytes(), 0o644))

	extractDir := t.TempDir()
	cmd := exec.Command(tarBin, "-xzf", archivePath, "-C", extractDir)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "tar extraction failed: %s", output)

	base := filepath.Base(root)
	got, err := os.ReadFile(filepath.Join(extractDir, base, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	got, err = os.ReadFile(filepath.Join(extractDir, base, "dir", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "world", string(got))
}

func TestCreateTarRejectsPathsOver255Bytes(t *testing.T) {
	root := t.TempDir()
	longName := strings.Repeat("x", 60)
	deepPath := filepath.Join(root, longName, longName, longName, longName, longName+".txt")
	writeFile(t, deepPath, "content")

	var buf bytes.Buffer
	err := CreateTar(root, &buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrPathTooLong)
}

func TestCreateTarGzUsesUnknownOS(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "hello")

	var buf bytes.Buffer
	require.NoError(t, CreateTarGz(root, &buf))

	gr, err := gzip.NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer gr.Close()

	assert.Equal(t, byte(gzipUnknownOS), gr.Header.OS)
	assert.True(t, gr.Header.ModTime.IsZero())
	assert.Empty(t, gr.Header.Name)
}
