package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"orderbot/lib/testutil"
	"orderbot/services/receipts"

	"github.com/stretchr/testify/require"
)

func writeArtifacts(t *testing.T, dir string, orderNumbers ...string) []receipts.Artifact {
	t.Helper()
	var artifacts []receipts.Artifact
	for _, n := range orderNumbers {
		path := filepath.Join(dir, "order_"+n+".pdf")
		err := os.WriteFile(path, []byte("%PDF-1.4 receipt "+n), 0644)
		require.NoError(t, err)
		artifacts = append(artifacts, receipts.Artifact{OrderNumber: n, Path: path})
	}
	return artifacts
}

func TestZipRoundTrip(t *testing.T) {
	setup, cleanup := testutil.SetupTask(t, testutil.TaskParams{Name: "services/archive"})
	defer cleanup()

	artifacts := writeArtifacts(t, setup.Dir, "1", "2", "3")
	outputPath := filepath.Join(setup.Dir, "receipts.zip")

	require.NoError(t, Zip(artifacts, outputPath))

	// extracting yields exactly the receipt set, keyed by order number
	zr, err := zip.OpenReader(outputPath)
	require.NoError(t, err)
	defer zr.Close()

	got := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		got[f.Name] = string(body)
	}
	require.Equal(t, map[string]string{
		"order_1.pdf": "%PDF-1.4 receipt 1",
		"order_2.pdf": "%PDF-1.4 receipt 2",
		"order_3.pdf": "%PDF-1.4 receipt 3",
	}, got)

	// the individual files are cleaned up after packing
	for _, artifact := range artifacts {
		_, err := os.Stat(artifact.Path)
		require.True(t, os.IsNotExist(err), "expected %s to be removed", artifact.Path)
	}

	// no partial file left behind
	_, err = os.Stat(outputPath + ".partial")
	require.True(t, os.IsNotExist(err))
}

func TestZipEmpty(t *testing.T) {
	setup, cleanup := testutil.SetupTask(t, testutil.TaskParams{Name: "services/archive"})
	defer cleanup()

	outputPath := filepath.Join(setup.Dir, "receipts.zip")
	require.NoError(t, Zip(nil, outputPath))

	zr, err := zip.OpenReader(outputPath)
	require.NoError(t, err)
	defer zr.Close()
	require.Empty(t, zr.File)
}

func TestZipMissingArtifact(t *testing.T) {
	setup, cleanup := testutil.SetupTask(t, testutil.TaskParams{Name: "services/archive"})
	defer cleanup()

	artifacts := []receipts.Artifact{
		{OrderNumber: "1", Path: filepath.Join(setup.Dir, "order_1.pdf")},
	}
	err := Zip(artifacts, filepath.Join(setup.Dir, "receipts.zip"))
	var archiveErr *ArchiveError
	require.ErrorAs(t, err, &archiveErr)

	_, err = os.Stat(filepath.Join(setup.Dir, "receipts.zip.partial"))
	require.True(t, os.IsNotExist(err))
}

func TestZipUnwritableOutput(t *testing.T) {
	setup, cleanup := testutil.SetupTask(t, testutil.TaskParams{Name: "services/archive"})
	defer cleanup()

	artifacts := writeArtifacts(t, setup.Dir, "1")

	// output path sits below a regular file, so it cannot be created
	blocker := filepath.Join(setup.Dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := Zip(artifacts, filepath.Join(blocker, "receipts.zip"))
	var archiveErr *ArchiveError
	require.ErrorAs(t, err, &archiveErr)

	// a failed archive must not delete the artifacts
	_, err = os.Stat(artifacts[0].Path)
	require.NoError(t, err)
}
