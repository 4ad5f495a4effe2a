package testutil

// Helpers for building fixture GTFS archives in tests.

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// BuildZip assembles a zip archive from filename -> lines.
func BuildZip(t testing.TB, files map[string][]string) []byte {
	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)
	for filename, content := range files {
		f, err := w.Create(filename)
		require.NoError(t, err)
		_, err = f.Write([]byte(strings.Join(content, "\n")))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return buf.Bytes()
}

// BuildArchive is BuildZip with the required tables filled in with
// minimal dummy data when absent.
func BuildArchive(t testing.TB, files map[string][]string) []byte {
	if files["routes.txt"] == nil {
		files["routes.txt"] = []string{
			"route_id,route_short_name,route_color",
			"R1,1,FF0000",
		}
	}
	if files["stops.txt"] == nil {
		files["stops.txt"] = []string{
			"stop_id,stop_name,stop_lat,stop_lon",
			"S1,Fixture Stop,44.8,-0.58",
		}
	}

	return BuildZip(t, files)
}
