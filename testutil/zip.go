package testutil

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

type ZipEntry struct {
	Name    string
	Content string
}

// ZipBytes builds an in-memory archive. Names ending in "/" become directory entries.
func ZipBytes(t testing.TB, entries ...ZipEntry) []byte {
	t.Helper()

	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)
	for _, entry := range entries {
		file, err := writer.Create(entry.Name)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", entry.Name, err)
		}
		if strings.HasSuffix(entry.Name, "/") {
			continue
		}
		if _, err := file.Write([]byte(entry.Content)); err != nil {
			t.Fatalf("write zip entry %s: %v", entry.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buffer.Bytes()
}
