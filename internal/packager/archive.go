package packager

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// archiveTime is stamped on every zip entry so that identical inputs produce
// identical archives. It is the earliest time the zip format can represent.
var archiveTime = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// ZipJSON archives every *.json file directly in dir into zipPath, deflated,
// in name order. Files that were already present in dir are included. It
// returns the archived names and the hex SHA-256 of the archive.
func ZipJSON(dir, zipPath string) (names []string, sum string, err error) {
	names, err = jsonFiles(dir)
	if err != nil {
		return nil, "", err
	}

	out, err := os.Create(zipPath)
	if err != nil {
		return nil, "", fmt.Errorf("creating archive: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing archive: %w", cerr)
		}
	}()

	h := sha256.New()
	zw := zip.NewWriter(io.MultiWriter(out, h))
	for _, name := range names {
		if err := addFile(zw, filepath.Join(dir, name), name); err != nil {
			return nil, "", fmt.Errorf("archiving %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, "", fmt.Errorf("finalizing archive: %w", err)
	}
	return names, hex.EncodeToString(h.Sum(nil)), nil
}

func jsonFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: archiveTime,
	})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}
