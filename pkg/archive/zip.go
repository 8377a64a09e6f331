package archive

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/zip"
)

// Epoch is the modification time recorded for every entry written by
// [WriteZip]. Zip timestamps cannot represent anything before 1980.
var Epoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// WriteZip writes a deterministic zip archive of the directory tree at root.
func WriteZip(w io.Writer, root string) error {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Strings(files)

	zw := zip.NewWriter(w)
	for _, rel := range files {
		if err := addFile(zw, root, rel); err != nil {
			zw.Close()
			return err
		}
	}
	return zw.Close()
}

func addFile(zw *zip.Writer, root, rel string) error {
	path := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	hdr := &zip.FileHeader{
		Name:     rel,
		Method:   zip.Deflate,
		Modified: Epoch,
	}
	mode := os.FileMode(0o644)
	if info.Mode()&0o111 != 0 {
		mode = 0o755
	}
	hdr.SetMode(mode)

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("add %s: %w", rel, err)
	}
	return nil
}

// ReadZipFile returns the contents of the named entry in a zip archive.
// A missing entry is reported as [fs.ErrNotExist].
func ReadZipFile(archive, name string) ([]byte, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return nil, fmt.Errorf("open zip %s: %w", filepath.Base(archive), err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s in %s: %w", name, filepath.Base(archive), fs.ErrNotExist)
}
