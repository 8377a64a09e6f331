package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"

	"github.com/matzehuels/distcache/pkg/errors"
)

// Unpack extracts the archive at src into dest, choosing the format from
// the filename extension. dest must already exist.
func Unpack(src, dest string) error {
	name := strings.ToLower(filepath.Base(src))
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return unpackTarGz(src, dest)
	case strings.HasSuffix(name, ".tar.zst"):
		return unpackTarZst(src, dest)
	case strings.HasSuffix(name, ".zip"), strings.HasSuffix(name, ".egg"):
		return unpackZip(src, dest)
	default:
		return errors.New(errors.ErrCodeUnsupported, "unsupported archive format: %s", filepath.Base(src))
	}
}

func unpackTarGz(src, dest string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("open gzip %s: %w", filepath.Base(src), err)
	}
	defer zr.Close()
	return untar(zr, dest)
}

func unpackTarZst(src, dest string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("open zstd %s: %w", filepath.Base(src), err)
	}
	defer zr.Close()
	return untar(zr, dest)
}

func untar(r io.Reader, dest string) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar: %w", err)
		}

		name := strings.TrimPrefix(hdr.Name, "./")
		if name == "" {
			continue
		}
		if err := errors.ValidateArchivePath(strings.TrimSuffix(name, "/")); err != nil {
			return err
		}
		target := filepath.Join(dest, filepath.FromSlash(name))

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode()); err != nil {
				return err
			}
		}
	}
}

func unpackZip(src, dest string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("open zip %s: %w", filepath.Base(src), err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		name := strings.TrimSuffix(f.Name, "/")
		if name == "" {
			continue
		}
		if err := errors.ValidateArchivePath(name); err != nil {
			return err
		}
		target := filepath.Join(dest, filepath.FromSlash(name))

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case mode.IsRegular():
			rc, err := f.Open()
			if err != nil {
				return fmt.Errorf("open %s: %w", f.Name, err)
			}
			err = writeFile(target, rc, mode)
			rc.Close()
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	perm := os.FileMode(0o644)
	if mode&0o111 != 0 {
		perm = 0o755
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
