// Package archive unpacks source archives and writes canonical binary
// archives.
//
// Supported inputs for [Unpack]:
//
//   - .tar.gz and .tgz (gzip)
//   - .tar.zst (zstd)
//   - .zip and .egg
//
// Entry paths are validated with [errors.ValidateArchivePath] before any
// file is created, so an archive can never write outside its destination.
// Symlinks and other special entries are skipped.
//
// [WriteZip] produces byte-identical output for identical directory trees:
// entries are sorted, timestamps are pinned to [Epoch] and permissions are
// normalized. This is what makes distilling the same build twice converge on
// the same cache entry.
package archive
