// Package fetch retrieves the archive a link points at.
//
// [Client] handles http(s) URLs, file:// URLs and plain filesystem paths.
// Downloads land in the destination directory under the link's filename via
// a temporary file and an atomic rename, so an interrupted transfer never
// leaves a partial archive behind. Source archives are unpacked in place;
// binary archives are returned as-is.
//
// Failures that a caller may reasonably treat as transient or absent are
// reported through the [ErrNetwork] and [ErrNotFound] sentinels:
//
//	path, err := f.Fetch(ctx, l, dir, 30*time.Second)
//	if errors.Is(err, fetch.ErrNotFound) {
//	    // try another mirror
//	}
//
// The client does not retry. Retrying is a policy decision left to callers.
package fetch
