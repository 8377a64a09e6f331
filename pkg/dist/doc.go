// Package dist models resolved distributions and reads their metadata from
// the install cache.
//
// A distribution's canonical layout is a binary archive named
// "<name>-<version>-py<X.Y>[-<platform>].egg". It may be a single zip file or
// an unpacked directory of the same name; both carry an EGG-INFO/PKG-INFO
// metadata file whose Name and Version must agree with the filename.
//
// [Read] is the only way to obtain a [Distribution] from disk. It is
// strict: a layout whose filename cannot be parsed or whose PKG-INFO is
// missing, unparsable or contradicts the filename is reported as
// INVALID_METADATA.
package dist
