// Package platform answers whether a package artifact is usable on a given
// platform and interpreter.
//
// Platform strings follow the distutils convention used in binary archive
// filenames: "linux-x86_64", "macosx-10.9-x86_64", "win-amd64". An empty
// platform means a pure artifact that runs anywhere.
//
// Interpreter versions are "major.minor" strings ("3.12"). An empty version
// matches any interpreter.
//
// The predicates ([Compatible], [VersionCompatible], [DistributionCompatible])
// are pure and never touch the filesystem or the network. [Current] and
// [Python] describe the running machine; [Python] probes the interpreter on
// PATH once per process.
package platform
