// Package install turns an unpacked source tree into an installed build
// directory holding an egg layout (package files plus EGG-INFO/PKG-INFO).
//
// Two builders are provided:
//
//   - [Tree] builds pure-Python projects natively from pyproject.toml
//     metadata, copying the package directories it names.
//   - [Command] runs an external build tool (setup.py bdist_egg by default)
//     and unpacks the single egg it produces.
//
// A build that fails because of the project itself (bad metadata, non-zero
// exit of the build tool) is reported as a [*BuildFailure], which matches
// [ErrBuildFailed]. Callers may treat it as a soft failure and try another
// strategy. Any other error (the build tool is missing, the disk is full)
// indicates an environment problem.
//
// Every successful [Build] owns a temporary work directory; callers must
// call [Build.Cleanup] once the build output has been consumed.
package install
