// Package filesystem exposes direct filesystem operations as callable tools.
//
// This package is organized into specialized modules:
//   - basic: working directory, read, write, existence, executable location
//   - directory: listing, creation, deletion
//   - operations: move, copy, symbolic links
//   - metadata: size, access time, MIME type
//   - search: glob search below a directory
//
// All operations:
//   - Pass paths through unchanged (no sandboxing or normalisation)
//   - Never return an error or panic to the caller
//   - Log precondition violations as warnings and unexpected failures as errors
//   - Report failure through a sentinel value (false, -1 or nil)
//
// Disk access goes through an Accessor. OS talks to the real filesystem and
// Memory keeps a tree in memory for tests.
//
// Example Usage:
//
//	provider := filesystem.NewProvider(filesystem.OS{}, logger)
//	ok := provider.WriteFileContents("/tmp/a/x.txt", "hello")
//	size := provider.GetFileOrDirectorySize("/tmp/a")
package filesystem
