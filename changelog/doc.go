// Package changelog renders release sections from classified commits and
// merges them into an existing Keep a Changelog style document.
//
// Rendering and merging are pure text operations. Reading and writing the
// changelog file is left to the caller.
package changelog
