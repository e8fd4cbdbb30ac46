// Package grp reads the flat archive format used by Build-engine games.
//
// An archive is a 16-byte header (the "KenSilverman" signature plus a
// little-endian member count), a directory of fixed 16-byte records, and
// the raw member payloads concatenated in directory order. Payload offsets
// are not stored in the file; they are derived from the declared sizes
// while the directory is enumerated.
//
// The package implements fs.FS and related interfaces for stdlib compatibility.
package grp
