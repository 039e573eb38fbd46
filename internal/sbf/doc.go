// Package sbf reads and writes SBF point clouds.
//
// An SBF cloud is a pair of files: an ASCII header (conventionally named
// *.sbf) made of key=value lines, and a binary payload stored next to it
// under the header name with ".data" appended. The payload starts with a
// fixed 64-byte big-endian header (magic, point count, scalar field count,
// global shift) followed by the points as float32 values, all channels of
// one point before the next point.
//
// The binary header is the source of truth for the shape of the cloud. The
// ASCII header repeats the point count, scalar field count and global shift
// and names the scalar fields; disagreement between the two is reported as
// a Warning rather than an error.
package sbf
