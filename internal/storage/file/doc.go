// Package file implements a cache storage adapter on the local filesystem.
//
// Writes are atomic per file, but the lifetimes file and the data file are
// written separately. A crash between the two can leave a data file without
// a lifetime (read as absent) or a lifetime without a data file (also
// absent). Concurrent writers on the same directory race; the last write of
// each file wins.
package file
