/*
Package types holds the contracts shared by the talecache packages.

An Adapter stores values under string keys with a per-key lifetime. The file
adapter in internal/storage/file writes one file per key through a Format;
the memory adapter in internal/storage/memory keeps values in process.
Pools in internal/cache sit on top of an Adapter and never touch storage
directly.

Keys are made of segments joined by KeyDelimiter:

	user.42.profile

A route registered with WildcardPrefix matches every key.
*/
package types
