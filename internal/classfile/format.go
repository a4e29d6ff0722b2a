// Package classfile implements the on-disk class format this VM core
// consumes. The VM only depends on the parser's contract: bytes in, an
// objects.Class out, with super/pool entries that are still byte-arrays
// left unresolved. This package is a deliberately thin implementation of
// that contract rather than a JVM .class-file-compatible reader.
package classfile

// Magic identifies a file produced by this package's Encode. Chosen to look
// like a class-file magic number without colliding with the real
// 0xCAFEBABE, since this is not that format.
const Magic uint32 = 0x4A564D31 // "JVM1"

const (
	MajorVersion uint16 = 1
	MinorVersion uint16 = 0
)

// Constant-pool cell tags as they appear on disk. These mirror
// objects.PoolTag's unresolved/literal cases; the resolved tags
// (PoolClass/PoolField/PoolMethod) never appear in a serialized file since
// resolution only ever happens in memory, against a live class table.
const (
	tagUnresolvedClass byte = 0
	tagUnresolvedRef   byte = 1
	tagInt             byte = 5
	tagLong            byte = 6
	tagString          byte = 7
)
