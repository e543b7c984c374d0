package vfat

// BlockDevice is supplied by the host. It reports its geometry and moves
// whole blocks; this package never issues a partial-block I/O request.
//
// BlockSize must be a power of two in [512, 4096]. Implementations backed
// by real media (SD cards, flash, RAM disks) are expected to satisfy this
// trivially; see bytesextra-backed fixtures in the test files for an
// in-memory example.
type BlockDevice interface {
	// BlockSize returns the size in bytes of one block. Constant for the
	// lifetime of the device.
	BlockSize() int
	// BlockCount returns the total number of addressable blocks.
	BlockCount() int64
	// ReadBlock fills dst (which must be exactly BlockSize() bytes) with
	// the contents of the block at the given index.
	ReadBlock(block int64, dst []byte) error
	// WriteBlock replaces the block at the given index with src (which
	// must be exactly BlockSize() bytes). Required only if FatTable.Set is
	// used; implementations that never call Set may return an error here.
	WriteBlock(block int64, src []byte) error
}
