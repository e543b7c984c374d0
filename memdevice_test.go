package vfat

import (
	"io"

	"github.com/boljen/go-bitmap"
	"github.com/xaionaro-go/bytesextra"
)

// memBlockDevice is an in-memory BlockDevice backed by a flat byte image,
// turned into a seekable stream with bytesextra the same way
// dargueta-disko's test image loader does. It additionally tracks, with a
// bitmap, which blocks have been read from and written to, so tests can
// assert testable property #6 from spec.md §8 ("at most one sector's
// worth of dirtiness is pending at any time") over a whole exercised
// sequence without instrumenting BlockCache itself.
type memBlockDevice struct {
	stream     io.ReadWriteSeeker
	blockSize  int
	blockCount int64
	reads      bitmap.Bitmap
	writes     bitmap.Bitmap
}

func newMemBlockDevice(image []byte, blockSize int) *memBlockDevice {
	blockCount := int64(len(image) / blockSize)
	return &memBlockDevice{
		stream:     bytesextra.NewReadWriteSeeker(image),
		blockSize:  blockSize,
		blockCount: blockCount,
		reads:      bitmap.NewSlice(int(blockCount)),
		writes:     bitmap.NewSlice(int(blockCount)),
	}
}

func (m *memBlockDevice) BlockSize() int     { return m.blockSize }
func (m *memBlockDevice) BlockCount() int64  { return m.blockCount }

func (m *memBlockDevice) ReadBlock(block int64, dst []byte) error {
	if _, err := m.stream.Seek(block*int64(m.blockSize), io.SeekStart); err != nil {
		return err
	}
	if _, err := io.ReadFull(m.stream, dst); err != nil {
		return err
	}
	m.reads.Set(int(block), true)
	return nil
}

func (m *memBlockDevice) WriteBlock(block int64, src []byte) error {
	if _, err := m.stream.Seek(block*int64(m.blockSize), io.SeekStart); err != nil {
		return err
	}
	if _, err := m.stream.Write(src); err != nil {
		return err
	}
	m.writes.Set(int(block), true)
	return nil
}

// writtenBlockCount returns how many distinct blocks were ever written, a
// proxy for "how much dirtiness was ever pending" across a test sequence.
func (m *memBlockDevice) writtenBlockCount() int {
	n := 0
	for i := int64(0); i < m.blockCount; i++ {
		if m.writes.Get(int(i)) {
			n++
		}
	}
	return n
}
