package vfat

// BlockCache sits between the filesystem and a BlockDevice, holding exactly
// one resident block. Accesses that land on the resident block skip the
// device entirely; accesses that land elsewhere flush the resident block
// (if dirty) and fetch the new one.
//
// Invariant: if dirty is true, block is a valid index and buf differs from
// the device's copy of that block; if dirty is false, buf equals the
// device's bytes for block, or block is noBlock (nothing resident yet).
type BlockCache struct {
	bd    BlockDevice
	buf   []byte
	block int64
	dirty bool
}

// noBlock is the sentinel "nothing resident" block index.
const noBlock = -1

// NewBlockCache constructs a BlockCache over bd, with a buffer of
// bd.BlockSize() bytes.
func NewBlockCache(bd BlockDevice) *BlockCache {
	return &BlockCache{
		bd:    bd,
		buf:   make([]byte, bd.BlockSize()),
		block: noBlock,
	}
}

// sync makes block the resident block, flushing the previous resident block
// first if it was dirty. A no-op if block is already resident.
func (c *BlockCache) sync(block int64) error {
	if block < 0 || block >= c.bd.BlockCount() {
		return newErr("blockcache.sync", OutOfRange, nil)
	}
	if block == c.block {
		return nil
	}
	if c.dirty {
		if err := c.bd.WriteBlock(c.block, c.buf); err != nil {
			return newErr("blockcache.sync", IoError, err)
		}
		c.dirty = false
	}
	if err := c.bd.ReadBlock(block, c.buf); err != nil {
		c.block = noBlock
		return newErr("blockcache.sync", IoError, err)
	}
	c.block = block
	return nil
}

// Read copies len(out) bytes starting at offset within block into out.
// offset+len(out) must not exceed the block size.
func (c *BlockCache) Read(block int64, offset int, out []byte) error {
	if offset+len(out) > len(c.buf) {
		return newErr("blockcache.read", OutOfRange, nil)
	}
	if err := c.sync(block); err != nil {
		return err
	}
	copy(out, c.buf[offset:offset+len(out)])
	return nil
}

// Write copies in into block at offset, marking the cache dirty. The
// device is not touched until Flush or a later sync of a different block.
func (c *BlockCache) Write(block int64, offset int, in []byte) error {
	if offset+len(in) > len(c.buf) {
		return newErr("blockcache.write", OutOfRange, nil)
	}
	if err := c.sync(block); err != nil {
		return err
	}
	copy(c.buf[offset:offset+len(in)], in)
	c.dirty = true
	return nil
}

// Flush writes the resident block back to the device if dirty.
func (c *BlockCache) Flush() error {
	if !c.dirty {
		return nil
	}
	if err := c.bd.WriteBlock(c.block, c.buf); err != nil {
		return newErr("blockcache.flush", IoError, err)
	}
	c.dirty = false
	return nil
}

// BlockSize returns the size in bytes of the cached block.
func (c *BlockCache) BlockSize() int { return len(c.buf) }
