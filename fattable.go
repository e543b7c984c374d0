package vfat

import "encoding/binary"

// FatType selects the on-disk width of one FAT entry.
type FatType uint8

const (
	FatUnknown FatType = iota
	Fat12
	Fat16
	Fat32
)

func (t FatType) String() string {
	switch t {
	case Fat12:
		return "FAT12"
	case Fat16:
		return "FAT16"
	case Fat32:
		return "FAT32"
	default:
		return "unknown"
	}
}

// FatEntry is the decoded meaning of one FAT slot.
type FatEntry struct {
	kind    fatEntryKind
	cluster uint32 // valid only when kind == fatNext
}

type fatEntryKind uint8

const (
	fatFree fatEntryKind = iota
	fatNext
	fatLast
	fatBad
)

func entryFree() FatEntry             { return FatEntry{kind: fatFree} }
func entryLast() FatEntry             { return FatEntry{kind: fatLast} }
func entryBad() FatEntry              { return FatEntry{kind: fatBad} }
func entryNext(cluster uint32) FatEntry { return FatEntry{kind: fatNext, cluster: cluster} }

// IsFree reports whether the entry marks its cluster unallocated.
func (e FatEntry) IsFree() bool { return e.kind == fatFree }

// IsLast reports whether the entry marks the end of a cluster chain.
func (e FatEntry) IsLast() bool { return e.kind == fatLast }

// IsBad reports whether the entry marks a bad cluster.
func (e FatEntry) IsBad() bool { return e.kind == fatBad }

// Next returns the successor cluster and true if the entry points onward
// in a chain.
func (e FatEntry) Next() (cluster uint32, ok bool) {
	return e.cluster, e.kind == fatNext
}

// FatTable is a typed view over the FAT region of a volume, addressed
// through a shared BlockCache. Only FAT copy #0 is read or written; any
// additional mirrors are ignored, per spec.
type FatTable struct {
	fatType    FatType
	firstBlock int64 // block index of the start of the FAT region (reserved sectors).
	blockCount int64 // blocks occupied by one FAT copy.
	blockSize  int64
	idx        blockIndexer // shift/mask form of blockSize, when it is a power of 2.
	idxOK      bool
}

// NewFatTable constructs a FatTable. firstBlock and blockCount are in units
// of whole blocks of size blockSize. Real FAT volumes always use a
// power-of-2 sector size, in which case byte-offset-to-block/offset
// conversion is done with the shift/mask blockIndexer instead of
// division/modulo; a non-power-of-2 size falls back to plain arithmetic.
func NewFatTable(fatType FatType, firstBlock, blockCount int64, blockSize int) FatTable {
	bi, err := makeBlockIndexer(blockSize)
	return FatTable{
		fatType: fatType, firstBlock: firstBlock, blockCount: blockCount,
		blockSize: int64(blockSize), idx: bi, idxOK: err == nil,
	}
}

// Type returns the FAT width this table was constructed for.
func (t FatTable) Type() FatType { return t.fatType }

// Get decodes the FAT entry for cluster through cache.
func (t FatTable) Get(cache *BlockCache, cluster uint32) (FatEntry, error) {
	switch t.fatType {
	case Fat32:
		return t.get32(cache, cluster)
	case Fat16:
		return t.get16(cache, cluster)
	case Fat12:
		return t.get12(cache, cluster)
	default:
		return FatEntry{}, newErr("fattable.get", UnsupportedFatType, nil)
	}
}

// Set encodes value into the FAT entry for cluster through cache.
func (t FatTable) Set(cache *BlockCache, cluster uint32, value FatEntry) error {
	switch t.fatType {
	case Fat32:
		return t.set32(cache, cluster, value)
	case Fat16:
		return t.set16(cache, cluster, value)
	case Fat12:
		return t.set12(cache, cluster, value)
	default:
		return newErr("fattable.set", UnsupportedFatType, nil)
	}
}

func (t FatTable) blockOffset(byteOffset int64) (block int64, offset int) {
	if t.idxOK {
		return t.firstBlock + t.idx.idx(byteOffset), int(t.idx.off(byteOffset))
	}
	return t.firstBlock + byteOffset/t.blockSize, int(byteOffset % t.blockSize)
}

func (t FatTable) get32(cache *BlockCache, cluster uint32) (FatEntry, error) {
	byteOff := int64(cluster) * 4
	block, offset := t.blockOffset(byteOff)
	if block-t.firstBlock >= t.blockCount {
		return FatEntry{}, newErr("fattable.get32", OutOfRange, nil)
	}
	var buf [4]byte
	if err := cache.Read(block, offset, buf[:]); err != nil {
		return FatEntry{}, err
	}
	val := binary.LittleEndian.Uint32(buf[:]) & 0x0FFF_FFFF
	return decodeFat32(val), nil
}

func decodeFat32(val uint32) FatEntry {
	switch {
	case val == 0:
		return entryFree()
	case val == 0x0FFF_FFF7:
		return entryBad()
	case val >= 0x0FFF_FFF8:
		return entryLast()
	default:
		return entryNext(val)
	}
}

func (t FatTable) set32(cache *BlockCache, cluster uint32, value FatEntry) error {
	raw := encodeFat32(value)
	byteOff := int64(cluster) * 4
	block, offset := t.blockOffset(byteOff)
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], raw)
	return cache.Write(block, offset, buf[:])
}

func encodeFat32(value FatEntry) uint32 {
	switch value.kind {
	case fatNext:
		return value.cluster & 0x0FFF_FFFF
	case fatLast:
		return 0x0FFF_FFF8
	case fatBad:
		return 0x0FFF_FFF7
	default:
		return 0
	}
}

func (t FatTable) get16(cache *BlockCache, cluster uint32) (FatEntry, error) {
	byteOff := int64(cluster) * 2
	block, offset := t.blockOffset(byteOff)
	if block-t.firstBlock >= t.blockCount {
		return FatEntry{}, newErr("fattable.get16", OutOfRange, nil)
	}
	var buf [2]byte
	if err := cache.Read(block, offset, buf[:]); err != nil {
		return FatEntry{}, err
	}
	val := binary.LittleEndian.Uint16(buf[:])
	return decodeFat16(val), nil
}

func decodeFat16(val uint16) FatEntry {
	switch {
	case val == 0:
		return entryFree()
	case val == 0xFFF7:
		return entryBad()
	case val >= 0xFFF8:
		return entryLast()
	default:
		return entryNext(uint32(val))
	}
}

func (t FatTable) set16(cache *BlockCache, cluster uint32, value FatEntry) error {
	raw := encodeFat16(value)
	byteOff := int64(cluster) * 2
	block, offset := t.blockOffset(byteOff)
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], raw)
	return cache.Write(block, offset, buf[:])
}

func encodeFat16(value FatEntry) uint16 {
	switch value.kind {
	case fatNext:
		return uint16(value.cluster & 0xFFFF)
	case fatLast:
		return 0xFFF8
	case fatBad:
		return 0xFFF7
	default:
		return 0
	}
}

// get12 reads the packed 12-bit entry. Unlike the reference implementation,
// it correctly handles the case where the 2-byte entry straddles a block
// boundary: the reference only ever issues one cache read at `offset`,
// silently truncating the read when offset == blockSize-1; here a second
// byte is fetched from the following block and the two are concatenated.
func (t FatTable) get12(cache *BlockCache, cluster uint32) (FatEntry, error) {
	byteOff := int64(cluster) + int64(cluster)/2
	block, offset := t.blockOffset(byteOff)
	if block-t.firstBlock >= t.blockCount {
		return FatEntry{}, newErr("fattable.get12", OutOfRange, nil)
	}
	var buf [2]byte
	if offset == int(t.blockSize)-1 {
		if err := cache.Read(block, offset, buf[:1]); err != nil {
			return FatEntry{}, err
		}
		if block+1-t.firstBlock >= t.blockCount {
			return FatEntry{}, newErr("fattable.get12", OutOfRange, nil)
		}
		if err := cache.Read(block+1, 0, buf[1:2]); err != nil {
			return FatEntry{}, err
		}
	} else {
		if err := cache.Read(block, offset, buf[:]); err != nil {
			return FatEntry{}, err
		}
	}
	val := binary.LittleEndian.Uint16(buf[:])
	var raw uint32
	if cluster&1 == 0 {
		raw = uint32(val) & 0x0FFF
	} else {
		raw = uint32(val) >> 4
	}
	return decodeFat12(raw), nil
}

func decodeFat12(raw uint32) FatEntry {
	switch {
	case raw == 0:
		return entryFree()
	case raw == 0xFF7:
		return entryBad()
	case raw >= 0xFF8:
		return entryLast()
	default:
		return entryNext(raw)
	}
}

// set12 performs the read-modify-write required to preserve the neighbor
// nibble sharing the same two-byte word.
func (t FatTable) set12(cache *BlockCache, cluster uint32, value FatEntry) error {
	raw := encodeFat12(value)
	byteOff := int64(cluster) + int64(cluster)/2
	block, offset := t.blockOffset(byteOff)
	spans := offset == int(t.blockSize)-1

	var buf [2]byte
	if spans {
		if err := cache.Read(block, offset, buf[:1]); err != nil {
			return err
		}
		if err := cache.Read(block+1, 0, buf[1:2]); err != nil {
			return err
		}
	} else if err := cache.Read(block, offset, buf[:]); err != nil {
		return err
	}

	if cluster&1 == 0 {
		// Low 12 bits of the word are ours; the high nibble of buf[1]
		// belongs to cluster+1 and must survive untouched.
		buf[0] = byte(raw)
		buf[1] = (buf[1] & 0xF0) | byte((raw>>8)&0x0F)
	} else {
		// High 12 bits of the word are ours; the low nibble of buf[0]
		// belongs to cluster-1 and must survive untouched.
		buf[0] = (buf[0] & 0x0F) | byte((raw&0x0F)<<4)
		buf[1] = byte(raw >> 4)
	}

	if spans {
		if err := cache.Write(block, offset, buf[:1]); err != nil {
			return err
		}
		return cache.Write(block+1, 0, buf[1:2])
	}
	return cache.Write(block, offset, buf[:])
}

func encodeFat12(value FatEntry) uint32 {
	switch value.kind {
	case fatNext:
		return value.cluster & 0xFFF
	case fatLast:
		return 0xFF8
	case fatBad:
		return 0xFF7
	default:
		return 0
	}
}
