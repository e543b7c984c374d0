package vfat

import (
	"encoding/binary"
	"log/slog"

	multierror "github.com/hashicorp/go-multierror"
)

// BPB byte offsets within sector 0, per spec.md §4.6/§6.
const (
	bpbBytesPerSector    = 11
	bpbSectorsPerCluster = 13
	bpbReservedSectors   = 14
	bpbNumFATs           = 16
	bpbRootEntryCount    = 17
	bpbTotalSectors16    = 19
	bpbFATSize16         = 22
	bpbTotalSectors32    = 32
	bpbFATSize32         = 36
	bpbRootCluster32     = 44
)

// Fat-type selection thresholds (Microsoft canonical rule).
const (
	fat12ClusterLimit = 4085
	fat16ClusterLimit = 65525
)

// Fs is the mounted view of a FAT volume: it owns the BlockCache and
// FatTable that every Dir, File, and Stream derived from it shares.
type Fs struct {
	bd  BlockDevice
	log *slog.Logger

	cache *BlockCache
	fat   FatTable

	fatType FatType

	sectorSize          uint16
	sectorsPerCluster   uint8
	reservedSectors     uint16
	numFATs             uint8
	rootEntryCount      uint16
	fatSize             uint32
	totalSectors        uint32
	rootDirSectors      uint32
	rootDirFirstSector  int64
	dataAreaFirstSector int64
	rootCluster         uint32
}

// Mount reads sector 0 of bd as a BPB, derives the FAT geometry, and
// selects the FAT type. bd.BlockSize() must be at least 512 bytes.
func Mount(bd BlockDevice, opts ...Option) (*Fs, error) {
	fsys := &Fs{bd: bd}
	for _, opt := range opts {
		opt(fsys)
	}

	fsys.cache = NewBlockCache(bd)
	var bpb [512]byte
	blockSize := bd.BlockSize()
	if blockSize < len(bpb) {
		return nil, newErr("fs.mount", OutOfRange, nil)
	}
	sector0 := make([]byte, blockSize)
	if err := bd.ReadBlock(0, sector0); err != nil {
		return nil, newErr("fs.mount", IoError, err)
	}
	copy(bpb[:], sector0)

	fsys.sectorSize = binary.LittleEndian.Uint16(bpb[bpbBytesPerSector:])
	fsys.sectorsPerCluster = bpb[bpbSectorsPerCluster]
	fsys.reservedSectors = binary.LittleEndian.Uint16(bpb[bpbReservedSectors:])
	fsys.numFATs = bpb[bpbNumFATs]
	fsys.rootEntryCount = binary.LittleEndian.Uint16(bpb[bpbRootEntryCount:])

	fatSize16 := binary.LittleEndian.Uint16(bpb[bpbFATSize16:])
	if fatSize16 != 0 {
		fsys.fatSize = uint32(fatSize16)
	} else {
		fsys.fatSize = binary.LittleEndian.Uint32(bpb[bpbFATSize32:])
	}

	totalSectors16 := binary.LittleEndian.Uint16(bpb[bpbTotalSectors16:])
	if totalSectors16 != 0 {
		fsys.totalSectors = uint32(totalSectors16)
	} else {
		fsys.totalSectors = binary.LittleEndian.Uint32(bpb[bpbTotalSectors32:])
	}

	var errs *multierror.Error
	if fsys.sectorSize == 0 {
		errs = multierror.Append(errs, newErr("fs.mount", OutOfRange, nil))
	}
	if fsys.sectorsPerCluster == 0 {
		errs = multierror.Append(errs, newErr("fs.mount", OutOfRange, nil))
	}
	if errs != nil {
		return nil, errs.ErrorOrNil()
	}

	fsys.rootDirSectors = (uint32(fsys.rootEntryCount)*dirEntrySize + uint32(fsys.sectorSize) - 1) / uint32(fsys.sectorSize)
	dataSectors := fsys.totalSectors - (uint32(fsys.reservedSectors) + uint32(fsys.numFATs)*fsys.fatSize + fsys.rootDirSectors)
	countOfClusters := dataSectors / uint32(fsys.sectorsPerCluster)

	switch {
	case countOfClusters < fat12ClusterLimit:
		fsys.fatType = Fat12
	case countOfClusters < fat16ClusterLimit:
		fsys.fatType = Fat16
	default:
		fsys.fatType = Fat32
	}

	fsys.rootDirFirstSector = int64(fsys.reservedSectors) + int64(fsys.numFATs)*int64(fsys.fatSize)
	fsys.dataAreaFirstSector = fsys.rootDirFirstSector + int64(fsys.rootDirSectors)

	if fsys.fatType == Fat32 {
		fsys.rootCluster = binary.LittleEndian.Uint32(bpb[bpbRootCluster32:])
	} else {
		fsys.rootCluster = 0
	}

	fsys.fat = NewFatTable(fsys.fatType, int64(fsys.reservedSectors), int64(fsys.fatSize), int(fsys.sectorSize))

	fsys.trace("fs:mount",
		slog.String("fatType", fsys.fatType.String()),
		slog.Uint64("sectorSize", uint64(fsys.sectorSize)),
		slog.Uint64("dataAreaFirstSector", uint64(fsys.dataAreaFirstSector)),
	)
	return fsys, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Option configures Mount.
type Option func(*Fs)

// WithLogger attaches a structured logger; Mount emits a trace-level
// summary record through it. Cache syncs, FAT lookups and directory
// descents are not logged. Passing a nil logger (the default) disables all
// logging.
func WithLogger(l *slog.Logger) Option {
	return func(fsys *Fs) { fsys.log = l }
}

// FatType returns the FAT width selected at mount time.
func (fsys *Fs) FatType() FatType { return fsys.fatType }

// SectorSize returns the volume's bytes-per-sector.
func (fsys *Fs) SectorSize() uint16 { return fsys.sectorSize }

// clusterToSector maps a cluster number to its first device sector.
// cluster 0 is the linear-root sentinel; cluster >= 2 is a real data
// cluster.
func (fsys *Fs) clusterToSector(cluster uint32) int64 {
	if cluster == 0 {
		return fsys.rootDirFirstSector
	}
	return fsys.dataAreaFirstSector + int64(cluster-2)*int64(fsys.sectorsPerCluster)
}

// RootDir returns a Dir over the volume's root directory: the FAT32 root
// cluster (chain-walked) or the linear sentinel cluster 0 (FAT12/16).
func (fsys *Fs) RootDir() *Dir {
	return newDir(fsys, fsys.rootCluster)
}

// OpenDir resolves path from the root and opens it as a directory.
func (fsys *Fs) OpenDir(path string) (*Dir, error) {
	return fsys.RootDir().DirOpen(path)
}

// OpenFile resolves path from the root and opens it as a file.
func (fsys *Fs) OpenFile(path string) (*File, error) {
	return fsys.RootDir().FileOpen(path)
}
