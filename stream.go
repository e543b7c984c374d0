package vfat

// SeekMode selects the reference point for Stream.Seek, mirroring the
// conventional io.Seeker constants without importing io (Stream is an
// internal byte channel; File, which does implement io.Reader, wraps it).
type SeekMode uint8

const (
	SeekStart SeekMode = iota
	SeekCurrent
	SeekEnd
)

// Stream is a seekable byte channel over a cluster chain (or, when linear
// is true, over the statically addressed FAT12/16 root directory region).
type Stream struct {
	fsys            *Fs
	firstCluster    uint32
	currentCluster  uint32
	sectorInCluster uint32
	offsetInSector  int
	globalOffset    uint32
	linear          bool
}

// newStream initializes a Stream anchored at cluster. cluster == 0 selects
// linear addressing of the static root directory region.
func newStream(fsys *Fs, cluster uint32) *Stream {
	return &Stream{
		fsys:           fsys,
		firstCluster:   cluster,
		currentCluster: cluster,
		linear:         cluster == 0,
	}
}

func (s *Stream) clusterSize() uint32 {
	return uint32(s.fsys.sectorsPerCluster) * uint32(s.fsys.sectorSize)
}

// sync advances past a full sector, walking the FAT chain (or incrementing
// the linear sector count) as needed. Called at the top of Read/Write.
func (s *Stream) sync() error {
	if s.offsetInSector < int(s.fsys.sectorSize) {
		return nil
	}
	if s.linear {
		s.sectorInCluster++
	} else if s.sectorInCluster+1 >= uint32(s.fsys.sectorsPerCluster) {
		entry, err := s.fsys.fat.Get(s.fsys.cache, s.currentCluster)
		if err != nil {
			return err
		}
		next, ok := entry.Next()
		if !ok {
			return newErr("stream.sync", EndOfStream, nil)
		}
		s.currentCluster = next
		s.sectorInCluster = 0
	} else {
		s.sectorInCluster++
	}
	s.offsetInSector = 0
	return nil
}

// Read transfers at most one contiguous run inside one sector into out,
// returning the number of bytes actually moved. Callers that need more
// than one sector's worth loop until satisfied (File.Read does this).
func (s *Stream) Read(out []byte) (int, error) {
	if err := s.sync(); err != nil {
		return 0, err
	}
	n := len(out)
	if room := int(s.fsys.sectorSize) - s.offsetInSector; n > room {
		n = room
	}
	sector := s.fsys.clusterToSector(s.currentCluster) + int64(s.sectorInCluster)
	if err := s.fsys.cache.Read(sector, s.offsetInSector, out[:n]); err != nil {
		return 0, err
	}
	s.offsetInSector += n
	s.globalOffset += uint32(n)
	return n, nil
}

// Write is the mirror of Read: it writes into the current sector through
// the cache. Nothing in this package calls it; File and Dir expose no
// write path.
func (s *Stream) Write(in []byte) (int, error) {
	if err := s.sync(); err != nil {
		return 0, err
	}
	n := len(in)
	if room := int(s.fsys.sectorSize) - s.offsetInSector; n > room {
		n = room
	}
	sector := s.fsys.clusterToSector(s.currentCluster) + int64(s.sectorInCluster)
	if err := s.fsys.cache.Write(sector, s.offsetInSector, in[:n]); err != nil {
		return 0, err
	}
	s.offsetInSector += n
	s.globalOffset += uint32(n)
	return n, nil
}

// walkFromStart follows the chain from firstCluster forward `skip` cluster
// steps, returning the cluster landed on.
func (s *Stream) walkFromStart(skip uint32) (uint32, error) {
	cluster := s.firstCluster
	for i := uint32(0); i < skip; i++ {
		entry, err := s.fsys.fat.Get(s.fsys.cache, cluster)
		if err != nil {
			return 0, err
		}
		next, ok := entry.Next()
		if !ok {
			return 0, newErr("stream.seek", EndOfStream, nil)
		}
		cluster = next
	}
	return cluster, nil
}

// Seek repositions the stream. Current(0) is a pure read of the current
// offset. Unlike the reference implementation, the chain walk distance is
// floor(new_pos / cluster_size), not new_pos modulo cluster_size.
func (s *Stream) Seek(mode SeekMode, offset int64) (uint32, error) {
	var newPos int64
	switch mode {
	case SeekCurrent:
		if offset == 0 {
			return s.globalOffset, nil
		}
		newPos = int64(s.globalOffset) + offset
	case SeekStart:
		newPos = offset
	case SeekEnd:
		return 0, newErr("stream.seek", Unimplemented, nil)
	default:
		return 0, newErr("stream.seek", Unimplemented, nil)
	}
	if newPos < 0 {
		return 0, newErr("stream.seek", OutOfRange, nil)
	}

	newPosU := uint32(newPos)
	clusterSize := s.clusterSize()
	if s.linear {
		s.sectorInCluster = newPosU / uint32(s.fsys.sectorSize)
		s.offsetInSector = int(newPosU % uint32(s.fsys.sectorSize))
		s.globalOffset = newPosU
		return s.globalOffset, nil
	}
	// The chain index of currentCluster, which lags globalOffset/clusterSize
	// when a read has just filled the cluster's last sector.
	posInCluster := s.sectorInCluster*uint32(s.fsys.sectorSize) + uint32(s.offsetInSector)
	if newPosU/clusterSize != (s.globalOffset-posInCluster)/clusterSize {
		cluster, err := s.walkFromStart(newPosU / clusterSize)
		if err != nil {
			return 0, err
		}
		s.currentCluster = cluster
	}

	s.sectorInCluster = (newPosU % clusterSize) / uint32(s.fsys.sectorSize)
	s.offsetInSector = int((newPosU % clusterSize) % uint32(s.fsys.sectorSize))
	s.globalOffset = newPosU
	return s.globalOffset, nil
}
