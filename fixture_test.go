package vfat

import "encoding/binary"

// buildFAT16Image constructs, byte by byte, a minimal but geometry-correct
// FAT16 image: root directory contains MYFOLDER/, which contains QUEEN/,
// which contains QUEEN.TXT — the three-segment path from spec.md §8
// scenario (b). Each directory and the file occupy exactly one cluster.
//
// Geometry (chosen so count_of_clusters lands solidly inside the FAT16
// range [4085, 65525), per spec.md §4.6):
//
//	sectorSize=512 sectorsPerCluster=1 reservedSectors=1 numFATs=1
//	rootEntryCount=16 (rootDirSectors=1) dataClusters=4096 fatSize16=17
//	totalSectors = 1 + 17 + 1 + 4096 = 4115
func buildFAT16Image() (image []byte, fileContent []byte) {
	const (
		sectorSize        = 512
		sectorsPerCluster = 1
		reservedSectors   = 1
		numFATs           = 1
		rootEntryCount    = 16
		rootDirSectors    = 1
		fatSize16         = 17
		dataClusters      = 4096
		totalSectors      = reservedSectors + numFATs*fatSize16 + rootDirSectors + dataClusters
	)
	image = make([]byte, totalSectors*sectorSize)

	// --- BPB (sector 0) ---
	binary.LittleEndian.PutUint16(image[bpbBytesPerSector:], sectorSize)
	image[bpbSectorsPerCluster] = sectorsPerCluster
	binary.LittleEndian.PutUint16(image[bpbReservedSectors:], reservedSectors)
	image[bpbNumFATs] = numFATs
	binary.LittleEndian.PutUint16(image[bpbRootEntryCount:], rootEntryCount)
	binary.LittleEndian.PutUint16(image[bpbTotalSectors16:], totalSectors)
	binary.LittleEndian.PutUint16(image[bpbFATSize16:], fatSize16)
	image[510], image[511] = 0x55, 0xAA

	fatFirstByte := reservedSectors * sectorSize
	rootDirFirstByte := (reservedSectors + numFATs*fatSize16) * sectorSize
	dataFirstByte := rootDirFirstByte + rootDirSectors*sectorSize

	putFAT16 := func(cluster uint32, value uint16) {
		binary.LittleEndian.PutUint16(image[fatFirstByte+int(cluster)*2:], value)
	}
	// Clusters 2, 3, 4 each hold exactly one cluster's worth of data; mark
	// each chain as a single-cluster end-of-chain.
	putFAT16(2, 0xFFFF)
	putFAT16(3, 0xFFFF)
	putFAT16(4, 0xFFFF)

	clusterByte := func(cluster uint32) int {
		return dataFirstByte + int(cluster-2)*sectorsPerCluster*sectorSize
	}

	writeDirEntry := func(buf []byte, name, ext string, attr byte, cluster uint32, size uint32) {
		copy(buf[0:8], padSFN(name, 8))
		copy(buf[8:11], padSFN(ext, 3))
		buf[11] = attr
		binary.LittleEndian.PutUint16(buf[20:22], uint16(cluster>>16))
		binary.LittleEndian.PutUint16(buf[26:28], uint16(cluster&0xFFFF))
		binary.LittleEndian.PutUint32(buf[28:32], size)
	}

	// Root directory (linear region): one entry, MYFOLDER, cluster 2.
	root := image[rootDirFirstByte : rootDirFirstByte+rootDirSectors*sectorSize]
	writeDirEntry(root[0:32], "MYFOLDER", "", attrDirectory, 2, 0)
	// root[32] left zeroed: end-of-directory marker.

	// MYFOLDER's cluster: "." "..", QUEEN subdirectory at cluster 3.
	myFolder := image[clusterByte(2) : clusterByte(2)+sectorSize]
	writeDirEntry(myFolder[0:32], ".", "", attrDirectory, 2, 0)
	writeDirEntry(myFolder[32:64], "..", "", attrDirectory, 0, 0)
	writeDirEntry(myFolder[64:96], "QUEEN", "", attrDirectory, 3, 0)

	// QUEEN's cluster: "." "..", QUEEN.TXT file at cluster 4.
	content := []byte("This is the Queen.txt file used to exercise multi-segment path resolution and bounded file reads end to end.\n")
	queen := image[clusterByte(3) : clusterByte(3)+sectorSize]
	writeDirEntry(queen[0:32], ".", "", attrDirectory, 3, 0)
	writeDirEntry(queen[32:64], "..", "", attrDirectory, 2, 0)
	writeDirEntry(queen[64:96], "QUEEN", "TXT", attrArchive, 4, uint32(len(content)))

	// QUEEN.TXT's cluster: raw file content.
	fileCluster := image[clusterByte(4) : clusterByte(4)+sectorSize]
	copy(fileCluster, content)

	return image, content
}

// padSFN upper-cases and space-pads s to width n, truncating if longer.
func padSFN(s string, n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = ' '
	}
	for i := 0; i < len(s) && i < n; i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		buf[i] = c
	}
	return buf
}
