package vfat

// Dir is a lazy iterator over a directory's records, wrapping a Stream.
type Dir struct {
	stream *Stream
}

// newDir opens cluster as a directory. cluster == 0 selects the linearly
// addressed FAT12/16 root directory region.
func newDir(fsys *Fs, cluster uint32) *Dir {
	return &Dir{stream: newStream(fsys, cluster)}
}

// Next yields the next DirEntry in on-disk order. ok is false once the
// end-of-directory marker is seen or the underlying stream fails; these
// are indistinguishable at this surface, per spec.md §7.
func (d *Dir) Next() (entry DirEntry, ok bool, err error) {
	var lfnState lfnAccumulator
	var raw [32]byte
	for {
		n, rerr := readFull(d.stream, raw[:])
		if rerr != nil || n < len(raw) {
			return DirEntry{}, false, nil
		}

		switch {
		case raw[0] == noMoreDirEntry:
			return DirEntry{}, false, nil
		case raw[0] == deletedDirEntry:
			lfnState.reset()
			continue
		case raw[11]&attrLongMask == attrLongName:
			lfnState.feed(raw)
			continue
		default:
			return finalizeSFNEntry(raw, &lfnState), true, nil
		}
	}
}

// readFull reads exactly len(buf) bytes from s, looping across sector
// boundaries, or returns early with the partial count on end-of-stream.
func readFull(s *Stream, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := s.Read(buf[total:])
		if err != nil {
			if total > 0 {
				return total, nil
			}
			return total, err
		}
		if n == 0 {
			return total, nil
		}
		total += n
	}
	return total, nil
}

// Rewind resets iteration to the beginning of the directory.
func (d *Dir) Rewind() error {
	_, err := d.stream.Seek(SeekStart, 0)
	return err
}

// ForEach calls fn for every entry until fn returns an error, the
// directory is exhausted, or fn returns stop == true.
func (d *Dir) ForEach(fn func(DirEntry) (stop bool, err error)) error {
	for {
		entry, ok, err := d.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		stop, err := fn(entry)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// find locates the first child entry satisfying compare(segment) that
// matches wantDir (directory) or file, consuming the current Dir's
// iteration state.
func (d *Dir) find(segment []byte, wantDir bool) (DirEntry, error) {
	var found DirEntry
	var foundOK bool
	err := d.ForEach(func(e DirEntry) (bool, error) {
		if !e.Compare(segment) {
			return false, nil
		}
		if e.IsDir() != wantDir {
			return false, nil
		}
		found, foundOK = e, true
		return true, nil
	})
	if err != nil {
		return DirEntry{}, err
	}
	if !foundOK {
		return DirEntry{}, newErr("dir.find", NotFound, nil)
	}
	return found, nil
}

// DirOpen resolves a (possibly multi-segment) path relative to d and
// opens the final component as a directory.
func (d *Dir) DirOpen(path string) (*Dir, error) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return d, nil
	}
	cur := d
	for _, seg := range segments {
		entry, err := cur.find(seg, true)
		if err != nil {
			return nil, err
		}
		cur = newDir(cur.stream.fsys, entry.Cluster())
	}
	return cur, nil
}

// FileOpen resolves a (possibly multi-segment) path relative to d,
// descending through intermediate directories and opening the final
// component as a file.
func (d *Dir) FileOpen(path string) (*File, error) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return nil, newErr("dir.fileopen", NotFound, nil)
	}
	cur := d
	for _, seg := range segments[:len(segments)-1] {
		entry, err := cur.find(seg, true)
		if err != nil {
			return nil, err
		}
		cur = newDir(cur.stream.fsys, entry.Cluster())
	}
	last := segments[len(segments)-1]
	entry, err := cur.find(last, false)
	if err != nil {
		return nil, err
	}
	return newFile(cur.stream.fsys, entry), nil
}

// splitPath splits a path on '/' or '\', dropping empty segments (leading,
// trailing, or repeated separators).
func splitPath(path string) [][]byte {
	var segments [][]byte
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || isSeparator(path[i]) {
			if i > start {
				segments = append(segments, []byte(path[start:i]))
			}
			start = i + 1
		}
	}
	return segments
}

func isSeparator(c byte) bool { return c == '/' || c == '\\' }
