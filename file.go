package vfat

import "io"

// File is a bounded read view over a Stream, capped by the owning
// DirEntry's size field. It implements io.Reader.
type File struct {
	stream *Stream
	size   uint32
}

func newFile(fsys *Fs, entry DirEntry) *File {
	return &File{stream: newStream(fsys, entry.Cluster()), size: entry.Size()}
}

// Size returns the file's declared size in bytes.
func (f *File) Size() uint32 { return f.size }

// Read fills buf with up to len(buf) bytes, looping across sector and
// cluster boundaries until satisfied, the file's size is reached, or the
// underlying Stream fails. Unlike the reference implementation, which
// returns the same opaque failure for both "already at EOF" and "I/O
// error," this distinguishes EndOfStream from IoError (see spec.md §9).
func (f *File) Read(buf []byte) (int, error) {
	pos, err := f.stream.Seek(SeekCurrent, 0)
	if err != nil {
		return 0, err
	}
	if pos >= f.size {
		return 0, newErr("file.read", EndOfStream, nil)
	}

	toRead := len(buf)
	if remaining := int(f.size - pos); toRead > remaining {
		toRead = remaining
	}

	read := 0
	for read < toRead {
		n, rerr := f.stream.Read(buf[read:toRead])
		if rerr != nil {
			if read == 0 {
				return 0, rerr
			}
			break
		}
		read += n
	}
	return read, nil
}

// ioReaderAdapter follows io.Reader's "returns io.EOF, not an error, at the
// true end of input" convention for callers that want to use io.ReadAll and
// friends on a File; Read itself reports the EndOfStream kind.
type ioReaderAdapter struct{ f *File }

// Reader wraps f to present a standard io.Reader that reports io.EOF
// instead of an EndOfStream *Error, for interop with the io package.
func (f *File) Reader() io.Reader { return ioReaderAdapter{f} }

func (a ioReaderAdapter) Read(buf []byte) (int, error) {
	n, err := a.f.Read(buf)
	if err != nil {
		if IsEndOfStream(err) {
			return n, io.EOF
		}
		return n, err
	}
	return n, nil
}

// Seek repositions the file, delegating to Stream.Seek. Unlike the
// reference implementation, which returns the literal constant 42 on
// success, this returns the actual resulting offset (see spec.md §9).
func (f *File) Seek(mode SeekMode, offset int64) (uint32, error) {
	return f.stream.Seek(mode, offset)
}

// Close releases the File. No flush is required: this library never
// writes file data.
func (f *File) Close() error { return nil }
