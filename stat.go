package hyperdrive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

// Kind distinguishes a file Stat from a directory Stat.
type Kind uint8

const (
	KindFile Kind = iota + 1
	KindDirectory
)

// Stat is the per-path metadata record stored as the value in the metadata
// index. Offset/ByteOffset/Size/Blocks are meaningful for files only;
// directories snapshot the content log's current position at mkdir time but
// never consume content-log bytes.
type Stat struct {
	Kind Kind

	Mode uint32
	UID  uint32
	GID  uint32

	Size   uint64
	Blocks uint64

	Offset     uint64
	ByteOffset uint64

	MTime int64
	CTime int64
}

// FileOpts fills in the advisory fields of a file Stat; zero values take
// sane defaults in File.
type FileOpts struct {
	Mode  uint32
	UID   uint32
	GID   uint32
	MTime time.Time
	CTime time.Time
}

// File builds a file Stat referencing the content-log byte range
// [byteOffset, byteOffset+size), occupying [offset, offset+blocks) blocks.
func File(offset, blocks, byteOffset, size uint64, opts FileOpts) *Stat {
	now := time.Now()
	mtime, ctime := opts.MTime, opts.CTime
	if mtime.IsZero() {
		mtime = now
	}
	if ctime.IsZero() {
		ctime = now
	}
	mode := opts.Mode
	if mode == 0 {
		mode = 0644
	}
	return &Stat{
		Kind:       KindFile,
		Mode:       mode,
		UID:        opts.UID,
		GID:        opts.GID,
		Size:       size,
		Blocks:     blocks,
		Offset:     offset,
		ByteOffset: byteOffset,
		MTime:      mtime.UnixNano(),
		CTime:      ctime.UnixNano(),
	}
}

// Directory builds a directory Stat. offset/byteOffset snapshot the content
// log's current position purely for bookkeeping; a directory never reads or
// writes content-log bytes.
func Directory(offset, byteOffset uint64, opts FileOpts) *Stat {
	now := time.Now()
	mtime, ctime := opts.MTime, opts.CTime
	if mtime.IsZero() {
		mtime = now
	}
	if ctime.IsZero() {
		ctime = now
	}
	mode := opts.Mode
	if mode == 0 {
		mode = 0755
	}
	return &Stat{
		Kind:       KindDirectory,
		Mode:       mode,
		UID:        opts.UID,
		GID:        opts.GID,
		Offset:     offset,
		ByteOffset: byteOffset,
		MTime:      mtime.UnixNano(),
		CTime:      ctime.UnixNano(),
	}
}

func (s *Stat) IsDirectory() bool { return s.Kind == KindDirectory }

// Stat field tags for the TLV encoding below. Appending a new tag is
// backwards compatible: Decode skips any tag it doesn't recognize.
const (
	tagKind       = 1
	tagMode       = 2
	tagUID        = 3
	tagGID        = 4
	tagSize       = 5
	tagBlocks     = 6
	tagOffset     = 7
	tagByteOffset = 8
	tagMTime      = 9
	tagCTime      = 10
)

func putTag(buf *bytes.Buffer, tag uint8, v uint64) {
	var hdr [1]byte
	hdr[0] = tag
	buf.Write(hdr[:])
	var lbuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lbuf[:], v)
	buf.Write(lbuf[:n])
}

func putSigned(buf *bytes.Buffer, tag uint8, v int64) {
	var hdr [1]byte
	hdr[0] = tag
	buf.Write(hdr[:])
	var lbuf [binary.MaxVarintLen64]byte
	n := binary.PutVarint(lbuf[:], v)
	buf.Write(lbuf[:n])
}

// Encode produces the stable, forward-compatible on-disk form of s: a
// sequence of (tag byte, varint value) pairs. Decode ignores any tag it does
// not recognize, so readers never choke on a Stat written by a newer writer.
func Encode(s *Stat) []byte {
	var buf bytes.Buffer
	putTag(&buf, tagKind, uint64(s.Kind))
	putTag(&buf, tagMode, uint64(s.Mode))
	putTag(&buf, tagUID, uint64(s.UID))
	putTag(&buf, tagGID, uint64(s.GID))
	if s.Kind == KindFile {
		putTag(&buf, tagSize, s.Size)
		putTag(&buf, tagBlocks, s.Blocks)
	}
	putTag(&buf, tagOffset, s.Offset)
	putTag(&buf, tagByteOffset, s.ByteOffset)
	putSigned(&buf, tagMTime, s.MTime)
	putSigned(&buf, tagCTime, s.CTime)
	return buf.Bytes()
}

// Decode is the inverse of Encode. Unknown tags (e.g. written by a newer
// version of this codec) are skipped rather than rejected.
func Decode(b []byte) (*Stat, error) {
	r := bytes.NewReader(b)
	var s Stat
	for r.Len() > 0 {
		tag, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("reading stat tag: %w", err)
		}
		switch tag {
		case tagMTime, tagCTime:
			v, err := binary.ReadVarint(r)
			if err != nil {
				return nil, fmt.Errorf("reading stat field %d: %w", tag, err)
			}
			if tag == tagMTime {
				s.MTime = v
			} else {
				s.CTime = v
			}
		default:
			v, err := binary.ReadUvarint(r)
			if err != nil {
				return nil, fmt.Errorf("reading stat field %d: %w", tag, err)
			}
			switch tag {
			case tagKind:
				s.Kind = Kind(v)
			case tagMode:
				s.Mode = uint32(v)
			case tagUID:
				s.UID = uint32(v)
			case tagGID:
				s.GID = uint32(v)
			case tagSize:
				s.Size = v
			case tagBlocks:
				s.Blocks = v
			case tagOffset:
				s.Offset = v
			case tagByteOffset:
				s.ByteOffset = v
			default:
				// unrecognized tag: ignored for forward compatibility
			}
		}
	}
	return &s, nil
}
