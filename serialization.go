package blazeindex

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/RoaringBitmap/roaring"
	"github.com/dgryski/go-farm"
	"github.com/google/uuid"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SERIALIZATION: Saving and Loading the Index
// ═══════════════════════════════════════════════════════════════════════════════
// The index is written in a compact little-endian binary format. The arena and
// the term spans are written as they are held in memory, so loading an index
// does not re-intern any term.
//
// FORMAT STRUCTURE:
// -----------------
//
//	[Header]
//	  magic:    "BLZI"
//	  version:  uint16
//	  flags:    uint16 (bit 0: positions)
//	  build id: 16 bytes
//	[Documents]
//	  count:    uint32
//	  titles:   [length: uint32][bytes] × count, in DocID order
//	[Dictionary]
//	  arena:    [length: uint32][bytes]
//	  count:    uint32
//	  spans:    [offset: uint32][length: uint32] × count
//	[Postings] (per term, in term id order)
//	  counts:   [n: uint32][count: uint32] × n
//	  docs:     [length: uint32][roaring bitmap, portable format]
//	  positions (flag bit 0 only):
//	            [pos: uint32] × counts[i], per document in bitmap order
//	[Trailer]
//	  checksum: uint64 farm hash of everything above
//
// The roaring bitmap iterates in ascending document order, which equals the
// insertion order of every posting list. Positions need no length prefix of
// their own: a positional posting list holds exactly counts[i] positions for
// its i-th document, written in ascending order.
// ═══════════════════════════════════════════════════════════════════════════════

const (
	indexMagic   = "BLZI"
	indexVersion = uint16(2)
	checksumSize = 8

	flagPositions = uint16(1 << 0)
)

// WriteTo serializes the index to w.
func (idx *Index) WriteTo(w io.Writer) (int64, error) {
	data, err := idx.Encode()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Encode serializes the index to a byte slice.
func (idx *Index) Encode() ([]byte, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	e := newIndexEncoder(new(bytes.Buffer))
	e.buffer.WriteString(indexMagic)
	e.writeUint16(indexVersion)
	var flags uint16
	if idx.positional {
		flags |= flagPositions
	}
	e.writeUint16(flags)
	e.buffer.Write(idx.buildID[:])

	e.writeUint32(uint32(len(idx.titles)))
	for _, title := range idx.titles {
		e.writeString(title)
	}

	e.writeBytes(idx.dict.arena)
	e.writeUint32(uint32(len(idx.dict.spans)))
	for _, s := range idx.dict.spans {
		e.writeUint32(s.off)
		e.writeUint32(s.len)
	}

	for i := range idx.postings {
		if err := e.encodePosting(&idx.postings[i]); err != nil {
			return nil, fmt.Errorf("encode term %q: %w", idx.dict.term(termID(i)), err)
		}
	}

	e.writeUint64(farm.Hash64(e.buffer.Bytes()))
	return e.buffer.Bytes(), nil
}

type indexEncoder struct {
	buffer  *bytes.Buffer
	scratch [8]byte
}

func newIndexEncoder(buffer *bytes.Buffer) *indexEncoder {
	return &indexEncoder{buffer: buffer}
}

func (e *indexEncoder) encodePosting(p *postingList) error {
	e.writeUint32(uint32(len(p.counts)))
	for _, c := range p.counts {
		e.writeUint32(c)
	}
	bm, err := p.docs.ToBytes()
	if err != nil {
		return err
	}
	e.writeBytes(bm)
	if p.positions != nil {
		p.positions.each(func(o occurrence) { e.writeUint32(o.pos) })
	}
	return nil
}

func (e *indexEncoder) writeUint16(v uint16) {
	binary.LittleEndian.PutUint16(e.scratch[:2], v)
	e.buffer.Write(e.scratch[:2])
}

func (e *indexEncoder) writeUint32(v uint32) {
	binary.LittleEndian.PutUint32(e.scratch[:4], v)
	e.buffer.Write(e.scratch[:4])
}

func (e *indexEncoder) writeUint64(v uint64) {
	binary.LittleEndian.PutUint64(e.scratch[:8], v)
	e.buffer.Write(e.scratch[:8])
}

// writeString writes a length-prefixed string
//
// Example: "cat"
//
//	Binary: [0x03, 0x00, 0x00, 0x00, 'c', 'a', 't']
func (e *indexEncoder) writeString(s string) {
	e.writeUint32(uint32(len(s)))
	e.buffer.WriteString(s)
}

func (e *indexEncoder) writeBytes(data []byte) {
	e.writeUint32(uint32(len(data)))
	e.buffer.Write(data)
}

// ═══════════════════════════════════════════════════════════════════════════════
// DECODING
// ═══════════════════════════════════════════════════════════════════════════════

// ReadIndex deserializes an index written by WriteTo.
func ReadIndex(r io.Reader) (*Index, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode deserializes an index from data. Truncated, corrupted or otherwise
// inconsistent input fails with an error wrapping ErrCorruptIndex. The
// returned index does not reference data.
func Decode(data []byte) (*Index, error) {
	if len(data) < len(indexMagic)+checksumSize {
		return nil, corruptf("short input: %d bytes", len(data))
	}
	body, trailer := data[:len(data)-checksumSize], data[len(data)-checksumSize:]
	if want, got := binary.LittleEndian.Uint64(trailer), farm.Hash64(body); want != got {
		return nil, corruptf("checksum mismatch: stored %016x, computed %016x", want, got)
	}

	d := newIndexDecoder(body, 0)
	magic, err := d.readN(len(indexMagic))
	if err != nil {
		return nil, err
	}
	if string(magic) != indexMagic {
		return nil, corruptf("bad magic %q", magic)
	}
	version, err := d.readUint16()
	if err != nil {
		return nil, err
	}
	if version != indexVersion {
		return nil, corruptf("unsupported version %d", version)
	}
	flags, err := d.readUint16()
	if err != nil {
		return nil, err
	}
	if flags&^flagPositions != 0 {
		return nil, corruptf("unknown flags %#04x", flags)
	}

	idx := NewIndex()
	idx.positional = flags&flagPositions != 0
	rawID, err := d.readN(len(uuid.UUID{}))
	if err != nil {
		return nil, err
	}
	copy(idx.buildID[:], rawID)

	if err := d.decodeDocuments(idx); err != nil {
		return nil, err
	}
	if err := d.decodeDictionary(idx); err != nil {
		return nil, err
	}
	for i := range idx.dict.spans {
		p, err := d.decodePosting(DocID(len(idx.titles)), idx.positional)
		if err != nil {
			return nil, fmt.Errorf("term %q: %w", idx.dict.term(termID(i)), err)
		}
		idx.postings = append(idx.postings, p)
	}
	if !d.isComplete() {
		return nil, corruptf("%d trailing bytes", len(d.data)-d.offset)
	}
	return idx, nil
}

type indexDecoder struct {
	data   []byte
	offset int
}

func newIndexDecoder(data []byte, offset int) *indexDecoder {
	return &indexDecoder{data: data, offset: offset}
}

func (d *indexDecoder) isComplete() bool {
	return d.offset >= len(d.data)
}

func (d *indexDecoder) decodeDocuments(idx *Index) error {
	count, err := d.readUint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		title, err := d.readString()
		if err != nil {
			return err
		}
		if _, err := idx.InsertDocument(title); err != nil {
			return corruptf("document %d: %v", i, err)
		}
	}
	return nil
}

func (d *indexDecoder) decodeDictionary(idx *Index) error {
	arena, err := d.readBytes()
	if err != nil {
		return err
	}
	count, err := d.readUint32()
	if err != nil {
		return err
	}
	if uint64(count)*8 > uint64(len(d.data)-d.offset) {
		return corruptf("term count %d exceeds input", count)
	}

	dict := idx.dict
	dict.arena = make([]byte, len(arena), nextPowerOfTwo(len(arena)))
	copy(dict.arena, arena)
	dict.spans = make([]span, count)
	for i := range dict.spans {
		off, err := d.readUint32()
		if err != nil {
			return err
		}
		n, err := d.readUint32()
		if err != nil {
			return err
		}
		if uint64(off)+uint64(n) > uint64(len(arena)) {
			return corruptf("term %d span [%d,+%d) outside arena of %d bytes", i, off, n, len(arena))
		}
		dict.spans[i] = span{off: off, len: n}
	}
	if err := dict.rebuild(); err != nil {
		return corruptf("%v", err)
	}
	return nil
}

func (d *indexDecoder) decodePosting(numDocs DocID, positional bool) (postingList, error) {
	n, err := d.readUint32()
	if err != nil {
		return postingList{}, err
	}
	if uint64(n)*4 > uint64(len(d.data)-d.offset) {
		return postingList{}, corruptf("posting length %d exceeds input", n)
	}
	counts := make([]uint32, n)
	for i := range counts {
		if counts[i], err = d.readUint32(); err != nil {
			return postingList{}, err
		}
	}

	raw, err := d.readBytes()
	if err != nil {
		return postingList{}, err
	}
	docs := roaring.New()
	if err := docs.UnmarshalBinary(raw); err != nil {
		return postingList{}, corruptf("posting bitmap: %v", err)
	}
	if docs.GetCardinality() != uint64(n) {
		return postingList{}, corruptf("posting has %d documents but %d counts", docs.GetCardinality(), n)
	}

	p := postingList{docs: docs, counts: counts}
	if n > 0 {
		p.last = DocID(docs.Maximum())
		if p.last >= numDocs {
			return postingList{}, corruptf("posting references doc %d of %d", p.last, numDocs)
		}
	}
	if positional {
		if p.positions, err = d.decodePositions(docs, counts); err != nil {
			return postingList{}, err
		}
	}
	return p, nil
}

// decodePositions reads counts[i] strictly ascending positions for the i-th
// document of docs.
func (d *indexDecoder) decodePositions(docs *roaring.Bitmap, counts []uint32) (*skipList, error) {
	var total uint64
	for _, c := range counts {
		if c == 0 {
			return nil, corruptf("positional posting with zero count")
		}
		total += uint64(c)
	}
	if total*4 > uint64(len(d.data)-d.offset) {
		return nil, corruptf("%d positions exceed input", total)
	}

	var prev occurrence
	sl := newSkipList()
	it := docs.Iterator()
	for i := 0; it.HasNext(); i++ {
		doc := DocID(it.Next())
		for j := uint32(0); j < counts[i]; j++ {
			pos, err := d.readUint32()
			if err != nil {
				return nil, err
			}
			cur := occurrence{doc: doc, pos: pos}
			if j > 0 && !prev.less(cur) {
				return nil, corruptf("doc %d: position %d after %d", doc, pos, prev.pos)
			}
			sl.insert(cur)
			prev = cur
		}
	}
	return sl, nil
}

func (d *indexDecoder) readN(n int) ([]byte, error) {
	if n < 0 || n > len(d.data)-d.offset {
		return nil, corruptf("need %d bytes at offset %d, have %d", n, d.offset, len(d.data)-d.offset)
	}
	b := d.data[d.offset : d.offset+n]
	d.offset += n
	return b, nil
}

func (d *indexDecoder) readUint16() (uint16, error) {
	b, err := d.readN(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *indexDecoder) readUint32() (uint32, error) {
	b, err := d.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// readString reads a length-prefixed string
//
// Data: [0x03, 0x00, 0x00, 0x00, 'c', 'a', 't', ...] → "cat", offset += 7
func (d *indexDecoder) readString() (string, error) {
	b, err := d.readBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *indexDecoder) readBytes() ([]byte, error) {
	n, err := d.readUint32()
	if err != nil {
		return nil, err
	}
	return d.readN(int(n))
}

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptIndex, fmt.Sprintf(format, args...))
}

// ═══════════════════════════════════════════════════════════════════════════════
// FILES
// ═══════════════════════════════════════════════════════════════════════════════

// WriteIndexFile writes idx to path. The data goes to a temporary file in the
// same directory first and is renamed into place, so readers never observe a
// partially written index.
func WriteIndexFile(path string, idx *Index) (err error) {
	data, err := idx.Encode()
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: unwrapPathError(err)}
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &IOError{Op: "write", Path: tmp.Name(), Err: unwrapPathError(err)}
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return &IOError{Op: "sync", Path: tmp.Name(), Err: unwrapPathError(err)}
	}
	if err = tmp.Close(); err != nil {
		return &IOError{Op: "close", Path: tmp.Name(), Err: unwrapPathError(err)}
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return &IOError{Op: "rename", Path: path, Err: unwrapLinkError(err)}
	}
	return nil
}

// ReadIndexFile loads an index written by WriteIndexFile.
func ReadIndexFile(path string) (*Index, error) {
	m, err := OpenMappedFile(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := m.Close(); err != nil {
			slog.Default().Debug("failed to close index file",
				slog.String("component", "index"),
				slog.String("path", path),
				slog.Any("error", err),
			)
		}
	}()

	idx, err := Decode(m.Data())
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", path, err)
	}
	return idx, nil
}

func unwrapLinkError(err error) error {
	if le, ok := err.(*os.LinkError); ok {
		return le.Err
	}
	return err
}
