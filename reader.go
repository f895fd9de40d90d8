package savgo

import (
	"encoding/binary"
	"io"
	"math"
)

// ByteReader is an endian-aware cursor over a forward-only byte stream.
// The endianness is a runtime flag, decided by the header's layout code,
// rather than a compile-time constant, so every multi-byte read goes
// through here instead of raw encoding/binary calls.
type ByteReader struct {
	r         io.Reader
	bigEndian bool
	pos       int64
}

// NewByteReader wraps r. The endianness defaults to little-endian until
// SetBigEndian is called (normally right after the header's layout code is
// known).
func NewByteReader(r io.Reader) *ByteReader {
	return &ByteReader{r: r}
}

// SetBigEndian switches the decoding order used by subsequent reads.
func (b *ByteReader) SetBigEndian(v bool) { b.bigEndian = v }

// BigEndian reports the current decoding order.
func (b *ByteReader) BigEndian() bool { return b.bigEndian }

// Order returns the binary.ByteOrder matching the current endianness flag.
func (b *ByteReader) Order() binary.ByteOrder {
	if b.bigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Pos returns the number of bytes consumed so far.
func (b *ByteReader) Pos() int64 { return b.pos }

// Reader exposes the underlying stream, positioned wherever the last read
// left it — used to hand the remainder of the stream to the row reader.
func (b *ByteReader) Reader() io.Reader { return b.r }

func (b *ByteReader) fill(buf []byte) error {
	n, err := io.ReadFull(b.r, buf)
	b.pos += int64(n)
	if err != nil {
		if err == io.ErrUnexpectedEOF || (err == io.EOF && n > 0) {
			return ErrUnexpectedEof
		}
		if err == io.EOF {
			return err
		}
		return ioError(err)
	}
	return nil
}

// ReadBytes reads exactly n raw bytes.
func (b *ByteReader) ReadBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := b.fill(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadFixed reads exactly len(buf) raw bytes into buf.
func (b *ByteReader) ReadFixed(buf []byte) error {
	return b.fill(buf)
}

// Skip discards n bytes.
func (b *ByteReader) Skip(n int) error {
	if n <= 0 {
		return nil
	}
	_, err := b.ReadBytes(n)
	return err
}

// ReadInt32 reads one 4-byte signed integer using the current endianness.
func (b *ByteReader) ReadInt32() (int32, error) {
	var buf [4]byte
	if err := b.fill(buf[:]); err != nil {
		return 0, err
	}
	return int32(b.Order().Uint32(buf[:])), nil
}

// ReadUint32 reads one 4-byte unsigned integer using the current endianness.
func (b *ByteReader) ReadUint32() (uint32, error) {
	var buf [4]byte
	if err := b.fill(buf[:]); err != nil {
		return 0, err
	}
	return b.Order().Uint32(buf[:]), nil
}

// ReadInt64 reads one 8-byte signed integer using the current endianness.
func (b *ByteReader) ReadInt64() (int64, error) {
	var buf [8]byte
	if err := b.fill(buf[:]); err != nil {
		return 0, err
	}
	return int64(b.Order().Uint64(buf[:])), nil
}

// ReadFloat64 reads one IEEE-754 double using the current endianness.
func (b *ByteReader) ReadFloat64() (float64, error) {
	var buf [8]byte
	if err := b.fill(buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(b.Order().Uint64(buf[:])), nil
}

// ReadLittleEndianFloat64 reads one IEEE-754 double that is always
// little-endian regardless of the file's declared layout, as the header's
// bias field is documented to be.
func (b *ByteReader) ReadLittleEndianFloat64() (float64, error) {
	var buf [8]byte
	if err := b.fill(buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}
