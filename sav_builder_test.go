package savgo_test

import (
	"bytes"
	"encoding/binary"
	"math"
)

// savBuilder assembles a synthetic SAV/ZSAV byte stream field-by-field,
// in whichever byte order the scenario under test wants to exercise. It
// exists only inside the test package, built just well enough to produce
// the fixtures the suite needs.
type savBuilder struct {
	buf   bytes.Buffer
	order binary.ByteOrder
}

func newSavBuilder(order binary.ByteOrder) *savBuilder {
	return &savBuilder{order: order}
}

func (b *savBuilder) Bytes() []byte { return b.buf.Bytes() }

func (b *savBuilder) raw(p []byte) *savBuilder {
	b.buf.Write(p)
	return b
}

func (b *savBuilder) padded(s string, n int) *savBuilder {
	p := make([]byte, n)
	for i := range p {
		p[i] = ' '
	}
	copy(p, s)
	return b.raw(p)
}

func (b *savBuilder) int32(v int32) *savBuilder {
	var p [4]byte
	b.order.PutUint32(p[:], uint32(v))
	return b.raw(p[:])
}

func (b *savBuilder) uint32(v uint32) *savBuilder {
	var p [4]byte
	b.order.PutUint32(p[:], v)
	return b.raw(p[:])
}

func (b *savBuilder) int64(v int64) *savBuilder {
	var p [8]byte
	b.order.PutUint64(p[:], uint64(v))
	return b.raw(p[:])
}

func (b *savBuilder) float64LE(v float64) *savBuilder {
	var p [8]byte
	binary.LittleEndian.PutUint64(p[:], math.Float64bits(v))
	return b.raw(p[:])
}

// float64 writes a data-section double in the file's declared byte order
// (unlike the header's bias field, which is always little-endian).
func (b *savBuilder) float64(v float64) *savBuilder {
	var p [8]byte
	b.order.PutUint64(p[:], math.Float64bits(v))
	return b.raw(p[:])
}

func (b *savBuilder) sysmis() *savBuilder {
	var p [8]byte
	b.order.PutUint64(p[:], sysmisBitsForTest)
	return b.raw(p[:])
}

const sysmisBitsForTest uint64 = 0xFFEFFFFFFFFFFFFF

// header writes the full 176-byte fixed prelude.
func (b *savBuilder) header(magic string, compressionCode, weightIndex, nCases, nominalCaseSize int32, bias float64) *savBuilder {
	b.padded(magic, 4)
	b.padded("@(#) SPSS DATA FILE savgo test fixture", 60)
	b.int32(2) // layout_code
	b.int32(nominalCaseSize)
	b.int32(compressionCode)
	b.int32(weightIndex)
	b.int32(nCases)
	b.float64LE(bias)
	b.padded("01 Jan 26", 9)
	b.padded("00:00:00", 8)
	b.padded("", 64) // file label, filled in separately when needed
	b.raw(make([]byte, 3))
	return b
}

// headerWithLabel is header, but with an explicit raw (pre-encoded) file
// label instead of blanks.
func (b *savBuilder) headerWithLabel(magic string, compressionCode, weightIndex, nCases, nominalCaseSize int32, bias float64, label []byte) *savBuilder {
	b.padded(magic, 4)
	b.padded("@(#) SPSS DATA FILE savgo test fixture", 60)
	b.int32(2)
	b.int32(nominalCaseSize)
	b.int32(compressionCode)
	b.int32(weightIndex)
	b.int32(nCases)
	b.float64LE(bias)
	b.padded("01 Jan 26", 9)
	b.padded("00:00:00", 8)
	lbl := make([]byte, 64)
	for i := range lbl {
		lbl[i] = ' '
	}
	copy(lbl, label)
	b.raw(lbl)
	b.raw(make([]byte, 3))
	return b
}

// variable writes one tag-2 record. rawType: -1 continuation, 0
// numeric, >0 string width. label == "" means has_label=0.
func (b *savBuilder) variable(rawType int32, shortName string, printFormat, writeFormat uint32, label string, missing ...[8]byte) *savBuilder {
	b.int32(tagVariableForTest)
	b.int32(rawType)
	if label == "" {
		b.int32(0)
	} else {
		b.int32(1)
	}
	nMissing := int32(len(missing))
	b.int32(nMissing)
	b.uint32(printFormat)
	b.uint32(writeFormat)
	b.padded(shortName, 8)
	if label != "" {
		b.int32(int32(len(label)))
		b.raw([]byte(label))
		if pad := (4 - len(label)%4) % 4; pad > 0 {
			b.raw(make([]byte, pad))
		}
	}
	for _, m := range missing {
		b.raw(m[:])
	}
	return b
}

// missingValue packs a float64 into the 8-byte block a variable record's
// missing-value list expects.
func missingValue(f float64, order binary.ByteOrder) [8]byte {
	var p [8]byte
	order.PutUint64(p[:], math.Float64bits(f))
	return p
}

const tagVariableForTest int32 = 2
const tagValueLabelForTest int32 = 3
const tagVarIndexListForTest int32 = 4
const tagDictTerminatorForTest int32 = 999
const tagInfoForTest int32 = 7

// numericValueLabel is one entry of a tag-3/tag-4 pair built by
// valueLabelGroup.
type numericValueLabel struct {
	Value float64
	Label string
}

// valueLabelGroup writes one tag-3 value/label record immediately followed
// by its mandatory tag-4 variable-index list, exactly as
// dictionary.go's dispatcher requires.
func (b *savBuilder) valueLabelGroup(entries []numericValueLabel, varIndices []int32) *savBuilder {
	b.int32(tagValueLabelForTest)
	b.uint32(uint32(len(entries)))
	for _, e := range entries {
		b.float64(e.Value)
		b.raw([]byte{byte(len(e.Label))})
		b.raw([]byte(e.Label))
		if pad := (8 - (1+len(e.Label))%8) % 8; pad > 0 {
			b.raw(make([]byte, pad))
		}
	}
	b.int32(tagVarIndexListForTest)
	b.int32(int32(len(varIndices)))
	for _, idx := range varIndices {
		b.int32(idx)
	}
	return b
}

// infoRecord writes one tag-7 record with an explicit (size, count)
// so scenario-specific validation (subtypes 3/4/11) can be exercised.
func (b *savBuilder) infoRecord(subtype, size, count int32, payload []byte) *savBuilder {
	b.int32(tagInfoForTest)
	b.int32(subtype)
	b.int32(size)
	b.int32(count)
	b.raw(payload)
	return b
}

// textInfoRecord is infoRecord with size=1, count=len(payload) — the shape
// every free-form text subtype (7, 13, 14, 20, 21, 22) uses.
func (b *savBuilder) textInfoRecord(subtype int32, payload []byte) *savBuilder {
	return b.infoRecord(subtype, 1, int32(len(payload)), payload)
}

func (b *savBuilder) terminator() *savBuilder {
	b.int32(tagDictTerminatorForTest)
	b.raw(make([]byte, 4))
	return b
}

// packedFormat builds the (type<<16)|(width<<8)|decimals packed format
// field used for print_format/write_format.
func packedFormat(typeCode int32, width, decimals uint32) uint32 {
	return uint32(typeCode)<<16 | (width&0xFF)<<8 | (decimals & 0xFF)
}

const (
	formatTypeFForTest int32 = 5
)

// packInt32s packs a run of int32s in the builder's byte order, for the
// integer-valued info records (subtypes 3 and 11).
func (b *savBuilder) packInt32s(values ...int32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		b.order.PutUint32(out[i*4:i*4+4], uint32(v))
	}
	return out
}

// vlsSegment builds one 256-byte very-long-string segment: payload
// space-padded to 252 bytes, followed by 4 bytes of padding the reader
// discards unconditionally.
func vlsSegment(payload string) []byte {
	seg := make([]byte, 256)
	for i := 0; i < 252; i++ {
		seg[i] = ' '
	}
	copy(seg, payload)
	return seg
}
