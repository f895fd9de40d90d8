package savgo

import "encoding/binary"

// HeaderSize is the fixed size, in bytes, of the SAV/ZSAV file header.
const HeaderSize = 176

const (
	magicSav  = "$FL2"
	magicZsav = "$FL3"
)

// Header is the parsed 176-byte file header.
type Header struct {
	ProductName     string
	LayoutCode      int32
	NominalCaseSize int32
	CompressionCode int32
	WeightIndex     int32
	NCases          int32
	Bias            float64
	CreationDate    string
	CreationTime    string
	FileLabelRaw    []byte // decoded lazily once the dictionary's encoding is resolved
	BigEndian       bool
	FileFormat      FileFormat
	Compression     CompressionKind
}

// parseHeader reads and validates the 176-byte file header, determining
// the file's byte order as a side effect and leaving it set on br.
func parseHeader(br *ByteReader) (*Header, error) {
	magic, err := br.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	magicStr := string(magic)
	if magicStr != magicSav && magicStr != magicZsav {
		return nil, ErrBadMagic
	}

	productRaw, err := br.ReadBytes(60)
	if err != nil {
		return nil, err
	}

	layoutRaw, err := br.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	littleVal := int32(binary.LittleEndian.Uint32(layoutRaw))
	bigVal := int32(binary.BigEndian.Uint32(layoutRaw))
	var bigEndian bool
	var layoutCode int32
	switch {
	case littleVal == 2 || littleVal == 3:
		bigEndian = false
		layoutCode = littleVal
	case bigVal == 2 || bigVal == 3:
		bigEndian = true
		layoutCode = bigVal
	default:
		return nil, ErrBadMagic
	}
	br.SetBigEndian(bigEndian)

	nominalCaseSize, err := br.ReadInt32()
	if err != nil {
		return nil, err
	}
	compressionCode, err := br.ReadInt32()
	if err != nil {
		return nil, err
	}
	weightIndex, err := br.ReadInt32()
	if err != nil {
		return nil, err
	}
	nCases, err := br.ReadInt32()
	if err != nil {
		return nil, err
	}
	bias, err := br.ReadLittleEndianFloat64()
	if err != nil {
		return nil, err
	}
	creationDateRaw, err := br.ReadBytes(9)
	if err != nil {
		return nil, err
	}
	creationTimeRaw, err := br.ReadBytes(8)
	if err != nil {
		return nil, err
	}
	fileLabelRaw, err := br.ReadBytes(64)
	if err != nil {
		return nil, err
	}
	if err := br.Skip(3); err != nil {
		return nil, err
	}

	var compression CompressionKind
	var format FileFormat
	switch compressionCode {
	case 0:
		compression = CompressionNone
		format = FormatSav
	case 1:
		compression = CompressionBytecode
		format = FormatSav
	case 2:
		compression = CompressionZlib
		format = FormatZsav
		if magicStr != magicZsav {
			return nil, protocolErrorf("zsav compression requires magic %q, got %q", magicZsav, magicStr)
		}
	default:
		return nil, unsupportedCompressionError(compressionCode)
	}

	return &Header{
		ProductName:     string(trimSpacesRight(productRaw)),
		LayoutCode:      layoutCode,
		NominalCaseSize: nominalCaseSize,
		CompressionCode: compressionCode,
		WeightIndex:     weightIndex,
		NCases:          nCases,
		Bias:            bias,
		CreationDate:    string(trimSpacesRight(creationDateRaw)),
		CreationTime:    string(trimSpacesRight(creationTimeRaw)),
		FileLabelRaw:    trimSpacesRight(fileLabelRaw),
		BigEndian:       bigEndian,
		FileFormat:      format,
		Compression:     compression,
	}, nil
}
