package savgo

import (
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
)

// parsedFile holds everything needed to read data rows after the
// dictionary and resolver have run.
type parsedFile struct {
	header   *Header
	resolved []*resolvedVariable
	meta     *Metadata
	plan     []slotPlanEntry
	rr       *rowReader
}

// parseStream runs the header parser, dictionary dispatcher, and resolver,
// then wires up the appropriate slot source for the file's declared
// compression scheme.
func parseStream(r io.Reader) (*parsedFile, error) {
	br := NewByteReader(r)
	header, err := parseHeader(br)
	if err != nil {
		return nil, err
	}
	dict, err := readDictionary(br)
	if err != nil {
		return nil, err
	}
	meta, resolved, err := resolveDictionary(dict, header, br.Order())
	if err != nil {
		return nil, err
	}
	plan := buildSlotPlan(resolved)

	dec, err := selectEncoding(dict)
	if err != nil {
		return nil, err
	}

	var src slotSource
	switch header.Compression {
	case CompressionNone:
		src = &rawSlotSource{r: br.Reader()}
	case CompressionBytecode:
		src = newBytecodeReader(br.Reader(), header.Bias, br.Order())
	case CompressionZlib:
		ra, ok := r.(io.ReaderAt)
		if !ok {
			return nil, ErrSeekableSourceRequired
		}
		zr, err := newZlibBlockReader(ra, br.Pos(), br.Order())
		if err != nil {
			return nil, err
		}
		src = newBytecodeReader(zr, header.Bias, br.Order())
	default:
		return nil, unsupportedCompressionError(header.CompressionCode)
	}

	rr := &rowReader{plan: plan, src: src, order: br.Order(), dec: dec}

	return &parsedFile{header: header, resolved: resolved, meta: meta, plan: plan, rr: rr}, nil
}

// ReadFile opens path and reads the whole file into an Arrow table plus
// metadata.
func ReadFile(path string) (arrow.Table, *Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, ioError(err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses r into an Arrow table plus metadata. If the file is ZSAV, r
// must also implement io.ReaderAt.
func Read(r io.Reader) (arrow.Table, *Metadata, error) {
	pf, err := parseStream(r)
	if err != nil {
		return nil, nil, err
	}

	var rows [][]cellValue
	declared := pf.header.NCases
	for declared < 0 || int32(len(rows)) < declared {
		row, ok, err := pf.rr.ReadRow()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	if declared >= 0 && int32(len(rows)) != declared {
		return nil, nil, protocolErrorf("declared case count %d but read %d rows", declared, len(rows))
	}

	n := int64(len(rows))
	pf.meta.NumberRows = &n

	schema := buildSchema(pf.resolved)
	table, err := NewTableWithConcurrency(schema, rows, true)
	if err != nil {
		return nil, nil, err
	}
	return table, pf.meta, nil
}

// ReadMetadata parses only the header and dictionary of r, skipping the
// data section entirely.
func ReadMetadata(r io.Reader) (*Metadata, error) {
	br := NewByteReader(r)
	header, err := parseHeader(br)
	if err != nil {
		return nil, err
	}
	dict, err := readDictionary(br)
	if err != nil {
		return nil, err
	}
	meta, _, err := resolveDictionary(dict, header, br.Order())
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// ReadMetadataFile is ReadMetadata for a filesystem path.
func ReadMetadataFile(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioError(err)
	}
	defer f.Close()
	return ReadMetadata(f)
}
