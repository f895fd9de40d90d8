package savgo

import (
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
)

// Scanner streams a SAV/ZSAV file's rows as Arrow record batches, without
// materializing the whole file in memory. Its shape mirrors a buffered
// reader with cached metadata and last-error state: construct, optionally
// narrow with SelectColumns/SetRowLimit, then call NextBatch in a loop.
type Scanner struct {
	pf        *parsedFile
	batchSize int
	selected  []int // indices into pf.resolved's visible columns; nil means all
	rowLimit  int64 // <0 means unlimited
	rowsRead  int64
	done      bool
	lastErr   error
	closer    io.Closer
}

// NewScanner prepares a Scanner over r, parsing the header and dictionary
// immediately. batchSize is the number of rows per NextBatch call; values
// <= 0 default to 1024.
func NewScanner(r io.Reader, batchSize int) (*Scanner, error) {
	pf, err := parseStream(r)
	if err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		batchSize = 1024
	}
	return &Scanner{pf: pf, batchSize: batchSize, rowLimit: -1}, nil
}

// NewScannerFile opens path and prepares a Scanner over it. The caller
// must Close the Scanner to release the underlying file.
func NewScannerFile(path string, batchSize int) (*Scanner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioError(err)
	}
	s, err := NewScanner(f, batchSize)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

// Close releases the underlying file when the Scanner was opened from a
// path; it is a no-op for Scanners built over a caller-owned reader.
func (s *Scanner) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// Metadata returns the file's resolved metadata.
func (s *Scanner) Metadata() *Metadata { return s.pf.meta }

// SelectColumns restricts NextBatch's output to the named columns, in the
// order given. Unselected columns are still consumed from the underlying
// stream (slot planning doesn't change) but discarded rather than built
// into an Arrow array.
func (s *Scanner) SelectColumns(names ...string) error {
	visible := s.visibleNames()
	idxByName := make(map[string]int, len(visible))
	for i, n := range visible {
		idxByName[n] = i
	}
	sel := make([]int, 0, len(names))
	for _, name := range names {
		idx, ok := idxByName[name]
		if !ok {
			return unknownVariableError(name)
		}
		sel = append(sel, idx)
	}
	s.selected = sel
	return nil
}

// SetRowLimit caps the total number of rows NextBatch will ever return
// across the life of the Scanner. A negative value means unlimited.
func (s *Scanner) SetRowLimit(n int64) { s.rowLimit = n }

func (s *Scanner) visibleNames() []string {
	names := make([]string, 0, len(s.pf.resolved))
	for _, rv := range s.pf.resolved {
		if rv.IsContinuation || rv.IsGhost {
			continue
		}
		names = append(names, rv.LongName)
	}
	return names
}

// NextBatch reads up to the configured batch size of rows and returns
// them as an Arrow record. It returns (nil, nil) at clean end of data.
func (s *Scanner) NextBatch() (arrow.Record, error) {
	if s.done {
		return nil, nil
	}
	fullSchema := buildSchema(s.pf.resolved)
	schema := fullSchema
	if s.selected != nil {
		schema = projectSchema(fullSchema, s.selected)
	}

	declared := int64(s.pf.header.NCases)
	var rows [][]cellValue
	for len(rows) < s.batchSize {
		if s.rowLimit >= 0 && s.rowsRead >= s.rowLimit {
			s.done = true
			break
		}
		// Never read past the declared case count: trailing bytecode
		// opcodes beyond it belong to no row, matching the eager path.
		if declared >= 0 && s.rowsRead >= declared {
			s.done = true
			break
		}
		row, ok, err := s.pf.rr.ReadRow()
		if err != nil {
			s.lastErr = err
			return nil, err
		}
		if !ok {
			s.done = true
			if declared >= 0 && s.rowsRead < declared {
				err := protocolErrorf("declared case count %d but read %d rows", declared, s.rowsRead)
				s.lastErr = err
				return nil, err
			}
			break
		}
		if s.selected != nil {
			row = projectRow(row, s.selected)
		}
		rows = append(rows, row)
		s.rowsRead++
	}

	if len(rows) == 0 {
		return nil, nil
	}
	return buildRecord(schema, rows, false)
}

// Error returns the error (if any) from the most recent NextBatch call.
func (s *Scanner) Error() error { return s.lastErr }

func projectSchema(schema *arrow.Schema, selected []int) *arrow.Schema {
	fields := make([]arrow.Field, len(selected))
	for i, idx := range selected {
		fields[i] = schema.Field(idx)
	}
	return arrow.NewSchema(fields, nil)
}

func projectRow(row []cellValue, selected []int) []cellValue {
	out := make([]cellValue, len(selected))
	for i, idx := range selected {
		out[i] = row[idx]
	}
	return out
}
