package savgo

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// OutputType is the Arrow-facing type of a column.
type OutputType string

const (
	OutputFloat64 OutputType = "f64"
	OutputString  OutputType = "string"
)

// MRSet describes one multiple-response set (subtype 7).
type MRSet struct {
	Name         string
	Label        string
	Kind         MRSetKind
	CountedValue string // only meaningful when Kind == MRSetDichotomy
	Variables    []string
}

// VariableMetadata is the finalized, user-facing description of one
// visible column.
type VariableMetadata struct {
	Label        string
	Format       string
	OutputType   OutputType
	ValueLabels  *orderedmap.OrderedMap[Value, string]
	Measure      Measure
	Alignment    Alignment
	DisplayWidth int32
	StorageWidth int
	Missing      []MissingSpec
}

// Metadata is the complete, resolved description of a SAV/ZSAV file,
// independent of any particular row of data.
type Metadata struct {
	FileLabel     string
	Encoding      string
	Compression   CompressionKind
	FileFormat    FileFormat
	CreationDate  string
	CreationTime  string
	Documents     []string
	NumberRows    *int64
	NumberColumns int
	VariableNames []string
	Variables     *orderedmap.OrderedMap[string, *VariableMetadata]
	MRSets        *orderedmap.OrderedMap[string, *MRSet]
	Weight        *string
	Warnings      []string
}

func newMetadata() *Metadata {
	return &Metadata{
		Variables: orderedmap.New[string, *VariableMetadata](),
		MRSets:    orderedmap.New[string, *MRSet](),
	}
}

// Variable looks up a column's metadata by its long name.
func (m *Metadata) Variable(name string) (*VariableMetadata, error) {
	v, ok := m.Variables.Get(name)
	if !ok {
		return nil, unknownVariableError(name)
	}
	return v, nil
}

func (m *Metadata) warnf(format string, args ...interface{}) {
	m.Warnings = append(m.Warnings, fmt.Sprintf(format, args...))
}
