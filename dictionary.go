package savgo

import "fmt"

// rawVariable is one tag-2 variable record, exactly as parsed, before
// post-dictionary resolution applies long names, VLS widths,
// display info, formats, and encoding.
type rawVariable struct {
	RawType       int32 // -1 continuation, 0 numeric, >0 string width (<=255)
	HasLabel      bool
	RawLabel      []byte
	MissingBlocks [][8]byte
	PrintFormat   uint32
	WriteFormat   uint32
	ShortNameRaw  [8]byte
	missingShape  int32 // raw n_missing_values, sign encodes range/discrete shape
}

func (v *rawVariable) isContinuation() bool { return v.RawType == -1 }

// rawLabelEntry is one value/label pair inside a tag-3 record.
type rawLabelEntry struct {
	RawValue [8]byte
	RawLabel []byte
}

// rawLabelGroup is a tag-3 record paired with its mandatory following tag-4
// variable-index list.
type rawLabelGroup struct {
	Entries    []rawLabelEntry
	VarIndices []int32 // 1-based, indexing rawDictionary.Variables (continuations included)
}

type integerInfoRaw struct {
	MajorVersion     int32
	MinorVersion     int32
	Revision         int32
	MachineCode      int32
	FloatingPointRep int32
	CompressionCode  int32
	Endianness       int32
	CharCode         int32
}

type floatInfoRaw struct {
	Sysmis  float64
	Highest float64
	Lowest  float64
}

type displayTriple struct {
	Measure   int32
	Width     int32
	Alignment int32
}

// rawDictionary accumulates every dictionary-section record as parsed,
// before resolution.
type rawDictionary struct {
	Variables   []*rawVariable
	LabelGroups []*rawLabelGroup
	Documents   [][]byte

	IntegerInfo *integerInfoRaw
	FloatInfo   *floatInfoRaw

	MRSetsText             []byte
	DisplayTriples         []displayTriple
	LongNamesText          []byte
	VeryLongStringsText    []byte
	EncodingName           []byte
	LongStringValueLabels  []byte
	LongStringMissingValue []byte

	Warnings []string
}

func (d *rawDictionary) warnf(format string, args ...interface{}) {
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}

// readDictionary dispatches dictionary records by tag until the
// terminator (tag 999) is reached.
func readDictionary(br *ByteReader) (*rawDictionary, error) {
	dict := &rawDictionary{}
	for {
		tag, err := br.ReadInt32()
		if err != nil {
			return nil, err
		}
		switch tag {
		case tagVariable:
			v, err := parseVariableRecord(br)
			if err != nil {
				return nil, err
			}
			dict.Variables = append(dict.Variables, v)

		case tagValueLabel:
			group, err := parseValueLabelRecord(br)
			if err != nil {
				return nil, err
			}
			nextTag, err := br.ReadInt32()
			if err != nil {
				return nil, err
			}
			if nextTag != tagVarIndexList {
				return nil, protocolErrorf("value-label record (tag 3) not immediately followed by tag 4, got tag %d", nextTag)
			}
			if err := parseVarIndexRecord(br, group); err != nil {
				return nil, err
			}
			dict.LabelGroups = append(dict.LabelGroups, group)

		case tagVarIndexList:
			return nil, protocolErrorf("tag 4 (variable index list) with no preceding tag 3")

		case tagDocument:
			lines, err := parseDocumentRecord(br)
			if err != nil {
				return nil, err
			}
			dict.Documents = append(dict.Documents, lines...)

		case tagInfo:
			if err := parseInfoRecord(br, dict); err != nil {
				return nil, err
			}

		case tagDictTerminator:
			if err := br.Skip(4); err != nil {
				return nil, err
			}
			return dict, nil

		default:
			return nil, unknownRecordError(tag)
		}
	}
}

func parseDocumentRecord(br *ByteReader) ([][]byte, error) {
	n, err := br.ReadInt32()
	if err != nil {
		return nil, err
	}
	lines := make([][]byte, 0, n)
	for i := int32(0); i < n; i++ {
		line, err := br.ReadBytes(80)
		if err != nil {
			return nil, err
		}
		lines = append(lines, trimSpacesRight(line))
	}
	return lines, nil
}
