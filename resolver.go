package savgo

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// resolvedVariable is one dictionary-order entry after resolution: either a
// visible column, a ghost (VLS continuation placeholder), or a structural
// continuation record.
type resolvedVariable struct {
	raw *rawVariable

	IsContinuation bool
	IsGhost        bool

	ShortName    string
	RawLongName  []byte
	LongName     string
	VarType      VarType
	NSegments    int
	RawLabel     []byte
	Label        string
	Measure      Measure
	Alignment    Alignment
	DisplayWidth int32
	FormatString string
	StorageWidth int

	ValueLabels *orderedmap.OrderedMap[Value, string]
	Missing     []MissingSpec
}

// resolveDictionary runs the post-dictionary resolution pass and
// produces the final Metadata plus the per-record resolved
// table the row reader needs (including ghosts and continuations, which
// Metadata itself never exposes).
func resolveDictionary(dict *rawDictionary, header *Header, order binary.ByteOrder) (*Metadata, []*resolvedVariable, error) {
	resolved := make([]*resolvedVariable, len(dict.Variables))
	for i, rv := range dict.Variables {
		isCont := rv.isContinuation()
		var vt VarType
		if !isCont {
			if rv.RawType == 0 {
				vt = VarType{Kind: KindNumeric}
			} else {
				vt = VarType{Kind: KindString, Width: int(rv.RawType)}
			}
		}
		resolved[i] = &resolvedVariable{
			raw:            rv,
			IsContinuation: isCont,
			ShortName:      string(trimSpacesRight(rv.ShortNameRaw[:])),
			VarType:        vt,
			RawLabel:       rv.RawLabel,
		}
	}

	// Step 1: long-name resolution (subtype 13).
	shortToLong := parseShortLongPairs(dict.LongNamesText)
	for _, rv := range resolved {
		if rv.IsContinuation {
			continue
		}
		if long, ok := shortToLong[rv.ShortName]; ok {
			rv.RawLongName = long
		} else {
			rv.RawLongName = []byte(rv.ShortName)
		}
	}

	// Step 2: VLS width recovery and ghost marking (subtype 14).
	vlsWidths, err := parseVeryLongStrings(dict.VeryLongStringsText)
	if err != nil {
		return nil, nil, err
	}
	if len(vlsWidths) > 0 {
		known := make(map[string]bool, len(resolved))
		for _, rv := range resolved {
			if !rv.IsContinuation {
				known[string(rv.RawLongName)] = true
			}
		}
		for name := range vlsWidths {
			if !known[name] {
				return nil, nil, protocolErrorf("very-long-string record names unknown variable %q", name)
			}
		}
	}
	for i, rv := range resolved {
		if rv.IsContinuation || rv.IsGhost {
			continue
		}
		width, ok := vlsWidths[string(rv.RawLongName)]
		if !ok || width <= 255 {
			continue
		}
		rv.VarType = VarType{Kind: KindString, Width: width}
		rv.NSegments = ceilDiv(width, vlsSegmentPayload)
		need := rv.NSegments - 1
		j := i + 1
		for need > 0 {
			if j >= len(resolved) {
				return nil, nil, protocolErrorf("variable %q: very-long-string needs %d segments, dictionary ran out of records", rv.LongNameOrShort(), rv.NSegments)
			}
			if resolved[j].IsContinuation {
				j++
				continue
			}
			resolved[j].IsGhost = true
			need--
			j++
		}
	}

	// Step 3: display-info alignment (subtype 11): one triple consumed per
	// non-continuation record, including ghosts, but applied only to
	// visible (non-ghost) ones.
	ti := 0
	for _, rv := range resolved {
		if rv.IsContinuation {
			continue
		}
		if ti >= len(dict.DisplayTriples) {
			continue
		}
		triple := dict.DisplayTriples[ti]
		ti++
		if rv.IsGhost {
			continue
		}
		rv.Measure = measureFromCode(triple.Measure)
		rv.DisplayWidth = triple.Width
		rv.Alignment = alignmentFromCode(triple.Alignment)
	}
	for _, rv := range resolved {
		if rv.IsContinuation || rv.IsGhost {
			continue
		}
		if rv.VarType.Kind == KindString && rv.VarType.Width > 255 && rv.DisplayWidth == 0 {
			rv.DisplayWidth = int32(rv.VarType.Width)
		}
	}

	// Step 4: format-string override.
	for _, rv := range resolved {
		if rv.IsContinuation || rv.IsGhost {
			continue
		}
		if rv.VarType.Kind == KindString && rv.VarType.Width > 255 {
			rv.FormatString = fmt.Sprintf("A%d", rv.VarType.Width)
		} else {
			rv.FormatString = decodeFormatSpec(rv.raw.PrintFormat)
		}
	}

	// Step 5: encoding selection; re-decode all stored raw text.
	dec, err := selectEncoding(dict)
	if err != nil {
		return nil, nil, err
	}
	for _, rv := range resolved {
		if rv.IsContinuation {
			continue
		}
		rv.LongName = dec.decode(trimSpacesRight(rv.RawLongName))
		if rv.raw.HasLabel {
			rv.Label = dec.decode(rv.RawLabel)
		}
	}

	meta := newMetadata()
	if header.NCases >= 0 {
		n := int64(header.NCases)
		meta.NumberRows = &n
	}
	meta.Encoding = dec.name
	meta.Compression = header.Compression
	meta.FileFormat = header.FileFormat
	meta.CreationDate = header.CreationDate
	meta.CreationTime = header.CreationTime
	meta.FileLabel = dec.decode(header.FileLabelRaw)
	for _, d := range dict.Documents {
		meta.Documents = append(meta.Documents, dec.decode(d))
	}
	meta.Warnings = append(meta.Warnings, dict.Warnings...)

	// Missing-value specs, decoded now that VarType and encoding are final.
	for _, rv := range resolved {
		if rv.IsContinuation || rv.IsGhost {
			continue
		}
		specs, err := decodeMissingBlocks(rv, dec, order)
		if err != nil {
			return nil, nil, err
		}
		rv.Missing = specs
	}

	// Step 6: value-label attachment (tag 3/4, and subtype 21 for long
	// strings), plus subtype-22 long-string missing-value attachment.
	if err := attachValueLabels(dict, resolved, dec, order); err != nil {
		return nil, nil, err
	}
	if err := attachLongStringValueLabels(dict, resolved, dec, order); err != nil {
		return nil, nil, err
	}
	if err := attachLongStringMissingValues(dict, resolved, dec, order); err != nil {
		return nil, nil, err
	}

	// Step 7: MR-set resolution (subtype 7).
	longByShort := make(map[string]string, len(resolved))
	for _, rv := range resolved {
		if !rv.IsContinuation {
			longByShort[rv.ShortName] = rv.LongName
		}
	}
	rawSets, err := parseMRSetsText(dict.MRSetsText)
	if err != nil {
		return nil, nil, err
	}
	for _, rs := range rawSets {
		var members []string
		for _, short := range rs.MemberShortNames {
			if long, ok := longByShort[short]; ok {
				members = append(members, long)
			}
		}
		set := &MRSet{
			Name:      rs.Name,
			Label:     dec.decode(rs.LabelRaw),
			Kind:      rs.Kind,
			Variables: members,
		}
		if rs.Kind == MRSetDichotomy {
			set.CountedValue = dec.decode(rs.CountedValueRaw)
		}
		meta.MRSets.Set(set.Name, set)
	}

	// Step 8: weight resolution. The index counts non-continuation records
	// (visible and ghost), matching the subtype-11 counting scheme.
	if header.WeightIndex > 0 {
		counter := int32(0)
		for _, rv := range resolved {
			if rv.IsContinuation {
				continue
			}
			counter++
			if counter == header.WeightIndex {
				if !rv.IsGhost {
					name := rv.LongName
					meta.Weight = &name
				}
				break
			}
		}
	}

	// Step 9: storage-width computation.
	for _, rv := range resolved {
		if rv.IsContinuation || rv.IsGhost {
			continue
		}
		switch rv.VarType.Kind {
		case KindNumeric:
			rv.StorageWidth = 8
		case KindString:
			if rv.VarType.Width > 255 {
				rv.StorageWidth = rv.NSegments * vlsSegmentBytes
			} else {
				rv.StorageWidth = ceilDiv(rv.VarType.Width, 8) * 8
			}
		}
	}

	// Step 10: freeze metadata and Arrow schema inputs.
	for _, rv := range resolved {
		if rv.IsContinuation || rv.IsGhost {
			continue
		}
		vm := &VariableMetadata{
			Label:        rv.Label,
			Format:       rv.FormatString,
			Measure:      rv.Measure,
			Alignment:    rv.Alignment,
			DisplayWidth: rv.DisplayWidth,
			StorageWidth: rv.StorageWidth,
			Missing:      rv.Missing,
		}
		if rv.VarType.Kind == KindNumeric {
			vm.OutputType = OutputFloat64
		} else {
			vm.OutputType = OutputString
		}
		if rv.ValueLabels != nil {
			vm.ValueLabels = rv.ValueLabels
		} else {
			vm.ValueLabels = orderedmap.New[Value, string]()
		}
		meta.VariableNames = append(meta.VariableNames, rv.LongName)
		meta.Variables.Set(rv.LongName, vm)
	}
	meta.NumberColumns = len(meta.VariableNames)
	if int(header.NominalCaseSize) != len(resolved) {
		meta.warnf("declared nominal_case_size %d disagrees with dictionary record count %d", header.NominalCaseSize, len(resolved))
	}

	return meta, resolved, nil
}

func (rv *resolvedVariable) LongNameOrShort() string {
	if rv.LongName != "" {
		return rv.LongName
	}
	return rv.ShortName
}

// parseShortLongPairs parses the subtype-13 payload: tab-separated
// "SHORT=LONG" pairs.
func parseShortLongPairs(raw []byte) map[string][]byte {
	out := make(map[string][]byte)
	if len(raw) == 0 {
		return out
	}
	raw = trimPadding(raw)
	for _, pair := range bytes.Split(raw, []byte{'\t'}) {
		if len(pair) == 0 {
			continue
		}
		eq := bytes.IndexByte(pair, '=')
		if eq < 0 {
			continue
		}
		short := string(bytes.TrimSpace(pair[:eq]))
		long := append([]byte(nil), pair[eq+1:]...)
		out[short] = long
	}
	return out
}

// parseVeryLongStrings parses the subtype-14 payload: NUL-or-tab-separated
// "NAME=WIDTH" pairs, keyed by the already-resolved long name.
func parseVeryLongStrings(raw []byte) (map[string]int, error) {
	out := make(map[string]int)
	if len(raw) == 0 {
		return out, nil
	}
	raw = trimPadding(raw)
	parts := bytes.FieldsFunc(raw, func(r rune) bool { return r == '\t' || r == '\x00' })
	for _, part := range parts {
		if len(part) == 0 {
			continue
		}
		eq := bytes.IndexByte(part, '=')
		if eq < 0 {
			continue
		}
		name := string(bytes.TrimSpace(part[:eq]))
		widthStr := string(bytes.TrimSpace(part[eq+1:]))
		width, err := parseDecimal(widthStr)
		if err != nil {
			return nil, protocolErrorf("very-long-string record: bad width for %q: %q", name, widthStr)
		}
		out[name] = width
	}
	return out, nil
}

func parseDecimal(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("not a digit: %q", c)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

// decodeFormatSpec unpacks a (type<<16)|(width<<8)|decimals format field
// into its printable form, e.g. "F8.2".
func decodeFormatSpec(packed uint32) string {
	typeCode := int32((packed >> 16) & 0xFFFF)
	width := (packed >> 8) & 0xFF
	decimals := packed & 0xFF
	name, ok := formatTypeNames[typeCode]
	if !ok {
		name = "F"
	}
	if decimals > 0 {
		return fmt.Sprintf("%s%d.%d", name, width, decimals)
	}
	return fmt.Sprintf("%s%d", name, width)
}

// decodeMissingBlocks reinterprets a variable's raw 8-byte missing blocks
// according to its resolved type and the shape encoded by the original
// n_missing_values sign.
func decodeMissingBlocks(rv *resolvedVariable, dec *textDecoder, order binary.ByteOrder) ([]MissingSpec, error) {
	blocks := rv.raw.MissingBlocks
	if len(blocks) == 0 {
		return nil, nil
	}
	valueAt := func(i int) Value {
		if rv.VarType.Kind == KindNumeric {
			bits := order.Uint64(blocks[i][:])
			f := math.Float64frombits(bits)
			return NumericValue(f)
		}
		return StringValue(dec.decode(trimSpacesRight(blocks[i][:])))
	}
	floatAt := func(i int) float64 {
		return math.Float64frombits(order.Uint64(blocks[i][:]))
	}

	switch rv.raw.missingShape {
	case 1, 2, 3:
		specs := make([]MissingSpec, 0, len(blocks))
		for i := range blocks {
			v := valueAt(i)
			if s, ok := v.Text(); ok {
				specs = append(specs, NewMissingStringValue(s))
			} else {
				f, _ := v.Float64()
				specs = append(specs, NewMissingValue(f))
			}
		}
		return specs, nil
	case -2:
		return []MissingSpec{NewMissingRange(floatAt(0), floatAt(1))}, nil
	case -3:
		v := valueAt(2)
		spec := NewMissingRange(floatAt(0), floatAt(1))
		discrete := NewMissingValue(0)
		if f, ok := v.Float64(); ok {
			discrete = NewMissingValue(f)
		} else if s, ok := v.Text(); ok {
			discrete = NewMissingStringValue(s)
		}
		return []MissingSpec{spec, discrete}, nil
	default:
		return nil, protocolErrorf("variable %q: unrecognized missing-value shape %d", rv.LongNameOrShort(), rv.raw.missingShape)
	}
}

