package savgo

import (
	"encoding/binary"
	"math"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// attachValueLabels applies ordinary (tag 3/4) value-label groups: each
// group is attached to every variable its tag-4 index list names.
func attachValueLabels(dict *rawDictionary, resolved []*resolvedVariable, dec *textDecoder, order binary.ByteOrder) error {
	for _, group := range dict.LabelGroups {
		for _, idx := range group.VarIndices {
			if idx < 1 || int(idx) > len(resolved) {
				return protocolErrorf("value-label group references out-of-range variable index %d", idx)
			}
			rv := resolved[idx-1]
			if rv.IsContinuation {
				return protocolErrorf("value-label group references a continuation record at index %d", idx)
			}
			if rv.ValueLabels == nil {
				rv.ValueLabels = orderedmap.New[Value, string]()
			}
			if rv.IsGhost {
				continue
			}
			for _, entry := range group.Entries {
				v := valueFromRawLabelEntry(rv, entry, dec, order)
				rv.ValueLabels.Set(v, dec.decode(entry.RawLabel))
			}
		}
	}
	return nil
}

func valueFromRawLabelEntry(rv *resolvedVariable, entry rawLabelEntry, dec *textDecoder, order binary.ByteOrder) Value {
	if rv.VarType.Kind == KindNumeric {
		bits := order.Uint64(entry.RawValue[:])
		return NumericValue(math.Float64frombits(bits))
	}
	return StringValue(dec.decode(trimSpacesRight(entry.RawValue[:])))
}

// attachLongStringValueLabels applies subtype-21 long-string value
// labels, keyed by long variable name.
//
// Wire layout (per variable entry): uint32 var-name length, name bytes,
// uint32 entry count, then per entry: uint32 value length, value bytes,
// uint32 label length, label bytes.
func attachLongStringValueLabels(dict *rawDictionary, resolved []*resolvedVariable, dec *textDecoder, order binary.ByteOrder) error {
	buf := dict.LongStringValueLabels
	if len(buf) == 0 {
		return nil
	}
	byName := make(map[string]*resolvedVariable, len(resolved))
	for _, rv := range resolved {
		if !rv.IsContinuation && !rv.IsGhost {
			byName[rv.LongName] = rv
		}
	}

	pos := 0
	readU32 := func() (uint32, error) {
		if pos+4 > len(buf) {
			return 0, protocolErrorf("subtype 21: truncated payload")
		}
		v := order.Uint32(buf[pos : pos+4])
		pos += 4
		return v, nil
	}
	readBytes := func(n uint32) ([]byte, error) {
		if pos+int(n) > len(buf) {
			return nil, protocolErrorf("subtype 21: truncated payload")
		}
		b := buf[pos : pos+int(n)]
		pos += int(n)
		return b, nil
	}

	for pos < len(buf) {
		nameLen, err := readU32()
		if err != nil {
			return err
		}
		nameRaw, err := readBytes(nameLen)
		if err != nil {
			return err
		}
		name := dec.decode(nameRaw)
		count, err := readU32()
		if err != nil {
			return err
		}
		rv := byName[name]
		for i := uint32(0); i < count; i++ {
			valLen, err := readU32()
			if err != nil {
				return err
			}
			valRaw, err := readBytes(valLen)
			if err != nil {
				return err
			}
			labelLen, err := readU32()
			if err != nil {
				return err
			}
			labelRaw, err := readBytes(labelLen)
			if err != nil {
				return err
			}
			if rv == nil {
				continue
			}
			if rv.ValueLabels == nil {
				rv.ValueLabels = orderedmap.New[Value, string]()
			}
			rv.ValueLabels.Set(StringValue(dec.decode(valRaw)), dec.decode(labelRaw))
		}
	}
	return nil
}

// attachLongStringMissingValues applies subtype-22 long-string missing
// values, keyed by long variable name. Parsed entries are appended to the
// named variable's Missing list (the same destination decodeMissingBlocks
// populates for ordinary variables from their tag-2 missing-value blocks).
//
// Wire layout (per variable entry): uint32 var-name length, name bytes,
// uint32 missing-value count, then per value: uint32 length, value bytes —
// matching subtype 21's layout above.
func attachLongStringMissingValues(dict *rawDictionary, resolved []*resolvedVariable, dec *textDecoder, order binary.ByteOrder) error {
	buf := dict.LongStringMissingValue
	if len(buf) == 0 {
		return nil
	}
	byName := make(map[string]*resolvedVariable, len(resolved))
	for _, rv := range resolved {
		if !rv.IsContinuation && !rv.IsGhost {
			byName[rv.LongName] = rv
		}
	}

	pos := 0
	readU32 := func() (uint32, error) {
		if pos+4 > len(buf) {
			return 0, protocolErrorf("subtype 22: truncated payload")
		}
		v := order.Uint32(buf[pos : pos+4])
		pos += 4
		return v, nil
	}
	readBytes := func(n uint32) ([]byte, error) {
		if pos+int(n) > len(buf) {
			return nil, protocolErrorf("subtype 22: truncated payload")
		}
		b := buf[pos : pos+int(n)]
		pos += int(n)
		return b, nil
	}

	for pos < len(buf) {
		nameLen, err := readU32()
		if err != nil {
			return err
		}
		nameRaw, err := readBytes(nameLen)
		if err != nil {
			return err
		}
		name := dec.decode(nameRaw)
		count, err := readU32()
		if err != nil {
			return err
		}
		rv := byName[name]
		for i := uint32(0); i < count; i++ {
			valLen, err := readU32()
			if err != nil {
				return err
			}
			valRaw, err := readBytes(valLen)
			if err != nil {
				return err
			}
			if rv == nil {
				continue
			}
			rv.Missing = append(rv.Missing, NewMissingStringValue(dec.decode(valRaw)))
		}
	}
	return nil
}
