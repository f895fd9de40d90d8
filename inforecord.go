package savgo

import (
	"encoding/binary"
	"math"
)

// parseInfoRecord parses one tag-7 info record: a subtype, an
// element size, an element count, then size*count bytes of payload. Known
// subtypes are decoded into dict's typed fields; unknown ones are skipped
// with a warning.
func parseInfoRecord(br *ByteReader, dict *rawDictionary) error {
	subtype, err := br.ReadInt32()
	if err != nil {
		return err
	}
	size, err := br.ReadInt32()
	if err != nil {
		return err
	}
	count, err := br.ReadInt32()
	if err != nil {
		return err
	}
	if size < 0 || count < 0 {
		return protocolErrorf("info record subtype %d has negative size/count (%d/%d)", subtype, size, count)
	}
	total := int64(size) * int64(count)
	if total < 0 || total > (1<<32) {
		return protocolErrorf("info record subtype %d declares implausible payload size %d", subtype, total)
	}
	payload, err := br.ReadBytes(int(total))
	if err != nil {
		return err
	}

	order := br.Order()

	switch subtype {
	case subtypeIntegerInfo:
		if size != 4 || count != 8 {
			dict.warnf("info subtype 3: unexpected size/count %d/%d, skipping", size, count)
			break
		}
		ints := decodeInt32Slice(payload, order)
		dict.IntegerInfo = &integerInfoRaw{
			MajorVersion:     ints[0],
			MinorVersion:     ints[1],
			Revision:         ints[2],
			MachineCode:      ints[3],
			FloatingPointRep: ints[4],
			CompressionCode:  ints[5],
			Endianness:       ints[6],
			CharCode:         ints[7],
		}

	case subtypeFloatInfo:
		if size != 8 || count != 3 {
			dict.warnf("info subtype 4: unexpected size/count %d/%d, skipping", size, count)
			break
		}
		dict.FloatInfo = &floatInfoRaw{
			Sysmis:  math.Float64frombits(order.Uint64(payload[0:8])),
			Highest: math.Float64frombits(order.Uint64(payload[8:16])),
			Lowest:  math.Float64frombits(order.Uint64(payload[16:24])),
		}

	case subtypeMRSets:
		dict.MRSetsText = append(dict.MRSetsText, payload...)

	case subtypeDisplayInfo:
		if size != 4 || count%3 != 0 {
			dict.warnf("info subtype 11: unexpected size/count %d/%d, skipping", size, count)
			break
		}
		ints := decodeInt32Slice(payload, order)
		for i := 0; i+3 <= len(ints); i += 3 {
			dict.DisplayTriples = append(dict.DisplayTriples, displayTriple{
				Measure:   ints[i],
				Width:     ints[i+1],
				Alignment: ints[i+2],
			})
		}

	case subtypeLongNames:
		dict.LongNamesText = payload

	case subtypeVeryLongStrings:
		dict.VeryLongStringsText = payload

	case subtypeEncoding:
		dict.EncodingName = payload

	case subtypeLongStringValueLabels:
		dict.LongStringValueLabels = payload

	case subtypeLongStringMissing:
		dict.LongStringMissingValue = payload

	default:
		dict.warnf("info record: unknown subtype %d, skipping %d bytes", subtype, total)
	}

	return nil
}

func decodeInt32Slice(buf []byte, order binary.ByteOrder) []int32 {
	n := len(buf) / 4
	out := make([]int32, n)
	for i := 0; i < n; i++ {
		out[i] = int32(order.Uint32(buf[i*4 : i*4+4]))
	}
	return out
}
