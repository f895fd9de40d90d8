package savgo

import (
	"encoding/binary"
	"math"
)

// slotPlanEntry describes how many 8-byte slots one visible column
// consumes from the data stream, and how to interpret them.
type slotPlanEntry struct {
	Kind      VarKind
	SlotCount int
	// NSegments is nonzero for a very-long string: the payload is spread
	// across NSegments 256-byte segments, each holding 252 payload bytes
	// followed by 4 padding bytes that must be discarded, not trimmed.
	NSegments int
}

// buildSlotPlan derives the row-reader's slot plan from the resolved
// variable table. Continuations and ghosts never get their own entry:
// a non-VLS string's continuations, and a VLS's ghost segments, are both
// already folded into the owning visible variable's StorageWidth.
func buildSlotPlan(resolved []*resolvedVariable) []slotPlanEntry {
	var plan []slotPlanEntry
	for _, rv := range resolved {
		if rv.IsContinuation || rv.IsGhost {
			continue
		}
		entry := slotPlanEntry{
			Kind:      rv.VarType.Kind,
			SlotCount: rv.StorageWidth / 8,
		}
		if rv.VarType.Kind == KindString && rv.VarType.Width > 255 {
			entry.NSegments = rv.NSegments
		}
		plan = append(plan, entry)
	}
	return plan
}

// cellValue is one column's value in one row, prior to Arrow assembly.
type cellValue struct {
	IsNull bool
	Num    float64
	Str    string
}

// rowReader reassembles rows from a slotSource according to a slot plan,
// decoding string bytes with dec and recognizing the SYSMIS sentinel on
// numeric slots.
type rowReader struct {
	plan  []slotPlanEntry
	src   slotSource
	order binary.ByteOrder
	dec   *textDecoder
}

// ReadRow reads one row. ok is false with a nil error at a clean row
// boundary (end of data); a short read inside a row is ErrUnexpectedEof.
func (rr *rowReader) ReadRow() (row []cellValue, ok bool, err error) {
	row = make([]cellValue, len(rr.plan))
	for i, entry := range rr.plan {
		switch entry.Kind {
		case KindNumeric:
			slot, isEnd, err := rr.src.NextSlot()
			if err != nil {
				return nil, false, err
			}
			if isEnd {
				if i == 0 {
					return nil, false, nil
				}
				return nil, false, ErrUnexpectedEof
			}
			bits := rr.order.Uint64(slot[:])
			if isSysmisBits(bits) {
				row[i] = cellValue{IsNull: true}
			} else {
				row[i] = cellValue{Num: math.Float64frombits(bits)}
			}

		case KindString:
			var buf []byte
			if entry.NSegments > 0 {
				buf = make([]byte, 0, entry.NSegments*vlsSegmentPayload)
				slotsPerSegment := vlsSegmentBytes / 8
				slotN := 0
				for seg := 0; seg < entry.NSegments; seg++ {
					segBuf := make([]byte, 0, vlsSegmentBytes)
					for s := 0; s < slotsPerSegment; s++ {
						slot, isEnd, err := rr.src.NextSlot()
						if err != nil {
							return nil, false, err
						}
						if isEnd {
							if i == 0 && slotN == 0 {
								return nil, false, nil
							}
							return nil, false, ErrUnexpectedEof
						}
						segBuf = append(segBuf, slot[:]...)
						slotN++
					}
					buf = append(buf, segBuf[:vlsSegmentPayload]...)
				}
			} else {
				buf = make([]byte, 0, entry.SlotCount*8)
				for s := 0; s < entry.SlotCount; s++ {
					slot, isEnd, err := rr.src.NextSlot()
					if err != nil {
						return nil, false, err
					}
					if isEnd {
						if i == 0 && s == 0 {
							return nil, false, nil
						}
						return nil, false, ErrUnexpectedEof
					}
					buf = append(buf, slot[:]...)
				}
			}
			row[i] = cellValue{Str: rr.dec.decode(trimSpacesRight(buf))}
		}
	}
	return row, true, nil
}
