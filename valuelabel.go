package savgo

// parseValueLabelRecord parses one tag-3 value/label record. The
// mandatory following tag-4 variable-index list is parsed separately by
// the dictionary dispatcher and attached via parseVarIndexRecord.
func parseValueLabelRecord(br *ByteReader) (*rawLabelGroup, error) {
	n, err := br.ReadUint32()
	if err != nil {
		return nil, err
	}
	group := &rawLabelGroup{Entries: make([]rawLabelEntry, 0, n)}
	for i := uint32(0); i < n; i++ {
		var value [8]byte
		if err := br.ReadFixed(value[:]); err != nil {
			return nil, err
		}
		lenByte, err := br.ReadBytes(1)
		if err != nil {
			return nil, err
		}
		textLen := int(lenByte[0])
		text, err := br.ReadBytes(textLen)
		if err != nil {
			return nil, err
		}
		// The (length byte + text) portion pads to a multiple of 8 bytes.
		consumed := 1 + textLen
		if pad := padTo8(consumed); pad > 0 {
			if err := br.Skip(pad); err != nil {
				return nil, err
			}
		}
		group.Entries = append(group.Entries, rawLabelEntry{RawValue: value, RawLabel: text})
	}
	return group, nil
}

// parseVarIndexRecord parses one tag-4 variable-index list and attaches it
// to the preceding label group.
func parseVarIndexRecord(br *ByteReader, group *rawLabelGroup) error {
	n, err := br.ReadInt32()
	if err != nil {
		return err
	}
	indices := make([]int32, n)
	for i := int32(0); i < n; i++ {
		idx, err := br.ReadInt32()
		if err != nil {
			return err
		}
		indices[i] = idx
	}
	group.VarIndices = indices
	return nil
}
