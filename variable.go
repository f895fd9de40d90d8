package savgo

// numMissingBlocks returns how many raw 8-byte blocks follow a variable
// record given its packed n_missing_values field: 0-3 are discrete values,
// -2 is a range (lo, hi), -3 is a range plus one discrete value.
func numMissingBlocks(nMissing int32) int {
	switch nMissing {
	case 0, 1, 2, 3:
		return int(nMissing)
	case -2:
		return 2
	case -3:
		return 3
	default:
		return 0
	}
}

// parseVariableRecord parses one tag-2 variable record.
func parseVariableRecord(br *ByteReader) (*rawVariable, error) {
	rawType, err := br.ReadInt32()
	if err != nil {
		return nil, err
	}
	hasLabelFlag, err := br.ReadInt32()
	if err != nil {
		return nil, err
	}
	nMissing, err := br.ReadInt32()
	if err != nil {
		return nil, err
	}
	printFormat, err := br.ReadUint32()
	if err != nil {
		return nil, err
	}
	writeFormat, err := br.ReadUint32()
	if err != nil {
		return nil, err
	}
	var shortName [8]byte
	if err := br.ReadFixed(shortName[:]); err != nil {
		return nil, err
	}

	v := &rawVariable{
		RawType:      rawType,
		HasLabel:     hasLabelFlag != 0,
		PrintFormat:  printFormat,
		WriteFormat:  writeFormat,
		ShortNameRaw: shortName,
	}

	if v.HasLabel {
		labelLen, err := br.ReadInt32()
		if err != nil {
			return nil, err
		}
		if labelLen < 0 {
			return nil, protocolErrorf("negative variable label length %d", labelLen)
		}
		label, err := br.ReadBytes(int(labelLen))
		if err != nil {
			return nil, err
		}
		if err := br.Skip(padTo4(int(labelLen))); err != nil {
			return nil, err
		}
		v.RawLabel = label
	}

	nBlocks := numMissingBlocks(nMissing)
	if nBlocks > 0 {
		v.MissingBlocks = make([][8]byte, nBlocks)
		for i := 0; i < nBlocks; i++ {
			if err := br.ReadFixed(v.MissingBlocks[i][:]); err != nil {
				return nil, err
			}
		}
	}
	// A negative n_missing carries the range/discrete shape in its sign;
	// record it for the resolver to interpret alongside the blocks.
	v.missingShape = nMissing

	return v, nil
}
