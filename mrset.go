package savgo

import (
	"bytes"
	"strconv"
	"strings"
)

// rawMRSet is one parsed line from the subtype-7 multiple-response-set
// text blob, before its member short names are resolved to long names and
// its label text is decoded with the file's chosen encoding.
type rawMRSet struct {
	Name             string
	Kind             MRSetKind
	CountedValueRaw  []byte
	LabelRaw         []byte
	MemberShortNames []string
}

// parseMRSetsText parses the subtype-7 payload: one MR set per line.
//
// Line grammar: "$NAME=" ("C" | "D" decimal-n) [" " n-byte-counted-value]
// decimal-label-len " " label-len-bytes-of-label " " space-separated
// short-variable-names.
func parseMRSetsText(raw []byte) ([]rawMRSet, error) {
	lines := bytes.Split(raw, []byte("\n"))
	var sets []rawMRSet
	for _, line := range lines {
		line = bytes.TrimRight(line, "\r")
		if len(line) == 0 {
			continue
		}
		set, err := parseMRSetLine(line)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func parseMRSetLine(line []byte) (rawMRSet, error) {
	eq := bytes.IndexByte(line, '=')
	if eq < 0 {
		return rawMRSet{}, protocolErrorf("malformed MR set line (no '='): %q", line)
	}
	name := string(line[:eq])
	rest := line[eq+1:]
	if len(rest) == 0 {
		return rawMRSet{}, protocolErrorf("malformed MR set line %q: empty body", name)
	}

	var kind MRSetKind
	var countedValue []byte

	switch rest[0] {
	case 'C':
		kind = MRSetCategory
		rest = rest[1:]
		rest = skipOneSpace(rest)
	case 'D':
		kind = MRSetDichotomy
		j := 1
		for j < len(rest) && rest[j] != ' ' {
			j++
		}
		n, err := strconv.Atoi(string(rest[1:j]))
		if err != nil || n < 0 {
			return rawMRSet{}, protocolErrorf("malformed MR set %q: bad dichotomy length %q", name, rest[1:j])
		}
		rest = rest[j:]
		rest = skipOneSpace(rest)
		if len(rest) < n {
			return rawMRSet{}, protocolErrorf("malformed MR set %q: counted value truncated", name)
		}
		countedValue = rest[:n]
		rest = rest[n:]
	default:
		return rawMRSet{}, protocolErrorf("malformed MR set %q: unknown kind byte %q", name, rest[0])
	}

	k := 0
	for k < len(rest) && rest[k] != ' ' {
		k++
	}
	labelLen, err := strconv.Atoi(string(rest[:k]))
	if err != nil || labelLen < 0 {
		return rawMRSet{}, protocolErrorf("malformed MR set %q: bad label length", name)
	}
	rest = rest[k:]
	rest = skipOneSpace(rest)
	if len(rest) < labelLen {
		return rawMRSet{}, protocolErrorf("malformed MR set %q: label truncated", name)
	}
	labelRaw := rest[:labelLen]
	rest = rest[labelLen:]

	members := strings.Fields(string(rest))

	return rawMRSet{
		Name:             name,
		Kind:             kind,
		CountedValueRaw:  countedValue,
		LabelRaw:         labelRaw,
		MemberShortNames: members,
	}, nil
}

func skipOneSpace(b []byte) []byte {
	if len(b) > 0 && b[0] == ' ' {
		return b[1:]
	}
	return b
}
