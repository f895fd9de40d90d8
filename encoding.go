package savgo

import (
	"strconv"
	"strings"

	"github.com/arrowsav/savgo/internal/codepage"
)

const defaultEncodingName = "windows-1252"

// textDecoder turns raw dictionary bytes into Unicode text, once, for the
// whole file.
type textDecoder struct {
	name string
	fn   func([]byte) string
}

func (d *textDecoder) decode(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	return d.fn(raw)
}

// selectEncoding picks the file's text encoding: an explicit subtype-20
// encoding name wins, then the subtype-3 code page, then the
// windows-1252 default.
func selectEncoding(dict *rawDictionary) (*textDecoder, error) {
	if name := strings.TrimSpace(string(trimPadding(dict.EncodingName))); name != "" {
		return newTextDecoder(name)
	}
	if dict.IntegerInfo != nil && dict.IntegerInfo.CharCode != 0 {
		if dec, err := newTextDecoder(strconv.Itoa(int(dict.IntegerInfo.CharCode))); err == nil {
			return dec, nil
		}
	}
	return newTextDecoder(defaultEncodingName)
}

func newTextDecoder(name string) (*textDecoder, error) {
	enc, isUTF8, ok := codepage.ByName(name)
	if !ok {
		return nil, badEncodingError(name)
	}
	if isUTF8 {
		return &textDecoder{name: name, fn: func(b []byte) string {
			return strings.ToValidUTF8(string(b), "�")
		}}, nil
	}
	dec := enc.NewDecoder()
	return &textDecoder{name: name, fn: func(b []byte) string {
		// Single-byte charmaps map every byte value, so this never
		// actually errors; the lossy fallback keeps the read alive
		// regardless.
		out, err := dec.Bytes(b)
		if err != nil {
			return strings.ToValidUTF8(string(b), "�")
		}
		return string(out)
	}}, nil
}
