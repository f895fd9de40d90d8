// Package codepage maps legacy numeric code-page identifiers (as stored in
// a SAV file's subtype-3 integer info record) and common textual encoding
// names to golang.org/x/text/encoding implementations.
package codepage

import (
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var byCode = map[int32]encoding.Encoding{
	1:     charmap.ISO8859_1,
	437:   charmap.CodePage437,
	850:   charmap.CodePage850,
	852:   charmap.CodePage852,
	855:   charmap.CodePage855,
	858:   charmap.CodePage858,
	860:   charmap.CodePage860,
	862:   charmap.CodePage862,
	863:   charmap.CodePage863,
	865:   charmap.CodePage865,
	866:   charmap.CodePage866,
	874:   charmap.Windows874,
	1250:  charmap.Windows1250,
	1251:  charmap.Windows1251,
	1252:  charmap.Windows1252,
	1253:  charmap.Windows1253,
	1254:  charmap.Windows1254,
	1255:  charmap.Windows1255,
	1256:  charmap.Windows1256,
	1257:  charmap.Windows1257,
	1258:  charmap.Windows1258,
	10000: charmap.Macintosh,
	20127: encoding.Nop,
	28591: charmap.ISO8859_1,
	28592: charmap.ISO8859_2,
	28605: charmap.ISO8859_15,
	65001: nil, // UTF-8, handled by caller directly
}

var byName = map[string]encoding.Encoding{
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"windows-1250": charmap.Windows1250,
	"windows-1251": charmap.Windows1251,
	"windows-1253": charmap.Windows1253,
	"windows-1254": charmap.Windows1254,
	"windows-1255": charmap.Windows1255,
	"windows-1256": charmap.Windows1256,
	"windows-1257": charmap.Windows1257,
	"windows-1258": charmap.Windows1258,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso8859-1":    charmap.ISO8859_1,
	"iso-8859-2":   charmap.ISO8859_2,
	"iso-8859-15":  charmap.ISO8859_15,
	"ascii":        encoding.Nop,
	"us-ascii":     encoding.Nop,
	"macintosh":    charmap.Macintosh,
}

// ByCode looks up an encoding by its legacy numeric code page. The bool
// result is false both when the code is unknown and when the code maps to
// UTF-8 (which the caller should handle without a charmap decoder).
func ByCode(code int32) (encoding.Encoding, bool) {
	enc, ok := byCode[code]
	return enc, ok && enc != nil
}

// IsUTF8Code reports whether the numeric code page denotes UTF-8.
func IsUTF8Code(code int32) bool { return code == 65001 }

// ByName looks up an encoding by a free-form textual name (case-insensitive;
// besides the table's own keys, only the hyphen-less spellings listed in
// denormalizeKey are accepted), as found in a subtype-20 encoding record or
// a numeric string like "1252".
func ByName(name string) (encoding.Encoding, bool, bool) {
	norm := normalize(name)
	if norm == "utf8" || norm == "utf-8" {
		return nil, true, true
	}
	if enc, ok := byName[denormalizeKey(norm)]; ok {
		return enc, false, true
	}
	if code, err := strconv.Atoi(strings.TrimSpace(name)); err == nil {
		if IsUTF8Code(int32(code)) {
			return nil, true, true
		}
		if enc, ok := ByCode(int32(code)); ok {
			return enc, false, true
		}
	}
	return nil, false, false
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return s
}

// denormalizeKey maps a normalized lookup string back onto the byName
// table's keys, which use hyphens rather than having every punctuation
// variant stored separately.
func denormalizeKey(norm string) string {
	switch norm {
	case "windows1252", "win1252":
		return "windows-1252"
	case "windows1250", "win1250":
		return "windows-1250"
	case "windows1251", "win1251":
		return "windows-1251"
	case "windows1253", "win1253":
		return "windows-1253"
	case "windows1254", "win1254":
		return "windows-1254"
	case "windows1255", "win1255":
		return "windows-1255"
	case "windows1256", "win1256":
		return "windows-1256"
	case "windows1257", "win1257":
		return "windows-1257"
	case "windows1258", "win1258":
		return "windows-1258"
	case "iso88591":
		return "iso-8859-1"
	case "iso88592":
		return "iso-8859-2"
	case "iso885915":
		return "iso-8859-15"
	default:
		return norm
	}
}
