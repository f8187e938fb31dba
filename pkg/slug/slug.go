package slug

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Latin letters commonly found in product names, folded to ASCII. Runes not
// listed here and not ASCII alphanumerics act as separators.
var fold = map[rune]string{
	'ç': "c", 'ğ': "g", 'ı': "i", 'İ': "i", 'ö': "o", 'ş': "s", 'ü': "u",
	'á': "a", 'à': "a", 'â': "a", 'ä': "a", 'ã': "a", 'å': "a",
	'é': "e", 'è': "e", 'ê': "e", 'ë': "e",
	'í': "i", 'ì': "i", 'î': "i", 'ï': "i",
	'ó': "o", 'ò': "o", 'ô': "o", 'õ': "o",
	'ú': "u", 'ù': "u", 'û': "u",
	'ñ': "n", 'ß': "ss", 'ø': "o", 'æ': "ae",
}

// Generate creates a lower-case, hyphen-separated ASCII slug from name.
//
//	"Kadın Giyim"    -> "kadin-giyim"
//	"Hello   World!" -> "hello-world"
func Generate(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	pendingDash := false

	emit := func(s string) {
		if pendingDash && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingDash = false
		b.WriteString(s)
	}

	for _, r := range name {
		switch {
		case r == 'İ':
			emit("i")
		case r < utf8.RuneSelf && ('a' <= r && r <= 'z' || '0' <= r && r <= '9'):
			emit(string(r))
		case r < utf8.RuneSelf && 'A' <= r && r <= 'Z':
			emit(string(r + 'a' - 'A'))
		default:
			if s, ok := fold[unicode.ToLower(r)]; ok {
				emit(s)
				continue
			}
			pendingDash = true
		}
	}
	return b.String()
}

// Filename builds "<slug>-<suffix>.<ext>", using fallback when name has no
// sluggable characters.
func Filename(name, suffix, ext, fallback string) string {
	base := Generate(name)
	if base == "" {
		base = fallback
	}
	if suffix != "" {
		base += "-" + suffix
	}
	return base + "." + strings.TrimPrefix(ext, ".")
}
