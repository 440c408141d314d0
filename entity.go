package wpmigrate

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// namedEntities is the fixed table of named character entities DecodeEntities
// understands. Anything outside it passes through untouched.
var namedEntities = map[string]string{
	"amp":    "&",
	"lt":     "<",
	"gt":     ">",
	"quot":   `"`,
	"apos":   "'",
	"nbsp":   " ",
	"hellip": "…",
	"mdash":  "—",
	"ndash":  "–",
	"lsquo":  "‘",
	"rsquo":  "’",
	"sbquo":  "‚",
	"ldquo":  "“",
	"rdquo":  "”",
	"bdquo":  "„",
	"laquo":  "«",
	"raquo":  "»",
	"copy":   "©",
	"reg":    "®",
	"trade":  "™",
	"deg":    "°",
	"middot": "·",
	"bull":   "•",
	"times":  "×",
	"divide": "÷",
	"euro":   "€",
	"pound":  "£",
	"yen":    "¥",
	"cent":   "¢",
	"sect":   "§",
	"para":   "¶",
	"iexcl":  "¡",
	"iquest": "¿",
	"aacute": "á",
	"Aacute": "Á",
	"eacute": "é",
	"Eacute": "É",
	"iacute": "í",
	"Iacute": "Í",
	"oacute": "ó",
	"Oacute": "Ó",
	"uacute": "ú",
	"Uacute": "Ú",
	"ntilde": "ñ",
	"Ntilde": "Ñ",
	"uuml":   "ü",
	"Uuml":   "Ü",
	"ouml":   "ö",
	"Ouml":   "Ö",
	"auml":   "ä",
	"Auml":   "Ä",
	"szlig":  "ß",
	"ccedil": "ç",
	"Ccedil": "Ç",
	"agrave": "à",
	"egrave": "è",
	"ecirc":  "ê",
}

var entityRe = regexp.MustCompile(`&(#[0-9]{1,7}|#[xX][0-9a-fA-F]{1,6}|[a-zA-Z][a-zA-Z0-9]{1,9});`)

// DecodeEntities replaces numeric (&#NNN;, &#xHHH;) and known named
// character entities with their literal characters. Unrecognized entities
// and invalid code points are left as they are.
func DecodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return entityRe.ReplaceAllStringFunc(s, func(m string) string {
		name := m[1 : len(m)-1]
		if name[0] != '#' {
			if v, ok := namedEntities[name]; ok {
				return v
			}
			return m
		}

		var (
			n   uint64
			err error
		)
		if name[1] == 'x' || name[1] == 'X' {
			n, err = strconv.ParseUint(name[2:], 16, 32)
		} else {
			n, err = strconv.ParseUint(name[1:], 10, 32)
		}
		if err != nil || n == 0 {
			return m
		}
		r := rune(n)
		if !utf8.ValidRune(r) {
			return m
		}
		return string(r)
	})
}
