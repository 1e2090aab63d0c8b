package strcase

import (
	"strings"
	"unicode"
)

// commonInitialisms are upper-cased as a whole when they form a word.
var commonInitialisms = map[string]bool{
	"API": true, "HTML": true, "HTTP": true, "HTTPS": true, "ID": true,
	"IP": true, "JSON": true, "URI": true, "URL": true, "UUID": true, "XML": true,
}

// ToCamelCase lower-cases the leading word of a Go identifier: "UserID"
// becomes "userID" and "IDValue" becomes "idValue".
func ToCamelCase(name string) string {
	if name == "" {
		return name
	}
	runes := []rune(name)
	if !unicode.IsUpper(runes[0]) {
		return name
	}
	end := 1
	for end < len(runes) && unicode.IsUpper(runes[end]) {
		end++
	}
	// Keep the last upper letter of a run when it starts the next word.
	if end > 1 && end < len(runes) && unicode.IsLower(runes[end]) {
		end--
	}
	for i := 0; i < end; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

func ToSnakeCase(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	var result []rune

	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := false
				if i < len(runes)-1 {
					nextLower = unicode.IsLower(runes[i+1])
				}

				if unicode.IsLower(prev) || unicode.IsDigit(prev) || nextLower {
					result = append(result, '_')
				}
			}
			r = unicode.ToLower(r)
		}

		result = append(result, r)
	}

	return string(result)
}

// ToPascalCase turns free text ("first_name", "user-id", "Items API") into an
// exported Go identifier ("FirstName", "UserID", "ItemsAPI"). A result that
// would start with a digit gets an "N" prefix.
func ToPascalCase(s string) string {
	var b strings.Builder
	for _, w := range Words(s) {
		upper := strings.ToUpper(w)
		if commonInitialisms[upper] {
			b.WriteString(upper)
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	out := b.String()
	if out != "" && unicode.IsDigit([]rune(out)[0]) {
		out = "N" + out
	}
	return out
}

// Words splits s on non-alphanumerics and lower-to-upper case changes.
func Words(s string) []string {
	var (
		words []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && i > 0 && unicode.IsLower(runes[i-1]) {
			flush()
		}
		cur = append(cur, r)
	}
	flush()
	return words
}
