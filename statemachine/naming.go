package statemachine

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MethodName converts a transition or method token into the exported Go method
// naming convention: "open" -> "Open", "force-open" and "force_open" ->
// "ForceOpen", "forceOpen" -> "ForceOpen".
func MethodName(token string) string {
	words := strings.FieldsFunc(token, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || unicode.IsSpace(r)
	})

	// A Caser keeps state between calls, so each conversion gets its own.
	caser := cases.Title(language.Und, cases.NoLower)

	var sb strings.Builder
	for _, word := range words {
		sb.WriteString(caser.String(word))
	}

	return sb.String()
}
