package codegen

import (
	"go/token"
	"strings"
	"unicode"
)

// exported turns a Move identifier into an exported Go identifier:
// "created_at" -> "CreatedAt", "bar" -> "Bar".
func exported(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "X"
	}
	return b.String()
}

// unexported is exported with a lower-case first rune, escaped away from Go
// keywords and the names the binding template already uses.
func unexported(name string, reserved map[string]bool) string {
	e := []rune(exported(name))
	e[0] = unicode.ToLower(e[0])
	out := string(e)
	if token.IsKeyword(out) || reserved[out] {
		out += "_"
	}
	return out
}
