package manifest

import (
	"fmt"
	"strings"
)

// templatePart is either a literal run of characters or a "${name}"
// variable reference.
type templatePart struct {
	literal string
	varRef  string // non-empty means this part is a variable reference
}

// Template is a parsed sequence of literal and "${name}" parts. It never
// re-parses: lexing happens once, at AST-construction time.
type Template []templatePart

// ParseTemplate splits s into literal, "${name}" and brace-less "$name"
// parts (both forms are accepted, matching the original's shellexpand
// behavior). An unterminated "${" is a parse error; a bare "$" not
// followed by "{" or an identifier is kept as a literal dollar sign.
func ParseTemplate(s string) (Template, error) {
	var parts Template
	var lit strings.Builder
	i := 0
	for i < len(s) {
		if s[i] == '$' && i+1 < len(s) && s[i+1] == '{' {
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unterminated variable reference in %q", s)
			}
			if lit.Len() > 0 {
				parts = append(parts, templatePart{literal: lit.String()})
				lit.Reset()
			}
			name := s[i+2 : i+2+end]
			parts = append(parts, templatePart{varRef: name})
			i += 2 + end + 1
			continue
		}
		if s[i] == '$' && i+1 < len(s) && isIdentStart(s[i+1]) {
			j := i + 2
			for j < len(s) && isIdentCont(s[j]) {
				j++
			}
			if lit.Len() > 0 {
				parts = append(parts, templatePart{literal: lit.String()})
				lit.Reset()
			}
			parts = append(parts, templatePart{varRef: s[i+1 : j]})
			i = j
			continue
		}
		lit.WriteByte(s[i])
		i++
	}
	if lit.Len() > 0 {
		parts = append(parts, templatePart{literal: lit.String()})
	}
	return parts, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || ('0' <= c && c <= '9')
}

// expand substitutes every "${name}" part using lookup.
func (t Template) expand(lookup func(string) ([]byte, bool)) (string, error) {
	var out strings.Builder
	for _, p := range t {
		if p.varRef == "" {
			out.WriteString(p.literal)
			continue
		}
		v, ok := lookup(p.varRef)
		if !ok {
			return "", fmt.Errorf("unset variable %q", p.varRef)
		}
		out.Write(v)
	}
	return out.String(), nil
}

// Argument is the tagged variant described by the core data model:
// Raw never expands, OnlyVars expands variables but rejects "~",
// VarsAndHome expands variables and "~".
type Argument interface {
	// Expand renders the argument against ctx. VarsAndHome substitutes
	// a leading "~" with ctx.Home(); OnlyVars fails if the expanded
	// result starts with "~"; Raw returns its text unchanged.
	Expand(ctx *Context) (string, error)
}

// Raw is a literal argument that is never expanded, byte-for-byte.
type Raw string

func (r Raw) Expand(ctx *Context) (string, error) {
	return string(r), nil
}

// OnlyVars expands "${name}" references but fails if the result would
// require "~" expansion (it is used for strings that are not paths).
type OnlyVars struct {
	Template Template
}

func (o OnlyVars) Expand(ctx *Context) (string, error) {
	s, err := o.Template.expand(ctx.Lookup)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(s, "~") {
		return "", fmt.Errorf("double-quoted argument does not support \"~\" expansion: %q", s)
	}
	return s, nil
}

// VarsAndHome expands "${name}" references and a leading "~" against the
// context's home directory. It is used for path-like arguments.
type VarsAndHome struct {
	Template Template
}

func (v VarsAndHome) Expand(ctx *Context) (string, error) {
	s, err := v.Template.expand(ctx.Lookup)
	if err != nil {
		return "", err
	}
	if s == "~" {
		return ctx.Home(), nil
	}
	if strings.HasPrefix(s, "~/") {
		return ctx.Home() + s[1:], nil
	}
	return s, nil
}
