package source

import (
	"fmt"
	"strings"
	"unicode"
)

// vdfObject is one brace-delimited block of a Valve Data Format file.
// Values are either string or vdfObject.
type vdfObject map[string]any

// String returns the string value for key, or "" if absent or not a string.
func (o vdfObject) String(key string) string {
	s, _ := o[key].(string)
	return s
}

// Object returns the nested object for key, or nil if absent or not an object.
func (o vdfObject) Object(key string) vdfObject {
	obj, _ := o[key].(vdfObject)
	return obj
}

// parseVDF parses Valve Data Format text (libraryfolders.vdf, appmanifest
// ACF files) into a nested key/value tree.
//
// The format is a sequence of quoted tokens and braces:
//
//	"AppState"
//	{
//		"appid"		"400"
//		"name"		"Portal"
//	}
//
// Design decision: We hand-roll the parser because the format is only
// quoted strings and braces. Keys are lower-cased during parsing since
// Valve's own files mix "AppState" and "appstate" casing across versions.
func parseVDF(data string) (vdfObject, error) {
	p := &vdfParser{input: data}
	root := vdfObject{}
	if err := p.parseInto(root, 0); err != nil {
		return nil, err
	}
	return root, nil
}

// vdfParser holds tokenizer state for one parse.
type vdfParser struct {
	input string
	pos   int
	line  int
}

// maxVDFDepth bounds block nesting. Valve files nest three or four levels;
// anything deeper is a corrupt or hostile file.
const maxVDFDepth = 16

// parseInto reads key/value pairs into obj until the matching close brace
// or end of input.
func (p *vdfParser) parseInto(obj vdfObject, depth int) error {
	if depth > maxVDFDepth {
		return fmt.Errorf("vdf: nesting deeper than %d at line %d", maxVDFDepth, p.line+1)
	}

	for {
		tok, kind, err := p.next()
		if err != nil {
			return err
		}

		switch kind {
		case tokenEOF:
			if depth != 0 {
				return fmt.Errorf("vdf: unexpected end of input at line %d", p.line+1)
			}
			return nil
		case tokenClose:
			if depth == 0 {
				return fmt.Errorf("vdf: unmatched '}' at line %d", p.line+1)
			}
			return nil
		case tokenOpen:
			return fmt.Errorf("vdf: unexpected '{' at line %d", p.line+1)
		}

		// tok is a key; the next token decides whether the value is a
		// string or a nested block.
		key := strings.ToLower(tok)

		val, valKind, err := p.next()
		if err != nil {
			return err
		}
		switch valKind {
		case tokenString:
			obj[key] = val
		case tokenOpen:
			child := vdfObject{}
			if err := p.parseInto(child, depth+1); err != nil {
				return err
			}
			obj[key] = child
		default:
			return fmt.Errorf("vdf: key %q has no value at line %d", key, p.line+1)
		}
	}
}

// Token kinds produced by the tokenizer.
const (
	tokenEOF = iota
	tokenString
	tokenOpen
	tokenClose
)

// next returns the next token: a quoted string, '{', '}', or EOF.
func (p *vdfParser) next() (string, int, error) {
	// Skip whitespace and // comments.
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch {
		case c == '\n':
			p.line++
			p.pos++
		case unicode.IsSpace(rune(c)):
			p.pos++
		case c == '/' && p.pos+1 < len(p.input) && p.input[p.pos+1] == '/':
			for p.pos < len(p.input) && p.input[p.pos] != '\n' {
				p.pos++
			}
		default:
			goto scan
		}
	}
	return "", tokenEOF, nil

scan:
	switch p.input[p.pos] {
	case '{':
		p.pos++
		return "", tokenOpen, nil
	case '}':
		p.pos++
		return "", tokenClose, nil
	case '"':
		return p.scanString()
	default:
		return "", tokenEOF, fmt.Errorf("vdf: unexpected character %q at line %d", p.input[p.pos], p.line+1)
	}
}

// scanString reads a quoted token, honoring \" and \\ escapes.
func (p *vdfParser) scanString() (string, int, error) {
	p.pos++ // consume opening quote

	var b strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch c {
		case '"':
			p.pos++
			return b.String(), tokenString, nil
		case '\\':
			if p.pos+1 < len(p.input) {
				p.pos++
				b.WriteByte(p.input[p.pos])
				p.pos++
				continue
			}
			p.pos++
		case '\n':
			return "", tokenEOF, fmt.Errorf("vdf: unterminated string at line %d", p.line+1)
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", tokenEOF, fmt.Errorf("vdf: unterminated string at line %d", p.line+1)
}
