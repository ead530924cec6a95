package recorder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/otairec/otairec/pkg/otai"
)

// Line grammar:
//
//	line  = timestamp "|" tag "|" key *( "|" name "=" value ) LF
//
// Every token escapes '\' as "\\", '|' as "\|", LF as "\n" and CR as
// "\r". Field names additionally escape '=' as "\=", so a field splits
// at its first unescaped '='. Response lines carry the status name in the
// key column.

// ErrMalformedLine is returned by ParseLine for text that FormatLine
// could not have produced.
var ErrMalformedLine = errors.New("malformed recording line")

// Call is the canonical serialized form of one recorded event. Typed and
// pre-serialized constructors both produce a Call.
type Call struct {
	Tag    Tag
	Key    string
	Fields []otai.FieldValue
}

// Entry is a Call stamped with the time it was written.
type Entry struct {
	Timestamp string
	Call
}

// FormatLine renders e without the trailing line terminator.
func FormatLine(e Entry) string {
	var b strings.Builder
	writeEscaped(&b, e.Timestamp, false)
	b.WriteByte('|')
	b.WriteString(e.body())
	return b.String()
}

// body renders everything after the timestamp column.
func (c Call) body() string {
	var b strings.Builder
	writeEscaped(&b, string(c.Tag), false)
	b.WriteByte('|')
	writeEscaped(&b, c.Key, false)
	for _, fv := range c.Fields {
		b.WriteByte('|')
		writeField(&b, fv)
	}
	return b.String()
}

// String renders the call as it appears after the timestamp column.
func (c Call) String() string { return c.body() }

// ParseLine parses one line produced by FormatLine. A trailing LF is
// accepted.
func ParseLine(line string) (Entry, error) {
	line = strings.TrimSuffix(line, "\n")
	toks, err := splitTokens(line)
	if err != nil {
		return Entry{}, err
	}
	if len(toks) < 3 {
		return Entry{}, fmt.Errorf("%w: want at least 3 columns, got %d", ErrMalformedLine, len(toks))
	}

	var e Entry
	if e.Timestamp, err = unescape(toks[0]); err != nil {
		return Entry{}, err
	}
	tag, err := unescape(toks[1])
	if err != nil {
		return Entry{}, err
	}
	e.Tag = Tag(tag)
	if !e.Tag.Valid() {
		return Entry{}, fmt.Errorf("%w: unknown tag %q", ErrMalformedLine, tag)
	}
	if e.Key, err = unescape(toks[2]); err != nil {
		return Entry{}, err
	}
	if e.Fields, err = parseFields(toks[3:]); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// EncodeFields renders a field list as a single string using the line
// grammar. It is used for nested per-object data in bulk requests.
func EncodeFields(fields []otai.FieldValue) string {
	var b strings.Builder
	for i, fv := range fields {
		if i > 0 {
			b.WriteByte('|')
		}
		writeField(&b, fv)
	}
	return b.String()
}

// DecodeFields inverts EncodeFields.
func DecodeFields(s string) ([]otai.FieldValue, error) {
	if s == "" {
		return nil, nil
	}
	toks, err := splitTokens(s)
	if err != nil {
		return nil, err
	}
	return parseFields(toks)
}

func writeField(b *strings.Builder, fv otai.FieldValue) {
	writeEscaped(b, fv.Field, true)
	b.WriteByte('=')
	writeEscaped(b, fv.Value, false)
}

func writeEscaped(b *strings.Builder, s string, name bool) {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '|':
			b.WriteString(`\|`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '=':
			if name {
				b.WriteString(`\=`)
			} else {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
}

// splitTokens splits on unescaped '|', leaving escapes in place.
func splitTokens(s string) ([]string, error) {
	var toks []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 >= len(s) {
				return nil, fmt.Errorf("%w: dangling escape", ErrMalformedLine)
			}
			i++
		case '|':
			toks = append(toks, s[start:i])
			start = i + 1
		case '\n', '\r':
			return nil, fmt.Errorf("%w: raw line break at offset %d", ErrMalformedLine, i)
		}
	}
	return append(toks, s[start:]), nil
}

func parseFields(toks []string) ([]otai.FieldValue, error) {
	if len(toks) == 0 {
		return nil, nil
	}
	out := make([]otai.FieldValue, 0, len(toks))
	for _, tok := range toks {
		eq := indexUnescaped(tok, '=')
		if eq < 0 {
			return nil, fmt.Errorf("%w: field %q has no '='", ErrMalformedLine, tok)
		}
		name, err := unescape(tok[:eq])
		if err != nil {
			return nil, err
		}
		value, err := unescape(tok[eq+1:])
		if err != nil {
			return nil, err
		}
		out = append(out, otai.FieldValue{Field: name, Value: value})
	}
	return out, nil
}

func indexUnescaped(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == c {
			return i
		}
	}
	return -1
}

func unescape(s string) (string, error) {
	if strings.IndexByte(s, '\\') < 0 {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("%w: dangling escape", ErrMalformedLine)
		}
		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case '|':
			b.WriteByte('|')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case '=':
			b.WriteByte('=')
		default:
			return "", fmt.Errorf("%w: unknown escape \\%c", ErrMalformedLine, s[i])
		}
	}
	return b.String(), nil
}
