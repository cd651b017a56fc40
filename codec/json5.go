package codec

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/deepnoodle-ai/jsq/errz"
	"github.com/deepnoodle-ai/jsq/value"
)

// decodeJSON5 parses a JSON5 document: JSON plus comments, unquoted keys,
// single quoted strings, trailing commas, hex numbers, leading and trailing
// decimal points, signed numbers, and Infinity/NaN.
func decodeJSON5(data []byte) (value.Value, error) {
	s := &json5Scanner{src: string(data), line: 1}
	s.skipSpace()
	v, err := s.parseValue()
	if err != nil {
		return nil, errz.Decodef("parsing JSON5: %v", err)
	}
	s.skipSpace()
	if !s.eof() {
		return nil, errz.Decodef("parsing JSON5: trailing content after document at line %d", s.line)
	}
	return v, nil
}

// encodeJSON5 uses strict JSON syntax for output.
func encodeJSON5(v value.Value) ([]byte, error) {
	return encodeJSON(v)
}

type json5Scanner struct {
	src  string
	pos  int
	line int
}

func (s *json5Scanner) eof() bool {
	return s.pos >= len(s.src)
}

func (s *json5Scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

func (s *json5Scanner) next() byte {
	c := s.src[s.pos]
	s.pos++
	if c == '\n' {
		s.line++
	}
	return c
}

func (s *json5Scanner) errf(format string, args ...any) error {
	return fmt.Errorf(format+" at line %d", append(args, s.line)...)
}

// skipSpace consumes whitespace and both comment styles.
func (s *json5Scanner) skipSpace() {
	for !s.eof() {
		c := s.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f':
			s.next()
		case c == '/' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '/':
			for !s.eof() && s.peek() != '\n' {
				s.next()
			}
		case c == '/' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '*':
			s.next()
			s.next()
			for !s.eof() {
				if s.peek() == '*' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '/' {
					s.next()
					s.next()
					break
				}
				s.next()
			}
		case c >= utf8.RuneSelf:
			r, size := utf8.DecodeRuneInString(s.src[s.pos:])
			if !unicode.IsSpace(r) {
				return
			}
			s.pos += size
		default:
			return
		}
	}
}

func (s *json5Scanner) parseValue() (value.Value, error) {
	if s.eof() {
		return nil, s.errf("unexpected end of input")
	}
	switch c := s.peek(); {
	case c == '{':
		return s.parseObject()
	case c == '[':
		return s.parseArray()
	case c == '"' || c == '\'':
		str, err := s.parseString()
		if err != nil {
			return nil, err
		}
		return value.NewString(str), nil
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return s.parseNumber()
	default:
		return s.parseLiteral()
	}
}

func (s *json5Scanner) parseObject() (value.Value, error) {
	s.next() // {
	m := value.NewMapping()
	for {
		s.skipSpace()
		if s.eof() {
			return nil, s.errf("unterminated object")
		}
		if s.peek() == '}' {
			s.next()
			return m, nil
		}
		key, err := s.parseKey()
		if err != nil {
			return nil, err
		}
		s.skipSpace()
		if s.eof() || s.peek() != ':' {
			return nil, s.errf("expected ':' after object key %q", key)
		}
		s.next()
		s.skipSpace()
		v, err := s.parseValue()
		if err != nil {
			return nil, err
		}
		m.Set(key, v)
		s.skipSpace()
		switch s.peek() {
		case ',':
			s.next()
		case '}':
		default:
			return nil, s.errf("expected ',' or '}' in object")
		}
	}
}

func (s *json5Scanner) parseArray() (value.Value, error) {
	s.next() // [
	seq := value.NewSequence(nil)
	for {
		s.skipSpace()
		if s.eof() {
			return nil, s.errf("unterminated array")
		}
		if s.peek() == ']' {
			s.next()
			return seq, nil
		}
		v, err := s.parseValue()
		if err != nil {
			return nil, err
		}
		seq.Append(v)
		s.skipSpace()
		switch s.peek() {
		case ',':
			s.next()
		case ']':
		default:
			return nil, s.errf("expected ',' or ']' in array")
		}
	}
}

// parseKey accepts a quoted string or an ECMAScript identifier name.
func (s *json5Scanner) parseKey() (string, error) {
	if c := s.peek(); c == '"' || c == '\'' {
		return s.parseString()
	}
	start := s.pos
	for !s.eof() {
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		if r == '$' || r == '_' || unicode.IsLetter(r) ||
			(s.pos > start && unicode.IsDigit(r)) {
			s.pos += size
			continue
		}
		break
	}
	if s.pos == start {
		return "", s.errf("expected object key")
	}
	return s.src[start:s.pos], nil
}

func (s *json5Scanner) parseString() (string, error) {
	quote := s.next()
	var b strings.Builder
	for {
		if s.eof() {
			return "", s.errf("unterminated string")
		}
		c := s.next()
		switch {
		case c == quote:
			return b.String(), nil
		case c == '\n':
			return "", s.errf("unescaped line break in string")
		case c == '\\':
			if s.eof() {
				return "", s.errf("unterminated string escape")
			}
			if err := s.parseEscape(&b); err != nil {
				return "", err
			}
		default:
			b.WriteByte(c)
		}
	}
}

func (s *json5Scanner) parseEscape(b *strings.Builder) error {
	c := s.next()
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '0':
		b.WriteByte(0)
	case 'x':
		if s.pos+2 > len(s.src) {
			return s.errf("invalid \\x escape")
		}
		n, err := strconv.ParseUint(s.src[s.pos:s.pos+2], 16, 8)
		if err != nil {
			return s.errf("invalid \\x escape")
		}
		s.pos += 2
		b.WriteRune(rune(n))
	case 'u':
		r, err := s.unicodeEscape()
		if err != nil {
			return err
		}
		// A high surrogate followed by an escaped low surrogate encodes one
		// code point split across two \u escapes.
		if utf16.IsSurrogate(r) && strings.HasPrefix(s.src[s.pos:], `\u`) {
			rewind := s.pos
			s.pos += 2
			r2, err := s.unicodeEscape()
			if err != nil {
				return err
			}
			if combined := utf16.DecodeRune(r, r2); combined != utf8.RuneError {
				b.WriteRune(combined)
				return nil
			}
			s.pos = rewind
		}
		b.WriteRune(r)
	case '\n':
		// Line continuation: the escaped newline is elided.
	case '\r':
		if !s.eof() && s.peek() == '\n' {
			s.next()
		}
	default:
		b.WriteByte(c)
	}
	return nil
}

func (s *json5Scanner) unicodeEscape() (rune, error) {
	if s.pos+4 > len(s.src) {
		return 0, s.errf("invalid \\u escape")
	}
	n, err := strconv.ParseUint(s.src[s.pos:s.pos+4], 16, 32)
	if err != nil {
		return 0, s.errf("invalid \\u escape")
	}
	s.pos += 4
	return rune(n), nil
}

func (s *json5Scanner) parseNumber() (value.Value, error) {
	start := s.pos
	sign := 1.0
	if c := s.peek(); c == '+' || c == '-' {
		if c == '-' {
			sign = -1
		}
		s.next()
	}
	if strings.HasPrefix(s.src[s.pos:], "Infinity") {
		s.pos += len("Infinity")
		return value.NewNumber(sign * math.Inf(1)), nil
	}
	if strings.HasPrefix(s.src[s.pos:], "NaN") {
		s.pos += len("NaN")
		return value.NewNumber(math.NaN()), nil
	}
	if strings.HasPrefix(s.src[s.pos:], "0x") || strings.HasPrefix(s.src[s.pos:], "0X") {
		s.pos += 2
		digits := s.pos
		for !s.eof() && isHexDigit(s.peek()) {
			s.pos++
		}
		if s.pos == digits {
			return nil, s.errf("invalid hex number")
		}
		n, err := strconv.ParseUint(s.src[digits:s.pos], 16, 64)
		if err != nil {
			return nil, s.errf("invalid hex number %q", s.src[start:s.pos])
		}
		return value.NewNumber(sign * float64(n)), nil
	}
	for !s.eof() {
		c := s.peek()
		if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-' {
			s.next()
			continue
		}
		break
	}
	text := s.src[start:s.pos]
	// JSON5 allows ".5", "5." and "+5"; ParseFloat accepts all of them.
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, s.errf("invalid number %q", text)
	}
	return value.NewNumber(f), nil
}

func (s *json5Scanner) parseLiteral() (value.Value, error) {
	switch {
	case strings.HasPrefix(s.src[s.pos:], "true"):
		s.pos += 4
		return value.True, nil
	case strings.HasPrefix(s.src[s.pos:], "false"):
		s.pos += 5
		return value.False, nil
	case strings.HasPrefix(s.src[s.pos:], "null"):
		s.pos += 4
		return value.Null, nil
	case strings.HasPrefix(s.src[s.pos:], "Infinity"):
		s.pos += 8
		return value.NewNumber(math.Inf(1)), nil
	case strings.HasPrefix(s.src[s.pos:], "NaN"):
		s.pos += 3
		return value.NewNumber(math.NaN()), nil
	default:
		return nil, s.errf("unexpected character %q", s.peek())
	}
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
