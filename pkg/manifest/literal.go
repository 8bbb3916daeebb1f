package manifest

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// parseLiteral evaluates the subset of Python literals found in manifests:
//
//	value    = dict | list | tuple | paren | strings | number | "True" | "False" | "None"
//	dict     = "{" [ value ":" value { "," value ":" value } [ "," ] ] "}"
//	list     = "[" [ value { "," value } [ "," ] ] "]"
//	tuple    = "(" [ value "," { value "," } [ value ] ] ")"
//	paren    = "(" value ")"
//	strings  = string { string }             adjacent strings are concatenated
//	string   = [ prefix ] quoted                prefix: r and u, either case
//	quoted   = single, double or triple quoted text
//	number   = [ "+" | "-" ] decimal int or float, with optional exponent
//
// Comments and line continuations are skipped. Bytes and f-strings, set
// literals and any other expression are rejected. Dict keys that are not
// strings are stored under their fmt.Sprint form. The result uses
// map[string]any, []any, string, int64, float64, bool and nil.
func parseLiteral(src string) (any, error) {
	p := &literalParser{src: src}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skip()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q after expression", p.src[p.pos])
	}
	return v, nil
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) errorf(format string, args ...any) error {
	line := 1 + strings.Count(p.src[:min(p.pos, len(p.src))], "\n")
	return fmt.Errorf("line %d: %s", line, fmt.Sprintf(format, args...))
}

// skip advances past whitespace and comments.
func (p *literalParser) skip() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '#':
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\\':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) peek() byte {
	p.skip()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *literalParser) value() (any, error) {
	switch c := p.peek(); {
	case c == 0:
		return nil, p.errorf("unexpected end of input")
	case c == '{':
		return p.dict()
	case c == '[':
		p.pos++
		return p.sequence(']')
	case c == '(':
		return p.paren()
	case c == '"' || c == '\'' || (isStringPrefix(c) && p.prefixedString()):
		return p.concatStrings()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	case isIdentStart(c):
		return p.constant()
	default:
		return nil, p.errorf("unexpected %q", c)
	}
}

func (p *literalParser) dict() (any, error) {
	p.pos++ // {
	out := map[string]any{}
	for {
		if p.peek() == '}' {
			p.pos++
			return out, nil
		}
		k, err := p.value()
		if err != nil {
			return nil, err
		}
		key, ok := k.(string)
		if !ok {
			key = fmt.Sprint(k)
		}
		switch p.peek() {
		case ':':
		case ',', '}':
			return nil, p.errorf("set literals are not supported")
		default:
			return nil, p.errorf("expected ':' after key %q", key)
		}
		p.pos++
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out[key] = v

		switch p.peek() {
		case ',':
			p.pos++
		case '}':
		default:
			return nil, p.errorf("expected ',' or '}' in dict")
		}
	}
}

// sequence parses list or tuple items up to the closing byte, which the
// caller has already opened.
func (p *literalParser) sequence(closing byte) ([]any, error) {
	out := []any{}
	for {
		if p.peek() == closing {
			p.pos++
			return out, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)

		switch p.peek() {
		case ',':
			p.pos++
		case closing:
		default:
			return nil, p.errorf("expected ',' or %q", closing)
		}
	}
}

// paren parses a tuple or a parenthesised expression. "(x)" is x, "(x,)"
// and "(x, y)" are tuples.
func (p *literalParser) paren() (any, error) {
	p.pos++ // (
	if p.peek() == ')' {
		p.pos++
		return []any{}, nil
	}
	first, err := p.value()
	if err != nil {
		return nil, err
	}
	switch p.peek() {
	case ')':
		p.pos++
		return first, nil
	case ',':
		p.pos++
		rest, err := p.sequence(')')
		if err != nil {
			return nil, err
		}
		return append([]any{first}, rest...), nil
	default:
		return nil, p.errorf("expected ',' or ')'")
	}
}

func isStringPrefix(c byte) bool {
	switch c {
	case 'r', 'R', 'u', 'U', 'b', 'B', 'f', 'F':
		return true
	}
	return false
}

// prefixedString reports whether the identifier at pos is a string prefix
// such as r"..." or u'...'.
func (p *literalParser) prefixedString() bool {
	i := p.pos
	for i < len(p.src) && i-p.pos < 2 && isStringPrefix(p.src[i]) {
		i++
	}
	return i < len(p.src) && (p.src[i] == '"' || p.src[i] == '\'')
}

// concatStrings parses one or more adjacent string literals and concatenates them.
func (p *literalParser) concatStrings() (any, error) {
	var sb strings.Builder
	for {
		c := p.peek()
		if !(c == '"' || c == '\'' || (isStringPrefix(c) && p.prefixedString())) {
			return sb.String(), nil
		}
		s, err := p.str()
		if err != nil {
			return nil, err
		}
		sb.WriteString(s)
	}
}

func (p *literalParser) str() (string, error) {
	raw := false
	for isStringPrefix(p.src[p.pos]) {
		switch p.src[p.pos] {
		case 'r', 'R':
			raw = true
		case 'b', 'B', 'f', 'F':
			return "", p.errorf("bytes and f-string literals are not supported")
		}
		p.pos++
	}
	quote := p.src[p.pos]
	delim := string(quote)
	if strings.HasPrefix(p.src[p.pos:], strings.Repeat(delim, 3)) {
		delim = strings.Repeat(delim, 3)
	}
	start := p.pos
	p.pos += len(delim)

	var sb strings.Builder
	for {
		if p.pos >= len(p.src) {
			p.pos = start
			return "", p.errorf("unterminated string")
		}
		if strings.HasPrefix(p.src[p.pos:], delim) {
			p.pos += len(delim)
			return sb.String(), nil
		}
		c := p.src[p.pos]
		if c == '\n' && len(delim) == 1 {
			p.pos = start
			return "", p.errorf("newline in string")
		}
		if c != '\\' || p.pos+1 >= len(p.src) {
			sb.WriteByte(c)
			p.pos++
			continue
		}
		next := p.src[p.pos+1]
		p.pos += 2
		if raw {
			sb.WriteByte('\\')
			sb.WriteByte(next)
			continue
		}
		switch next {
		case '\n':
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '0':
			sb.WriteByte(0)
		case '\\', '\'', '"':
			sb.WriteByte(next)
		default:
			sb.WriteByte('\\')
			sb.WriteByte(next)
		}
	}
}

func (p *literalParser) number() (any, error) {
	start := p.pos
	if c := p.src[p.pos]; c == '-' || c == '+' {
		p.pos++
	}
	isFloat := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '.' || c == 'e' || c == 'E' {
			isFloat = true
		} else if !(c >= '0' && c <= '9') && c != '_' && !((c == '-' || c == '+') && isFloat) {
			break
		}
		p.pos++
	}
	text := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	if !isFloat {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n, nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.pos = start
		return nil, p.errorf("invalid number %q", text)
	}
	return f, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c))
}

func (p *literalParser) constant() (any, error) {
	start := p.pos
	for p.pos < len(p.src) && (isIdentStart(p.src[p.pos]) || (p.src[p.pos] >= '0' && p.src[p.pos] <= '9')) {
		p.pos++
	}
	switch word := p.src[start:p.pos]; word {
	case "True":
		return true, nil
	case "False":
		return false, nil
	case "None":
		return nil, nil
	default:
		p.pos = start
		return nil, p.errorf("unsupported name %q", word)
	}
}
