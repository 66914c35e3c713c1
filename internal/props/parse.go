package props

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedValue is matched by every MalformedValueError.
var ErrMalformedValue = errors.New("malformed value")

// MalformedValueError reports a bundle line that could not be parsed.
type MalformedValueError struct {
	Bundle string
	Line   int
	Key    string
	Text   string
	Reason string
}

func (e *MalformedValueError) Error() string {
	loc := e.Bundle
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Bundle, e.Line)
	}
	if e.Key != "" {
		return fmt.Sprintf("%s: malformed value for %q: %s (%q)", loc, e.Key, e.Reason, e.Text)
	}
	return fmt.Sprintf("%s: malformed line: %s (%q)", loc, e.Reason, e.Text)
}

func (e *MalformedValueError) Unwrap() error { return ErrMalformedValue }

var (
	keyPattern    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
	intPattern    = regexp.MustCompile(`^[+-]?[0-9]+$`)
	floatPattern  = regexp.MustCompile(`^[+-]?(?:[0-9]+\.[0-9]*|\.[0-9]+)$`)
	dimPattern    = regexp.MustCompile(`^([0-9]+)x([0-9]+)$`)
	insetsPattern = regexp.MustCompile(`^(-?[0-9]+)\s*,\s*(-?[0-9]+)\s*,\s*(-?[0-9]+)\s*,\s*(-?[0-9]+)$`)
	tagPattern    = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\((.*)\)$`)
	wordPattern   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)
)

// ValidKey reports whether key is a legal property identifier.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// Parse reads a property bundle. References are kept as-is.
func Parse(name string, r io.Reader) (*Bundle, error) {
	b := NewBundle(name)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			return nil, &MalformedValueError{Bundle: name, Line: lineNo, Text: line, Reason: "missing '='"}
		}
		key := strings.TrimSpace(line[:eq])
		if !ValidKey(key) {
			return nil, &MalformedValueError{Bundle: name, Line: lineNo, Key: key, Text: line, Reason: "invalid key"}
		}
		text, err := stripComment(strings.TrimSpace(line[eq+1:]))
		if err != nil {
			return nil, &MalformedValueError{Bundle: name, Line: lineNo, Key: key, Text: line, Reason: err.Error()}
		}
		v, err := ParseValue(text)
		if err != nil {
			return nil, &MalformedValueError{Bundle: name, Line: lineNo, Key: key, Text: text, Reason: err.Error()}
		}
		b.Set(key, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read bundle %s: %w", name, err)
	}
	return b, nil
}

// ParseString is Parse over an in-memory source.
func ParseString(name, src string) (*Bundle, error) {
	return Parse(name, strings.NewReader(src))
}

// stripComment removes a trailing "# ..." comment. A '#' only starts a comment
// when it follows whitespace, so color literals survive.
func stripComment(v string) (string, error) {
	if strings.HasPrefix(v, `"`) {
		end := closingQuote(v)
		if end < 0 {
			return "", errors.New("unterminated string")
		}
		rest := strings.TrimSpace(v[end+1:])
		if rest != "" && !strings.HasPrefix(rest, "#") {
			return "", errors.New("trailing text after string")
		}
		return v[:end+1], nil
	}
	for i := 1; i < len(v); i++ {
		if v[i] == '#' && (v[i-1] == ' ' || v[i-1] == '\t') {
			return strings.TrimSpace(v[:i]), nil
		}
	}
	return v, nil
}

func closingQuote(v string) int {
	for i := 1; i < len(v); i++ {
		switch v[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

// ParseValue lexes a single value: a %reference or a literal scalar.
func ParseValue(text string) (RawValue, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return RawValue{}, errors.New("empty value")
	}
	if strings.HasPrefix(text, "%") {
		name := text[1:]
		if !ValidKey(name) {
			return RawValue{}, fmt.Errorf("invalid reference %q", text)
		}
		return Ref(name), nil
	}
	s, err := ParseScalar(text)
	if err != nil {
		return RawValue{}, err
	}
	return Literal(s), nil
}

// ParseScalar parses a literal value.
func ParseScalar(text string) (Scalar, error) {
	switch {
	case strings.HasPrefix(text, "#"):
		c, err := ParseColor(text)
		if err != nil {
			return Scalar{}, err
		}
		return ColorValue(c), nil
	case strings.HasPrefix(text, `"`):
		s, err := strconv.Unquote(text)
		if err != nil {
			return Scalar{}, fmt.Errorf("invalid string %s", text)
		}
		return StringValue(s), nil
	case text == "true" || text == "false":
		return BoolValue(text == "true"), nil
	case intPattern.MatchString(text):
		n, err := parseInt32(text)
		if err != nil {
			return Scalar{}, err
		}
		return IntValue(int32(n)), nil
	case floatPattern.MatchString(text):
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Scalar{}, fmt.Errorf("invalid float: %s", text)
		}
		return FloatValue(f), nil
	}
	if m := dimPattern.FindStringSubmatch(text); m != nil {
		d, err := parseDimension(m)
		if err != nil {
			return Scalar{}, err
		}
		return DimensionValue(d), nil
	}
	if m := insetsPattern.FindStringSubmatch(text); m != nil {
		var n [4]int
		for i := range n {
			v, err := parseInt32(m[i+1])
			if err != nil {
				return Scalar{}, err
			}
			n[i] = v
		}
		return InsetsValue(Insets{Top: n[0], Left: n[1], Bottom: n[2], Right: n[3]}), nil
	}
	if m := tagPattern.FindStringSubmatch(text); m != nil {
		return parseTagged(m[1], strings.TrimSpace(m[2]), text)
	}
	if wordPattern.MatchString(text) {
		return StringValue(text), nil
	}
	return Scalar{}, errors.New("unrecognized value")
}

// parseInt32 parses a decimal integer that must fit in 32 bits.
func parseInt32(text string) (int, error) {
	n, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("integer out of range: %s", text)
	}
	return int(n), nil
}

// parseDimension reads the width and height groups of a dimPattern match.
func parseDimension(m []string) (Dimension, error) {
	w, err := parseInt32(m[1])
	if err != nil {
		return Dimension{}, err
	}
	h, err := parseInt32(m[2])
	if err != nil {
		return Dimension{}, err
	}
	return Dimension{W: w, H: h}, nil
}

func parseTagged(tag, arg, text string) (Scalar, error) {
	switch tag {
	case "opacity":
		f, err := strconv.ParseFloat(arg, 64)
		if err != nil || f < 0 || f > 1 {
			return Scalar{}, fmt.Errorf("opacity must be a number in [0,1]: %s", arg)
		}
		return OpacityValue(f), nil
	case "icon":
		path, size, hasSize := strings.Cut(arg, ",")
		path = strings.TrimSpace(path)
		if path == "" {
			return Scalar{}, errors.New("icon path is empty")
		}
		ref := IconRef{Path: path}
		if hasSize {
			m := dimPattern.FindStringSubmatch(strings.TrimSpace(size))
			if m == nil {
				return Scalar{}, fmt.Errorf("invalid icon size %q", strings.TrimSpace(size))
			}
			d, err := parseDimension(m)
			if err != nil {
				return Scalar{}, err
			}
			ref.Size = d
		}
		return IconValue(ref), nil
	}
	return StringValue(text), nil
}
