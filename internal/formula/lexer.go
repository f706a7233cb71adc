package formula

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/solatis/formulary/internal/types"
)

// tokenKind represents the kind of a lexical token.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokRef // {identifier}

	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma

	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercent
	tokCaret
	tokAmp
	tokEq  // = or ==
	tokNeq // != or <>
	tokLt
	tokLte
	tokGt
	tokGte
	tokAnd // &&
	tokOr  // ||
	tokBang
)

var tokenNames = map[tokenKind]string{
	tokEOF:      "end of formula",
	tokNumber:   "number",
	tokString:   "string",
	tokIdent:    "identifier",
	tokRef:      "reference",
	tokLParen:   "'('",
	tokRParen:   "')'",
	tokLBracket: "'['",
	tokRBracket: "']'",
	tokComma:    "','",
}

func (k tokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	return "operator"
}

// token is one lexical unit. Pos is the byte offset of its first character.
type token struct {
	kind  tokenKind
	text  string
	value any // float64 for numbers, string for strings, id for references
	pos   int
}

// SyntaxError reports a formula that cannot be parsed.
// Pos is the byte offset in the source where the problem was found.
type SyntaxError struct {
	Message string
	Pos     int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at position %d", e.Message, e.Pos+1)
}

// Unwrap lets callers match with errors.Is(err, types.ErrFormulaSyntax).
func (e *SyntaxError) Unwrap() error {
	return types.ErrFormulaSyntax
}

func syntaxErrorf(pos int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Message: fmt.Sprintf(format, args...), Pos: pos}
}

// lex splits src into tokens, ending with a tokEOF token.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case isDigit(r) || (r == '.' && i+1 < len(src) && isDigit(rune(src[i+1]))):
			tok, next, err := lexNumber(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		case r == '"' || r == '\'':
			tok, next, err := lexString(src, i, byte(r))
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		case r == '{':
			tok, next, err := lexReference(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		case isIdentStart(r):
			start := i
			for i < len(src) {
				c, sz := utf8.DecodeRuneInString(src[i:])
				if !isIdentPart(c) {
					break
				}
				i += sz
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
		default:
			tok, err := lexOperator(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i += len(tok.text)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

// lexNumber reads digits, an optional fraction, and an optional exponent.
// A number running directly into a letter, digit or second '.' is malformed.
func lexNumber(src string, start int) (token, int, error) {
	i := start
	for i < len(src) && isDigit(rune(src[i])) {
		i++
	}
	if i < len(src) && src[i] == '.' {
		i++
		for i < len(src) && isDigit(rune(src[i])) {
			i++
		}
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && isDigit(rune(src[j])) {
			for j < len(src) && isDigit(rune(src[j])) {
				j++
			}
			i = j
		}
	}
	if i < len(src) {
		if r, _ := utf8.DecodeRuneInString(src[i:]); r == '.' || isIdentPart(r) {
			return token{}, 0, syntaxErrorf(start, "malformed number %q", src[start:i]+string(r))
		}
	}
	text := src[start:i]
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || !isFinite(f) {
		return token{}, 0, syntaxErrorf(start, "malformed number %q", text)
	}
	return token{kind: tokNumber, text: text, value: f, pos: start}, i, nil
}

// lexString reads a quoted string. Backslash escapes the next character;
// \n and \t are recognized.
func lexString(src string, start int, quote byte) (token, int, error) {
	var b strings.Builder
	i := start + 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == quote:
			return token{kind: tokString, text: src[start : i+1], value: b.String(), pos: start}, i + 1, nil
		case c == '\\' && i+1 < len(src):
			switch src[i+1] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(src[i+1])
			}
			i += 2
		default:
			b.WriteByte(c)
			i++
		}
	}
	return token{}, 0, syntaxErrorf(start, "unterminated string literal")
}

// lexReference reads {identifier}. The identifier rule matches
// ExtractReferences: everything up to the next '}' with no nested '{',
// surrounding whitespace trimmed.
func lexReference(src string, start int) (token, int, error) {
	end := strings.IndexAny(src[start+1:], "{}")
	if end < 0 || src[start+1+end] == '{' {
		return token{}, 0, syntaxErrorf(start, "unterminated reference")
	}
	closing := start + 1 + end
	id := strings.TrimSpace(src[start+1 : closing])
	if id == "" {
		return token{}, 0, syntaxErrorf(start, "empty reference")
	}
	return token{kind: tokRef, text: src[start : closing+1], value: id, pos: start}, closing + 1, nil
}

var singleCharTokens = map[byte]tokenKind{
	'(': tokLParen, ')': tokRParen, '[': tokLBracket, ']': tokRBracket, ',': tokComma,
	'+': tokPlus, '-': tokMinus, '*': tokStar, '/': tokSlash, '%': tokPercent,
	'^': tokCaret, '&': tokAmp, '=': tokEq, '<': tokLt, '>': tokGt, '!': tokBang,
}

func lexOperator(src string, i int) (token, error) {
	two := ""
	if i+1 < len(src) {
		two = src[i : i+2]
	}
	switch two {
	case "==":
		return token{kind: tokEq, text: two, pos: i}, nil
	case "!=", "<>":
		return token{kind: tokNeq, text: two, pos: i}, nil
	case "<=":
		return token{kind: tokLte, text: two, pos: i}, nil
	case ">=":
		return token{kind: tokGte, text: two, pos: i}, nil
	case "&&":
		return token{kind: tokAnd, text: two, pos: i}, nil
	case "||":
		return token{kind: tokOr, text: two, pos: i}, nil
	}

	if kind, ok := singleCharTokens[src[i]]; ok {
		return token{kind: kind, text: src[i : i+1], pos: i}, nil
	}
	if src[i] == '}' {
		return token{}, syntaxErrorf(i, "unexpected '}' without matching '{'")
	}
	r, _ := utf8.DecodeRuneInString(src[i:])
	return token{}, syntaxErrorf(i, "unexpected character %q", r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
