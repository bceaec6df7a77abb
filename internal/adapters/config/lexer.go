package config

import (
	"strconv"
	"strings"
)

// tokenKind enumerates the lexical tokens of §4.1's grammar.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLBrace
	tokRBrace
	tokLBracket
	tokRBracket
	tokColon
	tokComma
	tokString // backtick-delimited, possibly composite
	tokIdent
	tokInt
	tokTrue
	tokFalse
	tokNull
	tokInvalid
)

type token struct {
	kind  tokenKind
	text  string       // raw identifier/ident text, or error message for tokInvalid
	parts []stringPart // populated for tokString
	ival  int64        // populated for tokInt
	pos   position
}

// lexer tokenizes build-description text. Whitespace and `// ...` line
// comments are insignificant (§4.1).
type lexer struct {
	src       string
	offset    int
	line, col int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) curPos() position { return position{line: l.line, col: l.col} }

func (l *lexer) peekByte() (byte, bool) {
	if l.offset >= len(l.src) {
		return 0, false
	}
	return l.src[l.offset], true
}

func (l *lexer) advance() (byte, bool) {
	b, ok := l.peekByte()
	if !ok {
		return 0, false
	}
	l.offset++
	if b == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return b, true
}

func (l *lexer) skipInsignificant() {
	for {
		b, ok := l.peekByte()
		if !ok {
			return
		}
		switch {
		case b == ' ' || b == '\t' || b == '\r' || b == '\n':
			l.advance()
		case b == '/' && l.offset+1 < len(l.src) && l.src[l.offset+1] == '/':
			for {
				b, ok := l.peekByte()
				if !ok || b == '\n' {
					break
				}
				l.advance()
			}
		default:
			return
		}
	}
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9') || b == '.'
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// next returns the next significant token.
func (l *lexer) next() token {
	l.skipInsignificant()
	pos := l.curPos()
	b, ok := l.peekByte()
	if !ok {
		return token{kind: tokEOF, pos: pos}
	}

	switch b {
	case '{':
		l.advance()
		return token{kind: tokLBrace, pos: pos}
	case '}':
		l.advance()
		return token{kind: tokRBrace, pos: pos}
	case '[':
		l.advance()
		return token{kind: tokLBracket, pos: pos}
	case ']':
		l.advance()
		return token{kind: tokRBracket, pos: pos}
	case ':':
		l.advance()
		return token{kind: tokColon, pos: pos}
	case ',':
		l.advance()
		return token{kind: tokComma, pos: pos}
	case '`':
		return l.lexString(pos)
	}

	if b == '-' || isDigit(b) {
		return l.lexNumber(pos)
	}
	if isIdentStart(b) {
		return l.lexIdent(pos)
	}

	l.advance()
	return token{kind: tokInvalid, text: "unexpected character " + string(b), pos: pos}
}

func (l *lexer) lexNumber(pos position) token {
	var sb strings.Builder
	if b, _ := l.peekByte(); b == '-' {
		sb.WriteByte(b)
		l.advance()
	}
	digits := 0
	for {
		b, ok := l.peekByte()
		if !ok || !isDigit(b) {
			break
		}
		sb.WriteByte(b)
		l.advance()
		digits++
	}
	if digits == 0 {
		return token{kind: tokInvalid, text: "malformed integer literal", pos: pos}
	}
	n, err := strconv.ParseInt(sb.String(), 10, 64)
	if err != nil {
		return token{kind: tokInvalid, text: "malformed integer literal", pos: pos}
	}
	return token{kind: tokInt, ival: n, pos: pos}
}

func (l *lexer) lexIdent(pos position) token {
	var sb strings.Builder
	for {
		b, ok := l.peekByte()
		if !ok || !isIdentCont(b) {
			break
		}
		sb.WriteByte(b)
		l.advance()
	}
	text := sb.String()
	switch text {
	case "true":
		return token{kind: tokTrue, text: text, pos: pos}
	case "false":
		return token{kind: tokFalse, text: text, pos: pos}
	case "null":
		return token{kind: tokNull, text: text, pos: pos}
	default:
		return token{kind: tokIdent, text: text, pos: pos}
	}
}

// lexString consumes a backtick-delimited literal, splitting it into literal
// and "&{NAME}" reference segments as it goes. There are no escape
// sequences; an unterminated backtick is a hard lexical error (§4.1).
func (l *lexer) lexString(pos position) token {
	l.advance() // opening backtick
	var parts []stringPart
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, stringPart{literal: lit.String()})
			lit.Reset()
		}
	}

	for {
		b, ok := l.peekByte()
		if !ok {
			return token{kind: tokInvalid, text: "unterminated string literal", pos: pos}
		}
		if b == '`' {
			l.advance()
			flush()
			if len(parts) == 0 {
				parts = []stringPart{{literal: ""}}
			}
			return token{kind: tokString, parts: parts, pos: pos}
		}
		if b == '&' && l.offset+1 < len(l.src) && l.src[l.offset+1] == '{' {
			l.advance()
			l.advance()
			var name strings.Builder
			closed := false
			for {
				nb, ok := l.peekByte()
				if !ok {
					return token{kind: tokInvalid, text: "unterminated interpolation placeholder", pos: pos}
				}
				if nb == '}' {
					l.advance()
					closed = true
					break
				}
				if nb == '`' {
					break
				}
				name.WriteByte(nb)
				l.advance()
			}
			if !closed {
				return token{kind: tokInvalid, text: "unterminated interpolation placeholder", pos: pos}
			}
			flush()
			parts = append(parts, stringPart{varRef: name.String()})
			continue
		}
		lit.WriteByte(b)
		l.advance()
	}
}
