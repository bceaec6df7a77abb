package config

import "fmt"

// parser implements the recursive-descent grammar of §4.1 with panic-mode
// error recovery: on a syntax error it records a diagnostic and resynchronizes
// at the next closing brace/bracket or an `IDENT ':'` lookahead that plausibly
// starts the next member, then keeps going so a single parse surfaces every
// error in the file.
type parser struct {
	lex   *lexer
	file  string
	arena *arena

	tok     token
	lookTok *token // one-token pushback buffer: synchronize parks the ':' of an IDENT ':' lookahead here

	diags []Diagnostic
}

func newParser(file, src string, a *arena) *parser {
	p := &parser{lex: newLexer(src), file: file, arena: a}
	p.advance()
	return p
}

func (p *parser) advance() {
	if p.lookTok != nil {
		p.tok = *p.lookTok
		p.lookTok = nil
		return
	}
	p.tok = p.lex.next()
}

// newNode hands out an arena-owned node; nodes never outlive p.arena.
func (p *parser) newNode(kind nodeKind, pos position) *node {
	n := p.arena.alloc()
	n.kind = kind
	n.pos = pos
	return n
}

func (p *parser) errorf(pos position, format string, args ...any) {
	p.diags = append(p.diags, Diagnostic{
		File:    p.file,
		Line:    pos.line,
		Col:     pos.col,
		Message: fmt.Sprintf(format, args...),
	})
}

// parseDocument parses `document := object` and returns the root node plus
// any diagnostics collected along the way.
func (p *parser) parseDocument() (*node, []Diagnostic) {
	if p.tok.kind == tokInvalid {
		p.errorf(p.tok.pos, "%s", p.tok.text)
		p.synchronize()
	}
	root := p.parseObject()
	if p.tok.kind != tokEOF {
		p.errorf(p.tok.pos, "unexpected trailing content after document")
	}
	return root, p.diags
}

func (p *parser) parseObject() *node {
	startPos := p.tok.pos
	if p.tok.kind != tokLBrace {
		p.errorf(p.tok.pos, "expected '{' to start object")
		p.synchronize()
		return p.newNode(nodeObject, startPos)
	}
	p.advance()

	n := p.newNode(nodeObject, startPos)
	if p.tok.kind == tokRBrace {
		p.advance()
		return n
	}

	for {
		if p.tok.kind == tokInvalid {
			p.errorf(p.tok.pos, "%s", p.tok.text)
			p.synchronize()
			if p.tok.kind == tokRBrace || p.tok.kind == tokEOF {
				break
			}
			continue
		}
		if p.tok.kind == tokRBrace {
			break
		}
		key, ok := p.parseKey()
		if !ok {
			p.synchronize()
			if p.tok.kind == tokRBrace || p.tok.kind == tokEOF {
				break
			}
			continue
		}
		if p.tok.kind != tokColon {
			p.errorf(p.tok.pos, "expected ':' after member key %q", key)
			p.synchronize()
			if p.tok.kind == tokRBrace || p.tok.kind == tokEOF {
				break
			}
			continue
		}
		p.advance()
		val := p.parseValue()
		n.members = append(n.members, member{key: key, value: val})

		if p.tok.kind == tokComma {
			p.advance()
			if p.tok.kind == tokRBrace {
				break // trailing comma permitted
			}
			continue
		}
		break
	}

	if p.tok.kind != tokRBrace {
		p.errorf(p.tok.pos, "expected '}' to close object")
		p.synchronize()
	} else {
		p.advance()
	}
	return n
}

func (p *parser) parseKey() (string, bool) {
	switch p.tok.kind {
	case tokIdent:
		k := p.tok.text
		p.advance()
		return k, true
	case tokString:
		k := flattenLiteralParts(p.tok.parts)
		p.advance()
		return k, true
	default:
		p.errorf(p.tok.pos, "expected member key (identifier or string)")
		return "", false
	}
}

func (p *parser) parseArray() *node {
	startPos := p.tok.pos
	p.advance() // consume '['
	n := p.newNode(nodeArray, startPos)

	if p.tok.kind == tokRBracket {
		p.advance()
		return n
	}

	for {
		if p.tok.kind == tokInvalid {
			p.errorf(p.tok.pos, "%s", p.tok.text)
			p.synchronize()
			break
		}
		n.items = append(n.items, p.parseValue())

		if p.tok.kind == tokComma {
			p.advance()
			if p.tok.kind == tokRBracket {
				break
			}
			continue
		}
		break
	}

	if p.tok.kind != tokRBracket {
		p.errorf(p.tok.pos, "expected ']' to close array")
		p.synchronize()
	} else {
		p.advance()
	}
	return n
}

// parseValue implements `value := object | array | string | INT | 'true' |
// 'false' | 'null' | IDENT`. A bare identifier in value position is treated
// as a literal string (ergonomic keys/enums, §4.1).
func (p *parser) parseValue() *node {
	pos := p.tok.pos
	switch p.tok.kind {
	case tokLBrace:
		return p.parseObject()
	case tokLBracket:
		return p.parseArray()
	case tokString:
		n := p.newNode(nodeString, pos)
		n.parts = p.tok.parts
		p.advance()
		return n
	case tokInt:
		n := p.newNode(nodeInt, pos)
		n.ival = p.tok.ival
		p.advance()
		return n
	case tokTrue:
		p.advance()
		n := p.newNode(nodeBool, pos)
		n.bval = true
		return n
	case tokFalse:
		p.advance()
		return p.newNode(nodeBool, pos)
	case tokNull:
		p.advance()
		return p.newNode(nodeNull, pos)
	case tokIdent:
		n := p.newNode(nodeString, pos)
		n.parts = []stringPart{{literal: p.tok.text}}
		p.advance()
		return n
	case tokInvalid:
		p.errorf(pos, "%s", p.tok.text)
		p.synchronize()
		return p.newNode(nodeNull, pos)
	default:
		p.errorf(pos, "expected a value")
		p.synchronize()
		return p.newNode(nodeNull, pos)
	}
}

// synchronize implements panic-mode recovery (§4.1): skip tokens until the
// next closing brace/bracket, or an IDENT/STRING followed by ':' which
// plausibly starts the next member.
func (p *parser) synchronize() {
	for {
		switch p.tok.kind {
		case tokEOF, tokRBrace, tokRBracket:
			return
		case tokIdent, tokString:
			// Peek ahead: if the next token is ':', this looks like the start
			// of a new member; stop here so the caller can resume parsing it.
			save := p.tok
			p.advance()
			if p.tok.kind == tokColon {
				colon := p.tok
				p.lookTok = &colon
				p.tok = save
				return
			}
		default:
			p.advance()
		}
	}
}

func flattenLiteralParts(parts []stringPart) string {
	if len(parts) == 1 && parts[0].varRef == "" {
		return parts[0].literal
	}
	out := ""
	for _, part := range parts {
		if part.varRef != "" {
			out += "&{" + part.varRef + "}"
		} else {
			out += part.literal
		}
	}
	return out
}

