package tomledit

import (
	"fmt"
	"math"
	"strings"
)

// parseRawKey parses a raw TOML key expression (bare, quoted, or dotted)
// and returns the parsed key parts and the trimmed raw key text. It
// reuses the lexer/parser infrastructure for full syntax validation.
func parseRawKey(raw string) ([]KeyPart, string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, "", ErrEmptyKey
	}
	p := newParser(raw)

	if p.at(TokWhitespace) {
		p.advance()
	}

	parts, keyRaw, err := p.parseKey()
	if err != nil {
		return nil, "", err
	}

	if p.at(TokWhitespace) {
		p.advance()
	}

	if !p.at(TokEOF) {
		return nil, "", fmt.Errorf("%w: %q", ErrUnexpectedContent, p.cur.Text)
	}

	return parts, keyRaw, nil
}

// validateValueType checks that val is a valid TOML value node.
func validateValueType(val Node) error {
	if val == nil {
		return ErrNilValue
	}
	switch val.(type) {
	case *StringNode, *NumberNode, *BooleanNode, *DateTimeNode, *ArrayNode, *InlineTableNode:
		return nil
	default:
		return fmt.Errorf("%w: %T; expected string, number, bool, datetime, array, or inline table", ErrInvalidValueType, val)
	}
}

// validateDocumentNode checks that node is a valid top-level document node.
func validateDocumentNode(node Node) error {
	if node == nil {
		return ErrNilNode
	}
	switch node.(type) {
	case *KeyValue, *TableNode, *ArrayOfTables, *CommentNode, *WhitespaceNode:
		return nil
	default:
		return fmt.Errorf("%w: %T; expected *KeyValue, *TableNode, *ArrayOfTables, *CommentNode, or *WhitespaceNode", ErrInvalidNodeType, node)
	}
}

// escapeBasicString escapes a Go string for use inside TOML double quotes.
func escapeBasicString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			switch {
			case r < 0x20 || r == 0x7F:
				fmt.Fprintf(&b, `\u%04X`, r)
			case r > 0xFFFF:
				fmt.Fprintf(&b, `\U%08X`, r)
			default:
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// NewString creates a new StringNode with the given Go string value,
// properly escaped and quoted for TOML.
func NewString(s string) *StringNode {
	return &StringNode{leafNode: newLeaf(NodeString, `"`+escapeBasicString(s)+`"`)}
}

// NewInteger creates a new NumberNode with a decimal integer representation.
func NewInteger(v int64) *NumberNode {
	return &NumberNode{leafNode: newLeaf(NodeNumber, fmt.Sprintf("%d", v))}
}

// NewFloat creates a new NumberNode with a float representation.
// Handles inf and nan values.
func NewFloat(v float64) *NumberNode {
	var text string
	switch {
	case math.IsInf(v, 1):
		text = "inf"
	case math.IsInf(v, -1):
		text = "-inf"
	case math.IsNaN(v):
		text = "nan"
	default:
		text = fmt.Sprintf("%v", v)
		if !strings.Contains(text, ".") && !strings.Contains(text, "e") {
			text += ".0"
		}
	}
	return &NumberNode{leafNode: newLeaf(NodeNumber, text)}
}

// NewBool creates a new BooleanNode.
func NewBool(v bool) *BooleanNode {
	text := "false"
	if v {
		text = "true"
	}
	return &BooleanNode{leafNode: newLeaf(NodeBoolean, text)}
}

// NewDateTime creates a new DateTimeNode with the given TOML datetime
// string, validated against the four TOML datetime forms.
func NewDateTime(s string) (*DateTimeNode, error) {
	if msg := validateDateTimeText(s); msg != "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDateTime, msg)
	}
	return &DateTimeNode{leafNode: newLeaf(NodeDateTime, s)}, nil
}

// NewKeyValue creates a new KeyValue node with standard formatting
// (key = val). The rawKey is validated as a TOML key expression.
func NewKeyValue(rawKey string, val Node) (*KeyValue, error) {
	if err := validateValueType(val); err != nil {
		return nil, err
	}
	parts, keyRaw, err := parseRawKey(rawKey)
	if err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}
	kv := &KeyValue{
		baseNode: baseNode{nodeType: NodeKeyValue},
		KeyParts: parts,
		RawKey:   keyRaw,
		PreEq:    " ",
		PostEq:   " ",
		Val:      val,
		RawVal:   val.Text(),
		Newline:  "\n",
	}
	setValueParent(val, kv)
	return kv, nil
}

// NewTable creates a new TableNode. The rawKey is validated as a TOML
// key expression and stored verbatim as the header content.
func NewTable(rawKey string) (*TableNode, error) {
	parts, _, err := parseRawKey(rawKey)
	if err != nil {
		return nil, fmt.Errorf("invalid table key: %w", err)
	}
	return &TableNode{
		baseNode:    baseNode{nodeType: NodeTable},
		RawHeader:   rawKey,
		HeaderParts: parts,
		Newline:     "\n",
	}, nil
}

// NewArrayOfTables creates a new ArrayOfTables node.
func NewArrayOfTables(rawKey string) (*ArrayOfTables, error) {
	parts, _, err := parseRawKey(rawKey)
	if err != nil {
		return nil, fmt.Errorf("invalid array-of-tables key: %w", err)
	}
	return &ArrayOfTables{
		baseNode:    baseNode{nodeType: NodeArrayOfTables},
		RawHeader:   rawKey,
		HeaderParts: parts,
		Newline:     "\n",
	}, nil
}

// NewArray creates a new ArrayNode with the given elements.
// Each element must be a valid TOML value node.
func NewArray(elements ...Node) (*ArrayNode, error) {
	for i, elem := range elements {
		if err := validateValueType(elem); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	elems := make([]Node, len(elements))
	copy(elems, elements)
	a := &ArrayNode{
		baseNode: baseNode{nodeType: NodeArray},
		Elements: elems,
	}
	for _, elem := range a.Elements {
		setValueParent(elem, a)
	}
	a.text = generateArrayText(a.Elements)
	return a, nil
}

// NewInlineTable creates a new InlineTableNode with the given key-value
// entries. Validates that entries are non-nil and keys don't collide.
func NewInlineTable(entries ...*KeyValue) (*InlineTableNode, error) {
	for i, kv := range entries {
		if kv == nil {
			return nil, fmt.Errorf("entry %d: %w", i, ErrNilEntry)
		}
	}
	seen := make(map[string]bool)
	for _, kv := range entries {
		path := keyPartsToPath(kv.KeyParts)
		if seen[path] {
			return nil, fmt.Errorf("%w: %q in inline table", ErrDuplicateKey, path)
		}
		seen[path] = true
		for i := 1; i < len(kv.KeyParts); i++ {
			prefix := keyPartsToPath(kv.KeyParts[:i])
			if seen[prefix] {
				return nil, fmt.Errorf("%w: %q in inline table", ErrKeyConflict, prefix)
			}
		}
	}
	kvs := make([]*KeyValue, len(entries))
	copy(kvs, entries)
	n := &InlineTableNode{
		baseNode: baseNode{nodeType: NodeInlineTable},
		Entries:  kvs,
	}
	for _, kv := range kvs {
		kv.setParent(n)
	}
	n.text = generateInlineTableText(n.Entries)
	return n, nil
}

// NewComment creates a CommentNode. The text should be the full comment
// including the leading "#".
func NewComment(text string) (*CommentNode, error) {
	for _, r := range text {
		if r == '\n' || r == '\r' {
			return nil, ErrCommentNewline
		}
		if r != '\t' && isControlChar(r) {
			return nil, fmt.Errorf("%w: U+%04X", ErrCommentControl, r)
		}
	}
	return &CommentNode{leafNode: newLeaf(NodeComment, text)}, nil
}

// NewWhitespace creates a WhitespaceNode. The string may contain only
// spaces, tabs, and line endings.
func NewWhitespace(text string) (*WhitespaceNode, error) {
	for _, c := range text {
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			return nil, fmt.Errorf("%w: %q", ErrInvalidWsChar, c)
		}
	}
	return &WhitespaceNode{leafNode: newLeaf(NodeWhitespace, text)}, nil
}

// generateArrayText produces the TOML text for an array from its elements.
func generateArrayText(elements []Node) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, elem := range elements {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(elem.Text())
	}
	b.WriteByte(']')
	return b.String()
}

// generateInlineTableText produces the TOML text for an inline table
// from its entries.
func generateInlineTableText(entries []*KeyValue) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, kv := range entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(kv.RawKey)
		b.WriteString(kv.PreEq)
		b.WriteByte('=')
		b.WriteString(kv.PostEq)
		if kv.Val != nil {
			b.WriteString(kv.Val.Text())
		}
	}
	b.WriteByte('}')
	return b.String()
}

// ParseValue turns a raw value literal into a typed value node.
//
// Literals that open a quoted string, array, or inline table must parse
// completely as that TOML value; anything malformed is rejected with
// ErrInvalidValue. Bare tokens are classified by shape: booleans,
// numbers, and datetimes become their typed nodes when they validate,
// and everything else falls back to a quoted TOML string, so version
// strings like "0.2.0" or globs like "*.pyw" just work.
func ParseValue(raw string) (Node, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return NewString(raw), nil
	}

	switch trimmed[0] {
	case '"', '\'', '[', '{':
		return parseStructuredValue(raw, trimmed)
	}

	switch classifyBareToken(trimmed) {
	case TokBoolean:
		return NewBool(trimmed == "true"), nil
	case TokInteger, TokFloat:
		if validateNumberText(trimmed) == "" {
			return &NumberNode{leafNode: newLeaf(NodeNumber, trimmed)}, nil
		}
	case TokDateTime:
		if validateDateTimeText(trimmed) == "" {
			return &DateTimeNode{leafNode: newLeaf(NodeDateTime, trimmed)}, nil
		}
	}
	return NewString(raw), nil
}

func parseStructuredValue(raw, trimmed string) (Node, error) {
	p := newParser(trimmed)
	p.lex.valueMode = true
	val, err := p.parseValue()
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %s", ErrInvalidValue, raw, parseErrMessage(err))
	}
	if p.at(TokWhitespace) {
		p.advance()
	}
	if !p.at(TokEOF) {
		return nil, fmt.Errorf("%w: %q: trailing content after value", ErrInvalidValue, raw)
	}
	return val, nil
}

// parseErrMessage extracts the bare message from a ParseError so the
// wrapped error stays single-line.
func parseErrMessage(err error) string {
	if pe, ok := err.(*ParseError); ok {
		return pe.Message
	}
	return err.Error()
}
