package tomledit

import (
	"fmt"
	"strings"
)

// ParseKeyPath parses a dotted key path into its unquoted segments,
// validating TOML key syntax. Quoted segments may contain dots:
// `plugins."repo.url"` has two segments.
func ParseKeyPath(path string) ([]string, error) {
	parts, _, err := parseRawKey(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %s", ErrInvalidPath, path, parseErrMessage(err))
	}
	segs := make([]string, len(parts))
	for i, p := range parts {
		segs[i] = p.Unquoted
	}
	return segs, nil
}

// renderKeyPath turns path segments back into TOML key syntax, quoting
// segments that are not representable as bare keys.
func renderKeyPath(segs []string) string {
	var b strings.Builder
	for i, seg := range segs {
		if i > 0 {
			b.WriteByte('.')
		}
		if isBareKeySegment(seg) {
			b.WriteString(seg)
		} else {
			b.WriteByte('"')
			b.WriteString(escapeBasicString(seg))
			b.WriteByte('"')
		}
	}
	return b.String()
}

func isBareKeySegment(seg string) bool {
	if seg == "" {
		return false
	}
	for _, r := range seg {
		if !isBareKeyChar(r) {
			return false
		}
	}
	return true
}

func joinSegs(segs []string) string {
	return strings.Join(segs, ".")
}

// editScope is the container a resolved path lands in: the document
// root, an explicit [table] or [[table]] section, or an inline table
// reached through dotted keys. keySegs holds the path segments that
// remain to be addressed inside the container.
type editScope struct {
	doc     *Document
	table   *TableNode
	aot     *ArrayOfTables
	inline  *InlineTableNode
	keySegs []string
	absPath []string // full path, for error messages
}

// resolveScope locates the container for segs, descending through
// explicit table headers and inline tables. It never creates nodes;
// writes with leftover segments emit dotted keys in the container.
//
// An intermediate segment held by a non-table value is a type
// conflict, as is any path that would descend through an array of
// tables (array elements are not addressable by key path).
func resolveScope(doc *Document, segs []string) (*editScope, error) {
	if len(segs) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	// A strict prefix of the path naming an array of tables would
	// require descending into its elements.
	for _, aot := range doc.ArraysOfTables() {
		for i := 1; i < len(segs); i++ {
			if matchKeyParts(aot.HeaderParts, segs[:i]) {
				return nil, fmt.Errorf("%w: %q is an array of tables; cannot address keys inside its elements",
					ErrTypeConflict, joinSegs(segs[:i]))
			}
		}
	}

	scope := &editScope{doc: doc, keySegs: segs, absPath: segs}

	// Longest explicit table header that is a strict prefix of the path.
	for prefixLen := len(segs) - 1; prefixLen >= 1; prefixLen-- {
		if t := findTableByParts(doc, segs[:prefixLen]); t != nil {
			scope.table = t
			scope.keySegs = segs[prefixLen:]
			break
		}
	}

	// Descend through dotted keys into inline tables.
	if err := scope.descendInline(); err != nil {
		return nil, err
	}
	return scope, nil
}

func findTableByParts(doc *Document, segs []string) *TableNode {
	for _, n := range doc.Nodes {
		if t, ok := n.(*TableNode); ok && matchKeyParts(t.HeaderParts, segs) {
			return t
		}
	}
	return nil
}

// findAOTByParts returns the first [[header]] matching segs exactly.
func findAOTByParts(doc *Document, segs []string) *ArrayOfTables {
	for _, n := range doc.Nodes {
		if a, ok := n.(*ArrayOfTables); ok && matchKeyParts(a.HeaderParts, segs) {
			return a
		}
	}
	return nil
}

// descendInline repeatedly looks for a key-value whose key is a strict
// prefix of the remaining segments. An inline-table value narrows the
// scope; any other value type blocks the path.
func (s *editScope) descendInline() error {
	for {
		kv, matched := s.findPrefixKV()
		if kv == nil {
			return nil
		}
		it, ok := kv.Val.(*InlineTableNode)
		if !ok {
			consumed := len(s.absPath) - len(s.keySegs) + matched
			return fmt.Errorf("%w: %q is not a table", ErrTypeConflict, joinSegs(s.absPath[:consumed]))
		}
		s.inline = it
		s.keySegs = s.keySegs[matched:]
	}
}

// findPrefixKV finds the key-value with the longest key that is a
// strict prefix of keySegs within the current container.
func (s *editScope) findPrefixKV() (*KeyValue, int) {
	for n := len(s.keySegs) - 1; n >= 1; n-- {
		if s.inline != nil {
			for _, kv := range s.inline.Entries {
				if matchKeyParts(kv.KeyParts, s.keySegs[:n]) {
					return kv, n
				}
			}
			continue
		}
		for _, e := range s.containerEntries() {
			if kv, ok := e.(*KeyValue); ok && matchKeyParts(kv.KeyParts, s.keySegs[:n]) {
				return kv, n
			}
		}
	}
	return nil, 0
}

func (s *editScope) containerEntries() []Node {
	switch {
	case s.table != nil:
		return s.table.Entries
	case s.aot != nil:
		return s.aot.Entries
	default:
		return s.doc.Nodes
	}
}

// lookup finds the key-value addressed by the remaining segments, or
// nil when absent.
func (s *editScope) lookup() *KeyValue {
	if s.inline != nil {
		return findInKVEntries(s.inline.Entries, s.keySegs)
	}
	return findInEntries(s.containerEntries(), s.keySegs)
}

// insert adds a new key-value for the remaining segments to the
// container, rendered as a dotted key when more than one segment is
// left. New root-level keys go before the first table header so they
// stay in the root scope.
func (s *editScope) insert(val Node) error {
	kv, err := NewKeyValue(renderKeyPath(s.keySegs), val)
	if err != nil {
		return err
	}
	switch {
	case s.inline != nil:
		return s.inline.Append(kv)
	case s.table != nil:
		ensureEntriesEndWithNewline(&s.table.Entries, &s.table.Newline)
		return s.table.Append(kv)
	case s.aot != nil:
		ensureEntriesEndWithNewline(&s.aot.Entries, &s.aot.Newline)
		return s.aot.Append(kv)
	default:
		return s.insertAtRoot(kv)
	}
}

func (s *editScope) insertAtRoot(kv *KeyValue) error {
	idx := -1
	for i, n := range s.doc.Nodes {
		switch n.(type) {
		case *TableNode, *ArrayOfTables:
			idx = i
		}
		if idx >= 0 {
			break
		}
	}
	if idx < 0 {
		ensureEntriesEndWithNewline(&s.doc.Nodes, nil)
		return s.doc.Append(kv)
	}
	return s.doc.InsertAt(idx, kv)
}

// ensureEntriesEndWithNewline terminates the last line of a section so
// an appended entry starts on its own line. headerNewline covers the
// case of a bare header with no entries at end of file.
func ensureEntriesEndWithNewline(entries *[]Node, headerNewline *string) {
	for i := len(*entries) - 1; i >= 0; i-- {
		switch n := (*entries)[i].(type) {
		case *KeyValue:
			if n.Newline == "" && !triviaEndsWithNewline(n.TrailingTrivia) {
				n.Newline = "\n"
			}
			return
		case *WhitespaceNode:
			if strings.HasSuffix(n.Text(), "\n") {
				return
			}
		case *CommentNode:
			// Comment with no line ending, only possible at end of file.
			ws, _ := NewWhitespace("\n")
			*entries = append(*entries, ws)
			return
		}
	}
	if headerNewline != nil && *headerNewline == "" {
		*headerNewline = "\n"
	}
}

func triviaEndsWithNewline(trivia []Node) bool {
	if len(trivia) == 0 {
		return false
	}
	return strings.HasSuffix(trivia[len(trivia)-1].Text(), "\n")
}

// remove deletes kv from whatever container actually holds it, using
// the parent link set at parse or insert time.
func removeKeyValue(kv *KeyValue) bool {
	switch p := kv.Parent().(type) {
	case *InlineTableNode:
		for i, e := range p.Entries {
			if e == kv {
				p.Entries = append(p.Entries[:i], p.Entries[i+1:]...)
				p.text = generateInlineTableText(p.Entries)
				regenerateAncestorText(p)
				return true
			}
		}
	case *TableNode:
		return removeNodeByIdentity(&p.Entries, kv)
	case *ArrayOfTables:
		return removeNodeByIdentity(&p.Entries, kv)
	case *Document:
		return removeNodeByIdentity(&p.Nodes, kv)
	}
	return false
}

func removeNodeByIdentity(nodes *[]Node, target Node) bool {
	for i, n := range *nodes {
		if n == target {
			*nodes = append((*nodes)[:i], (*nodes)[i+1:]...)
			return true
		}
	}
	return false
}
