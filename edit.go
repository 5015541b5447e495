package tomledit

import (
	"fmt"
	"strings"
)

// Mode selects the mutation semantics for an edit.
type Mode int

const (
	// ModeNone marks a request that carries no mode switch.
	ModeNone Mode = iota
	// ModeAuto appends when the target is an array, otherwise sets.
	ModeAuto
	// ModeSet replaces the target value, arrays included.
	ModeSet
	// ModeAdd appends to the target array, coercing a scalar into a
	// one-element array first.
	ModeAdd
	// ModeRemove deletes the target key, or one array element when the
	// request carries a value.
	ModeRemove
)

// ParseMode maps a mode-switch token to its Mode.
func ParseMode(tok string) (Mode, bool) {
	switch tok {
	case "@":
		return ModeAuto, true
	case "=":
		return ModeSet, true
	case "+":
		return ModeAdd, true
	case "-":
		return ModeRemove, true
	}
	return ModeNone, false
}

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeSet:
		return "set"
	case ModeAdd:
		return "add"
	case ModeRemove:
		return "remove"
	default:
		return "none"
	}
}

// Apply performs one edit against the document: path is a dotted key,
// and rawValue is an unparsed TOML value literal. hasValue
// distinguishes a bare remove (whole entry) from an element remove;
// modes other than ModeRemove require a value.
func Apply(doc *Document, mode Mode, path string, rawValue string, hasValue bool) error {
	segs, err := ParseKeyPath(path)
	if err != nil {
		return err
	}
	return applySegs(doc, mode, segs, rawValue, hasValue)
}

func applySegs(doc *Document, mode Mode, segs []string, rawValue string, hasValue bool) error {
	switch mode {
	case ModeAuto, ModeSet, ModeAdd:
		if !hasValue {
			return fmt.Errorf("%w: missing value for %s of %q", ErrInvalidValue, mode, joinSegs(segs))
		}
	case ModeRemove:
	default:
		return fmt.Errorf("cannot apply mode %q", mode)
	}

	// The whole path naming a [table] or [[table]] section.
	if t := findTableByParts(doc, segs); t != nil {
		return applyToSection(doc, mode, segs, hasValue)
	}
	if a := findAOTByParts(doc, segs); a != nil {
		return applyToSection(doc, mode, segs, hasValue)
	}

	scope, err := resolveScope(doc, segs)
	if err != nil {
		return err
	}

	switch mode {
	case ModeRemove:
		return applyRemove(scope, rawValue, hasValue)
	case ModeSet:
		return applySet(scope, rawValue)
	case ModeAdd:
		return applyAdd(scope, rawValue)
	default: // ModeAuto
		if kv := scope.lookup(); kv != nil {
			if _, isArray := kv.Val.(*ArrayNode); isArray {
				return applyAdd(scope, rawValue)
			}
		}
		return applySet(scope, rawValue)
	}
}

// applyToSection handles edits whose full path names an explicit
// section header. Only a bare remove is meaningful; replacing a whole
// section with a value would silently drop its entries.
func applyToSection(doc *Document, mode Mode, segs []string, hasValue bool) error {
	if mode != ModeRemove {
		return fmt.Errorf("%w: %q is a table, not a value", ErrTypeConflict, joinSegs(segs))
	}
	if hasValue {
		return fmt.Errorf("%w: %q is a table; element removal needs an array", ErrTypeConflict, joinSegs(segs))
	}
	if !removeSection(doc, segs) {
		return fmt.Errorf("%w: %q", ErrNotFound, joinSegs(segs))
	}
	return nil
}

// removeSection deletes every section whose header is the path or
// nested under it, including the nested [a.b] style sections.
func removeSection(doc *Document, segs []string) bool {
	removed := false
	kept := doc.Nodes[:0]
	for _, n := range doc.Nodes {
		var parts []KeyPart
		switch t := n.(type) {
		case *TableNode:
			parts = t.HeaderParts
		case *ArrayOfTables:
			parts = t.HeaderParts
		default:
			kept = append(kept, n)
			continue
		}
		if headerUnderPath(parts, segs) {
			removed = true
			continue
		}
		kept = append(kept, n)
	}
	doc.Nodes = kept
	return removed
}

func headerUnderPath(parts []KeyPart, segs []string) bool {
	if len(parts) < len(segs) {
		return false
	}
	return matchKeyParts(parts[:len(segs)], segs)
}

func applySet(scope *editScope, rawValue string) error {
	val, err := ParseValue(rawValue)
	if err != nil {
		return err
	}
	if kv := scope.lookup(); kv != nil {
		return kv.SetValue(val)
	}
	return scope.insert(val)
}

func applyAdd(scope *editScope, rawValue string) error {
	val, err := ParseValue(rawValue)
	if err != nil {
		return err
	}

	kv := scope.lookup()
	if kv == nil {
		arr, err := NewArray(val)
		if err != nil {
			return err
		}
		return scope.insert(arr)
	}

	if arr, ok := kv.Val.(*ArrayNode); ok {
		appendPreservingStyle(arr, val)
		regenerateAncestorText(arr)
		return nil
	}

	// Coerce the existing value into a one-element array, keeping its
	// original literal text as the first element.
	arr, err := NewArray(kv.Val, val)
	if err != nil {
		return err
	}
	return kv.SetValue(arr)
}

func applyRemove(scope *editScope, rawValue string, hasValue bool) error {
	kv := scope.lookup()

	if hasValue {
		if kv == nil {
			return fmt.Errorf("%w: %q", ErrNotFound, joinSegs(scope.absPath))
		}
		arr, ok := kv.Val.(*ArrayNode)
		if !ok {
			return fmt.Errorf("%w: %q is not an array; removal with a value targets array elements",
				ErrTypeConflict, joinSegs(scope.absPath))
		}
		val, err := ParseValue(rawValue)
		if err != nil {
			return err
		}
		idx := -1
		for i, elem := range arr.Elements {
			if nodesEquivalent(elem, val) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: no element %s in %q", ErrNotFound, val.Text(), joinSegs(scope.absPath))
		}
		removePreservingStyle(arr, idx)
		regenerateAncestorText(arr)
		return nil
	}

	if kv != nil {
		if !removeKeyValue(kv) {
			return fmt.Errorf("%w: %q", ErrNotFound, joinSegs(scope.absPath))
		}
		return nil
	}

	// Dotted keys nested under the path count as the entry too:
	// removing a.b deletes a.b.c = 1.
	if scope.removeNestedKeys() {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrNotFound, joinSegs(scope.absPath))
}

// removeNestedKeys deletes every key-value in the container whose key
// has the remaining segments as a strict prefix.
func (s *editScope) removeNestedKeys() bool {
	removed := false
	if s.inline != nil {
		kept := s.inline.Entries[:0]
		for _, kv := range s.inline.Entries {
			if keyUnderSegs(kv.KeyParts, s.keySegs) {
				removed = true
				continue
			}
			kept = append(kept, kv)
		}
		s.inline.Entries = kept
		if removed {
			s.inline.text = generateInlineTableText(s.inline.Entries)
			regenerateAncestorText(s.inline)
		}
		return removed
	}

	var entries *[]Node
	switch {
	case s.table != nil:
		entries = &s.table.Entries
	case s.aot != nil:
		entries = &s.aot.Entries
	default:
		entries = &s.doc.Nodes
	}
	kept := (*entries)[:0]
	for _, n := range *entries {
		if kv, ok := n.(*KeyValue); ok && keyUnderSegs(kv.KeyParts, s.keySegs) {
			removed = true
			continue
		}
		kept = append(kept, n)
	}
	*entries = kept
	return removed
}

func keyUnderSegs(parts []KeyPart, segs []string) bool {
	if len(parts) <= len(segs) {
		return false
	}
	return matchKeyParts(parts[:len(segs)], segs)
}

// nodesEquivalent reports structural equality of two value nodes:
// strings by content, numbers numerically, arrays element-wise, inline
// tables by key set. Formatting differences don't matter.
func nodesEquivalent(a, b Node) bool {
	switch av := a.(type) {
	case *StringNode:
		bv, ok := b.(*StringNode)
		return ok && av.Value() == bv.Value()
	case *NumberNode:
		bv, ok := b.(*NumberNode)
		if !ok {
			return false
		}
		if ai, errA := av.Int(); errA == nil {
			if bi, errB := bv.Int(); errB == nil {
				return ai == bi
			}
		}
		af, errA := av.Float()
		bf, errB := bv.Float()
		return errA == nil && errB == nil && af == bf
	case *BooleanNode:
		bv, ok := b.(*BooleanNode)
		return ok && av.Value() == bv.Value()
	case *DateTimeNode:
		bv, ok := b.(*DateTimeNode)
		return ok && av.Text() == bv.Text()
	case *ArrayNode:
		bv, ok := b.(*ArrayNode)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !nodesEquivalent(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *InlineTableNode:
		bv, ok := b.(*InlineTableNode)
		if !ok || len(av.Entries) != len(bv.Entries) {
			return false
		}
		for _, akv := range av.Entries {
			bkv := findInKVEntries(bv.Entries, keyPartsSegs(akv.KeyParts))
			if bkv == nil || !nodesEquivalent(akv.Val, bkv.Val) {
				return false
			}
		}
		return true
	}
	return false
}

func keyPartsSegs(parts []KeyPart) []string {
	segs := make([]string, len(parts))
	for i, p := range parts {
		segs[i] = p.Unquoted
	}
	return segs
}

// arrayLayout reports how the raw array text is laid out, by scanning
// its tokens: the end offset of the last top-level element, whether a
// comma already follows it (and where that comma ends), the start
// offset of the last element, and whether the array spans lines.
type arrayLayout struct {
	lastElemStart int
	lastElemEnd   int
	hasComma      bool
	commaEnd      int
	multiline     bool
	empty         bool
}

func scanArrayLayout(text string) arrayLayout {
	lay := arrayLayout{empty: true}
	l := newLexer(text)
	l.valueMode = true
	depth := 0
	atElemStart := false

	content := func(tok Token) {
		if depth == 1 && atElemStart {
			lay.lastElemStart = tok.Pos
			atElemStart = false
		}
		lay.empty = false
		lay.lastElemEnd = tok.Pos + len(tok.Text)
		if lay.hasComma && lay.commaEnd <= lay.lastElemEnd {
			lay.hasComma = false
		}
	}

	for {
		tok := l.Next()
		if tok.Type == TokEOF {
			break
		}
		switch tok.Type {
		case TokNewline:
			lay.multiline = true
		case TokWhitespace, TokComment:
		case TokComma:
			if depth == 1 {
				lay.hasComma = true
				lay.commaEnd = tok.Pos + len(tok.Text)
				atElemStart = true
			} else {
				content(tok)
			}
		case TokLBracket, TokLBrace:
			if depth == 0 {
				depth = 1
				atElemStart = true
				break
			}
			content(tok)
			depth++
		case TokRBracket, TokRBrace:
			if depth == 1 && tok.Type == TokRBracket {
				depth = 0
				break
			}
			depth--
			content(tok)
		default:
			content(tok)
		}
	}
	return lay
}

// appendPreservingStyle appends elem keeping the array's written
// layout: single-line arrays stay on one line, multi-line arrays get a
// new line with the same indentation and comma style as the last
// element.
func appendPreservingStyle(a *ArrayNode, elem Node) {
	a.Elements = append(a.Elements, elem)
	setValueParent(elem, a)

	text := a.text
	lay := scanArrayLayout(text)

	if lay.empty {
		a.text = "[" + elem.Text() + "]"
		return
	}

	if !lay.multiline {
		if lay.hasComma {
			a.text = text[:lay.commaEnd] + " " + elem.Text() + "," + text[lay.commaEnd:]
		} else {
			a.text = text[:lay.lastElemEnd] + ", " + elem.Text() + text[lay.lastElemEnd:]
		}
		return
	}

	indent := lineIndentAt(text, lay.lastElemStart)
	var b strings.Builder
	if lay.hasComma {
		b.WriteString(text[:lay.commaEnd])
		b.WriteString("\n")
		b.WriteString(indent)
		b.WriteString(elem.Text())
		b.WriteString(",")
		b.WriteString(text[lay.commaEnd:])
	} else {
		b.WriteString(text[:lay.lastElemEnd])
		b.WriteString(",\n")
		b.WriteString(indent)
		b.WriteString(elem.Text())
		b.WriteString(text[lay.lastElemEnd:])
	}
	a.text = b.String()
}

// lineIndentAt returns the leading whitespace of the line containing
// byte offset pos.
func lineIndentAt(text string, pos int) string {
	start := strings.LastIndexByte(text[:pos], '\n') + 1
	end := start
	for end < len(text) && (text[end] == ' ' || text[end] == '\t') {
		end++
	}
	return text[start:end]
}

// removePreservingStyle removes the element at idx, rebuilding the
// text. Multi-line arrays are rebuilt one element per line with the
// original indentation; comments inside the array are not kept.
func removePreservingStyle(a *ArrayNode, idx int) {
	lay := scanArrayLayout(a.text)
	multiline := lay.multiline
	indent := "    "
	if multiline && !lay.empty {
		indent = lineIndentAt(a.text, lay.lastElemStart)
	}

	a.Elements = append(a.Elements[:idx], a.Elements[idx+1:]...)

	if !multiline || len(a.Elements) == 0 {
		a.text = generateArrayText(a.Elements)
		return
	}

	closeIndent := lineIndentAt(a.text, len(a.text)-1)
	var b strings.Builder
	b.WriteString("[\n")
	for _, elem := range a.Elements {
		b.WriteString(indent)
		b.WriteString(elem.Text())
		b.WriteString(",\n")
	}
	b.WriteString(closeIndent)
	b.WriteString("]")
	a.text = b.String()
}
