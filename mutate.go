package tomledit

import (
	"fmt"
)

// findDocument walks up the parent chain to find the containing Document.
func findDocument(n Node) *Document {
	for n != nil {
		if d, ok := n.(*Document); ok {
			return d
		}
		n = n.Parent()
	}
	return nil
}

// localDuplicateCheck checks for duplicate keys within a slice of entries.
func localDuplicateCheck(entries []Node) error {
	seen := make(map[string]bool)
	for _, e := range entries {
		kv, ok := e.(*KeyValue)
		if !ok {
			continue
		}
		path := keyPartsToPath(kv.KeyParts)
		if seen[path] {
			return fmt.Errorf("%w: %q", ErrDuplicateKey, path)
		}
		seen[path] = true
		for i := 1; i < len(kv.KeyParts); i++ {
			prefix := keyPartsToPath(kv.KeyParts[:i])
			if seen[prefix] {
				return fmt.Errorf("%w: %q", ErrKeyConflict, prefix)
			}
		}
	}
	return nil
}

// SetValue updates the value of a KeyValue node. If the KeyValue is
// inside an InlineTableNode or ArrayNode, the ancestor's text
// representation is regenerated.
func (kv *KeyValue) SetValue(val Node) error {
	if err := validateValueType(val); err != nil {
		return err
	}
	kv.Val = val
	kv.RawVal = val.Text()
	setValueParent(val, kv)
	regenerateAncestorText(kv)
	return nil
}

// regenerateAncestorText walks up the parent chain and regenerates text
// for any InlineTableNode or ArrayNode ancestors.
func regenerateAncestorText(n Node) {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch v := p.(type) {
		case *InlineTableNode:
			v.text = generateInlineTableText(v.Entries)
		case *ArrayNode:
			v.text = generateArrayText(v.Elements)
		}
	}
}

// Delete removes the first KeyValue matching the dotted path from the
// document, searching top-level keys and table entries. Returns true if
// a key was found and removed.
func (d *Document) Delete(path string) bool {
	segs := parseDottedPath(path)

	if idx := findTopLevelKV(d.Nodes, segs); idx >= 0 {
		d.Nodes = append(d.Nodes[:idx], d.Nodes[idx+1:]...)
		return true
	}

	for prefixLen := len(segs) - 1; prefixLen >= 1; prefixLen-- {
		tableSegs := segs[:prefixLen]
		keySegs := segs[prefixLen:]
		for _, n := range d.Nodes {
			if deleteFromTableNode(n, tableSegs, keySegs) {
				return true
			}
		}
	}
	return false
}

func findTopLevelKV(nodes []Node, segs []string) int {
	for i, n := range nodes {
		if kv, ok := n.(*KeyValue); ok && matchKeyParts(kv.KeyParts, segs) {
			return i
		}
	}
	return -1
}

func deleteFromTableNode(n Node, tableSegs, keySegs []string) bool {
	switch t := n.(type) {
	case *TableNode:
		if matchKeyParts(t.HeaderParts, tableSegs) {
			return deleteFromEntries(&t.Entries, keySegs)
		}
	case *ArrayOfTables:
		if matchKeyParts(t.HeaderParts, tableSegs) {
			return deleteFromEntries(&t.Entries, keySegs)
		}
	}
	return false
}

// DeleteTable removes the first TableNode matching the header path.
// Returns true if a table was found and removed.
func (d *Document) DeleteTable(path string) bool {
	segs := parseDottedPath(path)
	for i, n := range d.Nodes {
		if t, ok := n.(*TableNode); ok && matchKeyParts(t.HeaderParts, segs) {
			d.Nodes = append(d.Nodes[:i], d.Nodes[i+1:]...)
			return true
		}
	}
	return false
}

// Append adds a node to the end of the document's top-level nodes. The
// document is re-validated; structural conflicts roll the change back.
// Comment and whitespace nodes skip structural validation.
func (d *Document) Append(node Node) error {
	if err := validateDocumentNode(node); err != nil {
		return err
	}
	if isTriviaNode(node) {
		d.Nodes = append(d.Nodes, node)
		setNodeParent(node, d)
		return nil
	}
	d.Nodes = append(d.Nodes, node)
	setNodeParent(node, d)
	if err := d.Validate(); err != nil {
		d.Nodes = d.Nodes[:len(d.Nodes)-1]
		setNodeParent(node, nil)
		return err
	}
	return nil
}

// InsertAt inserts a node at position i in the document's top-level
// nodes. If i is out of range, the node is appended. The document is
// re-validated; structural conflicts roll the change back.
func (d *Document) InsertAt(i int, node Node) error {
	if err := validateDocumentNode(node); err != nil {
		return err
	}
	if i < 0 {
		i = 0
	}
	if i >= len(d.Nodes) {
		return d.Append(node)
	}
	if isTriviaNode(node) {
		d.Nodes = append(d.Nodes[:i], append([]Node{node}, d.Nodes[i:]...)...)
		setNodeParent(node, d)
		return nil
	}
	d.Nodes = append(d.Nodes[:i], append([]Node{node}, d.Nodes[i:]...)...)
	setNodeParent(node, d)
	if err := d.Validate(); err != nil {
		d.Nodes = append(d.Nodes[:i], d.Nodes[i+1:]...)
		setNodeParent(node, nil)
		return err
	}
	return nil
}

func isTriviaNode(n Node) bool {
	switch n.(type) {
	case *CommentNode, *WhitespaceNode:
		return true
	}
	return false
}

// Delete removes the first KeyValue matching the key from the table.
// Returns true if a key was found and removed.
func (t *TableNode) Delete(key string) bool {
	return deleteFromEntries(&t.Entries, parseDottedPath(key))
}

// Append adds a key-value pair to the end of the table's entries.
// When the table is attached to a document the whole document is
// re-validated; conflicts roll the change back.
func (t *TableNode) Append(kv *KeyValue) error {
	if kv == nil {
		return ErrNilEntry
	}
	t.Entries = append(t.Entries, kv)
	kv.setParent(t)
	if err := validateAfterEntryChange(t); err != nil {
		t.Entries = t.Entries[:len(t.Entries)-1]
		kv.setParent(nil)
		return err
	}
	return nil
}

// InsertAt inserts a key-value pair at position i in the table's
// entries. If i is out of range, the key-value is appended.
func (t *TableNode) InsertAt(i int, kv *KeyValue) error {
	if kv == nil {
		return ErrNilEntry
	}
	if i < 0 {
		i = 0
	}
	if i >= len(t.Entries) {
		return t.Append(kv)
	}
	t.Entries = append(t.Entries[:i], append([]Node{kv}, t.Entries[i:]...)...)
	kv.setParent(t)
	if err := validateAfterEntryChange(t); err != nil {
		t.Entries = append(t.Entries[:i], t.Entries[i+1:]...)
		kv.setParent(nil)
		return err
	}
	return nil
}

// Delete removes the first KeyValue matching the key from the array of
// tables. Returns true if a key was found and removed.
func (a *ArrayOfTables) Delete(key string) bool {
	return deleteFromEntries(&a.Entries, parseDottedPath(key))
}

// Append adds a key-value pair to the end of the array-of-tables'
// entries.
func (a *ArrayOfTables) Append(kv *KeyValue) error {
	if kv == nil {
		return ErrNilEntry
	}
	a.Entries = append(a.Entries, kv)
	kv.setParent(a)
	if err := validateAfterEntryChange(a); err != nil {
		a.Entries = a.Entries[:len(a.Entries)-1]
		kv.setParent(nil)
		return err
	}
	return nil
}

// InsertAt inserts a key-value pair at position i in the
// array-of-tables' entries. If i is out of range, it is appended.
func (a *ArrayOfTables) InsertAt(i int, kv *KeyValue) error {
	if kv == nil {
		return ErrNilEntry
	}
	if i < 0 {
		i = 0
	}
	if i >= len(a.Entries) {
		return a.Append(kv)
	}
	a.Entries = append(a.Entries[:i], append([]Node{kv}, a.Entries[i:]...)...)
	kv.setParent(a)
	if err := validateAfterEntryChange(a); err != nil {
		a.Entries = append(a.Entries[:i], a.Entries[i+1:]...)
		kv.setParent(nil)
		return err
	}
	return nil
}

// validateAfterEntryChange validates the containing document if the
// node is attached, falling back to a local duplicate check for
// standalone tables.
func validateAfterEntryChange(n Node) error {
	if doc := findDocument(n); doc != nil {
		return doc.Validate()
	}
	switch t := n.(type) {
	case *TableNode:
		return localDuplicateCheck(t.Entries)
	case *ArrayOfTables:
		return localDuplicateCheck(t.Entries)
	}
	return nil
}

func deleteFromEntries(entries *[]Node, segs []string) bool {
	for i, e := range *entries {
		if kv, ok := e.(*KeyValue); ok && matchKeyParts(kv.KeyParts, segs) {
			*entries = append((*entries)[:i], (*entries)[i+1:]...)
			return true
		}
	}
	return false
}

// Append adds an element to the end of the array. The array's text
// representation is regenerated in standard style; use the edit engine
// to append while preserving the written layout.
func (a *ArrayNode) Append(elem Node) error {
	if err := validateValueType(elem); err != nil {
		return err
	}
	a.Elements = append(a.Elements, elem)
	setValueParent(elem, a)
	a.text = generateArrayText(a.Elements)
	regenerateAncestorText(a)
	return nil
}

// Delete removes the element at index i from the array. The array's
// text representation is regenerated.
func (a *ArrayNode) Delete(i int) error {
	if i < 0 || i >= len(a.Elements) {
		return fmt.Errorf("%w: index %d (array has %d elements)", ErrIndexOutOfRange, i, len(a.Elements))
	}
	a.Elements = append(a.Elements[:i], a.Elements[i+1:]...)
	a.text = generateArrayText(a.Elements)
	regenerateAncestorText(a)
	return nil
}

// Append adds a key-value entry to the end of the inline table.
// The inline table's text representation is regenerated.
func (n *InlineTableNode) Append(kv *KeyValue) error {
	if kv == nil {
		return ErrNilEntry
	}
	path := keyPartsToPath(kv.KeyParts)
	for _, existing := range n.Entries {
		if keyPartsToPath(existing.KeyParts) == path {
			return fmt.Errorf("%w: %q in inline table", ErrDuplicateKey, path)
		}
	}
	for i := 1; i < len(kv.KeyParts); i++ {
		prefix := keyPartsToPath(kv.KeyParts[:i])
		for _, existing := range n.Entries {
			if keyPartsToPath(existing.KeyParts) == prefix {
				return fmt.Errorf("%w: %q in inline table", ErrKeyConflict, prefix)
			}
		}
	}
	n.Entries = append(n.Entries, kv)
	kv.setParent(n)
	n.text = generateInlineTableText(n.Entries)
	regenerateAncestorText(n)
	return nil
}

// Delete removes the first entry matching the key from the inline
// table. Returns true if a key was found and removed.
func (n *InlineTableNode) Delete(key string) bool {
	segs := parseDottedPath(key)
	for i, kv := range n.Entries {
		if matchKeyParts(kv.KeyParts, segs) {
			n.Entries = append(n.Entries[:i], n.Entries[i+1:]...)
			n.text = generateInlineTableText(n.Entries)
			regenerateAncestorText(n)
			return true
		}
	}
	return false
}

// AppendComment appends a "# text" comment followed by a newline to the
// document. The text parameter is the content without the leading "# ".
func (d *Document) AppendComment(text string) error {
	cn, err := NewComment("# " + text)
	if err != nil {
		return err
	}
	if err := d.Append(cn); err != nil {
		return err
	}
	ws, _ := NewWhitespace("\n")
	return d.Append(ws)
}

// AppendBlankLine appends a blank line to the document.
func (d *Document) AppendBlankLine() error {
	ws, _ := NewWhitespace("\n")
	return d.Append(ws)
}

// AppendComment appends a "# text" comment followed by a newline to the
// table's entries.
func (t *TableNode) AppendComment(text string) error {
	cn, err := NewComment("# " + text)
	if err != nil {
		return err
	}
	t.addEntry(cn)
	ws, _ := NewWhitespace("\n")
	t.addEntry(ws)
	return nil
}

// AppendBlankLine appends a blank line to the table's entries.
func (t *TableNode) AppendBlankLine() {
	ws, _ := NewWhitespace("\n")
	t.addEntry(ws)
}

// AppendComment appends a "# text" comment followed by a newline to the
// array-of-tables' entries.
func (a *ArrayOfTables) AppendComment(text string) error {
	cn, err := NewComment("# " + text)
	if err != nil {
		return err
	}
	a.addEntry(cn)
	ws, _ := NewWhitespace("\n")
	a.addEntry(ws)
	return nil
}

// AppendBlankLine appends a blank line to the array-of-tables' entries.
func (a *ArrayOfTables) AppendBlankLine() {
	ws, _ := NewWhitespace("\n")
	a.addEntry(ws)
}
