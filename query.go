package tomledit

import (
	"math"
	"strconv"
	"strings"
)

// parseDottedPath splits a dotted path like `server."the host".port`
// into its unquoted segments. It is lenient: unclosed quotes consume
// the rest of the path. Use ParseKeyPath for strict validation.
func parseDottedPath(path string) []string {
	var segs []string
	i := 0
	for i < len(path) {
		i = skipPathWs(path, i)
		if i >= len(path) {
			break
		}
		var seg string
		seg, i = parsePathSegment(path, i)
		segs = append(segs, seg)
		i = skipPathWs(path, i)
		if i < len(path) && path[i] == '.' {
			i++
		}
	}
	return segs
}

func skipPathWs(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

func parsePathSegment(path string, i int) (string, int) {
	switch path[i] {
	case '"':
		return parsePathBasicString(path, i)
	case '\'':
		return parsePathLiteralString(path, i)
	default:
		return parsePathBareKey(path, i)
	}
}

func parsePathBasicString(path string, i int) (string, int) {
	i++ // skip opening "
	start := i
	for i < len(path) {
		if path[i] == '\\' && i+1 < len(path) {
			i += 2
			continue
		}
		if path[i] == '"' {
			return processBasicEscapes(path[start:i]), i + 1
		}
		i++
	}
	return processBasicEscapes(path[start:]), i
}

func parsePathLiteralString(path string, i int) (string, int) {
	i++ // skip opening '
	start := i
	for i < len(path) {
		if path[i] == '\'' {
			return path[start:i], i + 1
		}
		i++
	}
	return path[start:], i
}

func parsePathBareKey(path string, i int) (string, int) {
	start := i
	for i < len(path) && isBareKeyChar(rune(path[i])) {
		i++
	}
	return path[start:i], i
}

func matchKeyParts(parts []KeyPart, segs []string) bool {
	if len(parts) != len(segs) {
		return false
	}
	for i, p := range parts {
		if p.Unquoted != segs[i] {
			return false
		}
	}
	return true
}

// Get finds a KeyValue by dotted path (e.g. "server.host"). It searches
// top-level key-values, table entries, and inline table contents.
// Returns nil if no matching key is found.
func (d *Document) Get(path string) *KeyValue {
	segs := parseDottedPath(path)

	if kv := findInEntries(d.Nodes, segs); kv != nil {
		return kv
	}

	// Try table prefixes from longest to shortest.
	for prefixLen := len(segs) - 1; prefixLen >= 1; prefixLen-- {
		tableSegs := segs[:prefixLen]
		keySegs := segs[prefixLen:]
		for _, n := range d.Nodes {
			if kv := getFromTableNode(n, tableSegs, keySegs); kv != nil {
				return kv
			}
		}
	}
	return nil
}

func getFromTableNode(n Node, tableSegs, keySegs []string) *KeyValue {
	switch t := n.(type) {
	case *TableNode:
		if matchKeyParts(t.HeaderParts, tableSegs) {
			return findInEntries(t.Entries, keySegs)
		}
	case *ArrayOfTables:
		if matchKeyParts(t.HeaderParts, tableSegs) {
			return findInEntries(t.Entries, keySegs)
		}
	}
	return nil
}

// Table finds the first TableNode whose header matches the given dotted
// path. Returns nil if no matching table is found.
func (d *Document) Table(path string) *TableNode {
	segs := parseDottedPath(path)
	for _, n := range d.Nodes {
		if t, ok := n.(*TableNode); ok && matchKeyParts(t.HeaderParts, segs) {
			return t
		}
	}
	return nil
}

func findInEntries(entries []Node, segs []string) *KeyValue {
	for _, e := range entries {
		if kv, ok := e.(*KeyValue); ok && matchKeyParts(kv.KeyParts, segs) {
			return kv
		}
	}
	// Prefix match into inline tables.
	for _, e := range entries {
		kv, ok := e.(*KeyValue)
		if !ok {
			continue
		}
		n := len(kv.KeyParts)
		if n >= len(segs) || !matchKeyParts(kv.KeyParts, segs[:n]) {
			continue
		}
		if it, ok := kv.Val.(*InlineTableNode); ok {
			if found := findInKVEntries(it.Entries, segs[n:]); found != nil {
				return found
			}
		}
	}
	return nil
}

func findInKVEntries(entries []*KeyValue, segs []string) *KeyValue {
	for _, kv := range entries {
		if matchKeyParts(kv.KeyParts, segs) {
			return kv
		}
	}
	for _, kv := range entries {
		n := len(kv.KeyParts)
		if n >= len(segs) || !matchKeyParts(kv.KeyParts, segs[:n]) {
			continue
		}
		if it, ok := kv.Val.(*InlineTableNode); ok {
			if found := findInKVEntries(it.Entries, segs[n:]); found != nil {
				return found
			}
		}
	}
	return nil
}

// Get finds a KeyValue within the table's entries by dotted key path.
// Returns nil if no matching key is found.
func (t *TableNode) Get(key string) *KeyValue {
	return findInEntries(t.Entries, parseDottedPath(key))
}

// Get finds a KeyValue within the array-of-tables' entries by dotted
// key path. Returns nil if no matching key is found.
func (a *ArrayOfTables) Get(key string) *KeyValue {
	return findInEntries(a.Entries, parseDottedPath(key))
}

// Get finds a KeyValue within the inline table's entries by dotted key
// path. Returns nil if no matching key is found.
func (n *InlineTableNode) Get(key string) *KeyValue {
	return findInKVEntries(n.Entries, parseDottedPath(key))
}

// Value returns the unquoted, unescaped string content.
func (n *StringNode) Value() string {
	raw := n.text
	if len(raw) < 2 {
		return raw
	}
	if strings.HasPrefix(raw, `"""`) && len(raw) >= 6 {
		inner := trimLeadingNewline(raw[3 : len(raw)-3])
		return processMultiLineBasicEscapes(inner)
	}
	if strings.HasPrefix(raw, "'''") && len(raw) >= 6 {
		return trimLeadingNewline(raw[3 : len(raw)-3])
	}
	if raw[0] == '\'' {
		return raw[1 : len(raw)-1]
	}
	return processBasicEscapes(raw[1 : len(raw)-1])
}

func trimLeadingNewline(s string) string {
	if strings.HasPrefix(s, "\r\n") {
		return s[2:]
	}
	if len(s) > 0 && s[0] == '\n' {
		return s[1:]
	}
	return s
}

// processMultiLineBasicEscapes handles basic string escapes including
// line-ending backslashes that swallow following whitespace.
func processMultiLineBasicEscapes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 >= len(s) {
			b.WriteByte('\\')
			break
		}
		switch s[i+1] {
		case '\n':
			i = skipMultiLineWs(s, i+1)
		case '\r':
			i++
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
			i = skipMultiLineWs(s, i)
		case ' ', '\t':
			if hasNewlineAfterWs(s, i+1) {
				i = skipMultiLineWs(s, i+1)
			} else {
				b.WriteByte('\\')
				b.WriteByte(s[i+1])
				i++
			}
		default:
			// Single-char and unicode escapes share the non-multiline path.
			end, out := decodeOneEscape(s, i)
			b.WriteString(out)
			i = end
		}
	}
	return b.String()
}

func skipMultiLineWs(s string, i int) int {
	for i+1 < len(s) && isWhitespaceOrNewline(s[i+1]) {
		i++
	}
	return i
}

// decodeOneEscape decodes the escape sequence whose backslash is at i.
// It returns the index of the last consumed byte and the decoded text.
func decodeOneEscape(s string, i int) (int, string) {
	i++
	if i >= len(s) {
		return i - 1, `\`
	}
	switch s[i] {
	case 'b':
		return i, "\b"
	case 't':
		return i, "\t"
	case 'n':
		return i, "\n"
	case 'f':
		return i, "\f"
	case 'r':
		return i, "\r"
	case '"':
		return i, `"`
	case '\\':
		return i, `\`
	case 'e':
		return i, "\x1B"
	case 'x':
		return decodeHexEscape(s, i, 2)
	case 'u':
		return decodeHexEscape(s, i, 4)
	case 'U':
		return decodeHexEscape(s, i, 8)
	default:
		return i, `\` + string(s[i])
	}
}

func decodeHexEscape(s string, i, digits int) (int, string) {
	if i+digits < len(s) {
		if n, err := strconv.ParseUint(s[i+1:i+1+digits], 16, 32); err == nil {
			return i + digits, string(rune(n))
		}
	}
	labels := map[int]string{2: `\x`, 4: `\u`, 8: `\U`}
	return i, labels[digits]
}

// Int parses the number as an int64. Returns an error if the number is
// a float.
func (n *NumberNode) Int() (int64, error) {
	clean := strings.ReplaceAll(n.text, "_", "")
	if isSpecialFloat(clean) {
		return 0, strconv.ErrSyntax
	}
	// Check prefix integers before float detection, since hex digits
	// contain 'e'/'E' which would falsely trigger float classification.
	switch {
	case strings.HasPrefix(clean, "0x"):
		return strconv.ParseInt(clean[2:], 16, 64)
	case strings.HasPrefix(clean, "0o"):
		return strconv.ParseInt(clean[2:], 8, 64)
	case strings.HasPrefix(clean, "0b"):
		return strconv.ParseInt(clean[2:], 2, 64)
	}
	if strings.ContainsAny(clean, ".eE") {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(strings.TrimPrefix(clean, "+"), 10, 64)
}

// Float parses the number as a float64. Also works on integers,
// converting them to float64.
func (n *NumberNode) Float() (float64, error) {
	clean := strings.ReplaceAll(n.text, "_", "")
	switch clean {
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	case "nan", "+nan", "-nan":
		return math.NaN(), nil
	}
	switch {
	case strings.HasPrefix(clean, "0x"):
		v, err := strconv.ParseInt(clean[2:], 16, 64)
		return float64(v), err
	case strings.HasPrefix(clean, "0o"):
		v, err := strconv.ParseInt(clean[2:], 8, 64)
		return float64(v), err
	case strings.HasPrefix(clean, "0b"):
		v, err := strconv.ParseInt(clean[2:], 2, 64)
		return float64(v), err
	}
	return strconv.ParseFloat(strings.TrimPrefix(clean, "+"), 64)
}

// Value returns the boolean value.
func (n *BooleanNode) Value() bool {
	return n.text == "true"
}
