package tomledit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Token-level validators return a message string, empty when valid. The
// parser turns non-empty messages into ParseErrors with positions.

func validateUTF8(data []byte) string {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return fmt.Sprintf("invalid UTF-8 byte at position %d", i)
		}
		i += size
	}
	return ""
}

func validateCommentText(s string) string {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return "invalid UTF-8 in comment"
		}
		if r != '\t' && isControlChar(r) {
			return fmt.Sprintf("control character U+%04X in comment", r)
		}
		i += size
	}
	return ""
}

func isControlChar(r rune) bool {
	return (r >= 0 && r <= 0x1F) || r == 0x7F
}

// validateStringText validates a string token including its quotes.
func validateStringText(raw string) string {
	if len(raw) < 2 {
		return "invalid string"
	}
	switch {
	case strings.HasPrefix(raw, `"""`):
		return validateBasicContent(stripMultiLineQuotes(raw), true)
	case strings.HasPrefix(raw, "'''"):
		return validateLiteralContent(stripMultiLineQuotes(raw), true)
	case raw[0] == '\'':
		return validateLiteralContent(raw[1:len(raw)-1], false)
	default:
		return validateBasicContent(raw[1:len(raw)-1], false)
	}
}

// stripMultiLineQuotes removes the triple quotes and the newline
// immediately following the opening delimiter, which TOML trims.
func stripMultiLineQuotes(raw string) string {
	inner := raw[3 : len(raw)-3]
	if strings.HasPrefix(inner, "\r\n") {
		return inner[2:]
	}
	if len(inner) > 0 && inner[0] == '\n' {
		return inner[1:]
	}
	return inner
}

func validateBasicContent(s string, multiline bool) string {
	for i := 0; i < len(s); {
		if s[i] == '\\' {
			i++
			if i >= len(s) {
				return "trailing backslash in string"
			}
			next, msg := validateBasicEscape(s, i, multiline)
			if msg != "" {
				return msg
			}
			i = next
			continue
		}
		if msg := checkBareCarriageReturn(s, i, multiline); msg != "" {
			return msg
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return "invalid UTF-8 in string"
		}
		if msg := checkStringControlChar(r, multiline, "string"); msg != "" {
			return msg
		}
		i += size
	}
	return ""
}

func validateLiteralContent(s string, multiline bool) string {
	for i := 0; i < len(s); {
		if msg := checkBareCarriageReturn(s, i, multiline); msg != "" {
			return msg
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return "invalid UTF-8 in literal string"
		}
		if msg := checkStringControlChar(r, multiline, "literal string"); msg != "" {
			return msg
		}
		i += size
	}
	return ""
}

func checkBareCarriageReturn(s string, i int, multiline bool) string {
	if multiline && s[i] == '\r' && (i+1 >= len(s) || s[i+1] != '\n') {
		return "bare carriage return in multi-line string"
	}
	return ""
}

func checkStringControlChar(r rune, multiline bool, kind string) string {
	if r == '\t' {
		return ""
	}
	if !isControlChar(r) {
		return ""
	}
	if multiline && (r == '\n' || r == '\r') {
		return ""
	}
	return fmt.Sprintf("control character U+%04X in %s", r, kind)
}

func validateBasicEscape(s string, i int, multiline bool) (int, string) {
	switch s[i] {
	case 'b', 't', 'n', 'f', 'r', '"', '\\', 'e':
		return i + 1, ""
	case 'x':
		return validateUnicodeEscape(s, i, 2)
	case 'u':
		return validateUnicodeEscape(s, i, 4)
	case 'U':
		return validateUnicodeEscape(s, i, 8)
	case '\n', '\r':
		if !multiline {
			return 0, "invalid escape sequence"
		}
		return skipLineEndingBackslash(s, i), ""
	case ' ', '\t':
		// A backslash followed by whitespace is only legal in multi-line
		// strings when the rest of the line is blank (line-ending backslash).
		if multiline && hasNewlineAfterWs(s, i) {
			return skipToNextNonWs(s, i), ""
		}
		return 0, fmt.Sprintf("invalid escape sequence '\\%c'", s[i])
	default:
		return 0, fmt.Sprintf("invalid escape sequence '\\%c'", s[i])
	}
}

func validateUnicodeEscape(s string, i, digits int) (int, string) {
	label := `\u`
	switch digits {
	case 2:
		label = `\x`
	case 8:
		label = `\U`
	}
	if i+digits >= len(s) {
		return 0, fmt.Sprintf("incomplete %s escape", label)
	}
	for j := 1; j <= digits; j++ {
		if !isHexDigit(s[i+j]) {
			return 0, fmt.Sprintf("invalid %s escape", label)
		}
	}
	n, _ := strconv.ParseUint(s[i+1:i+1+digits], 16, 32)
	if n >= 0xD800 && n <= 0xDFFF {
		return 0, fmt.Sprintf("invalid unicode scalar U+%04X", n)
	}
	if n > 0x10FFFF {
		return 0, fmt.Sprintf("unicode codepoint U+%04X out of range", n)
	}
	return i + 1 + digits, ""
}

func skipLineEndingBackslash(s string, i int) int {
	if s[i] == '\r' && i+1 < len(s) && s[i+1] == '\n' {
		i++
	}
	i++
	for i < len(s) && isWhitespaceOrNewline(s[i]) {
		i++
	}
	return i
}

func hasNewlineAfterWs(s string, pos int) bool {
	i := pos
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i < len(s) && (s[i] == '\n' || s[i] == '\r')
}

func skipToNextNonWs(s string, pos int) int {
	i := pos
	for i < len(s) && isWhitespaceOrNewline(s[i]) {
		i++
	}
	return i
}

func isWhitespaceOrNewline(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// validateNumberText validates an integer or float token.
func validateNumberText(text string) string {
	clean := strings.ReplaceAll(text, "_", "")

	if isSpecialFloat(clean) {
		return validateUnderscores(text)
	}
	if prefix := basePrefixOf(clean); prefix != "" {
		if clean[0] == '+' || clean[0] == '-' {
			return fmt.Sprintf("sign not allowed on %s integer", prefix)
		}
		return validatePrefixInt(text, clean, prefix)
	}
	if msg := checkDecimalLeadingZeros(text, clean); msg != "" {
		return msg
	}
	if strings.ContainsAny(clean, ".eE") {
		return validateFloatText(text, clean)
	}
	return validateDecimalDigits(text, clean)
}

// basePrefixOf returns "0x", "0o", or "0b" if the token carries one
// (possibly behind a sign), else "".
func basePrefixOf(clean string) string {
	s := stripSign(clean)
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'o' || s[1] == 'b') {
		return s[:2]
	}
	return ""
}

func stripSign(s string) string {
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		return s[1:]
	}
	return s
}

func validatePrefixInt(raw, clean, prefix string) string {
	var validDigit func(byte) bool
	switch prefix {
	case "0x":
		validDigit = isHexDigit
	case "0o":
		validDigit = isOctDigit
	default:
		validDigit = isBinDigit
	}
	body := clean[len(prefix):]
	if len(body) == 0 {
		return fmt.Sprintf("incomplete %s integer: %s", prefix, raw)
	}
	for i := 0; i < len(body); i++ {
		if !validDigit(body[i]) {
			return fmt.Sprintf("invalid digit in %s integer: %s", prefix, raw)
		}
	}
	return validateUnderscoresFrom(raw, len(prefix))
}

func checkDecimalLeadingZeros(raw, clean string) string {
	num := stripSign(clean)
	if len(num) <= 1 {
		return ""
	}
	if num[0] == '0' && num[1] != '.' && num[1] != 'e' && num[1] != 'E' {
		return fmt.Sprintf("leading zeros not allowed: %s", raw)
	}
	return ""
}

func validateDecimalDigits(raw, clean string) string {
	num := stripSign(clean)
	for i := 0; i < len(num); i++ {
		if !isDecDigit(num[i]) {
			return fmt.Sprintf("invalid character in integer: %s", raw)
		}
	}
	return validateUnderscores(raw)
}

func validateFloatText(raw, clean string) string {
	if strings.Count(clean, ".") > 1 {
		return fmt.Sprintf("multiple dots in float: %s", raw)
	}
	if strings.Count(clean, "e")+strings.Count(clean, "E") > 1 {
		return fmt.Sprintf("multiple exponents in float: %s", raw)
	}
	if msg := checkUnderscoreAdjacent(raw); msg != "" {
		return msg
	}
	if msg := validateUnderscores(raw); msg != "" {
		return msg
	}
	return validateFloatParts(raw, clean)
}

func validateFloatParts(raw, clean string) string {
	num := stripSign(clean)
	dotIdx := strings.Index(num, ".")
	eIdx := strings.IndexAny(num, "eE")

	if dotIdx >= 0 && eIdx >= 0 && dotIdx > eIdx {
		return fmt.Sprintf("dot after exponent: %s", raw)
	}
	if dotIdx >= 0 {
		if dotIdx == 0 || dotIdx == len(num)-1 {
			return fmt.Sprintf("invalid float: %s", raw)
		}
		afterDot := num[dotIdx+1:]
		if eIdx >= 0 {
			afterDot = afterDot[:eIdx-dotIdx-1]
		}
		if len(afterDot) == 0 {
			return fmt.Sprintf("no digits after decimal point: %s", raw)
		}
	}
	if eIdx >= 0 {
		exp := num[eIdx+1:]
		if len(exp) > 0 && (exp[0] == '+' || exp[0] == '-') {
			exp = exp[1:]
		}
		if len(exp) == 0 {
			return fmt.Sprintf("no digits in exponent: %s", raw)
		}
	}
	return ""
}

func checkUnderscoreAdjacent(raw string) string {
	isSep := func(c byte) bool { return c == '.' || c == 'e' || c == 'E' }
	for i := 0; i < len(raw); i++ {
		if raw[i] != '_' {
			continue
		}
		if i > 0 && isSep(raw[i-1]) {
			return fmt.Sprintf("underscore after %c: %s", raw[i-1], raw)
		}
		if i+1 < len(raw) && isSep(raw[i+1]) {
			return fmt.Sprintf("underscore before %c: %s", raw[i+1], raw)
		}
	}
	return ""
}

func validateUnderscores(raw string) string {
	start := 0
	if len(raw) > 0 && (raw[0] == '+' || raw[0] == '-') {
		start = 1
	}
	if start >= len(raw) {
		return ""
	}
	return validateUnderscoresFrom(raw, start)
}

func validateUnderscoresFrom(s string, start int) string {
	body := s[start:]
	if len(body) == 0 {
		return ""
	}
	if body[0] == '_' {
		return fmt.Sprintf("leading underscore: %s", s)
	}
	if body[len(body)-1] == '_' {
		return fmt.Sprintf("trailing underscore: %s", s)
	}
	for i := 1; i < len(body); i++ {
		if body[i] == '_' && body[i-1] == '_' {
			return fmt.Sprintf("double underscore: %s", s)
		}
	}
	return ""
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isDecDigit(c byte) bool { return c >= '0' && c <= '9' }
func isOctDigit(c byte) bool { return c >= '0' && c <= '7' }
func isBinDigit(c byte) bool { return c == '0' || c == '1' }

var (
	dtDateRe   = `(\d{4})-(\d{2})-(\d{2})`
	dtTimeRe   = `(\d{2}):(\d{2})(?::(\d{2})(\.\d+)?)?`
	dtOffsetRe = `([Zz]|[+-]\d{2}:\d{2})`

	dtReOffsetDT  = regexp.MustCompile(`^` + dtDateRe + `[T t]` + dtTimeRe + dtOffsetRe + `$`)
	dtReLocalDT   = regexp.MustCompile(`^` + dtDateRe + `[T t]` + dtTimeRe + `$`)
	dtReLocalDate = regexp.MustCompile(`^` + dtDateRe + `$`)
	dtReLocalTime = regexp.MustCompile(`^` + dtTimeRe + `$`)
)

// validateDateTimeText validates a datetime token in any of the four
// TOML datetime forms.
func validateDateTimeText(text string) string {
	switch {
	case dtReOffsetDT.MatchString(text):
		return validateDateTimeParts(text, true)
	case dtReLocalDT.MatchString(text):
		return validateDateTimeParts(text, false)
	case dtReLocalDate.MatchString(text):
		return validateDateParts(text)
	case dtReLocalTime.MatchString(text):
		return validateTimeParts(text)
	default:
		return fmt.Sprintf("invalid datetime format: %s", text)
	}
}

func validateDateTimeParts(text string, hasOffset bool) string {
	sep := strings.IndexAny(text, "Tt ")
	if sep < 0 {
		return fmt.Sprintf("invalid datetime: %s", text)
	}
	datePart := text[:sep]
	timePart := text[sep+1:]

	if hasOffset {
		if idx := strings.IndexAny(timePart, "Zz"); idx >= 0 {
			timePart = timePart[:idx]
		} else if idx := strings.LastIndexAny(timePart, "+-"); idx > 0 {
			if msg := validateOffsetText(timePart[idx+1:], text); msg != "" {
				return msg
			}
			timePart = timePart[:idx]
		}
	}

	if msg := validateDateParts(datePart); msg != "" {
		return msg
	}
	return validateTimeParts(timePart)
}

func validateOffsetText(offset, full string) string {
	parts := strings.Split(offset, ":")
	if len(parts) != 2 {
		return fmt.Sprintf("invalid offset format: %s", full)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Sprintf("invalid offset hour: %s", full)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Sprintf("invalid offset minute: %s", full)
	}
	if h > 23 {
		return fmt.Sprintf("offset hour out of range: %s", full)
	}
	if m > 59 {
		return fmt.Sprintf("offset minute out of range: %s", full)
	}
	return ""
}

func validateDateParts(s string) string {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return fmt.Sprintf("invalid date: %s", s)
	}
	if len(parts[0]) != 4 {
		return fmt.Sprintf("year must be 4 digits: %s", s)
	}
	if len(parts[1]) != 2 {
		return fmt.Sprintf("month must be 2 digits: %s", s)
	}
	if len(parts[2]) != 2 {
		return fmt.Sprintf("day must be 2 digits: %s", s)
	}

	year, _ := strconv.Atoi(parts[0])
	month, _ := strconv.Atoi(parts[1])
	day, _ := strconv.Atoi(parts[2])

	if month < 1 || month > 12 {
		return fmt.Sprintf("month out of range: %s", s)
	}
	if day < 1 {
		return fmt.Sprintf("day out of range: %s", s)
	}
	daysInMonth := [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	if isLeapYear(year) {
		daysInMonth[2] = 29
	}
	if day > daysInMonth[month] {
		return fmt.Sprintf("day %d out of range for month %d: %s", day, month, s)
	}
	return ""
}

func isLeapYear(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

func validateTimeParts(s string) string {
	main := s
	if frac := strings.Index(s, "."); frac >= 0 {
		if frac == len(s)-1 {
			return fmt.Sprintf("trailing dot in time: %s", s)
		}
		main = s[:frac]
	}
	parts := strings.Split(main, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return fmt.Sprintf("time must have HH:MM or HH:MM:SS: %s", s)
	}
	for i, want := range []string{"hour", "minute", "second"} {
		if i >= len(parts) {
			break
		}
		if len(parts[i]) != 2 {
			return fmt.Sprintf("%s must be 2 digits: %s", want, s)
		}
	}

	hour, _ := strconv.Atoi(parts[0])
	minute, _ := strconv.Atoi(parts[1])
	if hour > 23 {
		return fmt.Sprintf("hour out of range: %s", s)
	}
	if minute > 59 {
		return fmt.Sprintf("minute out of range: %s", s)
	}
	if len(parts) == 3 {
		sec, _ := strconv.Atoi(parts[2])
		if sec > 60 {
			return fmt.Sprintf("second out of range: %s", s)
		}
	}
	return ""
}

// docValidator enforces TOML's semantic rules after parsing: no
// duplicate keys, no table redefinition, no extending inline tables or
// static arrays, and so on.
type docValidator struct {
	source string

	explicitTables  map[string]bool
	dottedKeyTables map[string]bool
	implicitTables  map[string]bool
	inlinePaths     map[string]bool
	staticArrays    map[string]bool
	aotPaths        map[string]bool
	scalarPaths     map[string]bool
}

func validateDocument(doc *Document, source string) error {
	v := &docValidator{
		source:          source,
		explicitTables:  make(map[string]bool),
		dottedKeyTables: make(map[string]bool),
		implicitTables:  make(map[string]bool),
		inlinePaths:     make(map[string]bool),
		staticArrays:    make(map[string]bool),
		aotPaths:        make(map[string]bool),
		scalarPaths:     make(map[string]bool),
	}
	for _, n := range doc.Nodes {
		var err error
		switch node := n.(type) {
		case *KeyValue:
			err = v.checkKeyValue(nil, node)
		case *TableNode:
			err = v.checkTable(node)
		case *ArrayOfTables:
			err = v.checkAOT(node)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (v *docValidator) errorAt(msg string, line, col int) error {
	return &ParseError{
		Message: msg,
		Line:    line,
		Column:  col,
		Source:  v.source,
	}
}

// keyPartsToPath joins key parts into a canonical dotted path. Parts
// whose name itself contains a dot are quoted so "a"."b.c" stays
// distinguishable from a.b.c.
func keyPartsToPath(parts []KeyPart) string {
	var sb strings.Builder
	for i, p := range parts {
		if i > 0 {
			sb.WriteByte('.')
		}
		if strings.ContainsRune(p.Unquoted, '.') {
			sb.WriteByte('"')
			sb.WriteString(p.Unquoted)
			sb.WriteByte('"')
		} else {
			sb.WriteString(p.Unquoted)
		}
	}
	return sb.String()
}

func buildFullPath(baseParts, keyParts []KeyPart) string {
	all := make([]KeyPart, 0, len(baseParts)+len(keyParts))
	all = append(all, baseParts...)
	all = append(all, keyParts...)
	return keyPartsToPath(all)
}

func (v *docValidator) checkTable(node *TableNode) error {
	path := keyPartsToPath(node.HeaderParts)

	if msg := v.checkTablePathConflicts(path); msg != "" {
		return v.errorAt(msg, node.line, node.col)
	}
	if msg := v.checkIntermediatePaths(node.HeaderParts, "table ["+path+"]"); msg != "" {
		return v.errorAt(msg, node.line, node.col)
	}

	v.explicitTables[path] = true
	v.markParentImplicit(node.HeaderParts)

	return v.checkEntries(node.HeaderParts, node.Entries)
}

func (v *docValidator) checkEntries(baseParts []KeyPart, entries []Node) error {
	for _, entry := range entries {
		if kv, ok := entry.(*KeyValue); ok {
			if err := v.checkKeyValue(baseParts, kv); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *docValidator) checkTablePathConflicts(path string) string {
	switch {
	case v.explicitTables[path]:
		return fmt.Sprintf("duplicate table: [%s]", path)
	case v.aotPaths[path]:
		return fmt.Sprintf("cannot define table [%s] already defined as array of tables", path)
	case v.dottedKeyTables[path]:
		return fmt.Sprintf("cannot reopen table [%s] defined via dotted keys", path)
	case v.scalarPaths[path]:
		return fmt.Sprintf("cannot define table [%s], key already defined as a value", path)
	case v.inlinePaths[path]:
		return fmt.Sprintf("cannot extend inline table/array [%s]", path)
	case v.staticArrays[path]:
		return fmt.Sprintf("cannot extend static array [%s]", path)
	}
	return ""
}

func (v *docValidator) checkIntermediatePaths(parts []KeyPart, what string) string {
	for i := 1; i < len(parts); i++ {
		parentPath := keyPartsToPath(parts[:i])
		switch {
		case v.scalarPaths[parentPath]:
			return fmt.Sprintf("cannot define %s, key %q already a value", what, parentPath)
		case v.inlinePaths[parentPath]:
			return fmt.Sprintf("cannot extend inline table/array at %q", parentPath)
		case v.staticArrays[parentPath]:
			return fmt.Sprintf("cannot extend static array at %q", parentPath)
		}
	}
	return ""
}

func (v *docValidator) markParentImplicit(parts []KeyPart) {
	for i := 1; i < len(parts); i++ {
		parentPath := keyPartsToPath(parts[:i])
		if !v.explicitTables[parentPath] && !v.aotPaths[parentPath] {
			v.implicitTables[parentPath] = true
		}
	}
}

func (v *docValidator) checkAOT(node *ArrayOfTables) error {
	path := keyPartsToPath(node.HeaderParts)

	if msg := v.checkAOTPathConflicts(path); msg != "" {
		return v.errorAt(msg, node.line, node.col)
	}
	if msg := v.checkIntermediatePaths(node.HeaderParts, "array [["+path+"]]"); msg != "" {
		return v.errorAt(msg, node.line, node.col)
	}

	v.aotPaths[path] = true
	v.markParentImplicit(node.HeaderParts)
	// Each [[header]] opens a fresh element; sub-paths defined under the
	// previous element no longer conflict.
	v.clearSubScope(path)

	return v.checkEntries(node.HeaderParts, node.Entries)
}

func (v *docValidator) checkAOTPathConflicts(path string) string {
	switch {
	case v.explicitTables[path]:
		return fmt.Sprintf("cannot define array of tables [[%s]] already defined as table", path)
	case v.scalarPaths[path]:
		return fmt.Sprintf("cannot define array [[%s]], key already a value", path)
	case v.inlinePaths[path]:
		return fmt.Sprintf("cannot extend inline table/array [[%s]]", path)
	case v.staticArrays[path]:
		return fmt.Sprintf("cannot extend static array [[%s]]", path)
	case v.dottedKeyTables[path]:
		return fmt.Sprintf("cannot define array [[%s]], key defined via dotted keys", path)
	case v.implicitTables[path] && !v.aotPaths[path]:
		return fmt.Sprintf("cannot define array [[%s]], key already implicitly a table", path)
	}
	return ""
}

func (v *docValidator) clearSubScope(path string) {
	prefix := path + "."
	for _, m := range []map[string]bool{
		v.explicitTables, v.dottedKeyTables, v.scalarPaths, v.inlinePaths, v.staticArrays,
	} {
		for k := range m {
			if strings.HasPrefix(k, prefix) {
				delete(m, k)
			}
		}
	}
}

func (v *docValidator) checkKeyValue(baseParts []KeyPart, kv *KeyValue) error {
	for i := 0; i < len(kv.KeyParts)-1; i++ {
		intermediatePath := buildFullPath(baseParts, kv.KeyParts[:i+1])
		if msg := v.checkDottedIntermediate(intermediatePath); msg != "" {
			return v.errorAt(msg, kv.line, kv.col)
		}
		v.dottedKeyTables[intermediatePath] = true
	}

	leafPath := buildFullPath(baseParts, kv.KeyParts)

	if msg := v.checkLeafConflict(leafPath); msg != "" {
		return v.errorAt(msg, kv.line, kv.col)
	}

	v.markLeafPath(leafPath, kv.Val)

	if it, ok := kv.Val.(*InlineTableNode); ok {
		if err := v.checkInlineTableKeys(it, kv.line, kv.col); err != nil {
			return err
		}
	}
	return nil
}

func (v *docValidator) checkDottedIntermediate(path string) string {
	switch {
	case v.inlinePaths[path]:
		return fmt.Sprintf("cannot extend inline table at %q", path)
	case v.scalarPaths[path]:
		return fmt.Sprintf("key %q already defined as a value", path)
	case v.explicitTables[path]:
		return fmt.Sprintf("cannot add to explicitly defined table %q via dotted keys", path)
	case v.aotPaths[path]:
		return fmt.Sprintf("cannot extend array of tables %q via dotted keys", path)
	}
	return ""
}

func (v *docValidator) checkLeafConflict(path string) string {
	switch {
	case v.scalarPaths[path], v.inlinePaths[path]:
		return fmt.Sprintf("duplicate key %q", path)
	case v.dottedKeyTables[path]:
		return fmt.Sprintf("key %q already used as a table via dotted keys", path)
	case v.aotPaths[path]:
		return fmt.Sprintf("key %q already defined as array of tables", path)
	}
	return ""
}

func (v *docValidator) markLeafPath(path string, val Node) {
	switch val.(type) {
	case *InlineTableNode:
		v.markInlinePaths(path, val)
	case *ArrayNode:
		v.markInlinePaths(path, val)
		v.staticArrays[path] = true
	default:
		v.scalarPaths[path] = true
	}
}

func (v *docValidator) markInlinePaths(path string, val Node) {
	v.inlinePaths[path] = true
	switch n := val.(type) {
	case *InlineTableNode:
		for _, kv := range n.Entries {
			v.markInlinePaths(path+"."+keyPartsToPath(kv.KeyParts), kv.Val)
		}
	case *ArrayNode:
		for _, elem := range n.Elements {
			it, ok := elem.(*InlineTableNode)
			if !ok {
				continue
			}
			for _, kv := range it.Entries {
				v.markInlinePaths(path+"."+keyPartsToPath(kv.KeyParts), kv.Val)
			}
		}
	}
}

func (v *docValidator) checkInlineTableKeys(it *InlineTableNode, line, col int) error {
	seen := make(map[string]bool)
	for _, kv := range it.Entries {
		fullKey := keyPartsToPath(kv.KeyParts)
		if seen[fullKey] {
			return v.errorAt(fmt.Sprintf("duplicate key %q in inline table", fullKey), line, col)
		}
		seen[fullKey] = true
		for i := 1; i < len(kv.KeyParts); i++ {
			prefix := keyPartsToPath(kv.KeyParts[:i])
			if seen[prefix] {
				return v.errorAt(fmt.Sprintf("key %q conflicts with dotted key in inline table", prefix), line, col)
			}
		}
	}
	return nil
}
