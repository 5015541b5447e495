package tomledit

import (
	"errors"
	"strings"
	"testing"
)

const editSample = `[project]
name = "demo"
version = "0.1.0"
authors = [
    { name = "John Doe", email = "john.doe@example.org" },
]
dependencies = [
    "requests",
    "rich>=13",
]

[tool.ruff]
line-length = 100
`

func applyOne(t *testing.T, doc *Document, mode Mode, path, value string) {
	t.Helper()
	if err := Apply(doc, mode, path, value, true); err != nil {
		t.Fatalf("%s %s %s: %v", mode, path, value, err)
	}
}

func TestSet_ReplacesScalar(t *testing.T) {
	doc := mustParse(t, editSample)
	applyOne(t, doc, ModeSet, "project.version", "0.2.0")
	kv := doc.Get("project.version")
	if kv.Val.(*StringNode).Value() != "0.2.0" {
		t.Fatalf("unexpected value: %q", kv.Val.Text())
	}
	if !strings.Contains(doc.String(), `version = "0.2.0"`) {
		t.Fatalf("serialized doc missing new value:\n%s", doc.String())
	}
}

func TestSet_ReplacesWholeArray(t *testing.T) {
	doc := mustParse(t, editSample)
	applyOne(t, doc, ModeSet, "project.dependencies", `["flask"]`)
	arr := doc.Get("project.dependencies").Val.(*ArrayNode)
	if len(arr.Elements) != 1 {
		t.Fatalf("expected 1 element, got %d", len(arr.Elements))
	}
}

func TestSet_InsertsMissingKey(t *testing.T) {
	doc := mustParse(t, editSample)
	applyOne(t, doc, ModeSet, "project.readme", "README.md")
	kv := doc.Get("project.readme")
	if kv == nil {
		t.Fatal("project.readme not inserted")
	}
	if kv.Val.(*StringNode).Value() != "README.md" {
		t.Fatalf("unexpected value: %q", kv.Val.Text())
	}
	if !strings.Contains(doc.String(), "readme = \"README.md\"\n") {
		t.Fatalf("serialized doc missing entry:\n%s", doc.String())
	}
}

func TestSet_Idempotent(t *testing.T) {
	doc1 := mustParse(t, editSample)
	applyOne(t, doc1, ModeSet, "project.version", "0.2.0")
	once := doc1.String()
	applyOne(t, doc1, ModeSet, "project.version", "0.2.0")
	if doc1.String() != once {
		t.Fatalf("second set changed the document:\n%s", doc1.String())
	}
}

func TestSet_NewRootKeyBeforeFirstTable(t *testing.T) {
	doc := mustParse(t, "existing = 0\n[t]\na = 1\n")
	applyOne(t, doc, ModeSet, "top", "1")
	got := doc.String()
	if !strings.HasPrefix(got, "existing = 0\ntop = 1\n[t]") {
		t.Fatalf("new root key not placed before table:\n%s", got)
	}
}

func TestSet_InvalidLiteral(t *testing.T) {
	doc := mustParse(t, editSample)
	err := Apply(doc, ModeSet, "project.version", `"unterminated`, true)
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
	if doc.String() != editSample {
		t.Fatal("document changed after failed edit")
	}
}

func TestSet_MissingValue(t *testing.T) {
	doc := mustParse(t, editSample)
	if err := Apply(doc, ModeSet, "project.version", "", false); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestAdd_AppendsToArray(t *testing.T) {
	doc := mustParse(t, editSample)
	applyOne(t, doc, ModeAdd, "project.dependencies", "flask")
	arr := doc.Get("project.dependencies").Val.(*ArrayNode)
	if len(arr.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(arr.Elements))
	}
	want := "dependencies = [\n    \"requests\",\n    \"rich>=13\",\n    \"flask\",\n]\n"
	if !strings.Contains(doc.String(), want) {
		t.Fatalf("multi-line layout not preserved:\n%s", doc.String())
	}
}

func TestAdd_SingleLineArrayStaysSingleLine(t *testing.T) {
	doc := mustParse(t, "tags = [\"a\", \"b\"]\n")
	applyOne(t, doc, ModeAdd, "tags", "c")
	if got := doc.String(); got != "tags = [\"a\", \"b\", \"c\"]\n" {
		t.Fatalf("unexpected layout: %q", got)
	}
}

func TestAdd_EmptyArray(t *testing.T) {
	doc := mustParse(t, "tags = []\n")
	applyOne(t, doc, ModeAdd, "tags", "a")
	if got := doc.String(); got != "tags = [\"a\"]\n" {
		t.Fatalf("unexpected layout: %q", got)
	}
}

func TestAdd_CreatesArrayWhenAbsent(t *testing.T) {
	doc := mustParse(t, editSample)
	applyOne(t, doc, ModeAdd, "project.keywords", "toml")
	arr := doc.Get("project.keywords").Val.(*ArrayNode)
	if len(arr.Elements) != 1 {
		t.Fatalf("expected 1 element, got %d", len(arr.Elements))
	}
	if arr.Text() != `["toml"]` {
		t.Fatalf("unexpected text: %q", arr.Text())
	}
}

func TestAdd_CoercesScalarKeepingLiteral(t *testing.T) {
	doc := mustParse(t, "[project]\nlicense = 'MIT'\n")
	applyOne(t, doc, ModeAdd, "project.license", "BSD")
	arr, ok := doc.Get("project.license").Val.(*ArrayNode)
	if !ok {
		t.Fatalf("expected array after coercion, got %T", doc.Get("project.license").Val)
	}
	if arr.Text() != `['MIT', "BSD"]` {
		t.Fatalf("original literal not preserved: %q", arr.Text())
	}
}

func TestAdd_InlineTableElement(t *testing.T) {
	doc := mustParse(t, editSample)
	applyOne(t, doc, ModeAdd, "project.authors", `{ name = "Jane Doe", email = "jane@example.org" }`)
	arr := doc.Get("project.authors").Val.(*ArrayNode)
	if len(arr.Elements) != 2 {
		t.Fatalf("expected 2 authors, got %d", len(arr.Elements))
	}
	want := "authors = [\n" +
		"    { name = \"John Doe\", email = \"john.doe@example.org\" },\n" +
		"    { name = \"Jane Doe\", email = \"jane@example.org\" },\n" +
		"]\n"
	if !strings.Contains(doc.String(), want) {
		t.Fatalf("author append broke layout:\n%s", doc.String())
	}
}

func TestAuto_AppendsOnArray(t *testing.T) {
	a := mustParse(t, editSample)
	b := mustParse(t, editSample)
	applyOne(t, a, ModeAuto, "project.dependencies", "flask")
	applyOne(t, b, ModeAdd, "project.dependencies", "flask")
	if a.String() != b.String() {
		t.Fatalf("auto and add diverged on array:\n%s\n---\n%s", a.String(), b.String())
	}
}

func TestAuto_SetsOnScalar(t *testing.T) {
	doc := mustParse(t, editSample)
	applyOne(t, doc, ModeAuto, "project.version", "0.2.0")
	if _, isArray := doc.Get("project.version").Val.(*ArrayNode); isArray {
		t.Fatal("auto coerced a scalar instead of setting")
	}
	if doc.Get("project.version").Val.(*StringNode).Value() != "0.2.0" {
		t.Fatal("auto did not set scalar value")
	}
}

func TestAuto_SetsWhenAbsent(t *testing.T) {
	doc := mustParse(t, editSample)
	applyOne(t, doc, ModeAuto, "project.readme", "README.md")
	if _, isArray := doc.Get("project.readme").Val.(*ArrayNode); isArray {
		t.Fatal("auto created an array for a missing key")
	}
}

func TestRemove_Entry(t *testing.T) {
	doc := mustParse(t, editSample)
	if err := Apply(doc, ModeRemove, "project.version", "", false); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if doc.Get("project.version") != nil {
		t.Fatal("project.version still present")
	}
	if strings.Contains(doc.String(), "version") {
		t.Fatalf("serialized doc still has the key:\n%s", doc.String())
	}
}

func TestRemove_Missing(t *testing.T) {
	doc := mustParse(t, editSample)
	err := Apply(doc, ModeRemove, "project.nope", "", false)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if doc.String() != editSample {
		t.Fatal("document changed after failed remove")
	}
}

func TestRemove_ArrayElement(t *testing.T) {
	doc := mustParse(t, editSample)
	if err := Apply(doc, ModeRemove, "project.dependencies", "requests", true); err != nil {
		t.Fatalf("remove element: %v", err)
	}
	arr := doc.Get("project.dependencies").Val.(*ArrayNode)
	if len(arr.Elements) != 1 {
		t.Fatalf("expected 1 element, got %d", len(arr.Elements))
	}
	if arr.Elements[0].(*StringNode).Value() != "rich>=13" {
		t.Fatalf("wrong element removed: %q", arr.Elements[0].Text())
	}
}

func TestRemove_ArrayElementNotFound(t *testing.T) {
	doc := mustParse(t, editSample)
	err := Apply(doc, ModeRemove, "project.dependencies", "nope", true)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemove_ValueOnScalar(t *testing.T) {
	doc := mustParse(t, editSample)
	err := Apply(doc, ModeRemove, "project.version", "0.1.0", true)
	if !errors.Is(err, ErrTypeConflict) {
		t.Fatalf("expected ErrTypeConflict, got %v", err)
	}
}

func TestRemove_ElementMatchesStructurally(t *testing.T) {
	doc := mustParse(t, "nums = [ 1_0 , 2 ]\n")
	if err := Apply(doc, ModeRemove, "nums", "10", true); err != nil {
		t.Fatalf("remove element: %v", err)
	}
	arr := doc.Get("nums").Val.(*ArrayNode)
	if len(arr.Elements) != 1 || arr.Elements[0].Text() != "2" {
		t.Fatalf("unexpected remaining elements: %q", arr.Text())
	}
}

func TestRemove_Section(t *testing.T) {
	doc := mustParse(t, editSample)
	if err := Apply(doc, ModeRemove, "tool.ruff", "", false); err != nil {
		t.Fatalf("remove section: %v", err)
	}
	if strings.Contains(doc.String(), "ruff") {
		t.Fatalf("section still present:\n%s", doc.String())
	}
}

func TestRemove_SectionSubtree(t *testing.T) {
	doc := mustParse(t, "[a]\nx = 1\n[a.b]\ny = 2\n[c]\nz = 3\n")
	if err := Apply(doc, ModeRemove, "a", "", false); err != nil {
		t.Fatalf("remove section: %v", err)
	}
	if got := doc.String(); got != "[c]\nz = 3\n" {
		t.Fatalf("nested section not removed: %q", got)
	}
}

func TestRemove_DottedKeysUnderPath(t *testing.T) {
	doc := mustParse(t, "[t]\na.b.c = 1\na.b.d = 2\nkeep = 3\n")
	if err := Apply(doc, ModeRemove, "t.a.b", "", false); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := doc.String(); got != "[t]\nkeep = 3\n" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestSet_SectionTarget(t *testing.T) {
	doc := mustParse(t, editSample)
	err := Apply(doc, ModeSet, "tool.ruff", "1", true)
	if !errors.Is(err, ErrTypeConflict) {
		t.Fatalf("expected ErrTypeConflict, got %v", err)
	}
}

func TestSet_ThroughScalarPrefix(t *testing.T) {
	doc := mustParse(t, editSample)
	err := Apply(doc, ModeSet, "project.version.minor", "2", true)
	if !errors.Is(err, ErrTypeConflict) {
		t.Fatalf("expected ErrTypeConflict, got %v", err)
	}
}

func TestSet_ThroughArrayOfTables(t *testing.T) {
	doc := mustParse(t, "[[servers]]\nname = \"a\"\n")
	err := Apply(doc, ModeSet, "servers.name", "b", true)
	if !errors.Is(err, ErrTypeConflict) {
		t.Fatalf("expected ErrTypeConflict, got %v", err)
	}
}

func TestSet_InsideInlineTable(t *testing.T) {
	doc := mustParse(t, "[tool]\nopts = { fix = false }\n")
	applyOne(t, doc, ModeSet, "tool.opts.fix", "true")
	if !doc.Get("tool.opts.fix").Val.(*BooleanNode).Value() {
		t.Fatal("inline table value not set")
	}
}

func TestSet_ResidualSegmentsEmitDottedKey(t *testing.T) {
	doc := mustParse(t, "[tool]\na = 1\n")
	applyOne(t, doc, ModeSet, "tool.ruff.fix", "true")
	if !strings.Contains(doc.String(), "ruff.fix = true\n") {
		t.Fatalf("dotted key not emitted:\n%s", doc.String())
	}
}

func TestSet_QuotedSegmentRendered(t *testing.T) {
	doc := mustParse(t, "[deps]\na = 1\n")
	applyOne(t, doc, ModeSet, `deps."foo.bar"`, "1")
	if !strings.Contains(doc.String(), "\"foo.bar\" = 1\n") {
		t.Fatalf("quoted segment not rendered:\n%s", doc.String())
	}
}

func TestApply_InvalidPath(t *testing.T) {
	doc := mustParse(t, editSample)
	for _, path := range []string{"", "a..b", ".a", "a."} {
		if err := Apply(doc, ModeSet, path, "1", true); !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("%q: expected ErrInvalidPath, got %v", path, err)
		}
	}
}

func TestEndToEnd_Readme(t *testing.T) {
	doc := mustParse(t, editSample)
	applyOne(t, doc, ModeSet, "project.version", "0.2.0")
	applyOne(t, doc, ModeSet, "project.readme", "README.md")
	applyOne(t, doc, ModeAdd, "project.authors", `{ name = "Jane Doe", email = "jane@example.org" }`)

	if doc.Get("project.version").Val.(*StringNode).Value() != "0.2.0" {
		t.Fatal("version not bumped")
	}
	if doc.Get("project.readme") == nil {
		t.Fatal("readme not added")
	}
	authors := doc.Get("project.authors").Val.(*ArrayNode)
	if len(authors.Elements) != 2 {
		t.Fatalf("expected 2 authors, got %d", len(authors.Elements))
	}
	first := authors.Elements[0].(*InlineTableNode)
	if first.Get("name").Val.(*StringNode).Value() != "John Doe" {
		t.Fatal("original author entry changed")
	}
	deps := "dependencies = [\n    \"requests\",\n    \"rich>=13\",\n]\n"
	if !strings.Contains(doc.String(), deps) {
		t.Fatalf("untouched dependencies array changed:\n%s", doc.String())
	}
}
