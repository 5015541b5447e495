package tomledit

import (
	"strings"
	"testing"
)

func TestDeleteTable(t *testing.T) {
	doc := mustParse(t, "a = 1\n[t]\nx = 1\n[u]\ny = 2\n")
	if !doc.DeleteTable("t") {
		t.Fatal("DeleteTable returned false")
	}
	if strings.Contains(doc.String(), "[t]") {
		t.Fatalf("table still present:\n%s", doc.String())
	}
	if doc.Get("u.y") == nil {
		t.Fatal("unrelated table lost")
	}
}

func TestDocumentAppend_Table(t *testing.T) {
	doc := mustParse(t, "a = 1\n")
	tbl, err := NewTable("server")
	if err != nil {
		t.Fatalf("NewTable error: %v", err)
	}
	if err := doc.Append(tbl); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if !strings.Contains(doc.String(), "[server]") {
		t.Fatalf("table not serialized:\n%s", doc.String())
	}
}

func TestDocumentAppend_RollsBackOnConflict(t *testing.T) {
	doc := mustParse(t, "[server]\nhost = \"x\"\n")
	tbl, _ := NewTable("server")
	if err := doc.Append(tbl); err == nil {
		t.Fatal("expected duplicate table error")
	}
	if got := doc.String(); got != "[server]\nhost = \"x\"\n" {
		t.Fatalf("document changed after failed append: %q", got)
	}
}

func TestDocumentInsertAt(t *testing.T) {
	doc := mustParse(t, "a = 1\nb = 2\n")
	kv, _ := NewKeyValue("m", NewInteger(9))
	if err := doc.InsertAt(1, kv); err != nil {
		t.Fatalf("InsertAt error: %v", err)
	}
	if got := doc.String(); got != "a = 1\nm = 9\nb = 2\n" {
		t.Fatalf("unexpected order: %q", got)
	}
}

func TestArrayNodeAppend(t *testing.T) {
	doc := mustParse(t, "tags = [1, 2]\n")
	arr := doc.Get("tags").Val.(*ArrayNode)
	if err := arr.Append(NewInteger(3)); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if len(arr.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(arr.Elements))
	}
	if got := doc.String(); got != "tags = [1, 2, 3]\n" {
		t.Fatalf("serialization not regenerated: %q", got)
	}
}

func TestArrayNodeDelete(t *testing.T) {
	doc := mustParse(t, "tags = [1, 2, 3]\n")
	arr := doc.Get("tags").Val.(*ArrayNode)
	if err := arr.Delete(1); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if got := doc.String(); got != "tags = [1, 3]\n" {
		t.Fatalf("unexpected result: %q", got)
	}
	if err := arr.Delete(5); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestInlineTableAppend(t *testing.T) {
	doc := mustParse(t, "opts = {a = 1}\n")
	it := doc.Get("opts").Val.(*InlineTableNode)
	kv, _ := NewKeyValue("b", NewInteger(2))
	if err := it.Append(kv); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if got := doc.String(); got != "opts = {a = 1, b = 2}\n" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestInlineTableAppend_Duplicate(t *testing.T) {
	doc := mustParse(t, "opts = {a = 1}\n")
	it := doc.Get("opts").Val.(*InlineTableNode)
	kv, _ := NewKeyValue("a", NewInteger(2))
	if err := it.Append(kv); err == nil {
		t.Fatal("expected duplicate key error")
	}
}

func TestInlineTableDelete(t *testing.T) {
	doc := mustParse(t, "opts = {a = 1, b = 2}\n")
	it := doc.Get("opts").Val.(*InlineTableNode)
	if !it.Delete("a") {
		t.Fatal("Delete returned false")
	}
	if got := doc.String(); got != "opts = {b = 2}\n" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestTableAppendComment(t *testing.T) {
	doc := mustParse(t, "[t]\na = 1\n")
	tbl := doc.Table("t")
	if err := tbl.AppendComment("note"); err != nil {
		t.Fatalf("AppendComment error: %v", err)
	}
	if !strings.Contains(doc.String(), "# note\n") {
		t.Fatalf("comment missing:\n%s", doc.String())
	}
}

func TestDocumentAppendBlankLine(t *testing.T) {
	doc := mustParse(t, "a = 1\n")
	if err := doc.AppendBlankLine(); err != nil {
		t.Fatalf("AppendBlankLine error: %v", err)
	}
	if got := doc.String(); got != "a = 1\n\n" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestDocumentValidate_CatchesManualConflict(t *testing.T) {
	doc := mustParse(t, "a = 1\nb = 2\n")
	kv := doc.Get("b")
	kv.RawKey = "a"
	kv.KeyParts = []KeyPart{{Text: "a", Unquoted: "a"}}
	if err := doc.Validate(); err == nil {
		t.Fatal("expected duplicate key error")
	}
}
