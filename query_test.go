package tomledit

import "testing"

const querySample = `title = "root"

[project]
name = "demo"
version = "0.1.0"
count = 42
ratio = 0.5
debug = true
tags = ["a", "b"]
opts = { fix = true, level = 3 }

[project.urls]
home = 'https://example.org'

[[tool.hooks]]
name = "fmt"
`

func TestGet_TopLevel(t *testing.T) {
	doc := mustParse(t, querySample)
	kv := doc.Get("title")
	if kv == nil {
		t.Fatal("title not found")
	}
	s, ok := kv.Val.(*StringNode)
	if !ok {
		t.Fatalf("expected StringNode, got %T", kv.Val)
	}
	if s.Value() != "root" {
		t.Fatalf("expected 'root', got %q", s.Value())
	}
}

func TestGet_InTable(t *testing.T) {
	doc := mustParse(t, querySample)
	kv := doc.Get("project.name")
	if kv == nil {
		t.Fatal("project.name not found")
	}
	if kv.Val.(*StringNode).Value() != "demo" {
		t.Fatalf("unexpected value: %q", kv.Val.Text())
	}
}

func TestGet_LongestTablePrefix(t *testing.T) {
	doc := mustParse(t, querySample)
	kv := doc.Get("project.urls.home")
	if kv == nil {
		t.Fatal("project.urls.home not found")
	}
	if kv.Val.(*StringNode).Value() != "https://example.org" {
		t.Fatalf("unexpected value: %q", kv.Val.Text())
	}
}

func TestGet_InsideInlineTable(t *testing.T) {
	doc := mustParse(t, querySample)
	kv := doc.Get("project.opts.level")
	if kv == nil {
		t.Fatal("project.opts.level not found")
	}
	n, err := kv.Val.(*NumberNode).Int()
	if err != nil {
		t.Fatalf("Int error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
}

func TestGet_Missing(t *testing.T) {
	doc := mustParse(t, querySample)
	if kv := doc.Get("project.nope"); kv != nil {
		t.Fatalf("expected nil, got %v", kv.Text())
	}
}

func TestGet_QuotedSegment(t *testing.T) {
	doc := mustParse(t, "[deps]\n\"foo.bar\" = 1\n")
	if kv := doc.Get(`deps."foo.bar"`); kv == nil {
		t.Fatal("quoted segment lookup failed")
	}
}

func TestTable(t *testing.T) {
	doc := mustParse(t, querySample)
	tbl := doc.Table("project.urls")
	if tbl == nil {
		t.Fatal("project.urls not found")
	}
	if tbl.RawHeader != "project.urls" {
		t.Fatalf("unexpected header: %q", tbl.RawHeader)
	}
	if doc.Table("tool") != nil {
		t.Fatal("expected nil for undefined table")
	}
}

func TestNumberNode_Int(t *testing.T) {
	doc := mustParse(t, "a = 1_000\nb = 0x1F\nc = 0o17\nd = 0b101\n")
	cases := map[string]int64{"a": 1000, "b": 31, "c": 15, "d": 5}
	for key, want := range cases {
		got, err := doc.Get(key).Val.(*NumberNode).Int()
		if err != nil {
			t.Fatalf("%s: %v", key, err)
		}
		if got != want {
			t.Fatalf("%s: expected %d, got %d", key, want, got)
		}
	}
}

func TestNumberNode_IntOnFloat(t *testing.T) {
	doc := mustParse(t, "r = 0.5\n")
	if _, err := doc.Get("r").Val.(*NumberNode).Int(); err == nil {
		t.Fatal("expected error converting float to int")
	}
}

func TestNumberNode_Float(t *testing.T) {
	doc := mustParse(t, "r = 1_0.5e1\n")
	got, err := doc.Get("r").Val.(*NumberNode).Float()
	if err != nil {
		t.Fatalf("Float error: %v", err)
	}
	if got != 105.0 {
		t.Fatalf("expected 105.0, got %v", got)
	}
}

func TestBooleanNode_Value(t *testing.T) {
	doc := mustParse(t, "on = true\noff = false\n")
	if !doc.Get("on").Val.(*BooleanNode).Value() {
		t.Fatal("expected true")
	}
	if doc.Get("off").Val.(*BooleanNode).Value() {
		t.Fatal("expected false")
	}
}

func TestStringNode_Value_Escapes(t *testing.T) {
	doc := mustParse(t, `s = "tab\there\u00e9"`+"\n")
	if got := doc.Get("s").Val.(*StringNode).Value(); got != "tab\there\u00e9" {
		t.Fatalf("unexpected decoded value: %q", got)
	}
}

func TestStringNode_Value_MultiLine(t *testing.T) {
	doc := mustParse(t, "s = \"\"\"\nline one\\\n    joined\"\"\"\n")
	if got := doc.Get("s").Val.(*StringNode).Value(); got != "line one"+"joined" {
		t.Fatalf("unexpected decoded value: %q", got)
	}
}

func TestStringNode_Value_Literal(t *testing.T) {
	doc := mustParse(t, `s = 'C:\path\no\escapes'`+"\n")
	if got := doc.Get("s").Val.(*StringNode).Value(); got != `C:\path\no\escapes` {
		t.Fatalf("unexpected value: %q", got)
	}
}
