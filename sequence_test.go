package tomledit

import (
	"errors"
	"strings"
	"testing"
)

func TestApplyAll_DefaultModeIsAuto(t *testing.T) {
	doc := mustParse(t, editSample)
	reqs := []EditRequest{
		{Key: "project.version", Value: "0.2.0", HasValue: true},
		{Key: "project.dependencies", Value: "flask", HasValue: true},
	}
	if err := ApplyAll(doc, nil, reqs); err != nil {
		t.Fatalf("ApplyAll: %v", err)
	}
	if doc.Get("project.version").Val.(*StringNode).Value() != "0.2.0" {
		t.Fatal("version not set")
	}
	deps := doc.Get("project.dependencies").Val.(*ArrayNode)
	if len(deps.Elements) != 3 {
		t.Fatalf("expected 3 dependencies, got %d", len(deps.Elements))
	}
}

func TestApplyAll_ModePersistsAcrossRequests(t *testing.T) {
	doc := mustParse(t, "[project]\nkeywords = [\"a\"]\n")
	reqs := []EditRequest{
		{Switch: ModeAdd, Key: "project.keywords", Value: "b", HasValue: true},
		{Key: "project.keywords", Value: "c", HasValue: true}, // still add
		{Switch: ModeSet, Key: "project.name", Value: "demo", HasValue: true},
	}
	if err := ApplyAll(doc, nil, reqs); err != nil {
		t.Fatalf("ApplyAll: %v", err)
	}
	arr := doc.Get("project.keywords").Val.(*ArrayNode)
	if len(arr.Elements) != 3 {
		t.Fatalf("mode did not persist, got %d elements", len(arr.Elements))
	}
}

func TestApplyAll_SwitchBackToSet(t *testing.T) {
	doc := mustParse(t, "[project]\ntags = [\"a\", \"b\"]\n")
	reqs := []EditRequest{
		{Switch: ModeSet, Key: "project.tags", Value: `["x"]`, HasValue: true},
	}
	if err := ApplyAll(doc, nil, reqs); err != nil {
		t.Fatalf("ApplyAll: %v", err)
	}
	arr := doc.Get("project.tags").Val.(*ArrayNode)
	if len(arr.Elements) != 1 {
		t.Fatalf("set did not replace the array, got %d elements", len(arr.Elements))
	}
}

func TestApplyAll_StopsAtFirstError(t *testing.T) {
	doc := mustParse(t, editSample)
	reqs := []EditRequest{
		{Switch: ModeSet, Key: "project.version", Value: "0.2.0", HasValue: true},
		{Switch: ModeRemove, Key: "project.nope"},
		{Switch: ModeSet, Key: "project.name", Value: "changed", HasValue: true},
	}
	err := ApplyAll(doc, nil, reqs)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// Edits before the failure are applied, edits after are not.
	if doc.Get("project.version").Val.(*StringNode).Value() != "0.2.0" {
		t.Fatal("first edit should have applied")
	}
	if doc.Get("project.name").Val.(*StringNode).Value() != "demo" {
		t.Fatal("edit after the failure must not apply")
	}
}

func TestApplyAll_ErrorNamesFailingEdit(t *testing.T) {
	doc := mustParse(t, editSample)
	reqs := []EditRequest{
		{Key: "project.version", Value: "0.2.0", HasValue: true},
		{Switch: ModeRemove, Key: "project.nope"},
	}
	err := ApplyAll(doc, nil, reqs)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "edit 2") || !strings.Contains(err.Error(), "project.nope") {
		t.Fatalf("error does not identify the failing edit: %v", err)
	}
}

func TestApplyAll_PrefixComposition(t *testing.T) {
	prefixed := mustParse(t, editSample)
	plain := mustParse(t, editSample)

	err := ApplyAll(prefixed, []string{"project"}, []EditRequest{
		{Switch: ModeSet, Key: "version", Value: "0.2.0", HasValue: true},
	})
	if err != nil {
		t.Fatalf("prefixed: %v", err)
	}
	err = ApplyAll(plain, nil, []EditRequest{
		{Switch: ModeSet, Key: "project.version", Value: "0.2.0", HasValue: true},
	})
	if err != nil {
		t.Fatalf("plain: %v", err)
	}
	if prefixed.String() != plain.String() {
		t.Fatalf("prefix composition diverged:\n%s\n---\n%s", prefixed.String(), plain.String())
	}
}

func TestApplyAll_PrefixCreatesEntries(t *testing.T) {
	doc := mustParse(t, editSample)
	reqs := []EditRequest{
		{Switch: ModeSet, Key: "fix", Value: "true", HasValue: true},
		{Switch: ModeAdd, Key: "extend-include", Value: "*.pyw", HasValue: true},
	}
	if err := ApplyAll(doc, []string{"tool", "ruff"}, reqs); err != nil {
		t.Fatalf("ApplyAll: %v", err)
	}
	if !doc.Get("tool.ruff.fix").Val.(*BooleanNode).Value() {
		t.Fatal("tool.ruff.fix not set")
	}
	arr := doc.Get("tool.ruff.extend-include").Val.(*ArrayNode)
	if arr.Text() != `["*.pyw"]` {
		t.Fatalf("unexpected array: %q", arr.Text())
	}
}

func TestApplyAll_InvalidKeyInRequest(t *testing.T) {
	doc := mustParse(t, editSample)
	err := ApplyAll(doc, nil, []EditRequest{{Key: "a..b", Value: "1", HasValue: true}})
	if !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}
}

func TestApplyAll_Empty(t *testing.T) {
	doc := mustParse(t, editSample)
	if err := ApplyAll(doc, nil, nil); err != nil {
		t.Fatalf("ApplyAll: %v", err)
	}
	if doc.String() != editSample {
		t.Fatal("document changed with no requests")
	}
}
