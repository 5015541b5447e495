package tomledit_test

import (
	"fmt"

	"github.com/maurice/tomledit"
)

func ExampleParse() {
	doc, err := tomledit.Parse([]byte("# project config\nname = \"demo\"\n"))
	if err != nil {
		panic(err)
	}
	fmt.Print(doc.String())
	// Output:
	// # project config
	// name = "demo"
}

func ExampleDocument_Get() {
	doc, _ := tomledit.Parse([]byte("[project]\nversion = \"0.1.0\"\n"))
	kv := doc.Get("project.version")
	fmt.Println(kv.Val.(*tomledit.StringNode).Value())
	// Output:
	// 0.1.0
}

func ExampleApply() {
	doc, _ := tomledit.Parse([]byte("[project]\nversion = \"0.1.0\"  # keep me\n"))
	if err := tomledit.Apply(doc, tomledit.ModeSet, "project.version", "0.2.0", true); err != nil {
		panic(err)
	}
	fmt.Print(doc.String())
	// Output:
	// [project]
	// version = "0.2.0"  # keep me
}

func ExampleApply_add() {
	doc, _ := tomledit.Parse([]byte("tags = [\"cli\"]\n"))
	if err := tomledit.Apply(doc, tomledit.ModeAdd, "tags", "toml", true); err != nil {
		panic(err)
	}
	fmt.Print(doc.String())
	// Output:
	// tags = ["cli", "toml"]
}

func ExampleApplyAll() {
	doc, _ := tomledit.Parse([]byte("[tool.ruff]\nline-length = 100\n"))
	err := tomledit.ApplyAll(doc, []string{"tool", "ruff"}, []tomledit.EditRequest{
		{Switch: tomledit.ModeSet, Key: "fix", Value: "true", HasValue: true},
	})
	if err != nil {
		panic(err)
	}
	fmt.Print(doc.String())
	// Output:
	// [tool.ruff]
	// line-length = 100
	// fix = true
}

func ExampleParseValue() {
	n, _ := tomledit.ParseValue("0.2.0")
	fmt.Println(n.Text())
	n, _ = tomledit.ParseValue("42")
	fmt.Println(n.Type() == tomledit.NodeNumber)
	// Output:
	// "0.2.0"
	// true
}
