package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dgallion1/parsegest/internal/parsednode"
)

const changeLogYAML = `changeLog:
  minVersion: 1.0.0
  changeSets:
    - changeSet:
        id: "1"
        author: alice
        labels: [core, init]
    - changeSet:
        id: 2
        author: bob
        runAlways: true
`

func TestYAMLParser_Structure(t *testing.T) {
	p := &YAMLParser{}
	root, err := p.ParseReader(strings.NewReader(changeLogYAML), "db/changelog.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log := root.Child("changeLog")
	if log == nil {
		t.Fatalf("expected changeLog child, got:\n%s", root.PrettyPrint())
	}
	if v, _ := log.ChildValue("minVersion"); v != "1.0.0" {
		t.Errorf("expected minVersion 1.0.0, got %v", v)
	}

	sets := log.Child("changeSets").ChildrenNamed("changeSet")
	if len(sets) != 2 {
		t.Fatalf("expected 2 change sets, got %d:\n%s", len(sets), root.PrettyPrint())
	}

	id := sets[0].Child("id")
	if id.Value != "1" {
		t.Errorf("expected id %q, got %v", "1", id.Value)
	}
	if id.LineNumber != 5 || id.ColumnNumber != 9 {
		t.Errorf("expected id at 5:9, got %d:%d", id.LineNumber, id.ColumnNumber)
	}
	if id.FileName != "db/changelog.yaml" {
		t.Errorf("expected file name on node, got %q", id.FileName)
	}
	if near := p.DescribeOriginal(id); near != `id: "1"` {
		t.Errorf("expected near text %q, got %q", `id: "1"`, near)
	}

	labels := sets[0].Child("labels").Children
	if len(labels) != 2 || labels[0].Name != "" || labels[0].Value != "core" || labels[1].Value != "init" {
		t.Errorf("unexpected labels:\n%s", sets[0].Child("labels").PrettyPrint())
	}

	if v, _ := sets[1].ChildValue("id"); fmt.Sprint(v) != "2" {
		t.Errorf("expected numeric id 2, got %v", v)
	}
	if v, _ := sets[1].ChildValue("runAlways"); v != true {
		t.Errorf("expected runAlways true, got %v", v)
	}
}

func TestYAMLParser_ItemsWithSeveralKeysAreUnnamed(t *testing.T) {
	input := "rows:\n  - a: 1\n    b: 2\n  - a: 3\n    b: 4\n"
	root, err := (&YAMLParser{}).ParseReader(strings.NewReader(input), "t.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items := root.Child("rows").Children
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	for i, it := range items {
		if it.Name != "" || len(it.Children) != 2 {
			t.Errorf("item[%d]: unexpected shape:\n%s", i, it.PrettyPrint())
		}
	}
}

func TestYAMLParser_JSON(t *testing.T) {
	input := `{"changeLog": {"minVersion": "2.0.0"}}`
	root, err := (&YAMLParser{}).ParseReader(strings.NewReader(input), "c.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := root.Child("changeLog").ChildValue("minVersion"); v != "2.0.0" {
		t.Errorf("expected minVersion 2.0.0, got %v", v)
	}
}

func TestYAMLParser_SyntaxErrorCarriesPosition(t *testing.T) {
	input := "ok: 1\nbroken: [1, 2\n"
	_, err := (&YAMLParser{}).ParseReader(strings.NewReader(input), "bad.yaml")
	if err == nil {
		t.Fatal("expected error")
	}
	var pe *parsednode.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if !strings.HasPrefix(pe.Message, "invalid yaml: ") {
		t.Errorf("unexpected message %q", pe.Message)
	}
	if pe.ProblemNode == nil || pe.ProblemNode.FileName != "bad.yaml" {
		t.Fatalf("expected problem node for bad.yaml, got %+v", pe.ProblemNode)
	}
}

func TestExtractYAMLError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		line    int
		column  int
		message string
	}{
		{
			name:    "bracket position",
			err:     errors.New("[3:7] mapping value is not allowed in this context\n   2 | a: b\n>  3 | c: d: e\n"),
			line:    3,
			column:  7,
			message: "mapping value is not allowed in this context",
		},
		{
			name:    "yaml line form",
			err:     errors.New("yaml: line 4: found character that cannot start any token"),
			line:    4,
			message: "found character that cannot start any token",
		},
		{
			name:    "unknown form",
			err:     errors.New("some other error"),
			message: "some other error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, column, message := extractYAMLError(tt.err)
			if line != tt.line || column != tt.column || message != tt.message {
				t.Errorf("got (%d, %d, %q), want (%d, %d, %q)", line, column, message, tt.line, tt.column, tt.message)
			}
		})
	}
}

func TestYAMLParser_AliasesExpandAnchoredValues(t *testing.T) {
	input := `people:
  lead: &who alice
changeSets:
  - changeSet:
      id: 1
      author: *who
`
	root, err := (&YAMLParser{}).ParseReader(strings.NewReader(input), "alias.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	set := root.Child("changeSets").Child("changeSet")
	if v, _ := set.ChildValue("author"); v != "alice" {
		t.Errorf("expected author alice, got %v", v)
	}
}

func TestYAMLParser_MergeKeysSplicePairs(t *testing.T) {
	input := `defaults: &d
  author: bob
  runAlways: true
changeSet:
  <<: *d
  id: 7
  runAlways: false
`
	root, err := (&YAMLParser{}).ParseReader(strings.NewReader(input), "merge.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	set := root.Child("changeSet")
	if set.Child("<<") != nil {
		t.Fatalf("merge key kept as a child:\n%s", set.PrettyPrint())
	}
	if v, _ := set.ChildValue("author"); v != "bob" {
		t.Errorf("expected merged author bob, got %v", v)
	}
	if v, _ := set.ChildValue("runAlways"); v != false {
		t.Errorf("expected explicit runAlways false to win, got %v", v)
	}
	if got := len(set.ChildrenNamed("runAlways")); got != 1 {
		t.Errorf("expected one runAlways child, got %d", got)
	}
	if v, _ := set.ChildValue("id"); fmt.Sprint(v) != "7" {
		t.Errorf("expected id 7, got %v", v)
	}
}

func TestYAMLParser_UnknownAliasIsPositioned(t *testing.T) {
	input := "a: 1\nb:\n  author: *nobody\n"
	_, err := (&YAMLParser{}).ParseReader(strings.NewReader(input), "alias.yaml")
	if err == nil {
		t.Fatal("expected error for unknown alias")
	}
	var pe *parsednode.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.ProblemNode == nil || pe.ProblemNode.LineNumber != 3 {
		t.Fatalf("expected problem node on line 3, got %+v", pe.ProblemNode)
	}
}
