package parser

import (
	"strings"

	"github.com/dgallion1/parsegest/internal/parsednode"
)

// outline builds a document tree from a flat run of headings and text
// blocks. Headings nest under the closest heading of a lower level.
//
//	document
//	    title: <stem>
//	    section
//	        title: ...
//	        level: 1
//	        text: ...
//	        section ...
type outline struct {
	file  string
	doc   *parsednode.Node
	intro *parsednode.Node
	stack []outlineEntry

	text     strings.Builder
	textLine int
}

type outlineEntry struct {
	node  *parsednode.Node
	level int
}

func newOutline(file, title string) *outline {
	doc := parsednode.New("document").At(file, 0, 0)
	doc.AddChild(parsednode.NewValue("title", title).At(file, 0, 0))
	return &outline{
		file:  file,
		doc:   doc,
		stack: []outlineEntry{{node: doc, level: 0}},
	}
}

// setTitle replaces the document title, e.g. with an HTML <title>.
func (o *outline) setTitle(title string) {
	o.doc.Child("title").Value = title
}

func (o *outline) heading(level int, title string, line int) {
	o.flush()
	section := parsednode.New("section").At(o.file, line, 0)
	section.Original = title
	section.AddChild(parsednode.NewValue("title", title).At(o.file, line, 0))
	section.AddChild(parsednode.NewValue("level", level).At(o.file, line, 0))

	// Pop stack until we find a parent with lower level.
	for len(o.stack) > 1 && o.stack[len(o.stack)-1].level >= level {
		o.stack = o.stack[:len(o.stack)-1]
	}
	o.stack[len(o.stack)-1].node.AddChild(section)
	o.stack = append(o.stack, outlineEntry{node: section, level: level})
}

func (o *outline) paragraph(text string, line int) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if o.text.Len() > 0 {
		o.text.WriteString("\n\n")
	} else {
		o.textLine = line
	}
	o.text.WriteString(text)
}

func (o *outline) flush() {
	t := strings.TrimSpace(o.text.String())
	o.text.Reset()
	if t == "" {
		return
	}
	top := o.stack[len(o.stack)-1].node
	if top == o.doc {
		if o.intro == nil {
			o.intro = parsednode.New("section").At(o.file, o.textLine, 0)
		}
		top = o.intro
	}
	if existing := top.Child("text"); existing != nil {
		existing.Value = existing.Value.(string) + "\n\n" + t
		existing.Original += "\n\n" + t
		return
	}
	textNode := parsednode.NewValue("text", t).At(o.file, o.textLine, 0)
	textNode.Original = t
	top.AddChild(textNode)
}

// finish returns the tree root. Text that came before the first heading
// becomes an untitled leading section.
func (o *outline) finish() *parsednode.Node {
	o.flush()
	if o.intro != nil {
		children := make([]*parsednode.Node, 0, len(o.doc.Children)+1)
		children = append(children, o.doc.Children[0], o.intro)
		children = append(children, o.doc.Children[1:]...)
		o.doc.SetChildren(children)
	}
	root := parsednode.New("")
	root.AddChild(o.doc)
	return root
}

// sections returns the top-level sections of a tree built by outline.
func sections(root *parsednode.Node) []*parsednode.Node {
	doc := root.Child("document")
	if doc == nil {
		return nil
	}
	return doc.ChildrenNamed("section")
}

// sectionText is the text child of a section, or "".
func sectionText(section *parsednode.Node) string {
	v, _ := section.ChildValue("text")
	s, _ := v.(string)
	return s
}

// sectionTitle is the title child of a section, or "".
func sectionTitle(section *parsednode.Node) string {
	v, _ := section.ChildValue("title")
	s, _ := v.(string)
	return s
}

// documentTitle is the title of a tree built by outline.
func documentTitle(root *parsednode.Node) string {
	doc := root.Child("document")
	if doc == nil {
		return ""
	}
	v, _ := doc.ChildValue("title")
	s, _ := v.(string)
	return s
}
