package extract

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// node is an element or, when name is empty, a text node.
type node struct {
	name     string
	attrs    []xml.Attr
	text     string
	children []*node
}

func (n *node) isText() bool {
	return n.name == ""
}

// parseTree reads a whole document. Unbalanced end tags are tolerated; any
// other decoder error is returned.
func parseTree(r io.Reader) (*node, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false
	decoder.Entity = xml.HTMLEntity
	decoder.CharsetReader = charsetReader

	root := &node{name: "#document"}
	stack := []*node{root}
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}
		parent := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			el := &node{name: t.Name.Local, attrs: append([]xml.Attr(nil), t.Attr...)}
			parent.children = append(parent.children, el)
			stack = append(stack, el)
		case xml.EndElement:
			for i := len(stack) - 1; i > 0; i-- {
				if strings.EqualFold(stack[i].name, t.Name.Local) {
					stack = stack[:i]
					break
				}
			}
		case xml.CharData:
			if len(parent.children) > 0 {
				if last := parent.children[len(parent.children)-1]; last.isText() {
					last.text += string(t)
					continue
				}
			}
			parent.children = append(parent.children, &node{text: string(t)})
		}
	}
	return root, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

// findFirst returns the first descendant element named name in document order.
func (n *node) findFirst(name string) *node {
	for _, child := range n.children {
		if child.isText() {
			continue
		}
		if child.name == name {
			return child
		}
		if found := child.findFirst(name); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns every descendant element named name in document order.
func (n *node) findAll(name string) []*node {
	var out []*node
	var walk func(*node)
	walk = func(cur *node) {
		for _, child := range cur.children {
			if child.isText() {
				continue
			}
			if child.name == name {
				out = append(out, child)
			}
			walk(child)
		}
	}
	walk(n)
	return out
}

// firstText returns the element's leading text child. An element that is
// empty or starts with a child element has no first text.
func (n *node) firstText() (string, bool) {
	if n == nil || len(n.children) == 0 || !n.children[0].isText() {
		return "", false
	}
	return n.children[0].text, true
}

// attr returns the named attribute or "".
func (n *node) attr(name string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
