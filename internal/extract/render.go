package extract

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxDepth bounds element nesting inside one CONTENU node.
const DefaultMaxDepth = 200

var errDepthExceeded = errors.New("content nesting exceeds render depth")

// renderText concatenates every text node under n in document order.
func renderText(n *node, maxDepth int) (string, error) {
	var b strings.Builder
	var walk func(*node, int) error
	walk = func(cur *node, depth int) error {
		if depth > maxDepth {
			return errDepthExceeded
		}
		if cur.isText() {
			b.WriteString(cur.text)
			return nil
		}
		for _, child := range cur.children {
			if err := walk(child, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(n, 0); err != nil {
		return "", err
	}
	return b.String(), nil
}

type listState struct {
	ordered bool
	index   int
}

// markdownRenderer produces a light markdown rendering of XHTML content:
// paragraphs become blank-line separated blocks, emphasis is kept, lists are
// bulleted or numbered and table cells are joined with pipes.
type markdownRenderer struct {
	out      []byte
	maxDepth int
	lists    []listState
	cells    []int
}

func renderMarkdown(n *node, maxDepth int) (string, error) {
	r := &markdownRenderer{maxDepth: maxDepth}
	if err := r.render(n, 0); err != nil {
		return "", err
	}
	return tidyMarkdown(string(r.out)), nil
}

func (r *markdownRenderer) render(n *node, depth int) error {
	if depth > r.maxDepth {
		return errDepthExceeded
	}
	if n.isText() {
		r.writeText(n.text)
		return nil
	}
	name := strings.ToLower(n.name)
	switch name {
	case "p", "div", "blockquote", "center":
		r.block()
		if err := r.children(n, depth); err != nil {
			return err
		}
		r.block()
	case "br":
		r.out = append(r.out, '\n')
	case "hr":
		r.block()
		r.out = append(r.out, "* * *"...)
		r.block()
	case "h1", "h2", "h3", "h4", "h5", "h6":
		r.block()
		level, _ := strconv.Atoi(name[1:])
		r.out = append(r.out, strings.Repeat("#", level)+" "...)
		if err := r.children(n, depth); err != nil {
			return err
		}
		r.block()
	case "b", "strong":
		return r.wrap(n, depth, "**")
	case "i", "em":
		return r.wrap(n, depth, "_")
	case "ul", "ol":
		r.block()
		r.lists = append(r.lists, listState{ordered: name == "ol"})
		err := r.children(n, depth)
		r.lists = r.lists[:len(r.lists)-1]
		if err != nil {
			return err
		}
		r.block()
	case "li":
		r.newline()
		marker := "* "
		indent := 0
		if len(r.lists) > 0 {
			indent = len(r.lists) - 1
			top := &r.lists[len(r.lists)-1]
			top.index++
			if top.ordered {
				marker = strconv.Itoa(top.index) + ". "
			}
		}
		r.out = append(r.out, strings.Repeat("  ", indent)+"  "+marker...)
		return r.children(n, depth)
	case "table":
		r.block()
		if err := r.children(n, depth); err != nil {
			return err
		}
		r.block()
	case "tr":
		r.newline()
		r.cells = append(r.cells, 0)
		err := r.children(n, depth)
		r.cells = r.cells[:len(r.cells)-1]
		return err
	case "td", "th":
		if len(r.cells) > 0 {
			if r.cells[len(r.cells)-1] > 0 {
				r.out = append(r.out, " | "...)
			}
			r.cells[len(r.cells)-1]++
		}
		return r.children(n, depth)
	case "a":
		href := n.attr("href")
		if href == "" {
			return r.children(n, depth)
		}
		r.out = append(r.out, '[')
		if err := r.children(n, depth); err != nil {
			return err
		}
		r.out = append(r.out, "]("+href+")"...)
	default:
		return r.children(n, depth)
	}
	return nil
}

func (r *markdownRenderer) children(n *node, depth int) error {
	for _, child := range n.children {
		if err := r.render(child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (r *markdownRenderer) wrap(n *node, depth int, marker string) error {
	r.out = append(r.out, marker...)
	if err := r.children(n, depth); err != nil {
		return err
	}
	r.out = append(r.out, marker...)
	return nil
}

// writeText collapses whitespace runs to a single space and drops
// whitespace at the start of a line.
func (r *markdownRenderer) writeText(text string) {
	for _, ch := range text {
		if unicode.IsSpace(ch) {
			if !r.atLineStart() && r.out[len(r.out)-1] != ' ' {
				r.out = append(r.out, ' ')
			}
			continue
		}
		r.out = utf8.AppendRune(r.out, ch)
	}
}

func (r *markdownRenderer) atLineStart() bool {
	return len(r.out) == 0 || r.out[len(r.out)-1] == '\n'
}

func (r *markdownRenderer) newline() {
	r.trimTrailingSpace()
	if !r.atLineStart() {
		r.out = append(r.out, '\n')
	}
}

func (r *markdownRenderer) block() {
	r.trimTrailingSpace()
	if len(r.out) == 0 {
		return
	}
	for !strings.HasSuffix(string(r.out), "\n\n") {
		r.out = append(r.out, '\n')
	}
}

func (r *markdownRenderer) trimTrailingSpace() {
	for len(r.out) > 0 && r.out[len(r.out)-1] == ' ' {
		r.out = r.out[:len(r.out)-1]
	}
}

// tidyMarkdown strips trailing spaces from lines and caps blank runs at one
// empty line. The result keeps a trailing paragraph break so consecutive
// renderings stay separated when concatenated.
func tidyMarkdown(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	result := strings.TrimLeft(strings.Join(out, "\n"), "\n")
	if result == "" {
		return ""
	}
	return strings.TrimRight(result, "\n") + "\n\n"
}
