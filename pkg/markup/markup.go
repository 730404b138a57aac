package markup

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Node is one element of a parsed document. Both the HTML and the XML parser
// produce this shape, so the codecs never need to know which parser ran.
type Node struct {
	// Tag is the element name. The HTML parser lowercases tags, the XML
	// parser preserves case (status.xml uses children like "tempCBan").
	Tag string

	// Attrs holds the element's attributes in document order.
	Attrs []Attr

	// Text is the concatenated text directly inside this element,
	// whitespace-trimmed.
	Text string

	// Children are the child elements in document order.
	Children []*Node
}

// Attr is a single element attribute.
type Attr struct {
	Key   string
	Value string
}

// NotFoundError reports that a required element or attribute is absent from
// the parsed document. Decodes treat this as fatal: a partially populated
// record would be silently wrong.
type NotFoundError struct {
	// Key is the id/name or child tag that was looked up.
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("markup: no element for %q", e.Key)
}

// Parse parses a response body from the device. If the body contains the
// substring "html" (case-insensitive) it is parsed as lenient HTML, otherwise
// as strict XML. The substring sniff is deliberate: the firmware's
// Content-Type headers are wrong often enough that they cannot be used.
func Parse(data []byte) (*Node, error) {
	if bytes.Contains(bytes.ToLower(data), []byte("html")) {
		return parseHTML(bytes.NewReader(data))
	}
	return parseXML(bytes.NewReader(data))
}

// Attr returns the value of the named attribute and whether it is present.
// Presence matters independently of the value: the network page marks DHCP
// with a bare "checked" attribute.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Find walks the tree depth-first and returns the first element whose "id"
// or "name" attribute equals id. Both attributes are checked because the
// firmware is inconsistent about which one it sets per field.
func (n *Node) Find(id string) *Node {
	if v, ok := n.Attr("id"); ok && v == id {
		return n
	}
	if v, ok := n.Attr("name"); ok && v == id {
		return n
	}
	for _, c := range n.Children {
		if m := c.Find(id); m != nil {
			return m
		}
	}
	return nil
}

// FindValue locates the element identified by id (via its "id" or "name"
// attribute) and returns that element's "value" attribute.
func FindValue(n *Node, id string) (string, error) {
	m := n.Find(id)
	if m == nil {
		return "", &NotFoundError{Key: id}
	}
	v, ok := m.Attr("value")
	if !ok {
		return "", &NotFoundError{Key: id}
	}
	return v, nil
}

// ChildText returns the text content of the first descendant element with
// the given tag name.
func ChildText(n *Node, name string) (string, error) {
	for _, c := range n.Children {
		if c.Tag == name {
			return c.Text, nil
		}
	}
	for _, c := range n.Children {
		if t, err := ChildText(c, name); err == nil {
			return t, nil
		}
	}
	return "", &NotFoundError{Key: name}
}

// InputRows implements the row-discovery walk behind the outlet configuration
// decode. It returns, for every table row that contains at least one input
// element with a "value" attribute inside a table cell, the values of those
// inputs in document order. Row order is the only reliable key on that page:
// the firmware assigns no stable per-field identifiers, so the caller maps
// row ordinal to outlet index.
func InputRows(n *Node) [][]string {
	var rows [][]string
	walk(n, func(e *Node) {
		if e.Tag != "tr" {
			return
		}
		var values []string
		for _, cell := range e.Children {
			if cell.Tag != "td" {
				continue
			}
			walk(cell, func(in *Node) {
				if in.Tag != "input" {
					return
				}
				if v, ok := in.Attr("value"); ok {
					values = append(values, v)
				}
			})
		}
		if len(values) > 0 {
			rows = append(rows, values)
		}
	})
	return rows
}

func walk(n *Node, fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		walk(c, fn)
	}
}

func parseHTML(r io.Reader) (*Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	root := &Node{Tag: "#document"}
	convertHTML(doc, root)
	return root, nil
}

func convertHTML(src *html.Node, dst *Node) {
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			e := &Node{Tag: c.Data}
			for _, a := range c.Attr {
				e.Attrs = append(e.Attrs, Attr{Key: a.Key, Value: a.Val})
			}
			convertHTML(c, e)
			dst.Children = append(dst.Children, e)
		case html.TextNode:
			if t := strings.TrimSpace(c.Data); t != "" {
				if dst.Text != "" {
					dst.Text += " "
				}
				dst.Text += t
			}
		}
	}
}

func parseXML(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	root := &Node{Tag: "#document"}
	stack := []*Node{root}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			e := &Node{Tag: t.Name.Local}
			for _, a := range t.Attr {
				e.Attrs = append(e.Attrs, Attr{Key: a.Name.Local, Value: a.Value})
			}
			top := stack[len(stack)-1]
			top.Children = append(top.Children, e)
			stack = append(stack, e)
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if s := strings.TrimSpace(string(t)); s != "" {
				top := stack[len(stack)-1]
				if top.Text != "" {
					top.Text += " "
				}
				top.Text += s
			}
		}
	}
	return root, nil
}
