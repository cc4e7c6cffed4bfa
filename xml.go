package restrequest

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// XMLNode is one element of a parsed XML document.
type XMLNode struct {
	Name     string     `json:"name" yaml:"name"`
	Space    string     `json:"space,omitempty" yaml:"space,omitempty"`
	Attrs    []XMLAttr  `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Text     string     `json:"text,omitempty" yaml:"text,omitempty"`
	Children []*XMLNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// XMLAttr is an element attribute.
type XMLAttr struct {
	Name  string `json:"name" yaml:"name"`
	Space string `json:"space,omitempty" yaml:"space,omitempty"`
	Value string `json:"value" yaml:"value"`
}

var (
	errNoRoot        = errors.New("document has no root element")
	errMultipleRoots = errors.New("document has more than one root element")
)

// newXMLDecoder returns a decoder that converts documents declaring a non
// UTF-8 encoding, such as ISO-8859-1 or windows-1251.
func newXMLDecoder(data []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	return dec
}

// ParseXML parses a well formed document with exactly one root element.
// Character data is trimmed and concatenated into Text.
func ParseXML(data []byte) (*XMLNode, error) {
	dec := newXMLDecoder(data)

	var (
		root  *XMLNode
		stack []*XMLNode
		text  []*strings.Builder
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 && root != nil {
				return nil, errMultipleRoots
			}
			node := &XMLNode{Name: t.Name.Local, Space: t.Name.Space}
			for _, a := range t.Attr {
				node.Attrs = append(node.Attrs, XMLAttr{Name: a.Name.Local, Space: a.Name.Space, Value: a.Value})
			}
			if len(stack) == 0 {
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
			text = append(text, &strings.Builder{})

		case xml.EndElement:
			// the decoder rejects mismatched end tags
			n := len(stack) - 1
			stack[n].Text = strings.TrimSpace(text[n].String())
			stack = stack[:n]
			text = text[:n]

		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, fmt.Errorf("character data outside root element: %q", bytes.TrimSpace(t))
				}
				continue
			}
			text[len(text)-1].Write(t)
		}
	}

	if root == nil {
		return nil, errNoRoot
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("element <%s> not closed", stack[len(stack)-1].Name)
	}
	return root, nil
}

// Attr returns the value of the named attribute and whether it was present.
func (n *XMLNode) Attr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Child returns the first child element with the given local name.
func (n *XMLNode) Child(name string) *XMLNode {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns every child element with the given local name.
func (n *XMLNode) ChildrenNamed(name string) []*XMLNode {
	if n == nil {
		return nil
	}
	var out []*XMLNode
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Find follows a slash separated path of child names, e.g. "channel/item".
func (n *XMLNode) Find(path string) *XMLNode {
	cur := n
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if part == "" {
			continue
		}
		cur = cur.Child(part)
		if cur == nil {
			return nil
		}
	}
	return cur
}
