package datafile

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/vk/goad/internal/variable"
)

// XMLFormatter lays variables out as nested elements under a single root,
// one element per name segment. A leaf element holds the value as text, a
// comma-separated list for arrays, with units and desc as attributes.
type XMLFormatter struct {
	// RootTag overrides the document root element name.
	RootTag string
}

const defaultRootTag = "aircraft"

func (f *XMLFormatter) rootTag() string {
	if f.RootTag != "" {
		return f.RootTag
	}
	return defaultRootTag
}

type xmlNode struct {
	name     string
	children []*xmlNode
	variable *variable.Variable
}

func (n *xmlNode) child(name string) *xmlNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (f *XMLFormatter) Write(w io.Writer, vars *variable.Set) error {
	root := &xmlNode{name: f.rootTag()}
	for _, v := range vars.Variables() {
		if err := xmlInsert(root, strings.Split(v.Name(), Separator), v); err != nil {
			return err
		}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := xmlEncode(enc, root); err != nil {
		return err
	}
	return enc.Flush()
}

func xmlInsert(node *xmlNode, segments []string, v *variable.Variable) error {
	key := segments[0]
	child := node.child(key)

	if len(segments) == 1 {
		if child != nil {
			return fmt.Errorf("variable name %q conflicts with an existing entry", v.Name())
		}
		node.children = append(node.children, &xmlNode{name: key, variable: v})
		return nil
	}

	if child == nil {
		child = &xmlNode{name: key}
		node.children = append(node.children, child)
	} else if child.variable != nil {
		return fmt.Errorf("variable name %q conflicts with an existing entry", v.Name())
	}
	return xmlInsert(child, segments[1:], v)
}

func xmlEncode(enc *xml.Encoder, node *xmlNode) error {
	start := xml.StartElement{Name: xml.Name{Local: node.name}}
	if v := node.variable; v != nil {
		if v.Units() != "" {
			start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: keyUnits}, Value: v.Units()})
		}
		if v.Description() != "" {
			start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: keyDesc}, Value: v.Description()})
		}
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	if v := node.variable; v != nil {
		parts := make([]string, len(v.Value()))
		for i, f := range v.Value() {
			parts[i] = formatFloat(f)
		}
		if err := enc.EncodeToken(xml.CharData(strings.Join(parts, ", "))); err != nil {
			return err
		}
	}
	for _, child := range node.children {
		if err := xmlEncode(enc, child); err != nil {
			return err
		}
	}
	return enc.EncodeToken(xml.EndElement{Name: start.Name})
}

// xmlFrame is the per-depth decoding state of one open element, so a
// child's attributes and text never clobber its parent's.
type xmlFrame struct {
	units string
	desc  string
	text  strings.Builder
}

func (f *XMLFormatter) Read(r io.Reader) (*variable.Set, error) {
	dec := xml.NewDecoder(r)
	set := variable.NewSet()

	var path []string
	var frames []*xmlFrame
	sawRoot := false

	for {
		token, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding XML: %w", err)
		}

		switch tok := token.(type) {
		case xml.StartElement:
			if !sawRoot {
				sawRoot = true
				continue
			}
			path = append(path, tok.Name.Local)
			frame := &xmlFrame{}
			for _, attr := range tok.Attr {
				switch attr.Name.Local {
				case keyUnits:
					frame.units = attr.Value
				case keyDesc:
					frame.desc = attr.Value
				}
			}
			frames = append(frames, frame)
		case xml.CharData:
			if len(frames) > 0 {
				frames[len(frames)-1].text.Write(tok)
			}
		case xml.EndElement:
			if len(frames) == 0 {
				continue
			}
			frame := frames[len(frames)-1]
			if raw := strings.TrimSpace(frame.text.String()); raw != "" {
				if err := xmlAppendLeaf(set, path, raw, frame.units, frame.desc); err != nil {
					return nil, err
				}
			}
			path = path[:len(path)-1]
			frames = frames[:len(frames)-1]
		}
	}
	return set, nil
}

func xmlAppendLeaf(set *variable.Set, path []string, raw, units, desc string) error {
	name := strings.Join(path, Separator)

	var value []float64
	for _, part := range strings.Split(raw, ",") {
		f, err := parseFloat(part)
		if err != nil {
			return fmt.Errorf("variable %q: parsing value %q: %w", name, part, err)
		}
		value = append(value, f)
	}

	v, err := variable.New(name, variable.Metadata{Value: value, Units: units, Desc: desc})
	if err != nil {
		return err
	}
	return set.Append(v)
}
