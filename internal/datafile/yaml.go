package datafile

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vk/goad/internal/variable"
)

// YAMLFormatter lays variables out as a nested YAML mapping, one level per
// name segment, with a {value, units, desc} mapping at each leaf. Document
// order follows the variable set order.
type YAMLFormatter struct{}

const (
	keyValue = "value"
	keyUnits = "units"
	keyDesc  = "desc"
)

func (*YAMLFormatter) Write(w io.Writer, vars *variable.Set) error {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, v := range vars.Variables() {
		if err := yamlInsert(root, strings.Split(v.Name(), Separator), v); err != nil {
			return err
		}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}})
}

func yamlInsert(node *yaml.Node, segments []string, v *variable.Variable) error {
	key := segments[0]
	child := yamlChild(node, key)

	if len(segments) == 1 {
		if child != nil {
			return fmt.Errorf("variable name %q conflicts with an existing entry", v.Name())
		}
		node.Content = append(node.Content,
			yamlScalar(key),
			yamlLeaf(v),
		)
		return nil
	}

	if child == nil {
		child = &yaml.Node{Kind: yaml.MappingNode}
		node.Content = append(node.Content, yamlScalar(key), child)
	} else if child.Kind != yaml.MappingNode || yamlChild(child, keyValue) != nil {
		return fmt.Errorf("variable name %q conflicts with an existing entry", v.Name())
	}
	return yamlInsert(child, segments[1:], v)
}

// yamlChild returns the value node stored under key, nil if absent.
func yamlChild(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func yamlLeaf(v *variable.Variable) *yaml.Node {
	leaf := &yaml.Node{Kind: yaml.MappingNode}
	leaf.Content = append(leaf.Content, yamlScalar(keyValue), yamlValue(v.Value()))
	if v.Units() != "" {
		leaf.Content = append(leaf.Content, yamlScalar(keyUnits), yamlScalar(v.Units()))
	}
	if v.Description() != "" {
		leaf.Content = append(leaf.Content, yamlScalar(keyDesc), yamlScalar(v.Description()))
	}
	return leaf
}

func yamlValue(value []float64) *yaml.Node {
	if len(value) == 1 {
		return yamlFloat(value[0])
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, f := range value {
		seq.Content = append(seq.Content, yamlFloat(f))
	}
	return seq
}

func yamlScalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: s}
}

func yamlFloat(f float64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(f)}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

func parseFloat(s string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ".nan", "nan":
		return math.NaN(), nil
	case ".inf", "+.inf", "inf":
		return math.Inf(1), nil
	case "-.inf", "-inf":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func (*YAMLFormatter) Read(r io.Reader) (*variable.Set, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return variable.NewSet(), nil
		}
		return nil, fmt.Errorf("decoding YAML: %w", err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	set := variable.NewSet()
	if err := yamlCollect(root, nil, set); err != nil {
		return nil, err
	}
	return set, nil
}

func yamlCollect(node *yaml.Node, path []string, set *variable.Set) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("entry %q: expected a mapping", strings.Join(path, Separator))
	}

	if yamlChild(node, keyValue) != nil {
		return yamlReadLeaf(node, path, set)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if err := yamlCollect(node.Content[i+1], append(path, key), set); err != nil {
			return err
		}
	}
	return nil
}

func yamlReadLeaf(node *yaml.Node, path []string, set *variable.Set) error {
	name := strings.Join(path, Separator)

	value, err := yamlReadValue(yamlChild(node, keyValue))
	if err != nil {
		return fmt.Errorf("variable %q: %w", name, err)
	}

	meta := variable.Metadata{Value: value}
	if units := yamlChild(node, keyUnits); units != nil {
		meta.Units = units.Value
	}
	if desc := yamlChild(node, keyDesc); desc != nil {
		meta.Desc = desc.Value
	}

	v, err := variable.New(name, meta)
	if err != nil {
		return err
	}
	return set.Append(v)
}

func yamlReadValue(node *yaml.Node) ([]float64, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		f, err := parseFloat(node.Value)
		if err != nil {
			return nil, fmt.Errorf("parsing value %q: %w", node.Value, err)
		}
		return []float64{f}, nil
	case yaml.SequenceNode:
		value := make([]float64, 0, len(node.Content))
		for _, item := range node.Content {
			f, err := parseFloat(item.Value)
			if err != nil {
				return nil, fmt.Errorf("parsing value %q: %w", item.Value, err)
			}
			value = append(value, f)
		}
		return value, nil
	default:
		return nil, fmt.Errorf("unsupported value layout")
	}
}
