package codec

import (
	"bytes"
	"math"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/deepnoodle-ai/jsq/errz"
	"github.com/deepnoodle-ai/jsq/value"
)

// decodeYAML parses a single YAML document. The node API is used instead of
// plain Unmarshal so that mapping key order is preserved.
func decodeYAML(data []byte) (value.Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errz.Decodef("parsing YAML: %v", err)
	}
	if root.Kind == 0 {
		// Empty document.
		return value.Null, nil
	}
	node := &root
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return value.Null, nil
		}
		node = node.Content[0]
	}
	v, err := yamlValue(node, map[*yaml.Node]bool{})
	if err != nil {
		return nil, errz.Decodef("parsing YAML: %v", err)
	}
	return v, nil
}

func yamlValue(node *yaml.Node, seen map[*yaml.Node]bool) (value.Value, error) {
	switch node.Kind {
	case yaml.AliasNode:
		if seen[node.Alias] {
			return nil, errz.Decodef("recursive alias %q", node.Value)
		}
		seen[node.Alias] = true
		defer delete(seen, node.Alias)
		return yamlValue(node.Alias, seen)
	case yaml.ScalarNode:
		return yamlScalar(node)
	case yaml.SequenceNode:
		seq := value.NewSequence(nil)
		for _, child := range node.Content {
			item, err := yamlValue(child, seen)
			if err != nil {
				return nil, err
			}
			seq.Append(item)
		}
		return seq, nil
	case yaml.MappingNode:
		m := value.NewMapping()
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			item, err := yamlValue(node.Content[i+1], seen)
			if err != nil {
				return nil, err
			}
			m.Set(key, item)
		}
		return m, nil
	default:
		return nil, errz.Decodef("unsupported YAML node kind %d", node.Kind)
	}
}

func yamlScalar(node *yaml.Node) (value.Value, error) {
	switch node.Tag {
	case "!!null":
		return value.Null, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, err
		}
		return value.NewBool(b), nil
	case "!!int":
		var i int64
		if err := node.Decode(&i); err != nil {
			// Out-of-range integers fall back to float64.
			var f float64
			if err := node.Decode(&f); err != nil {
				return nil, err
			}
			return value.NewNumber(f), nil
		}
		return value.NewNumber(float64(i)), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, err
		}
		return value.NewNumber(f), nil
	default:
		// Strings, timestamps, and any custom tags keep their text form.
		return value.NewString(node.Value), nil
	}
}

// encodeYAML renders v as a two-space indented YAML document.
func encodeYAML(v value.Value) ([]byte, error) {
	node, err := yamlNode(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indentWidth)
	if err := enc.Encode(node); err != nil {
		return nil, errz.Encodef("printing YAML: %v", err)
	}
	if err := enc.Close(); err != nil {
		return nil, errz.Encodef("printing YAML: %v", err)
	}
	return buf.Bytes(), nil
}

func yamlNode(v value.Value) (*yaml.Node, error) {
	switch v := v.(type) {
	case *value.NullType:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case *value.Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: v.Display()}, nil
	case *value.Number:
		return yamlNumberNode(v.Value()), nil
	case *value.String:
		node := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Value()}
		if strings.Contains(v.Value(), "\n") {
			node.Style = yaml.LiteralStyle
		}
		return node, nil
	case *value.Sequence:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.Items() {
			child, err := yamlNode(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	case *value.Mapping:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, key := range v.Keys() {
			item, _ := v.Get(key)
			child, err := yamlNode(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
				child)
		}
		return node, nil
	default:
		return nil, errz.Encodef("unsupported value type %s", v.Type())
	}
}

func yamlNumberNode(f float64) *yaml.Node {
	node := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float"}
	switch {
	case math.IsNaN(f):
		node.Value = ".nan"
	case math.IsInf(f, 1):
		node.Value = ".inf"
	case math.IsInf(f, -1):
		node.Value = "-.inf"
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		node.Tag = "!!int"
		node.Value = value.FormatNumber(f)
	default:
		node.Value = value.FormatNumber(f)
	}
	return node
}
