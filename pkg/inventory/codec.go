package inventory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// errNotMapping marks a document that parsed but is not a flat object.
var errNotMapping = errors.New("document is not an object")

// field is one key/value pair of a decoded document, before cleaning.
type field struct {
	Key    string
	IsText bool // false for keys the format typed as something other than a string
	Value  interface{}
}

// codec converts between file bytes and the store's mapping.
type codec interface {
	Name() string
	Decode(data []byte) ([]field, error)
	Encode(quantities map[string]int) ([]byte, error)
}

// codecFor picks a codec from the file extension; JSON unless it says YAML.
func codecFor(path string) codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlCodec{}
	default:
		return jsonCodec{}
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Decode(data []byte) ([]field, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	var extra interface{}
	if err := dec.Decode(&extra); err != io.EOF {
		return nil, fmt.Errorf("failed to decode JSON: unexpected data after top-level value")
	}

	obj, ok := doc.(map[string]interface{})
	if !ok {
		return nil, errNotMapping
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, field{Key: k, IsText: true, Value: obj[k]})
	}
	return fields, nil
}

func (jsonCodec) Encode(quantities map[string]int) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	// encoding/json writes map keys in sorted order
	if err := enc.Encode(quantities); err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return buf.Bytes(), nil
}

type yamlCodec struct{}

func (yamlCodec) Name() string { return "yaml" }

func (yamlCodec) Decode(data []byte) ([]field, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode YAML: %w", err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	root = resolveAlias(root)
	if root.Kind != yaml.MappingNode {
		return nil, errNotMapping
	}

	fields := make([]field, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := resolveAlias(root.Content[i])
		value := resolveAlias(root.Content[i+1])

		f := field{
			Key:    key.Value,
			IsText: key.Kind == yaml.ScalarNode && key.ShortTag() == "!!str",
		}
		if value.Kind == yaml.ScalarNode {
			var v interface{}
			if err := value.Decode(&v); err != nil {
				return nil, fmt.Errorf("failed to decode YAML value for %q: %w", key.Value, err)
			}
			f.Value = v
		} else {
			// sequences and mappings cannot be quantities
			f.Value = value.Kind
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func (yamlCodec) Encode(quantities map[string]int) ([]byte, error) {
	keys := make([]string, 0, len(quantities))
	for k := range quantities {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Keys are built as nodes so names like "true", "42" or "<<" stay strings.
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range keys {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		if !plainIsText(k) {
			key.Style = yaml.DoubleQuotedStyle
		}
		root.Content = append(root.Content, key, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!int",
			Value: strconv.Itoa(quantities[k]),
		})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// plainIsText reports whether s, written unquoted, reads back as a string.
func plainIsText(s string) bool {
	n := yaml.Node{Kind: yaml.ScalarNode, Value: s}
	return n.ShortTag() == "!!str"
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}
