package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding for the settings document.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
	TOML Format = "toml"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "yaml", "yml":
		return YAML, nil
	case "json":
		return JSON, nil
	case "toml":
		return TOML, nil
	}
	return "", fmt.Errorf("unknown format %q (want yaml, json or toml)", s)
}

// FormatOf guesses the format from a file extension, defaulting to YAML.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON
	case ".toml":
		return TOML
	}
	return YAML
}

// Marshal encodes d in format f. A dotted section such as
// "tool.sqlcollections" nests the two groups under those keys.
func (d *Document) Marshal(f Format, section string) ([]byte, error) {
	switch f {
	case YAML, "":
		return d.marshalYAML(section)
	case JSON:
		return d.marshalJSON(section)
	case TOML:
		return d.marshalTOML(section)
	}
	return nil, fmt.Errorf("marshal: unknown format %q", f)
}

func sectionParts(section string) []string {
	var out []string
	for _, p := range strings.Split(section, ".") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// marshalYAML builds the node tree by hand so collections keep source order.
func (d *Document) marshalYAML(section string) ([]byte, error) {
	inserts := &yaml.Node{Kind: yaml.MappingNode}
	reads := &yaml.Node{Kind: yaml.MappingNode}
	for _, c := range d.Collections {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, stmt := range d.Inserts[c] {
			seq.Content = append(seq.Content, strNode(stmt))
		}
		inserts.Content = append(inserts.Content, strNode(c), seq)
		reads.Content = append(reads.Content, strNode(c), strNode(d.Reads[c]))
	}
	root := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		strNode(InsertKey), inserts,
		strNode(ReadKey), reads,
	}}
	parts := sectionParts(section)
	for i := len(parts) - 1; i >= 0; i-- {
		root = &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{strNode(parts[i]), root}}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// orderedMap is a JSON object that keeps its key order.
type orderedMap struct {
	keys   []string
	values map[string]any
}

func (m orderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalRaw(k)
		if err != nil {
			return nil, err
		}
		vb, err := marshalRaw(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalRaw is json.Marshal without HTML escaping, so SQL such as
// "a <> b" stays byte for byte.
func marshalRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (d *Document) marshalJSON(section string) ([]byte, error) {
	inserts := orderedMap{values: make(map[string]any)}
	reads := orderedMap{values: make(map[string]any)}
	for _, c := range d.Collections {
		inserts.keys = append(inserts.keys, c)
		inserts.values[c] = d.Inserts[c]
		reads.keys = append(reads.keys, c)
		reads.values[c] = d.Reads[c]
	}
	root := orderedMap{
		keys:   []string{InsertKey, ReadKey},
		values: map[string]any{InsertKey: inserts, ReadKey: reads},
	}
	parts := sectionParts(section)
	for i := len(parts) - 1; i >= 0; i-- {
		root = orderedMap{keys: []string{parts[i]}, values: map[string]any{parts[i]: root}}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return buf.Bytes(), nil
}

// marshalTOML writes tables with lexically sorted keys; TOML readers do not
// keep table order anyway.
func (d *Document) marshalTOML(section string) ([]byte, error) {
	inserts := make(map[string]any, len(d.Collections))
	reads := make(map[string]any, len(d.Collections))
	for _, c := range d.Collections {
		inserts[c] = d.Inserts[c]
		reads[c] = d.Reads[c]
	}
	root := map[string]any{InsertKey: inserts, ReadKey: reads}
	parts := sectionParts(section)
	for i := len(parts) - 1; i >= 0; i-- {
		root = map[string]any{parts[i]: root}
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetArraysMultiline(true)
	enc.SetIndentTables(true)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("encode toml: %w", err)
	}
	return buf.Bytes(), nil
}
