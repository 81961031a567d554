package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

// Entry is one flattened report value, e.g. "regexbench.thread0.Mbps".
type Entry struct {
	Key   string
	Value string
}

// Entries flattens the document in output order. Every value is a string.
func (d *Document) Entries() []Entry {
	run := Prefix + "run."
	entries := []Entry{
		{run + "RunID", d.Run.RunID},
		{run + "Engine", d.Run.Engine},
		{run + "Repeat", strconv.Itoa(d.Run.Repeat)},
		{run + "Threads", strconv.Itoa(d.Run.Threads)},
	}
	for _, t := range d.Threads {
		prefix := Prefix + t.Key + "."
		for _, f := range t.Fields() {
			entries = append(entries, Entry{Key: prefix + f.Name, Value: f.Value})
		}
	}
	return entries
}

// tree is an insertion-ordered nested object.
type tree struct {
	keys     []string
	values   map[string]string
	children map[string]*tree
}

func newTree() *tree {
	return &tree{values: map[string]string{}, children: map[string]*tree{}}
}

// put stores value under a dotted path.
func (t *tree) put(path, value string) {
	parts := strings.Split(path, ".")
	node := t
	for _, p := range parts[:len(parts)-1] {
		child, ok := node.children[p]
		if !ok {
			child = newTree()
			node.children[p] = child
			node.keys = append(node.keys, p)
		}
		node = child
	}
	leaf := parts[len(parts)-1]
	if _, ok := node.values[leaf]; !ok {
		node.keys = append(node.keys, leaf)
	}
	node.values[leaf] = value
}

func (d *Document) tree() *tree {
	root := newTree()
	for _, e := range d.Entries() {
		root.put(e.Key, e.Value)
	}
	return root
}

func (t *tree) writeJSON(buf *bytes.Buffer, indent string) error {
	buf.WriteString("{\n")
	inner := indent + "    "
	for i, k := range t.keys {
		key, err := json.Marshal(k)
		if err != nil {
			return err
		}
		buf.WriteString(inner)
		buf.Write(key)
		buf.WriteString(": ")
		if child, ok := t.children[k]; ok {
			if err := child.writeJSON(buf, inner); err != nil {
				return err
			}
		} else {
			val, err := json.Marshal(t.values[k])
			if err != nil {
				return err
			}
			buf.Write(val)
		}
		if i < len(t.keys)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString(indent)
	buf.WriteByte('}')
	return nil
}

func (t *tree) yamlNode() *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range t.keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		var valNode *yaml.Node
		if child, ok := t.children[k]; ok {
			valNode = child.yamlNode()
		} else {
			valNode = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t.values[k], Style: yaml.DoubleQuotedStyle}
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node
}

// MarshalJSON renders the document as nested objects in report order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.tree().writeJSON(&buf, ""); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// MarshalYAML renders the document as nested mappings in report order.
func (d *Document) MarshalYAML() (interface{}, error) {
	return d.tree().yamlNode(), nil
}

// Encode renders the document in the format selected by the path extension:
// YAML for .yaml and .yml, JSON otherwise.
func Encode(path string, doc *Document) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return doc.MarshalJSON()
	}
}

// WriteDocument truncates path and writes the encoded document while holding
// an exclusive lock on the file.
func WriteDocument(path string, doc *Document) error {
	data, err := Encode(path, doc)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	lock := flock.New(path, flock.SetPermissions(0o644))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer lock.Unlock()

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
