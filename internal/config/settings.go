package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// maxSearchDepth bounds how many parent directories FindFile visits.
const maxSearchDepth = 10

// Settings is a settings document read back from disk.
type Settings struct {
	Path    string
	inserts map[string][]string
	reads   map[string]string
}

// InsertSQL returns the insert templates for collection. A string value is
// split on ";" and a list is returned as written.
func (s *Settings) InsertSQL(collection string) []string {
	return s.inserts[collection]
}

// ReadSQL returns the read query for collection, or "".
func (s *Settings) ReadSQL(collection string) string {
	return s.reads[collection]
}

// Collections returns the collection names with insert or read SQL, sorted.
func (s *Settings) Collections() []string {
	seen := make(map[string]bool)
	for c := range s.inserts {
		seen[c] = true
	}
	for c := range s.reads {
		seen[c] = true
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// LoadSettings reads a settings file, picking the decoder from its
// extension, and descends into the dotted section if one is given.
func LoadSettings(path, section string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	s, err := ParseSettings(data, FormatOf(path), section)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Path = path
	return s, nil
}

// ParseSettings decodes a settings document.
func ParseSettings(data []byte, f Format, section string) (*Settings, error) {
	var root map[string]any
	var err error
	switch f {
	case JSON:
		err = json.Unmarshal(data, &root)
	case TOML:
		err = toml.Unmarshal(data, &root)
	default:
		err = yaml.Unmarshal(data, &root)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s settings: %w", f, err)
	}
	for _, part := range sectionParts(section) {
		next, ok := root[part].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("settings section %q not found", section)
		}
		root = next
	}

	s := &Settings{inserts: make(map[string][]string), reads: make(map[string]string)}
	if v, ok := root[InsertKey]; ok {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s is %T, want a mapping", InsertKey, v)
		}
		for c, raw := range m {
			stmts, err := insertList(raw)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", InsertKey, c, err)
			}
			s.inserts[c] = stmts
		}
	}
	if v, ok := root[ReadKey]; ok {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s is %T, want a mapping", ReadKey, v)
		}
		for c, raw := range m {
			q, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("%s.%s is %T, want a string", ReadKey, c, raw)
			}
			if q = strings.TrimSpace(q); q != "" {
				s.reads[c] = q
			}
		}
	}
	return s, nil
}

func insertList(v any) ([]string, error) {
	switch v := v.(type) {
	case string:
		var out []string
		for _, part := range strings.Split(v, ";") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("list item is %T, want a string", item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("value is %T, want a string or list", v)
}

// FindFile looks for name in start and up to ten parent directories.
func FindFile(start, name string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for i := 0; i <= maxSearchDepth; i++ {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%s not found above %s: %w", name, start, os.ErrNotExist)
}
