package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/zeebo/xxh3"
	"gopkg.in/yaml.v3"
)

// ProjectFile is looked up from the working directory by the CLI.
const ProjectFile = "sqlcollections.yaml"

// Project holds per-repository defaults. Command-line flags override it.
type Project struct {
	Schema              string   `yaml:"schema"`
	Output              string   `yaml:"output"`
	Format              string   `yaml:"format"`
	Dialect             string   `yaml:"dialect"`
	Section             string   `yaml:"section"`
	OrderColumns        []string `yaml:"order_columns"`
	IncludeUnclassified bool     `yaml:"include_unclassified"`
	Database            string   `yaml:"database"`
}

// DefaultProject returns the settings used when no project file exists.
func DefaultProject() Project {
	return Project{
		Schema:  "schema.sql",
		Output:  "sqlcollections.out.yaml",
		Format:  string(YAML),
		Dialect: "postgres",
	}
}

// LoadProject reads a project file over DefaultProject. A missing file is
// not an error.
func LoadProject(path string) (Project, error) {
	p := DefaultProject()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("read project: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("%s: %w", path, err)
	}
	if _, err := ParseFormat(p.Format); err != nil {
		return p, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Fingerprint hashes generated output so unchanged documents are not
// rewritten.
func Fingerprint(b []byte) uint64 {
	return xxh3.Hash(b)
}
