// Package skills loads skill documents from skills/<name>/SKILL.md.
package skills

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the document every skill directory must contain.
const FileName = "SKILL.md"

// Skill is one parsed skill document.
type Skill struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Body        string `yaml:"-"`
}

// Loader reads skills from a root directory.
type Loader struct {
	root string
}

// NewLoader creates a Loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{root: dir}
}

// List returns the sorted names of directories holding a SKILL.md.
// A missing root yields no skills.
func (l *Loader) List() ([]string, error) {
	entries, err := os.ReadDir(l.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading skills dir %s: %w", l.root, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(l.root, e.Name(), FileName)); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Load returns the full SKILL.md text for name, or "" when the skill is absent.
func (l *Loader) Load(name string) string {
	if !validName(name) {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(l.root, name, FileName))
	if err != nil {
		return ""
	}
	return string(data)
}

// Parse reads the skill and splits off its YAML front matter.
func (l *Loader) Parse(name string) (Skill, error) {
	text := l.Load(name)
	if text == "" {
		return Skill{}, fmt.Errorf("skill %q: %w", name, fs.ErrNotExist)
	}
	s, err := parse([]byte(text))
	if err != nil {
		return Skill{}, fmt.Errorf("skill %q: %w", name, err)
	}
	if s.Name == "" {
		s.Name = name
	}
	return s, nil
}

var delimiter = []byte("---")

func parse(data []byte) (Skill, error) {
	trimmed := bytes.TrimLeft(data, "\ufeff \t\r\n")
	if !bytes.HasPrefix(trimmed, delimiter) {
		return Skill{Body: strings.TrimSpace(string(data))}, nil
	}

	rest := trimmed[len(delimiter):]
	end := bytes.Index(rest, append([]byte("\n"), delimiter...))
	if end < 0 {
		return Skill{Body: strings.TrimSpace(string(data))}, nil
	}

	var s Skill
	if err := yaml.Unmarshal(rest[:end], &s); err != nil {
		return Skill{}, fmt.Errorf("parsing front matter: %w", err)
	}
	s.Body = strings.TrimSpace(string(rest[end+1+len(delimiter):]))
	return s, nil
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}
