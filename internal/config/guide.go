package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// GuideSection is one entry of /wfx guide.
type GuideSection struct {
	Name        string `yaml:"name"`  // option value
	Label       string `yaml:"label"` // what the user picks
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"` // optional, relative to the repo root
	Footer      string `yaml:"footer"`
	Color       int    `yaml:"color"`
}

type Guide struct {
	Sections map[string]GuideSection
}

// Ordered returns the sections sorted by label, for stable command choices.
func (g *Guide) Ordered() []GuideSection {
	out := make([]GuideSection, 0, len(g.Sections))
	for _, s := range g.Sections {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// LoadGuide reads every yaml file under <base>/guide.
func LoadGuide(base string) (*Guide, error) {
	dir := filepath.Join(base, "guide")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("leyendo guide dir: %w", err)
	}

	g := &Guide{Sections: make(map[string]GuideSection)}
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var raw struct {
			Sections []GuideSection `yaml:"sections"`
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parseando %s: %w", path, err)
		}
		for _, s := range raw.Sections {
			if s.Name == "" || s.Title == "" {
				return nil, fmt.Errorf("%s: section needs name and title: %+v", path, s)
			}
			if _, dup := g.Sections[s.Name]; dup {
				return nil, fmt.Errorf("%s: duplicate section %q", path, s.Name)
			}
			if s.Label == "" {
				s.Label = s.Title
			}
			g.Sections[s.Name] = s
		}
	}
	if len(g.Sections) == 0 {
		return nil, fmt.Errorf("no guide sections found in %s", dir)
	}
	return g, nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
