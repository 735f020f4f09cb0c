package seed

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/markdave123-py/legalmind/internal/core"
)

// Law describes one curated law and the file it is loaded from.
type Law struct {
	Slug          string `yaml:"slug"`
	TitleEn       string `yaml:"title_en"`
	TitleAr       string `yaml:"title_ar"`
	DescriptionEn string `yaml:"description_en"`
	FileName      string `yaml:"file_name"`
	Language      string `yaml:"language"`
}

type Manifest struct {
	Laws []Law `yaml:"laws"`
}

func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes and validates a manifest. Language defaults to "ar".
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parse manifest: %v", core.ErrValidation, err)
	}

	seen := make(map[string]bool, len(m.Laws))
	for i := range m.Laws {
		law := &m.Laws[i]
		law.Slug = strings.TrimSpace(law.Slug)
		if law.Slug == "" || law.FileName == "" || law.TitleEn == "" {
			return nil, fmt.Errorf("%w: manifest entry %d needs slug, title_en and file_name", core.ErrValidation, i)
		}
		if seen[law.Slug] {
			return nil, fmt.Errorf("%w: duplicate slug %q", core.ErrValidation, law.Slug)
		}
		seen[law.Slug] = true
		if law.Language == "" {
			law.Language = "ar"
		}
	}
	return &m, nil
}

// Select returns the laws to seed: all of them, or only the named slug.
func (m *Manifest) Select(only string) ([]Law, error) {
	if only == "" {
		return m.Laws, nil
	}
	for _, law := range m.Laws {
		if law.Slug == only {
			return []Law{law}, nil
		}
	}
	return nil, fmt.Errorf("law %q not in manifest: %w", only, core.ErrNotFound)
}
