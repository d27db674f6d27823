// Package registry loads prompts and tracked brands from external sources
// (YAML seed files and Notion databases) into the store.
package registry

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/brandwatch/internal/model"
	"github.com/sells-group/brandwatch/internal/store"
)

// Seed is the on-disk format for bootstrapping a workspace.
type Seed struct {
	Workspace     string             `yaml:"workspace"`
	Prompts       []SeedPrompt       `yaml:"prompts"`
	TrackedBrands []SeedTrackedBrand `yaml:"tracked_brands"`
}

// SeedPrompt describes one prompt entry in a seed file.
type SeedPrompt struct {
	Text      string   `yaml:"text"`
	Topic     string   `yaml:"topic"`
	Tags      []string `yaml:"tags"`
	Scheduled bool     `yaml:"scheduled"`
}

// SeedTrackedBrand describes one tracked brand entry in a seed file.
type SeedTrackedBrand struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	Description string `yaml:"description"`
	MainBrand   bool   `yaml:"main_brand"`
}

// LoadSeedFile reads and validates a YAML seed file.
func LoadSeedFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read seed file")
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, eris.Wrap(err, "registry: unmarshal seed file")
	}

	if seed.Workspace == "" {
		return nil, eris.New("registry: seed file missing workspace")
	}
	for i, p := range seed.Prompts {
		if p.Text == "" {
			return nil, eris.Errorf("registry: prompt %d has no text", i)
		}
	}
	for i, tb := range seed.TrackedBrands {
		if tb.Name == "" {
			return nil, eris.Errorf("registry: tracked brand %d has no name", i)
		}
	}
	return &seed, nil
}

// Apply inserts the seed's prompts and tracked brands into the store.
// Returns the number of records created.
func (s *Seed) Apply(ctx context.Context, st store.Store) (int, error) {
	created := 0

	for _, tb := range s.TrackedBrands {
		if _, err := st.CreateTrackedBrand(ctx, model.TrackedBrand{
			WorkspaceID: s.Workspace,
			Name:        tb.Name,
			URL:         tb.URL,
			Description: tb.Description,
			IsMainBrand: tb.MainBrand,
			Active:      true,
		}); err != nil {
			return created, eris.Wrapf(err, "registry: seed tracked brand %s", tb.Name)
		}
		created++
	}

	for _, p := range s.Prompts {
		if _, err := st.CreatePrompt(ctx, model.Prompt{
			WorkspaceID: s.Workspace,
			Text:        p.Text,
			Topic:       p.Topic,
			Tags:        p.Tags,
			Active:      true,
			Scheduled:   p.Scheduled,
		}); err != nil {
			return created, eris.Wrapf(err, "registry: seed prompt %q", p.Text)
		}
		created++
	}

	zap.L().Info("applied seed file",
		zap.String("workspace", s.Workspace),
		zap.Int("records", created),
	)
	return created, nil
}
