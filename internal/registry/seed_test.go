package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sells-group/brandwatch/internal/store"
)

const seedYAML = `
workspace: ws-1
prompts:
  - text: what is the best crm for startups?
    topic: crm
    tags: [saas, sales]
    scheduled: true
  - text: top customer support platforms
    topic: support
tracked_brands:
  - name: Acme CRM
    url: https://acme.example.com
    description: CRM for mid-market sales teams
    main_brand: true
  - name: RivalSoft
    url: https://rivalsoft.example.com
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func TestLoadSeedFile(t *testing.T) {
	seed, err := LoadSeedFile(writeSeed(t, seedYAML))
	if err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}
	if seed.Workspace != "ws-1" {
		t.Errorf("workspace = %q", seed.Workspace)
	}
	if len(seed.Prompts) != 2 || len(seed.TrackedBrands) != 2 {
		t.Fatalf("prompts = %d, brands = %d", len(seed.Prompts), len(seed.TrackedBrands))
	}
	if !seed.Prompts[0].Scheduled || seed.Prompts[1].Scheduled {
		t.Error("scheduled flags wrong")
	}
	if !seed.TrackedBrands[0].MainBrand {
		t.Error("main_brand flag wrong")
	}
}

func TestLoadSeedFileValidation(t *testing.T) {
	cases := []struct {
		name, yaml string
	}{
		{"missing workspace", "prompts:\n  - text: q\n"},
		{"prompt without text", "workspace: ws\nprompts:\n  - topic: crm\n"},
		{"brand without name", "workspace: ws\ntracked_brands:\n  - url: https://x.example.com\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := LoadSeedFile(writeSeed(t, c.yaml)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSeedApply(t *testing.T) {
	s, err := store.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer s.Close()
	ctx := context.Background()
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	seed, err := LoadSeedFile(writeSeed(t, seedYAML))
	if err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}

	created, err := seed.Apply(ctx, s)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if created != 4 {
		t.Errorf("created = %d, want 4", created)
	}

	prompts, err := s.ListPrompts(ctx, store.PromptFilter{WorkspaceID: "ws-1"})
	if err != nil {
		t.Fatalf("ListPrompts: %v", err)
	}
	if len(prompts) != 2 {
		t.Fatalf("got %d prompts", len(prompts))
	}

	brands, err := s.ListTrackedBrands(ctx, store.TrackedBrandFilter{WorkspaceID: "ws-1", MainOnly: true})
	if err != nil {
		t.Fatalf("ListTrackedBrands: %v", err)
	}
	if len(brands) != 1 || brands[0].Name != "Acme CRM" {
		t.Errorf("main brands = %+v", brands)
	}
}
