package registry

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/brandwatch/internal/model"
	"github.com/sells-group/brandwatch/internal/store"
	"github.com/sells-group/brandwatch/pkg/notion"
)

// LoadPrompts queries the Notion prompt database for all active prompts.
func LoadPrompts(ctx context.Context, client notion.Client, dbID, workspaceID string) ([]model.Prompt, error) {
	pages, err := notion.QueryActivePages(ctx, client, dbID)
	if err != nil {
		return nil, eris.Wrap(err, "registry: load prompts")
	}

	var prompts []model.Prompt
	for _, p := range pages {
		prompt, err := parsePromptPage(p, workspaceID)
		if err != nil {
			zap.L().Warn("registry: skipping malformed prompt page",
				zap.String("page_id", string(p.ID)),
				zap.Error(err),
			)
			continue
		}
		prompts = append(prompts, prompt)
	}
	return prompts, nil
}

// LoadTrackedBrands queries the Notion tracked-brand database for all active
// brands.
func LoadTrackedBrands(ctx context.Context, client notion.Client, dbID, workspaceID string) ([]model.TrackedBrand, error) {
	pages, err := notion.QueryActivePages(ctx, client, dbID)
	if err != nil {
		return nil, eris.Wrap(err, "registry: load tracked brands")
	}

	var brands []model.TrackedBrand
	for _, p := range pages {
		tb, err := parseTrackedBrandPage(p, workspaceID)
		if err != nil {
			zap.L().Warn("registry: skipping malformed tracked brand page",
				zap.String("page_id", string(p.ID)),
				zap.Error(err),
			)
			continue
		}
		brands = append(brands, tb)
	}
	return brands, nil
}

// ImportFromNotion copies prompts and tracked brands from Notion into the
// store. Returns the number of records created.
func ImportFromNotion(ctx context.Context, client notion.Client, st store.Store, promptDB, trackedBrandDB, workspaceID string) (int, error) {
	created := 0

	if trackedBrandDB != "" {
		brands, err := LoadTrackedBrands(ctx, client, trackedBrandDB, workspaceID)
		if err != nil {
			return created, err
		}
		for _, tb := range brands {
			if _, err := st.CreateTrackedBrand(ctx, tb); err != nil {
				return created, eris.Wrapf(err, "registry: import tracked brand %s", tb.Name)
			}
			created++
		}
	}

	if promptDB != "" {
		prompts, err := LoadPrompts(ctx, client, promptDB, workspaceID)
		if err != nil {
			return created, err
		}
		for _, p := range prompts {
			if _, err := st.CreatePrompt(ctx, p); err != nil {
				return created, eris.Wrapf(err, "registry: import prompt %q", p.Text)
			}
			created++
		}
	}

	zap.L().Info("imported from notion",
		zap.String("workspace", workspaceID),
		zap.Int("records", created),
	)
	return created, nil
}

func parsePromptPage(p notionapi.Page, workspaceID string) (model.Prompt, error) {
	prompt := model.Prompt{
		ID:          string(p.ID),
		WorkspaceID: workspaceID,
		Active:      true,
	}

	// Text (title)
	if prop, ok := p.Properties["Text"]; ok {
		if tp, ok := prop.(*notionapi.TitleProperty); ok {
			prompt.Text = plainText(tp.Title)
		}
	}

	// Topic (select)
	if prop, ok := p.Properties["Topic"]; ok {
		if sp, ok := prop.(*notionapi.SelectProperty); ok {
			prompt.Topic = sp.Select.Name
		}
	}

	// Tags (multi_select)
	if prop, ok := p.Properties["Tags"]; ok {
		if msp, ok := prop.(*notionapi.MultiSelectProperty); ok {
			for _, opt := range msp.MultiSelect {
				prompt.Tags = append(prompt.Tags, opt.Name)
			}
		}
	}

	// Scheduled (checkbox)
	if prop, ok := p.Properties["Scheduled"]; ok {
		if cp, ok := prop.(*notionapi.CheckboxProperty); ok {
			prompt.Scheduled = cp.Checkbox
		}
	}

	if prompt.Text == "" {
		return prompt, eris.New("missing Text property")
	}
	return prompt, nil
}

func parseTrackedBrandPage(p notionapi.Page, workspaceID string) (model.TrackedBrand, error) {
	tb := model.TrackedBrand{
		ID:          string(p.ID),
		WorkspaceID: workspaceID,
		Active:      true,
	}

	// Name (title)
	if prop, ok := p.Properties["Name"]; ok {
		if tp, ok := prop.(*notionapi.TitleProperty); ok {
			tb.Name = plainText(tp.Title)
		}
	}

	// URL (url)
	if prop, ok := p.Properties["URL"]; ok {
		if up, ok := prop.(*notionapi.URLProperty); ok {
			tb.URL = up.URL
		}
	}

	// Description (rich_text)
	if prop, ok := p.Properties["Description"]; ok {
		if rtp, ok := prop.(*notionapi.RichTextProperty); ok {
			tb.Description = plainText(rtp.RichText)
		}
	}

	// Main Brand (checkbox)
	if prop, ok := p.Properties["Main Brand"]; ok {
		if cp, ok := prop.(*notionapi.CheckboxProperty); ok {
			tb.IsMainBrand = cp.Checkbox
		}
	}

	// Scheduled (checkbox)
	if prop, ok := p.Properties["Scheduled"]; ok {
		if cp, ok := prop.(*notionapi.CheckboxProperty); ok {
			tb.Scheduled = cp.Checkbox
		}
	}

	if tb.Name == "" {
		return tb, eris.New("missing Name property")
	}
	return tb, nil
}

// plainText concatenates the plain_text values from a slice of RichText.
func plainText(rts []notionapi.RichText) string {
	var s string
	for _, rt := range rts {
		s += rt.PlainText
	}
	return s
}
