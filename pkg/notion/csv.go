package notion

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// CSVMapper maps a CSV row to a flat key-value map using the header row.
type CSVMapper struct{}

// MapRow pairs each header with the corresponding value in the row.
// If the row has fewer columns than headers, missing values become empty strings.
func (m CSVMapper) MapRow(headers []string, row []string) map[string]string {
	result := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(row) {
			result[h] = row[i]
		} else {
			result[h] = ""
		}
	}
	return result
}

// ImportPromptsCSV reads a CSV of prompts and creates a Notion page per
// unique row in the prompt database. Expected columns: Text (required),
// Topic, Tags (comma separated), Scheduled (true/false). Rows are
// deduplicated by Text. Returns the number of pages created.
func ImportPromptsCSV(ctx context.Context, c Client, dbID string, csvPath string) (int, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return 0, eris.Wrap(err, fmt.Sprintf("notion: open csv %s", csvPath))
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return 0, eris.Wrap(err, "notion: read csv")
	}

	if len(records) < 2 {
		return 0, nil // header only or empty
	}

	headers := records[0]
	mapper := CSVMapper{}
	seen := make(map[string]struct{})

	created := 0
	for _, row := range records[1:] {
		if ctx.Err() != nil {
			return created, eris.Wrap(ctx.Err(), "notion: import csv cancelled")
		}

		mapped := mapper.MapRow(headers, row)
		text := strings.TrimSpace(valueFold(mapped, "Text"))
		if text == "" {
			continue
		}
		if _, exists := seen[text]; exists {
			continue
		}
		seen[text] = struct{}{}

		req := &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(dbID),
			},
			Properties: buildPromptProperties(mapped),
		}

		if _, err := c.CreatePage(ctx, req); err != nil {
			return created, eris.Wrap(err, "notion: create page from csv row")
		}
		created++
	}

	return created, nil
}

// valueFold looks a key up case-insensitively.
func valueFold(row map[string]string, key string) string {
	for k, v := range row {
		if strings.EqualFold(strings.TrimSpace(k), key) {
			return v
		}
	}
	return ""
}

// buildPromptProperties converts a prompt CSV row to Notion page properties.
func buildPromptProperties(row map[string]string) notionapi.Properties {
	props := make(notionapi.Properties)

	props["Text"] = notionapi.TitleProperty{
		Type: notionapi.PropertyTypeTitle,
		Title: []notionapi.RichText{
			{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: strings.TrimSpace(valueFold(row, "Text"))}},
		},
	}

	if topic := strings.TrimSpace(valueFold(row, "Topic")); topic != "" {
		props["Topic"] = notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: topic},
		}
	}

	if tags := strings.TrimSpace(valueFold(row, "Tags")); tags != "" {
		var opts []notionapi.Option
		for _, tag := range strings.Split(tags, ",") {
			tag = strings.TrimSpace(tag)
			if tag != "" {
				opts = append(opts, notionapi.Option{Name: tag})
			}
		}
		if len(opts) > 0 {
			props["Tags"] = notionapi.MultiSelectProperty{
				Type:        notionapi.PropertyTypeMultiSelect,
				MultiSelect: opts,
			}
		}
	}

	scheduled := strings.EqualFold(strings.TrimSpace(valueFold(row, "Scheduled")), "true")
	props["Scheduled"] = notionapi.CheckboxProperty{
		Type:     notionapi.PropertyTypeCheckbox,
		Checkbox: scheduled,
	}

	// New prompts import as active.
	props["Active"] = notionapi.CheckboxProperty{
		Type:     notionapi.PropertyTypeCheckbox,
		Checkbox: true,
	}

	return props
}
