package fields

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// Importer fetches an HTML field listing and upserts its rows. Rows are read
// from "table.fields tbody tr" with td.name, td.address, td.surface and
// td.format cells; an optional data-slug attribute on the row overrides the
// derived slug.
type Importer struct {
	dir    *Directory
	client *http.Client
}

func NewImporter(dir *Directory, client *http.Client) *Importer {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Importer{dir: dir, client: client}
}

// Import returns the number of fields upserted.
func (im *Importer) Import(ctx context.Context, sourceURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := im.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", sourceURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch %s: unexpected status %d", sourceURL, resp.StatusCode)
	}

	parsed, err := Parse(resp.Body)
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, f := range parsed {
		f.SourceURL = sourceURL
		if _, err := im.dir.Upsert(ctx, f); err != nil {
			return imported, err
		}
		imported++
	}

	log.Ctx(ctx).Info().
		Str("component", "fields_import").
		Str("source", sourceURL).
		Int("fields", imported).
		Msg("Field directory imported")
	return imported, nil
}

// Parse extracts fields from a listing page. Rows without a name are
// skipped.
func Parse(r io.Reader) ([]Field, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	var out []Field
	seen := make(map[string]bool)
	doc.Find("table.fields tbody tr").Each(func(_ int, row *goquery.Selection) {
		name := cellText(row, "td.name")
		if name == "" {
			return
		}
		slug := strings.TrimSpace(row.AttrOr("data-slug", ""))
		if slug == "" {
			slug = Slugify(name)
		}
		if seen[slug] {
			return
		}
		seen[slug] = true
		out = append(out, Field{
			Slug:    slug,
			Name:    name,
			Address: cellText(row, "td.address"),
			Surface: cellText(row, "td.surface"),
			Format:  cellText(row, "td.format"),
		})
	})
	return out, nil
}

func cellText(row *goquery.Selection, selector string) string {
	return strings.Join(strings.Fields(row.Find(selector).First().Text()), " ")
}
