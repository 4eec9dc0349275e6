// Package fields keeps the directory of pitches events can be played on.
package fields

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codr1/PitchMatch/internal/db"
)

var ErrFieldNotFound = errors.New("field not found")

type Field struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Surface   string    `json:"surface,omitempty"`
	Format    string    `json:"format,omitempty"`
	SourceURL string    `json:"sourceUrl,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Directory struct {
	q     *db.Queries
	clock func() time.Time
}

func NewDirectory(database *db.DB) *Directory {
	return &Directory{q: database.Queries, clock: time.Now}
}

func (d *Directory) List(ctx context.Context) ([]Field, error) {
	rows, err := d.q.ListFields(ctx)
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	out := make([]Field, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

func (d *Directory) Get(ctx context.Context, id int64) (Field, error) {
	row, err := d.q.GetField(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Field{}, ErrFieldNotFound
		}
		return Field{}, fmt.Errorf("get field: %w", err)
	}
	return fromRow(row), nil
}

// Upsert inserts or updates a field by slug. An empty slug is derived from
// the name.
func (d *Directory) Upsert(ctx context.Context, f Field) (Field, error) {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return Field{}, fmt.Errorf("field name is required")
	}
	if f.Slug == "" {
		f.Slug = Slugify(f.Name)
	}
	row, err := d.q.UpsertField(ctx, db.UpsertFieldParams{
		Slug:      f.Slug,
		Name:      f.Name,
		Address:   strings.TrimSpace(f.Address),
		Surface:   strings.TrimSpace(f.Surface),
		Format:    strings.TrimSpace(f.Format),
		SourceURL: sql.NullString{String: f.SourceURL, Valid: f.SourceURL != ""},
		UpdatedAt: d.clock().UTC().Truncate(time.Second),
	})
	if err != nil {
		return Field{}, fmt.Errorf("upsert field %q: %w", f.Slug, err)
	}
	return fromRow(row), nil
}

// Slugify lowercases name and joins its alphanumeric runs with dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func fromRow(row db.Field) Field {
	return Field{
		ID:        row.ID,
		Slug:      row.Slug,
		Name:      row.Name,
		Address:   row.Address,
		Surface:   row.Surface,
		Format:    row.Format,
		SourceURL: row.SourceURL.String,
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}
