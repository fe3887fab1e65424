package category

import (
	"strings"
	"time"
	"unicode"

	"github.com/gofrs/uuid"
)

type Category struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Slug        string     `json:"slug" db:"slug"`
	Description string     `json:"description" db:"description"`
	ImageURL    string     `json:"image_url" db:"image_url"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty" db:"parent_id"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	Featured    bool       `json:"featured" db:"featured"`
	SortOrder   int        `json:"sort_order" db:"sort_order"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

type Input struct {
	Name        *string
	Description *string
	ImageURL    *string
	ParentID    *uuid.UUID
	IsActive    *bool
	Featured    *bool
	SortOrder   *int
}

// Slugify lower-cases name and collapses every run of other characters to a
// single dash.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
