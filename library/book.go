// Package library holds the book records of a signed-in user: the repository
// that scopes every store call to the owner and the per-session view-model
// that keeps the displayed list in sync after each change.
package library

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-book-library/docstore"
	"github.com/jrsteele09/go-book-library/internal/utils"
)

// Collection is the document store collection holding book records.
const Collection = "books"

// Document field names.
const (
	fieldTitle     = "title"
	fieldAuthor    = "author"
	fieldYear      = "year"
	fieldUserID    = "userId"
	fieldCreatedAt = "createdAt"
)

// Book is one stored record. UserID always equals the owning session's user.
type Book struct {
	ID        string
	Title     string
	Author    string
	Year      *int
	UserID    string
	CreatedAt time.Time
}

// Draft is unsaved input for a new record, also used for the editable fields
// of an existing one.
type Draft struct {
	Title  string `validate:"required"`
	Author string `validate:"required"`
	Year   *int
}

// YearString renders the optional year for forms and listings.
func (b Book) YearString() string {
	return utils.FormatOptionalInt(b.Year)
}

// YearString renders the optional year for forms.
func (d Draft) YearString() string {
	return utils.FormatOptionalInt(d.Year)
}

// IsEmpty reports whether nothing has been typed into the draft.
func (d Draft) IsEmpty() bool {
	return d.Title == "" && d.Author == "" && d.Year == nil
}

func (d Draft) trimmed() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Author = strings.TrimSpace(d.Author)
	return d
}

// document returns the editable fields as a store document. year is always
// present so an update can clear it.
func (d Draft) document() docstore.Document {
	doc := docstore.Document{
		fieldTitle:  d.Title,
		fieldAuthor: d.Author,
		fieldYear:   nil,
	}
	if d.Year != nil {
		doc[fieldYear] = *d.Year
	}
	return doc
}

func bookFromSnapshot(s docstore.Snapshot) Book {
	b := Book{ID: s.ID}
	b.Title, _ = s.Fields[fieldTitle].(string)
	b.Author, _ = s.Fields[fieldAuthor].(string)
	b.UserID, _ = s.Fields[fieldUserID].(string)
	b.Year = decodeYear(s.Fields[fieldYear])
	b.CreatedAt = decodeTime(s.Fields[fieldCreatedAt])
	return b
}

// decodeYear accepts the numeric kinds a store may hand back, and numeric
// strings written by older clients. Anything else is treated as no year.
func decodeYear(v any) *int {
	switch y := v.(type) {
	case int:
		return &y
	case int64:
		if y < math.MinInt || y > math.MaxInt {
			return nil
		}
		return utils.Ptr(int(y))
	case float64:
		// float64(math.MaxInt) rounds up to 2^63, hence >=.
		if y != math.Trunc(y) || y < math.MinInt || y >= math.MaxInt {
			return nil
		}
		return utils.Ptr(int(y))
	case json.Number:
		i, err := strconv.Atoi(y.String())
		if err != nil {
			return nil
		}
		return &i
	case string:
		i, err := utils.ParseOptionalInt(y)
		if err != nil {
			return nil
		}
		return i
	}
	return nil
}

func decodeTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err == nil {
			return parsed
		}
	}
	return time.Time{}
}
