package library

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-book-library/auth/sessions"
	"github.com/jrsteele09/go-book-library/docstore"
	"github.com/jrsteele09/go-book-library/internal/errors"
)

// Records is the set of library operations the view-model drives.
type Records interface {
	ListMine(ctx context.Context, session sessions.Session) ([]Book, error)
	Add(ctx context.Context, session sessions.Session, draft Draft) error
	Update(ctx context.Context, session sessions.Session, id string, fields Draft) error
	Remove(ctx context.Context, session sessions.Session, id string) error
}

var _ Records = (*Repository)(nil)

// Repository maps library operations onto the document store. Reads are
// filtered by the session's user and writes carry the same owner as a
// precondition, so a user can neither see nor change another user's records.
type Repository struct {
	store    docstore.Store
	validate *validator.Validate
	nowTime  func() time.Time
}

type RepositoryOption func(*Repository)

// WithNowTime sets the clock used for createdAt (primarily for testing)
func WithNowTime(nowFunc func() time.Time) RepositoryOption {
	return func(r *Repository) {
		r.nowTime = nowFunc
	}
}

func NewRepository(store docstore.Store, options ...RepositoryOption) *Repository {
	r := &Repository{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Validate trims the draft and checks that title and author are present.
func (r *Repository) Validate(draft Draft) (Draft, error) {
	draft = draft.trimmed()
	err := r.validate.Struct(draft)
	if err == nil {
		return draft, nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		switch fieldErrs[0].Field() {
		case "Title":
			return draft, errors.ErrTitleRequired
		case "Author":
			return draft, errors.ErrAuthorRequired
		}
	}
	return draft, errors.Wrapf(errors.ErrValidation, "%s", err.Error())
}

func owner(session sessions.Session) (docstore.Condition, error) {
	if session.UserID == "" {
		return docstore.Condition{}, errors.ErrSessionNotFound
	}
	return docstore.WhereEquals(fieldUserID, session.UserID), nil
}

// ListMine returns the session user's records in store order, an empty
// slice when there are none.
func (r *Repository) ListMine(ctx context.Context, session sessions.Session) ([]Book, error) {
	mine, err := owner(session)
	if err != nil {
		return nil, err
	}
	snapshots, err := r.store.Query(ctx, Collection, mine)
	if err != nil {
		return nil, errors.Unavailable(errors.Wrapf(err, "[Repository ListMine]"))
	}

	books := make([]Book, 0, len(snapshots))
	for _, s := range snapshots {
		books = append(books, bookFromSnapshot(s))
	}
	return books, nil
}

// Add validates locally, making no store call for an invalid draft. The
// created record is not returned; callers re-list to see it.
func (r *Repository) Add(ctx context.Context, session sessions.Session, draft Draft) error {
	mine, err := owner(session)
	if err != nil {
		return err
	}
	draft, err = r.Validate(draft)
	if err != nil {
		return err
	}

	doc := draft.document()
	doc[mine.Field] = mine.Value
	doc[fieldCreatedAt] = r.nowTime().UTC()
	if _, err := r.store.Insert(ctx, Collection, doc); err != nil {
		return errors.Unavailable(errors.Wrapf(err, "[Repository Add]"))
	}
	return nil
}

// Update overwrites title, author and year of the record.
func (r *Repository) Update(ctx context.Context, session sessions.Session, id string, fields Draft) error {
	mine, err := owner(session)
	if err != nil {
		return err
	}
	fields, err = r.Validate(fields)
	if err != nil {
		return err
	}

	err = r.store.UpdateFields(ctx, Collection, id, fields.document(), mine)
	return storeWriteError(err, "[Repository Update] %s", id)
}

// Remove deletes the record. There is no confirmation and no soft delete.
func (r *Repository) Remove(ctx context.Context, session sessions.Session, id string) error {
	mine, err := owner(session)
	if err != nil {
		return err
	}
	err = r.store.Delete(ctx, Collection, id, mine)
	return storeWriteError(err, "[Repository Remove] %s", id)
}

// storeWriteError keeps ErrNotFound distinguishable; every other store
// failure is reported as the backend being unavailable.
func storeWriteError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	err = errors.Wrapf(err, format, args...)
	if errors.Is(err, errors.ErrNotFound) {
		return err
	}
	return errors.Unavailable(err)
}
