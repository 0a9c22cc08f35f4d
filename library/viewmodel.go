package library

import (
	"context"

	"github.com/jrsteele09/go-book-library/auth/sessions"
	"github.com/jrsteele09/go-book-library/internal/errors"
	"github.com/rs/zerolog/log"
)

// State is a read-only copy of a view-model for rendering.
type State struct {
	Books   []Book
	Draft   Draft
	Editing *Book
	Notices []Notice
}

// ViewModel holds what one signed-in user sees: the list of their records,
// the new-record draft and at most one record under edit.
//
// Every successful change is followed by Refresh, a full re-read of the list,
// rather than patching the local copy. The lock is held across store calls so
// the actions of one session run one at a time.
type ViewModel struct {
	sem     chan struct{}
	records Records
	session *sessions.Session
	books   []Book
	draft   Draft
	editing *Book
	notices []Notice
}

func NewViewModel(records Records) *ViewModel {
	vm := &ViewModel{
		sem:     make(chan struct{}, 1),
		records: records,
		books:   []Book{},
	}
	return vm
}

// lock waits for exclusive access, giving up when ctx is done.
func (vm *ViewModel) lock(ctx context.Context) error {
	select {
	case vm.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (vm *ViewModel) unlock() {
	<-vm.sem
}

// SessionChanged reacts to the session becoming available (refresh the list)
// or going away (clear everything).
func (vm *ViewModel) SessionChanged(ctx context.Context, session *sessions.Session) error {
	if err := vm.lock(ctx); err != nil {
		return err
	}
	defer vm.unlock()

	if session == nil {
		vm.session = nil
		vm.books = []Book{}
		vm.draft = Draft{}
		vm.editing = nil
		vm.notices = nil
		return nil
	}
	s := *session
	vm.session = &s
	return vm.refresh(ctx)
}

// Refresh replaces the list with the store's current view of it.
func (vm *ViewModel) Refresh(ctx context.Context) error {
	if err := vm.lock(ctx); err != nil {
		return err
	}
	defer vm.unlock()
	return vm.refresh(ctx)
}

func (vm *ViewModel) refresh(ctx context.Context) error {
	if err := vm.reload(ctx); err != nil {
		vm.notify(ErrorNotice(MsgLoadFailed))
		return err
	}
	return nil
}

// reload replaces the list, keeping the previous one when the read fails.
func (vm *ViewModel) reload(ctx context.Context) error {
	if vm.session == nil {
		vm.books = []Book{}
		return nil
	}
	books, err := vm.records.ListMine(ctx, *vm.session)
	if err != nil {
		log.Err(err).Str("user_id", vm.session.UserID).Msg("failed to list books")
		return err
	}
	vm.books = books
	return nil
}

// SetDraft keeps unsubmitted input so the form can be shown again.
func (vm *ViewModel) SetDraft(ctx context.Context, draft Draft) error {
	if err := vm.lock(ctx); err != nil {
		return err
	}
	defer vm.unlock()

	vm.draft = draft
	return nil
}

// SubmitAdd stores draft as a new record. On success the draft is cleared and
// the list refreshed; on failure the draft is kept for another try.
func (vm *ViewModel) SubmitAdd(ctx context.Context, draft Draft) error {
	if err := vm.lock(ctx); err != nil {
		return err
	}
	defer vm.unlock()

	vm.draft = draft
	if err := vm.requireSession(); err != nil {
		vm.notify(ErrorNotice(MsgAddFailed))
		return err
	}
	if err := vm.records.Add(ctx, *vm.session, draft); err != nil {
		vm.notifyFailure(err, MsgAddFailed)
		return err
	}

	vm.draft = Draft{}
	vm.notify(SuccessNotice(MsgAdded))
	vm.refreshQuietly(ctx)
	return nil
}

// BeginEdit selects a listed record for editing, replacing any previous
// selection and its unsaved changes.
func (vm *ViewModel) BeginEdit(ctx context.Context, id string) error {
	if err := vm.lock(ctx); err != nil {
		return err
	}
	defer vm.unlock()

	for _, b := range vm.books {
		if b.ID == id {
			edit := b
			vm.editing = &edit
			return nil
		}
	}
	return errors.Wrapf(errors.ErrNotFound, "[ViewModel BeginEdit] %s", id)
}

// SetEdit replaces the fields of the record under edit without saving them.
// Without a selection it does nothing.
func (vm *ViewModel) SetEdit(ctx context.Context, fields Draft) error {
	if err := vm.lock(ctx); err != nil {
		return err
	}
	defer vm.unlock()

	vm.setEdit(fields)
	return nil
}

func (vm *ViewModel) setEdit(fields Draft) {
	if vm.editing == nil {
		return
	}
	vm.editing.Title = fields.Title
	vm.editing.Author = fields.Author
	vm.editing.Year = fields.Year
}

// SubmitEdit writes fields to the record under edit. Without a selection it
// does nothing. On failure the selection, with the submitted values, is kept.
func (vm *ViewModel) SubmitEdit(ctx context.Context, fields Draft) error {
	if err := vm.lock(ctx); err != nil {
		return err
	}
	defer vm.unlock()

	if vm.editing == nil {
		return nil
	}
	vm.setEdit(fields)

	if err := vm.requireSession(); err != nil {
		vm.notify(ErrorNotice(MsgUpdateFailed))
		return err
	}
	if err := vm.records.Update(ctx, *vm.session, vm.editing.ID, fields); err != nil {
		vm.notifyFailure(err, MsgUpdateFailed)
		return err
	}

	vm.editing = nil
	vm.notify(SuccessNotice(MsgUpdated))
	vm.refreshQuietly(ctx)
	return nil
}

// CancelEdit drops the selection and its unsaved changes.
func (vm *ViewModel) CancelEdit(ctx context.Context) error {
	if err := vm.lock(ctx); err != nil {
		return err
	}
	defer vm.unlock()

	vm.editing = nil
	return nil
}

// DeleteRecord removes a record without confirmation and refreshes the list
// whether or not the removal succeeded.
func (vm *ViewModel) DeleteRecord(ctx context.Context, id string) error {
	if err := vm.lock(ctx); err != nil {
		return err
	}
	defer vm.unlock()

	if err := vm.requireSession(); err != nil {
		vm.notify(ErrorNotice(MsgDeleteFailed))
		return err
	}
	err := vm.records.Remove(ctx, *vm.session, id)
	if err != nil {
		vm.notifyFailure(err, MsgDeleteFailed)
	} else {
		if vm.editing != nil && vm.editing.ID == id {
			vm.editing = nil
		}
		vm.notify(SuccessNotice(MsgDeleted))
	}
	vm.refreshQuietly(ctx)
	return err
}

// Notify queues a notice for the next render.
func (vm *ViewModel) Notify(ctx context.Context, n Notice) error {
	if err := vm.lock(ctx); err != nil {
		return err
	}
	defer vm.unlock()

	vm.notify(n)
	return nil
}

// Snapshot copies the state for rendering and drains the queued notices.
func (vm *ViewModel) Snapshot(ctx context.Context) (State, error) {
	if err := vm.lock(ctx); err != nil {
		return State{}, err
	}
	defer vm.unlock()

	state := State{
		Books:   append([]Book(nil), vm.books...),
		Draft:   vm.draft,
		Notices: vm.notices,
	}
	if state.Books == nil {
		state.Books = []Book{}
	}
	if vm.editing != nil {
		edit := *vm.editing
		state.Editing = &edit
	}
	vm.notices = nil
	return state, nil
}

func (vm *ViewModel) requireSession() error {
	if vm.session == nil {
		return errors.ErrSessionNotFound
	}
	return nil
}

func (vm *ViewModel) notify(n Notice) {
	vm.notices = append(vm.notices, n)
}

// notifyFailure uses the validation message for locally rejected input and
// the operation's fixed failure message otherwise.
func (vm *ViewModel) notifyFailure(err error, msg string) {
	if errors.Is(err, errors.ErrValidation) {
		vm.notify(ErrorNotice(MsgFieldsRequired))
		return
	}
	log.Err(err).Msg(msg)
	vm.notify(ErrorNotice(msg))
}

// refreshQuietly re-synchronises after a mutation. The mutation's notice is
// the only one queued; a failed re-read is logged and the stale list kept.
func (vm *ViewModel) refreshQuietly(ctx context.Context) {
	_ = vm.reload(ctx)
}
