package library_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-book-library/auth/sessions"
	"github.com/jrsteele09/go-book-library/docstore/fakestore"
	"github.com/jrsteele09/go-book-library/internal/errors"
	"github.com/jrsteele09/go-book-library/internal/utils"
	"github.com/jrsteele09/go-book-library/library"
	"github.com/stretchr/testify/require"
)

type viewModelFixture struct {
	store *fakestore.FakeStore
	repo  *library.Repository
	vm    *library.ViewModel
}

func newViewModelFixture(t *testing.T) *viewModelFixture {
	t.Helper()
	repo, store := newRepository(t)
	vm := library.NewViewModel(repo)
	require.NoError(t, vm.SessionChanged(context.Background(), &u1))
	return &viewModelFixture{store: store, repo: repo, vm: vm}
}

func (f *viewModelFixture) snapshot(t *testing.T) library.State {
	t.Helper()
	state, err := f.vm.Snapshot(context.Background())
	require.NoError(t, err)
	return state
}

func (f *viewModelFixture) add(t *testing.T, title, author string) library.Book {
	t.Helper()
	require.NoError(t, f.vm.SubmitAdd(context.Background(), library.Draft{Title: title, Author: author}))
	books := f.snapshot(t).Books
	return books[len(books)-1]
}

func TestViewModel_EmptyLibrary(t *testing.T) {
	f := newViewModelFixture(t)

	state := f.snapshot(t)
	require.NotNil(t, state.Books)
	require.Empty(t, state.Books)
	require.Nil(t, state.Editing)
	require.True(t, state.Draft.IsEmpty())
	require.Empty(t, state.Notices)
}

func TestViewModel_SubmitAdd(t *testing.T) {
	f := newViewModelFixture(t)
	ctx := context.Background()

	require.NoError(t, f.vm.SubmitAdd(ctx, library.Draft{Title: "Dune", Author: "Herbert", Year: utils.Ptr(1965)}))

	state := f.snapshot(t)
	require.Len(t, state.Books, 1)
	require.Equal(t, "Dune", state.Books[0].Title)
	require.Equal(t, "Herbert", state.Books[0].Author)
	require.Equal(t, 1965, utils.Value(state.Books[0].Year))
	require.Equal(t, "u1", state.Books[0].UserID)
	require.True(t, state.Draft.IsEmpty())
	require.Equal(t, []library.Notice{{Kind: library.NoticeSuccess, Message: library.MsgAdded}}, state.Notices)

	// Notices are shown once.
	require.Empty(t, f.snapshot(t).Notices)
}

func TestViewModel_SubmitAdd_EmptyFields(t *testing.T) {
	f := newViewModelFixture(t)
	f.add(t, "Dune", "Herbert")
	f.snapshot(t)
	inserts := f.store.Calls(fakestore.OpInsert)

	draft := library.Draft{Title: "", Author: "Austen", Year: utils.Ptr(1815)}
	err := f.vm.SubmitAdd(context.Background(), draft)
	require.ErrorIs(t, err, errors.ErrTitleRequired)
	require.Equal(t, inserts, f.store.Calls(fakestore.OpInsert))

	state := f.snapshot(t)
	require.Len(t, state.Books, 1)
	require.Equal(t, draft, state.Draft)
	require.Equal(t, []library.Notice{{Kind: library.NoticeError, Message: library.MsgFieldsRequired}}, state.Notices)
}

func TestViewModel_SubmitAdd_StoreFailureKeepsDraft(t *testing.T) {
	f := newViewModelFixture(t)
	f.store.Fail(fakestore.OpInsert, errBoom)

	draft := library.Draft{Title: "Dune", Author: "Herbert"}
	err := f.vm.SubmitAdd(context.Background(), draft)
	require.ErrorIs(t, err, errors.ErrBackendUnavailable)

	state := f.snapshot(t)
	require.Empty(t, state.Books)
	require.Equal(t, draft, state.Draft)
	require.Equal(t, []library.Notice{{Kind: library.NoticeError, Message: library.MsgAddFailed}}, state.Notices)
}

func TestViewModel_BeginEdit(t *testing.T) {
	f := newViewModelFixture(t)
	ctx := context.Background()
	a := f.add(t, "Dune", "Herbert")
	b := f.add(t, "Emma", "Austen")

	require.NoError(t, f.vm.BeginEdit(ctx, a.ID))
	require.NoError(t, f.vm.BeginEdit(ctx, b.ID))

	state := f.snapshot(t)
	require.NotNil(t, state.Editing)
	require.Equal(t, b, *state.Editing)

	require.ErrorIs(t, f.vm.BeginEdit(ctx, "missing"), errors.ErrNotFound)
	require.Equal(t, b.ID, f.snapshot(t).Editing.ID)

	require.NoError(t, f.vm.CancelEdit(ctx))
	require.Nil(t, f.snapshot(t).Editing)
}

func TestViewModel_SubmitEdit(t *testing.T) {
	f := newViewModelFixture(t)
	ctx := context.Background()
	a := f.add(t, "Dune", "Herbert")
	b := f.add(t, "Emma", "Austen")
	f.snapshot(t)

	require.NoError(t, f.vm.BeginEdit(ctx, a.ID))
	require.NoError(t, f.vm.SubmitEdit(ctx, library.Draft{Title: "Dune", Author: "Frank Herbert", Year: utils.Ptr(1965)}))

	state := f.snapshot(t)
	require.Nil(t, state.Editing)
	require.Len(t, state.Books, 2)
	require.Equal(t, "Frank Herbert", state.Books[0].Author)
	require.Equal(t, 1965, utils.Value(state.Books[0].Year))
	require.Equal(t, b, state.Books[1])
	require.Equal(t, []library.Notice{{Kind: library.NoticeSuccess, Message: library.MsgUpdated}}, state.Notices)
}

func TestViewModel_SubmitEdit_WithoutSelection(t *testing.T) {
	f := newViewModelFixture(t)
	f.add(t, "Dune", "Herbert")
	f.snapshot(t)
	updates := f.store.Calls(fakestore.OpUpdate)

	require.NoError(t, f.vm.SubmitEdit(context.Background(), library.Draft{Title: "X", Author: "Y"}))
	require.Equal(t, updates, f.store.Calls(fakestore.OpUpdate))
	require.Empty(t, f.snapshot(t).Notices)
}

func TestViewModel_SubmitEdit_FailureKeepsSelection(t *testing.T) {
	f := newViewModelFixture(t)
	ctx := context.Background()
	a := f.add(t, "Dune", "Herbert")
	before := f.snapshot(t).Books

	require.NoError(t, f.vm.BeginEdit(ctx, a.ID))
	f.store.Fail(fakestore.OpUpdate, errBoom)

	fields := library.Draft{Title: "Dune Messiah", Author: "Herbert"}
	err := f.vm.SubmitEdit(ctx, fields)
	require.ErrorIs(t, err, errors.ErrBackendUnavailable)

	state := f.snapshot(t)
	require.Equal(t, before, state.Books)
	require.NotNil(t, state.Editing)
	require.Equal(t, a.ID, state.Editing.ID)
	require.Equal(t, "Dune Messiah", state.Editing.Title)
	require.Equal(t, []library.Notice{{Kind: library.NoticeError, Message: library.MsgUpdateFailed}}, state.Notices)
}

func TestViewModel_DeleteRecord(t *testing.T) {
	f := newViewModelFixture(t)
	ctx := context.Background()
	a := f.add(t, "Dune", "Herbert")
	b := f.add(t, "Emma", "Austen")
	f.snapshot(t)

	t.Run("removes the record while another is under edit", func(t *testing.T) {
		require.NoError(t, f.vm.BeginEdit(ctx, b.ID))
		require.NoError(t, f.vm.DeleteRecord(ctx, a.ID))

		state := f.snapshot(t)
		require.Equal(t, []library.Book{b}, state.Books)
		require.NotNil(t, state.Editing)
		require.Equal(t, b.ID, state.Editing.ID)
		require.Equal(t, []library.Notice{{Kind: library.NoticeSuccess, Message: library.MsgDeleted}}, state.Notices)
	})

	t.Run("removing the record under edit clears the selection", func(t *testing.T) {
		require.NoError(t, f.vm.DeleteRecord(ctx, b.ID))

		state := f.snapshot(t)
		require.Empty(t, state.Books)
		require.Nil(t, state.Editing)
	})

	t.Run("failure still refreshes", func(t *testing.T) {
		c := f.add(t, "Ulysses", "Joyce")
		f.snapshot(t)
		queries := f.store.Calls(fakestore.OpQuery)
		f.store.Fail(fakestore.OpDelete, errBoom)
		defer f.store.Fail(fakestore.OpDelete, nil)

		err := f.vm.DeleteRecord(ctx, c.ID)
		require.ErrorIs(t, err, errors.ErrBackendUnavailable)
		require.Equal(t, queries+1, f.store.Calls(fakestore.OpQuery))

		state := f.snapshot(t)
		require.Equal(t, []library.Book{c}, state.Books)
		require.Equal(t, []library.Notice{{Kind: library.NoticeError, Message: library.MsgDeleteFailed}}, state.Notices)
	})
}

func TestViewModel_FailedReloadAfterMutationQueuesOneNotice(t *testing.T) {
	f := newViewModelFixture(t)
	ctx := context.Background()
	dune := f.add(t, "Dune", "Herbert")
	emma := f.add(t, "Emma", "Austen")
	f.snapshot(t)

	f.store.Fail(fakestore.OpQuery, errBoom)
	defer f.store.Fail(fakestore.OpQuery, nil)

	t.Run("add", func(t *testing.T) {
		require.NoError(t, f.vm.SubmitAdd(ctx, library.Draft{Title: "Ulysses", Author: "Joyce"}))
		state := f.snapshot(t)
		require.Equal(t, []library.Notice{library.SuccessNotice(library.MsgAdded)}, state.Notices)
		require.Equal(t, []library.Book{dune, emma}, state.Books)
	})

	t.Run("edit", func(t *testing.T) {
		require.NoError(t, f.vm.BeginEdit(ctx, dune.ID))
		require.NoError(t, f.vm.SubmitEdit(ctx, library.Draft{Title: "Dune Messiah", Author: "Herbert"}))
		require.Equal(t, []library.Notice{library.SuccessNotice(library.MsgUpdated)}, f.snapshot(t).Notices)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, f.vm.DeleteRecord(ctx, emma.ID))
		require.Equal(t, []library.Notice{library.SuccessNotice(library.MsgDeleted)}, f.snapshot(t).Notices)
	})

	t.Run("failed delete", func(t *testing.T) {
		f.store.Fail(fakestore.OpDelete, errBoom)
		defer f.store.Fail(fakestore.OpDelete, nil)

		require.ErrorIs(t, f.vm.DeleteRecord(ctx, dune.ID), errors.ErrBackendUnavailable)
		require.Equal(t, []library.Notice{library.ErrorNotice(library.MsgDeleteFailed)}, f.snapshot(t).Notices)
	})

	t.Run("explicit refresh still reports", func(t *testing.T) {
		require.Error(t, f.vm.Refresh(ctx))
		require.Equal(t, []library.Notice{library.ErrorNotice(library.MsgLoadFailed)}, f.snapshot(t).Notices)
	})
}

func TestViewModel_OtherOwnersRecordsStayHidden(t *testing.T) {
	f := newViewModelFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.Add(ctx, u2, library.Draft{Title: "Emma", Author: "Austen"}))
	theirs, err := f.repo.ListMine(ctx, u2)
	require.NoError(t, err)

	require.NoError(t, f.vm.Refresh(ctx))
	require.Empty(t, f.snapshot(t).Books)

	require.ErrorIs(t, f.vm.BeginEdit(ctx, theirs[0].ID), errors.ErrNotFound)
	require.ErrorIs(t, f.vm.DeleteRecord(ctx, theirs[0].ID), errors.ErrNotFound)

	stillTheirs, err := f.repo.ListMine(ctx, u2)
	require.NoError(t, err)
	require.Equal(t, theirs, stillTheirs)
}

func TestViewModel_RefreshFailure(t *testing.T) {
	f := newViewModelFixture(t)
	f.add(t, "Dune", "Herbert")
	f.snapshot(t)
	f.store.Fail(fakestore.OpQuery, errBoom)

	require.ErrorIs(t, f.vm.Refresh(context.Background()), errors.ErrBackendUnavailable)

	state := f.snapshot(t)
	require.Len(t, state.Books, 1)
	require.Equal(t, []library.Notice{{Kind: library.NoticeError, Message: library.MsgLoadFailed}}, state.Notices)
}

func TestViewModel_SessionEnded(t *testing.T) {
	f := newViewModelFixture(t)
	ctx := context.Background()
	a := f.add(t, "Dune", "Herbert")
	require.NoError(t, f.vm.BeginEdit(ctx, a.ID))

	require.NoError(t, f.vm.SessionChanged(ctx, nil))

	state := f.snapshot(t)
	require.Empty(t, state.Books)
	require.Nil(t, state.Editing)
	require.Empty(t, state.Notices)

	inserts := f.store.Calls(fakestore.OpInsert)
	require.ErrorIs(t, f.vm.SubmitAdd(ctx, library.Draft{Title: "Emma", Author: "Austen"}), errors.ErrSessionNotFound)
	require.Equal(t, inserts, f.store.Calls(fakestore.OpInsert))
}

func TestViewModel_WaitHonoursContext(t *testing.T) {
	f := newViewModelFixture(t)
	f.add(t, "Dune", "Herbert")

	blocked := make(chan struct{})
	release := make(chan struct{})
	records := &blockingRecords{Records: f.repo, entered: blocked, release: release}
	vm := library.NewViewModel(records)
	go func() { _ = vm.SessionChanged(context.Background(), &u1) }()
	<-blocked

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := vm.Snapshot(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.Eventually(t, func() bool {
		state, err := vm.Snapshot(context.Background())
		return err == nil && len(state.Books) == 1
	}, time.Second, 5*time.Millisecond)
}

// blockingRecords holds the first ListMine until release is closed.
type blockingRecords struct {
	library.Records
	entered chan struct{}
	release chan struct{}
}

func (b *blockingRecords) ListMine(ctx context.Context, session sessions.Session) ([]library.Book, error) {
	select {
	case <-b.entered:
	default:
		close(b.entered)
	}
	<-b.release
	return b.Records.ListMine(ctx, session)
}

func TestViewModel_SetDraftAndSetEdit(t *testing.T) {
	f := newViewModelFixture(t)
	ctx := context.Background()
	a := f.add(t, "Dune", "Herbert")

	draft := library.Draft{Title: "Emma"}
	require.NoError(t, f.vm.SetDraft(ctx, draft))
	require.NoError(t, f.vm.SetEdit(ctx, library.Draft{Title: "ignored", Author: "ignored"}))

	state := f.snapshot(t)
	require.Equal(t, draft, state.Draft)
	require.Nil(t, state.Editing)

	require.NoError(t, f.vm.BeginEdit(ctx, a.ID))
	require.NoError(t, f.vm.SetEdit(ctx, library.Draft{Title: "Dune Messiah", Author: "Herbert"}))

	state = f.snapshot(t)
	require.Equal(t, "Dune Messiah", state.Editing.Title)
	require.Equal(t, "Dune", state.Books[0].Title)
}
