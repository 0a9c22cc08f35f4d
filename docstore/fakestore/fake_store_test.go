package fakestore_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/jrsteele09/go-book-library/docstore"
	"github.com/jrsteele09/go-book-library/docstore/fakestore"
	"github.com/jrsteele09/go-book-library/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestFakeStore_Lifecycle(t *testing.T) {
	fs := fakestore.NewFakeStore()
	ctx := context.Background()

	id, err := fs.Insert(ctx, "books", docstore.Document{"title": "Dune", "userId": "u1"})
	require.NoError(t, err)
	_, err = fs.Insert(ctx, "books", docstore.Document{"title": "Emma", "userId": "u2"})
	require.NoError(t, err)

	snaps, err := fs.Query(ctx, "books", docstore.WhereEquals("userId", "u1"))
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	require.Equal(t, id, snaps[0].ID)

	// Snapshots are copies.
	snaps[0].Fields["title"] = "changed"
	snaps, _ = fs.Query(ctx, "books", docstore.WhereEquals("userId", "u1"))
	require.Equal(t, "Dune", snaps[0].Fields["title"])

	require.ErrorIs(t, fs.UpdateFields(ctx, "books", id, docstore.Document{"title": "x"}, docstore.WhereEquals("userId", "u2")), errors.ErrNotFound)
	require.NoError(t, fs.UpdateFields(ctx, "books", id, docstore.Document{"title": "Dune Messiah"}, docstore.WhereEquals("userId", "u1")))

	require.ErrorIs(t, fs.Delete(ctx, "books", id, docstore.WhereEquals("userId", "u2")), errors.ErrNotFound)
	require.NoError(t, fs.Delete(ctx, "books", id, docstore.WhereEquals("userId", "u1")))
	require.NoError(t, fs.Delete(ctx, "books", id))

	snaps, err = fs.Query(ctx, "books")
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	require.Equal(t, "Emma", snaps[0].Fields["title"])
}

func TestFakeStore_FailuresAndCalls(t *testing.T) {
	fs := fakestore.NewFakeStore()
	ctx := context.Background()
	boom := stderrors.New("boom")

	fs.Fail(fakestore.OpQuery, boom)
	_, err := fs.Query(ctx, "books")
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, fs.Calls(fakestore.OpQuery))

	fs.Fail(fakestore.OpQuery, nil)
	_, err = fs.Query(ctx, "books")
	require.NoError(t, err)
	require.Equal(t, 2, fs.Calls(fakestore.OpQuery))
	require.Equal(t, 0, fs.Calls(fakestore.OpInsert))
}
