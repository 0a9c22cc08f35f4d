package docstore_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-book-library/docstore"
	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	doc := docstore.Document{"userId": "u1", "year": float64(1965)}

	require.True(t, docstore.Matches(doc))
	require.True(t, docstore.Matches(doc, docstore.WhereEquals("userId", "u1")))
	require.False(t, docstore.Matches(doc, docstore.WhereEquals("userId", "u2")))
	require.False(t, docstore.Matches(doc, docstore.WhereEquals("missing", "u1")))

	// Numbers compare by value whatever their Go type.
	require.True(t, docstore.Matches(doc, docstore.WhereEquals("year", 1965)))
	require.True(t, docstore.Matches(doc, docstore.WhereEquals("year", json.Number("1965"))))
	require.False(t, docstore.Matches(doc, docstore.WhereEquals("year", "1965")))
}

func TestClone(t *testing.T) {
	require.Nil(t, docstore.Document(nil).Clone())

	doc := docstore.Document{"title": "Dune"}
	c := doc.Clone()
	c["title"] = "Emma"
	require.Equal(t, "Dune", doc["title"])
}
