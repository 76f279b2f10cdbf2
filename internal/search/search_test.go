package search

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locallibrary/locallibrary-server/internal/domain"
)

// setupTestIndex creates a temporary search index for testing.
func setupTestIndex(t *testing.T) *Index {
	t.Helper()

	index, err := Open(Options{Path: filepath.Join(t.TempDir(), "search.bleve")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func book(id, title string) *domain.Book {
	b := &domain.Book{Title: title}
	b.ID = id
	return b
}

func author(id, first, last string) *domain.Author {
	a := &domain.Author{FirstName: first, LastName: last}
	a.ID = id
	return a
}

func seed(t *testing.T, index *Index) {
	t.Helper()
	require.NoError(t, index.Reindex(
		[]*domain.Book{
			book("book-1", "The Hobbit"),
			book("book-2", "Tolkien: A Biography"),
			book("book-3", "100% Pure"),
		},
		[]*domain.Author{
			author("author-1", "John Ronald Reuel", "Tolkien"),
			author("author-2", "Christopher", "Tolkien"),
			author("author-3", "Tolkien", "Fan"),
			author("author-4", "Émile", "Zola"),
			author("author-5", "Jane", "Austen"),
		},
	))
}

func TestOpen_Empty(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestMatchAuthorIDs(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)
	ctx := context.Background()

	ids, err := index.MatchAuthorIDs(ctx, "tolkien")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"author-1", "author-2", "author-3"}, ids)

	ids, err = index.MatchAuthorIDs(ctx, "ÉMILE")
	require.NoError(t, err)
	assert.Equal(t, []string{"author-4"}, ids)

	ids, err = index.MatchAuthorIDs(ctx, "ust")
	require.NoError(t, err)
	assert.Equal(t, []string{"author-5"}, ids, "substring in the middle of a name")
}

func TestMatchBookIDs(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)
	ctx := context.Background()

	ids, err := index.MatchBookIDs(ctx, "TOLKIEN")
	require.NoError(t, err)
	assert.Equal(t, []string{"book-2"}, ids, "authors must not leak into book results")

	ids, err = index.MatchBookIDs(ctx, "0% p")
	require.NoError(t, err)
	assert.Equal(t, []string{"book-3"}, ids)

	ids, err = index.MatchBookIDs(ctx, "hobbit (")
	require.NoError(t, err)
	assert.Empty(t, ids, "regexp metacharacters match literally")
}

func TestMatch_UnsearchableTerms(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	assert.False(t, Searchable(""))
	assert.False(t, Searchable("hob*"))
	assert.False(t, Searchable("h?bbit"))
	assert.True(t, Searchable("hobbit"))

	ids, err := index.MatchBookIDs(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, ids)
}

func TestIndexAndDelete(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.IndexBook(ctx, book("book-9", "Dracula")))
	ids, err := index.MatchBookIDs(ctx, "drac")
	require.NoError(t, err)
	assert.Equal(t, []string{"book-9"}, ids)

	require.NoError(t, index.IndexBook(ctx, book("book-9", "Carmilla")))
	ids, err = index.MatchBookIDs(ctx, "drac")
	require.NoError(t, err)
	assert.Empty(t, ids, "reindexing replaces the old title")

	require.NoError(t, index.DeleteBook(ctx, "book-9"))
	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)

	require.NoError(t, index.IndexAuthor(ctx, author("author-9", "Bram", "Stoker")))
	require.NoError(t, index.DeleteAuthor(ctx, "author-9"))
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestIndexDocuments_ManyBatches(t *testing.T) {
	index := setupTestIndex(t)

	docs := make([]*Document, 0, 1200)
	for i := range 1200 {
		docs = append(docs, &Document{ID: "book-" + strconv.Itoa(i), Type: DocTypeBook, Title: "Volume"})
	}
	require.NoError(t, index.IndexDocuments(docs))

	ids, err := index.MatchBookIDs(context.Background(), "volume")
	require.NoError(t, err)
	assert.Len(t, ids, 1200, "collect must page past the first request")
}

func TestOpen_ReopenKeepsDocuments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.bleve")

	index, err := Open(Options{Path: path})
	require.NoError(t, err)
	require.NoError(t, index.IndexBook(context.Background(), book("book-1", "Emma")))
	require.NoError(t, index.Close())

	index, err = Open(Options{Path: path})
	require.NoError(t, err)
	defer index.Close()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestOpen_StaleVersionRebuilds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.bleve")

	index, err := Open(Options{Path: path})
	require.NoError(t, err)
	require.NoError(t, index.IndexBook(context.Background(), book("book-1", "Emma")))
	require.NoError(t, index.Close())

	require.NoError(t, os.WriteFile(path+".version", []byte("0"), 0o644))

	index, err = Open(Options{Path: path})
	require.NoError(t, err)
	defer index.Close()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}
