package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locallibrary/locallibrary-server/internal/domain"
)

func TestAvailableCopies(t *testing.T) {
	b1 := &domain.Book{}
	b1.ID = "b1"
	b2 := &domain.Book{}
	b2.ID = "b2"

	copies := []*domain.BookInstance{
		{BookID: "b1"},
		{BookID: "b1", BorrowerID: "u1"},
		{BookID: "b1"},
		{BookID: "b2", BorrowerID: "u2"},
		{BookID: "b3"},
	}

	got := AvailableCopies([]*domain.Book{b1, b2}, copies)
	assert.Equal(t, map[string]string{"b1": "2"}, got)
}

func TestAvailableCopies_Empty(t *testing.T) {
	assert.Empty(t, AvailableCopies(nil, nil))
	assert.Empty(t, FormatAvailability(map[string]int{"b1": 0}))
}

func TestAvailability_StoreAgreesWithReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reader := f.user("reader", "pw")

	dune := f.book("Dune", nil)
	emma := f.book("Emma", nil)
	odes := f.book("Odes", nil)
	f.copyOf(dune, domain.StatusAvailable, "", "")
	f.copyOf(dune, domain.StatusMaintenance, "", "")
	f.copyOf(dune, domain.StatusOnLoan, reader.ID, "2030-01-01")
	f.copyOf(emma, domain.StatusOnLoan, reader.ID, "2030-01-01")
	f.copyOf(odes, domain.StatusReserved, "", "")

	books, err := f.store.ListAllBooks(ctx)
	require.NoError(t, err)
	copies, err := f.store.ListAllInstances(ctx)
	require.NoError(t, err)
	reference := AvailableCopies(books, copies)

	list, err := NewCatalogService(f.store, testLogger).ListBooks(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, reference, list.Available)
	assert.Equal(t, map[string]string{dune.ID: "2", odes.ID: "1"}, list.Available)
}
