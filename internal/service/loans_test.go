package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locallibrary/locallibrary-server/internal/domain"
	domainerrors "github.com/locallibrary/locallibrary-server/internal/errors"
)

func TestDefaultRenewalDate(t *testing.T) {
	now := time.Date(2024, 2, 20, 17, 45, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), DefaultRenewalDate(now))
}

func TestRenewCopy_PastDateAccepted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewLoanService(f.store, f.v, testLogger)

	reader := f.user("reader", "pw")
	bi := f.copyOf(f.book("Beloved", nil), domain.StatusOnLoan, reader.ID, "2024-05-01")

	due, err := svc.ParseRenewal(RenewForm{RenewalDate: "2001-01-01"})
	require.NoError(t, err)

	renewed, err := svc.RenewCopy(ctx, bi.ID, due)
	require.NoError(t, err)
	assert.Equal(t, "2001-01-01", domain.FormatDate(renewed.DueBack))

	stored, err := svc.GetCopy(ctx, bi.ID)
	require.NoError(t, err)
	assert.Equal(t, "2001-01-01", domain.FormatDate(stored.DueBack))
	assert.Equal(t, domain.StatusOnLoan, stored.Status)
	assert.Equal(t, reader.ID, stored.BorrowerID)
}

func TestParseRenewal_Invalid(t *testing.T) {
	svc := NewLoanService(nil, newFixture(t).v, testLogger)

	for _, in := range []string{"", "tomorrow", "2024-13-01"} {
		_, err := svc.ParseRenewal(RenewForm{RenewalDate: in})
		require.Error(t, err, in)
		assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
		assert.Contains(t, domainerrors.FieldErrorsOf(err), "renewal_date")
	}
}

func TestRenewCopy_Missing(t *testing.T) {
	f := newFixture(t)
	svc := NewLoanService(f.store, f.v, testLogger)

	_, err := svc.RenewCopy(context.Background(), "00000000-0000-0000-0000-000000000000", time.Now())
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestMyBooksAndAllBorrowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewLoanService(f.store, f.v, testLogger)

	alice := f.user("alice", "pw")
	bob := f.user("bob", "pw")
	b := f.book("Beloved", nil)
	f.copyOf(b, domain.StatusOnLoan, alice.ID, "2024-03-01")
	f.copyOf(b, domain.StatusOnLoan, alice.ID, "2024-01-01")
	f.copyOf(b, domain.StatusOnLoan, bob.ID, "2024-02-01")
	f.copyOf(b, domain.StatusAvailable, "", "")

	mine, err := svc.MyBooks(ctx, alice, 1)
	require.NoError(t, err)
	require.Len(t, mine.Items, 2)
	assert.Equal(t, "2024-01-01", domain.FormatDate(mine.Items[0].DueBack))

	all, err := svc.AllBorrowed(ctx, 1)
	require.NoError(t, err)
	require.Len(t, all.Items, 3)
	assert.Equal(t, "2024-01-01", domain.FormatDate(all.Items[0].DueBack))
	assert.Equal(t, "2024-02-01", domain.FormatDate(all.Items[1].DueBack))

	_, err = svc.AllBorrowed(ctx, 2)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound, "page past the end")
}
