package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xrpscan/tezsync/models"
)

// pagedFetcher serves pages of 2 operations with increasing ids
type pagedFetcher struct {
	total   int // 0 means endless
	noIDAt  int64
	failAt  int
	calls   int
	cursors []int64
}

func (f *pagedFetcher) GetAccountOperations(_ context.Context, _ string, lastID int64) ([]models.RawOperation, error) {
	f.calls++
	f.cursors = append(f.cursors, lastID)
	if f.failAt != 0 && f.calls == f.failAt {
		return nil, errors.New("indexer unavailable")
	}

	var page []models.RawOperation
	for id := lastID + 1; id <= lastID+2; id++ {
		if f.total != 0 && id > int64(f.total) {
			break
		}
		tx := models.RawOperation{ID: id, Type: models.RawTransaction}
		if id == f.noIDAt {
			tx.ID = 0
		}
		page = append(page, tx)
	}
	return page, nil
}

func TestFetchAllTransactionsUntilEmptyPage(t *testing.T) {
	f := &pagedFetcher{total: 5}
	page, err := FetchAllTransactions(context.Background(), f, "tz1", 0)
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.False(t, page.Truncated)
	assert.Equal(t, int64(5), page.Cursor)
	assert.Equal(t, 4, f.calls, "three pages with data plus the empty one")
	assert.Equal(t, []int64{0, 2, 4, 5}, f.cursors)
}

func TestFetchAllTransactionsResumesAfterCursor(t *testing.T) {
	f := &pagedFetcher{total: 6}
	page, err := FetchAllTransactions(context.Background(), f, "tz1", 4)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(5), page.Items[0].ID)
	assert.Equal(t, int64(4), f.cursors[0])
	assert.Equal(t, int64(6), page.Cursor)
}

func TestFetchAllTransactionsPageBound(t *testing.T) {
	f := &pagedFetcher{}
	page, err := FetchAllTransactions(context.Background(), f, "tz1", 0)
	require.NoError(t, err)
	assert.Equal(t, MaxPages, f.calls)
	assert.Len(t, page.Items, 2*MaxPages)
	assert.True(t, page.Truncated)
	assert.Equal(t, int64(2*MaxPages), page.Cursor, "resuming continues after the last fetched operation")
}

func TestFetchAllTransactionsMissingCursor(t *testing.T) {
	f := &pagedFetcher{noIDAt: 4}
	page, err := FetchAllTransactions(context.Background(), f, "tz1", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, f.calls)
	assert.Len(t, page.Items, 4)
	assert.True(t, page.MissingCursor)
	assert.Equal(t, int64(2), page.Cursor)
}

func TestFetchAllTransactionsTransportError(t *testing.T) {
	f := &pagedFetcher{failAt: 3}
	page, err := FetchAllTransactions(context.Background(), f, "tz1", 0)
	assert.Error(t, err)
	assert.Nil(t, page.Items)
	assert.Equal(t, 3, f.calls, "no retry on failure")
}

func TestPaginateReportsTruncation(t *testing.T) {
	calls := 0
	fetch := func(_ context.Context, cursor int) ([]int, error) {
		calls++
		return []int{cursor + 1}, nil
	}
	cursorOf := func(item int) (int, bool) { return item, true }

	page, err := Paginate(context.Background(), 3, 0, fetch, cursorOf)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, page.Items)
	assert.Equal(t, 3, page.Pages)
	assert.True(t, page.Truncated)
	assert.False(t, page.MissingCursor)
	assert.Equal(t, 3, calls)
}

func TestPaginateStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetch := func(_ context.Context, cursor int) ([]int, error) {
		t.Fatal("fetch must not be called")
		return nil, nil
	}
	_, err := Paginate(ctx, 3, 0, fetch, func(item int) (int, bool) { return item, true })
	assert.ErrorIs(t, err, context.Canceled)
}

// balanceFetcher serves token balances three per page
type balanceFetcher struct {
	total   int64
	cursors []int64
}

func (f *balanceFetcher) GetTokenBalances(_ context.Context, _ string, lastID int64) ([]models.RawTokenBalance, error) {
	f.cursors = append(f.cursors, lastID)
	var page []models.RawTokenBalance
	for id := lastID + 1; id <= lastID+3 && id <= f.total; id++ {
		page = append(page, models.RawTokenBalance{ID: id})
	}
	return page, nil
}

func TestFetchAllTokenBalancesFollowsCursor(t *testing.T) {
	f := &balanceFetcher{total: 7}
	page, err := FetchAllTokenBalances(context.Background(), f, "tz1")
	require.NoError(t, err)
	assert.Len(t, page.Items, 7)
	assert.False(t, page.Truncated)
	assert.Equal(t, []int64{0, 3, 6, 7}, f.cursors)
}

func TestFetchAllTokenBalancesPageBound(t *testing.T) {
	f := &balanceFetcher{total: 1000}
	page, err := FetchAllTokenBalances(context.Background(), f, "tz1")
	require.NoError(t, err)
	assert.Len(t, page.Items, 3*MaxPages)
	assert.True(t, page.Truncated)
}
