package indexer

import (
	"context"

	"github.com/xrpscan/tezsync/logger"
	"github.com/xrpscan/tezsync/models"
)

// MaxPages bounds how many pages a single account sync requests from the
// indexer. A history longer than MaxPages pages is returned truncated.
const MaxPages = 20

// OperationsFetcher returns one page of operations of address, in ascending
// id order, starting after lastID (0 means from the beginning).
type OperationsFetcher interface {
	GetAccountOperations(ctx context.Context, address string, lastID int64) ([]models.RawOperation, error)
}

// TokenBalancesFetcher returns one page of token balances of address, in
// ascending id order, starting after lastID.
type TokenBalancesFetcher interface {
	GetTokenBalances(ctx context.Context, address string, lastID int64) ([]models.RawTokenBalance, error)
}

// Page is the result of a paginated fetch
type Page[T any, C comparable] struct {
	Items []T
	// Pages is the number of requests that were issued
	Pages int
	// Truncated is set when paging stopped before the source was exhausted,
	// either on the page bound or on a missing cursor
	Truncated bool
	// MissingCursor is set when the last received item had no cursor
	MissingCursor bool
	// Cursor is the cursor the next request would have used: the cursor of
	// the last item of the last complete page, or the start cursor.
	Cursor C
}

// Paginate drives fetch until it returns an empty page, an item without a
// cursor, or maxPages pages were requested. fetch receives the cursor of
// the last item of the previous page. Errors from fetch are returned
// as is and the accumulated items are dropped.
func Paginate[T any, C comparable](
	ctx context.Context,
	maxPages int,
	start C,
	fetch func(ctx context.Context, cursor C) ([]T, error),
	cursorOf func(item T) (C, bool),
) (Page[T, C], error) {
	page := Page[T, C]{Cursor: start}

	for page.Pages < maxPages {
		if err := ctx.Err(); err != nil {
			return Page[T, C]{}, err
		}

		items, err := fetch(ctx, page.Cursor)
		page.Pages++
		if err != nil {
			return Page[T, C]{}, err
		}
		if len(items) == 0 {
			return page, nil
		}
		page.Items = append(page.Items, items...)

		next, ok := cursorOf(items[len(items)-1])
		if !ok {
			page.Truncated = true
			page.MissingCursor = true
			return page, nil
		}
		page.Cursor = next
	}

	page.Truncated = true
	return page, nil
}

// FetchAllTransactions accumulates the operations of address, starting
// after lastID, under the MaxPages bound. The returned page carries the id
// of the last fetched operation, whether or not it is later classified.
func FetchAllTransactions(ctx context.Context, api OperationsFetcher, address string, lastID int64) (Page[models.RawOperation, int64], error) {
	page, err := Paginate(ctx, MaxPages, lastID,
		func(ctx context.Context, cursor int64) ([]models.RawOperation, error) {
			return api.GetAccountOperations(ctx, address, cursor)
		},
		func(tx models.RawOperation) (int64, bool) {
			return tx.ID, tx.ID != 0
		},
	)
	if err != nil {
		return page, err
	}

	logTruncation(address, "operations", page.Pages, len(page.Items), page.Truncated, page.MissingCursor)
	logger.Log.Debug().
		Str("address", address).
		Int("pages", page.Pages).
		Int("operations", len(page.Items)).
		Int64("cursor", page.Cursor).
		Msg("Fetched account operations")

	return page, nil
}

// FetchAllTokenBalances accumulates the token balances of address under
// the MaxPages bound
func FetchAllTokenBalances(ctx context.Context, api TokenBalancesFetcher, address string) (Page[models.RawTokenBalance, int64], error) {
	page, err := Paginate(ctx, MaxPages, int64(0),
		func(ctx context.Context, cursor int64) ([]models.RawTokenBalance, error) {
			return api.GetTokenBalances(ctx, address, cursor)
		},
		func(balance models.RawTokenBalance) (int64, bool) {
			return balance.ID, balance.ID != 0
		},
	)
	if err != nil {
		return page, err
	}

	logTruncation(address, "token balances", page.Pages, len(page.Items), page.Truncated, page.MissingCursor)
	return page, nil
}

func logTruncation(address, what string, pages, items int, truncated, missingCursor bool) {
	if !truncated {
		return
	}
	event := logger.Log.Warn().
		Str("address", address).
		Str("resource", what).
		Int("pages", pages).
		Int("items", items)
	if missingCursor {
		event.Msg("Indexer returned an item without id, stopping pagination")
	} else {
		event.Msg("History truncated at page limit")
	}
}
