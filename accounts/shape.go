package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xrpscan/tezsync/indexer"
	"github.com/xrpscan/tezsync/logger"
	"github.com/xrpscan/tezsync/models"
	"github.com/xrpscan/tezsync/operations"
	"golang.org/x/sync/errgroup"
)

// ErrUnsupportedAccountType is returned when the indexer reports an account
// type the classifier does not model. It is not recoverable by retrying.
var ErrUnsupportedAccountType = errors.New("unsupported account type")

// IndexerAPI is the subset of the indexer used to build an account shape
type IndexerAPI interface {
	indexer.OperationsFetcher
	GetAccountByAddress(ctx context.Context, address string) (models.RawAccount, error)
	GetBlockCount(ctx context.Context) (int64, error)
	indexer.TokenBalancesFetcher
}

// SyncInfo describes the account being synchronized
type SyncInfo struct {
	Address string
	// InitialAccount is the state adopted after the previous sync, nil on
	// the first sync. It is only read.
	InitialAccount *models.Account
}

// Builder builds account shapes from the indexer
type Builder struct {
	api         IndexerAPI
	incremental bool
	now         func() time.Time
}

type Option func(*Builder)

// WithIncremental makes the builder resume paging after the most recent
// known operation instead of fetching the whole history again.
func WithIncremental(incremental bool) Option {
	return func(b *Builder) {
		b.incremental = incremental
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

func NewBuilder(api IndexerAPI, opts ...Option) *Builder {
	b := &Builder{
		api: api,
		now: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// GetAccountShape synchronizes one account. On error nothing is returned
// and the caller keeps its previous state.
func (b *Builder) GetAccountShape(ctx context.Context, info SyncInfo) (*models.AccountShape, error) {
	address := info.Address
	accountID := models.EncodeAccountID(address)

	var stableOps []models.Operation
	var previousTokens []*models.TokenAccount
	var knownCursor int64
	if info.InitialAccount != nil {
		accountID = info.InitialAccount.ID
		stableOps = info.InitialAccount.Operations
		previousTokens = info.InitialAccount.SubAccounts
		knownCursor = max(info.InitialAccount.LastIndexerID, LastIndexerID(stableOps))
	}

	var (
		apiAccount  models.RawAccount
		blockHeight int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		apiAccount, err = b.api.GetAccountByAddress(gctx, address)
		if err != nil {
			return fmt.Errorf("failed to fetch account %s: %w", address, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		blockHeight, err = b.api.GetBlockCount(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch block count: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if apiAccount.Type == models.AccountTypeEmpty {
		logger.Log.Debug().Str("address", address).Int64("block_height", blockHeight).Msg("Account is empty")
		return &models.AccountShape{
			Empty:        true,
			BlockHeight:  blockHeight,
			LastSyncDate: b.now(),
		}, nil
	}
	if apiAccount.Type != models.AccountTypeUser {
		return nil, fmt.Errorf("%w %q for %s", ErrUnsupportedAccountType, apiAccount.Type, address)
	}

	// knownCursor also covers operations the classifier discarded
	var lastID int64
	if b.incremental {
		lastID = knownCursor
	}

	txPage, err := indexer.FetchAllTransactions(ctx, b.api, address, lastID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch operations of %s: %w", address, err)
	}
	txs := txPage.Items

	newOps := operations.TxsToOps(address, accountID, txs)
	ops := operations.MergeOps(stableOps, newOps)

	balancePage, err := indexer.FetchAllTokenBalances(ctx, b.api, address)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token balances of %s: %w", address, err)
	}
	reconciled := ReconcileSubAccounts(DeriveTokenAccounts(accountID, balancePage.Items), previousTokens)
	truncated := txPage.Truncated || balancePage.Truncated
	for _, change := range reconciled.Changes {
		logger.Log.Debug().Str("address", address).Str("change", change).Msg("Token account changed")
	}

	logger.Log.Info().
		Str("address", address).
		Int64("block_height", blockHeight).
		Int64("last_id", lastID).
		Int64("cursor", txPage.Cursor).
		Bool("truncated", truncated).
		Int("fetched", len(txs)).
		Int("classified", len(newOps)).
		Int("operations", len(ops)).
		Int("token_accounts", len(reconciled.SubAccounts)).
		Bool("token_accounts_changed", reconciled.Changed()).
		Msg("Account shape built")

	return &models.AccountShape{
		Operations:       ops,
		OperationsCount:  len(ops),
		Balance:          apiAccount.Balance,
		SpendableBalance: apiAccount.Balance,
		SubAccounts:      reconciled.SubAccounts,
		BlockHeight:      blockHeight,
		LastSyncDate:     b.now(),
		XPub:             apiAccount.PublicKey,
		TezosResources: &models.TezosResources{
			Revealed: apiAccount.Revealed,
			Counter:  apiAccount.Counter,
		},
		LastIndexerID: max(txPage.Cursor, knownCursor),
		Truncated:     truncated,
	}, nil
}

// LastIndexerID returns the highest indexer id among ops, 0 if none
func LastIndexerID(ops []models.Operation) int64 {
	var last int64
	for _, op := range ops {
		if op.Extra.IndexerID > last {
			last = op.Extra.IndexerID
		}
	}
	return last
}
