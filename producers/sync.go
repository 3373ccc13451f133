package producers

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xrpscan/tezsync/accounts"
	"github.com/xrpscan/tezsync/logger"
	"github.com/xrpscan/tezsync/models"
	"github.com/xrpscan/tezsync/operations"
)

// ShapeBuilder builds the account shape of one sync
type ShapeBuilder interface {
	GetAccountShape(ctx context.Context, info accounts.SyncInfo) (*models.AccountShape, error)
}

// SyncEvent describes an adopted sync result
type SyncEvent struct {
	SyncID   string
	Account  *models.Account
	Previous *models.Account
	// AddedOperations are the operations that are new or changed since Previous
	AddedOperations []models.Operation
	// SubAccountsChanged is false when the token accounts are the previous ones
	SubAccountsChanged bool
}

// ShapeSink receives every adopted sync result
type ShapeSink interface {
	Name() string
	Publish(ctx context.Context, event SyncEvent) error
}

// Syncer keeps the last adopted state of every tracked address and
// synchronizes them against the indexer.
type Syncer struct {
	builder ShapeBuilder
	sinks   []ShapeSink

	mu       sync.RWMutex
	accounts map[string]*models.Account
	locks    map[string]*sync.Mutex
}

func NewSyncer(builder ShapeBuilder, sinks ...ShapeSink) *Syncer {
	return &Syncer{
		builder:  builder,
		sinks:    sinks,
		accounts: make(map[string]*models.Account),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Track registers address for the sync loop. Tracking an address twice
// is a no-op.
func (s *Syncer) Track(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[address]; !ok {
		s.accounts[address] = models.NewAccount(address)
		s.locks[address] = &sync.Mutex{}
	}
}

// Account returns the last adopted state of address
func (s *Syncer) Account(address string) (*models.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[address]
	return account, ok
}

// Addresses returns the tracked addresses, sorted
func (s *Syncer) Addresses() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	addresses := make([]string, 0, len(s.accounts))
	for address := range s.accounts {
		addresses = append(addresses, address)
	}
	sort.Strings(addresses)
	return addresses
}

// SyncAccount synchronizes address, tracking it first if needed, and
// adopts the result. When the sync fails the previous state is kept.
func (s *Syncer) SyncAccount(ctx context.Context, address string) (*models.Account, error) {
	s.Track(address)

	s.mu.RLock()
	lock := s.locks[address]
	s.mu.RUnlock()

	// One sync at a time per address so results are adopted in order
	lock.Lock()
	defer lock.Unlock()

	previous, _ := s.Account(address)
	syncID := uuid.NewString()
	startTime := time.Now()

	shape, err := s.builder.GetAccountShape(ctx, accounts.SyncInfo{
		Address:        address,
		InitialAccount: previous,
	})
	if err != nil {
		event := logger.Log.Error()
		if ctx.Err() != nil {
			event = logger.Log.Warn()
		}
		event.Err(err).
			Str("sync_id", syncID).
			Str("address", address).
			Bool("unsupported_account", errors.Is(err, accounts.ErrUnsupportedAccountType)).
			Dur("duration", time.Since(startTime)).
			Msg("Account sync failed, keeping previous state")
		return nil, err
	}

	next := previous.ApplyShape(shape)

	s.mu.Lock()
	s.accounts[address] = next
	s.mu.Unlock()

	event := SyncEvent{
		SyncID:             syncID,
		Account:            next,
		Previous:           previous,
		AddedOperations:    AddedOperations(previous.Operations, next.Operations),
		SubAccountsChanged: !sameSubAccounts(previous.SubAccounts, next.SubAccounts),
	}

	logger.Log.Info().
		Str("sync_id", syncID).
		Str("address", address).
		Int64("block_height", next.BlockHeight).
		Int("operations", next.OperationsCount).
		Int("added_operations", len(event.AddedOperations)).
		Bool("sub_accounts_changed", event.SubAccountsChanged).
		Bool("truncated", shape.Truncated).
		Dur("duration", time.Since(startTime)).
		Msg("Account synchronized")

	s.publish(ctx, event)
	return next, nil
}

// SyncAll synchronizes every tracked address one after the other
func (s *Syncer) SyncAll(ctx context.Context) {
	for _, address := range s.Addresses() {
		if ctx.Err() != nil {
			return
		}
		// Failures are logged by SyncAccount; other addresses still sync
		_, _ = s.SyncAccount(ctx, address)
	}
}

// RunSyncLoop syncs all tracked addresses immediately and then on every
// interval tick until ctx is done.
func (s *Syncer) RunSyncLoop(ctx context.Context, interval time.Duration) {
	logger.Log.Info().
		Strs("addresses", s.Addresses()).
		Dur("interval", interval).
		Msg("Starting account sync loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.SyncAll(ctx)
		select {
		case <-ctx.Done():
			logger.Log.Info().Msg("Account sync loop stopped")
			return
		case <-ticker.C:
		}
	}
}

func (s *Syncer) publish(ctx context.Context, event SyncEvent) {
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			logger.Log.Error().
				Err(err).
				Str("sync_id", event.SyncID).
				Str("address", event.Account.Address).
				Str("sink", sink.Name()).
				Msg("Failed to publish sync result")
		}
	}
}

// AddedOperations returns the operations of next that are absent from
// previous or differ from their previous version
func AddedOperations(previous, next []models.Operation) []models.Operation {
	known := make(map[string]models.Operation, len(previous))
	for _, op := range previous {
		known[op.ID] = op
	}
	var added []models.Operation
	for _, op := range next {
		if prev, ok := known[op.ID]; ok && operations.SameOp(prev, op) {
			continue
		}
		added = append(added, op)
	}
	return added
}

func sameSubAccounts(a, b []*models.TokenAccount) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}
