package connections

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/xrpscan/tezsync/config"
	"github.com/xrpscan/tezsync/logger"
)

var ClickHouseConn driver.Conn
var chOnce sync.Once
var ChBatchWriter *ClickHouseBatchWriter

// OperationRow is one synchronized operation as stored in tezos.operations
type OperationRow struct {
	SyncID      string
	AccountID   string
	Address     string
	OperationID string
	Hash        string
	Type        string
	Value       string
	Fee         string
	Sender      string
	Recipient   string
	BlockHeight uint64
	BlockHash   string
	Date        time.Time
	HasFailed   bool
	IndexerID   uint64
	Version     uint64
}

// AccountSnapshotRow is the state of an account after a sync
type AccountSnapshotRow struct {
	SyncID           string
	AccountID        string
	Address          string
	Balance          string
	SpendableBalance string
	OperationsCount  uint32
	TokenAccounts    uint32
	BlockHeight      uint64
	LastSyncDate     time.Time
}

// ClickHouseBatchWriter handles batched writes to ClickHouse
type ClickHouseBatchWriter struct {
	conn           driver.Conn
	batchSize      int
	batchTimeout   time.Duration
	operationBatch []OperationRow
	mu             sync.Mutex
	flushTicker    *time.Ticker
	stopChan       chan struct{}
	wg             sync.WaitGroup
}

// NewClickHouseConnection initializes ClickHouse connection
func NewClickHouseConnection() {
	chOnce.Do(func() {
		host := config.EnvClickHouseHost()
		port := config.EnvClickHousePort()
		database := config.EnvClickHouseDatabase()
		user := config.EnvClickHouseUser()
		password := config.EnvClickHousePassword()

		logger.Log.Info().
			Str("host", host).
			Int("port", port).
			Str("database", database).
			Str("user", user).
			Msg("Initializing ClickHouse connection")

		conn, err := clickhouse.Open(&clickhouse.Options{
			Addr: []string{fmt.Sprintf("%s:%d", host, port)},
			Auth: clickhouse.Auth{
				Database: database,
				Username: user,
				Password: password,
			},
			Settings: clickhouse.Settings{
				"max_execution_time": 60,
			},
			Compression: &clickhouse.Compression{
				Method: clickhouse.CompressionLZ4,
			},
		})

		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to connect to ClickHouse")
		}

		if err := conn.Ping(context.Background()); err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to ping ClickHouse")
		}

		if err := EnsureSchema(context.Background(), conn); err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to prepare ClickHouse schema")
		}

		ClickHouseConn = conn
		logger.Log.Info().Msg("ClickHouse connection initialized successfully")

		batchSize := config.EnvClickHouseBatchSize()
		batchTimeoutMs := config.EnvClickHouseBatchTimeoutMs()
		ChBatchWriter = NewClickHouseBatchWriter(conn, batchSize, time.Duration(batchTimeoutMs)*time.Millisecond)
		ChBatchWriter.Start()
	})
}

// NewClickHouseBatchWriter creates a new batch writer
func NewClickHouseBatchWriter(conn driver.Conn, batchSize int, batchTimeout time.Duration) *ClickHouseBatchWriter {
	return &ClickHouseBatchWriter{
		conn:           conn,
		batchSize:      batchSize,
		batchTimeout:   batchTimeout,
		operationBatch: make([]OperationRow, 0, batchSize),
		stopChan:       make(chan struct{}),
	}
}

// Start starts the batch writer with periodic flushing
func (w *ClickHouseBatchWriter) Start() {
	w.flushTicker = time.NewTicker(w.batchTimeout)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.flushTicker.C:
				if err := w.Flush(); err != nil {
					logger.Log.Warn().Err(err).Msg("Periodic ClickHouse flush failed")
				}
			case <-w.stopChan:
				return
			}
		}
	}()
}

// Stop stops the batch writer and flushes remaining data
func (w *ClickHouseBatchWriter) Stop() {
	close(w.stopChan)
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}
	w.wg.Wait()
	if err := w.Flush(); err != nil {
		logger.Log.Error().Err(err).Msg("Final ClickHouse flush failed")
	}
}

// WriteOperation adds an operation row to the batch
func (w *ClickHouseBatchWriter) WriteOperation(row OperationRow) error {
	w.mu.Lock()
	w.operationBatch = append(w.operationBatch, row)
	full := len(w.operationBatch) >= w.batchSize
	w.mu.Unlock()

	if full {
		logger.Log.Debug().Int("batch_size", w.batchSize).Msg("Batch is full, flushing to ClickHouse")
		return w.Flush()
	}
	return nil
}

// Pending returns the number of rows waiting for the next flush
func (w *ClickHouseBatchWriter) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.operationBatch)
}

// Flush sends the current batch to ClickHouse
func (w *ClickHouseBatchWriter) Flush() error {
	w.mu.Lock()
	if len(w.operationBatch) == 0 {
		w.mu.Unlock()
		return nil
	}
	batch := w.operationBatch
	w.operationBatch = make([]OperationRow, 0, w.batchSize)
	w.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	batchInsert, err := w.conn.PrepareBatch(ctx, "INSERT INTO tezos.operations")
	if err != nil {
		logger.Log.Error().Err(err).Int("batch_size", len(batch)).Msg("Failed to prepare batch insert")
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, row := range batch {
		// Decimal(38,0) columns accept the mutez amounts as strings
		err := batchInsert.Append(
			row.SyncID,
			row.AccountID,
			row.Address,
			row.OperationID,
			row.Hash,
			row.Type, // Enum8 - string value is accepted
			row.Value,
			row.Fee,
			row.Sender,
			row.Recipient,
			row.BlockHeight,
			row.BlockHash,
			row.Date.UTC(),
			row.HasFailed,
			row.IndexerID,
			row.Version,
		)
		if err != nil {
			logger.Log.Error().Err(err).Str("operation_id", row.OperationID).Msg("Failed to append row to batch")
			return fmt.Errorf("failed to append row: %w", err)
		}
	}

	if err := batchInsert.Send(); err != nil {
		logger.Log.Error().Err(err).Int("batch_size", len(batch)).Msg("Failed to send batch insert")
		return fmt.Errorf("failed to send batch: %w", err)
	}

	logger.Log.Info().Int("batch_size", len(batch)).Msg("Successfully flushed batch to ClickHouse")
	return nil
}

// WriteAccountSnapshot inserts the state of an account after a sync.
// Snapshots are written one per sync, so they skip the batch writer.
func WriteAccountSnapshot(ctx context.Context, row AccountSnapshotRow) error {
	if ClickHouseConn == nil {
		return fmt.Errorf("ClickHouse connection not initialized")
	}
	return ClickHouseConn.Exec(ctx, `
		INSERT INTO tezos.account_snapshots
			(sync_id, account_id, address, balance, spendable_balance, operations_count, token_accounts, block_height, last_sync_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.SyncID,
		row.AccountID,
		row.Address,
		row.Balance,
		row.SpendableBalance,
		row.OperationsCount,
		row.TokenAccounts,
		row.BlockHeight,
		row.LastSyncDate.UTC(),
	)
}

// FlushClickHouse flushes all pending batches
func FlushClickHouse() error {
	if ChBatchWriter == nil {
		return nil
	}
	if pending := ChBatchWriter.Pending(); pending > 0 {
		logger.Log.Info().Int("pending_rows", pending).Msg("Flushing pending ClickHouse batches")
	}
	return ChBatchWriter.Flush()
}

// CloseClickHouse closes ClickHouse connection
func CloseClickHouse() {
	if ChBatchWriter != nil {
		log.Println("Stopping ClickHouse batch writer...")
		ChBatchWriter.Stop()
		log.Println("ClickHouse batch writer stopped")
	}

	if ClickHouseConn != nil {
		log.Println("Closing ClickHouse connection...")
		if err := ClickHouseConn.Close(); err != nil {
			log.Printf("Error closing ClickHouse connection: %v", err)
		} else {
			log.Println("ClickHouse connection closed")
		}
	}
}
