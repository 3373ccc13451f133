package connections

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/xrpscan/tezsync/logger"
)

// Operations are versioned by sync time so FINAL keeps the latest copy
// of an operation that changed between syncs.
var schemaStatements = []string{
	`CREATE DATABASE IF NOT EXISTS tezos`,
	`CREATE TABLE IF NOT EXISTS tezos.operations (
		sync_id String,
		account_id String,
		address String,
		operation_id String,
		hash String,
		type Enum8('IN' = 1, 'OUT' = 2, 'FEES' = 3, 'DELEGATE' = 4, 'UNDELEGATE' = 5, 'REVEAL' = 6, 'CREATE' = 7),
		value Decimal(38, 0),
		fee Decimal(38, 0),
		sender String,
		recipient String,
		block_height UInt64,
		block_hash String,
		date DateTime64(3, 'UTC'),
		has_failed Bool,
		indexer_id UInt64,
		version UInt64
	) ENGINE = ReplacingMergeTree(version)
	PARTITION BY toYYYYMM(date)
	ORDER BY (address, operation_id)`,
	`CREATE TABLE IF NOT EXISTS tezos.account_snapshots (
		sync_id String,
		account_id String,
		address String,
		balance Decimal(38, 0),
		spendable_balance Decimal(38, 0),
		operations_count UInt32,
		token_accounts UInt32,
		block_height UInt64,
		last_sync_date DateTime64(3, 'UTC')
	) ENGINE = MergeTree
	ORDER BY (address, last_sync_date)`,
}

// EnsureSchema creates the tables written by the batch writer
func EnsureSchema(ctx context.Context, conn driver.Conn) error {
	for _, stmt := range schemaStatements {
		if err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply ClickHouse schema: %w", err)
		}
	}
	logger.Log.Info().Int("statements", len(schemaStatements)).Msg("ClickHouse schema is up to date")
	return nil
}
