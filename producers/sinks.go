package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/xrpscan/tezsync/connections"
	"github.com/xrpscan/tezsync/models"
	"github.com/xrpscan/tezsync/socketio"
)

// OperationWriter buffers operation rows for the warehouse
type OperationWriter interface {
	WriteOperation(row connections.OperationRow) error
}

type SnapshotWriter func(ctx context.Context, row connections.AccountSnapshotRow) error

// ClickHouseSink stores the added operations and an account snapshot of
// every sync
type ClickHouseSink struct {
	operations OperationWriter
	snapshots  SnapshotWriter
}

func NewClickHouseSink(operations OperationWriter, snapshots SnapshotWriter) *ClickHouseSink {
	return &ClickHouseSink{operations: operations, snapshots: snapshots}
}

func (s *ClickHouseSink) Name() string { return "clickhouse" }

func (s *ClickHouseSink) Publish(ctx context.Context, event SyncEvent) error {
	version := uint64(event.Account.LastSyncDate.UnixMilli())
	for _, op := range event.AddedOperations {
		if err := s.operations.WriteOperation(operationRow(event, op, version)); err != nil {
			return fmt.Errorf("failed to write operation %s: %w", op.ID, err)
		}
	}

	if s.snapshots == nil {
		return nil
	}
	account := event.Account
	return s.snapshots(ctx, connections.AccountSnapshotRow{
		SyncID:           event.SyncID,
		AccountID:        account.ID,
		Address:          account.Address,
		Balance:          account.Balance.String(),
		SpendableBalance: account.SpendableBalance.String(),
		OperationsCount:  uint32(account.OperationsCount),
		TokenAccounts:    uint32(len(account.SubAccounts)),
		BlockHeight:      uint64(account.BlockHeight),
		LastSyncDate:     account.LastSyncDate,
	})
}

func operationRow(event SyncEvent, op models.Operation, version uint64) connections.OperationRow {
	return connections.OperationRow{
		SyncID:      event.SyncID,
		AccountID:   op.AccountID,
		Address:     event.Account.Address,
		OperationID: op.ID,
		Hash:        op.Hash,
		Type:        string(op.Type),
		Value:       op.Value.String(),
		Fee:         op.Fee.String(),
		Sender:      firstOrEmpty(op.Senders),
		Recipient:   firstOrEmpty(op.Recipients),
		BlockHeight: uint64(op.BlockHeight),
		BlockHash:   op.BlockHash,
		Date:        op.Date,
		HasFailed:   op.HasFailed,
		IndexerID:   uint64(op.Extra.IndexerID),
		Version:     version,
	}
}

func firstOrEmpty(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// MessageWriter is satisfied by *kafka.Writer
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaSink publishes the adopted account and its added operations, keyed
// by address so that one partition sees an account's updates in order
type KafkaSink struct {
	writer          MessageWriter
	shapesTopic     string
	operationsTopic string
}

func NewKafkaSink(writer MessageWriter, shapesTopic, operationsTopic string) *KafkaSink {
	return &KafkaSink{
		writer:          writer,
		shapesTopic:     shapesTopic,
		operationsTopic: operationsTopic,
	}
}

func (s *KafkaSink) Name() string { return "kafka" }

// AccountShapeMessage is the payload of the account shapes topic
type AccountShapeMessage struct {
	SyncID             string          `json:"syncId"`
	Account            *models.Account `json:"account"`
	AddedOperations    int             `json:"addedOperations"`
	SubAccountsChanged bool            `json:"subAccountsChanged"`
}

func (s *KafkaSink) Publish(ctx context.Context, event SyncEvent) error {
	key := []byte(event.Account.Address)
	headers := []kafka.Header{{Key: "sync_id", Value: []byte(event.SyncID)}}

	msgs := make([]kafka.Message, 0, len(event.AddedOperations)+1)
	for _, op := range event.AddedOperations {
		value, err := json.Marshal(op)
		if err != nil {
			return fmt.Errorf("failed to marshal operation %s: %w", op.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Topic:   s.operationsTopic,
			Key:     key,
			Value:   value,
			Headers: headers,
		})
	}

	value, err := json.Marshal(AccountShapeMessage{
		SyncID:             event.SyncID,
		Account:            event.Account,
		AddedOperations:    len(event.AddedOperations),
		SubAccountsChanged: event.SubAccountsChanged,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal account %s: %w", event.Account.ID, err)
	}
	msgs = append(msgs, kafka.Message{
		Topic:   s.shapesTopic,
		Key:     key,
		Value:   value,
		Headers: headers,
	})

	if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write %d messages: %w", len(msgs), err)
	}
	return nil
}

// AccountSyncedEmitter is satisfied by *socketio.Hub
type AccountSyncedEmitter interface {
	EmitAccountSynced(event socketio.AccountSyncedEvent)
}

// SocketIOSink notifies websocket clients of every adopted sync
type SocketIOSink struct {
	emitter AccountSyncedEmitter
	now     func() time.Time
}

func NewSocketIOSink(emitter AccountSyncedEmitter) *SocketIOSink {
	return &SocketIOSink{emitter: emitter, now: time.Now}
}

func (s *SocketIOSink) Name() string { return "socketio" }

func (s *SocketIOSink) Publish(_ context.Context, event SyncEvent) error {
	account := event.Account
	s.emitter.EmitAccountSynced(socketio.AccountSyncedEvent{
		SyncID:             event.SyncID,
		AccountID:          account.ID,
		Address:            account.Address,
		Balance:            account.Balance.String(),
		BlockHeight:        account.BlockHeight,
		OperationsCount:    account.OperationsCount,
		AddedOperations:    len(event.AddedOperations),
		SubAccountsChanged: event.SubAccountsChanged,
		Timestamp:          s.now().Unix(),
	})
	return nil
}
