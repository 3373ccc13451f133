package producers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xrpscan/tezsync/connections"
	"github.com/xrpscan/tezsync/models"
	"github.com/xrpscan/tezsync/socketio"
)

func testEvent() SyncEvent {
	account := models.NewAccount(addr).ApplyShape(shape(10, []models.Operation{testOp(2), testOp(1)}, nil))
	return SyncEvent{
		SyncID:          "sync-1",
		Account:         account,
		Previous:        models.NewAccount(addr),
		AddedOperations: account.Operations,
	}
}

type fakeOperationWriter struct {
	rows []connections.OperationRow
	err  error
}

func (w *fakeOperationWriter) WriteOperation(row connections.OperationRow) error {
	if w.err != nil {
		return w.err
	}
	w.rows = append(w.rows, row)
	return nil
}

func TestClickHouseSinkPublish(t *testing.T) {
	writer := &fakeOperationWriter{}
	var snapshots []connections.AccountSnapshotRow
	sink := NewClickHouseSink(writer, func(_ context.Context, row connections.AccountSnapshotRow) error {
		snapshots = append(snapshots, row)
		return nil
	})

	require.NoError(t, sink.Publish(context.Background(), testEvent()))

	require.Len(t, writer.rows, 2)
	row := writer.rows[0]
	assert.Equal(t, "sync-1", row.SyncID)
	assert.Equal(t, addr, row.Address)
	assert.Equal(t, "oo2", row.Hash)
	assert.Equal(t, "IN", row.Type)
	assert.Equal(t, "2", row.Value)
	assert.Equal(t, "tz1sender", row.Sender)
	assert.Equal(t, addr, row.Recipient)
	assert.Equal(t, uint64(2), row.IndexerID)
	assert.Equal(t, uint64(syncTime.UnixMilli()), row.Version)

	require.Len(t, snapshots, 1)
	assert.Equal(t, "1000", snapshots[0].Balance)
	assert.Equal(t, uint32(2), snapshots[0].OperationsCount)
	assert.Equal(t, uint64(10), snapshots[0].BlockHeight)
}

func TestClickHouseSinkWriteError(t *testing.T) {
	boom := errors.New("batch closed")
	sink := NewClickHouseSink(&fakeOperationWriter{err: boom}, nil)

	err := sink.Publish(context.Background(), testEvent())
	assert.ErrorIs(t, err, boom)
}

type fakeMessageWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeMessageWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func TestKafkaSinkPublish(t *testing.T) {
	writer := &fakeMessageWriter{}
	sink := NewKafkaSink(writer, "tezsync-account-shapes", "tezsync-operations")

	require.NoError(t, sink.Publish(context.Background(), testEvent()))

	require.Len(t, writer.msgs, 3)
	for _, msg := range writer.msgs[:2] {
		assert.Equal(t, "tezsync-operations", msg.Topic)
		assert.Equal(t, []byte(addr), msg.Key)
	}

	last := writer.msgs[2]
	assert.Equal(t, "tezsync-account-shapes", last.Topic)
	assert.Equal(t, "sync_id", last.Headers[0].Key)
	assert.Equal(t, []byte("sync-1"), last.Headers[0].Value)

	var payload AccountShapeMessage
	require.NoError(t, json.Unmarshal(last.Value, &payload))
	assert.Equal(t, "sync-1", payload.SyncID)
	assert.Equal(t, 2, payload.AddedOperations)
	assert.Equal(t, int64(10), payload.Account.BlockHeight)
	assert.Len(t, payload.Account.Operations, 2)

	var op models.Operation
	require.NoError(t, json.Unmarshal(writer.msgs[0].Value, &op))
	assert.Equal(t, "oo2", op.Hash)
}

func TestKafkaSinkWriteError(t *testing.T) {
	boom := errors.New("leader not available")
	sink := NewKafkaSink(&fakeMessageWriter{err: boom}, "shapes", "ops")

	err := sink.Publish(context.Background(), testEvent())
	assert.ErrorIs(t, err, boom)
}

type fakeEmitter struct {
	events []socketio.AccountSyncedEvent
}

func (e *fakeEmitter) EmitAccountSynced(event socketio.AccountSyncedEvent) {
	e.events = append(e.events, event)
}

func TestSocketIOSinkPublish(t *testing.T) {
	emitter := &fakeEmitter{}
	sink := NewSocketIOSink(emitter)
	sink.now = func() time.Time { return syncTime }

	require.NoError(t, sink.Publish(context.Background(), testEvent()))

	require.Len(t, emitter.events, 1)
	event := emitter.events[0]
	assert.Equal(t, "sync-1", event.SyncID)
	assert.Equal(t, models.EncodeAccountID(addr), event.AccountID)
	assert.Equal(t, "1000", event.Balance)
	assert.Equal(t, 2, event.OperationsCount)
	assert.Equal(t, 2, event.AddedOperations)
	assert.Equal(t, syncTime.Unix(), event.Timestamp)
}
