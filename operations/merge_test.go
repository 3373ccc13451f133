package operations

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xrpscan/tezsync/models"
)

var mergeEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func op(n int) models.Operation {
	hash := fmt.Sprintf("oo%d", n)
	return models.Operation{
		ID:          models.EncodeOperationID(accountA, hash, models.OperationOut),
		Hash:        hash,
		Type:        models.OperationOut,
		Value:       dec(int64(n * 10)),
		Fee:         dec(1),
		Senders:     []string{addrA},
		Recipients:  []string{addrB},
		BlockHeight: int64(n),
		AccountID:   accountA,
		Date:        mergeEpoch.Add(time.Duration(n) * time.Minute),
		Extra:       models.OperationExtra{IndexerID: int64(n)},
	}
}

func ids(ops []models.Operation) []string {
	out := make([]string, len(ops))
	for i, o := range ops {
		out[i] = o.Hash
	}
	return out
}

func TestMergeOpsEmptyFetched(t *testing.T) {
	stable := []models.Operation{op(2), op(1)}
	merged := MergeOps(stable, nil)
	require.Len(t, merged, 2)
	assert.Same(t, &stable[0], &merged[0], "existing slice is returned as is")
}

func TestMergeOpsIntoEmpty(t *testing.T) {
	merged := MergeOps(nil, []models.Operation{op(1), op(3), op(2)})
	assert.Equal(t, []string{"oo3", "oo2", "oo1"}, ids(merged))
}

func TestMergeOpsNewerOperations(t *testing.T) {
	stable := []models.Operation{op(2), op(1)}
	merged := MergeOps(stable, []models.Operation{op(3), op(4)})
	assert.Equal(t, []string{"oo4", "oo3", "oo2", "oo1"}, ids(merged))
	assert.Equal(t, []string{"oo2", "oo1"}, ids(stable), "input is not modified")
}

func TestMergeOpsAlreadyKnown(t *testing.T) {
	stable := []models.Operation{op(3), op(2), op(1)}
	merged := MergeOps(stable, []models.Operation{op(1), op(2)})
	assert.Same(t, &stable[0], &merged[0])
}

func TestMergeOpsDeduplicates(t *testing.T) {
	stable := []models.Operation{op(2), op(1)}
	merged := MergeOps(stable, []models.Operation{op(3), op(3), op(2)})
	assert.Equal(t, []string{"oo3", "oo2", "oo1"}, ids(merged))
}

func TestMergeOpsReplacesChanged(t *testing.T) {
	stable := []models.Operation{op(2), op(1)}
	changed := op(1)
	changed.HasFailed = true

	merged := MergeOps(stable, []models.Operation{changed})
	require.Len(t, merged, 2)
	assert.Equal(t, []string{"oo2", "oo1"}, ids(merged))
	assert.True(t, merged[1].HasFailed)
	assert.False(t, stable[1].HasFailed)
}

func TestMergeOpsIdempotent(t *testing.T) {
	stable := []models.Operation{op(5), op(3), op(1)}
	fetched := []models.Operation{op(4), op(2), op(6), op(4)}

	once := MergeOps(stable, fetched)
	twice := MergeOps(once, fetched)
	assert.Equal(t, once, twice)
	assert.Equal(t, []string{"oo6", "oo5", "oo4", "oo3", "oo2", "oo1"}, ids(twice))
}

func TestMergeOpsKeepsOrderOnEqualDates(t *testing.T) {
	a, b, c := op(1), op(2), op(3)
	a.Date, b.Date = mergeEpoch, mergeEpoch
	stable := []models.Operation{a, b}

	merged := MergeOps(stable, []models.Operation{c})
	assert.Equal(t, []string{"oo3", "oo1", "oo2"}, ids(merged))
}
