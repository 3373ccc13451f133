package connections

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xrpscan/tezsync/models"
)

func newTestIndexer(t *testing.T, handler http.HandlerFunc) *IndexerClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewIndexerClientWithURL(server.URL, 2, 5*time.Second)
}

func TestIndexerGetAccountByAddress(t *testing.T) {
	client := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts/tz1abc", r.URL.Path)
		w.Write([]byte(`{"type":"user","address":"tz1abc","publicKey":"edpk1","revealed":true,"balance":1234567,"counter":42}`))
	})

	account, err := client.GetAccountByAddress(context.Background(), "tz1abc")
	require.NoError(t, err)
	assert.Equal(t, models.AccountTypeUser, account.Type)
	assert.Equal(t, "edpk1", account.PublicKey)
	assert.True(t, account.Revealed)
	assert.Equal(t, int64(42), account.Counter)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(1234567)))
}

func TestIndexerGetBlockCount(t *testing.T) {
	client := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/blocks/count", r.URL.Path)
		w.Write([]byte(`3456789`))
	})

	count, err := client.GetBlockCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3456789), count)
}

func TestIndexerGetAccountOperations(t *testing.T) {
	tests := []struct {
		name   string
		lastID int64
		want   string
	}{
		{name: "first page", lastID: 0, want: ""},
		{name: "next page", lastID: 99, want: "99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/accounts/tz1abc/operations", r.URL.Path)
				assert.Equal(t, "0", r.URL.Query().Get("sort"))
				assert.Equal(t, "2", r.URL.Query().Get("limit"))
				assert.Equal(t, tt.want, r.URL.Query().Get("lastId"))
				w.Write([]byte(`[
					{"type":"transaction","id":100,"hash":"oo1","level":10,"timestamp":"2022-01-01T00:00:00Z","sender":{"address":"tz1abc"},"target":{"address":"tz1def"},"amount":5,"bakerFee":1,"status":"applied"},
					{"type":"delegation","id":101,"hash":"oo2","level":11,"timestamp":"2022-01-02T00:00:00Z","newDelegate":{"alias":"Baker","address":"tz1baker"}}
				]`))
			})

			ops, err := client.GetAccountOperations(context.Background(), "tz1abc", tt.lastID)
			require.NoError(t, err)
			require.Len(t, ops, 2)
			assert.Equal(t, models.RawTransaction, ops[0].Type)
			assert.Equal(t, "tz1def", models.AddressOf(ops[0].Target))
			assert.Equal(t, "tz1baker", models.AddressOf(ops[1].NewDelegate))
		})
	}
}

func TestIndexerGetTokenBalances(t *testing.T) {
	client := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/tokens/balances", r.URL.Path)
		assert.Equal(t, "tz1abc", r.URL.Query().Get("account"))
		assert.Equal(t, "0", r.URL.Query().Get("balance.gt"))
		assert.Equal(t, "41", r.URL.Query().Get("id.gt"))
		w.Write([]byte(`[{"id":1,"account":{"address":"tz1abc"},"token":{"id":7,"contract":{"address":"KT1x"},"tokenId":"0","standard":"fa2"},"balance":"1000000000000000000000","lastLevel":55}]`))
	})

	balances, err := client.GetTokenBalances(context.Background(), "tz1abc", 41)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "KT1x", balances[0].Token.Contract.Address)
	assert.Equal(t, "1000000000000000000000", balances[0].Balance.String())
}

func TestIndexerErrorStatus(t *testing.T) {
	client := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	})

	_, err := client.GetBlockCount(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIndexerStatus))
	assert.Contains(t, err.Error(), "429")
}

func TestIndexerMalformedBody(t *testing.T) {
	client := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})

	_, err := client.GetAccountOperations(context.Background(), "tz1abc", 0)
	assert.Error(t, err)
}
