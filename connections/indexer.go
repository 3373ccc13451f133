package connections

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/xrpscan/tezsync/config"
	"github.com/xrpscan/tezsync/logger"
	"github.com/xrpscan/tezsync/models"
)

// ErrIndexerStatus is wrapped by errors caused by a non 2xx indexer response
var ErrIndexerStatus = errors.New("unexpected indexer response status")

// IndexerClient talks to a TzKT compatible REST API
type IndexerClient struct {
	baseURL    string
	pageLimit  int
	httpClient *http.Client
}

// NewIndexerClient builds a client from the environment configuration
func NewIndexerClient() *IndexerClient {
	return NewIndexerClientWithURL(config.EnvIndexerURL(), config.EnvIndexerPageLimit(), config.EnvIndexerTimeout())
}

func NewIndexerClientWithURL(baseURL string, pageLimit int, timeout time.Duration) *IndexerClient {
	logger.Log.Info().
		Str("url", baseURL).
		Int("page_limit", pageLimit).
		Dur("timeout", timeout).
		Msg("Initializing indexer client")

	return &IndexerClient{
		baseURL:    baseURL,
		pageLimit:  pageLimit,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetAccountByAddress returns the indexer's account record of address
func (c *IndexerClient) GetAccountByAddress(ctx context.Context, address string) (models.RawAccount, error) {
	var account models.RawAccount
	err := c.get(ctx, "/v1/accounts/"+url.PathEscape(address), nil, &account)
	return account, err
}

// GetBlockCount returns the number of blocks known to the indexer
func (c *IndexerClient) GetBlockCount(ctx context.Context) (int64, error) {
	var count int64
	err := c.get(ctx, "/v1/blocks/count", nil, &count)
	return count, err
}

// GetAccountOperations returns one page of operations of address sorted by
// ascending id, starting after lastID when it is not 0.
func (c *IndexerClient) GetAccountOperations(ctx context.Context, address string, lastID int64) ([]models.RawOperation, error) {
	query := url.Values{}
	query.Set("sort", "0")
	query.Set("limit", strconv.Itoa(c.pageLimit))
	if lastID != 0 {
		query.Set("lastId", strconv.FormatInt(lastID, 10))
	}

	var ops []models.RawOperation
	err := c.get(ctx, "/v1/accounts/"+url.PathEscape(address)+"/operations", query, &ops)
	return ops, err
}

// GetTokenBalances returns one page of the non zero token balances held by
// address, sorted by ascending id, starting after lastID when it is not 0.
func (c *IndexerClient) GetTokenBalances(ctx context.Context, address string, lastID int64) ([]models.RawTokenBalance, error) {
	query := url.Values{}
	query.Set("account", address)
	query.Set("balance.gt", "0")
	query.Set("sort.asc", "id")
	query.Set("limit", strconv.Itoa(c.pageLimit))
	if lastID != 0 {
		query.Set("id.gt", strconv.FormatInt(lastID, 10))
	}

	var balances []models.RawTokenBalance
	err := c.get(ctx, "/v1/tokens/balances", query, &balances)
	return balances, err
}

func (c *IndexerClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	apiURL := c.baseURL + path
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build indexer request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Log.Error().Err(err).Str("url", apiURL).Msg("Indexer request failed")
		return fmt.Errorf("indexer request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	logger.Log.Debug().
		Str("url", apiURL).
		Int("status", resp.StatusCode).
		Dur("request_duration", time.Since(startTime)).
		Msg("Indexer response received")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s", ErrIndexerStatus, path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode indexer response %s: %w", path, err)
	}
	return nil
}
