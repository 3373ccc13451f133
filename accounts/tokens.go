package accounts

import (
	"sort"

	"github.com/xrpscan/tezsync/logger"
	"github.com/xrpscan/tezsync/models"
)

// DeriveTokenAccounts maps indexer token balances to token sub-accounts of
// parentID, sorted by id. Zero balances are skipped.
func DeriveTokenAccounts(parentID string, balances []models.RawTokenBalance) []*models.TokenAccount {
	seen := make(map[string]struct{}, len(balances))
	tokenAccounts := make([]*models.TokenAccount, 0, len(balances))

	for _, b := range balances {
		if b.Balance.Sign() <= 0 {
			continue
		}
		contract := b.Token.Contract.Address
		if contract == "" {
			logger.Log.Warn().Int64("token_balance_id", b.ID).Msg("Token balance without contract, skipping")
			continue
		}

		id := models.EncodeTokenAccountID(parentID, contract, b.Token.TokenID)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		tokenAccounts = append(tokenAccounts, &models.TokenAccount{
			ID:        id,
			ParentID:  parentID,
			Contract:  contract,
			TokenID:   b.Token.TokenID,
			Standard:  b.Token.Standard,
			Balance:   b.Balance,
			LastLevel: b.LastLevel,
		})
	}

	sort.Slice(tokenAccounts, func(i, j int) bool {
		return tokenAccounts[i].ID < tokenAccounts[j].ID
	})
	return tokenAccounts
}
