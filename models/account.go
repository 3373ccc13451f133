package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TokenAccount is a sub-account holding the balance of one token
type TokenAccount struct {
	ID        string          `json:"id"`
	ParentID  string          `json:"parentId"`
	Contract  string          `json:"contract"`
	TokenID   string          `json:"tokenId"`
	Standard  string          `json:"standard"`
	Balance   decimal.Decimal `json:"balance"`
	LastLevel int64           `json:"lastLevel"`
}

// EncodeTokenAccountID derives a token account id from its parent account
func EncodeTokenAccountID(parentID, contract, tokenID string) string {
	return fmt.Sprintf("%s+%s:%s", parentID, contract, tokenID)
}

func (t *TokenAccount) GetID() string {
	return t.ID
}

// Diff lists the names of the fields that differ between t and other.
// Fields are compared one level deep: scalars by value, Balance by
// decimal equality.
func (t *TokenAccount) Diff(other *TokenAccount) []string {
	var fields []string
	if t.ID != other.ID {
		fields = append(fields, "id")
	}
	if t.ParentID != other.ParentID {
		fields = append(fields, "parentId")
	}
	if t.Contract != other.Contract {
		fields = append(fields, "contract")
	}
	if t.TokenID != other.TokenID {
		fields = append(fields, "tokenId")
	}
	if t.Standard != other.Standard {
		fields = append(fields, "standard")
	}
	if !t.Balance.Equal(other.Balance) {
		fields = append(fields, "balance")
	}
	if t.LastLevel != other.LastLevel {
		fields = append(fields, "lastLevel")
	}
	return fields
}

type TezosResources struct {
	Revealed bool  `json:"revealed"`
	Counter  int64 `json:"counter"`
}

// AccountShape is the result of one synchronization. It is built fresh on
// every sync and never mutated afterwards.
//
// When Empty is set the indexer reported no activity for the address and
// only BlockHeight and LastSyncDate are meaningful.
type AccountShape struct {
	Empty            bool            `json:"empty,omitempty"`
	Operations       []Operation     `json:"operations,omitempty"`
	OperationsCount  int             `json:"operationsCount"`
	Balance          decimal.Decimal `json:"balance"`
	SpendableBalance decimal.Decimal `json:"spendableBalance"`
	SubAccounts      []*TokenAccount `json:"subAccounts,omitempty"`
	BlockHeight      int64           `json:"blockHeight"`
	LastSyncDate     time.Time       `json:"lastSyncDate"`
	XPub             string          `json:"xpub,omitempty"`
	TezosResources   *TezosResources `json:"tezosResources,omitempty"`
	// LastIndexerID is the id of the last raw operation read from the
	// indexer, classified or not. Incremental syncs resume after it.
	LastIndexerID int64 `json:"lastIndexerId,omitempty"`
	// Truncated is set when the operation history or the token balances
	// stopped at the page bound, so the shape is best-effort.
	Truncated bool `json:"truncated,omitempty"`
}

// Account is the state kept between syncs by the owner of an address
type Account struct {
	ID               string          `json:"id"`
	Address          string          `json:"address"`
	Operations       []Operation     `json:"operations"`
	OperationsCount  int             `json:"operationsCount"`
	Balance          decimal.Decimal `json:"balance"`
	SpendableBalance decimal.Decimal `json:"spendableBalance"`
	SubAccounts      []*TokenAccount `json:"subAccounts"`
	BlockHeight      int64           `json:"blockHeight"`
	LastSyncDate     time.Time       `json:"lastSyncDate"`
	XPub             string          `json:"xpub,omitempty"`
	TezosResources   *TezosResources `json:"tezosResources,omitempty"`
	LastIndexerID    int64           `json:"lastIndexerId,omitempty"`
}

// NewAccount returns a never synchronized account for address
func NewAccount(address string) *Account {
	return &Account{
		ID:      EncodeAccountID(address),
		Address: address,
	}
}

// ApplyShape returns a new account combining a with shape. The receiver is
// left untouched.
func (a *Account) ApplyShape(shape *AccountShape) *Account {
	next := *a
	next.BlockHeight = shape.BlockHeight
	next.LastSyncDate = shape.LastSyncDate
	if shape.Empty {
		return &next
	}
	next.Operations = shape.Operations
	next.OperationsCount = shape.OperationsCount
	next.Balance = shape.Balance
	next.SpendableBalance = shape.SpendableBalance
	next.SubAccounts = shape.SubAccounts
	next.TezosResources = shape.TezosResources
	next.LastIndexerID = shape.LastIndexerID
	if shape.XPub != "" {
		next.XPub = shape.XPub
	}
	return &next
}
