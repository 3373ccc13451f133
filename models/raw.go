package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawOperationType is the `type` discriminant of an indexer operation.
// Ref: https://api.tzkt.io/#operation/Accounts_GetOperations
type RawOperationType string

const (
	RawTransaction RawOperationType = "transaction"
	RawDelegation  RawOperationType = "delegation"
	RawReveal      RawOperationType = "reveal"
	RawMigration   RawOperationType = "migration"
	RawOrigination RawOperationType = "origination"
	RawActivation  RawOperationType = "activation"
)

const StatusApplied = "applied"

// Alias is the `{ "alias": ..., "address": ... }` object used for parties
type Alias struct {
	Alias   string `json:"alias,omitempty"`
	Address string `json:"address"`
}

// RawOperation is a single item returned by the indexer operations endpoint.
// Only the fields relevant to the operation's Type are populated.
type RawOperation struct {
	Type      RawOperationType `json:"type"`
	ID        int64            `json:"id"`
	Level     int64            `json:"level"`
	Timestamp time.Time        `json:"timestamp"`
	Block     string           `json:"block"`
	Hash      string           `json:"hash"`
	Status    string           `json:"status,omitempty"`

	BakerFee      decimal.Decimal `json:"bakerFee"`
	StorageFee    decimal.Decimal `json:"storageFee"`
	AllocationFee decimal.Decimal `json:"allocationFee"`

	// transaction
	Initiator *Alias          `json:"initiator,omitempty"`
	Sender    *Alias          `json:"sender,omitempty"`
	Target    *Alias          `json:"target,omitempty"`
	Amount    decimal.Decimal `json:"amount"`

	// delegation
	PrevDelegate *Alias `json:"prevDelegate,omitempty"`
	NewDelegate  *Alias `json:"newDelegate,omitempty"`

	// migration and activation
	Account       *Alias          `json:"account,omitempty"`
	BalanceChange decimal.Decimal `json:"balanceChange"`
	Balance       decimal.Decimal `json:"balance"`

	// origination
	OriginatedContract *Alias          `json:"originatedContract,omitempty"`
	ContractBalance    decimal.Decimal `json:"contractBalance"`
}

// HasFailed reports whether the operation was not applied on chain.
// A missing status is treated as applied.
func (tx RawOperation) HasFailed() bool {
	return tx.Status != "" && tx.Status != StatusApplied
}

// AddressOf returns the address of a party or "" when it is absent
func AddressOf(a *Alias) string {
	if a == nil {
		return ""
	}
	return a.Address
}

// Account types reported by the indexer accounts endpoint
const (
	AccountTypeEmpty = "empty"
	AccountTypeUser  = "user"
)

// RawAccount is the indexer's view of an address.
// Ref: https://api.tzkt.io/#operation/Accounts_GetByAddress
type RawAccount struct {
	Type      string          `json:"type"`
	Address   string          `json:"address"`
	PublicKey string          `json:"publicKey,omitempty"`
	Revealed  bool            `json:"revealed"`
	Balance   decimal.Decimal `json:"balance"`
	Counter   int64           `json:"counter"`
	Delegate  *Alias          `json:"delegate,omitempty"`
}

// RawToken identifies a token contract and token id
type RawToken struct {
	ID       int64  `json:"id"`
	Contract Alias  `json:"contract"`
	TokenID  string `json:"tokenId"`
	Standard string `json:"standard"`
}

// RawTokenBalance is an item of the indexer token balances endpoint.
// Ref: https://api.tzkt.io/#operation/Tokens_GetTokenBalances
type RawTokenBalance struct {
	ID        int64           `json:"id"`
	Account   Alias           `json:"account"`
	Token     RawToken        `json:"token"`
	Balance   decimal.Decimal `json:"balance"`
	LastLevel int64           `json:"lastLevel"`
}
