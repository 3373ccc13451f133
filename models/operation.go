package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OperationType string

const (
	OperationIn         OperationType = "IN"
	OperationOut        OperationType = "OUT"
	OperationFees       OperationType = "FEES"
	OperationDelegate   OperationType = "DELEGATE"
	OperationUndelegate OperationType = "UNDELEGATE"
	OperationReveal     OperationType = "REVEAL"
	OperationCreate     OperationType = "CREATE"
)

// OperationExtra carries family specific data of an operation
type OperationExtra struct {
	// IndexerID is the indexer's operation id, used as pagination cursor
	IndexerID int64 `json:"id"`
}

// Operation is the canonical, chain independent record of a transaction
// as seen from one account.
type Operation struct {
	ID          string          `json:"id"`
	Hash        string          `json:"hash"`
	Type        OperationType   `json:"type"`
	Value       decimal.Decimal `json:"value"`
	Fee         decimal.Decimal `json:"fee"`
	Senders     []string        `json:"senders"`
	Recipients  []string        `json:"recipients"`
	BlockHeight int64           `json:"blockHeight"`
	BlockHash   string          `json:"blockHash"`
	AccountID   string          `json:"accountId"`
	Date        time.Time       `json:"date"`
	HasFailed   bool            `json:"hasFailed"`
	Extra       OperationExtra  `json:"extra"`
}

// EncodeOperationID derives the operation id. The same transaction
// classified the same way for the same account always yields the same id.
func EncodeOperationID(accountID, hash string, opType OperationType) string {
	return fmt.Sprintf("%s-%s-%s", accountID, hash, opType)
}

// EncodeAccountID derives the account id of a tezos address
func EncodeAccountID(address string) string {
	return fmt.Sprintf("js:2:tezos:%s:tezbox", address)
}
