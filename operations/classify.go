package operations

import (
	"github.com/shopspring/decimal"
	"github.com/xrpscan/tezsync/logger"
	"github.com/xrpscan/tezsync/models"
)

// TxToOp classifies a raw indexer operation as seen from address. The
// second return value is false when the operation is not interesting for
// the account and must be dropped.
func TxToOp(address, accountID string, tx models.RawOperation) (models.Operation, bool) {
	var (
		opType     models.OperationType
		value      = decimal.Zero
		senders    []string
		recipients []string
	)
	hasFailed := tx.HasFailed()

	switch tx.Type {
	case models.RawTransaction:
		initiator := models.AddressOf(tx.Initiator)
		from := models.AddressOf(tx.Sender)
		to := models.AddressOf(tx.Target)
		if from != address && to != address && initiator != address {
			logger.Log.Warn().
				Str("address", address).
				Str("hash", tx.Hash).
				Int64("indexer_id", tx.ID).
				Msg("Found transaction unrelated to account, skipping")
			return models.Operation{}, false
		}

		sender := from
		if sender == "" {
			sender = initiator
		}
		senders = []string{sender}
		recipients = []string{to}

		if (from == address && to == address) || (from != address && to != address) {
			// self transfer, or the account only initiated the call
			opType = models.OperationFees
		} else {
			opType = models.OperationOut
			if to == address {
				opType = models.OperationIn
			}
			if !hasFailed {
				value = tx.Amount
				if value.IsZero() {
					opType = models.OperationFees
				}
			}
		}

	case models.RawDelegation:
		opType = models.OperationUndelegate
		if tx.NewDelegate != nil {
			opType = models.OperationDelegate
		}
		senders = []string{address}
		recipients = []string{models.AddressOf(tx.NewDelegate)}

	case models.RawReveal:
		opType = models.OperationReveal
		senders = []string{address}
		recipients = []string{address}

	case models.RawMigration:
		opType = models.OperationIn
		if tx.BalanceChange.IsNegative() {
			opType = models.OperationOut
		}
		value = tx.BalanceChange.Abs()
		senders = []string{address}
		recipients = []string{address}

	case models.RawOrigination:
		opType = models.OperationCreate
		value = tx.ContractBalance
		senders = []string{address}
		recipients = []string{models.AddressOf(tx.OriginatedContract)}

	case models.RawActivation:
		opType = models.OperationIn
		value = tx.Balance
		senders = []string{address}
		recipients = []string{address}

	default:
		logger.Log.Debug().
			Str("address", address).
			Str("type", string(tx.Type)).
			Str("hash", tx.Hash).
			Msg("Unsupported operation type, skipping")
		return models.Operation{}, false
	}

	if opType == models.OperationIn && value.IsZero() {
		return models.Operation{}, false
	}

	// Failed operations only burn the baker fee
	fee := tx.BakerFee
	if !hasFailed {
		fee = fee.Add(tx.AllocationFee).Add(tx.StorageFee)
	}

	if opType != models.OperationIn {
		value = value.Add(fee)
	}

	return models.Operation{
		ID:          models.EncodeOperationID(accountID, tx.Hash, opType),
		Hash:        tx.Hash,
		Type:        opType,
		Value:       value,
		Fee:         fee,
		Senders:     senders,
		Recipients:  recipients,
		BlockHeight: tx.Level,
		BlockHash:   tx.Block,
		AccountID:   accountID,
		Date:        tx.Timestamp,
		HasFailed:   hasFailed,
		Extra:       models.OperationExtra{IndexerID: tx.ID},
	}, true
}

// TxsToOps classifies txs in order, dropping the ones TxToOp rejects
func TxsToOps(address, accountID string, txs []models.RawOperation) []models.Operation {
	ops := make([]models.Operation, 0, len(txs))
	for _, tx := range txs {
		if op, ok := TxToOp(address, accountID, tx); ok {
			ops = append(ops, op)
		}
	}
	return ops
}
