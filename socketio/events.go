package socketio

const EventAccountSynced = "account_synced"

// AccountSyncedEvent is broadcast after every adopted account sync
type AccountSyncedEvent struct {
	SyncID             string `json:"sync_id"`
	AccountID          string `json:"account_id"`
	Address            string `json:"address"`
	Balance            string `json:"balance"`
	BlockHeight        int64  `json:"block_height"`
	OperationsCount    int    `json:"operations_count"`
	AddedOperations    int    `json:"added_operations"`
	SubAccountsChanged bool   `json:"sub_accounts_changed"`
	Timestamp          int64  `json:"timestamp"`
}
