package shared

import "errors"

var ErrInvalidTransactionType = errors.New("invalid transaction type")

// TransactionType identifies the kind of balance change a transaction records.
type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "deposit"
	TransactionTypeWithdraw TransactionType = "withdraw"
	TransactionTypeTransfer TransactionType = "transfer"
)

// ParseTransactionType validates a stored or user supplied type.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case TransactionTypeDeposit, TransactionTypeWithdraw, TransactionTypeTransfer:
		return t, nil
	}
	return "", ErrInvalidTransactionType
}

// TransactionStatus is the outcome recorded on a transaction. Only completed
// transactions are written today; failed is reserved.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// Role is the caller role forwarded by the authenticated request layer.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)
