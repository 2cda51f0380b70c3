package models

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType представляет тип транзакции
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypePurchase   TransactionType = "PURCHASE"
	TransactionTypePayment    TransactionType = "PAYMENT"
)

// Transaction представляет неизменяемую запись об операции.
// Создается один раз, добавляется в историю счета и в общий журнал,
// после этого никогда не изменяется.
type Transaction struct {
	ID              string
	AccountID       string
	Amount          float64
	Type            TransactionType
	TargetAccountID string // Заполняется только для переводов
	CardNumber      string // Заполняется для операций по картам
	Merchant        string // Заполняется для покупок
	Description     string
	Timestamp       time.Time
}

// NewTransaction создает новую запись о транзакции
func NewTransaction(accountID string, amount float64, txType TransactionType) *Transaction {
	return &Transaction{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Amount:    amount,
		Type:      txType,
		Timestamp: time.Now(),
	}
}

// IsRecent проверяет, попадает ли транзакция в окно последних days дней
func (t *Transaction) IsRecent(days int) bool {
	cutoff := time.Now().AddDate(0, 0, -days)
	return t.Timestamp.After(cutoff)
}
