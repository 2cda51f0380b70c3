package models

import (
	"time"

	"bankProject/utils"
)

// MaxNIPAttempts задает число неудачных проверок НИП до блокировки счета
const MaxNIPAttempts = 3

// Account представляет банковский счет.
// Все изменяемые поля защищены блокировкой accounts, которую берет
// BankService; сама структура собственных мьютексов не держит.
type Account struct {
	AccountID   string
	CustomerID  string
	Balance     float64
	NIPHash     string
	NIPAttempts int
	IsLocked    bool
	DebitCards  []*Card
	History     []*Transaction
	CreatedAt   time.Time
}

// NewAccount создает счет с начальным балансом и хешированным НИП
func NewAccount(accountID, customerID string, initialBalance float64, nipHash string) *Account {
	return &Account{
		AccountID:  accountID,
		CustomerID: customerID,
		Balance:    initialBalance,
		NIPHash:    nipHash,
		CreatedAt:  time.Now(),
	}
}

// CheckNIP проверяет НИП счета.
// Неудачная проверка увеличивает счетчик попыток и блокирует счет
// после MaxNIPAttempts неудач; успешная проверка сбрасывает счетчик.
func (a *Account) CheckNIP(nip string) error {
	if a.IsLocked {
		return ErrAccountLocked
	}

	if !utils.CompareNIP(a.NIPHash, nip) {
		a.NIPAttempts++
		if a.NIPAttempts >= MaxNIPAttempts {
			a.IsLocked = true
		}
		return ErrInvalidNIP
	}

	a.NIPAttempts = 0
	return nil
}

// Unlock снимает блокировку счета и сбрасывает счетчик попыток
func (a *Account) Unlock() {
	a.IsLocked = false
	a.NIPAttempts = 0
}

// AddCard привязывает дебетовую карту к счету
func (a *Account) AddCard(card *Card) {
	card.AccountID = a.AccountID
	a.DebitCards = append(a.DebitCards, card)
}

// RemoveCard удаляет дебетовую карту из списка счета
func (a *Account) RemoveCard(cardNumber string) {
	filtered := a.DebitCards[:0]
	for _, c := range a.DebitCards {
		if c.Number != cardNumber {
			filtered = append(filtered, c)
		}
	}
	a.DebitCards = filtered
}

// AddTransaction добавляет запись в историю счета (только дописывание)
func (a *Account) AddTransaction(tx *Transaction) {
	a.History = append(a.History, tx)
}

// RecentTransactions возвращает последние limit транзакций,
// самые новые первыми
func (a *Account) RecentTransactions(limit int) []*Transaction {
	if limit <= 0 || limit > len(a.History) {
		limit = len(a.History)
	}

	result := make([]*Transaction, 0, limit)
	for i := len(a.History) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, a.History[i])
	}
	return result
}
