package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer представляет клиента банка.
// Список Accounts хранит невладеющие ссылки: владельцем счета всегда
// является реестр счетов, а принадлежность проверяется по CustomerID.
type Customer struct {
	ID          string
	Name        string
	Email       string
	CreditCards []*Card
	Accounts    []*Account
	CreatedAt   time.Time
}

// NewCustomer создает нового клиента со сгенерированным идентификатором
func NewCustomer(name, email string) *Customer {
	return &Customer{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now(),
	}
}

// LinkAccount привязывает счет к клиенту с проверкой принадлежности
func (c *Customer) LinkAccount(account *Account) error {
	if account.CustomerID != c.ID {
		return ErrLinkFailed
	}

	for _, existing := range c.Accounts {
		if existing.AccountID == account.AccountID {
			return nil // уже привязан
		}
	}

	c.Accounts = append(c.Accounts, account)
	return nil
}

// UnlinkAccount убирает ссылку на счет
func (c *Customer) UnlinkAccount(accountID string) {
	filtered := c.Accounts[:0]
	for _, a := range c.Accounts {
		if a.AccountID != accountID {
			filtered = append(filtered, a)
		}
	}
	c.Accounts = filtered
}

// AddCreditCard привязывает кредитную карту к клиенту
func (c *Customer) AddCreditCard(card *Card) {
	card.CustomerID = c.ID
	c.CreditCards = append(c.CreditCards, card)
}

// RemoveCreditCard удаляет кредитную карту из списка клиента
func (c *Customer) RemoveCreditCard(cardNumber string) {
	filtered := c.CreditCards[:0]
	for _, card := range c.CreditCards {
		if card.Number != cardNumber {
			filtered = append(filtered, card)
		}
	}
	c.CreditCards = filtered
}
