package services

import (
	"fmt"
	"os"
	"time"

	"bankProject/models"

	"github.com/beevik/etree"
)

// AccountStatement представляет выписку по счету за период
type AccountStatement struct {
	AccountID    string
	CustomerID   string
	PeriodDays   int
	GeneratedAt  time.Time
	Balance      float64
	TotalIn      float64
	TotalOut     float64
	Transactions []*models.Transaction
}

// StatementService формирует выписки по счетам и экспортирует их в XML
type StatementService struct {
	bank *BankService
}

// NewStatementService создает сервис выписок
func NewStatementService(bank *BankService) *StatementService {
	return &StatementService{bank: bank}
}

// Generate собирает выписку по счету за последние days дней
func (s *StatementService) Generate(accountID string, days int) (*AccountStatement, error) {
	if days <= 0 {
		days = 30
	}

	balance, err := s.bank.GetAccountBalance(accountID)
	if err != nil {
		return nil, err
	}

	txs, err := s.bank.GetAccountTransactions(accountID, 0)
	if err != nil {
		return nil, err
	}

	statement := &AccountStatement{
		AccountID:   accountID,
		PeriodDays:  days,
		GeneratedAt: time.Now(),
		Balance:     balance,
	}

	for _, tx := range txs {
		if !tx.IsRecent(days) {
			continue
		}
		statement.Transactions = append(statement.Transactions, tx)

		switch tx.Type {
		case models.TransactionTypeDeposit:
			statement.TotalIn += tx.Amount
		case models.TransactionTypeWithdrawal, models.TransactionTypeTransfer,
			models.TransactionTypePurchase, models.TransactionTypePayment:
			statement.TotalOut += tx.Amount
		}
	}

	return statement, nil
}

// ExportXML сериализует выписку в XML
func (s *StatementService) ExportXML(statement *AccountStatement) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("statement")
	root.CreateAttr("account", statement.AccountID)
	root.CreateAttr("generated", statement.GeneratedAt.Format(time.RFC3339))
	root.CreateAttr("period_days", fmt.Sprintf("%d", statement.PeriodDays))

	summary := root.CreateElement("summary")
	summary.CreateElement("balance").SetText(fmt.Sprintf("%.2f", statement.Balance))
	summary.CreateElement("total_in").SetText(fmt.Sprintf("%.2f", statement.TotalIn))
	summary.CreateElement("total_out").SetText(fmt.Sprintf("%.2f", statement.TotalOut))

	transactions := root.CreateElement("transactions")
	transactions.CreateAttr("count", fmt.Sprintf("%d", len(statement.Transactions)))
	for _, tx := range statement.Transactions {
		el := transactions.CreateElement("transaction")
		el.CreateAttr("id", tx.ID)
		el.CreateAttr("type", string(tx.Type))
		el.CreateElement("amount").SetText(fmt.Sprintf("%.2f", tx.Amount))
		el.CreateElement("timestamp").SetText(tx.Timestamp.Format(time.RFC3339))
		if tx.TargetAccountID != "" {
			el.CreateElement("target_account").SetText(tx.TargetAccountID)
		}
		if tx.Merchant != "" {
			el.CreateElement("merchant").SetText(tx.Merchant)
		}
		if tx.Description != "" {
			el.CreateElement("description").SetText(tx.Description)
		}
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}

// ExportToFile сохраняет XML выписку в файл
func (s *StatementService) ExportToFile(statement *AccountStatement, path string) error {
	data, err := s.ExportXML(statement)
	if err != nil {
		return fmt.Errorf("ошибка сериализации выписки: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("ошибка записи выписки: %w", err)
	}
	return nil
}
