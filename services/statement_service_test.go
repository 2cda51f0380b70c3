package services

import (
	"strings"
	"testing"

	"bankProject/models"
)

func TestStatementSummary(t *testing.T) {
	bank := newTestBank()
	statements := NewStatementService(bank)

	customer, _ := bank.AddCustomer("Иван Петров", "ivan@example.com")
	account, _ := bank.AddAccount(customer.ID, 1000, "1234")

	if err := bank.Deposit(account.AccountID, 500); err != nil {
		t.Fatal(err)
	}
	if err := bank.Withdraw(account.AccountID, 200, "1234"); err != nil {
		t.Fatal(err)
	}

	statement, err := statements.Generate(account.AccountID, 30)
	if err != nil {
		t.Fatal(err)
	}

	if statement.Balance != 1300 {
		t.Errorf("statement balance: got %.2f want 1300", statement.Balance)
	}
	if statement.TotalIn != 500 {
		t.Errorf("total in: got %.2f want 500", statement.TotalIn)
	}
	if statement.TotalOut != 200 {
		t.Errorf("total out: got %.2f want 200", statement.TotalOut)
	}
	if len(statement.Transactions) != 2 {
		t.Errorf("transactions in period: got %d want 2", len(statement.Transactions))
	}
}

func TestStatementUnknownAccount(t *testing.T) {
	bank := newTestBank()
	statements := NewStatementService(bank)

	if _, err := statements.Generate("no-such-account", 30); err != models.ErrAccountNotFound {
		t.Errorf("unknown account: got %v want %v", err, models.ErrAccountNotFound)
	}
}

func TestStatementExportXML(t *testing.T) {
	bank := newTestBank()
	statements := NewStatementService(bank)

	customer, _ := bank.AddCustomer("Иван Петров", "ivan@example.com")
	account, _ := bank.AddAccount(customer.ID, 1000, "1234")

	if err := bank.Deposit(account.AccountID, 750); err != nil {
		t.Fatal(err)
	}

	statement, err := statements.Generate(account.AccountID, 30)
	if err != nil {
		t.Fatal(err)
	}

	data, err := statements.ExportXML(statement)
	if err != nil {
		t.Fatal(err)
	}

	xml := string(data)
	// Документ содержит счет, итоги и транзакцию депозита
	if !strings.Contains(xml, `account="`+account.AccountID+`"`) {
		t.Error("xml missing account attribute")
	}
	if !strings.Contains(xml, "<balance>1750.00</balance>") {
		t.Errorf("xml missing balance: %s", xml)
	}
	if !strings.Contains(xml, "<total_in>750.00</total_in>") {
		t.Errorf("xml missing total_in: %s", xml)
	}
	if !strings.Contains(xml, `type="DEPOSIT"`) {
		t.Error("xml missing deposit transaction")
	}
}
