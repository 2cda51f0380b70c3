package services

import (
	"fmt"
	"sync"
	"time"

	"bankProject/models"
	"bankProject/utils"
)

// WorkerRole определяет класс операций, которые выполняет сотрудник
type WorkerRole string

const (
	RoleTeller  WorkerRole = "TELLER"
	RoleAdvisor WorkerRole = "ADVISOR"
)

// WorkerLogEntry представляет запись журнала сотрудника
type WorkerLogEntry struct {
	TurnID    string
	Operation models.OperationType
	Err       error
	Timestamp time.Time
}

// Worker выполняет операции талона от имени банка.
// Один сотрудник обслуживает не более одного талона одновременно.
type Worker struct {
	ID   string
	Role WorkerRole

	bank *BankService
	sink utils.EventSink

	mu          sync.Mutex
	currentTurn *models.Turn
	history     []WorkerLogEntry
}

// NewTeller создает кассира
func NewTeller(id string, bank *BankService, sink utils.EventSink) *Worker {
	return newWorker(id, RoleTeller, bank, sink)
}

// NewAdvisor создает консультанта
func NewAdvisor(id string, bank *BankService, sink utils.EventSink) *Worker {
	return newWorker(id, RoleAdvisor, bank, sink)
}

func newWorker(id string, role WorkerRole, bank *BankService, sink utils.EventSink) *Worker {
	if sink == nil {
		sink = utils.NoopSink{}
	}
	return &Worker{ID: id, Role: role, bank: bank, sink: sink}
}

// Available сообщает, свободен ли сотрудник
func (w *Worker) Available() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentTurn == nil
}

// AssignTurn закрепляет талон за сотрудником
func (w *Worker) AssignTurn(turn *models.Turn) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentTurn != nil {
		return false
	}
	w.currentTurn = turn
	w.sink.AddEvent(w.ID, "TURN_ASSIGNED",
		fmt.Sprintf("сотрудник %s принял талон %s", w.ID, turn.ID), utils.SeverityInfo)
	return true
}

// CompleteTurn освобождает сотрудника
func (w *Worker) CompleteTurn() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.currentTurn = nil
}

// History возвращает копию журнала выполненных операций
func (w *Worker) History() []WorkerLogEntry {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]WorkerLogEntry, len(w.history))
	copy(out, w.history)
	return out
}

func (w *Worker) record(turnID string, opType models.OperationType, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.history = append(w.history, WorkerLogEntry{
		TurnID:    turnID,
		Operation: opType,
		Err:       err,
		Timestamp: time.Now(),
	})
}

// Execute выполняет одну операцию талона через банк.
// Операция обязана быть валидной (Validate вызывает диспетчер).
func (w *Worker) Execute(turnID string, op *models.Operation) error {
	start := time.Now()
	w.sink.AddEvent(w.ID, "OPERATION_START",
		fmt.Sprintf("талон %s: %s", turnID, op.Type), utils.SeverityInfo)

	err := w.dispatch(op)

	w.record(turnID, op.Type, err)
	utils.LogOperation(string(op.Type), start, err)
	if err != nil {
		w.sink.AddEvent(w.ID, "OPERATION_FAILED",
			fmt.Sprintf("талон %s: %s: %v", turnID, op.Type, err), utils.SeverityError)
	} else {
		w.sink.AddEvent(w.ID, "OPERATION_DONE",
			fmt.Sprintf("талон %s: %s выполнена", turnID, op.Type), utils.SeveritySuccess)
	}
	return err
}

func (w *Worker) dispatch(op *models.Operation) error {
	switch op.Type {
	// Операции кассира
	case models.OpDeposit:
		return w.bank.Deposit(op.Deposit.AccountID, op.Deposit.Amount)
	case models.OpWithdraw:
		return w.bank.Withdraw(op.Withdraw.AccountID, op.Withdraw.Amount, op.Withdraw.NIP)
	case models.OpTransfer:
		return w.bank.Transfer(op.Transfer.SourceID, op.Transfer.TargetID,
			op.Transfer.Amount, op.Transfer.NIP)
	case models.OpCheckBalance:
		balance, err := w.bank.GetAccountBalance(op.AccountQuery.AccountID)
		if err != nil {
			return err
		}
		w.sink.AddEvent(w.ID, "BALANCE_RESULT",
			fmt.Sprintf("баланс счета %s: $%.2f", op.AccountQuery.AccountID, balance), utils.SeverityInfo)
		return nil
	case models.OpGetTransactions:
		txs, err := w.bank.GetAccountTransactions(op.AccountQuery.AccountID, op.AccountQuery.Limit)
		if err != nil {
			return err
		}
		w.sink.AddEvent(w.ID, "TRANSACTIONS_RESULT",
			fmt.Sprintf("счет %s: %d транзакций", op.AccountQuery.AccountID, len(txs)), utils.SeverityInfo)
		return nil
	case models.OpGetStatement:
		statements := NewStatementService(w.bank)
		_, err := statements.Generate(op.AccountQuery.AccountID, op.AccountQuery.Days)
		return err
	case models.OpPayCreditCard:
		return w.bank.PayCreditCard(op.PayCreditCard.CardNumber, op.PayCreditCard.Amount,
			op.PayCreditCard.SourceAccount, op.PayCreditCard.IsCash)
	case models.OpMakePurchase:
		return w.bank.MakePurchase(op.Purchase.CardNumber, op.Purchase.Amount, op.Purchase.Merchant)
	case models.OpApplyInterest:
		w.bank.ApplyMonthlyInterest()
		return nil
	case models.OpBlockCard:
		return w.bank.BlockCard(op.Card.CardNumber)
	case models.OpGetCardInfo:
		info, err := w.bank.GetCardInfo(op.Card.CardNumber)
		if err != nil {
			return err
		}
		w.sink.AddEvent(w.ID, "CARD_INFO_RESULT",
			fmt.Sprintf("карта %s (%s %s), статус: %s", info.Number, info.Kind, info.Type, info.Status),
			utils.SeverityInfo)
		return nil

	// Операции консультанта
	case models.OpCreateCustomer:
		_, err := w.bank.AddCustomer(op.CreateCustomer.Name, op.CreateCustomer.Email)
		return err
	case models.OpDeleteCustomer:
		return w.bank.DeleteCustomer(op.Customer.CustomerID)
	case models.OpCreateAccount:
		_, err := w.bank.AddAccount(op.CreateAccount.CustomerID,
			op.CreateAccount.InitialBalance, op.CreateAccount.NIP)
		return err
	case models.OpCloseAccount:
		return w.bank.CloseAccount(op.AccountQuery.AccountID)
	case models.OpLinkAccount:
		return w.bank.LinkAccount(op.LinkAccount.AccountID, op.LinkAccount.CustomerID)
	case models.OpIssueDebitCard:
		_, err := w.bank.IssueDebitCard(op.IssueDebitCard.AccountID, op.IssueDebitCard.CardType)
		return err
	case models.OpIssueCreditCard:
		_, err := w.bank.IssueCreditCard(op.IssueCreditCard.CustomerID, op.IssueCreditCard.CardType)
		return err
	case models.OpDeactivateCard:
		return w.bank.DeactivateCard(op.Card.CardNumber)
	}

	return &models.BankError{
		Category: models.CategoryValidation,
		Message:  "неизвестная операция: " + string(op.Type),
	}
}
