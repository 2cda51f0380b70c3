package services

import (
	"testing"
	"time"

	"bankProject/config"
	"bankProject/models"
	"bankProject/utils"
)

func newTestDispatcher(cfg *config.Config) (*DispatcherService, *BankService) {
	utils.GetMetrics().ResetMetrics()
	sink := utils.NoopSink{}
	locks := utils.NewBankLocks(cfg.Bank.NumTellers, cfg.Bank.NumAdvisors, sink)
	bank := NewBankService(cfg, locks, sink)
	return NewDispatcherService(cfg, bank, sink), bank
}

func waitTerminal(t *testing.T, turns []*models.Turn, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		done := true
		for _, turn := range turns {
			if !turn.IsTerminal() {
				done = false
				break
			}
		}
		if done {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("turns did not reach terminal status in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDispatcherServesTurnsByPriority(t *testing.T) {
	dispatcher, bank := newTestDispatcher(newTestConfig())

	customer, err := bank.AddCustomer("Иван Петров", "ivan@example.com")
	if err != nil {
		t.Fatal(err)
	}
	account, err := bank.AddAccount(customer.ID, 1000, "1234")
	if err != nil {
		t.Fatal(err)
	}

	turn, err := dispatcher.Submit(customer.ID, "", []*models.Operation{
		{Type: models.OpDeposit, Deposit: &models.DepositPayload{
			AccountID: account.AccountID, Amount: 500}},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Клиент без карты получает приоритет 3 и префикс C
	if turn.Priority != 3 {
		t.Errorf("priority without card: got %d want 3", turn.Priority)
	}
	if turn.ID != "C001" {
		t.Errorf("turn id: got %s want C001", turn.ID)
	}

	dispatcher.Start()
	defer dispatcher.Stop()

	waitTerminal(t, []*models.Turn{turn}, 5*time.Second)

	if turn.Status() != models.TurnStatusCompleted {
		t.Errorf("turn status: got %s want %s", turn.Status(), models.TurnStatusCompleted)
	}
	balance, _ := bank.GetAccountBalance(account.AccountID)
	if balance != 1500 {
		t.Errorf("balance after turn: got %.2f want 1500", balance)
	}

	// Операция попала в журнал одного из кассиров
	entries := 0
	for _, teller := range dispatcher.tellers {
		entries += len(teller.History())
	}
	if entries != 1 {
		t.Errorf("teller history entries: got %d want 1", entries)
	}
}

func TestDispatcherVIPPriorityFromCreditCard(t *testing.T) {
	dispatcher, bank := newTestDispatcher(newTestConfig())

	customer, _ := bank.AddCustomer("Иван Петров", "ivan@example.com")
	card, err := bank.IssueCreditCard(customer.ID, models.CardTypePlatinum)
	if err != nil {
		t.Fatal(err)
	}

	turn, err := dispatcher.Submit(customer.ID, card.Number, []*models.Operation{
		{Type: models.OpGetCardInfo, Card: &models.CardPayload{CardNumber: card.Number}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if turn.Priority != 1 {
		t.Errorf("platinum credit priority: got %d want 1", turn.Priority)
	}
	if turn.ID != "VIP001" {
		t.Errorf("turn id: got %s want VIP001", turn.ID)
	}
}

func TestDispatcherBoundedTellerConcurrency(t *testing.T) {
	cfg := newTestConfig()
	cfg.Bank.NumTellers = 2
	dispatcher, bank := newTestDispatcher(cfg)

	customer, _ := bank.AddCustomer("Иван Петров", "ivan@example.com")
	account, err := bank.AddAccount(customer.ID, 100000, "1234")
	if err != nil {
		t.Fatal(err)
	}

	// Снятие достаточно медленное из-за проверки НИП, чтобы
	// наблюдать одновременную обработку
	turns := make([]*models.Turn, 0, 5)
	for i := 0; i < 5; i++ {
		turn, err := dispatcher.Submit(customer.ID, "", []*models.Operation{
			{Type: models.OpWithdraw, Withdraw: &models.WithdrawPayload{
				AccountID: account.AccountID, Amount: 100, NIP: "1234"}},
		})
		if err != nil {
			t.Fatal(err)
		}
		turns = append(turns, turn)
	}

	dispatcher.Start()
	defer dispatcher.Stop()

	// Одновременно в обработке не больше, чем кассиров
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		inProgress := 0
		done := true
		for _, turn := range turns {
			switch turn.Status() {
			case models.TurnStatusInProgress:
				inProgress++
				done = false
			case models.TurnStatusPending:
				done = false
			}
		}
		if inProgress > cfg.Bank.NumTellers {
			t.Fatalf("in progress: got %d, capacity %d", inProgress, cfg.Bank.NumTellers)
		}
		if done {
			break
		}
		time.Sleep(time.Millisecond)
	}

	waitTerminal(t, turns, 10*time.Second)

	for _, turn := range turns {
		if turn.Status() != models.TurnStatusCompleted {
			t.Errorf("turn %s: got %s want %s", turn.ID, turn.Status(), models.TurnStatusCompleted)
		}
	}
	balance, _ := bank.GetAccountBalance(account.AccountID)
	if balance != 99500 {
		t.Errorf("balance after 5 withdrawals: got %.2f want 99500", balance)
	}
}

func TestDispatcherRoutesAdvisorOperations(t *testing.T) {
	dispatcher, bank := newTestDispatcher(newTestConfig())

	turn, err := dispatcher.Submit("", "", []*models.Operation{
		{Type: models.OpCreateCustomer, CreateCustomer: &models.CreateCustomerPayload{
			Name: "Олег Козлов", Email: "oleg@example.com"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	dispatcher.Start()
	defer dispatcher.Stop()

	waitTerminal(t, []*models.Turn{turn}, 5*time.Second)

	if turn.Status() != models.TurnStatusCompleted {
		t.Fatalf("turn status: got %s want %s", turn.Status(), models.TurnStatusCompleted)
	}

	// Операция выполнена консультантом, клиент создан
	if _, err := bank.GetCustomerByEmail("oleg@example.com"); err != nil {
		t.Errorf("customer not created: %v", err)
	}
}

func TestDispatcherMarksFailedTurn(t *testing.T) {
	dispatcher, _ := newTestDispatcher(newTestConfig())

	turn, err := dispatcher.Submit("", "", []*models.Operation{
		{Type: models.OpDeposit, Deposit: &models.DepositPayload{
			AccountID: "no-such-account", Amount: 100}},
	})
	if err != nil {
		t.Fatal(err)
	}

	dispatcher.Start()
	defer dispatcher.Stop()

	waitTerminal(t, []*models.Turn{turn}, 5*time.Second)

	if turn.Status() != models.TurnStatusFailed {
		t.Errorf("turn status: got %s want %s", turn.Status(), models.TurnStatusFailed)
	}

	// Неудача отражается в метриках
	snapshot := utils.GetMetrics().GetMetricsSnapshot()
	if snapshot["turns_failed"].(int64) != 1 {
		t.Errorf("turns_failed metric: got %v want 1", snapshot["turns_failed"])
	}
}

func TestDispatcherCapsOperationsPerTurn(t *testing.T) {
	cfg := newTestConfig()
	cfg.Bank.MaxOpsPerTurn = 3
	dispatcher, bank := newTestDispatcher(cfg)

	customer, _ := bank.AddCustomer("Иван Петров", "ivan@example.com")
	account, _ := bank.AddAccount(customer.ID, 1000, "1234")

	// Пять депозитов в одном талоне: выполняются только первые три
	ops := make([]*models.Operation, 0, 5)
	for i := 0; i < 5; i++ {
		ops = append(ops, &models.Operation{
			Type:    models.OpDeposit,
			Deposit: &models.DepositPayload{AccountID: account.AccountID, Amount: 100},
		})
	}

	turn, err := dispatcher.Submit(customer.ID, "", ops)
	if err != nil {
		t.Fatal(err)
	}

	dispatcher.Start()
	defer dispatcher.Stop()

	waitTerminal(t, []*models.Turn{turn}, 5*time.Second)

	balance, _ := bank.GetAccountBalance(account.AccountID)
	if balance != 1300 {
		t.Errorf("balance after capped turn: got %.2f want 1300", balance)
	}
}

func TestDispatcherRejectsUnknownCard(t *testing.T) {
	dispatcher, _ := newTestDispatcher(newTestConfig())

	_, err := dispatcher.Submit("customer-1", "4000000000000000", nil)
	if err != models.ErrCardNotFound {
		t.Errorf("unknown card: got %v want %v", err, models.ErrCardNotFound)
	}
}

func TestDispatcherTurnStatusQuery(t *testing.T) {
	dispatcher, _ := newTestDispatcher(newTestConfig())

	turn, err := dispatcher.SubmitWithPriority("customer-1", "", 2, nil)
	if err != nil {
		t.Fatal(err)
	}

	status, err := dispatcher.TurnStatus(turn.ID)
	if err != nil {
		t.Fatal(err)
	}
	if status != models.TurnStatusPending {
		t.Errorf("status before start: got %s want %s", status, models.TurnStatusPending)
	}

	if _, err := dispatcher.TurnStatus("VIP999"); err != models.ErrTurnNotFound {
		t.Errorf("unknown turn: got %v want %v", err, models.ErrTurnNotFound)
	}
}

func TestDispatcherServesTellersPastBlockedAdvisorTurn(t *testing.T) {
	cfg := newTestConfig()
	cfg.Bank.NumAdvisors = 1
	dispatcher, bank := newTestDispatcher(cfg)

	customer, _ := bank.AddCustomer("Иван Петров", "ivan@example.com")
	account, err := bank.AddAccount(customer.ID, 1000, "1234")
	if err != nil {
		t.Fatal(err)
	}

	// Занимаем единственный слот консультантов, талон к консультанту
	// становится недопустимым
	if !bank.Locks().Advisors.TryAcquire() {
		t.Fatal("advisor slot must be free")
	}

	advisorTurn, err := dispatcher.Submit("", "", []*models.Operation{
		{Type: models.OpCreateCustomer, CreateCustomer: &models.CreateCustomerPayload{
			Name: "Олег Козлов", Email: "oleg@example.com"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	tellerTurn, err := dispatcher.Submit(customer.ID, "", []*models.Operation{
		{Type: models.OpDeposit, Deposit: &models.DepositPayload{
			AccountID: account.AccountID, Amount: 500}},
	})
	if err != nil {
		t.Fatal(err)
	}

	dispatcher.Start()
	defer dispatcher.Stop()

	// Кассирский талон обслуживается, хотя перед ним в очереди стоит
	// недопустимый консультантский
	waitTerminal(t, []*models.Turn{tellerTurn}, 5*time.Second)
	if tellerTurn.Status() != models.TurnStatusCompleted {
		t.Fatalf("teller turn: got %s want %s", tellerTurn.Status(), models.TurnStatusCompleted)
	}
	if advisorTurn.IsTerminal() {
		t.Fatalf("advisor turn finished with the pool full: %s", advisorTurn.Status())
	}

	// После освобождения слота консультантский талон дообслуживается
	bank.Locks().Advisors.Release()
	waitTerminal(t, []*models.Turn{advisorTurn}, 5*time.Second)
	if advisorTurn.Status() != models.TurnStatusCompleted {
		t.Errorf("advisor turn: got %s want %s", advisorTurn.Status(), models.TurnStatusCompleted)
	}
}
