package main

import (
	"fmt"
	"log"
	"time"

	"bankProject/config"
	"bankProject/models"
	"bankProject/services"
	"bankProject/utils"
)

func main() {
	// Инициализируем конфигурацию
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// Журнал событий с цветным выводом в консоль
	sink := utils.NewConsoleSink(500, cfg.Log.Quiet)

	// Блокировки и пулы сотрудников
	locks := utils.NewBankLocks(cfg.Bank.NumTellers, cfg.Bank.NumAdvisors, sink)

	// Банк и сопутствующие сервисы
	bank := services.NewBankService(cfg, locks, sink)
	bank.SetNotifier(services.NewNotificationService(cfg))
	statements := services.NewStatementService(bank)

	// Диспетчер очереди талонов
	dispatcher := services.NewDispatcherService(cfg, bank, sink)
	dispatcher.Start()
	log.Printf("Банк открыт: %d кассиров, %d консультантов", cfg.Bank.NumTellers, cfg.Bank.NumAdvisors)

	// Готовим клиентов и счета напрямую, минуя очередь
	ivan, err := bank.AddCustomer("Иван Петров", "ivan@example.com")
	if err != nil {
		log.Fatalf("Ошибка создания клиента: %v", err)
	}
	maria, err := bank.AddCustomer("Мария Сидорова", "maria@example.com")
	if err != nil {
		log.Fatalf("Ошибка создания клиента: %v", err)
	}

	ivanAccount, err := bank.AddAccount(ivan.ID, 5000, "1234")
	if err != nil {
		log.Fatalf("Ошибка создания счета: %v", err)
	}
	mariaAccount, err := bank.AddAccount(maria.ID, 3000, "5678")
	if err != nil {
		log.Fatalf("Ошибка создания счета: %v", err)
	}

	// Карты: платиновая кредитная дает Ивану приоритет VIP
	ivanCard, err := bank.IssueCreditCard(ivan.ID, models.CardTypePlatinum)
	if err != nil {
		log.Fatalf("Ошибка выпуска карты: %v", err)
	}
	mariaCard, err := bank.IssueDebitCard(mariaAccount.AccountID, models.CardTypeNormal)
	if err != nil {
		log.Fatalf("Ошибка выпуска карты: %v", err)
	}

	// Клиенты берут талоны одновременно
	turns := make([]*models.Turn, 0, 4)

	t1, err := dispatcher.Submit(ivan.ID, ivanCard.Number, []*models.Operation{
		{Type: models.OpMakePurchase, Purchase: &models.PurchasePayload{
			CardNumber: ivanCard.Number, Amount: 1500, Merchant: "Техника-Маркет"}},
		{Type: models.OpGetCardInfo, Card: &models.CardPayload{CardNumber: ivanCard.Number}},
	})
	if err != nil {
		log.Fatalf("Ошибка подачи талона: %v", err)
	}
	turns = append(turns, t1)

	t2, err := dispatcher.Submit(maria.ID, mariaCard.Number, []*models.Operation{
		{Type: models.OpDeposit, Deposit: &models.DepositPayload{
			AccountID: mariaAccount.AccountID, Amount: 1200}},
		{Type: models.OpWithdraw, Withdraw: &models.WithdrawPayload{
			AccountID: mariaAccount.AccountID, Amount: 500, NIP: "5678"}},
	})
	if err != nil {
		log.Fatalf("Ошибка подачи талона: %v", err)
	}
	turns = append(turns, t2)

	t3, err := dispatcher.Submit(ivan.ID, "", []*models.Operation{
		{Type: models.OpTransfer, Transfer: &models.TransferPayload{
			SourceID: ivanAccount.AccountID, TargetID: mariaAccount.AccountID,
			Amount: 800, NIP: "1234"}},
	})
	if err != nil {
		log.Fatalf("Ошибка подачи талона: %v", err)
	}
	turns = append(turns, t3)

	// Талон к консультанту: новый клиент без карты
	t4, err := dispatcher.Submit("", "", []*models.Operation{
		{Type: models.OpCreateCustomer, CreateCustomer: &models.CreateCustomerPayload{
			Name: "Олег Козлов", Email: "oleg@example.com"}},
	})
	if err != nil {
		log.Fatalf("Ошибка подачи талона: %v", err)
	}
	turns = append(turns, t4)

	// Ждем обслуживания всех талонов
	for pending := true; pending; {
		pending = false
		for _, t := range turns {
			if !t.IsTerminal() {
				pending = true
				break
			}
		}
		if pending {
			time.Sleep(50 * time.Millisecond)
		}
	}

	for _, t := range turns {
		log.Printf("Талон %s: %s", t.ID, t.Status())
	}

	// Погашаем часть долга и начисляем месячные проценты
	if err := bank.PayCreditCard(ivanCard.Number, 1000, ivanAccount.AccountID, false); err != nil {
		log.Printf("Ошибка платежа по карте: %v", err)
	}
	count, total := bank.ApplyMonthlyInterest()
	log.Printf("Проценты начислены %d картам на сумму $%.2f", count, total)

	// Новый операционный день: дневные лимиты дебетовых карт обнуляются
	reset := bank.ResetDailyLimits()
	log.Printf("Дневные лимиты сброшены у %d карт", reset)

	// Выписка по счету Марии за месяц
	statement, err := statements.Generate(mariaAccount.AccountID, 30)
	if err != nil {
		log.Fatalf("Ошибка формирования выписки: %v", err)
	}
	if err := statements.ExportToFile(statement, "statement.xml"); err != nil {
		log.Printf("Ошибка экспорта выписки: %v", err)
	} else {
		log.Printf("Выписка сохранена: statement.xml (%d транзакций)", len(statement.Transactions))
	}

	dispatcher.Stop()

	// Итоговые метрики за сессию
	fmt.Println("\n=== Метрики сессии ===")
	for key, value := range utils.GetMetrics().GetMetricsSnapshot() {
		fmt.Printf("%s: %v\n", key, value)
	}
}
