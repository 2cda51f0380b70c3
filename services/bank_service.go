package services

import (
	"fmt"
	"sync"

	"bankProject/config"
	"bankProject/models"
	"bankProject/utils"

	"github.com/go-playground/validator/v10"
)

// BankService является единственным мутатором реестров банка.
// Каждый публичный метод атомарен относительно блокировок, которые он
// объявляет; порядок захвата всегда customers -> accounts -> cards.
type BankService struct {
	accounts  map[string]*models.Account
	customers map[string]*models.Customer
	cards     map[string]*models.Card

	// Общий журнал пополняется из секций под разными блокировками,
	// поэтому защищен собственным мьютексом
	auditMu  sync.Mutex
	auditLog []*models.Transaction

	locks     *utils.BankLocks
	sink      utils.EventSink
	notifier  *NotificationService
	validator *validator.Validate
	hmacKey   []byte
}

// NewBankService создает банк с пустыми реестрами
func NewBankService(cfg *config.Config, locks *utils.BankLocks, sink utils.EventSink) *BankService {
	if sink == nil {
		sink = utils.NoopSink{}
	}
	return &BankService{
		accounts:  make(map[string]*models.Account),
		customers: make(map[string]*models.Customer),
		cards:     make(map[string]*models.Card),
		locks:     locks,
		sink:      sink,
		validator: validator.New(),
		hmacKey:   []byte(cfg.Bank.CardHMACKey),
	}
}

// SetNotifier подключает сервис уведомлений (опционально)
func (s *BankService) SetNotifier(notifier *NotificationService) {
	s.notifier = notifier
}

// Locks возвращает набор блокировок банка
func (s *BankService) Locks() *utils.BankLocks {
	return s.locks
}

// ---- Клиенты ----

// AddCustomer создает нового клиента с уникальным email
func (s *BankService) AddCustomer(name, email string) (*models.Customer, error) {
	s.sink.AddEvent("bank", "ADD_CUSTOMER_START",
		fmt.Sprintf("новый клиент: %s (%s)", name, email), utils.SeverityInfo)

	// Проверяем формат email
	if err := s.validator.Var(email, "required,email"); err != nil {
		return nil, &models.BankError{
			Category: models.CategoryValidation,
			Message:  "некорректный email: " + email,
		}
	}

	s.locks.Customers.Lock()
	defer s.locks.Customers.Unlock()

	// Проверяем уникальность email
	for _, c := range s.customers {
		if c.Email == email {
			s.sink.AddEvent("bank", "ADD_CUSTOMER_FAILED",
				fmt.Sprintf("email %s уже зарегистрирован", email), utils.SeverityError)
			return nil, models.ErrDuplicateEmail
		}
	}

	customer := models.NewCustomer(name, email)
	s.customers[customer.ID] = customer

	s.sink.AddEvent("bank", "ADD_CUSTOMER_SUCCESS",
		fmt.Sprintf("клиент создан: %s (ID: %s)", name, customer.ID), utils.SeveritySuccess)
	return customer, nil
}

// DeleteCustomer удаляет клиента из реестра
func (s *BankService) DeleteCustomer(customerID string) error {
	s.locks.Customers.Lock()
	defer s.locks.Customers.Unlock()

	if _, ok := s.customers[customerID]; !ok {
		s.sink.AddEvent("bank", "DELETE_CUSTOMER_FAILED",
			fmt.Sprintf("клиент %s не найден", customerID), utils.SeverityError)
		return models.ErrCustomerNotFound
	}

	delete(s.customers, customerID)
	s.sink.AddEvent("bank", "DELETE_CUSTOMER_SUCCESS",
		fmt.Sprintf("клиент %s удален", customerID), utils.SeverityWarning)
	return nil
}

// GetCustomer возвращает клиента по идентификатору
func (s *BankService) GetCustomer(customerID string) (*models.Customer, error) {
	s.locks.Customers.Lock()
	defer s.locks.Customers.Unlock()

	customer, ok := s.customers[customerID]
	if !ok {
		return nil, models.ErrCustomerNotFound
	}
	return customer, nil
}

// GetCustomerByEmail ищет клиента по email
func (s *BankService) GetCustomerByEmail(email string) (*models.Customer, error) {
	s.locks.Customers.Lock()
	defer s.locks.Customers.Unlock()

	for _, c := range s.customers {
		if c.Email == email {
			return c, nil
		}
	}
	return nil, models.ErrCustomerNotFound
}

// GetCustomerAccounts возвращает счета, привязанные к клиенту
func (s *BankService) GetCustomerAccounts(customerID string) ([]*models.Account, error) {
	s.locks.Customers.Lock()
	defer s.locks.Customers.Unlock()

	customer, ok := s.customers[customerID]
	if !ok {
		return nil, models.ErrCustomerNotFound
	}

	accounts := make([]*models.Account, len(customer.Accounts))
	copy(accounts, customer.Accounts)
	return accounts, nil
}

// ---- Счета ----

// AddAccount создает счет для клиента и привязывает его.
// Если привязка не удалась, созданный счет удаляется (компенсация).
func (s *BankService) AddAccount(customerID string, initialBalance float64, nip string) (*models.Account, error) {
	s.sink.AddEvent("bank", "ADD_ACCOUNT_START",
		fmt.Sprintf("новый счет для клиента %s", customerID), utils.SeverityInfo)

	if initialBalance < 0 {
		return nil, models.ErrInvalidAmount
	}
	if !utils.ValidNIPFormat(nip) {
		return nil, models.ErrInvalidNIPFormat
	}

	nipHash, err := utils.HashNIP(nip)
	if err != nil {
		return nil, models.NewInternalError(err.Error())
	}

	// Порядок захвата: customers, затем accounts
	s.locks.Customers.Lock()
	defer s.locks.Customers.Unlock()

	customer, ok := s.customers[customerID]
	if !ok {
		s.sink.AddEvent("bank", "ADD_ACCOUNT_FAILED",
			fmt.Sprintf("клиент %s не найден", customerID), utils.SeverityError)
		return nil, models.ErrCustomerNotFound
	}

	s.locks.Accounts.Lock()
	defer s.locks.Accounts.Unlock()

	account := models.NewAccount(s.generateAccountNumber(), customerID, initialBalance, nipHash)
	s.accounts[account.AccountID] = account

	if err := customer.LinkAccount(account); err != nil {
		// Компенсация: откатываем создание счета
		delete(s.accounts, account.AccountID)
		s.sink.AddEvent("bank", "ADD_ACCOUNT_FAILED",
			fmt.Sprintf("привязка счета %s не удалась", account.AccountID), utils.SeverityError)
		return nil, models.ErrLinkFailed
	}

	s.sink.AddEvent("bank", "ADD_ACCOUNT_SUCCESS",
		fmt.Sprintf("счет %s создан с балансом $%.2f", account.AccountID, initialBalance), utils.SeveritySuccess)
	return account, nil
}

// CloseAccount закрывает счет и убирает ссылку у владельца
func (s *BankService) CloseAccount(accountID string) error {
	// Порядок захвата: customers, затем accounts
	s.locks.Customers.Lock()
	defer s.locks.Customers.Unlock()
	s.locks.Accounts.Lock()
	defer s.locks.Accounts.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		s.sink.AddEvent("bank", "CLOSE_ACCOUNT_FAILED",
			fmt.Sprintf("счет %s не найден", accountID), utils.SeverityError)
		return models.ErrAccountNotFound
	}

	if owner, ok := s.customers[account.CustomerID]; ok {
		owner.UnlinkAccount(accountID)
	}
	delete(s.accounts, accountID)

	s.sink.AddEvent("bank", "CLOSE_ACCOUNT_SUCCESS",
		fmt.Sprintf("счет %s закрыт (остаток $%.2f)", accountID, account.Balance), utils.SeverityWarning)
	return nil
}

// LinkAccount привязывает существующий счет к клиенту с проверкой
// принадлежности
func (s *BankService) LinkAccount(accountID, customerID string) error {
	// Порядок захвата: customers, затем accounts
	s.locks.Customers.Lock()
	defer s.locks.Customers.Unlock()

	customer, ok := s.customers[customerID]
	if !ok {
		return models.ErrCustomerNotFound
	}

	s.locks.Accounts.Lock()
	defer s.locks.Accounts.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return models.ErrAccountNotFound
	}

	if err := customer.LinkAccount(account); err != nil {
		s.sink.AddEvent("bank", "LINK_ACCOUNT_FAILED",
			fmt.Sprintf("счет %s не принадлежит клиенту %s", accountID, customerID), utils.SeverityError)
		return err
	}

	s.sink.AddEvent("bank", "LINK_ACCOUNT_SUCCESS",
		fmt.Sprintf("счет %s привязан к клиенту %s", accountID, customerID), utils.SeveritySuccess)
	return nil
}

// UnlockAccount снимает блокировку счета после проверки личности
// (решение принимает оператор, не система)
func (s *BankService) UnlockAccount(accountID string) error {
	s.locks.Accounts.Lock()
	defer s.locks.Accounts.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return models.ErrAccountNotFound
	}

	account.Unlock()
	s.sink.AddEvent("bank", "ACCOUNT_UNLOCKED",
		fmt.Sprintf("счет %s разблокирован", accountID), utils.SeverityWarning)
	return nil
}

// ---- Денежные операции ----

// Deposit пополняет счет
func (s *BankService) Deposit(accountID string, amount float64) error {
	s.sink.AddEvent("bank", "DEPOSIT_INITIATED",
		fmt.Sprintf("депозит $%.2f на счет %s", amount, accountID), utils.SeverityInfo)

	if amount <= 0 {
		s.sink.AddEvent("bank", "DEPOSIT_FAILED",
			fmt.Sprintf("неверная сумма: $%.2f", amount), utils.SeverityError)
		return models.ErrInvalidAmount
	}

	err := func() error {
		s.locks.Accounts.Lock()
		defer s.locks.Accounts.Unlock()

		account, ok := s.accounts[accountID]
		if !ok {
			return models.ErrAccountNotFound
		}

		account.Balance += amount

		tx := models.NewTransaction(accountID, amount, models.TransactionTypeDeposit)
		account.AddTransaction(tx)
		s.appendAudit(tx)

		s.sink.AddEvent("bank", "DEPOSIT_COMPLETED",
			fmt.Sprintf("новый баланс счета %s: $%.2f", accountID, account.Balance), utils.SeveritySuccess)
		return nil
	}()
	if err != nil {
		s.sink.AddEvent("bank", "DEPOSIT_FAILED", err.Error(), utils.SeverityError)
		return err
	}

	s.notifyTransaction(accountID, amount, "Пополнение")
	return nil
}

// Withdraw снимает средства со счета; НИП обязателен
func (s *BankService) Withdraw(accountID string, amount float64, nip string) error {
	s.sink.AddEvent("bank", "WITHDRAWAL_INITIATED",
		fmt.Sprintf("снятие $%.2f со счета %s", amount, accountID), utils.SeverityInfo)

	if amount <= 0 {
		s.sink.AddEvent("bank", "WITHDRAWAL_FAILED",
			fmt.Sprintf("неверная сумма: $%.2f", amount), utils.SeverityError)
		return models.ErrInvalidAmount
	}

	err := func() error {
		s.locks.Accounts.Lock()
		defer s.locks.Accounts.Unlock()

		account, ok := s.accounts[accountID]
		if !ok {
			return models.ErrAccountNotFound
		}

		// Проверка НИП сама увеличивает счетчик попыток и блокирует
		// счет после трех неудач
		if err := account.CheckNIP(nip); err != nil {
			return err
		}

		if account.Balance < amount {
			return models.ErrInsufficientFunds
		}

		account.Balance -= amount

		tx := models.NewTransaction(accountID, amount, models.TransactionTypeWithdrawal)
		account.AddTransaction(tx)
		s.appendAudit(tx)

		s.sink.AddEvent("bank", "WITHDRAWAL_COMPLETED",
			fmt.Sprintf("новый баланс счета %s: $%.2f", accountID, account.Balance), utils.SeveritySuccess)
		return nil
	}()
	if err != nil {
		s.sink.AddEvent("bank", "WITHDRAWAL_FAILED", err.Error(), utils.SeverityError)
		return err
	}

	s.notifyTransaction(accountID, amount, "Снятие")
	return nil
}

// Transfer переводит средства между счетами в одной критической
// секции, чтобы исключить частичное применение. НИП проверяется,
// только если он передан.
func (s *BankService) Transfer(sourceID, targetID string, amount float64, nip string) error {
	s.sink.AddEvent("bank", "TRANSFER_INITIATED",
		fmt.Sprintf("перевод $%.2f: %s -> %s", amount, sourceID, targetID), utils.SeverityInfo)

	if amount <= 0 {
		return models.ErrInvalidAmount
	}
	if sourceID == targetID {
		s.sink.AddEvent("bank", "TRANSFER_FAILED",
			"перевод на тот же счет", utils.SeverityError)
		return models.ErrSelfTransfer
	}

	err := func() error {
		s.locks.Accounts.Lock()
		defer s.locks.Accounts.Unlock()

		source, ok := s.accounts[sourceID]
		if !ok {
			return models.ErrAccountNotFound
		}
		target, ok := s.accounts[targetID]
		if !ok {
			return models.ErrAccountNotFound
		}

		if nip != "" {
			if err := source.CheckNIP(nip); err != nil {
				return err
			}
		}

		if source.Balance < amount {
			return models.ErrInsufficientFunds
		}

		// Атомарное перемещение средств
		source.Balance -= amount
		target.Balance += amount

		sourceTx := models.NewTransaction(sourceID, amount, models.TransactionTypeTransfer)
		sourceTx.TargetAccountID = targetID
		targetTx := models.NewTransaction(targetID, amount, models.TransactionTypeDeposit)
		targetTx.TargetAccountID = sourceID
		targetTx.Description = "Перевод со счета " + sourceID

		source.AddTransaction(sourceTx)
		target.AddTransaction(targetTx)
		s.appendAudit(sourceTx, targetTx)

		s.sink.AddEvent("bank", "TRANSFER_COMPLETED",
			fmt.Sprintf("новые балансы: %s=$%.2f, %s=$%.2f",
				sourceID, source.Balance, targetID, target.Balance), utils.SeveritySuccess)
		return nil
	}()
	if err != nil {
		s.sink.AddEvent("bank", "TRANSFER_FAILED", err.Error(), utils.SeverityError)
		return err
	}

	s.notifyTransaction(sourceID, amount, "Перевод")
	return nil
}

// ---- Карты ----

// IssueDebitCard выпускает дебетовую карту для счета
func (s *BankService) IssueDebitCard(accountID string, cardType models.CardType) (*models.Card, error) {
	s.sink.AddEvent("bank", "ISSUE_DEBIT_CARD_START",
		fmt.Sprintf("выпуск дебетовой карты для счета %s", accountID), utils.SeverityInfo)

	// Проверяем владельца под его блокировкой и освобождаем ее
	// до захвата cards
	account, err := func() (*models.Account, error) {
		s.locks.Accounts.Lock()
		defer s.locks.Accounts.Unlock()

		account, ok := s.accounts[accountID]
		if !ok {
			return nil, models.ErrAccountNotFound
		}
		return account, nil
	}()
	if err != nil {
		s.sink.AddEvent("bank", "ISSUE_DEBIT_CARD_FAILED", err.Error(), utils.SeverityError)
		return nil, err
	}

	s.locks.Cards.Lock()
	defer s.locks.Cards.Unlock()

	card := models.NewDebitCard(cardType, accountID)
	card.NumberHMAC = utils.CalculateHMAC(card.Number, s.hmacKey)
	card.Activate()
	s.cards[card.Number] = card
	account.AddCard(card)

	s.sink.AddEvent("bank", "ISSUE_DEBIT_CARD_SUCCESS",
		fmt.Sprintf("выпущена карта %s (%s)", card.MaskedNumber(), cardType), utils.SeveritySuccess)
	return card, nil
}

// IssueCreditCard выпускает кредитную карту для клиента
func (s *BankService) IssueCreditCard(customerID string, cardType models.CardType) (*models.Card, error) {
	s.sink.AddEvent("bank", "ISSUE_CREDIT_CARD_START",
		fmt.Sprintf("выпуск кредитной карты для клиента %s", customerID), utils.SeverityInfo)

	customer, err := func() (*models.Customer, error) {
		s.locks.Customers.Lock()
		defer s.locks.Customers.Unlock()

		customer, ok := s.customers[customerID]
		if !ok {
			return nil, models.ErrCustomerNotFound
		}
		return customer, nil
	}()
	if err != nil {
		s.sink.AddEvent("bank", "ISSUE_CREDIT_CARD_FAILED", err.Error(), utils.SeverityError)
		return nil, err
	}

	s.locks.Cards.Lock()
	defer s.locks.Cards.Unlock()

	card := models.NewCreditCard(cardType, customerID)
	card.NumberHMAC = utils.CalculateHMAC(card.Number, s.hmacKey)
	card.Activate()
	s.cards[card.Number] = card
	customer.AddCreditCard(card)

	s.sink.AddEvent("bank", "ISSUE_CREDIT_CARD_SUCCESS",
		fmt.Sprintf("выпущена карта %s (лимит $%.2f)", card.MaskedNumber(), card.CreditLimit), utils.SeveritySuccess)
	return card, nil
}

// GetCard возвращает карту по номеру, сверяя подпись номера
func (s *BankService) GetCard(cardNumber string) (*models.Card, error) {
	s.locks.Cards.Lock()
	defer s.locks.Cards.Unlock()

	card, ok := s.cards[cardNumber]
	if !ok {
		return nil, models.ErrCardNotFound
	}

	// Расхождение подписи означает подмену записи в реестре
	if !utils.ValidateHMAC(card.Number, card.NumberHMAC, s.hmacKey) {
		s.sink.AddEvent("bank", "CARD_SIGNATURE_MISMATCH",
			fmt.Sprintf("подпись карты %s не совпадает", card.MaskedNumber()), utils.SeverityError)
		return nil, models.NewInternalError("подпись номера карты не совпадает")
	}
	return card, nil
}

// BlockCard блокирует карту, не удаляя ее из реестра
func (s *BankService) BlockCard(cardNumber string) error {
	s.locks.Cards.Lock()
	defer s.locks.Cards.Unlock()

	card, ok := s.cards[cardNumber]
	if !ok {
		s.sink.AddEvent("bank", "BLOCK_CARD_FAILED",
			fmt.Sprintf("карта %s не найдена", cardNumber), utils.SeverityError)
		return models.ErrCardNotFound
	}

	card.Block()
	s.sink.AddEvent("bank", "BLOCK_CARD_SUCCESS",
		fmt.Sprintf("карта %s заблокирована", card.MaskedNumber()), utils.SeverityWarning)
	return nil
}

// DeactivateCard удаляет карту из реестра и из списка владельца.
// Кредитную карту с непогашенным остатком деактивировать нельзя.
// Операции нужны все три блокировки, берем их в фиксированном порядке.
func (s *BankService) DeactivateCard(cardNumber string) error {
	s.locks.Customers.Lock()
	defer s.locks.Customers.Unlock()
	s.locks.Accounts.Lock()
	defer s.locks.Accounts.Unlock()
	s.locks.Cards.Lock()
	defer s.locks.Cards.Unlock()

	card, ok := s.cards[cardNumber]
	if !ok {
		s.sink.AddEvent("bank", "DEACTIVATE_CARD_FAILED",
			fmt.Sprintf("карта %s не найдена", cardNumber), utils.SeverityError)
		return models.ErrCardNotFound
	}

	if card.Kind == models.CardKindCredit && card.OutstandingBalance > 0 {
		s.sink.AddEvent("bank", "DEACTIVATE_CARD_FAILED",
			fmt.Sprintf("карта %s имеет остаток $%.2f", card.MaskedNumber(), card.OutstandingBalance), utils.SeverityError)
		return models.ErrOutstandingBalance
	}

	card.Block()
	delete(s.cards, cardNumber)

	// Убираем карту из списка владельца
	if card.Kind == models.CardKindCredit {
		if owner, ok := s.customers[card.CustomerID]; ok {
			owner.RemoveCreditCard(cardNumber)
		}
	} else {
		if owner, ok := s.accounts[card.AccountID]; ok {
			owner.RemoveCard(cardNumber)
		}
	}

	s.sink.AddEvent("bank", "DEACTIVATE_CARD_SUCCESS",
		fmt.Sprintf("карта %s деактивирована", card.MaskedNumber()), utils.SeverityWarning)
	return nil
}

// PayCreditCard применяет платеж к кредитной карте.
// Если платеж не наличными, сначала списывается счет-источник.
func (s *BankService) PayCreditCard(cardNumber string, amount float64, sourceAccount string, isCash bool) error {
	s.sink.AddEvent("bank", "CREDIT_PAYMENT_START",
		fmt.Sprintf("платеж $%.2f по карте %s", amount, cardNumber), utils.SeverityInfo)

	if amount <= 0 {
		return models.ErrInvalidAmount
	}

	// Проверяем карту
	err := func() error {
		s.locks.Cards.Lock()
		defer s.locks.Cards.Unlock()

		card, ok := s.cards[cardNumber]
		if !ok {
			return models.ErrCardNotFound
		}
		if card.Kind != models.CardKindCredit {
			return models.ErrNotCreditCard
		}
		return nil
	}()
	if err != nil {
		s.sink.AddEvent("bank", "CREDIT_PAYMENT_FAILED", err.Error(), utils.SeverityError)
		return err
	}

	// Списываем счет-источник, если платеж не наличными
	if !isCash {
		err := func() error {
			s.locks.Accounts.Lock()
			defer s.locks.Accounts.Unlock()

			account, ok := s.accounts[sourceAccount]
			if !ok {
				return models.ErrAccountNotFound
			}
			if account.Balance < amount {
				return models.ErrInsufficientFunds
			}

			account.Balance -= amount

			tx := models.NewTransaction(sourceAccount, amount, models.TransactionTypePayment)
			tx.CardNumber = cardNumber
			account.AddTransaction(tx)
			s.appendAudit(tx)
			return nil
		}()
		if err != nil {
			s.sink.AddEvent("bank", "CREDIT_PAYMENT_FAILED", err.Error(), utils.SeverityError)
			return err
		}
	}

	// Применяем платеж к карте
	return func() error {
		s.locks.Cards.Lock()
		defer s.locks.Cards.Unlock()

		card, ok := s.cards[cardNumber]
		if !ok {
			return models.ErrCardNotFound
		}

		applied, err := card.MakePayment(amount)
		if err != nil {
			s.sink.AddEvent("bank", "CREDIT_PAYMENT_FAILED", err.Error(), utils.SeverityError)
			return err
		}

		if isCash {
			tx := models.NewTransaction(card.CustomerID, applied, models.TransactionTypePayment)
			tx.CardNumber = cardNumber
			tx.Description = "Платеж наличными"
			s.appendAudit(tx)
		}

		s.sink.AddEvent("bank", "CREDIT_PAYMENT_SUCCESS",
			fmt.Sprintf("платеж применен, остаток по карте: $%.2f", card.OutstandingBalance), utils.SeveritySuccess)
		return nil
	}()
}

// MakePurchase проводит покупку по карте.
// Кредитная карта уменьшает доступный кредит; дебетовая списывает счет
// с учетом дневного лимита.
func (s *BankService) MakePurchase(cardNumber string, amount float64, merchant string) error {
	s.sink.AddEvent("bank", "PURCHASE_START",
		fmt.Sprintf("покупка $%.2f по карте %s (%s)", amount, cardNumber, merchant), utils.SeverityInfo)

	if amount <= 0 {
		return models.ErrInvalidAmount
	}

	// Сначала разбираем карту под блокировкой cards
	kind, accountID, err := func() (models.CardKind, string, error) {
		s.locks.Cards.Lock()
		defer s.locks.Cards.Unlock()

		card, ok := s.cards[cardNumber]
		if !ok {
			return "", "", models.ErrCardNotFound
		}
		if !card.IsValid() {
			return "", "", models.ErrCardInactive
		}

		if card.Kind == models.CardKindCredit {
			if err := card.MakePurchase(amount); err != nil {
				return "", "", err
			}

			tx := models.NewTransaction(card.CustomerID, amount, models.TransactionTypePurchase)
			tx.CardNumber = cardNumber
			tx.Merchant = merchant
			s.appendAudit(tx)
			return card.Kind, "", nil
		}

		// Дебетовая: резервируем расход в дневном лимите сразу,
		// чтобы параллельные покупки не прошли проверку вдвоем.
		// Само списание счета идет после освобождения cards.
		if card.DailySpent+amount > card.DailyLimit {
			return "", "", models.ErrDailyLimitExceeded
		}
		card.RegisterSpend(amount)
		return card.Kind, card.AccountID, nil
	}()
	if err != nil {
		s.sink.AddEvent("bank", "PURCHASE_FAILED", err.Error(), utils.SeverityError)
		return err
	}

	if kind == models.CardKindCredit {
		s.sink.AddEvent("bank", "PURCHASE_SUCCESS",
			fmt.Sprintf("покупка $%.2f проведена по кредитной карте", amount), utils.SeveritySuccess)
		return nil
	}

	// Списываем счет дебетовой карты
	err = func() error {
		s.locks.Accounts.Lock()
		defer s.locks.Accounts.Unlock()

		account, ok := s.accounts[accountID]
		if !ok {
			return models.ErrAccountNotFound
		}
		if account.Balance < amount {
			return models.ErrInsufficientFunds
		}

		account.Balance -= amount

		tx := models.NewTransaction(accountID, amount, models.TransactionTypePurchase)
		tx.CardNumber = cardNumber
		tx.Merchant = merchant
		account.AddTransaction(tx)
		s.appendAudit(tx)
		return nil
	}()
	if err != nil {
		// Списание не состоялось, возвращаем зарезервированный расход
		s.locks.Cards.Lock()
		if card, ok := s.cards[cardNumber]; ok {
			card.ReleaseSpend(amount)
		}
		s.locks.Cards.Unlock()

		s.sink.AddEvent("bank", "PURCHASE_FAILED", err.Error(), utils.SeverityError)
		return err
	}

	s.sink.AddEvent("bank", "PURCHASE_SUCCESS",
		fmt.Sprintf("покупка $%.2f проведена по дебетовой карте", amount), utils.SeveritySuccess)
	return nil
}

// ResetDailyLimits обнуляет дневные счетчики расходов всех дебетовых
// карт; вызывается при открытии операционного дня
func (s *BankService) ResetDailyLimits() int {
	s.locks.Cards.Lock()
	defer s.locks.Cards.Unlock()

	reset := 0
	for _, card := range s.cards {
		if card.Kind != models.CardKindDebit {
			continue
		}
		card.ResetDailySpent()
		reset++
	}

	s.sink.AddEvent("bank", "DAILY_LIMITS_RESET",
		fmt.Sprintf("дневные лимиты сброшены у %d карт", reset), utils.SeverityInfo)
	return reset
}

// ApplyMonthlyInterest начисляет месячный процент всем кредитным
// картам с непогашенным остатком; возвращает число карт и сумму
func (s *BankService) ApplyMonthlyInterest() (int, float64) {
	s.sink.AddEvent("bank", "MONTHLY_INTEREST_START",
		"начисление месячных процентов", utils.SeverityInfo)

	s.locks.Cards.Lock()
	defer s.locks.Cards.Unlock()

	processed := 0
	total := 0.0
	for _, card := range s.cards {
		if card.Kind != models.CardKindCredit || card.OutstandingBalance <= 0 {
			continue
		}

		interest := card.ApplyInterest()
		total += interest
		processed++

		tx := models.NewTransaction(card.CustomerID, interest, models.TransactionTypePayment)
		tx.CardNumber = card.Number
		tx.Description = "Ежемесячный процент"
		s.appendAudit(tx)
	}

	s.sink.AddEvent("bank", "MONTHLY_INTEREST_COMPLETE",
		fmt.Sprintf("проценты начислены %d картам, всего $%.2f", processed, total), utils.SeveritySuccess)
	return processed, total
}

// ---- Запросы ----

// GetAccountBalance возвращает баланс счета
func (s *BankService) GetAccountBalance(accountID string) (float64, error) {
	s.locks.Accounts.Lock()
	defer s.locks.Accounts.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return 0, models.ErrAccountNotFound
	}
	return account.Balance, nil
}

// GetAccountTransactions возвращает последние limit транзакций счета,
// самые новые первыми
func (s *BankService) GetAccountTransactions(accountID string, limit int) ([]*models.Transaction, error) {
	s.locks.Accounts.Lock()
	defer s.locks.Accounts.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return account.RecentTransactions(limit), nil
}

// CardInfoDTO представляет данные карты для ответа
type CardInfoDTO struct {
	Number             string  `json:"number"`
	Kind               string  `json:"kind"`
	Type               string  `json:"type"`
	Status             string  `json:"status"`
	CreditLimit        float64 `json:"credit_limit,omitempty"`
	OutstandingBalance float64 `json:"outstanding_balance,omitempty"`
	AvailableCredit    float64 `json:"available_credit,omitempty"`
	InterestRate       float64 `json:"interest_rate,omitempty"`
	DailyLimit         float64 `json:"daily_limit,omitempty"`
}

// GetCardInfo возвращает сведения о карте с маскированным номером
func (s *BankService) GetCardInfo(cardNumber string) (*CardInfoDTO, error) {
	s.locks.Cards.Lock()
	defer s.locks.Cards.Unlock()

	card, ok := s.cards[cardNumber]
	if !ok {
		return nil, models.ErrCardNotFound
	}

	status := "active"
	if !card.IsValid() {
		status = "blocked/expired"
	}

	return &CardInfoDTO{
		Number:             card.MaskedNumber(),
		Kind:               string(card.Kind),
		Type:               string(card.Type),
		Status:             status,
		CreditLimit:        card.CreditLimit,
		OutstandingBalance: card.OutstandingBalance,
		AvailableCredit:    card.AvailableCredit,
		InterestRate:       card.Benefits.InterestRate,
		DailyLimit:         card.DailyLimit,
	}, nil
}

// GetCardBalance возвращает баланс по карте: для дебетовой это баланс
// счета, для кредитной доступный кредит
func (s *BankService) GetCardBalance(cardNumber string) (float64, error) {
	// Разбираем карту, не удерживая cards при обращении к счетам
	kind, accountID, available, err := func() (models.CardKind, string, float64, error) {
		s.locks.Cards.Lock()
		defer s.locks.Cards.Unlock()

		card, ok := s.cards[cardNumber]
		if !ok {
			return "", "", 0, models.ErrCardNotFound
		}
		return card.Kind, card.AccountID, card.AvailableCredit, nil
	}()
	if err != nil {
		return 0, err
	}

	if kind == models.CardKindCredit {
		return available, nil
	}
	return s.GetAccountBalance(accountID)
}

// AuditLog возвращает копию общего журнала транзакций
func (s *BankService) AuditLog() []*models.Transaction {
	s.auditMu.Lock()
	defer s.auditMu.Unlock()

	result := make([]*models.Transaction, len(s.auditLog))
	copy(result, s.auditLog)
	return result
}

// appendAudit добавляет записи в общий журнал
func (s *BankService) appendAudit(txs ...*models.Transaction) {
	s.auditMu.Lock()
	defer s.auditMu.Unlock()
	s.auditLog = append(s.auditLog, txs...)
}

// ---- Вспомогательные методы ----

// generateAccountNumber генерирует номер счета; вызывающий держит
// блокировку accounts
func (s *BankService) generateAccountNumber() string {
	for {
		number := utils.GenerateDigits(20)
		if _, exists := s.accounts[number]; !exists {
			return number
		}
	}
}

// notifyTransaction отправляет уведомление владельцу счета;
// ошибки отправки не влияют на операцию
func (s *BankService) notifyTransaction(accountID string, amount float64, opType string) {
	if s.notifier == nil || !s.notifier.Enabled() {
		return
	}

	// Ищем email владельца уже после освобождения accounts
	email := ""
	func() {
		s.locks.Customers.Lock()
		defer s.locks.Customers.Unlock()
		for _, c := range s.customers {
			for _, a := range c.Accounts {
				if a.AccountID == accountID {
					email = c.Email
					return
				}
			}
		}
	}()
	if email == "" {
		return
	}

	go func() {
		if err := s.notifier.SendTransactionNotification(email, accountID, amount, opType); err != nil {
			utils.LogError("Ошибка отправки уведомления: %v", err)
		}
	}()
}
