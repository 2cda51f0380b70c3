package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// OperationType представляет тип запрошенной операции
type OperationType string

const (
	// Операции кассира
	OpDeposit         OperationType = "deposit"
	OpWithdraw        OperationType = "withdraw"
	OpTransfer        OperationType = "transfer"
	OpCheckBalance    OperationType = "check_balance"
	OpGetTransactions OperationType = "get_transactions"
	OpGetStatement    OperationType = "get_statement"
	OpPayCreditCard   OperationType = "pay_credit_card"
	OpMakePurchase    OperationType = "make_purchase"
	OpApplyInterest   OperationType = "apply_interest"
	OpBlockCard       OperationType = "block_card"
	OpGetCardInfo     OperationType = "get_card_info"

	// Операции консультанта
	OpCreateCustomer  OperationType = "create_customer"
	OpDeleteCustomer  OperationType = "delete_customer"
	OpCreateAccount   OperationType = "create_account"
	OpCloseAccount    OperationType = "close_account"
	OpLinkAccount     OperationType = "link_account"
	OpIssueDebitCard  OperationType = "issue_debit_card"
	OpIssueCreditCard OperationType = "issue_credit_card"
	OpDeactivateCard  OperationType = "deactivate_card"
)

var validate = validator.New()

// Типизированные данные операций

type DepositPayload struct {
	AccountID string  `validate:"required"`
	Amount    float64 `validate:"required,gt=0"`
}

type WithdrawPayload struct {
	AccountID string  `validate:"required"`
	Amount    float64 `validate:"required,gt=0"`
	NIP       string  `validate:"required,numeric,min=4,max=6"`
}

type TransferPayload struct {
	SourceID string  `validate:"required"`
	TargetID string  `validate:"required"`
	Amount   float64 `validate:"required,gt=0"`
	NIP      string  `validate:"omitempty,numeric,min=4,max=6"`
}

type AccountQueryPayload struct {
	AccountID string `validate:"required"`
	Limit     int    `validate:"omitempty,gt=0"`
	Days      int    `validate:"omitempty,gt=0"`
}

type PayCreditCardPayload struct {
	CardNumber    string  `validate:"required"`
	Amount        float64 `validate:"required,gt=0"`
	SourceAccount string  `validate:"required_unless=IsCash true"`
	IsCash        bool
}

type PurchasePayload struct {
	CardNumber string  `validate:"required"`
	Amount     float64 `validate:"required,gt=0"`
	Merchant   string
}

type CardPayload struct {
	CardNumber string `validate:"required"`
}

type CreateCustomerPayload struct {
	Name  string `validate:"required,min=2,max=100"`
	Email string `validate:"required,email"`
}

type CustomerPayload struct {
	CustomerID string `validate:"required"`
}

type CreateAccountPayload struct {
	CustomerID     string  `validate:"required"`
	InitialBalance float64 `validate:"gte=0"`
	NIP            string  `validate:"required,numeric,min=4,max=6"`
}

type LinkAccountPayload struct {
	AccountID  string `validate:"required"`
	CustomerID string `validate:"required"`
}

type IssueDebitCardPayload struct {
	AccountID string   `validate:"required"`
	CardType  CardType `validate:"required,oneof=NORMAL GOLD PLATINUM"`
}

type IssueCreditCardPayload struct {
	CustomerID string   `validate:"required"`
	CardType   CardType `validate:"required,oneof=NORMAL GOLD PLATINUM"`
}

// Operation представляет одну запрошенную операцию: закрытый набор
// типов, каждый со своими типизированными данными. Заполнено должно
// быть ровно то поле, которое соответствует типу.
type Operation struct {
	Type OperationType

	Deposit         *DepositPayload
	Withdraw        *WithdrawPayload
	Transfer        *TransferPayload
	AccountQuery    *AccountQueryPayload
	PayCreditCard   *PayCreditCardPayload
	Purchase        *PurchasePayload
	Card            *CardPayload
	CreateCustomer  *CreateCustomerPayload
	Customer        *CustomerPayload
	CreateAccount   *CreateAccountPayload
	LinkAccount     *LinkAccountPayload
	IssueDebitCard  *IssueDebitCardPayload
	IssueCreditCard *IssueCreditCardPayload
}

// Validate проверяет операцию перед выполнением: тип должен быть
// известен, а соответствующие ему данные заполнены и корректны
func (o Operation) Validate() error {
	payload, err := o.payload()
	if err != nil {
		return err
	}
	if payload == nil {
		return nil // операция без параметров
	}
	if err := validate.Struct(payload); err != nil {
		return &BankError{
			Category: CategoryValidation,
			Message:  fmt.Sprintf("операция %s: %v", o.Type, err),
		}
	}
	return nil
}

// payload возвращает данные, соответствующие типу операции
func (o Operation) payload() (interface{}, error) {
	var payload interface{}

	switch o.Type {
	case OpDeposit:
		if o.Deposit == nil {
			return nil, ErrMissingFields
		}
		payload = o.Deposit
	case OpWithdraw:
		if o.Withdraw == nil {
			return nil, ErrMissingFields
		}
		payload = o.Withdraw
	case OpTransfer:
		if o.Transfer == nil {
			return nil, ErrMissingFields
		}
		payload = o.Transfer
	case OpCheckBalance, OpGetTransactions, OpGetStatement:
		if o.AccountQuery == nil {
			return nil, ErrMissingFields
		}
		payload = o.AccountQuery
	case OpPayCreditCard:
		if o.PayCreditCard == nil {
			return nil, ErrMissingFields
		}
		payload = o.PayCreditCard
	case OpMakePurchase:
		if o.Purchase == nil {
			return nil, ErrMissingFields
		}
		payload = o.Purchase
	case OpBlockCard, OpGetCardInfo, OpDeactivateCard:
		if o.Card == nil {
			return nil, ErrMissingFields
		}
		payload = o.Card
	case OpApplyInterest:
		return nil, nil // без параметров
	case OpCreateCustomer:
		if o.CreateCustomer == nil {
			return nil, ErrMissingFields
		}
		payload = o.CreateCustomer
	case OpDeleteCustomer:
		if o.Customer == nil {
			return nil, ErrMissingFields
		}
		payload = o.Customer
	case OpCreateAccount:
		if o.CreateAccount == nil {
			return nil, ErrMissingFields
		}
		payload = o.CreateAccount
	case OpCloseAccount:
		if o.AccountQuery == nil {
			return nil, ErrMissingFields
		}
		payload = o.AccountQuery
	case OpLinkAccount:
		if o.LinkAccount == nil {
			return nil, ErrMissingFields
		}
		payload = o.LinkAccount
	case OpIssueDebitCard:
		if o.IssueDebitCard == nil {
			return nil, ErrMissingFields
		}
		payload = o.IssueDebitCard
	case OpIssueCreditCard:
		if o.IssueCreditCard == nil {
			return nil, ErrMissingFields
		}
		payload = o.IssueCreditCard
	default:
		return nil, &BankError{
			Category: CategoryValidation,
			Message:  fmt.Sprintf("неизвестный тип операции: %s", o.Type),
		}
	}

	return payload, nil
}
