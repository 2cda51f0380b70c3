package models

import (
	"errors"
)

// ErrorCategory представляет категорию банковской ошибки
type ErrorCategory string

const (
	CategoryNotFound   ErrorCategory = "NOT_FOUND"     // Сущность не найдена
	CategoryValidation ErrorCategory = "VALIDATION"    // Некорректные входные данные
	CategoryBusiness   ErrorCategory = "BUSINESS_RULE" // Нарушение бизнес-правила
	CategoryAdmission  ErrorCategory = "ADMISSION"     // Нет свободного слота, не ошибка для клиента
	CategoryInternal   ErrorCategory = "INTERNAL"      // Неожиданная ошибка внутри операции
)

// BankError представляет типизированную ошибку с категорией
type BankError struct {
	Category ErrorCategory
	Message  string
}

func (e *BankError) Error() string {
	return e.Message
}

// NewInternalError создает ошибку категории INTERNAL
func NewInternalError(message string) *BankError {
	return &BankError{Category: CategoryInternal, Message: message}
}

var (
	// Ошибки "не найдено"
	ErrCustomerNotFound = &BankError{CategoryNotFound, "клиент не найден"}
	ErrAccountNotFound  = &BankError{CategoryNotFound, "банковский счет не найден"}
	ErrCardNotFound     = &BankError{CategoryNotFound, "карта не найдена"}
	ErrTurnNotFound     = &BankError{CategoryNotFound, "турн не найден"}

	// Ошибки валидации
	ErrInvalidAmount    = &BankError{CategoryValidation, "сумма должна быть больше 0"}
	ErrInvalidNIPFormat = &BankError{CategoryValidation, "НИП должен состоять из 4-6 цифр"}
	ErrInvalidPriority  = &BankError{CategoryValidation, "приоритет должен быть от 1 до 3"}
	ErrMissingFields    = &BankError{CategoryValidation, "отсутствуют обязательные поля операции"}

	// Нарушения бизнес-правил
	ErrDuplicateEmail      = &BankError{CategoryBusiness, "email уже зарегистрирован"}
	ErrInsufficientFunds   = &BankError{CategoryBusiness, "недостаточно средств на счете"}
	ErrAccountLocked       = &BankError{CategoryBusiness, "счет заблокирован по безопасности"}
	ErrInvalidNIP          = &BankError{CategoryBusiness, "неверный НИП"}
	ErrCreditLimitExceeded = &BankError{CategoryBusiness, "превышен кредитный лимит"}
	ErrDailyLimitExceeded  = &BankError{CategoryBusiness, "превышен дневной лимит карты"}
	ErrOutstandingBalance  = &BankError{CategoryBusiness, "на карте есть непогашенный остаток"}
	ErrSelfTransfer        = &BankError{CategoryBusiness, "нельзя перевести средства на тот же счет"}
	ErrLinkFailed          = &BankError{CategoryBusiness, "счет не принадлежит этому клиенту"}
	ErrNotCreditCard       = &BankError{CategoryBusiness, "карта не является кредитной"}
	ErrCardInactive        = &BankError{CategoryBusiness, "карта не активна или истек срок действия"}

	// Ошибки допуска (не видны клиенту, диспетчер повторяет попытку)
	ErrNoWorkerSlot = &BankError{CategoryAdmission, "нет свободного слота работника"}
	ErrNoFreeWorker = &BankError{CategoryAdmission, "нет свободного работника в пуле"}
)

// Category возвращает категорию ошибки; нетипизированные ошибки считаются INTERNAL
func Category(err error) ErrorCategory {
	var bankErr *BankError
	if errors.As(err, &bankErr) {
		return bankErr.Category
	}
	return CategoryInternal
}
