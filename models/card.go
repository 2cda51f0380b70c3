package models

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// CardType представляет категорию (уровень) карты
type CardType string

const (
	CardTypeNormal   CardType = "NORMAL"
	CardTypeGold     CardType = "GOLD"
	CardTypePlatinum CardType = "PLATINUM"
)

// CardKind представляет вид карты: дебетовая или кредитная
type CardKind string

const (
	CardKindDebit  CardKind = "DEBIT"
	CardKindCredit CardKind = "CREDIT"
)

// Префиксы номеров карт по уровню
var cardPrefixes = map[CardType]string{
	CardTypeNormal:   "4",
	CardTypeGold:     "51",
	CardTypePlatinum: "52",
}

// Benefits представляет условия карты по уровню
type Benefits struct {
	Fee          float64
	CreditLimit  float64 // Только для кредитных
	InterestRate float64 // Только для кредитных
	DailyLimit   float64 // Только для дебетовых
	Cashback     float64 // Только для дебетовых
}

type benefitKey struct {
	Kind CardKind
	Type CardType
}

// Таблица условий с ключом (вид, уровень)
var benefitsTable = map[benefitKey]Benefits{
	{CardKindCredit, CardTypeNormal}:   {Fee: 0.03, CreditLimit: 10000, InterestRate: 0.05},
	{CardKindCredit, CardTypeGold}:     {Fee: 0.02, CreditLimit: 20000, InterestRate: 0.04},
	{CardKindCredit, CardTypePlatinum}: {Fee: 0.01, CreditLimit: 50000, InterestRate: 0.03},
	{CardKindDebit, CardTypeNormal}:    {Fee: 0.02, DailyLimit: 5000, Cashback: 0.01},
	{CardKindDebit, CardTypeGold}:      {Fee: 0.01, DailyLimit: 10000, Cashback: 0.02},
	{CardKindDebit, CardTypePlatinum}:  {Fee: 0.0, DailyLimit: 20000, Cashback: 0.03},
}

// LookupBenefits возвращает условия для вида и уровня карты
func LookupBenefits(kind CardKind, cardType CardType) Benefits {
	return benefitsTable[benefitKey{kind, cardType}]
}

// Card представляет банковскую карту.
// Общая часть хранится в корне структуры, а поля, специфичные для
// дебетовых и кредитных карт, заполняются в зависимости от Kind.
type Card struct {
	Number     string
	NumberHMAC string
	Kind       CardKind
	Type       CardType
	Expiration time.Time
	Active     bool
	Benefits   Benefits

	// Дебетовая часть
	AccountID  string
	DailyLimit float64
	DailySpent float64

	// Кредитная часть
	CustomerID         string
	CreditLimit        float64
	OutstandingBalance float64
	AvailableCredit    float64

	CreatedAt time.Time
}

// NewDebitCard создает дебетовую карту, привязанную к счету
func NewDebitCard(cardType CardType, accountID string) *Card {
	benefits := LookupBenefits(CardKindDebit, cardType)
	return &Card{
		Number:     GenerateCardNumber(cardType),
		Kind:       CardKindDebit,
		Type:       cardType,
		Expiration: time.Now().AddDate(5, 0, 0),
		Benefits:   benefits,
		AccountID:  accountID,
		DailyLimit: benefits.DailyLimit,
		CreatedAt:  time.Now(),
	}
}

// NewCreditCard создает кредитную карту, привязанную к клиенту
func NewCreditCard(cardType CardType, customerID string) *Card {
	benefits := LookupBenefits(CardKindCredit, cardType)
	return &Card{
		Number:          GenerateCardNumber(cardType),
		Kind:            CardKindCredit,
		Type:            cardType,
		Expiration:      time.Now().AddDate(5, 0, 0),
		Benefits:        benefits,
		CustomerID:      customerID,
		CreditLimit:     benefits.CreditLimit,
		AvailableCredit: benefits.CreditLimit,
		CreatedAt:       time.Now(),
	}
}

// GenerateCardNumber генерирует номер карты: префикс уровня плюс
// случайные цифры до 16 знаков
func GenerateCardNumber(cardType CardType) string {
	prefix := cardPrefixes[cardType]
	var number strings.Builder
	number.WriteString(prefix)
	for i := 0; i < 16-len(prefix); i++ {
		number.WriteString(strconv.Itoa(rand.Intn(10)))
	}
	return number.String()
}

// Activate активирует карту
func (c *Card) Activate() {
	c.Active = true
}

// Block блокирует карту, не удаляя ее из реестра
func (c *Card) Block() {
	c.Active = false
}

// IsExpired проверяет, истек ли срок действия карты
func (c *Card) IsExpired() bool {
	return time.Now().After(c.Expiration)
}

// IsValid проверяет, что карта активна и срок действия не истек
func (c *Card) IsValid() bool {
	return c.Active && !c.IsExpired()
}

// MakePurchase списывает покупку с кредитной карты.
// Инвариант AvailableCredit + OutstandingBalance == CreditLimit сохраняется.
func (c *Card) MakePurchase(amount float64) error {
	if c.Kind != CardKindCredit {
		return ErrNotCreditCard
	}
	if !c.IsValid() {
		return ErrCardInactive
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > c.AvailableCredit {
		return ErrCreditLimitExceeded
	}

	c.OutstandingBalance += amount
	c.AvailableCredit -= amount
	return nil
}

// MakePayment применяет платеж к кредитной карте и возвращает
// фактически зачтенную сумму (не больше непогашенного остатка)
func (c *Card) MakePayment(amount float64) (float64, error) {
	if c.Kind != CardKindCredit {
		return 0, ErrNotCreditCard
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	payment := amount
	if payment > c.OutstandingBalance {
		payment = c.OutstandingBalance
	}
	c.OutstandingBalance -= payment
	c.AvailableCredit += payment
	return payment, nil
}

// CalculateInterest возвращает месячный процент по текущему остатку
func (c *Card) CalculateInterest() float64 {
	if c.Kind != CardKindCredit {
		return 0
	}
	return c.OutstandingBalance * c.Benefits.InterestRate
}

// ApplyInterest начисляет месячный процент на непогашенный остаток
func (c *Card) ApplyInterest() float64 {
	interest := c.CalculateInterest()
	c.OutstandingBalance += interest
	c.AvailableCredit -= interest
	return interest
}

// RegisterSpend учитывает покупку по дебетовой карте в дневном лимите
func (c *Card) RegisterSpend(amount float64) {
	if c.Kind == CardKindDebit {
		c.DailySpent += amount
	}
}

// ReleaseSpend возвращает зарезервированный расход, если списание
// со счета не состоялось
func (c *Card) ReleaseSpend(amount float64) {
	if c.Kind == CardKindDebit {
		c.DailySpent -= amount
		if c.DailySpent < 0 {
			c.DailySpent = 0
		}
	}
}

// ResetDailySpent сбрасывает дневной счетчик расходов
func (c *Card) ResetDailySpent() {
	c.DailySpent = 0
}

// MaskedNumber маскирует номер карты для вывода
func (c *Card) MaskedNumber() string {
	if len(c.Number) != 16 {
		return c.Number
	}
	return c.Number[:4] + " **** **** " + c.Number[12:]
}

// String возвращает краткое описание карты
func (c *Card) String() string {
	if c.Kind == CardKindCredit {
		return fmt.Sprintf("[КРЕДИТ] %s %s, Лимит: $%.2f, Остаток: $%.2f",
			c.Type, c.MaskedNumber(), c.CreditLimit, c.OutstandingBalance)
	}
	return fmt.Sprintf("[ДЕБЕТ] %s %s, Дневной лимит: $%.2f",
		c.Type, c.MaskedNumber(), c.DailyLimit)
}
