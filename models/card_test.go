package models

import (
	"strings"
	"testing"
)

func TestGenerateCardNumberPrefixes(t *testing.T) {
	cases := []struct {
		cardType CardType
		prefix   string
	}{
		{CardTypeNormal, "4"},
		{CardTypeGold, "51"},
		{CardTypePlatinum, "52"},
	}

	for _, c := range cases {
		number := GenerateCardNumber(c.cardType)

		// Проверяем префикс и длину номера
		if !strings.HasPrefix(number, c.prefix) {
			t.Errorf("card number %s has wrong prefix: got %s want %s",
				number, number[:len(c.prefix)], c.prefix)
		}
		if len(number) != 16 {
			t.Errorf("card number length: got %d want 16", len(number))
		}
	}
}

func TestCreditCardBenefits(t *testing.T) {
	card := NewCreditCard(CardTypePlatinum, "customer-1")

	if card.CreditLimit != 50000 {
		t.Errorf("platinum credit limit: got %.2f want 50000", card.CreditLimit)
	}
	if card.Benefits.InterestRate != 0.03 {
		t.Errorf("platinum interest rate: got %.2f want 0.03", card.Benefits.InterestRate)
	}
	if card.AvailableCredit != card.CreditLimit {
		t.Errorf("new card available credit: got %.2f want %.2f",
			card.AvailableCredit, card.CreditLimit)
	}
}

func TestCreditCardPurchaseInvariant(t *testing.T) {
	card := NewCreditCard(CardTypePlatinum, "customer-1")
	card.Activate()

	// Покупка уменьшает доступный кредит и увеличивает долг
	if err := card.MakePurchase(9000); err != nil {
		t.Fatalf("purchase failed: %v", err)
	}

	if card.OutstandingBalance != 9000 {
		t.Errorf("outstanding balance: got %.2f want 9000", card.OutstandingBalance)
	}
	if card.AvailableCredit != 41000 {
		t.Errorf("available credit: got %.2f want 41000", card.AvailableCredit)
	}

	// Инвариант: долг + доступный кредит = лимит
	if card.OutstandingBalance+card.AvailableCredit != card.CreditLimit {
		t.Errorf("invariant violated: %.2f + %.2f != %.2f",
			card.OutstandingBalance, card.AvailableCredit, card.CreditLimit)
	}
}

func TestCreditCardPurchaseOverLimit(t *testing.T) {
	card := NewCreditCard(CardTypeNormal, "customer-1")
	card.Activate()

	// Лимит NORMAL равен 10000, покупка сверх лимита отклоняется
	if err := card.MakePurchase(10001); err != ErrCreditLimitExceeded {
		t.Errorf("over-limit purchase: got %v want %v", err, ErrCreditLimitExceeded)
	}
}

func TestCreditCardPurchaseInactive(t *testing.T) {
	card := NewCreditCard(CardTypeNormal, "customer-1")

	// Неактивированная карта не проводит покупки
	if err := card.MakePurchase(100); err != ErrCardInactive {
		t.Errorf("inactive card purchase: got %v want %v", err, ErrCardInactive)
	}
}

func TestCreditCardPaymentCappedByBalance(t *testing.T) {
	card := NewCreditCard(CardTypeGold, "customer-1")
	card.Activate()

	if err := card.MakePurchase(500); err != nil {
		t.Fatal(err)
	}

	// Платеж больше долга применяется только в размере долга
	applied, err := card.MakePayment(800)
	if err != nil {
		t.Fatal(err)
	}
	if applied != 500 {
		t.Errorf("applied payment: got %.2f want 500", applied)
	}
	if card.OutstandingBalance != 0 {
		t.Errorf("outstanding balance after payment: got %.2f want 0", card.OutstandingBalance)
	}
}

func TestApplyInterest(t *testing.T) {
	card := NewCreditCard(CardTypePlatinum, "customer-1")
	card.Activate()

	if err := card.MakePurchase(9000); err != nil {
		t.Fatal(err)
	}

	// Процентная ставка PLATINUM 3%: 9000 * 0.03 = 270
	interest := card.ApplyInterest()
	if interest != 270 {
		t.Errorf("interest: got %.2f want 270", interest)
	}
	if card.OutstandingBalance != 9270 {
		t.Errorf("balance after interest: got %.2f want 9270", card.OutstandingBalance)
	}
}

func TestDebitCardDailyLimit(t *testing.T) {
	card := NewDebitCard(CardTypeNormal, "account-1")

	if card.DailyLimit != 5000 {
		t.Errorf("normal debit daily limit: got %.2f want 5000", card.DailyLimit)
	}

	// Расходы накапливаются и сбрасываются
	card.RegisterSpend(3000)
	card.RegisterSpend(1500)
	if card.DailySpent != 4500 {
		t.Errorf("daily spent: got %.2f want 4500", card.DailySpent)
	}

	card.ResetDailySpent()
	if card.DailySpent != 0 {
		t.Errorf("daily spent after reset: got %.2f want 0", card.DailySpent)
	}
}

func TestMaskedNumber(t *testing.T) {
	card := NewCreditCard(CardTypeGold, "customer-1")

	masked := card.MaskedNumber()
	want := card.Number[:4] + " **** **** " + card.Number[12:]
	if masked != want {
		t.Errorf("masked number: got %s want %s", masked, want)
	}
	// Средние восемь цифр скрыты
	if strings.Contains(masked, card.Number[4:12]) {
		t.Errorf("masked number leaks middle digits: %s", masked)
	}
}
