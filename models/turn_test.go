package models

import "testing"

func TestDerivePriority(t *testing.T) {
	goldCredit := NewCreditCard(CardTypeGold, "customer-1")
	platinumCredit := NewCreditCard(CardTypePlatinum, "customer-1")
	normalCredit := NewCreditCard(CardTypeNormal, "customer-1")
	debit := NewDebitCard(CardTypePlatinum, "account-1")

	cases := []struct {
		name string
		card *Card
		want int
	}{
		{"no card", nil, 3},
		{"gold credit", goldCredit, 1},
		{"platinum credit", platinumCredit, 1},
		{"normal credit", normalCredit, 2},
		{"platinum debit", debit, 2},
	}

	for _, c := range cases {
		if got := DerivePriority(c.card); got != c.want {
			t.Errorf("%s: got priority %d want %d", c.name, got, c.want)
		}
	}
}

func TestTurnIDGeneratorPrefixes(t *testing.T) {
	gen := NewTurnIDGenerator()

	// Счетчики независимы для каждого приоритета
	cases := []struct {
		priority int
		want     string
	}{
		{1, "VIP001"},
		{1, "VIP002"},
		{2, "AZ001"},
		{3, "C001"},
		{2, "AZ002"},
	}

	for _, c := range cases {
		id, err := gen.Next(c.priority)
		if err != nil {
			t.Fatalf("Next(%d): %v", c.priority, err)
		}
		if id != c.want {
			t.Errorf("Next(%d): got %s want %s", c.priority, id, c.want)
		}
	}
}

func TestTurnIDGeneratorInvalidPriority(t *testing.T) {
	gen := NewTurnIDGenerator()

	if _, err := gen.Next(4); err != ErrInvalidPriority {
		t.Errorf("Next(4): got %v want %v", err, ErrInvalidPriority)
	}
	if _, err := gen.Next(0); err != ErrInvalidPriority {
		t.Errorf("Next(0): got %v want %v", err, ErrInvalidPriority)
	}
}

func TestTurnStatusTransitions(t *testing.T) {
	turn := NewTurn("AZ001", "customer-1", "", 2, nil)

	if turn.Status() != TurnStatusPending {
		t.Fatalf("initial status: got %s want %s", turn.Status(), TurnStatusPending)
	}

	turn.MarkInProgress()
	if turn.Status() != TurnStatusInProgress {
		t.Errorf("after MarkInProgress: got %s want %s", turn.Status(), TurnStatusInProgress)
	}

	turn.MarkCompleted()
	if turn.Status() != TurnStatusCompleted {
		t.Errorf("after MarkCompleted: got %s want %s", turn.Status(), TurnStatusCompleted)
	}
	if !turn.IsTerminal() {
		t.Error("completed turn must be terminal")
	}
}

func TestTerminalStatusIsFinal(t *testing.T) {
	turn := NewTurn("C001", "customer-1", "", 3, nil)
	turn.MarkInProgress()
	turn.MarkFailed()

	// Терминальный статус не меняется
	turn.MarkCompleted()
	if turn.Status() != TurnStatusFailed {
		t.Errorf("terminal status changed: got %s want %s", turn.Status(), TurnStatusFailed)
	}

	turn.MarkInProgress()
	if turn.Status() != TurnStatusFailed {
		t.Errorf("terminal status changed: got %s want %s", turn.Status(), TurnStatusFailed)
	}
}
