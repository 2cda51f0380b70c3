package models

import (
	"fmt"
	"sync"
	"time"
)

// TurnStatus представляет статус турна
type TurnStatus string

const (
	TurnStatusPending    TurnStatus = "PENDING"     // Ожидает в очереди
	TurnStatusInProgress TurnStatus = "IN_PROGRESS" // Назначен работнику
	TurnStatusCompleted  TurnStatus = "COMPLETED"   // Все операции выполнены
	TurnStatusFailed     TurnStatus = "FAILED"      // Хотя бы одна операция не выполнена
)

// Префиксы номеров турнов по приоритету
var priorityPrefixes = map[int]string{
	1: "VIP", // Высокий приоритет: GOLD/PLATINUM кредитные карты
	2: "AZ",  // Средний приоритет: дебетовые и обычные кредитные карты
	3: "C",   // Низкий приоритет: клиенты без карты
}

// Turn представляет единицу работы: пакет запрошенных операций
// с приоритетом обслуживания
type Turn struct {
	ID         string
	CustomerID string
	CardNumber string
	Priority   int
	Operations []*Operation
	CreatedAt  time.Time

	mu     sync.Mutex
	status TurnStatus
}

// NewTurn создает турн в статусе PENDING
func NewTurn(id string, customerID, cardNumber string, priority int, operations []*Operation) *Turn {
	return &Turn{
		ID:         id,
		CustomerID: customerID,
		CardNumber: cardNumber,
		Priority:   priority,
		Operations: operations,
		CreatedAt:  time.Now(),
		status:     TurnStatusPending,
	}
}

// DerivePriority выводит приоритет турна из карты клиента:
// без карты: 3, дебетовая: 2, кредитная NORMAL: 2,
// кредитная GOLD/PLATINUM: 1
func DerivePriority(card *Card) int {
	if card == nil {
		return 3
	}
	if card.Kind == CardKindDebit {
		return 2
	}
	if card.Type == CardTypeGold || card.Type == CardTypePlatinum {
		return 1
	}
	return 2
}

// Status возвращает текущий статус турна
func (t *Turn) Status() TurnStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// MarkInProgress переводит турн в работу
func (t *Turn) MarkInProgress() {
	t.setStatus(TurnStatusInProgress)
}

// MarkCompleted завершает турн успешно
func (t *Turn) MarkCompleted() {
	t.setStatus(TurnStatusCompleted)
}

// MarkFailed завершает турн с ошибкой
func (t *Turn) MarkFailed() {
	t.setStatus(TurnStatusFailed)
}

// setStatus меняет статус; терминальные статусы окончательны
func (t *Turn) setStatus(status TurnStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == TurnStatusCompleted || t.status == TurnStatusFailed {
		return
	}
	t.status = status
}

// IsTerminal проверяет, что турн завершен
func (t *Turn) IsTerminal() bool {
	status := t.Status()
	return status == TurnStatusCompleted || status == TurnStatusFailed
}

// String возвращает краткое описание турна
func (t *Turn) String() string {
	return fmt.Sprintf("Турн %s - Клиент: %s - Приоритет: %d - %s",
		t.ID, t.CustomerID, t.Priority, t.Status())
}

// TurnIDGenerator выдает номера турнов: префикс приоритета плюс
// монотонно растущий счетчик на каждый префикс
type TurnIDGenerator struct {
	mu       sync.Mutex
	counters map[string]int
}

// NewTurnIDGenerator создает генератор номеров турнов
func NewTurnIDGenerator() *TurnIDGenerator {
	return &TurnIDGenerator{
		counters: map[string]int{"VIP": 0, "AZ": 0, "C": 0},
	}
}

// Next возвращает следующий номер для приоритета, например VIP001
func (g *TurnIDGenerator) Next(priority int) (string, error) {
	prefix, ok := priorityPrefixes[priority]
	if !ok {
		return "", ErrInvalidPriority
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.counters[prefix]++
	return fmt.Sprintf("%s%03d", prefix, g.counters[prefix]), nil
}
