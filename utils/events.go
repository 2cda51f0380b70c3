package utils

import (
	"fmt"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Уровни важности событий
const (
	SeverityInfo    = "info"
	SeveritySuccess = "success"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// EventSink принимает события о переходах состояний и блокировках.
// Ядро не зависит от возвращаемых значений приемника и обязано
// работать при его отсутствии (NoopSink).
type EventSink interface {
	AddEvent(actorID string, operation string, details string, severity string)
}

// NoopSink игнорирует все события
type NoopSink struct{}

// AddEvent ничего не делает
func (NoopSink) AddEvent(string, string, string, string) {}

// Event представляет одно зарегистрированное событие
type Event struct {
	Timestamp time.Time
	ActorID   string
	Operation string
	Details   string
	Severity  string
}

// ConsoleSink выводит события в консоль с цветом по важности
// и дублирует их в файловые логи
type ConsoleSink struct {
	mu        sync.Mutex
	events    []Event
	maxEvents int
	quiet     bool
}

// Цвета вывода по уровню важности
var severityColors = map[string]*color.Color{
	SeverityInfo:    color.New(color.FgCyan),
	SeveritySuccess: color.New(color.FgGreen),
	SeverityWarning: color.New(color.FgYellow),
	SeverityError:   color.New(color.FgRed),
}

// NewConsoleSink создает консольный приемник событий.
// В памяти хранятся последние maxEvents событий для отчетов.
func NewConsoleSink(maxEvents int, quiet bool) *ConsoleSink {
	if maxEvents <= 0 {
		maxEvents = 50
	}
	return &ConsoleSink{
		maxEvents: maxEvents,
		quiet:     quiet,
	}
}

// AddEvent регистрирует событие: печать в консоль и запись в лог
func (s *ConsoleSink) AddEvent(actorID, operation, details, severity string) {
	timestamp := time.Now()

	s.mu.Lock()
	if len(s.events) >= s.maxEvents {
		s.events = s.events[1:]
	}
	s.events = append(s.events, Event{
		Timestamp: timestamp,
		ActorID:   actorID,
		Operation: operation,
		Details:   details,
		Severity:  severity,
	})
	s.mu.Unlock()

	// Дублируем в файловые логи
	if severity == SeverityError {
		LogError("[%s] %s: %s", actorID, operation, details)
	} else {
		LogInfo("[%s] %s: %s", actorID, operation, details)
	}

	if s.quiet {
		return
	}

	line := fmt.Sprintf("%s [%s] %s: %s",
		timestamp.Format("15:04:05.000"), actorID, operation, details)
	if c, ok := severityColors[severity]; ok {
		c.Println(line)
	} else {
		fmt.Println(line)
	}
}

// RecentEvents возвращает последние события, самые новые первыми
func (s *ConsoleSink) RecentEvents(limit int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}

	result := make([]Event, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, s.events[i])
	}
	return result
}
