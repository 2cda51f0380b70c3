package utils

import (
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// TrackedLock представляет именованный мьютекс, уведомляющий
// приемник событий о каждом захвате и освобождении.
// Порядок захвата между блокировками фиксирован:
// customers -> accounts -> cards. Операция, которой нужно несколько
// блокировок, обязана брать их именно в этом порядке.
type TrackedLock struct {
	name string
	mu   sync.Mutex
	sink EventSink
}

// NewTrackedLock создает отслеживаемый мьютекс
func NewTrackedLock(name string, sink EventSink) *TrackedLock {
	if sink == nil {
		sink = NoopSink{}
	}
	return &TrackedLock{name: name, sink: sink}
}

// Name возвращает имя блокировки
func (l *TrackedLock) Name() string {
	return l.name
}

// Lock захватывает мьютекс с уведомлением о ожидании и захвате
func (l *TrackedLock) Lock() {
	l.sink.AddEvent(l.name, "LOCK_WAIT", fmt.Sprintf("ожидание блокировки %s", l.name), SeverityInfo)
	l.mu.Lock()
	l.sink.AddEvent(l.name, "LOCK_ACQUIRED", fmt.Sprintf("блокировка %s захвачена", l.name), SeverityInfo)
}

// Unlock освобождает мьютекс с уведомлением
func (l *TrackedLock) Unlock() {
	l.mu.Unlock()
	l.sink.AddEvent(l.name, "LOCK_RELEASED", fmt.Sprintf("блокировка %s освобождена", l.name), SeverityInfo)
}

// WorkerSemaphore представляет счетный семафор, ограничивающий число
// одновременно занятых работников пула. Захват только неблокирующий:
// повторные попытки и бэкофф реализует диспетчер, а не семафор.
type WorkerSemaphore struct {
	name     string
	capacity int
	sem      *semaphore.Weighted
	sink     EventSink
}

// NewWorkerSemaphore создает семафор пула работников
func NewWorkerSemaphore(name string, capacity int, sink EventSink) *WorkerSemaphore {
	if sink == nil {
		sink = NoopSink{}
	}
	return &WorkerSemaphore{
		name:     name,
		capacity: capacity,
		sem:      semaphore.NewWeighted(int64(capacity)),
		sink:     sink,
	}
}

// Name возвращает имя семафора
func (s *WorkerSemaphore) Name() string {
	return s.name
}

// Capacity возвращает емкость семафора
func (s *WorkerSemaphore) Capacity() int {
	return s.capacity
}

// TryAcquire пытается занять слот без ожидания
func (s *WorkerSemaphore) TryAcquire() bool {
	acquired := s.sem.TryAcquire(1)
	if acquired {
		s.sink.AddEvent(s.name, "SLOT_ACQUIRED", fmt.Sprintf("слот %s занят", s.name), SeverityInfo)
	} else {
		s.sink.AddEvent(s.name, "SLOT_BUSY", fmt.Sprintf("нет свободных слотов %s", s.name), SeverityWarning)
	}
	return acquired
}

// Release освобождает занятый слот
func (s *WorkerSemaphore) Release() {
	s.sem.Release(1)
	s.sink.AddEvent(s.name, "SLOT_RELEASED", fmt.Sprintf("слот %s освобожден", s.name), SeverityInfo)
}

// BankLocks представляет набор ресурсов синхронизации банка:
// три мьютекса, разделяющие реестры, и два семафора пулов работников
type BankLocks struct {
	Customers *TrackedLock
	Accounts  *TrackedLock
	Cards     *TrackedLock
	Tellers   *WorkerSemaphore
	Advisors  *WorkerSemaphore
}

// NewBankLocks создает набор блокировок банка
func NewBankLocks(numTellers, numAdvisors int, sink EventSink) *BankLocks {
	return &BankLocks{
		Customers: NewTrackedLock("customers", sink),
		Accounts:  NewTrackedLock("accounts", sink),
		Cards:     NewTrackedLock("cards", sink),
		Tellers:   NewWorkerSemaphore("tellers", numTellers, sink),
		Advisors:  NewWorkerSemaphore("advisors", numAdvisors, sink),
	}
}
