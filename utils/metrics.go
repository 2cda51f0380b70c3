package utils

import (
	"sync"
	"time"
)

// Metrics содержит метрики работы банка и диспетчера
type Metrics struct {
	mu sync.RWMutex

	// Метрики турнов
	TurnsSubmitted  int64
	TurnsCompleted  int64
	TurnsFailed     int64
	TurnsReinserted int64
	LastTurnTime    time.Time

	// Метрики операций
	OperationsExecuted int64
	OperationsFailed   int64
	OperationsDropped  int64 // отброшены сверх лимита на турн
	OperationLatency   time.Duration
	AverageLatency     time.Duration

	// Метрики допуска
	AdmissionFailures map[string]int64

	// Метрики ошибок
	ErrorCount    int64
	LastErrorTime time.Time
	ErrorTypes    map[string]int64
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// GetMetrics возвращает экземпляр метрик
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			AdmissionFailures: make(map[string]int64),
			ErrorTypes:        make(map[string]int64),
		}
	})
	return metrics
}

// RecordTurnSubmitted записывает постановку турна в очередь
func (m *Metrics) RecordTurnSubmitted() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TurnsSubmitted++
	m.LastTurnTime = time.Now()
}

// RecordTurnFinished записывает завершение турна
func (m *Metrics) RecordTurnFinished(failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if failed {
		m.TurnsFailed++
	} else {
		m.TurnsCompleted++
	}
}

// RecordTurnReinserted записывает возврат турна в очередь после
// неудачного допуска
func (m *Metrics) RecordTurnReinserted() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TurnsReinserted++
}

// RecordOperation записывает выполнение операции
func (m *Metrics) RecordOperation(duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.OperationsExecuted++
	m.OperationLatency += duration
	m.AverageLatency = m.OperationLatency / time.Duration(m.OperationsExecuted)

	if err != nil {
		m.OperationsFailed++
		m.recordErrorLocked(err)
	}
}

// RecordOperationDropped записывает операцию, отброшенную сверх
// лимита операций на турн
func (m *Metrics) RecordOperationDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.OperationsDropped++
}

// RecordAdmissionFailure записывает неудачную попытку занять слот пула
func (m *Metrics) RecordAdmissionFailure(pool string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AdmissionFailures[pool]++
}

// recordErrorLocked записывает ошибку; вызывающий держит m.mu
func (m *Metrics) recordErrorLocked(err error) {
	m.ErrorCount++
	m.LastErrorTime = time.Now()

	errorType := "unknown"
	if err != nil {
		errorType = err.Error()
	}
	m.ErrorTypes[errorType]++
}

// GetMetricsSnapshot возвращает снимок текущих метрик
func (m *Metrics) GetMetricsSnapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	admission := make(map[string]int64, len(m.AdmissionFailures))
	for pool, count := range m.AdmissionFailures {
		admission[pool] = count
	}

	return map[string]interface{}{
		"turns_submitted":     m.TurnsSubmitted,
		"turns_completed":     m.TurnsCompleted,
		"turns_failed":        m.TurnsFailed,
		"turns_reinserted":    m.TurnsReinserted,
		"operations_executed": m.OperationsExecuted,
		"operations_failed":   m.OperationsFailed,
		"operations_dropped":  m.OperationsDropped,
		"average_latency":     m.AverageLatency,
		"admission_failures":  admission,
		"error_count":         m.ErrorCount,
		"error_types":         m.ErrorTypes,
	}
}

// ResetMetrics сбрасывает все метрики
func (m *Metrics) ResetMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TurnsSubmitted = 0
	m.TurnsCompleted = 0
	m.TurnsFailed = 0
	m.TurnsReinserted = 0
	m.OperationsExecuted = 0
	m.OperationsFailed = 0
	m.OperationsDropped = 0
	m.OperationLatency = 0
	m.AverageLatency = 0
	m.ErrorCount = 0
	m.AdmissionFailures = make(map[string]int64)
	m.ErrorTypes = make(map[string]int64)
}
