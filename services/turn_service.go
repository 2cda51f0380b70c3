package services

import (
	"container/heap"
	"sync"

	"bankProject/models"
	"bankProject/utils"
)

// turnItem представляет элемент очереди; seq обеспечивает порядок FIFO внутри
// одного приоритета даже при одинаковом времени создания
type turnItem struct {
	turn *models.Turn
	seq  uint64
}

// turnHeap реализует heap.Interface: меньший приоритет выше,
// при равных приоритетах раньше созданный элемент
type turnHeap []*turnItem

func (h turnHeap) Len() int { return len(h) }

func (h turnHeap) Less(i, j int) bool {
	if h[i].turn.Priority != h[j].turn.Priority {
		return h[i].turn.Priority < h[j].turn.Priority
	}
	if !h[i].turn.CreatedAt.Equal(h[j].turn.CreatedAt) {
		return h[i].turn.CreatedAt.Before(h[j].turn.CreatedAt)
	}
	return h[i].seq < h[j].seq
}

func (h turnHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *turnHeap) Push(x interface{}) {
	*h = append(*h, x.(*turnItem))
}

func (h *turnHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// TurnManager реализует потокобезопасную приоритетную очередь талонов.
// Талоны остаются в реестре после завершения, чтобы их статус
// можно было запросить по номеру.
type TurnManager struct {
	mu     sync.Mutex
	queue  turnHeap
	active map[string]*models.Turn
	all    map[string]*models.Turn
	seq    uint64
	sink   utils.EventSink
}

// NewTurnManager создает пустую очередь талонов
func NewTurnManager(sink utils.EventSink) *TurnManager {
	if sink == nil {
		sink = utils.NoopSink{}
	}
	tm := &TurnManager{
		active: make(map[string]*models.Turn),
		all:    make(map[string]*models.Turn),
		sink:   sink,
	}
	heap.Init(&tm.queue)
	return tm
}

// Add ставит новый талон в очередь
func (tm *TurnManager) Add(turn *models.Turn) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.seq++
	tm.all[turn.ID] = turn
	heap.Push(&tm.queue, &turnItem{turn: turn, seq: tm.seq})
	tm.sink.AddEvent(turn.ID, "TURN_QUEUED", turn.String(), utils.SeverityInfo)
}

// Next извлекает талон с наивысшим приоритетом; nil, если очередь
// пуста. Талон помечается активным до вызова MarkDone или Reinsert.
func (tm *TurnManager) Next() *models.Turn {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.queue.Len() == 0 {
		return nil
	}

	item := heap.Pop(&tm.queue).(*turnItem)
	tm.active[item.turn.ID] = item.turn
	return item.turn
}

// Reinsert возвращает талон в очередь с тем же номером и приоритетом.
// Порядковый номер обновляется, поэтому талон встает в конец своей
// приоритетной группы.
func (tm *TurnManager) Reinsert(turn *models.Turn) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	delete(tm.active, turn.ID)
	tm.seq++
	heap.Push(&tm.queue, &turnItem{turn: turn, seq: tm.seq})
	tm.sink.AddEvent(turn.ID, "TURN_REQUEUED", "талон возвращен в очередь", utils.SeverityWarning)
}

// MarkDone снимает талон с учета активных
func (tm *TurnManager) MarkDone(turnID string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	delete(tm.active, turnID)
}

// IsActive сообщает, обрабатывается ли талон прямо сейчас
func (tm *TurnManager) IsActive(turnID string) bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	_, ok := tm.active[turnID]
	return ok
}

// Find возвращает талон по номеру
func (tm *TurnManager) Find(turnID string) (*models.Turn, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	turn, ok := tm.all[turnID]
	if !ok {
		return nil, models.ErrTurnNotFound
	}
	return turn, nil
}

// PendingCount возвращает число талонов, ожидающих в очереди
func (tm *TurnManager) PendingCount() int {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.queue.Len()
}
