package services

import (
	"fmt"
	"sync"
	"time"

	"bankProject/config"
	"bankProject/models"
	"bankProject/utils"
)

// advisorOps содержит операции, требующие консультанта; все остальные
// обслуживает кассир
var advisorOps = map[models.OperationType]bool{
	models.OpCreateCustomer:  true,
	models.OpDeleteCustomer:  true,
	models.OpCreateAccount:   true,
	models.OpCloseAccount:    true,
	models.OpLinkAccount:     true,
	models.OpIssueDebitCard:  true,
	models.OpIssueCreditCard: true,
	models.OpDeactivateCard:  true,
}

// DispatcherService связывает очередь талонов с пулами сотрудников.
// Цикл диспетчера извлекает талон, пытается занять слот нужного пула
// без ожидания и при неудаче возвращает талон в очередь.
type DispatcherService struct {
	bank  *BankService
	turns *TurnManager
	locks *utils.BankLocks
	sink  utils.EventSink

	tellers  []*Worker
	advisors []*Worker
	idGen    *models.TurnIDGenerator

	backoff time.Duration
	maxOps  int

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	opsWG    sync.WaitGroup
}

// NewDispatcherService создает диспетчер с пулами кассиров и
// консультантов по конфигурации
func NewDispatcherService(cfg *config.Config, bank *BankService, sink utils.EventSink) *DispatcherService {
	if sink == nil {
		sink = utils.NoopSink{}
	}

	d := &DispatcherService{
		bank:     bank,
		turns:    NewTurnManager(sink),
		locks:    bank.Locks(),
		sink:     sink,
		idGen:    models.NewTurnIDGenerator(),
		backoff:  time.Duration(cfg.Bank.DispatchBackoff) * time.Millisecond,
		maxOps:   cfg.Bank.MaxOpsPerTurn,
		stopChan: make(chan struct{}),
	}

	for i := 1; i <= cfg.Bank.NumTellers; i++ {
		d.tellers = append(d.tellers, NewTeller(fmt.Sprintf("teller-%d", i), bank, sink))
	}
	for i := 1; i <= cfg.Bank.NumAdvisors; i++ {
		d.advisors = append(d.advisors, NewAdvisor(fmt.Sprintf("advisor-%d", i), bank, sink))
	}

	return d
}

// Turns возвращает менеджер очереди (для запросов статуса)
func (d *DispatcherService) Turns() *TurnManager {
	return d.turns
}

// Submit создает талон, выводя приоритет из предъявленной карты.
// Пустой номер карты означает клиента без карты (приоритет 3).
func (d *DispatcherService) Submit(customerID, cardNumber string, ops []*models.Operation) (*models.Turn, error) {
	var card *models.Card
	if cardNumber != "" {
		found, err := d.bank.GetCard(cardNumber)
		if err != nil {
			return nil, err
		}
		card = found
	}
	return d.SubmitWithPriority(customerID, cardNumber, models.DerivePriority(card), ops)
}

// SubmitWithPriority создает талон с заданным приоритетом
func (d *DispatcherService) SubmitWithPriority(customerID, cardNumber string, priority int, ops []*models.Operation) (*models.Turn, error) {
	id, err := d.idGen.Next(priority)
	if err != nil {
		return nil, err
	}

	turn := models.NewTurn(id, customerID, cardNumber, priority, ops)
	d.turns.Add(turn)
	utils.GetMetrics().RecordTurnSubmitted()

	d.sink.AddEvent(turn.ID, "TURN_SUBMITTED",
		fmt.Sprintf("клиент %s, приоритет %d, операций: %d", customerID, priority, len(ops)),
		utils.SeverityInfo)
	return turn, nil
}

// TurnStatus возвращает текущий статус талона по номеру
func (d *DispatcherService) TurnStatus(turnID string) (models.TurnStatus, error) {
	turn, err := d.turns.Find(turnID)
	if err != nil {
		return "", err
	}
	return turn.Status(), nil
}

// Start запускает цикл диспетчера
func (d *DispatcherService) Start() {
	d.wg.Add(1)
	go d.run()
	d.sink.AddEvent("dispatcher", "DISPATCHER_STARTED",
		fmt.Sprintf("кассиров: %d, консультантов: %d", len(d.tellers), len(d.advisors)),
		utils.SeverityInfo)
}

// Stop останавливает цикл и дожидается завершения всех талонов
// в обработке
func (d *DispatcherService) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopChan)
	})
	d.wg.Wait()
	d.opsWG.Wait()
	d.sink.AddEvent("dispatcher", "DISPATCHER_STOPPED", "диспетчер остановлен", utils.SeverityInfo)
}

// WaitInFlight дожидается завершения всех взятых в работу талонов,
// не останавливая диспетчер
func (d *DispatcherService) WaitInFlight() {
	d.opsWG.Wait()
}

func (d *DispatcherService) run() {
	defer d.wg.Done()

	for {
		select {
		case <-d.stopChan:
			return
		default:
		}

		if !d.dispatchPass() {
			time.Sleep(d.backoff)
		}
	}
}

// dispatchPass проходит всю очередь один раз: талоны занятых пулов
// откладываются и не мешают раздаче остальных. Возвращает true,
// если хотя бы один талон взят в работу.
func (d *DispatcherService) dispatchPass() bool {
	dispatched := false
	var skipped []*models.Turn

	for {
		turn := d.turns.Next()
		if turn == nil {
			break
		}

		pool, workers := d.classify(turn)

		// Слот пула берем без ожидания; занятый пул откладывает
		// талон до конца прохода
		if !pool.TryAcquire() {
			skipped = append(skipped, turn)
			utils.GetMetrics().RecordAdmissionFailure(pool.Name())
			d.sink.AddEvent(turn.ID, "ADMISSION_FAILED",
				models.ErrNoWorkerSlot.Error(), utils.SeverityWarning)
			continue
		}

		worker := d.freeWorker(workers)
		if worker == nil || !worker.AssignTurn(turn) {
			pool.Release()
			skipped = append(skipped, turn)
			d.sink.AddEvent(turn.ID, "ADMISSION_FAILED",
				models.ErrNoFreeWorker.Error(), utils.SeverityWarning)
			continue
		}

		turn.MarkInProgress()
		d.opsWG.Add(1)
		go d.execute(worker, pool, turn)
		dispatched = true
	}

	// Отложенные талоны возвращаются с прежними номерами
	for _, turn := range skipped {
		d.turns.Reinsert(turn)
		utils.GetMetrics().RecordTurnReinserted()
	}
	return dispatched
}

// classify определяет пул для талона: талон с хотя бы одной
// консультантской операцией идет к консультанту
func (d *DispatcherService) classify(turn *models.Turn) (*utils.WorkerSemaphore, []*Worker) {
	for _, op := range turn.Operations {
		if advisorOps[op.Type] {
			return d.locks.Advisors, d.advisors
		}
	}
	return d.locks.Tellers, d.tellers
}

func (d *DispatcherService) freeWorker(workers []*Worker) *Worker {
	for _, w := range workers {
		if w.Available() {
			return w
		}
	}
	return nil
}

// execute выполняет операции талона на закрепленном сотруднике
func (d *DispatcherService) execute(worker *Worker, pool *utils.WorkerSemaphore, turn *models.Turn) {
	failed := false

	defer func() {
		if r := recover(); r != nil {
			utils.LogError("паника при обработке талона %s: %v", turn.ID, r)
			failed = true
		}

		worker.CompleteTurn()
		pool.Release()
		d.turns.MarkDone(turn.ID)

		if failed {
			turn.MarkFailed()
			d.sink.AddEvent(turn.ID, "TURN_FAILED", "талон завершен с ошибкой", utils.SeverityError)
		} else {
			turn.MarkCompleted()
			d.sink.AddEvent(turn.ID, "TURN_COMPLETED", "талон обслужен", utils.SeveritySuccess)
		}
		utils.GetMetrics().RecordTurnFinished(failed)
		d.opsWG.Done()
	}()

	ops := turn.Operations
	if len(ops) > d.maxOps {
		// Лишние операции отбрасываются, клиент берет новый талон
		for range ops[d.maxOps:] {
			utils.GetMetrics().RecordOperationDropped()
		}
		d.sink.AddEvent(turn.ID, "OPERATIONS_DROPPED",
			fmt.Sprintf("операций сверх лимита: %d", len(ops)-d.maxOps), utils.SeverityWarning)
		ops = ops[:d.maxOps]
	}

	for _, op := range ops {
		start := time.Now()

		err := op.Validate()
		if err == nil {
			err = worker.Execute(turn.ID, op)
		}

		utils.GetMetrics().RecordOperation(time.Since(start), err)
		if err != nil {
			failed = true
		}
	}
}
