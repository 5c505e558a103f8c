package ledger

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	errs "github.com/vendtrack/vending-core/internal/domain/error"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
)

// Serializer provides single-writer sequential execution of mutations per
// transaction id. Webhook confirms, dispense reports and refund operations
// that target the same transaction are funneled through one worker, so two
// concurrent read-modify-write cycles can never interleave on a row. Each
// transaction id is an independent serializability unit.
//
// Queues are retired via Release once a transaction reaches a terminal
// state; a later mutation on the same id transparently gets a fresh queue.
type Serializer struct {
	logger coreport.Logger

	// Per-transaction turn queues for strict ordering
	queues         sync.Map // map[uuid.UUID]*turnQueue
	queueWaitGroup sync.WaitGroup
	queueSize      int

	mu     sync.Mutex
	closed bool
}

// turn is one queued mutation awaiting execution
type turn struct {
	ctx        context.Context
	fn         func(ctx context.Context) error
	resultChan chan error
}

// errQueueRetired signals that a sender raced queue retirement and must
// take a fresh queue
var errQueueRetired = errors.New("turn queue retired")

// turnQueue is one transaction's turn channel plus the closed flag that
// keeps senders from racing a close
type turnQueue struct {
	mu     sync.RWMutex
	turns  chan *turn
	closed bool
}

func newTurnQueue(size int) *turnQueue {
	return &turnQueue{turns: make(chan *turn, size)}
}

// enqueue places t on the queue, failing fast when the queue was retired
func (q *turnQueue) enqueue(ctx context.Context, t *turn) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return errQueueRetired
	}
	select {
	case q.turns <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retire closes an empty queue and reports whether it closed. A queue with
// turns still pending stays open.
func (q *turnQueue) retire() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return true
	}
	if len(q.turns) > 0 {
		return false
	}
	q.closed = true
	close(q.turns)
	return true
}

// forceClose closes the queue regardless of pending turns; the worker
// drains whatever is buffered before exiting
func (q *turnQueue) forceClose() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.turns)
	}
}

// NewSerializer creates a new per-transaction serializer
func NewSerializer(logger coreport.Logger, queueSize int) *Serializer {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Serializer{
		logger:    logger,
		queueSize: queueSize,
	}
}

// Execute runs fn as the only active mutation for the given transaction id.
// It blocks until the turn has run or the context is canceled while waiting.
func (s *Serializer) Execute(ctx context.Context, transactionID uuid.UUID, fn func(ctx context.Context) error) error {
	t := &turn{
		ctx:        ctx,
		fn:         fn,
		resultChan: make(chan error, 1),
	}

	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return errs.ErrInternalServer
		}

		queueIface, loaded := s.queues.LoadOrStore(transactionID, newTurnQueue(s.queueSize))
		queue, ok := queueIface.(*turnQueue)
		if !ok {
			s.mu.Unlock()
			s.logger.Error("Failed to type assert turn queue", nil)
			return errs.ErrInternalServer
		}

		// Start worker if this is a new queue
		if !loaded {
			s.queueWaitGroup.Add(1)
			go s.runQueue(transactionID, queue)
		}
		s.mu.Unlock()

		err := queue.enqueue(ctx, t)
		if err == nil {
			break
		}
		if errors.Is(err, errQueueRetired) {
			// Raced a Release; the retired queue is out of the map, retry
			// against a fresh one
			continue
		}
		s.logger.Warn("Context canceled while enqueueing transaction mutation", map[string]any{
			"transaction_id": transactionID.String(),
			"error":          err.Error(),
		})
		return err
	}

	select {
	case err := <-t.resultChan:
		return err
	case <-ctx.Done():
		s.logger.Warn("Context canceled while waiting for transaction mutation", map[string]any{
			"transaction_id": transactionID.String(),
			"error":          ctx.Err().Error(),
		})
		return ctx.Err()
	}
}

// Release retires the queue for a transaction that accepts no further
// mutations, so terminal transactions do not pin a worker goroutine for the
// process lifetime. A queue with turns still pending stays; releasing is
// purely an optimization and a released id gets a fresh queue on demand.
func (s *Serializer) Release(transactionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	queueIface, ok := s.queues.Load(transactionID)
	if !ok {
		return
	}
	queue, ok := queueIface.(*turnQueue)
	if !ok {
		return
	}
	if queue.retire() {
		s.queues.Delete(transactionID)
	}
}

// runQueue is the worker goroutine draining one transaction's turn queue
func (s *Serializer) runQueue(transactionID uuid.UUID, queue *turnQueue) {
	defer s.queueWaitGroup.Done()

	s.logger.Debug("Transaction mutation worker started", map[string]any{
		"transaction_id": transactionID.String(),
	})

	for t := range queue.turns {
		t.resultChan <- t.fn(t.ctx)
		close(t.resultChan)
	}

	s.logger.Debug("Transaction mutation worker stopped", map[string]any{
		"transaction_id": transactionID.String(),
	})
}

// Shutdown stops all worker goroutines cleanly
func (s *Serializer) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.logger.Info("Shutting down transaction serializer", nil)

	s.queues.Range(func(_, queueIface interface{}) bool {
		if queue, ok := queueIface.(*turnQueue); ok {
			queue.forceClose()
		}
		return true
	})

	s.queueWaitGroup.Wait()
	s.logger.Info("Transaction serializer shut down", nil)
}
