package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendtrack/vending-core/internal/domain/entity"
	errs "github.com/vendtrack/vending-core/internal/domain/error"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
	"github.com/vendtrack/vending-core/internal/domain/port/persistence"
)

// stubClock is a settable TimeProvider safe for use from worker goroutines
type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStubClock(now time.Time) *stubClock {
	return &stubClock{now: now}
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *stubClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

func (c *stubClock) WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

// noopLogger discards everything
type noopLogger struct {
	level coreport.LogLevel
}

func (l *noopLogger) SetLevel(level coreport.LogLevel) { l.level = level }
func (l *noopLogger) GetLevel() coreport.LogLevel      { return l.level }
func (l *noopLogger) Debug(string, map[string]any)     {}
func (l *noopLogger) Info(string, map[string]any)      {}
func (l *noopLogger) Warn(string, map[string]any)      {}
func (l *noopLogger) Error(string, map[string]any)     {}
func (l *noopLogger) Flush() error                     { return nil }

// recordingNotifier captures notifications for inspection
type recordingNotifier struct {
	mu            sync.Mutex
	refunds       []uuid.UUID
	discrepancies []uuid.UUID
}

func (n *recordingNotifier) NotifyRefund(_ context.Context, transactionID uuid.UUID, _ string, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.refunds = append(n.refunds, transactionID)
}

func (n *recordingNotifier) NotifyCollectionDiscrepancy(_ context.Context, collectionID uuid.UUID, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.discrepancies = append(n.discrepancies, collectionID)
}

func (n *recordingNotifier) RefundCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.refunds)
}

// memoryTransactionRepo is an in-memory TransactionRepository. Reads return
// copies so callers only observe state that went through Update.
type memoryTransactionRepo struct {
	mu           sync.Mutex
	transactions map[uuid.UUID]*entity.Transaction
}

func newMemoryTransactionRepo() *memoryTransactionRepo {
	return &memoryTransactionRepo{transactions: map[uuid.UUID]*entity.Transaction{}}
}

func cloneTransaction(t *entity.Transaction) *entity.Transaction {
	cp := *t
	cp.Items = append([]entity.TransactionItem(nil), t.Items...)
	return &cp
}

func (r *memoryTransactionRepo) Create(_ context.Context, transaction *entity.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.transactions[transaction.ID]; exists {
		return errs.NewStateConflictError(transaction.ID.String(), "exists", "create")
	}
	r.transactions[transaction.ID] = cloneTransaction(transaction)
	return nil
}

func (r *memoryTransactionRepo) Update(_ context.Context, transaction *entity.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.transactions[transaction.ID]
	if !ok {
		return errs.ErrTransactionNotFound
	}
	cp := cloneTransaction(transaction)
	cp.Items = stored.Items
	r.transactions[transaction.ID] = cp
	return nil
}

func (r *memoryTransactionRepo) UpdateItem(_ context.Context, item *entity.TransactionItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.transactions[item.TransactionID]
	if !ok {
		return errs.ErrItemNotFound
	}
	for i := range stored.Items {
		if stored.Items[i].ID == item.ID {
			stored.Items[i] = *item
			return nil
		}
	}
	return errs.ErrItemNotFound
}

func (r *memoryTransactionRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.transactions[id]
	if !ok {
		return nil, errs.ErrTransactionNotFound
	}
	return cloneTransaction(stored), nil
}

func (r *memoryTransactionRepo) GetByExternalRef(_ context.Context, externalRef string) (*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if externalRef == "" {
		return nil, errs.ErrTransactionNotFound
	}
	for _, stored := range r.transactions {
		if stored.ExternalRef == externalRef {
			return cloneTransaction(stored), nil
		}
	}
	return nil, errs.ErrTransactionNotFound
}

func (r *memoryTransactionRepo) GetItem(_ context.Context, itemID uuid.UUID) (*entity.TransactionItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.transactions {
		for i := range stored.Items {
			if stored.Items[i].ID == itemID {
				item := stored.Items[i]
				return &item, nil
			}
		}
	}
	return nil, errs.ErrItemNotFound
}

func (r *memoryTransactionRepo) SumRefunds(_ context.Context, originalTransactionID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, stored := range r.transactions {
		if stored.Type != entity.TypeRefund || stored.OriginalTransactionID == nil {
			continue
		}
		if *stored.OriginalTransactionID != originalTransactionID {
			continue
		}
		if stored.Status == entity.StatusFailed || stored.Status == entity.StatusCancelled {
			continue
		}
		sum = sum.Add(stored.TotalAmount)
	}
	return sum, nil
}

func (r *memoryTransactionRepo) List(_ context.Context, filter persistence.TransactionFilter) ([]entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Transaction
	for _, stored := range r.transactions {
		if !matchesFilter(stored, filter) {
			continue
		}
		out = append(out, *cloneTransaction(stored))
	}
	return out, nil
}

func matchesFilter(t *entity.Transaction, f persistence.TransactionFilter) bool {
	if t.OrganizationID != f.OrganizationID {
		return false
	}
	if f.MachineID != nil && t.MachineID != *f.MachineID {
		return false
	}
	if f.ContractID != nil && (t.ContractID == nil || *t.ContractID != *f.ContractID) {
		return false
	}
	if len(f.Types) > 0 && !containsType(f.Types, t.Type) {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, t.Status) {
		return false
	}
	if f.From != nil && t.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !t.CreatedAt.Before(*f.To) {
		return false
	}
	return true
}

func containsType(types []entity.TransactionType, t entity.TransactionType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

func containsStatus(statuses []entity.TransactionStatus, s entity.TransactionStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func (r *memoryTransactionRepo) FindStaleProcessing(_ context.Context, before time.Time) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for id, stored := range r.transactions {
		if stored.Status == entity.StatusProcessing && stored.CreatedAt.Before(before) && stored.DeletedAt == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *memoryTransactionRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.transactions[id]
	if !ok {
		return errs.ErrTransactionNotFound
	}
	now := time.Now().UTC()
	stored.DeletedAt = &now
	return nil
}

// memoryOutboxRepo is an in-memory OutboxRepository with dedup-key semantics
type memoryOutboxRepo struct {
	mu       sync.Mutex
	messages []entity.OutboxMessage
	dedup    map[uuid.UUID]bool
}

func newMemoryOutboxRepo() *memoryOutboxRepo {
	return &memoryOutboxRepo{dedup: map[uuid.UUID]bool{}}
}

func (r *memoryOutboxRepo) Enqueue(_ context.Context, message *entity.OutboxMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dedup[message.DedupKey] {
		return nil
	}
	r.dedup[message.DedupKey] = true
	message.ID = uint64(len(r.messages) + 1)
	r.messages = append(r.messages, *message)
	return nil
}

func (r *memoryOutboxRepo) FetchPending(_ context.Context, limit int) ([]entity.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.OutboxMessage
	for _, msg := range r.messages {
		if msg.DeliveredAt != nil {
			continue
		}
		out = append(out, msg)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *memoryOutboxRepo) MarkDelivered(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.messages {
		if r.messages[i].ID == id {
			now := time.Now().UTC()
			r.messages[i].DeliveredAt = &now
		}
	}
	return nil
}

func (r *memoryOutboxRepo) MarkAttempt(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.messages {
		if r.messages[i].ID == id {
			r.messages[i].Attempts++
		}
	}
	return nil
}

func (r *memoryOutboxRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

func (r *memoryOutboxRepo) Last() entity.OutboxMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messages[len(r.messages)-1]
}

// fakeUnitOfWork passes the context through unchanged and counts lifecycle
// calls
type fakeUnitOfWork struct {
	txRepo     *memoryTransactionRepo
	outboxRepo *memoryOutboxRepo

	mu        sync.Mutex
	beginErr  error
	begins    int
	commits   int
	rollbacks int
}

func newFakeUnitOfWork() *fakeUnitOfWork {
	return &fakeUnitOfWork{
		txRepo:     newMemoryTransactionRepo(),
		outboxRepo: newMemoryOutboxRepo(),
	}
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.beginErr != nil {
		return nil, u.beginErr
	}
	u.begins++
	return ctx, nil
}

func (u *fakeUnitOfWork) Commit(context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.commits++
	return nil
}

func (u *fakeUnitOfWork) Rollback(context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.rollbacks++
	return nil
}

func (u *fakeUnitOfWork) Commits() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.commits
}

func (u *fakeUnitOfWork) Rollbacks() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rollbacks
}

func (u *fakeUnitOfWork) GetTransactionRepository(context.Context) persistence.TransactionRepository {
	return u.txRepo
}

func (u *fakeUnitOfWork) GetCollectionRepository(context.Context) persistence.CollectionRepository {
	return nil
}

func (u *fakeUnitOfWork) GetSummaryRepository(context.Context) persistence.SummaryRepository {
	return nil
}

func (u *fakeUnitOfWork) GetCommissionRepository(context.Context) persistence.CommissionRepository {
	return nil
}

func (u *fakeUnitOfWork) GetOutboxRepository(context.Context) persistence.OutboxRepository {
	return u.outboxRepo
}
