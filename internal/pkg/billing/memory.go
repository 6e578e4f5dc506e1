package billing

import (
	"context"
	"sync"
	"time"

	"github.com/PostPilotHQ/PostPilot/app/models"
)

// MemoryRepository is an in-memory Repository used by tests and local
// development. ProcessEvent mimics the transactional semantics of the GORM
// implementation: mutations made by fn are committed only if fn succeeds.
type MemoryRepository struct {
	mu          sync.Mutex
	accounts    map[string]*models.Account            // external customer id
	subs        map[string]*models.SubscriptionRecord // external subscription id
	connections map[string]*models.PlatformConnection // platform + "/" + platform user id
	events      map[string]*models.WebhookEvent       // provider + "/" + event id
	nextID      uint

	// FailNextSave forces the next SaveSubscription call to fail with a
	// TransientError, for retry-path tests.
	FailNextSave bool
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts:    make(map[string]*models.Account),
		subs:        make(map[string]*models.SubscriptionRecord),
		connections: make(map[string]*models.PlatformConnection),
		events:      make(map[string]*models.WebhookEvent),
		nextID:      1,
	}
}

// AddAccount seeds an account.
func (m *MemoryRepository) AddAccount(account models.Account) *models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if account.ID == 0 {
		account.ID = m.nextID
		m.nextID++
	}
	m.accounts[account.ExternalCustomerID] = &account
	return &account
}

// AddPlatformConnection seeds a platform connection.
func (m *MemoryRepository) AddPlatformConnection(conn models.PlatformConnection) *models.PlatformConnection {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conn.ID == 0 {
		conn.ID = m.nextID
		m.nextID++
	}
	m.connections[conn.Platform+"/"+conn.PlatformUserID] = &conn
	return &conn
}

// Subscription returns a copy of the stored record, or nil.
func (m *MemoryRepository) Subscription(externalSubscriptionID string) *models.SubscriptionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.subs[externalSubscriptionID]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}

// Connection returns a copy of the stored platform connection, or nil.
func (m *MemoryRepository) Connection(platform, platformUserID string) *models.PlatformConnection {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn, ok := m.connections[platform+"/"+platformUserID]
	if !ok {
		return nil
	}
	cp := *conn
	return &cp
}

// Event returns a copy of the processed-event row, or nil.
func (m *MemoryRepository) Event(provider, eventID string) *models.WebhookEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[provider+"/"+eventID]
	if !ok {
		return nil
	}
	cp := *ev
	return &cp
}

// EventCount reports how many processed-event rows exist.
func (m *MemoryRepository) EventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func (m *MemoryRepository) GetAccountByExternalCustomerID(ctx context.Context, customerID string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[customerID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *account
	return &cp, nil
}

func (m *MemoryRepository) GetSubscriptionByExternalID(ctx context.Context, externalSubscriptionID string) (*models.SubscriptionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.subs[externalSubscriptionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *MemoryRepository) GetSubscriptionByExternalCustomerID(ctx context.Context, customerID string) (*models.SubscriptionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.SubscriptionRecord
	for _, rec := range m.subs {
		if rec.ExternalCustomerID != customerID {
			continue
		}
		if latest == nil || rec.UpdatedAt.After(latest.UpdatedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *MemoryRepository) SaveSubscription(ctx context.Context, rec *models.SubscriptionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNextSave {
		m.FailNextSave = false
		return &TransientError{Op: "subscription save", Err: context.DeadlineExceeded}
	}
	if existing, ok := m.subs[rec.ExternalSubscriptionID]; ok {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.ID = m.nextID
		m.nextID++
		rec.CreatedAt = time.Now()
	}
	rec.UpdatedAt = time.Now()
	cp := *rec
	m.subs[rec.ExternalSubscriptionID] = &cp
	return nil
}

func (m *MemoryRepository) GetPlatformConnection(ctx context.Context, platform, platformUserID string) (*models.PlatformConnection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn, ok := m.connections[platform+"/"+platformUserID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *conn
	return &cp, nil
}

func (m *MemoryRepository) SavePlatformConnection(ctx context.Context, conn *models.PlatformConnection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conn.ID == 0 {
		conn.ID = m.nextID
		m.nextID++
	}
	cp := *conn
	m.connections[conn.Platform+"/"+conn.PlatformUserID] = &cp
	return nil
}

func (m *MemoryRepository) ProcessEvent(ctx context.Context, key EventKey, fn func(tx Repository) (string, error)) (string, error) {
	m.mu.Lock()
	eventKey := key.Provider + "/" + key.EventID
	if _, ok := m.events[eventKey]; ok {
		m.mu.Unlock()
		return "", ErrDuplicateEvent
	}
	// Snapshot for rollback if fn fails.
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	outcome, err := fn(m)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.restoreLocked(snapshot)
		return "", err
	}
	now := time.Now()
	m.events[eventKey] = &models.WebhookEvent{
		ID:              m.nextID,
		Provider:        key.Provider,
		ProviderEventID: key.EventID,
		EventType:       key.EventType,
		PayloadJSON:     key.PayloadJSON,
		Outcome:         outcome,
		ProcessedAt:     &now,
		CreatedAt:       now,
	}
	m.nextID++
	return outcome, nil
}

type memorySnapshot struct {
	subs        map[string]*models.SubscriptionRecord
	connections map[string]*models.PlatformConnection
}

func (m *MemoryRepository) snapshotLocked() memorySnapshot {
	snap := memorySnapshot{
		subs:        make(map[string]*models.SubscriptionRecord, len(m.subs)),
		connections: make(map[string]*models.PlatformConnection, len(m.connections)),
	}
	for k, v := range m.subs {
		cp := *v
		snap.subs[k] = &cp
	}
	for k, v := range m.connections {
		cp := *v
		snap.connections[k] = &cp
	}
	return snap
}

func (m *MemoryRepository) restoreLocked(snap memorySnapshot) {
	m.subs = snap.subs
	m.connections = snap.connections
}
