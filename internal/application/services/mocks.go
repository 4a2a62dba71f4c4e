package services

import (
	"context"
	"sync"
	"time"

	"github.com/hromada-tools/backoffice/internal/application"
	"github.com/hromada-tools/backoffice/internal/domain"
)

// Function-field mocks for the application ports, used by the service tests.

// TaskCall records one dispatched broker task.
type TaskCall struct {
	Task    string
	Payload any
	Timeout time.Duration
}

// MockTaskBroker
type MockTaskBroker struct {
	mu    sync.Mutex
	calls []TaskCall

	SendTaskWithReplyFn func(ctx context.Context, task string, payload any, timeout time.Duration) (*application.TaskResult, error)
}

func (m *MockTaskBroker) SendTaskWithReply(ctx context.Context, task string, payload any, timeout time.Duration) (*application.TaskResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, TaskCall{Task: task, Payload: payload, Timeout: timeout})
	m.mu.Unlock()

	if m.SendTaskWithReplyFn != nil {
		return m.SendTaskWithReplyFn(ctx, task, payload, timeout)
	}
	return &application.TaskResult{Success: true}, nil
}

func (m *MockTaskBroker) Calls() []TaskCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TaskCall(nil), m.calls...)
}

func (m *MockTaskBroker) CallCount(task string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, call := range m.calls {
		if call.Task == task {
			count++
		}
	}
	return count
}

// MockDebtorStore records the order of gateway operations so tests can
// assert the pipeline sequencing.
type MockDebtorStore struct {
	mu  sync.Mutex
	ops []string

	FlushTableFn              func(ctx context.Context) error
	BulkInsertFn              func(ctx context.Context, records []domain.DebtorRecord) (*domain.InsertResult, error)
	ImportRegistryToHistoryFn func(ctx context.Context, date string) error
}

func (m *MockDebtorStore) record(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, op)
}

func (m *MockDebtorStore) Ops() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ops...)
}

func (m *MockDebtorStore) FlushTable(ctx context.Context) error {
	m.record("flush")
	if m.FlushTableFn != nil {
		return m.FlushTableFn(ctx)
	}
	return nil
}

func (m *MockDebtorStore) BulkInsert(ctx context.Context, records []domain.DebtorRecord) (*domain.InsertResult, error) {
	m.record("insert")
	if m.BulkInsertFn != nil {
		return m.BulkInsertFn(ctx, records)
	}
	return &domain.InsertResult{
		Inserted:           len(records),
		TotalSourceRecords: len(records),
	}, nil
}

func (m *MockDebtorStore) ImportRegistryToHistory(ctx context.Context, date string) error {
	m.record("import")
	if m.ImportRegistryToHistoryFn != nil {
		return m.ImportRegistryToHistoryFn(ctx, date)
	}
	return nil
}

// MockCommunityStore
type MockCommunityStore struct {
	mu          sync.Mutex
	findCalls   int
	Communities map[string]*domain.CommunitySettings

	FindByNameFn func(ctx context.Context, name string) (*domain.CommunitySettings, error)
	ListFn       func(ctx context.Context) ([]domain.CommunitySettings, error)
}

func (m *MockCommunityStore) FindByName(ctx context.Context, name string) (*domain.CommunitySettings, error) {
	m.mu.Lock()
	m.findCalls++
	m.mu.Unlock()

	if m.FindByNameFn != nil {
		return m.FindByNameFn(ctx, name)
	}
	if settings, ok := m.Communities[name]; ok {
		return settings, nil
	}
	return nil, domain.ErrCommunityNotFound
}

func (m *MockCommunityStore) List(ctx context.Context) ([]domain.CommunitySettings, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	var communities []domain.CommunitySettings
	for _, settings := range m.Communities {
		communities = append(communities, *settings)
	}
	return communities, nil
}

func (m *MockCommunityStore) FindCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findCalls
}

// MockNotifier
type MockNotifier struct {
	mu    sync.Mutex
	calls int

	SendToAllFn func(ctx context.Context, text string, opts application.NotifyOptions) (*domain.DeliveryStats, error)
}

func (m *MockNotifier) SendToAll(ctx context.Context, text string, opts application.NotifyOptions) (*domain.DeliveryStats, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.SendToAllFn != nil {
		return m.SendToAllFn(ctx, text, opts)
	}
	return &domain.DeliveryStats{Success: true}, nil
}

func (m *MockNotifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockSmsTemplateStore
type MockSmsTemplateStore struct {
	mu        sync.Mutex
	nextID    int64
	Templates map[int64]*domain.SmsTemplate

	FindByIDFn func(ctx context.Context, id int64) (*domain.SmsTemplate, error)
}

func NewMockSmsTemplateStore() *MockSmsTemplateStore {
	return &MockSmsTemplateStore{Templates: make(map[int64]*domain.SmsTemplate)}
}

func (m *MockSmsTemplateStore) List(ctx context.Context) ([]domain.SmsTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var templates []domain.SmsTemplate
	for _, template := range m.Templates {
		templates = append(templates, *template)
	}
	return templates, nil
}

func (m *MockSmsTemplateStore) FindByID(ctx context.Context, id int64) (*domain.SmsTemplate, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if template, ok := m.Templates[id]; ok {
		return template, nil
	}
	return nil, domain.ErrTemplateNotFound
}

func (m *MockSmsTemplateStore) Create(ctx context.Context, name, text string) (*domain.SmsTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	template := &domain.SmsTemplate{
		ID:        m.nextID,
		Name:      name,
		Text:      text,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.Templates[template.ID] = template
	return template, nil
}

func (m *MockSmsTemplateStore) Update(ctx context.Context, id int64, name, text string) (*domain.SmsTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	template, ok := m.Templates[id]
	if !ok {
		return nil, domain.ErrTemplateNotFound
	}
	template.Name = name
	template.Text = text
	template.UpdatedAt = time.Now()
	return template, nil
}

func (m *MockSmsTemplateStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Templates[id]; !ok {
		return domain.ErrTemplateNotFound
	}
	delete(m.Templates, id)
	return nil
}
