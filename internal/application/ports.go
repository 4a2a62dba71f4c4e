package application

import (
	"context"
	"time"

	"github.com/hromada-tools/backoffice/internal/domain"
)

// TaskBroker is the port for the message-broker RPC infrastructure. It sends
// a named task and blocks until a correlated reply arrives or the timeout
// elapses.
type TaskBroker interface {
	SendTaskWithReply(ctx context.Context, task string, payload any, timeout time.Duration) (*TaskResult, error)
}

// DebtorStore is the port for the local debtor mirror table.
type DebtorStore interface {
	FlushTable(ctx context.Context) error
	BulkInsert(ctx context.Context, records []domain.DebtorRecord) (*domain.InsertResult, error)
	ImportRegistryToHistory(ctx context.Context, date string) error
}

// CommunityStore is the port for the community reference settings.
type CommunityStore interface {
	FindByName(ctx context.Context, name string) (*domain.CommunitySettings, error)
	List(ctx context.Context) ([]domain.CommunitySettings, error)
}

// AccountStore lists notification recipients. Read fresh on every fan-out,
// never cached.
type AccountStore interface {
	ListChatIDs(ctx context.Context) ([]int64, error)
}

// SmsTemplateStore is the port for SMS template persistence.
type SmsTemplateStore interface {
	List(ctx context.Context) ([]domain.SmsTemplate, error)
	FindByID(ctx context.Context, id int64) (*domain.SmsTemplate, error)
	Create(ctx context.Context, name, text string) (*domain.SmsTemplate, error)
	Update(ctx context.Context, id int64, name, text string) (*domain.SmsTemplate, error)
	Delete(ctx context.Context, id int64) error
}

// NotifyProgress is reported after each successful delivery of a fan-out.
type NotifyProgress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// NotifyOptions control a fan-out delivery.
type NotifyOptions struct {
	ParseMode      string
	ProtectContent bool
	OnProgress     func(NotifyProgress)
	OnComplete     func(*domain.DeliveryStats)
	OnError        func(error)
}

// Notifier is the port for the notification fan-out engine.
type Notifier interface {
	SendToAll(ctx context.Context, text string, opts NotifyOptions) (*domain.DeliveryStats, error)
}
