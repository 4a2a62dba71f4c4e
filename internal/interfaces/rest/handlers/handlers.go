package handlers

import (
	"context"
	"log/slog"

	"github.com/hromada-tools/backoffice/internal/application"
	"github.com/hromada-tools/backoffice/internal/application/services"
	"github.com/hromada-tools/backoffice/internal/domain"
)

// TasksService is the slice of the orchestrator the REST layer needs.
type TasksService interface {
	ProcessDebtorRegister(ctx context.Context, communityName string) (*application.TaskResult, error)
	SendEmail(ctx context.Context, communityName string) (*application.TaskResult, error)
	PreviewDatabaseUpdate(ctx context.Context, communityName string) (*application.TaskResult, error)
	UpdateDatabaseExecute(ctx context.Context, communityName string) (*services.UpdateResult, error)
}

type SmsService interface {
	Templates(ctx context.Context) ([]domain.SmsTemplate, error)
	TemplateByID(ctx context.Context, id int64) (*domain.SmsTemplate, error)
	CreateTemplate(ctx context.Context, name, text string) (*domain.SmsTemplate, error)
	UpdateTemplate(ctx context.Context, id int64, name, text string) (*domain.SmsTemplate, error)
	DeleteTemplate(ctx context.Context, id int64) error
	PreviewSms(ctx context.Context, templateID int64, debtor domain.DebtorRecord) (*services.SmsPreview, error)
	SendSms(ctx context.Context, phone, text string) (*application.TaskResult, error)
	SendSmsBatch(ctx context.Context, messages []services.SmsMessage) (*application.TaskResult, error)
}

type CommunityService interface {
	AvailableCommunities(ctx context.Context) ([]domain.CommunitySettings, error)
}

type Handlers struct {
	tasks            TasksService
	sms              SmsService
	communities      CommunityService
	defaultCommunity string
	logger           *slog.Logger
}

func NewHandlers(
	tasks TasksService,
	sms SmsService,
	communities CommunityService,
	defaultCommunity string,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		tasks:            tasks,
		sms:              sms,
		communities:      communities,
		defaultCommunity: defaultCommunity,
		logger:           logger,
	}
}
