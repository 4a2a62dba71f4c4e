package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hromada-tools/backoffice/internal/application"
	"github.com/hromada-tools/backoffice/internal/domain"
)

// Per-task reply budgets. A budget overrun is reported as a timeout; the
// remote worker may still complete the task afterwards.
const (
	registerReplyTimeout = 60 * time.Second
	emailReplyTimeout    = 120 * time.Second
	statsReplyTimeout    = 30 * time.Second
	datasetReplyTimeout  = 120 * time.Second
)

// notificationTemplate is the user-facing message sent after a successful
// database update; the placeholder is the as-of date (first of the month).
const notificationTemplate = "Базу з боржниками успішно оновлено. Інформація станом на: %s"

// UpdateResult summarizes a completed database update pipeline.
type UpdateResult struct {
	Success          bool      `json:"success"`
	CommunityName    string    `json:"community_name"`
	RemoteTotalCount int64     `json:"remote_total_count"`
	SourceRecords    int       `json:"source_records"`
	InsertedDebtors  int       `json:"inserted_debtors"`
	ImportDate       string    `json:"import_date"`
	NotifiedUsers    int       `json:"notified_users"`
	ExecutedAt       time.Time `json:"executed_at"`
}

type sumsData struct {
	LatestDate   string `json:"latest_date"`
	TotalDebtors int64  `json:"total_debtors"`
}

type datasetData struct {
	Records    []domain.DebtorRecord `json:"records"`
	TotalCount int64                 `json:"total_count"`
}

// TasksService drives every broker-mediated workflow for a validated
// community: the single-shot RPC wrappers and the remote-to-local database
// update pipeline.
type TasksService struct {
	broker    application.TaskBroker
	debtors   application.DebtorStore
	validator *CommunityValidator
	notifier  application.Notifier // nil disables the notification step
	logger    *slog.Logger
	now       func() time.Time

	// updates single-flights the pipeline per community so concurrent
	// triggers share one truncate/insert run.
	updates singleflight.Group
}

func NewTasksService(
	broker application.TaskBroker,
	debtors application.DebtorStore,
	validator *CommunityValidator,
	notifier application.Notifier,
	logger *slog.Logger,
) *TasksService {
	return &TasksService{
		broker:    broker,
		debtors:   debtors,
		validator: validator,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// ProcessDebtorRegister asks the remote worker to process the debtor
// register and waits for the control sums.
func (s *TasksService) ProcessDebtorRegister(ctx context.Context, communityName string) (*application.TaskResult, error) {
	validation := s.validator.Validate(ctx, communityName)
	if !validation.IsValid {
		return nil, application.NewValidationError(validation.Reason)
	}
	community := validation.CommunityName

	result, err := s.sendTask(ctx, application.TaskProcessDebtorRegister,
		map[string]any{"community_name": community},
		registerReplyTimeout,
		"register processing failed on the worker side",
	)
	if err != nil {
		return nil, err
	}

	s.logger.Info("process_debtor_register completed", "community", community)
	return result, nil
}

// SendEmail asks the remote worker to send the results email.
func (s *TasksService) SendEmail(ctx context.Context, communityName string) (*application.TaskResult, error) {
	validation := s.validator.Validate(ctx, communityName)
	if !validation.IsValid {
		return nil, application.NewValidationError(validation.Reason)
	}
	community := validation.CommunityName

	result, err := s.sendTask(ctx, application.TaskSendEmail,
		map[string]any{"community_name": community},
		emailReplyTimeout,
		"email sending failed on the worker side",
	)
	if err != nil {
		return nil, err
	}

	s.logger.Info("send_email completed", "community", community)
	return result, nil
}

// PreviewDatabaseUpdate surfaces remote register statistics (get_sums)
// without touching local state.
func (s *TasksService) PreviewDatabaseUpdate(ctx context.Context, communityName string) (*application.TaskResult, error) {
	validation := s.validator.Validate(ctx, communityName)
	if !validation.IsValid {
		return nil, application.NewValidationError(validation.Reason)
	}
	community := validation.CommunityName

	result, err := s.sendTask(ctx, application.TaskQueryDatabase,
		map[string]any{
			"community_name": community,
			"query_type":     application.QueryTypeGetSums,
		},
		statsReplyTimeout,
		"failed to query the remote database",
	)
	if err != nil {
		return nil, err
	}

	s.logger.Info("database update preview received", "community", community)
	return result, nil
}

// UpdateDatabaseExecute runs the full remote-to-local sync pipeline:
// latest date -> full dataset -> flush mirror -> bulk insert -> import to
// history -> best-effort user notification. Steps run strictly in order;
// concurrent invocations for one community share a single run.
func (s *TasksService) UpdateDatabaseExecute(ctx context.Context, communityName string) (*UpdateResult, error) {
	validation := s.validator.Validate(ctx, communityName)
	if !validation.IsValid {
		return nil, application.NewValidationError(validation.Reason)
	}
	community := validation.CommunityName

	result, err, shared := s.updates.Do(community, func() (any, error) {
		return s.runUpdatePipeline(ctx, community)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Info("joined in-flight database update", "community", community)
	}
	return result.(*UpdateResult), nil
}

func (s *TasksService) runUpdatePipeline(ctx context.Context, community string) (*UpdateResult, error) {
	s.logger.Info("starting local database update", "community", community)

	// Step 1: latest date available in the remote database.
	dateResult, err := s.sendTask(ctx, application.TaskQueryDatabase,
		map[string]any{
			"community_name": community,
			"query_type":     application.QueryTypeGetSums,
		},
		statsReplyTimeout,
		"failed to query the remote database",
	)
	if err != nil {
		return nil, err
	}

	var sums sumsData
	if err := dateResult.DecodeData(&sums); err != nil || sums.LatestDate == "" {
		return nil, application.NewRemoteTaskError("remote database reported no usable latest date")
	}
	s.logger.Info("latest remote date received", "latest_date", sums.LatestDate)

	// Step 2: full record set for that date.
	dataResult, err := s.sendTask(ctx, application.TaskQueryDatabase,
		map[string]any{
			"community_name": community,
			"query_type":     application.QueryTypeAllByDate,
			"date":           sums.LatestDate,
		},
		datasetReplyTimeout,
		"failed to fetch records from the remote database",
	)
	if err != nil {
		return nil, err
	}

	var dataset datasetData
	if err := dataResult.DecodeData(&dataset); err != nil || dataset.Records == nil {
		return nil, application.NewRemoteTaskError("remote database returned no records to load")
	}
	s.logger.Info("remote records received",
		"records", len(dataset.Records),
		"total_count", dataset.TotalCount,
	)

	// Step 3: clear the local mirror. Destructive; nothing is merged.
	s.logger.Info("flushing debtor mirror table")
	if err := s.debtors.FlushTable(ctx); err != nil {
		return nil, application.NewInternalError(err)
	}

	// Step 4: bulk load.
	s.logger.Info("bulk inserting debtor records")
	insertResult, err := s.debtors.BulkInsert(ctx, dataset.Records)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	// Step 5: fold the snapshot into the historical ledger. Fatal on failure.
	importDate := importDateFor(dataset.Records, s.now())
	s.logger.Info("importing registry to history", "import_date", importDate)
	if err := s.debtors.ImportRegistryToHistory(ctx, importDate); err != nil {
		return nil, application.NewInternalError(err)
	}

	// Step 6: best-effort notification; never fails the pipeline.
	notified := s.notifyUsers(ctx, dataset.Records, importDate)

	summary := &UpdateResult{
		Success:          true,
		CommunityName:    community,
		RemoteTotalCount: dataset.TotalCount,
		SourceRecords:    insertResult.TotalSourceRecords,
		InsertedDebtors:  insertResult.Inserted,
		ImportDate:       importDate,
		NotifiedUsers:    notified,
		ExecutedAt:       s.now().UTC(),
	}

	s.logger.Info("local database update completed",
		"community", community,
		"inserted", summary.InsertedDebtors,
		"source_records", summary.SourceRecords,
		"import_date", summary.ImportDate,
		"notified_users", summary.NotifiedUsers,
	)
	return summary, nil
}

func (s *TasksService) notifyUsers(ctx context.Context, records []domain.DebtorRecord, importDate string) int {
	if s.notifier == nil {
		s.logger.Warn("bot token not configured, skipping user notification")
		return 0
	}

	asOf := asOfDateFor(records, importDate)
	message := fmt.Sprintf(notificationTemplate, asOf)

	stats, err := s.notifier.SendToAll(ctx, message, application.NotifyOptions{
		ParseMode: "HTML",
		OnProgress: func(p application.NotifyProgress) {
			s.logger.Info("notification delivery progress",
				"current", p.Current,
				"total", p.Total,
				"percentage", p.Percentage,
			)
		},
	})
	if err != nil {
		s.logger.Error("user notification failed (non-critical)", "error", err)
		return 0
	}

	s.logger.Info("user notification sent",
		"notified", stats.NotifiedCount,
		"total_users", stats.TotalUsers,
		"failed", stats.FailedCount,
		"success_rate", stats.SuccessRate,
	)
	return stats.NotifiedCount
}

// sendTask dispatches one RPC task and normalizes its failure modes:
// broker timeouts and transport faults become ServiceErrors, and a reply
// with success=false is a remote-task failure even though the transport
// succeeded.
func (s *TasksService) sendTask(ctx context.Context, task string, payload any, timeout time.Duration, fallbackMessage string) (*application.TaskResult, error) {
	result, err := s.broker.SendTaskWithReply(ctx, task, payload, timeout)
	if err != nil {
		if taskErr, ok := application.IsTaskError(err); ok && taskErr.Kind == application.TaskErrTimeout {
			return nil, application.NewTimeoutError(task)
		}
		return nil, application.NewInternalError(err)
	}

	if !result.Success {
		message := result.Error
		if message == "" {
			message = fallbackMessage
		}
		return nil, application.NewRemoteTaskError(message)
	}

	return result, nil
}
