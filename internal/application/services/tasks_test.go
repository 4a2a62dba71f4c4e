package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/hromada-tools/backoffice/internal/application"
	"github.com/hromada-tools/backoffice/internal/application/services"
	"github.com/hromada-tools/backoffice/internal/domain"
	"github.com/hromada-tools/backoffice/internal/infrastructure/cache"
)

type TasksServiceTestSuite struct {
	suite.Suite
	broker    *services.MockTaskBroker
	debtors   *services.MockDebtorStore
	notifier  *services.MockNotifier
	store     *services.MockCommunityStore
	validator *services.CommunityValidator
	service   *services.TasksService
}

func TestTasksServiceSuite(t *testing.T) {
	suite.Run(t, new(TasksServiceTestSuite))
}

func (suite *TasksServiceTestSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	suite.broker = &services.MockTaskBroker{}
	suite.debtors = &services.MockDebtorStore{}
	suite.notifier = &services.MockNotifier{}
	suite.store = &services.MockCommunityStore{
		Communities: map[string]*domain.CommunitySettings{
			"riverton": {ID: 1, CommunityName: "riverton", CityName: "Riverton"},
		},
	}
	suite.validator = services.NewCommunityValidator(suite.store, cache.NewMemory(), 0, logger)
	suite.service = services.NewTasksService(suite.broker, suite.debtors, suite.validator, suite.notifier, logger)
}

func taskReply(data any) *application.TaskResult {
	raw, err := json.Marshal(data)
	if err != nil {
		panic(err)
	}
	return &application.TaskResult{Success: true, Data: raw}
}

// queryReplies answers the two query_database calls of the update pipeline:
// get_sums with latestDate, all_by_date with the record set.
func queryReplies(t *testing.T, latestDate string, records []domain.DebtorRecord, totalCount int64) func(context.Context, string, any, time.Duration) (*application.TaskResult, error) {
	return func(ctx context.Context, task string, payload any, _ time.Duration) (*application.TaskResult, error) {
		require.Equal(t, application.TaskQueryDatabase, task)
		fields, ok := payload.(map[string]any)
		require.True(t, ok)

		switch fields["query_type"] {
		case application.QueryTypeGetSums:
			return taskReply(map[string]any{
				"latest_date":   latestDate,
				"total_debtors": totalCount,
			}), nil
		case application.QueryTypeAllByDate:
			require.NotEmpty(t, fields["date"])
			return taskReply(map[string]any{
				"records":     records,
				"total_count": totalCount,
			}), nil
		}
		t.Fatalf("unexpected query_type %v", fields["query_type"])
		return nil, nil
	}
}

func debtorRecords(count int, date string) []domain.DebtorRecord {
	records := make([]domain.DebtorRecord, count)
	for i := range records {
		records[i] = domain.DebtorRecord{
			Name:            fmt.Sprintf("Debtor %d", i+1),
			Identification:  fmt.Sprintf("1234567%03d", i),
			ResidentialDebt: 100.50,
			Date:            date,
		}
	}
	return records
}

// ============================================================================
// UPDATE PIPELINE
// ============================================================================

func (suite *TasksServiceTestSuite) Test_UpdateDatabaseExecute_HappyPath() {
	t := suite.T()
	records := debtorRecords(19, "2025-03-15T00:00:00")

	suite.broker.SendTaskWithReplyFn = queryReplies(t, "2025-03-15T00:00:00", records, 19)

	result, err := suite.service.UpdateDatabaseExecute(context.Background(), "riverton")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "riverton", result.CommunityName)
	assert.Equal(t, 19, result.InsertedDebtors)
	assert.Equal(t, 19, result.SourceRecords)
	assert.Equal(t, int64(19), result.RemoteTotalCount)
	assert.Equal(t, "2025-03-15", result.ImportDate)

	// Strict step ordering: flush, then insert, then history import.
	assert.Equal(t, []string{"flush", "insert", "import"}, suite.debtors.Ops())
	assert.Equal(t, 1, suite.notifier.Calls())

	calls := suite.broker.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, application.TaskQueryDatabase, calls[0].Task)
	assert.Equal(t, application.TaskQueryDatabase, calls[1].Task)
}

func (suite *TasksServiceTestSuite) Test_UpdateDatabaseExecute_NoLatestDate_FailsBeforeFetch() {
	t := suite.T()

	suite.broker.SendTaskWithReplyFn = func(ctx context.Context, task string, payload any, _ time.Duration) (*application.TaskResult, error) {
		return taskReply(map[string]any{"total_debtors": 0}), nil
	}

	result, err := suite.service.UpdateDatabaseExecute(context.Background(), "riverton")

	require.Error(t, err)
	assert.Nil(t, result)

	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeRemoteTask, svcErr.Code)

	// Fail-fast: only get_sums dispatched, local state untouched.
	require.Len(t, suite.broker.Calls(), 1)
	assert.Empty(t, suite.debtors.Ops())
	assert.Equal(t, 0, suite.notifier.Calls())
}

func (suite *TasksServiceTestSuite) Test_UpdateDatabaseExecute_RemoteFailure() {
	t := suite.T()

	suite.broker.SendTaskWithReplyFn = func(ctx context.Context, task string, payload any, _ time.Duration) (*application.TaskResult, error) {
		return &application.TaskResult{Success: false, Error: "register not ready"}, nil
	}

	_, err := suite.service.UpdateDatabaseExecute(context.Background(), "riverton")

	require.Error(t, err)
	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeRemoteTask, svcErr.Code)
	assert.Equal(t, "register not ready", svcErr.Message)
	assert.Empty(t, suite.debtors.Ops())
}

func (suite *TasksServiceTestSuite) Test_UpdateDatabaseExecute_BrokerTimeout() {
	t := suite.T()

	suite.broker.SendTaskWithReplyFn = func(ctx context.Context, task string, payload any, _ time.Duration) (*application.TaskResult, error) {
		return nil, application.NewTaskTimeoutError(task)
	}

	_, err := suite.service.UpdateDatabaseExecute(context.Background(), "riverton")

	require.Error(t, err)
	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeTimeout, svcErr.Code)
	assert.Equal(t, http.StatusRequestTimeout, svcErr.HTTPStatus)
}

func (suite *TasksServiceTestSuite) Test_UpdateDatabaseExecute_DefaultCommunity_Rejected() {
	t := suite.T()

	_, err := suite.service.UpdateDatabaseExecute(context.Background(), "default")

	require.Error(t, err)
	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeValidation, svcErr.Code)
	assert.Empty(t, suite.broker.Calls())
	assert.Empty(t, suite.debtors.Ops())
}

func (suite *TasksServiceTestSuite) Test_UpdateDatabaseExecute_ImportFailure_IsFatal() {
	t := suite.T()
	records := debtorRecords(3, "2025-03-15T00:00:00")

	suite.broker.SendTaskWithReplyFn = queryReplies(t, "2025-03-15T00:00:00", records, 3)
	suite.debtors.ImportRegistryToHistoryFn = func(ctx context.Context, date string) error {
		return errors.New("import_registry_to_history failed")
	}

	result, err := suite.service.UpdateDatabaseExecute(context.Background(), "riverton")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, []string{"flush", "insert", "import"}, suite.debtors.Ops())
	assert.Equal(t, 0, suite.notifier.Calls())
}

func (suite *TasksServiceTestSuite) Test_UpdateDatabaseExecute_NotificationFailure_NonFatal() {
	t := suite.T()
	records := debtorRecords(5, "2025-03-15T00:00:00")

	suite.broker.SendTaskWithReplyFn = queryReplies(t, "2025-03-15T00:00:00", records, 5)
	suite.notifier.SendToAllFn = func(ctx context.Context, text string, opts application.NotifyOptions) (*domain.DeliveryStats, error) {
		return nil, errors.New("telegram api unreachable")
	}

	result, err := suite.service.UpdateDatabaseExecute(context.Background(), "riverton")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.NotifiedUsers)
}

func (suite *TasksServiceTestSuite) Test_UpdateDatabaseExecute_NilNotifier_SkipsNotification() {
	t := suite.T()
	records := debtorRecords(2, "2025-03-15T00:00:00")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := services.NewTasksService(suite.broker, suite.debtors, suite.validator, nil, logger)
	suite.broker.SendTaskWithReplyFn = queryReplies(t, "2025-03-15T00:00:00", records, 2)

	result, err := service.UpdateDatabaseExecute(context.Background(), "riverton")

	require.NoError(t, err)
	assert.Equal(t, 0, result.NotifiedUsers)
}

// ============================================================================
// SINGLE-SHOT TASKS
// ============================================================================

func (suite *TasksServiceTestSuite) Test_ProcessDebtorRegister_Success() {
	t := suite.T()

	result, err := suite.service.ProcessDebtorRegister(context.Background(), "riverton")

	require.NoError(t, err)
	assert.True(t, result.Success)

	calls := suite.broker.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, application.TaskProcessDebtorRegister, calls[0].Task)
	payload, ok := calls[0].Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "riverton", payload["community_name"])
}

func (suite *TasksServiceTestSuite) Test_SendEmail_UnknownCommunity() {
	t := suite.T()

	_, err := suite.service.SendEmail(context.Background(), "atlantis")

	require.Error(t, err)
	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeValidation, svcErr.Code)
	assert.Empty(t, suite.broker.Calls())
}

func (suite *TasksServiceTestSuite) Test_PreviewDatabaseUpdate_SendsGetSums() {
	t := suite.T()

	suite.broker.SendTaskWithReplyFn = func(ctx context.Context, task string, payload any, _ time.Duration) (*application.TaskResult, error) {
		return taskReply(map[string]any{"latest_date": "2025-03-15T00:00:00", "total_debtors": 19}), nil
	}

	result, err := suite.service.PreviewDatabaseUpdate(context.Background(), "riverton")

	require.NoError(t, err)
	assert.True(t, result.Success)

	calls := suite.broker.Calls()
	require.Len(t, calls, 1)
	payload, ok := calls[0].Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, application.QueryTypeGetSums, payload["query_type"])
	assert.Empty(t, suite.debtors.Ops())
}
