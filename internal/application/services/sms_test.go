package services_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
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

type SmsServiceTestSuite struct {
	suite.Suite
	templates *services.MockSmsTemplateStore
	broker    *services.MockTaskBroker
	service   *services.SmsService
}

func TestSmsServiceSuite(t *testing.T) {
	suite.Run(t, new(SmsServiceTestSuite))
}

func (suite *SmsServiceTestSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	suite.templates = services.NewMockSmsTemplateStore()
	suite.broker = &services.MockTaskBroker{}
	store := &services.MockCommunityStore{
		Communities: map[string]*domain.CommunitySettings{
			"riverton": {ID: 1, CommunityName: "riverton", CityName: "Riverton"},
		},
	}
	validator := services.NewCommunityValidator(store, cache.NewMemory(), 0, logger)
	suite.service = services.NewSmsService(suite.templates, suite.broker, validator, "riverton", logger)
}

// ============================================================================
// SEGMENT MATH
// ============================================================================

func TestCalculateSegments(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 1},
		{"ascii single", strings.Repeat("a", 160), 1},
		{"ascii two segments", strings.Repeat("a", 161), 2},
		{"ascii three segments", strings.Repeat("a", 307), 3},
		{"cyrillic single", strings.Repeat("б", 70), 1},
		{"cyrillic two segments", strings.Repeat("б", 71), 2},
		{"cyrillic three segments", strings.Repeat("б", 135), 3},
		{"one emoji flips to unicode", strings.Repeat("a", 69) + "€", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, services.CalculateSegments(tt.text))
		})
	}
}

// ============================================================================
// PHONE NORMALIZATION
// ============================================================================

func TestNormalizePhone(t *testing.T) {
	valid := []struct {
		input string
		want  string
	}{
		{"380671234567", "380671234567"},
		{"80671234567", "380671234567"},
		{"0671234567", "380671234567"},
		{"671234567", "380671234567"},
		{"+38 (067) 123-45-67", "380671234567"},
		{"067 123 45 67", "380671234567"},
	}
	for _, tt := range valid {
		got, err := services.NormalizePhone(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	invalid := []string{"", "12345", "1234567890123", "490671234567"}
	for _, input := range invalid {
		_, err := services.NormalizePhone(input)
		require.Error(t, err, input)
		svcErr, ok := application.IsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, application.ErrCodeInvalidInput, svcErr.Code)
	}
}

// ============================================================================
// TEMPLATES AND RENDERING
// ============================================================================

func (suite *SmsServiceTestSuite) Test_CreateTemplate_EmptyText() {
	t := suite.T()

	_, err := suite.service.CreateTemplate(context.Background(), "reminder", "   ")

	require.Error(t, err)
	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeInvalidInput, svcErr.Code)
}

func (suite *SmsServiceTestSuite) Test_RenderTemplate_SubstitutesPlaceholders() {
	t := suite.T()
	ctx := context.Background()

	template, err := suite.service.CreateTemplate(ctx, "reminder",
		"Шановний {{name}}, ваша заборгованість складає {{debt_amount}} грн.")
	require.NoError(t, err)

	debtor := domain.DebtorRecord{
		Name:            "Іваненко І.І.",
		ResidentialDebt: 1200.50,
		LandDebt:        99.50,
	}

	text, err := suite.service.RenderTemplate(ctx, template.ID, debtor)

	require.NoError(t, err)
	assert.Equal(t, "Шановний Іваненко І.І., ваша заборгованість складає 1300.00 грн.", text)
}

func (suite *SmsServiceTestSuite) Test_RenderTemplate_UnknownID() {
	t := suite.T()

	_, err := suite.service.RenderTemplate(context.Background(), 42, domain.DebtorRecord{})

	require.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func (suite *SmsServiceTestSuite) Test_PreviewSms_CountsRenderedText() {
	t := suite.T()
	ctx := context.Background()

	template, err := suite.service.CreateTemplate(ctx, "short", "Борг: {{debt_amount}}")
	require.NoError(t, err)

	preview, err := suite.service.PreviewSms(ctx, template.ID, domain.DebtorRecord{ResidentialDebt: 50})

	require.NoError(t, err)
	assert.Equal(t, "Борг: 50.00", preview.Text)
	assert.Equal(t, 1, preview.SegmentsCount)
	assert.Equal(t, 11, preview.CharactersCount)
}

// ============================================================================
// DISPATCH
// ============================================================================

func (suite *SmsServiceTestSuite) Test_SendSms_NormalizesAndDispatches() {
	t := suite.T()

	result, err := suite.service.SendSms(context.Background(), "067 123 45 67", "Нагадування про борг")

	require.NoError(t, err)
	assert.True(t, result.Success)

	calls := suite.broker.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, application.TaskSendSms, calls[0].Task)
	assert.Equal(t, 60*time.Second, calls[0].Timeout)

	payload, ok := calls[0].Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "380671234567", payload["phone"])
	assert.Equal(t, "riverton", payload["community_name"])
}

func (suite *SmsServiceTestSuite) Test_SendSms_InvalidPhone_NoDispatch() {
	t := suite.T()

	_, err := suite.service.SendSms(context.Background(), "12345", "text")

	require.Error(t, err)
	assert.Empty(t, suite.broker.Calls())
}

func (suite *SmsServiceTestSuite) Test_SendSms_WorkerFailure() {
	t := suite.T()
	suite.broker.SendTaskWithReplyFn = func(ctx context.Context, task string, payload any, _ time.Duration) (*application.TaskResult, error) {
		return &application.TaskResult{Success: false, Error: "provider rejected"}, nil
	}

	_, err := suite.service.SendSms(context.Background(), "0671234567", "text")

	require.Error(t, err)
	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeRemoteTask, svcErr.Code)
}

func (suite *SmsServiceTestSuite) Test_SendSmsBatch_Dispatches() {
	t := suite.T()

	messages := []services.SmsMessage{
		{Phone: "0671234567", Text: "перше"},
		{Phone: "671234568", Text: "друге"},
	}

	result, err := suite.service.SendSmsBatch(context.Background(), messages)

	require.NoError(t, err)
	assert.True(t, result.Success)

	calls := suite.broker.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, application.TaskSendSmsBatch, calls[0].Task)

	payload, ok := calls[0].Payload.(map[string]any)
	require.True(t, ok)
	sent, ok := payload["messages"].([]services.SmsMessage)
	require.True(t, ok)
	require.Len(t, sent, 2)
	assert.Equal(t, "380671234567", sent[0].Phone)
	assert.Equal(t, "380671234568", sent[1].Phone)
}

func (suite *SmsServiceTestSuite) Test_SendSmsBatch_Empty() {
	t := suite.T()

	_, err := suite.service.SendSmsBatch(context.Background(), nil)

	require.Error(t, err)
	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeInvalidInput, svcErr.Code)
	assert.Empty(t, suite.broker.Calls())
}
