package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/hromada-tools/backoffice/internal/application"
	"github.com/hromada-tools/backoffice/internal/domain"
)

const (
	smsReplyTimeout      = 60 * time.Second
	smsBatchReplyTimeout = 300 * time.Second
)

// GSM-7 single/concatenated segment sizes vs UCS-2 for texts with
// characters outside basic ASCII.
const (
	gsmSingleLimit     = 160
	gsmConcatLimit     = 153
	unicodeSingleLimit = 70
	unicodeConcatLimit = 67
)

// SmsPreview is a rendered template with its delivery cost estimate.
type SmsPreview struct {
	Text            string `json:"text"`
	SegmentsCount   int    `json:"segments_count"`
	CharactersCount int    `json:"characters_count"`
}

// SmsMessage is one phone/text pair of a batch dispatch.
type SmsMessage struct {
	Phone string `json:"phone"`
	Text  string `json:"text"`
}

// SmsService owns SMS templates and dispatches rendered messages to the
// remote SMS worker through the broker.
type SmsService struct {
	templates        application.SmsTemplateStore
	broker           application.TaskBroker
	validator        *CommunityValidator
	defaultCommunity string
	logger           *slog.Logger
	now              func() time.Time
}

func NewSmsService(
	templates application.SmsTemplateStore,
	broker application.TaskBroker,
	validator *CommunityValidator,
	defaultCommunity string,
	logger *slog.Logger,
) *SmsService {
	return &SmsService{
		templates:        templates,
		broker:           broker,
		validator:        validator,
		defaultCommunity: defaultCommunity,
		logger:           logger,
		now:              time.Now,
	}
}

// === Templates (local database) ===

func (s *SmsService) Templates(ctx context.Context) ([]domain.SmsTemplate, error) {
	return s.templates.List(ctx)
}

func (s *SmsService) TemplateByID(ctx context.Context, id int64) (*domain.SmsTemplate, error) {
	return s.templates.FindByID(ctx, id)
}

func (s *SmsService) CreateTemplate(ctx context.Context, name, text string) (*domain.SmsTemplate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, application.NewInvalidInputError("template text must not be empty")
	}
	return s.templates.Create(ctx, name, text)
}

func (s *SmsService) UpdateTemplate(ctx context.Context, id int64, name, text string) (*domain.SmsTemplate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, application.NewInvalidInputError("template text must not be empty")
	}
	return s.templates.Update(ctx, id, name, text)
}

func (s *SmsService) DeleteTemplate(ctx context.Context, id int64) error {
	return s.templates.Delete(ctx, id)
}

// === Rendering ===

// RenderTemplate substitutes debtor fields into the template placeholders.
func (s *SmsService) RenderTemplate(ctx context.Context, templateID int64, debtor domain.DebtorRecord) (string, error) {
	template, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		return "", err
	}

	replacements := map[string]string{
		"{{name}}":           debtor.Name,
		"{{debt_amount}}":    fmt.Sprintf("%.2f", debtor.TotalDebt()),
		"{{address}}":        debtor.Address,
		"{{phone}}":          debtor.Phone,
		"{{date}}":           s.now().Format("02.01.2006"),
		"{{identification}}": debtor.Identification,
	}

	text := template.Text
	for placeholder, value := range replacements {
		text = strings.ReplaceAll(text, placeholder, value)
	}
	return text, nil
}

// PreviewSms renders a template and estimates its segment count.
func (s *SmsService) PreviewSms(ctx context.Context, templateID int64, debtor domain.DebtorRecord) (*SmsPreview, error) {
	text, err := s.RenderTemplate(ctx, templateID, debtor)
	if err != nil {
		return nil, err
	}

	return &SmsPreview{
		Text:            text,
		SegmentsCount:   CalculateSegments(text),
		CharactersCount: len([]rune(text)),
	}, nil
}

// CalculateSegments estimates how many SMS segments a text occupies.
func CalculateSegments(text string) int {
	runes := []rune(text)

	hasUnicode := false
	for _, r := range runes {
		if r > unicode.MaxASCII {
			hasUnicode = true
			break
		}
	}

	singleLimit, concatLimit := gsmSingleLimit, gsmConcatLimit
	if hasUnicode {
		singleLimit, concatLimit = unicodeSingleLimit, unicodeConcatLimit
	}

	if len(runes) <= singleLimit {
		return 1
	}
	return int(math.Ceil(float64(len(runes)) / float64(concatLimit)))
}

// NormalizePhone brings a Ukrainian mobile number to the canonical 380...
// form. Returns an invalid-input error for anything else.
func NormalizePhone(phone string) (string, error) {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	normalized := digits.String()

	switch {
	case len(normalized) == 12 && strings.HasPrefix(normalized, "380"):
		return normalized, nil
	case len(normalized) == 11 && strings.HasPrefix(normalized, "80"):
		return "3" + normalized, nil
	case len(normalized) == 10 && strings.HasPrefix(normalized, "0"):
		return "38" + normalized, nil
	case len(normalized) == 9:
		return "380" + normalized, nil
	}
	return "", application.NewInvalidInputError(fmt.Sprintf("invalid phone number format: %q", phone))
}

// === Dispatch (through the broker) ===

// SendSms dispatches one message to the remote SMS worker.
func (s *SmsService) SendSms(ctx context.Context, phone, text string) (*application.TaskResult, error) {
	validation := s.validator.Validate(ctx, s.defaultCommunity)
	if !validation.IsValid {
		return nil, application.NewValidationError(validation.Reason)
	}

	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	s.logger.Info("sending sms", "phone", normalized, "text_length", len([]rune(text)))

	result, err := s.broker.SendTaskWithReply(ctx, application.TaskSendSms,
		map[string]any{
			"community_name": validation.CommunityName,
			"phone":          normalized,
			"text":           text,
		},
		smsReplyTimeout,
	)
	if err != nil {
		if taskErr, ok := application.IsTaskError(err); ok && taskErr.Kind == application.TaskErrTimeout {
			return nil, application.NewTimeoutError(application.TaskSendSms)
		}
		return nil, application.NewInternalError(err)
	}
	if !result.Success {
		message := result.Error
		if message == "" {
			message = "sms sending failed on the worker side"
		}
		return nil, application.NewRemoteTaskError(message)
	}

	return result, nil
}

// SendSmsBatch dispatches a batch of messages in one task.
func (s *SmsService) SendSmsBatch(ctx context.Context, messages []SmsMessage) (*application.TaskResult, error) {
	if len(messages) == 0 {
		return nil, application.NewInvalidInputError("message list must not be empty")
	}

	validation := s.validator.Validate(ctx, s.defaultCommunity)
	if !validation.IsValid {
		return nil, application.NewValidationError(validation.Reason)
	}

	normalized := make([]SmsMessage, 0, len(messages))
	for _, message := range messages {
		phone, err := NormalizePhone(message.Phone)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, SmsMessage{Phone: phone, Text: message.Text})
	}

	s.logger.Info("sending sms batch", "messages", len(normalized))

	result, err := s.broker.SendTaskWithReply(ctx, application.TaskSendSmsBatch,
		map[string]any{
			"community_name": validation.CommunityName,
			"messages":       normalized,
		},
		smsBatchReplyTimeout,
	)
	if err != nil {
		if taskErr, ok := application.IsTaskError(err); ok && taskErr.Kind == application.TaskErrTimeout {
			return nil, application.NewTimeoutError(application.TaskSendSmsBatch)
		}
		return nil, application.NewInternalError(err)
	}
	if !result.Success {
		message := result.Error
		if message == "" {
			message = "sms batch failed on the worker side"
		}
		return nil, application.NewRemoteTaskError(message)
	}

	return result, nil
}
