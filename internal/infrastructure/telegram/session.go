package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/hromada-tools/backoffice/internal/application"
	"github.com/hromada-tools/backoffice/internal/domain"
)

const defaultSendConcurrency = 16

// Sender abstracts the Bot API client so the session can be tested without
// the network.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts SendOptions) (*Message, error)
}

// Session is the notification fan-out engine. Deliveries run concurrently
// with a bounded degree of parallelism; each recipient's failure is isolated
// and only the aggregate statistics reach the caller.
type Session struct {
	client      Sender
	accounts    application.AccountStore
	concurrency int64
	logger      *slog.Logger
}

func NewSession(client Sender, accounts application.AccountStore, concurrency int, logger *slog.Logger) *Session {
	if concurrency <= 0 {
		concurrency = defaultSendConcurrency
	}
	return &Session{
		client:      client,
		accounts:    accounts,
		concurrency: int64(concurrency),
		logger:      logger,
	}
}

var _ application.Notifier = (*Session)(nil)

// SendToAll delivers the message to every chat id found in the accounts
// store at call time. Zero recipients is not an error; a failure to read the
// recipient list is reported through OnError and then returned.
func (s *Session) SendToAll(ctx context.Context, text string, opts application.NotifyOptions) (*domain.DeliveryStats, error) {
	chatIDs, err := s.accounts.ListChatIDs(ctx)
	if err != nil {
		err = fmt.Errorf("failed to read recipient list: %w", err)
		s.logger.Error("overall notification process error", "error", err)
		if opts.OnError != nil {
			opts.OnError(err)
		}
		return nil, err
	}

	if len(chatIDs) == 0 {
		s.logger.Warn("no users found for notification")
		stats := &domain.DeliveryStats{
			Success: false,
			Message: "no users found for notification",
		}
		if opts.OnComplete != nil {
			opts.OnComplete(stats)
		}
		return stats, nil
	}

	stats := s.deliver(ctx, chatIDs, text, opts)
	if opts.OnComplete != nil {
		opts.OnComplete(stats)
	}
	return stats, nil
}

// SendToUser delivers one message and never fails the caller; the outcome is
// reported in the result.
func (s *Session) SendToUser(ctx context.Context, chatID int64, text string, opts SendOptions) *domain.DeliveryResult {
	message, err := s.client.SendMessage(ctx, chatID, text, opts)
	if err != nil {
		s.logger.Error("error sending message", "chat_id", chatID, "error", err)
		return &domain.DeliveryResult{
			ChatID: chatID,
			Error:  err.Error(),
		}
	}

	s.logger.Info("message sent", "chat_id", chatID, "message_id", message.MessageID)
	return &domain.DeliveryResult{
		Success:   true,
		ChatID:    chatID,
		MessageID: message.MessageID,
	}
}

// SendToGroup mirrors SendToAll for an explicit, non-empty recipient list.
func (s *Session) SendToGroup(ctx context.Context, chatIDs []int64, text string, opts application.NotifyOptions) (*domain.DeliveryStats, error) {
	if len(chatIDs) == 0 {
		return nil, application.NewInvalidInputError("chat id list must not be empty")
	}

	stats := s.deliver(ctx, chatIDs, text, opts)
	if opts.OnComplete != nil {
		opts.OnComplete(stats)
	}
	return stats, nil
}

// UserCount returns the current number of subscribed users.
func (s *Session) UserCount(ctx context.Context) (int, error) {
	chatIDs, err := s.accounts.ListChatIDs(ctx)
	if err != nil {
		return 0, err
	}
	return len(chatIDs), nil
}

func (s *Session) deliver(ctx context.Context, chatIDs []int64, text string, opts application.NotifyOptions) *domain.DeliveryStats {
	total := len(chatIDs)
	s.logger.Info("starting message delivery", "total_users", total)

	sendOpts := SendOptions{
		ParseMode:      opts.ParseMode,
		ProtectContent: opts.ProtectContent,
	}

	sem := semaphore.NewWeighted(s.concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	notified := 0
	var deliveryErrors []domain.DeliveryError

	for _, chatID := range chatIDs {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				mu.Lock()
				deliveryErrors = append(deliveryErrors, domain.DeliveryError{
					ChatID: chatID,
					Error:  err.Error(),
				})
				mu.Unlock()
				return
			}
			defer sem.Release(1)

			_, err := s.client.SendMessage(ctx, chatID, text, sendOpts)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				deliveryError := domain.DeliveryError{
					ChatID: chatID,
					Error:  err.Error(),
				}
				if apiErr, ok := IsAPIError(err); ok {
					deliveryError.Code = apiErr.Code
					if apiErr.IsForbidden() {
						s.logger.Warn("user blocked the bot", "chat_id", chatID)
					} else {
						s.logger.Error("error sending notification", "chat_id", chatID, "error", err)
					}
				} else {
					s.logger.Error("error sending notification", "chat_id", chatID, "error", err)
				}
				deliveryErrors = append(deliveryErrors, deliveryError)
				return
			}

			notified++
			if opts.OnProgress != nil {
				opts.OnProgress(application.NotifyProgress{
					Current:    notified,
					Total:      total,
					Percentage: int(math.Round(float64(notified) / float64(total) * 100)),
				})
			}
		}(chatID)
	}

	wg.Wait()

	stats := &domain.DeliveryStats{
		Success:       true,
		NotifiedCount: notified,
		TotalUsers:    total,
		FailedCount:   total - notified,
		SuccessRate:   fmt.Sprintf("%.2f", float64(notified)/float64(total)*100),
	}
	if len(deliveryErrors) > 0 {
		stats.Errors = deliveryErrors
	}

	s.logger.Info("message delivery completed",
		"notified", notified,
		"total_users", total,
		"failed", stats.FailedCount,
	)
	return stats
}
