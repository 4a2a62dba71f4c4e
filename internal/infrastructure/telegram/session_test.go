package telegram_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hromada-tools/backoffice/internal/application"
	"github.com/hromada-tools/backoffice/internal/infrastructure/telegram"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  []int64
	fails map[int64]error
}

func (f *fakeSender) SendMessage(ctx context.Context, chatID int64, text string, opts telegram.SendOptions) (*telegram.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.fails[chatID]; ok {
		return nil, err
	}
	f.sent = append(f.sent, chatID)
	return &telegram.Message{MessageID: int64(len(f.sent))}, nil
}

type fakeAccounts struct {
	chatIDs []int64
	err     error
}

func (f *fakeAccounts) ListChatIDs(ctx context.Context) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.chatIDs, nil
}

func newSession(sender *fakeSender, accounts *fakeAccounts) *telegram.Session {
	return telegram.NewSession(sender, accounts, 4, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSendToAll_AllDelivered(t *testing.T) {
	sender := &fakeSender{}
	session := newSession(sender, &fakeAccounts{chatIDs: []int64{1, 2, 3, 4, 5}})

	stats, err := session.SendToAll(context.Background(), "оновлення бази", application.NotifyOptions{})

	require.NoError(t, err)
	assert.True(t, stats.Success)
	assert.Equal(t, 5, stats.NotifiedCount)
	assert.Equal(t, 5, stats.TotalUsers)
	assert.Equal(t, 0, stats.FailedCount)
	assert.Equal(t, "100.00", stats.SuccessRate)
	assert.Empty(t, stats.Errors)
}

func TestSendToAll_PartialFailure(t *testing.T) {
	sender := &fakeSender{fails: map[int64]error{
		2: &telegram.APIError{Code: 403, Description: "Forbidden: bot was blocked by the user"},
		4: errors.New("connection reset"),
	}}
	session := newSession(sender, &fakeAccounts{chatIDs: []int64{1, 2, 3, 4, 5, 6, 7, 8}})

	stats, err := session.SendToAll(context.Background(), "текст", application.NotifyOptions{})

	require.NoError(t, err)
	assert.True(t, stats.Success)
	assert.Equal(t, 6, stats.NotifiedCount)
	assert.Equal(t, 8, stats.TotalUsers)
	assert.Equal(t, 2, stats.FailedCount)
	assert.Equal(t, "75.00", stats.SuccessRate)
	require.Len(t, stats.Errors, 2)

	codes := map[int64]int{}
	for _, deliveryErr := range stats.Errors {
		codes[deliveryErr.ChatID] = deliveryErr.Code
	}
	assert.Equal(t, 403, codes[2])
	assert.Equal(t, 0, codes[4])
}

func TestSendToAll_ZeroRecipients(t *testing.T) {
	session := newSession(&fakeSender{}, &fakeAccounts{})

	stats, err := session.SendToAll(context.Background(), "текст", application.NotifyOptions{})

	require.NoError(t, err)
	assert.False(t, stats.Success)
	assert.Equal(t, "no users found for notification", stats.Message)
	assert.Equal(t, 0, stats.NotifiedCount)
}

func TestSendToAll_ListFailure(t *testing.T) {
	listErr := errors.New("connection refused")
	var reported error
	session := newSession(&fakeSender{}, &fakeAccounts{err: listErr})

	stats, err := session.SendToAll(context.Background(), "текст", application.NotifyOptions{
		OnError: func(e error) { reported = e },
	})

	require.Error(t, err)
	assert.Nil(t, stats)
	require.ErrorIs(t, reported, listErr)
}

func TestSendToAll_ProgressOnlyCountsSuccesses(t *testing.T) {
	sender := &fakeSender{fails: map[int64]error{3: errors.New("boom")}}
	session := telegram.NewSession(sender, &fakeAccounts{chatIDs: []int64{1, 2, 3, 4}}, 1, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var mu sync.Mutex
	var progress []application.NotifyProgress
	stats, err := session.SendToAll(context.Background(), "текст", application.NotifyOptions{
		OnProgress: func(p application.NotifyProgress) {
			mu.Lock()
			progress = append(progress, p)
			mu.Unlock()
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, stats.NotifiedCount)
	require.Len(t, progress, 3)
	last := progress[len(progress)-1]
	assert.Equal(t, 3, last.Current)
	assert.Equal(t, 4, last.Total)
	assert.Equal(t, 75, last.Percentage)
}

func TestSendToGroup_EmptyList(t *testing.T) {
	session := newSession(&fakeSender{}, &fakeAccounts{})

	_, err := session.SendToGroup(context.Background(), nil, "текст", application.NotifyOptions{})

	require.Error(t, err)
	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeInvalidInput, svcErr.Code)
}

func TestSendToUser_NeverFails(t *testing.T) {
	sender := &fakeSender{fails: map[int64]error{7: errors.New("boom")}}
	session := newSession(sender, &fakeAccounts{})

	result := session.SendToUser(context.Background(), 7, "текст", telegram.SendOptions{})

	assert.False(t, result.Success)
	assert.Equal(t, int64(7), result.ChatID)
	assert.Contains(t, result.Error, "boom")
}

func TestUserCount(t *testing.T) {
	session := newSession(&fakeSender{}, &fakeAccounts{chatIDs: []int64{10, 20}})

	count, err := session.UserCount(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
