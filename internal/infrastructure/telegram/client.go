// Package telegram holds the Bot API client and the notification fan-out
// session built on top of it.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

// SendOptions are the per-message Bot API options.
type SendOptions struct {
	ParseMode      string
	ProtectContent bool
	ReplyMarkup    json.RawMessage
}

// Message is the subset of the Bot API message we care about.
type Message struct {
	MessageID int64 `json:"message_id"`
}

type sendMessageRequest struct {
	ChatID         int64           `json:"chat_id"`
	Text           string          `json:"text"`
	ParseMode      string          `json:"parse_mode,omitempty"`
	ProtectContent bool            `json:"protect_content,omitempty"`
	ReplyMarkup    json.RawMessage `json:"reply_markup,omitempty"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(token, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SendMessage delivers one message to one chat. API-level failures come back
// as *APIError.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts SendOptions) (*Message, error) {
	parseMode := opts.ParseMode
	if parseMode == "" {
		parseMode = "HTML"
	}

	reqBody := sendMessageRequest{
		ChatID:         chatID,
		Text:           text,
		ParseMode:      parseMode,
		ProtectContent: opts.ProtectContent,
		ReplyMarkup:    opts.ReplyMarkup,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling json: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("bot api returned status %d: %s", resp.StatusCode, string(body))
	}

	if !apiResp.OK {
		return nil, &APIError{
			Code:        apiResp.ErrorCode,
			Description: apiResp.Description,
		}
	}

	var message Message
	if err := json.Unmarshal(apiResp.Result, &message); err != nil {
		return nil, fmt.Errorf("error decoding message: %w", err)
	}

	return &message, nil
}
