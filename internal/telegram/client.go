package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// ClientConfig holds Bot API client settings.
type ClientConfig struct {
	Token       string        // bot token, required
	BaseURL     string        // API host, DefaultBaseURL if empty
	CallTimeout time.Duration // per-call timeout
}

// DefaultClientConfig returns sensible defaults for token.
func DefaultClientConfig(token string) ClientConfig {
	return ClientConfig{
		Token:       token,
		BaseURL:     DefaultBaseURL,
		CallTimeout: 10 * time.Second,
	}
}

// APIError is a Bot API level failure (the HTTP exchange worked, the method
// did not). Transport failures surface as wrapped url/net errors instead.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %s: %d %s", e.Method, e.Code, e.Description)
}

// Client is a minimal Bot API client covering exactly the methods the
// engine depends on. It implements enforce.ChatAPI and exempt.RoleLookup.
type Client struct {
	config ClientConfig
	http   *http.Client
}

// NewClient creates a Bot API client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("telegram: bot token is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = 10 * time.Second
	}
	return &Client{
		config: config,
		http:   &http.Client{Timeout: config.CallTimeout},
	}, nil
}

// apiResponse is the Bot API envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

// call POSTs a method with form parameters and returns the raw result.
func (c *Client) call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.config.BaseURL, c.config.Token, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("telegram: %s: build request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: %s: %w", method, err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("telegram: %s: decode response: %w", method, err)
	}
	if !envelope.OK {
		return nil, &APIError{Method: method, Code: envelope.ErrorCode, Description: envelope.Description}
	}
	return envelope.Result, nil
}

// DeleteMessage removes a message from a chat.
func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("message_id", strconv.FormatInt(messageID, 10))
	_, err := c.call(ctx, "deleteMessage", params)
	return err
}

// BanMember bans a user from a chat, optionally revoking their message
// history.
func (c *Client) BanMember(ctx context.Context, chatID, userID int64, revokeMessages bool) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("user_id", strconv.FormatInt(userID, 10))
	params.Set("revoke_messages", strconv.FormatBool(revokeMessages))
	_, err := c.call(ctx, "banChatMember", params)
	return err
}

// SendMessage posts text to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("text", text)
	_, err := c.call(ctx, "sendMessage", params)
	return err
}

// MemberRole returns a user's status in a chat ("creator", "administrator",
// "member", ...).
func (c *Client) MemberRole(ctx context.Context, chatID, userID int64) (string, error) {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("user_id", strconv.FormatInt(userID, 10))

	raw, err := c.call(ctx, "getChatMember", params)
	if err != nil {
		return "", err
	}

	var member ChatMember
	if err := json.Unmarshal(raw, &member); err != nil {
		return "", fmt.Errorf("telegram: getChatMember: decode member: %w", err)
	}
	return member.Status, nil
}

// GetUpdates long-polls for new updates past offset. timeout is the
// server-side hold duration in seconds.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(timeout))
	params.Set("allowed_updates", `["message","chat_member"]`)

	// The long-poll call holds longer than a normal API call.
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second+c.config.CallTimeout)
		defer cancel()
	}

	raw, err := c.pollCall(callCtx, "getUpdates", params)
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("telegram: getUpdates: decode updates: %w", err)
	}
	return updates, nil
}

// pollCall is call without the client-level timeout, for long-poll methods
// whose deadline is carried by ctx.
func (c *Client) pollCall(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.config.BaseURL, c.config.Token, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("telegram: %s: build request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	poller := &http.Client{} // no Timeout; ctx bounds the call
	resp, err := poller.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: %s: %w", method, err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("telegram: %s: decode response: %w", method, err)
	}
	if !envelope.OK {
		return nil, &APIError{Method: method, Code: envelope.ErrorCode, Description: envelope.Description}
	}
	return envelope.Result, nil
}
