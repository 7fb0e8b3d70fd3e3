// Package script implements store.Store on top of the Google Apps Script web
// app that fronts the storefront spreadsheet. Reads are GET requests with an
// action query parameter; writes are POSTed JSON envelopes.
package script

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tramcham/tramcham-server/internal/store"
)

const (
	actionCreateMessage        = "createMessage"
	actionGetMessage           = "getMessage"
	actionGetMessageByPassword = "getMessageByPassword"
	actionIncrementViewCount   = "incrementViewCount"
	actionCreateReview         = "createReview"
	actionGetReviews           = "getReviews"

	maxResponseBytes = 1 << 20
)

// Client talks to the Apps Script endpoint.
type Client struct {
	url  string
	http *http.Client
}

// New creates a client for the script deployed at scriptURL.
// A nil httpClient falls back to http.DefaultClient.
func New(scriptURL string, httpClient *http.Client) (*Client, error) {
	if scriptURL == "" {
		return nil, errors.New("script url is required")
	}
	if _, err := url.Parse(scriptURL); err != nil {
		return nil, fmt.Errorf("parse script url: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{url: scriptURL, http: httpClient}, nil
}

// Close is a no-op; the client holds no resources of its own.
func (c *Client) Close() error {
	return nil
}

// ==== wire types ====

// flexInt accepts both JSON numbers and numeric strings, since spreadsheet
// cells come back either way depending on formatting.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", s, err)
	}
	*f = flexInt(n)
	return nil
}

type messageRecord struct {
	ID             string  `json:"id"`
	LegacyID       string  `json:"_id,omitempty"`
	ProductID      string  `json:"productId"`
	SenderName     string  `json:"senderName"`
	RecipientName  string  `json:"recipientName"`
	MessageType    string  `json:"messageType"`
	Content        string  `json:"content"`
	HashedPassword *string `json:"hashedPassword"`
	AudioURL       string  `json:"audioUrl"`
	VideoURL       string  `json:"videoUrl"`
	PodcastURL     string  `json:"podcastUrl"`
	CreatedAt      string  `json:"createdAt"`
	ViewCount      flexInt `json:"viewCount"`
}

type reviewRecord struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Rating    flexInt `json:"rating"`
	Comment   string  `json:"comment"`
	CreatedAt string  `json:"createdAt"`
}

type request struct {
	Action string `json:"action"`
	ID     string `json:"id,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type response struct {
	Success  bool            `json:"success"`
	Error    string          `json:"error,omitempty"`
	Message  *messageRecord  `json:"message,omitempty"`
	Messages []messageRecord `json:"messages,omitempty"`
	Reviews  []reviewRecord  `json:"reviews,omitempty"`
}

func recordFromMessage(msg *store.Message) messageRecord {
	return messageRecord{
		ID:             msg.ID,
		ProductID:      msg.ProductID,
		SenderName:     msg.SenderName,
		RecipientName:  msg.RecipientName,
		MessageType:    string(msg.Type),
		Content:        msg.Content,
		HashedPassword: msg.PasswordHash,
		AudioURL:       msg.AudioURL,
		VideoURL:       msg.VideoURL,
		PodcastURL:     msg.PodcastURL,
		CreatedAt:      msg.CreatedAt.UTC().Format(time.RFC3339Nano),
		ViewCount:      flexInt(msg.ViewCount),
	}
}

func (r messageRecord) toMessage() (*store.Message, error) {
	id := r.ID
	if id == "" {
		id = r.LegacyID
	}
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", id, err)
	}
	msg := &store.Message{
		ID:            id,
		ProductID:     r.ProductID,
		SenderName:    r.SenderName,
		RecipientName: r.RecipientName,
		Type:          store.MessageType(r.MessageType),
		Content:       r.Content,
		AudioURL:      r.AudioURL,
		VideoURL:      r.VideoURL,
		PodcastURL:    r.PodcastURL,
		CreatedAt:     createdAt,
		ViewCount:     int64(r.ViewCount),
	}
	if r.HashedPassword != nil && *r.HashedPassword != "" {
		h := *r.HashedPassword
		msg.PasswordHash = &h
	}
	return msg, nil
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse created_at %q: %w", value, err)
	}
	return t, nil
}

// ==== MessageStore implementation ====

// CreateMessage posts a createMessage action.
func (c *Client) CreateMessage(ctx context.Context, msg *store.Message) error {
	if _, err := c.post(ctx, request{Action: actionCreateMessage, Data: recordFromMessage(msg)}); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// GetMessageByID fetches one message.
func (c *Client) GetMessageByID(ctx context.Context, id string) (*store.Message, error) {
	resp, err := c.get(ctx, url.Values{"action": {actionGetMessage}, "id": {id}})
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	if !resp.Success || resp.Message == nil {
		return nil, fmt.Errorf("message %s: %w", id, store.ErrNotFound)
	}
	return resp.Message.toMessage()
}

// FindMessagesByPasswordHash asks the script for messages guarded by digest.
// Older script deployments answer with a single message, newer ones with a list.
func (c *Client) FindMessagesByPasswordHash(ctx context.Context, digest string) ([]*store.Message, error) {
	resp, err := c.get(ctx, url.Values{"action": {actionGetMessageByPassword}, "password": {digest}})
	if err != nil {
		return nil, fmt.Errorf("find messages by password: %w", err)
	}
	if !resp.Success {
		return nil, nil
	}

	records := resp.Messages
	if len(records) == 0 && resp.Message != nil {
		records = []messageRecord{*resp.Message}
	}

	messages := make([]*store.Message, 0, len(records))
	for _, r := range records {
		msg, err := r.toMessage()
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// IncrementViewCount posts an incrementViewCount action.
func (c *Client) IncrementViewCount(ctx context.Context, id string) error {
	if _, err := c.post(ctx, request{Action: actionIncrementViewCount, ID: id}); err != nil {
		return fmt.Errorf("increment view count: %w", err)
	}
	return nil
}

// ==== ReviewStore implementation ====

// CreateReview posts a createReview action.
func (c *Client) CreateReview(ctx context.Context, review *store.Review) error {
	data := reviewRecord{
		ID:        review.ID,
		Name:      review.Name,
		Rating:    flexInt(review.Rating),
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if _, err := c.post(ctx, request{Action: actionCreateReview, Data: data}); err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// ListReviews fetches every stored review.
func (c *Client) ListReviews(ctx context.Context) ([]*store.Review, error) {
	resp, err := c.get(ctx, url.Values{"action": {actionGetReviews}})
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	reviews := make([]*store.Review, 0, len(resp.Reviews))
	for _, r := range resp.Reviews {
		createdAt, err := parseTime(r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("review %s: %w", r.ID, err)
		}
		reviews = append(reviews, &store.Review{
			ID:        r.ID,
			Name:      r.Name,
			Rating:    int(r.Rating),
			Comment:   r.Comment,
			CreatedAt: createdAt,
		})
	}
	return reviews, nil
}

// ==== transport ====

func (c *Client) get(ctx context.Context, query url.Values) (*response, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return nil, fmt.Errorf("parse script url: %w", err)
	}
	q := u.Query()
	for k, v := range query {
		q[k] = v
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, body request) (*response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if !resp.Success && resp.Error != "" {
		return nil, fmt.Errorf("script %s: %s", body.Action, resp.Error)
	}
	return resp, nil
}

func (c *Client) do(req *http.Request) (*response, error) {
	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call script: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read script response: %w", err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, fmt.Errorf("script responded %d", httpResp.StatusCode)
	}

	var resp response
	if len(bytes.TrimSpace(body)) == 0 {
		// Some write actions answer with an empty body.
		resp.Success = true
		return &resp, nil
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode script response: %w", err)
	}
	return &resp, nil
}
