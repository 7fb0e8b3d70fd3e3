package script

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tramcham/tramcham-server/internal/store"
)

// fakeScript mimics the spreadsheet web app closely enough for the client.
type fakeScript struct {
	mu       sync.Mutex
	messages map[string]messageRecord
	reviews  []reviewRecord
	posts    []request
	legacy   bool // answer by-password lookups with a single message
	status   int
}

func newFakeScript(t *testing.T) (*fakeScript, *Client) {
	t.Helper()

	f := &fakeScript{messages: make(map[string]messageRecord)}
	ts := httptest.NewServer(f)
	t.Cleanup(ts.Close)

	c, err := New(ts.URL+"/exec", ts.Client())
	require.NoError(t, err)
	return f, c
}

func (f *fakeScript) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}

	if r.Method == http.MethodPost {
		var raw struct {
			Action string          `json:"action"`
			ID     string          `json:"id"`
			Data   json.RawMessage `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.posts = append(f.posts, request{Action: raw.Action, ID: raw.ID})
		switch raw.Action {
		case actionCreateMessage:
			var rec messageRecord
			_ = json.Unmarshal(raw.Data, &rec)
			f.messages[rec.ID] = rec
		case actionIncrementViewCount:
			rec, ok := f.messages[raw.ID]
			if !ok {
				writeJSON(w, map[string]any{"success": false, "error": "not found"})
				return
			}
			rec.ViewCount++
			f.messages[raw.ID] = rec
		case actionCreateReview:
			var rec reviewRecord
			_ = json.Unmarshal(raw.Data, &rec)
			f.reviews = append(f.reviews, rec)
		}
		writeJSON(w, map[string]any{"success": true})
		return
	}

	q := r.URL.Query()
	switch q.Get("action") {
	case actionGetMessage:
		rec, ok := f.messages[q.Get("id")]
		if !ok {
			writeJSON(w, map[string]any{"success": false})
			return
		}
		writeJSON(w, map[string]any{"success": true, "message": rec})
	case actionGetMessageByPassword:
		var matches []messageRecord
		for _, rec := range f.messages {
			if rec.HashedPassword != nil && *rec.HashedPassword == q.Get("password") {
				matches = append(matches, rec)
			}
		}
		if len(matches) == 0 {
			writeJSON(w, map[string]any{"success": false})
			return
		}
		if f.legacy {
			writeJSON(w, map[string]any{"success": true, "message": matches[0]})
			return
		}
		writeJSON(w, map[string]any{"success": true, "messages": matches})
	case actionGetReviews:
		writeJSON(w, map[string]any{"success": true, "reviews": f.reviews})
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := New("", nil)
	require.Error(t, err)
}

func TestCreateAndGetMessage(t *testing.T) {
	_, c := newFakeScript(t)
	ctx := context.Background()

	hash := "digest"
	created := time.Date(2024, 11, 11, 10, 0, 0, 0, time.UTC)
	require.NoError(t, c.CreateMessage(ctx, &store.Message{
		ID:            "m1",
		SenderName:    "An",
		RecipientName: "Bình",
		Type:          store.MessageTypeText,
		Content:       "Chúc mừng!",
		PasswordHash:  &hash,
		CreatedAt:     created,
	}))

	got, err := c.GetMessageByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "Bình", got.RecipientName)
	assert.Equal(t, store.MessageTypeText, got.Type)
	require.NotNil(t, got.PasswordHash)
	assert.Equal(t, "digest", *got.PasswordHash)
	assert.True(t, got.CreatedAt.Equal(created))
}

func TestGetMessageByID_NotFound(t *testing.T) {
	_, c := newFakeScript(t)

	_, err := c.GetMessageByID(context.Background(), "nope")
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
}

func TestFindMessagesByPasswordHash(t *testing.T) {
	f, c := newFakeScript(t)
	ctx := context.Background()

	hash := "shared"
	for _, id := range []string{"a", "b"} {
		require.NoError(t, c.CreateMessage(ctx, &store.Message{
			ID: id, SenderName: "s", RecipientName: "r",
			Type: store.MessageTypeText, Content: "c",
			PasswordHash: &hash, CreatedAt: time.Now(),
		}))
	}

	got, err := c.FindMessagesByPasswordHash(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	f.legacy = true
	got, err = c.FindMessagesByPasswordHash(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = c.FindMessagesByPasswordHash(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIncrementViewCount(t *testing.T) {
	f, c := newFakeScript(t)
	ctx := context.Background()

	require.NoError(t, c.CreateMessage(ctx, &store.Message{
		ID: "m1", SenderName: "s", RecipientName: "r",
		Type: store.MessageTypeText, Content: "c", CreatedAt: time.Now(),
	}))
	require.NoError(t, c.IncrementViewCount(ctx, "m1"))
	require.NoError(t, c.IncrementViewCount(ctx, "m1"))

	got, err := c.GetMessageByID(ctx, "m1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.ViewCount)

	assert.Error(t, c.IncrementViewCount(ctx, "missing"))
	assert.Equal(t, actionIncrementViewCount, f.posts[len(f.posts)-1].Action)
}

func TestServerErrorSurfaces(t *testing.T) {
	f, c := newFakeScript(t)
	f.status = http.StatusBadGateway

	_, err := c.GetMessageByID(context.Background(), "m1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, store.ErrNotFound))

	err = c.CreateMessage(context.Background(), &store.Message{ID: "x", CreatedAt: time.Now()})
	require.Error(t, err)
}

func TestReviews(t *testing.T) {
	_, c := newFakeScript(t)
	ctx := context.Background()

	require.NoError(t, c.CreateReview(ctx, &store.Review{
		ID: "r1", Name: "Lê Văn Sơn", Rating: 5, Comment: "Cảm ơn!", CreatedAt: time.Now(),
	}))

	reviews, err := c.ListReviews(ctx)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 5, reviews[0].Rating)
}

func TestFlexInt_AcceptsStrings(t *testing.T) {
	var rec messageRecord
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"x","viewCount":"4","createdAt":""}`), &rec))

	msg, err := rec.toMessage()
	require.NoError(t, err)
	assert.Equal(t, "x", msg.ID)
	assert.EqualValues(t, 4, msg.ViewCount)
}
