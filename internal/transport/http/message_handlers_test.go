package http

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func createMessage(t *testing.T, router http.Handler, body map[string]any) CreateMessageResponse {
	t.Helper()

	resp := doJSON(t, router, http.MethodPost, "/api/messages", body, nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created CreateMessageResponse
	decodeBody(t, resp, &created)
	return created
}

func TestGiftScenario(t *testing.T) {
	router := newTestRouter(t)

	created := createMessage(t, router, map[string]any{
		"productId":     "2",
		"senderName":    "An",
		"recipientName": "Bình",
		"messageType":   "text",
		"content":       "Chúc mừng sinh nhật!",
		"password":      "abc123",
	})

	if created.ID == "" {
		t.Fatal("expected message id")
	}
	if created.ShareLink != "https://tramcham.example/loi-chuc/"+created.ID {
		t.Errorf("unexpected share link %q", created.ShareLink)
	}
	if created.Password == nil || *created.Password != "abc123" {
		t.Errorf("expected password to be echoed, got %v", created.Password)
	}

	// No password.
	resp := doJSON(t, router, http.MethodGet, "/api/messages/"+created.ID, nil, nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
	var errResp ErrorResponse
	decodeBody(t, resp, &errResp)
	if errResp.Code != "password_required" {
		t.Errorf("expected password_required, got %q", errResp.Code)
	}

	// Wrong password.
	resp = doJSON(t, router, http.MethodGet, "/api/messages/"+created.ID+"?password=wrong", nil, nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}

	// Right password.
	resp = doJSON(t, router, http.MethodGet, "/api/messages/"+created.ID+"?password=abc123", nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var got MessageResponse
	decodeBody(t, resp, &got)
	if got.Message.RecipientName != "Bình" || got.Message.Content != "Chúc mừng sinh nhật!" {
		t.Errorf("unexpected message %+v", got.Message)
	}
	if got.Message.ViewCount != 1 {
		t.Errorf("expected view count 1, got %d", got.Message.ViewCount)
	}

	// Password alone, via header.
	resp = doJSON(t, router, http.MethodGet, "/api/messages/by-password", nil,
		map[string]string{passwordHeader: "abc123"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	decodeBody(t, resp, &got)
	if got.Message.ID != created.ID {
		t.Errorf("expected message %s, got %s", created.ID, got.Message.ID)
	}
	if got.Message.ViewCount != 2 {
		t.Errorf("expected view count 2, got %d", got.Message.ViewCount)
	}
}

func TestMessageResponseOmitsPasswordDigest(t *testing.T) {
	router := newTestRouter(t)

	created := createMessage(t, router, map[string]any{
		"senderName":    "An",
		"recipientName": "Bình",
		"messageType":   "text",
		"content":       "hi",
		"password":      "abc123",
	})

	resp := doJSON(t, router, http.MethodGet, "/api/messages/"+created.ID+"?password=abc123", nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	for _, leaked := range []string{"abc123", "6ca13d52ca70c883e0f0bb101e425a89e8624de51db2d2392593af6a84118090", "password"} {
		if strings.Contains(body, leaked) {
			t.Errorf("response leaks %q: %s", leaked, body)
		}
	}
}

func TestCreateMessage_Unguarded(t *testing.T) {
	router := newTestRouter(t)

	created := createMessage(t, router, map[string]any{
		"senderName":    "Lan",
		"recipientName": "Mai",
		"messageType":   "audio",
		"content":       "https://cdn.example/a.mp3",
		"audioUrl":      "https://cdn.example/a.mp3",
	})
	if created.Password != nil {
		t.Errorf("expected null password, got %q", *created.Password)
	}

	// A supplied password is ignored for unguarded messages.
	resp := doJSON(t, router, http.MethodGet, "/api/messages/"+created.ID+"?password=anything", nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var got MessageResponse
	decodeBody(t, resp, &got)
	if got.Message.AudioURL != "https://cdn.example/a.mp3" {
		t.Errorf("unexpected audio url %q", got.Message.AudioURL)
	}
}

func TestCreateMessage_Validation(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name      string
		body      map[string]any
		wantField string
	}{
		{
			name:      "missing sender",
			body:      map[string]any{"recipientName": "Bình", "messageType": "text", "content": "x"},
			wantField: "senderName",
		},
		{
			name:      "blank recipient",
			body:      map[string]any{"senderName": "An", "recipientName": "   ", "messageType": "text", "content": "x"},
			wantField: "recipientName",
		},
		{
			name:      "unknown type",
			body:      map[string]any{"senderName": "An", "recipientName": "Bình", "messageType": "fax", "content": "x"},
			wantField: "messageType",
		},
		{
			name:      "missing content",
			body:      map[string]any{"senderName": "An", "recipientName": "Bình", "messageType": "text"},
			wantField: "content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, router, http.MethodPost, "/api/messages", tt.body, nil)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", resp.Code)
			}
			var errResp ErrorResponse
			decodeBody(t, resp, &errResp)
			if errResp.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, errResp.Field)
			}
			if errResp.Code != "validation_error" {
				t.Errorf("expected validation_error, got %q", errResp.Code)
			}
		})
	}
}

func TestCreateMessage_InvalidJSON(t *testing.T) {
	router := newTestRouter(t)

	resp := doJSON(t, router, http.MethodPost, "/api/messages", "not an object", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestGetMessage_NotFound(t *testing.T) {
	router := newTestRouter(t)

	for _, target := range []string{"/api/messages/missing", "/api/messages/missing?password=abc123"} {
		resp := doJSON(t, router, http.MethodGet, target, nil, nil)
		if resp.Code != http.StatusNotFound {
			t.Errorf("%s: expected status 404, got %d", target, resp.Code)
		}
	}
}

func TestGetMessageByPassword_Errors(t *testing.T) {
	router := newTestRouter(t)

	resp := doJSON(t, router, http.MethodGet, "/api/messages/by-password", nil, nil)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 without password, got %d", resp.Code)
	}

	resp = doJSON(t, router, http.MethodGet, "/api/messages/by-password?password="+url.QueryEscape("không có"), nil, nil)
	if resp.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for unknown password, got %d", resp.Code)
	}
}
