package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	transporthttp "github.com/tramcham/tramcham-server/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		log.Printf("gift_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "http://localhost:8080", "API base address")
	sender := flag.String("sender", "An", "sender name")
	recipient := flag.String("recipient", "Bình", "recipient name")
	text := flag.String("text", "Chúc mừng sinh nhật!", "message content")
	password := flag.String("password", "abc123", "message password")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var created transporthttp.CreateMessageResponse
	if err := call(ctx, http.MethodPost, *addr+"/api/messages", transporthttp.CreateMessageRequest{
		SenderName:    *sender,
		RecipientName: *recipient,
		MessageType:   "text",
		Content:       *text,
		Password:      *password,
	}, http.StatusCreated, &created); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	fmt.Printf("Created message id=%s link=%s\n", created.ID, created.ShareLink)

	if err := call(ctx, http.MethodGet, *addr+"/api/messages/"+created.ID, nil, http.StatusUnauthorized, nil); err != nil {
		return fmt.Errorf("read without password: %w", err)
	}

	var byID transporthttp.MessageResponse
	target := *addr + "/api/messages/" + created.ID + "?password=" + url.QueryEscape(*password)
	if err := call(ctx, http.MethodGet, target, nil, http.StatusOK, &byID); err != nil {
		return fmt.Errorf("read by id: %w", err)
	}
	fmt.Printf("Read by id: %q views=%d\n", byID.Message.Content, byID.Message.ViewCount)

	var byPassword transporthttp.MessageResponse
	target = *addr + "/api/messages/by-password?password=" + url.QueryEscape(*password)
	if err := call(ctx, http.MethodGet, target, nil, http.StatusOK, &byPassword); err != nil {
		return fmt.Errorf("read by password: %w", err)
	}
	fmt.Printf("Read by password: id=%s views=%d\n", byPassword.Message.ID, byPassword.Message.ViewCount)

	return nil
}

func call(ctx context.Context, method, target string, body any, wantStatus int, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var errResp transporthttp.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("status %d (want %d): %s", resp.StatusCode, wantStatus, errResp.Error)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode: %w", err)
		}
	}
	return nil
}
