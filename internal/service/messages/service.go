// Package messages implements gift message creation and password-gated reads.
package messages

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tramcham/tramcham-server/internal/secret"
	"github.com/tramcham/tramcham-server/internal/store"
	"github.com/tramcham/tramcham-server/internal/utils"
)

// Options configures a Service.
type Options struct {
	// PublicBaseURL and SharePath form share links: <base>/<path>/<id>.
	PublicBaseURL string
	SharePath     string
	// StoreTimeout bounds each store call; zero leaves it to the caller's context.
	StoreTimeout time.Duration

	Now   func() time.Time
	NewID func() (string, error)
}

// Service provides gift message operations.
type Service struct {
	store store.MessageStore
	opts  Options
	log   *zerolog.Logger
}

// New creates a message service.
func New(st store.MessageStore, opts Options, logger *zerolog.Logger) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = utils.NewID
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{store: st, opts: opts, log: logger}
}

// CreateInput carries the fields of a new message.
type CreateInput struct {
	ProductID     string
	SenderName    string
	RecipientName string
	Type          store.MessageType
	Content       string
	Password      string // empty means the message is not guarded
	AudioURL      string
	VideoURL      string
	PodcastURL    string
}

// CreateResult is returned once to the creator.
type CreateResult struct {
	ID        string
	ShareLink string
	Password  *string // echoed back; it cannot be recovered later
}

// View is a message as shown to a viewer, without its password digest.
type View struct {
	ID            string
	ProductID     string
	SenderName    string
	RecipientName string
	Type          store.MessageType
	Content       string
	AudioURL      string
	VideoURL      string
	PodcastURL    string
	CreatedAt     time.Time
	// ViewCount includes the view that produced this projection.
	ViewCount int64
}

func (in CreateInput) validate() error {
	switch {
	case strings.TrimSpace(in.SenderName) == "":
		return &ValidationError{Field: "senderName"}
	case strings.TrimSpace(in.RecipientName) == "":
		return &ValidationError{Field: "recipientName"}
	case in.Type == "":
		return &ValidationError{Field: "messageType"}
	case !in.Type.Valid():
		return &ValidationError{Field: "messageType", Reason: "must be one of text, audio, video, podcast"}
	case strings.TrimSpace(in.Content) == "":
		return &ValidationError{Field: "content"}
	}
	return nil
}

// Create validates input and persists a new message.
func (s *Service) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	id, err := s.opts.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate message id: %w", err)
	}
	link, err := s.shareLink(id)
	if err != nil {
		return nil, err
	}

	msg := &store.Message{
		ID:            id,
		ProductID:     in.ProductID,
		SenderName:    strings.TrimSpace(in.SenderName),
		RecipientName: strings.TrimSpace(in.RecipientName),
		Type:          in.Type,
		Content:       in.Content,
		AudioURL:      in.AudioURL,
		VideoURL:      in.VideoURL,
		PodcastURL:    in.PodcastURL,
		CreatedAt:     s.opts.Now().UTC(),
		ViewCount:     0,
	}

	var password *string
	if in.Password != "" {
		digest, err := secret.Digest(in.Password)
		if err != nil {
			return nil, fmt.Errorf("digest password: %w", err)
		}
		msg.PasswordHash = &digest
		p := in.Password
		password = &p
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.store.CreateMessage(callCtx, msg); err != nil {
		return nil, storeError("create message", err)
	}

	s.log.Info().
		Str("message_id", id).
		Str("message_type", string(msg.Type)).
		Bool("guarded", msg.Guarded()).
		Msg("message created")

	return &CreateResult{ID: id, ShareLink: link, Password: password}, nil
}

// GetByID returns a message, checking the password when the message is guarded.
func (s *Service) GetByID(ctx context.Context, id, password string) (*View, error) {
	msg, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	if msg.Guarded() {
		if password == "" {
			s.log.Debug().Str("message_id", id).Msg("password required")
			return nil, ErrPasswordRequired
		}
		if !secret.Matches(*msg.PasswordHash, password) {
			s.log.Debug().Str("message_id", id).Msg("invalid password")
			return nil, ErrInvalidPassword
		}
	}

	return s.open(ctx, msg), nil
}

// GetByPassword finds a message by its password alone. Digests are unsalted,
// so several messages may share one; the most recently created wins.
func (s *Service) GetByPassword(ctx context.Context, password string) (*View, error) {
	if password == "" {
		return nil, &ValidationError{Field: "password"}
	}
	digest, err := secret.Digest(password)
	if err != nil {
		return nil, fmt.Errorf("digest password: %w", err)
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	matches, err := s.store.FindMessagesByPasswordHash(callCtx, digest)
	if err != nil {
		return nil, storeError("find messages by password", err)
	}

	msg := newest(matches)
	if msg == nil {
		return nil, ErrNotFound
	}
	if len(matches) > 1 {
		s.log.Debug().Int("matches", len(matches)).Str("message_id", msg.ID).Msg("password shared by several messages")
	}

	return s.open(ctx, msg), nil
}

func (s *Service) fetch(ctx context.Context, id string) (*store.Message, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	msg, err := s.store.GetMessageByID(callCtx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeError("get message", err)
	}
	return msg, nil
}

// open records one view and returns the sanitized message. A failed counter
// update is logged and does not fail the read.
func (s *Service) open(ctx context.Context, msg *store.Message) *View {
	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.store.IncrementViewCount(callCtx, msg.ID); err != nil {
		s.log.Warn().Err(err).Str("message_id", msg.ID).Msg("failed to increment view count")
	}
	s.log.Debug().Str("message_id", msg.ID).Msg("message opened")

	return &View{
		ID:            msg.ID,
		ProductID:     msg.ProductID,
		SenderName:    msg.SenderName,
		RecipientName: msg.RecipientName,
		Type:          msg.Type,
		Content:       msg.Content,
		AudioURL:      msg.AudioURL,
		VideoURL:      msg.VideoURL,
		PodcastURL:    msg.PodcastURL,
		CreatedAt:     msg.CreatedAt,
		ViewCount:     msg.ViewCount + 1,
	}
}

func (s *Service) shareLink(id string) (string, error) {
	link, err := url.JoinPath(s.opts.PublicBaseURL, s.opts.SharePath, id)
	if err != nil {
		return "", fmt.Errorf("build share link: %w", err)
	}
	return link, nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.StoreTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opts.StoreTimeout)
}

// newest returns the most recently created message; ties keep store order.
func newest(matches []*store.Message) *store.Message {
	var best *store.Message
	for _, m := range matches {
		if m == nil {
			continue
		}
		if best == nil || m.CreatedAt.After(best.CreatedAt) {
			best = m
		}
	}
	return best
}
