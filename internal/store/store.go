package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by backends when a record does not exist.
var ErrNotFound = errors.New("record not found")

// MessageType defines the kind of gift message.
type MessageType string

const (
	MessageTypeText    MessageType = "text"
	MessageTypeAudio   MessageType = "audio"
	MessageTypeVideo   MessageType = "video"
	MessageTypePodcast MessageType = "podcast"
)

// Valid reports whether t is one of the known message types.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeAudio, MessageTypeVideo, MessageTypePodcast:
		return true
	default:
		return false
	}
}

// Message represents a persisted gift message.
type Message struct {
	ID            string
	ProductID     string
	SenderName    string
	RecipientName string
	Type          MessageType
	Content       string // text, or a media URL for non-text types
	AudioURL      string
	VideoURL      string
	PodcastURL    string
	PasswordHash  *string // nil when the message is not guarded
	CreatedAt     time.Time
	ViewCount     int64
}

// Guarded reports whether a password is required to read the message.
func (m *Message) Guarded() bool {
	return m.PasswordHash != nil && *m.PasswordHash != ""
}

// Review represents a customer review on the feedback board.
type Review struct {
	ID        string
	Name      string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// MessageStore handles gift message persistence.
type MessageStore interface {
	// CreateMessage persists a new message as-is.
	CreateMessage(ctx context.Context, msg *Message) error

	// GetMessageByID returns ErrNotFound when no message has the id.
	GetMessageByID(ctx context.Context, id string) (*Message, error)

	// FindMessagesByPasswordHash returns every message guarded by digest.
	FindMessagesByPasswordHash(ctx context.Context, digest string) ([]*Message, error)

	// IncrementViewCount adds one to the message view counter.
	IncrementViewCount(ctx context.Context, id string) error
}

// ReviewStore handles review persistence.
type ReviewStore interface {
	CreateReview(ctx context.Context, review *Review) error
	ListReviews(ctx context.Context) ([]*Review, error)
}

// Store combines all persistence interfaces.
type Store interface {
	MessageStore
	ReviewStore

	// Close releases resources held by the backend.
	Close() error
}
