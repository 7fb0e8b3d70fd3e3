package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/tramcham/tramcham-server/internal/store"
	"github.com/tramcham/tramcham-server/internal/store/sqlite/migrations"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// gooseUp is a seam for tests that need to observe migration runs.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// New opens the database at dbPath and applies pending migrations.
func New(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		return Migrate(ctx, db)
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps ":memory:"
	// databases alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Migrate applies the embedded goose migrations to db.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := gooseUp(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== MessageStore implementation ====

const messageColumns = `id, product_id, sender_name, recipient_name, message_type, content,
	audio_url, video_url, podcast_url, password_hash, created_at, view_count`

// CreateMessage inserts a new message.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *store.Message) error {
	query := `
		INSERT INTO messages (` + messageColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var hash sql.NullString
	if msg.PasswordHash != nil {
		hash = sql.NullString{String: *msg.PasswordHash, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		msg.ID,
		msg.ProductID,
		msg.SenderName,
		msg.RecipientName,
		string(msg.Type),
		msg.Content,
		msg.AudioURL,
		msg.VideoURL,
		msg.PodcastURL,
		hash,
		msg.CreatedAt.UTC(),
		msg.ViewCount,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// GetMessageByID retrieves a message by id.
func (s *SQLiteStore) GetMessageByID(ctx context.Context, id string) (*store.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = ?`

	msg, err := scanMessage(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	return msg, nil
}

// FindMessagesByPasswordHash returns messages guarded by digest, newest first.
func (s *SQLiteStore) FindMessagesByPasswordHash(ctx context.Context, digest string) ([]*store.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE password_hash = ?
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, digest)
	if err != nil {
		return nil, fmt.Errorf("query messages by password: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// IncrementViewCount bumps the view counter in a single statement.
func (s *SQLiteStore) IncrementViewCount(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE messages SET view_count = view_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("increment view count: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("message %s: %w", id, store.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*store.Message, error) {
	var (
		msg     store.Message
		msgType string
		hash    sql.NullString
	)
	err := row.Scan(
		&msg.ID,
		&msg.ProductID,
		&msg.SenderName,
		&msg.RecipientName,
		&msgType,
		&msg.Content,
		&msg.AudioURL,
		&msg.VideoURL,
		&msg.PodcastURL,
		&hash,
		&msg.CreatedAt,
		&msg.ViewCount,
	)
	if err != nil {
		return nil, err
	}
	msg.Type = store.MessageType(msgType)
	if hash.Valid && hash.String != "" {
		h := hash.String
		msg.PasswordHash = &h
	}
	return &msg, nil
}

// ==== ReviewStore implementation ====

// CreateReview inserts a new review.
func (s *SQLiteStore) CreateReview(ctx context.Context, review *store.Review) error {
	query := `
		INSERT INTO reviews (id, name, rating, comment, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, review.ID, review.Name, review.Rating, review.Comment, review.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// ListReviews returns all reviews, newest first.
func (s *SQLiteStore) ListReviews(ctx context.Context) ([]*store.Review, error) {
	query := `
		SELECT id, name, rating, comment, created_at
		FROM reviews
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]*store.Review, 0)
	for rows.Next() {
		var r store.Review
		if err := rows.Scan(&r.ID, &r.Name, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, nil
}
