// Package sheets implements store.Store directly on a Google spreadsheet,
// one row per record. It reads the same columns the Apps Script deployment
// writes, so both backends can share a spreadsheet.
package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/tramcham/tramcham-server/internal/store"
)

const (
	messagesSheet = "Messages"
	reviewsSheet  = "Reviews"

	// Row 1 of each sheet holds column headers.
	firstDataRow = 2
)

// Messages sheet columns.
const (
	colID = iota
	colProductID
	colSenderName
	colRecipientName
	colMessageType
	colContent
	colPasswordHash
	colAudioURL
	colVideoURL
	colPodcastURL
	colCreatedAt
	colViewCount
	messageColumns
)

// Reviews sheet columns.
const (
	colReviewID = iota
	colReviewName
	colReviewRating
	colReviewComment
	colReviewCreatedAt
	reviewColumns
)

// valuesAPI is the subset of the Sheets values API the store needs.
type valuesAPI interface {
	Get(ctx context.Context, rng string) ([][]any, error)
	Append(ctx context.Context, rng string, rows [][]any) error
	Update(ctx context.Context, rng string, rows [][]any) error
}

// Store implements store.Store on a spreadsheet.
type Store struct {
	values valuesAPI

	// mu serializes view count read-modify-writes within this process.
	mu sync.Mutex
}

// New connects to the spreadsheet using service account credentials.
func New(ctx context.Context, credentialsPath, spreadsheetID string) (*Store, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	svc, err := gsheets.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Store{values: &googleValues{svc: svc, spreadsheetID: spreadsheetID}}, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// googleValues adapts the generated client to valuesAPI.
type googleValues struct {
	svc           *gsheets.Service
	spreadsheetID string
}

func (g *googleValues) Get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (g *googleValues) Append(ctx context.Context, rng string, rows [][]any) error {
	_, err := g.svc.Spreadsheets.Values.Append(g.spreadsheetID, rng, &gsheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func (g *googleValues) Update(ctx context.Context, rng string, rows [][]any) error {
	_, err := g.svc.Spreadsheets.Values.Update(g.spreadsheetID, rng, &gsheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// ==== MessageStore implementation ====

// CreateMessage appends a row to the Messages sheet.
func (s *Store) CreateMessage(ctx context.Context, msg *store.Message) error {
	row := make([]any, messageColumns)
	row[colID] = msg.ID
	row[colProductID] = msg.ProductID
	row[colSenderName] = msg.SenderName
	row[colRecipientName] = msg.RecipientName
	row[colMessageType] = string(msg.Type)
	row[colContent] = msg.Content
	row[colPasswordHash] = ""
	if msg.PasswordHash != nil {
		row[colPasswordHash] = *msg.PasswordHash
	}
	row[colAudioURL] = msg.AudioURL
	row[colVideoURL] = msg.VideoURL
	row[colPodcastURL] = msg.PodcastURL
	row[colCreatedAt] = msg.CreatedAt.UTC().Format(time.RFC3339Nano)
	row[colViewCount] = msg.ViewCount

	if err := s.values.Append(ctx, messagesSheet+"!A:L", [][]any{row}); err != nil {
		return fmt.Errorf("append message row: %w", err)
	}
	return nil
}

// GetMessageByID scans the Messages sheet for id.
func (s *Store) GetMessageByID(ctx context.Context, id string) (*store.Message, error) {
	msg, _, err := s.findMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// FindMessagesByPasswordHash scans the Messages sheet for digest.
func (s *Store) FindMessagesByPasswordHash(ctx context.Context, digest string) ([]*store.Message, error) {
	rows, err := s.values.Get(ctx, messagesSheet+"!A2:L")
	if err != nil {
		return nil, fmt.Errorf("read message rows: %w", err)
	}

	var messages []*store.Message
	for i, row := range rows {
		if cell(row, colPasswordHash) != digest {
			continue
		}
		msg, err := messageFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+firstDataRow, err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// IncrementViewCount rewrites the view_count cell of the message row.
// The Sheets API has no atomic increment, so the read and the write are held
// under mu. Other server instances writing the same sheet are not covered.
func (s *Store) IncrementViewCount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, rowNum, err := s.findMessage(ctx, id)
	if err != nil {
		return err
	}
	rng := fmt.Sprintf("%s!L%d", messagesSheet, rowNum)
	if err := s.values.Update(ctx, rng, [][]any{{msg.ViewCount + 1}}); err != nil {
		return fmt.Errorf("update view count: %w", err)
	}
	return nil
}

func (s *Store) findMessage(ctx context.Context, id string) (*store.Message, int, error) {
	rows, err := s.values.Get(ctx, messagesSheet+"!A2:L")
	if err != nil {
		return nil, 0, fmt.Errorf("read message rows: %w", err)
	}
	for i, row := range rows {
		if cell(row, colID) != id {
			continue
		}
		msg, err := messageFromRow(row)
		if err != nil {
			return nil, 0, fmt.Errorf("row %d: %w", i+firstDataRow, err)
		}
		return msg, i + firstDataRow, nil
	}
	return nil, 0, fmt.Errorf("message %s: %w", id, store.ErrNotFound)
}

func messageFromRow(row []any) (*store.Message, error) {
	createdAt, err := parseTime(cell(row, colCreatedAt))
	if err != nil {
		return nil, err
	}
	views, err := parseInt(cell(row, colViewCount))
	if err != nil {
		return nil, fmt.Errorf("view_count: %w", err)
	}

	msg := &store.Message{
		ID:            cell(row, colID),
		ProductID:     cell(row, colProductID),
		SenderName:    cell(row, colSenderName),
		RecipientName: cell(row, colRecipientName),
		Type:          store.MessageType(cell(row, colMessageType)),
		Content:       cell(row, colContent),
		AudioURL:      cell(row, colAudioURL),
		VideoURL:      cell(row, colVideoURL),
		PodcastURL:    cell(row, colPodcastURL),
		CreatedAt:     createdAt,
		ViewCount:     views,
	}
	if hash := cell(row, colPasswordHash); hash != "" {
		msg.PasswordHash = &hash
	}
	return msg, nil
}

// ==== ReviewStore implementation ====

// CreateReview appends a row to the Reviews sheet.
func (s *Store) CreateReview(ctx context.Context, review *store.Review) error {
	row := make([]any, reviewColumns)
	row[colReviewID] = review.ID
	row[colReviewName] = review.Name
	row[colReviewRating] = review.Rating
	row[colReviewComment] = review.Comment
	row[colReviewCreatedAt] = review.CreatedAt.UTC().Format(time.RFC3339Nano)

	if err := s.values.Append(ctx, reviewsSheet+"!A:E", [][]any{row}); err != nil {
		return fmt.Errorf("append review row: %w", err)
	}
	return nil
}

// ListReviews reads every row of the Reviews sheet in sheet order.
func (s *Store) ListReviews(ctx context.Context) ([]*store.Review, error) {
	rows, err := s.values.Get(ctx, reviewsSheet+"!A2:E")
	if err != nil {
		return nil, fmt.Errorf("read review rows: %w", err)
	}

	reviews := make([]*store.Review, 0, len(rows))
	for i, row := range rows {
		if cell(row, colReviewID) == "" {
			continue
		}
		createdAt, err := parseTime(cell(row, colReviewCreatedAt))
		if err != nil {
			return nil, fmt.Errorf("review row %d: %w", i+firstDataRow, err)
		}
		rating, err := parseInt(cell(row, colReviewRating))
		if err != nil {
			return nil, fmt.Errorf("review row %d rating: %w", i+firstDataRow, err)
		}
		reviews = append(reviews, &store.Review{
			ID:        cell(row, colReviewID),
			Name:      cell(row, colReviewName),
			Rating:    int(rating),
			Comment:   cell(row, colReviewComment),
			CreatedAt: createdAt,
		})
	}
	return reviews, nil
}

// cell returns the string form of row[i]; the API omits trailing empty cells.
func cell(row []any, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	switch v := row[i].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func parseInt(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
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
