package reviews

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tramcham/tramcham-server/internal/store"
)

// Common errors for review operations.
var (
	ErrInvalidName    = errors.New("name must not be empty")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrInvalidComment = errors.New("comment must not be empty")
)

// Service provides the feedback board.
type Service struct {
	store   store.ReviewStore
	timeout time.Duration
	samples []*store.Review
	now     func() time.Time
	log     *zerolog.Logger
}

// New creates a review service that always shows the bundled sample reviews.
// A positive timeout bounds each store call.
func New(st store.ReviewStore, timeout time.Duration, logger *zerolog.Logger) *Service {
	return &Service{
		store:   st,
		timeout: timeout,
		samples: sampleReviews(),
		now:     time.Now,
		log:     logger,
	}
}

// CreateInput carries a new review.
type CreateInput struct {
	Name    string
	Rating  int
	Comment string
}

// Create validates and stores a review.
func (s *Service) Create(ctx context.Context, in CreateInput) (*store.Review, error) {
	name := strings.TrimSpace(in.Name)
	comment := strings.TrimSpace(in.Comment)

	if name == "" {
		return nil, ErrInvalidName
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if comment == "" {
		return nil, ErrInvalidComment
	}

	review := &store.Review{
		ID:        uuid.NewString(),
		Name:      name,
		Rating:    in.Rating,
		Comment:   comment,
		CreatedAt: s.now().UTC(),
	}
	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.store.CreateReview(callCtx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.log.Info().Str("review_id", review.ID).Int("rating", review.Rating).Msg("review created")
	return review, nil
}

// List returns stored and sample reviews, newest first. If the store is
// unreachable only the samples are returned.
func (s *Service) List(ctx context.Context) []*store.Review {
	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	stored, err := s.store.ListReviews(callCtx)
	if err != nil {
		s.log.Warn().Err(err).Msg("review store unavailable, showing samples only")
		stored = nil
	}

	all := make([]*store.Review, 0, len(stored)+len(s.samples))
	all = append(all, stored...)
	all = append(all, s.samples...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func sampleReviews() []*store.Review {
	return []*store.Review{
		{
			ID:        "sample-1",
			Name:      "Nguyễn Văn Minh",
			Rating:    5,
			Comment:   "Trạm Chạm là một ý tưởng tuyệt vời! Tôi rất thích cách tạo QR lời chúc.",
			CreatedAt: time.Date(2024, 11, 11, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:        "sample-2",
			Name:      "Trần Thị Phương Quỳnh",
			Rating:    4,
			Comment:   "Giao diện đẹp, dễ sử dụng. Chỉ mong có thêm nhiều mẫu QR hơn.",
			CreatedAt: time.Date(2024, 11, 10, 15, 30, 0, 0, time.UTC),
		},
		{
			ID:        "sample-3",
			Name:      "Lê Văn Sơn",
			Rating:    5,
			Comment:   "Đã tạo được lời chúc rất ý nghĩa cho người thân. Cảm ơn Trạm Chạm!",
			CreatedAt: time.Date(2024, 11, 9, 9, 15, 0, 0, time.UTC),
		},
	}
}
