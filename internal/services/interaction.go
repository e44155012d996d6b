package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"github.com/explora/recsys/internal/recommender"
	"github.com/explora/recsys/internal/storage"
	"github.com/explora/recsys/pkg/models"
)

// InteractionService records user actions into the append-only history.
type InteractionService struct {
	store  storage.InteractionStore
	logger *logrus.Logger
}

func NewInteractionService(store storage.InteractionStore, logger *logrus.Logger) *InteractionService {
	return &InteractionService{store: store, logger: logger}
}

// Record validates and appends one interaction. Identifiers are
// NFC-normalized so that the same user or item never splits into two
// encoder entries over differently composed unicode.
func (s *InteractionService) Record(ctx context.Context, req models.InteractionRequest) (*models.Interaction, error) {
	if !models.ValidInteractionKinds[req.InteractionType] {
		return nil, fmt.Errorf("%w: interaction_type %q", recommender.ErrInvalidArgument, req.InteractionType)
	}
	if req.InteractionType == models.InteractionRating {
		if req.Rating == nil {
			return nil, fmt.Errorf("%w: rating interaction without rating value", recommender.ErrInvalidArgument)
		}
		if *req.Rating < 1 || *req.Rating > 5 {
			return nil, fmt.Errorf("%w: rating %v outside [1,5]", recommender.ErrInvalidArgument, *req.Rating)
		}
	} else if req.Rating != nil {
		// Only explicit rating interactions carry a rating value.
		return nil, fmt.Errorf("%w: rating value on %q interaction", recommender.ErrInvalidArgument, req.InteractionType)
	}

	rec := models.Interaction{
		ID:              uuid.New(),
		UserID:          norm.NFC.String(req.UserID),
		ItemID:          norm.NFC.String(req.ItemID),
		InteractionType: req.InteractionType,
		Rating:          req.Rating,
		Timestamp:       time.Now().UTC(),
	}

	if err := s.store.Append(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":          rec.UserID,
		"item_id":          rec.ItemID,
		"interaction_type": rec.InteractionType,
	}).Debug("Interaction recorded")

	return &rec, nil
}
