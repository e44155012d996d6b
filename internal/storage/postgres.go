package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/explora/recsys/internal/recommender"
	"github.com/explora/recsys/pkg/models"
)

// Querier is the subset of pgxpool.Pool the stores need; pgxmock
// satisfies it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresInteractionStore persists interactions in the
// user_interactions table.
type PostgresInteractionStore struct {
	db     Querier
	logger *logrus.Logger
}

func NewPostgresInteractionStore(db Querier, logger *logrus.Logger) *PostgresInteractionStore {
	return &PostgresInteractionStore{db: db, logger: logger}
}

func (s *PostgresInteractionStore) Append(ctx context.Context, rec models.Interaction) error {
	query := `
		INSERT INTO user_interactions (id, user_id, item_id, interaction_type, rating, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.Exec(ctx, query,
		rec.ID, rec.UserID, rec.ItemID, rec.InteractionType, rec.Rating, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("%w: append interaction: %v", recommender.ErrCollaboratorUnavailable, err)
	}
	return nil
}

func (s *PostgresInteractionStore) ScanAll(ctx context.Context) ([]models.Interaction, error) {
	query := `
		SELECT id, user_id, item_id, interaction_type, rating, timestamp
		FROM user_interactions
		ORDER BY timestamp`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: scan interactions: %v", recommender.ErrCollaboratorUnavailable, err)
	}
	defer rows.Close()

	var interactions []models.Interaction
	for rows.Next() {
		var rec models.Interaction
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ItemID, &rec.InteractionType, &rec.Rating, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan interaction row: %w", err)
		}
		interactions = append(interactions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan interactions: %v", recommender.ErrCollaboratorUnavailable, err)
	}
	return interactions, nil
}

func (s *PostgresInteractionStore) UserItemIDs(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT DISTINCT item_id
		FROM user_interactions
		WHERE user_id = $1`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: user items: %v", recommender.ErrCollaboratorUnavailable, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PostgresCatalogStore reads experience metadata from the experiences
// table. The recommender never writes to the catalog.
type PostgresCatalogStore struct {
	db     Querier
	logger *logrus.Logger
}

func NewPostgresCatalogStore(db Querier, logger *logrus.Logger) *PostgresCatalogStore {
	return &PostgresCatalogStore{db: db, logger: logger}
}

const experienceColumns = `id, name, category, rating, review_count, price, image_url, active, created_at`

func (s *PostgresCatalogStore) ItemByID(ctx context.Context, id string) (*models.Experience, error) {
	query := `SELECT ` + experienceColumns + ` FROM experiences WHERE id = $1`

	var item models.Experience
	err := s.db.QueryRow(ctx, query, id).Scan(
		&item.ID, &item.Name, &item.Category, &item.Rating, &item.ReviewCount,
		&item.Price, &item.ImageURL, &item.Active, &item.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%w: experience %q", recommender.ErrUnknownIdentifier, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get experience: %v", recommender.ErrCollaboratorUnavailable, err)
	}
	return &item, nil
}

func (s *PostgresCatalogStore) ItemsByIDs(ctx context.Context, ids []string) (map[string]models.Experience, error) {
	if len(ids) == 0 {
		return map[string]models.Experience{}, nil
	}

	query := `SELECT ` + experienceColumns + ` FROM experiences WHERE id = ANY($1)`
	rows, err := s.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: batch get experiences: %v", recommender.ErrCollaboratorUnavailable, err)
	}
	defer rows.Close()

	items := make(map[string]models.Experience, len(ids))
	for rows.Next() {
		var item models.Experience
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Rating, &item.ReviewCount,
			&item.Price, &item.ImageURL, &item.Active, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan experience row: %w", err)
		}
		items[item.ID] = item
	}
	return items, rows.Err()
}

func (s *PostgresCatalogStore) ScanAll(ctx context.Context) ([]models.Experience, error) {
	query := `SELECT ` + experienceColumns + ` FROM experiences WHERE active = true ORDER BY id`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: scan experiences: %v", recommender.ErrCollaboratorUnavailable, err)
	}
	defer rows.Close()

	var items []models.Experience
	for rows.Next() {
		var item models.Experience
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Rating, &item.ReviewCount,
			&item.Price, &item.ImageURL, &item.Active, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan experience row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan experiences: %v", recommender.ErrCollaboratorUnavailable, err)
	}
	return items, nil
}
