package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explora/recsys/internal/recommender"
	"github.com/explora/recsys/pkg/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestPostgresInteractionStore_Append(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	store := NewPostgresInteractionStore(mockDB, testLogger())

	rec := models.Interaction{
		ID:              uuid.New(),
		UserID:          "u1",
		ItemID:          "i1",
		InteractionType: "booking",
		Timestamp:       time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	mockDB.ExpectExec("INSERT INTO user_interactions").
		WithArgs(rec.ID, rec.UserID, rec.ItemID, rec.InteractionType, rec.Rating, rec.Timestamp).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Append(context.Background(), rec))
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestPostgresInteractionStore_AppendFailure(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	store := NewPostgresInteractionStore(mockDB, testLogger())

	mockDB.ExpectExec("INSERT INTO user_interactions").
		WillReturnError(errors.New("connection refused"))

	err = store.Append(context.Background(), models.Interaction{ID: uuid.New()})
	assert.True(t, errors.Is(err, recommender.ErrCollaboratorUnavailable))
}

func TestPostgresInteractionStore_ScanAll(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	store := NewPostgresInteractionStore(mockDB, testLogger())

	id1, id2 := uuid.New(), uuid.New()
	rating := 4.5
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"id", "user_id", "item_id", "interaction_type", "rating", "timestamp"}).
		AddRow(id1, "u1", "i1", "view", (*float64)(nil), ts).
		AddRow(id2, "u1", "i2", "rating", &rating, ts.Add(time.Minute))

	mockDB.ExpectQuery("SELECT (.+) FROM user_interactions").WillReturnRows(rows)

	interactions, err := store.ScanAll(context.Background())
	require.NoError(t, err)
	require.Len(t, interactions, 2)

	assert.Equal(t, "view", interactions[0].InteractionType)
	assert.Nil(t, interactions[0].Rating)
	require.NotNil(t, interactions[1].Rating)
	assert.Equal(t, 4.5, *interactions[1].Rating)
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestPostgresInteractionStore_UserItemIDs(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	store := NewPostgresInteractionStore(mockDB, testLogger())

	rows := pgxmock.NewRows([]string{"item_id"}).AddRow("i1").AddRow("i2")
	mockDB.ExpectQuery("SELECT DISTINCT item_id").
		WithArgs("u1").
		WillReturnRows(rows)

	ids, err := store.UserItemIDs(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"i1", "i2"}, ids)
}

func TestPostgresCatalogStore_ItemByID_NotFound(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	store := NewPostgresCatalogStore(mockDB, testLogger())

	mockDB.ExpectQuery("SELECT (.+) FROM experiences").
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err = store.ItemByID(context.Background(), "ghost")
	assert.True(t, errors.Is(err, recommender.ErrUnknownIdentifier))
}

func TestPostgresCatalogStore_ScanAll(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	store := NewPostgresCatalogStore(mockDB, testLogger())

	created := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "name", "category", "rating", "review_count", "price", "image_url", "active", "created_at"}).
		AddRow("i1", "Louvre Tour", "culture", 4.8, 500, 59.0, "https://img/1", true, created).
		AddRow("i2", "Seine Cruise", "outdoors", 4.5, 300, 25.0, "https://img/2", true, created)

	mockDB.ExpectQuery("SELECT (.+) FROM experiences WHERE active").WillReturnRows(rows)

	items, err := store.ScanAll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Louvre Tour", items[0].Name)
	assert.Equal(t, 300, items[1].ReviewCount)
}

func TestPostgresCatalogStore_ItemsByIDs_EmptyInput(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	store := NewPostgresCatalogStore(mockDB, testLogger())

	items, err := store.ItemsByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mockDB.ExpectationsWereMet())
}
