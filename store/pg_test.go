package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/imkonsowa/restaurants-linebot/models"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockPg(t *testing.T) (*Pg, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return New(db), mock
}

func TestGetRestaurant(t *testing.T) {
	pg, mock := newMockPg(t)

	mock.ExpectQuery(`SELECT \* FROM "restaurants" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "address", "mrt_stations", "rating"}).
			AddRow(5, "一燈", "台北市", "{中山,雙連}", 4.5))

	r, err := pg.GetRestaurant(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), r.ID)
	assert.Equal(t, "一燈", r.Title)
	assert.Equal(t, []string{"中山", "雙連"}, []string(r.MRTStations))
	require.NotNil(t, r.Rating)
	assert.Equal(t, 4.5, *r.Rating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRestaurant_NotFound(t *testing.T) {
	pg, mock := newMockPg(t)

	mock.ExpectQuery(`SELECT \* FROM "restaurants" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := pg.GetRestaurant(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplaceChunks(t *testing.T) {
	pg, mock := newMockPg(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "chunks" WHERE restaurant_id = \$1`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectQuery(`INSERT INTO "chunks"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11).AddRow(12))
	mock.ExpectCommit()

	chunks := []models.Chunk{
		{RestaurantID: 7, Index: 0, Content: "a", Embedding: pgvector.NewVector([]float32{1, 0})},
		{RestaurantID: 7, Index: 1, Content: "b", Embedding: pgvector.NewVector([]float32{0, 1})},
	}
	require.NoError(t, pg.ReplaceChunks(context.Background(), 7, chunks))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceChunks_OnlyDeletesWhenEmpty(t *testing.T) {
	pg, mock := newMockPg(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "chunks"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, pg.ReplaceChunks(context.Background(), 7, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSimilaritySearch(t *testing.T) {
	pg, mock := newMockPg(t)

	mock.ExpectQuery(`SELECT restaurant_id, content, embedding <=> \$1 AS distance FROM chunks ORDER BY distance LIMIT \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"restaurant_id", "content", "distance"}).
			AddRow(1, "chunk a", 0.1).
			AddRow(2, "chunk b", 0.25).
			AddRow(3, "orphan", 0.3))
	mock.ExpectQuery(`SELECT \* FROM "restaurants" WHERE id IN`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).
			AddRow(1, "一燈").
			AddRow(2, "鷹流"))

	docs, err := pg.SimilaritySearch(context.Background(), []float32{0.1, 0.2}, 10)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "chunk a", docs[0].Content)
	assert.InDelta(t, 0.9, docs[0].Score, 1e-9)
	assert.Equal(t, "一燈", docs[0].Restaurant.Title)
	assert.Equal(t, "鷹流", docs[1].Restaurant.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSimilaritySearch_EmptyIndex(t *testing.T) {
	pg, mock := newMockPg(t)

	mock.ExpectQuery(`SELECT restaurant_id, content`).
		WillReturnRows(sqlmock.NewRows([]string{"restaurant_id", "content", "distance"}))

	_, err := pg.SimilaritySearch(context.Background(), []float32{1}, 10)
	assert.ErrorIs(t, err, ErrNoIndex)
}

func TestUnembeddedRestaurantIDs(t *testing.T) {
	pg, mock := newMockPg(t)

	mock.ExpectQuery(`SELECT "id" FROM "restaurants" WHERE NOT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3).AddRow(8))

	ids, err := pg.UnembeddedRestaurantIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 8}, ids)
}

func TestRestaurantIDs(t *testing.T) {
	pg, mock := newMockPg(t)

	mock.ExpectQuery(`SELECT "id" FROM "restaurants" ORDER BY id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))

	ids, err := pg.RestaurantIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
