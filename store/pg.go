package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/imkonsowa/restaurants-linebot/models"
	"github.com/pgvector/pgvector-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrNoIndex  = errors.New("store: vector index is empty")
)

// Document is one retrieved chunk together with its restaurant.
type Document struct {
	Content    string            `json:"content"`
	Score      float64           `json:"score"`
	Restaurant models.Restaurant `json:"restaurant"`
}

type Stats struct {
	Restaurants int64 `json:"restaurants"`
	Chunks      int64 `json:"chunks"`
	Unembedded  int64 `json:"unembedded"`
}

type Pg struct {
	db *gorm.DB
}

func NewPg(connStr string) (*Pg, error) {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
		},
	)

	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{Logger: newLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return New(db), nil
}

func New(db *gorm.DB) *Pg {
	return &Pg{db: db}
}

// Migrate creates the extensions and tables the bot needs.
func (p *Pg) Migrate(ctx context.Context) error {
	db := p.db.WithContext(ctx)
	for _, ext := range []string{"vector", "postgis"} {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS " + ext).Error; err != nil {
			return fmt.Errorf("failed to create extension %s: %w", ext, err)
		}
	}

	if err := db.AutoMigrate(&models.Restaurant{}, &models.Chunk{}); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}

	return nil
}

var upsertColumns = []string{
	"source", "title", "text", "url", "address", "location", "rating", "reviews_count",
	"mrt_stations", "bus_stations", "opening_hours", "maps_url", "price_range",
	"photo_reference", "photo_url", "updated_at",
}

// UpsertRestaurants inserts or updates restaurants, keyed by place id when known
// and by url otherwise. IDs are filled in on return.
func (p *Pg) UpsertRestaurants(ctx context.Context, restaurants []models.Restaurant) error {
	if len(restaurants) == 0 {
		return nil
	}

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range restaurants {
			target := "url"
			if restaurants[i].PlaceID != nil {
				target = "place_id"
			}

			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: target}},
				DoUpdates: clause.AssignmentColumns(upsertColumns),
			}).Create(&restaurants[i]).Error
			if err != nil {
				return fmt.Errorf("failed to upsert restaurant %q: %w", restaurants[i].Title, err)
			}
		}

		return nil
	})
}

func (p *Pg) ListRestaurants(ctx context.Context, limit, offset int) ([]models.Restaurant, error) {
	q := p.db.WithContext(ctx).Order("id")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var restaurants []models.Restaurant
	if err := q.Find(&restaurants).Error; err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}

	return restaurants, nil
}

func (p *Pg) GetRestaurant(ctx context.Context, id uint64) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := p.db.WithContext(ctx).First(&restaurant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get restaurant %d: %w", id, err)
	}

	return &restaurant, nil
}

// ReplaceChunks swaps all chunks of a restaurant in one transaction.
func (p *Pg) ReplaceChunks(ctx context.Context, restaurantID uint64, chunks []models.Chunk) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("restaurant_id = ?", restaurantID).Delete(&models.Chunk{}).Error; err != nil {
			return fmt.Errorf("failed to delete chunks: %w", err)
		}
		if len(chunks) == 0 {
			return nil
		}
		if err := tx.Create(&chunks).Error; err != nil {
			return fmt.Errorf("failed to create chunks: %w", err)
		}

		return nil
	})
}

func (p *Pg) RestaurantIDs(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	if err := p.db.WithContext(ctx).Model(&models.Restaurant{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to query restaurant ids: %w", err)
	}

	return ids, nil
}

func (p *Pg) UnembeddedRestaurantIDs(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	err := p.db.WithContext(ctx).
		Model(&models.Restaurant{}).
		Where("NOT EXISTS (SELECT 1 FROM chunks WHERE chunks.restaurant_id = restaurants.id)").
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query unembedded restaurants: %w", err)
	}

	return ids, nil
}

func (p *Pg) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	db := p.db.WithContext(ctx)

	if err := db.Model(&models.Restaurant{}).Count(&s.Restaurants).Error; err != nil {
		return s, fmt.Errorf("failed to count restaurants: %w", err)
	}
	if err := db.Model(&models.Chunk{}).Count(&s.Chunks).Error; err != nil {
		return s, fmt.Errorf("failed to count chunks: %w", err)
	}
	err := db.Model(&models.Restaurant{}).
		Where("NOT EXISTS (SELECT 1 FROM chunks WHERE chunks.restaurant_id = restaurants.id)").
		Count(&s.Unembedded).Error
	if err != nil {
		return s, fmt.Errorf("failed to count unembedded restaurants: %w", err)
	}

	return s, nil
}

type chunkHit struct {
	RestaurantID uint64
	Content      string
	Distance     float64
}

// SimilaritySearch returns the k chunks closest to vector by cosine distance.
// It fails with ErrNoIndex when nothing has been embedded yet.
func (p *Pg) SimilaritySearch(ctx context.Context, vector []float32, k int) ([]Document, error) {
	var hits []chunkHit
	err := p.db.WithContext(ctx).Raw(
		"SELECT restaurant_id, content, embedding <=> ? AS distance FROM chunks ORDER BY distance LIMIT ?",
		pgvector.NewVector(vector), k,
	).Scan(&hits).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	if len(hits) == 0 {
		return nil, ErrNoIndex
	}

	ids := make([]uint64, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.RestaurantID)
	}

	var restaurants []models.Restaurant
	if err := p.db.WithContext(ctx).Where("id IN ?", ids).Find(&restaurants).Error; err != nil {
		return nil, fmt.Errorf("failed to load matched restaurants: %w", err)
	}

	byID := make(map[uint64]models.Restaurant, len(restaurants))
	for _, r := range restaurants {
		byID[r.ID] = r
	}

	docs := make([]Document, 0, len(hits))
	for _, h := range hits {
		r, ok := byID[h.RestaurantID]
		if !ok {
			continue
		}
		docs = append(docs, Document{Content: h.Content, Score: 1 - h.Distance, Restaurant: r})
	}

	return docs, nil
}
