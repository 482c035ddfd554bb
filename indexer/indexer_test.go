package indexer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/imkonsowa/restaurants-linebot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	batches [][]string
	err     error
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, texts)

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}

	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

type fakeStore struct {
	restaurants map[uint64]*models.Restaurant
	chunks      map[uint64][]models.Chunk
}

func (f *fakeStore) GetRestaurant(_ context.Context, id uint64) (*models.Restaurant, error) {
	r, ok := f.restaurants[id]
	if !ok {
		return nil, errors.New("not found")
	}

	return r, nil
}

func (f *fakeStore) ReplaceChunks(_ context.Context, id uint64, chunks []models.Chunk) error {
	if f.chunks == nil {
		f.chunks = make(map[uint64][]models.Chunk)
	}
	f.chunks[id] = chunks

	return nil
}

func TestContents_HeaderOnly(t *testing.T) {
	ix := New(&fakeEmbedder{}, &fakeStore{}, 500, 50, 100)

	contents, err := ix.Contents(&models.Restaurant{Title: "一燈", Address: "台北市"})
	require.NoError(t, err)
	assert.Equal(t, []string{"標題：一燈\n地址：台北市"}, contents)
}

func TestContents_SplitsLongText(t *testing.T) {
	ix := New(&fakeEmbedder{}, &fakeStore{}, 50, 10, 100)
	text := strings.Repeat("湯頭濃郁 麵條Q彈 ", 20)

	contents, err := ix.Contents(&models.Restaurant{Title: "一燈", Text: text})
	require.NoError(t, err)

	assert.Greater(t, len(contents), 1)
	for _, c := range contents {
		assert.True(t, strings.HasPrefix(c, "標題：一燈\n\n"))
	}
}

func TestIndex_BatchesEmbeddings(t *testing.T) {
	emb := &fakeEmbedder{}
	store := &fakeStore{}
	ix := New(emb, store, 20, 0, 2)

	r := &models.Restaurant{ID: 7, Title: "A", Text: strings.Repeat("abcd efgh ", 8)}

	n, err := ix.Index(context.Background(), r)
	require.NoError(t, err)

	require.Len(t, store.chunks[7], n)
	assert.Greater(t, len(emb.batches), 1)
	for _, b := range emb.batches {
		assert.LessOrEqual(t, len(b), 2)
	}
	for i, c := range store.chunks[7] {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, uint64(7), c.RestaurantID)
		assert.Len(t, c.Embedding.Slice(), 2)
	}
}

func TestIndexByID(t *testing.T) {
	store := &fakeStore{restaurants: map[uint64]*models.Restaurant{3: {ID: 3, Title: "B"}}}
	ix := New(&fakeEmbedder{}, store, 0, 0, 0)

	n, err := ix.IndexByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = ix.IndexByID(context.Background(), 4)
	assert.Error(t, err)
}

func TestIndex_EmbedError(t *testing.T) {
	store := &fakeStore{}
	ix := New(&fakeEmbedder{err: errors.New("quota")}, store, 0, 0, 0)

	_, err := ix.Index(context.Background(), &models.Restaurant{ID: 1, Title: "C"})
	assert.ErrorContains(t, err, "quota")
	assert.Empty(t, store.chunks)
}
