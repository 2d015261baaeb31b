package upload

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/diegovalduran/productloader/internal/database"
	"github.com/diegovalduran/productloader/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func product(number, name, stock string) models.ProductRecord {
	return models.ProductRecord{
		ProductNumber:     number,
		ProductName:       name,
		SKUNumber:         "SKU-" + number,
		Size:              "M",
		Color:             "Black",
		Price:             "9.99",
		Sales:             "1",
		Stock:             stock,
		InventoryRotation: "0.5",
		Date:              "2024-05-01",
		Sheet:             "May",
	}
}

func TestUploadWritesOneDocumentPerProduct(t *testing.T) {
	store := database.NewMemory()
	var out bytes.Buffer

	result, err := NewService(store, WithOutput(&out)).Upload(context.Background(), []models.ProductRecord{
		product("P1", "Widget", "10"),
		product("P2", "Gadget", "5"),
	})
	require.NoError(t, err)
	assert.Equal(t, Result{Written: 2, Distinct: 2}, result)
	assert.Equal(t, 2, store.Len(DefaultCollection))

	p1, ok := store.Document(DefaultCollection, "P1")
	require.True(t, ok)
	assert.Equal(t, "Widget", p1[models.FieldName])
	assert.Equal(t, int64(10), p1[models.FieldStock])
	assert.Equal(t, "SKU-P1", p1[models.FieldSKU])
	assert.Equal(t, "May", p1[models.FieldSheet])

	p2, ok := store.Document(DefaultCollection, "P2")
	require.True(t, ok)
	assert.Equal(t, "Gadget", p2[models.FieldName])
	assert.Equal(t, int64(5), p2[models.FieldStock])

	assert.Equal(t, "Uploading P1...\nUploading P2...\n", out.String())
}

func TestUploadLastWriteWins(t *testing.T) {
	store := database.NewMemory()
	first := product("P1", "Widget", "10")
	second := product("P1", "Widget", "3")
	second.Color = "White"

	result, err := NewService(store).Upload(context.Background(), []models.ProductRecord{first, second})
	require.NoError(t, err)
	assert.Equal(t, Result{Written: 2, Distinct: 1}, result)

	doc, ok := store.Document(DefaultCollection, "P1")
	require.True(t, ok)
	assert.Equal(t, int64(3), doc[models.FieldStock])
	assert.Equal(t, "White", doc[models.FieldColor])
	assert.Equal(t, 1, store.Len(DefaultCollection))
}

func TestUploadDocumentKeysMatchDistinctProductNumbers(t *testing.T) {
	store := database.NewMemory()
	numbers := []string{"100", "101", "100", "102", "101", "103"}
	records := make([]models.ProductRecord, len(numbers))
	for i, n := range numbers {
		records[i] = product(n, fmt.Sprintf("item-%d", i), fmt.Sprint(i))
	}

	result, err := NewService(store).Upload(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Distinct)

	docs, err := store.ListDocuments(context.Background(), DefaultCollection)
	require.NoError(t, err)
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	assert.Equal(t, []string{"100", "101", "102", "103"}, ids)

	// each document carries the last row with its key
	assert.Equal(t, "item-2", docs[0].Fields[models.FieldName])
	assert.Equal(t, "item-4", docs[1].Fields[models.FieldName])
	assert.Equal(t, "item-3", docs[2].Fields[models.FieldName])
	assert.Equal(t, "item-5", docs[3].Fields[models.FieldName])
}

func TestUploadAbortsOnFirstWriteFailure(t *testing.T) {
	store := database.NewMemory(database.FailOnWrite(7))
	records := make([]models.ProductRecord, 10)
	for i := range records {
		records[i] = product(fmt.Sprintf("P%d", i+1), "item", "1")
	}

	result, err := NewService(store).Upload(context.Background(), records)
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Contains(t, err.Error(), "record 7 (product number P7)")
	assert.Equal(t, 6, result.Written)

	for i := 1; i <= 6; i++ {
		_, ok := store.Document(DefaultCollection, fmt.Sprintf("P%d", i))
		assert.True(t, ok, "P%d should be written", i)
	}
	for i := 7; i <= 10; i++ {
		_, ok := store.Document(DefaultCollection, fmt.Sprintf("P%d", i))
		assert.False(t, ok, "P%d should not be written", i)
	}
	assert.Equal(t, 7, store.Writes())
}

func TestUploadRejectsEmptyProductNumber(t *testing.T) {
	store := database.NewMemory()

	_, err := NewService(store).Upload(context.Background(), []models.ProductRecord{
		product("P1", "Widget", "1"),
		product("", "Nameless", "1"),
		product("P3", "Gizmo", "1"),
	})
	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.Equal(t, 1, store.Len(DefaultCollection))
	assert.Equal(t, 1, store.Writes())
}

func TestUploadStopsOnCancelledContext(t *testing.T) {
	store := database.NewMemory()
	ctx, cancel := context.WithCancel(context.Background())

	svc := NewService(store, WithProgress(func(done, total int, id string) {
		if done == 1 {
			cancel()
		}
	}))

	_, err := svc.Upload(ctx, []models.ProductRecord{product("P1", "a", "1"), product("P2", "b", "1")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, store.Len(DefaultCollection))
}

func TestUploadCustomCollectionAndProgress(t *testing.T) {
	store := database.NewMemory()
	var calls []string

	svc := NewService(store,
		WithCollection("catalog"),
		WithProgress(func(done, total int, id string) {
			calls = append(calls, fmt.Sprintf("%d/%d %s", done, total, id))
		}))

	_, err := svc.Upload(context.Background(), []models.ProductRecord{product("A", "a", "1"), product("B", "b", "2")})
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len("catalog"))
	assert.Equal(t, 0, store.Len(DefaultCollection))
	assert.Equal(t, []string{"1/2 A", "2/2 B"}, calls)
}
