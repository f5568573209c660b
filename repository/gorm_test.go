package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"storefront/db"
	"storefront/errs"
	"storefront/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestRepos(t *testing.T) (CategoryRepository, ProductRepository) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"), log)
	require.NoError(t, err)
	return NewGormCategoryRepository(database, log), NewGormProductRepository(database, log)
}

func TestGormCategoryLifecycle(t *testing.T) {
	ctx := context.Background()
	categories, _ := newTestRepos(t)

	phones := &models.Category{Name: "Phones", Description: "Mobile phones"}
	require.NoError(t, categories.Create(ctx, phones))
	assert.NotEmpty(t, phones.ID)
	assert.False(t, phones.CreatedAt.IsZero())

	require.NoError(t, categories.Create(ctx, &models.Category{Name: "Audio", Description: "Headphones"}))

	list, err := categories.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Audio", list[0].Name)
	assert.Equal(t, "Phones", list[1].Name)

	dup := &models.Category{Name: "Phones", Description: "again"}
	err = categories.Create(ctx, dup)
	assert.True(t, errors.Is(err, errs.ErrConflict), "got %v", err)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "driver cause kept: %v", err)
	assert.Equal(t, "Category name already exists", errs.Message(err))

	taken, err := categories.NameTaken(ctx, "Phones", "")
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = categories.NameTaken(ctx, "Phones", phones.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	update := &models.Category{ID: phones.ID, Name: "Smartphones", Description: "Pocket computers"}
	require.NoError(t, categories.Update(ctx, update))
	assert.Equal(t, "Smartphones", update.Name)
	assert.Equal(t, phones.CreatedAt.Unix(), update.CreatedAt.Unix())

	err = categories.Update(ctx, &models.Category{ID: "missing", Name: "x", Description: "y"})
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	require.NoError(t, categories.Delete(ctx, phones.ID))
	_, err = categories.Get(ctx, phones.ID)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.True(t, errors.Is(categories.Delete(ctx, phones.ID), errs.ErrNotFound))
}

func TestGormProductPaginationAndExpansion(t *testing.T) {
	ctx := context.Background()
	categories, products := newTestRepos(t)

	phones := &models.Category{Name: "Phones", Description: "Mobile phones"}
	require.NoError(t, categories.Create(ctx, phones))
	audio := &models.Category{Name: "Audio", Description: "Headphones"}
	require.NoError(t, categories.Create(ctx, audio))

	var ids []string
	for i := 0; i < 15; i++ {
		p := &models.Product{
			Name:        fmt.Sprintf("Phone %02d", i),
			Price:       float64(100 + i),
			Description: "desc",
			Img:         "/uploads/x.jpg",
			ImgTitle:    "title",
			Alt:         "alt",
			CategoryID:  phones.ID,
		}
		require.NoError(t, products.Create(ctx, p))
		ids = append(ids, p.ID)
	}
	require.NoError(t, products.Create(ctx, &models.Product{
		Name: "Buds", Description: "d", Img: "/uploads/b.jpg", ImgTitle: "t", Alt: "a", CategoryID: audio.ID,
	}))

	page, total, err := products.List(ctx, models.ProductFilter{CategoryID: phones.ID}, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(15), total)
	require.Len(t, page, 5)
	// newest first: the second page holds the five oldest
	assert.Equal(t, ids[4], page[0].ID)
	assert.Equal(t, ids[0], page[4].ID)
	require.NotNil(t, page[0].Category)
	assert.Equal(t, "Phones", page[0].Category.Name)
	assert.Empty(t, page[0].Category.Description)

	all, total, err := products.List(ctx, models.ProductFilter{}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(16), total)
	assert.Equal(t, "Buds", all[0].Name)

	got, err := products.Get(ctx, ids[3])
	require.NoError(t, err)
	assert.Equal(t, "Phone 03", got.Name)
	assert.Equal(t, "Mobile phones", got.Category.Description)

	count, err := products.CountByCategory(ctx, phones.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(15), count)
}

func TestGormProductUpdateKeepsImageWhenNoneGiven(t *testing.T) {
	ctx := context.Background()
	categories, products := newTestRepos(t)

	cat := &models.Category{Name: "Phones", Description: "Mobile phones"}
	require.NoError(t, categories.Create(ctx, cat))
	p := &models.Product{Name: "A", Price: 1, Description: "d", Img: "/uploads/old.jpg", ImgTitle: "t", Alt: "a", CategoryID: cat.ID}
	require.NoError(t, products.Create(ctx, p))
	time.Sleep(5 * time.Millisecond)

	update := &models.Product{ID: p.ID, Name: "B", Price: 0, Description: "d2", ImgTitle: "t2", Alt: "a2", CategoryID: cat.ID}
	require.NoError(t, products.Update(ctx, update))
	assert.Equal(t, "B", update.Name)
	assert.Equal(t, 0.0, update.Price)
	assert.Equal(t, "/uploads/old.jpg", update.Img)
	assert.True(t, update.UpdatedAt.After(p.UpdatedAt))

	update.Img = "/uploads/new.jpg"
	require.NoError(t, products.Update(ctx, update))
	assert.Equal(t, "/uploads/new.jpg", update.Img)

	missing := &models.Product{ID: "nope", Name: "x", CategoryID: cat.ID}
	assert.True(t, errors.Is(products.Update(ctx, missing), errs.ErrNotFound))

	require.NoError(t, products.Delete(ctx, p.ID))
	assert.True(t, errors.Is(products.Delete(ctx, p.ID), errs.ErrNotFound))
	_, err := products.Get(ctx, p.ID)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}
