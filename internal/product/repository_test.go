package product_test

import (
	"context"
	"os"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/apperr"
	"github.com/vasiliy-maslov/storefront/internal/db/dbtest"
	"github.com/vasiliy-maslov/storefront/internal/product"
)

var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	var err error
	testDB, err = dbtest.Connect()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to test database")
	}

	exitCode := m.Run()

	if testDB != nil {
		testDB.Close()
	}
	os.Exit(exitCode)
}

func seedProduct(t *testing.T, repo product.Repository, name string, stock int) *product.Product {
	t.Helper()
	p := &product.Product{
		Name:         name,
		Description:  "test product",
		Price:        dec("100.00"),
		Category:     "gaming",
		Subcategory:  "consoles",
		Brand:        "Nintendo",
		SKU:          product.GenerateSKU("Nintendo", "gaming"),
		Stock:        stock,
		Availability: true,
		Status:       product.StatusActive,
		Tags:         []string{"console"},
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestRepository_CreateAndGet(t *testing.T) {
	dbtest.Require(t, testDB)
	t.Cleanup(func() { dbtest.Truncate(t, testDB) })
	repo := product.NewRepository(testDB)

	created := seedProduct(t, repo, "Switch", 5)
	require.NotEqual(t, uuid.Nil, created.ID)

	found, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Switch", found.Name)
	assert.True(t, found.Price.Equal(dec("100")))
	assert.Nil(t, found.DiscountPrice)
	assert.Equal(t, []string{"console"}, found.Tags)
	assert.Empty(t, found.Images)
	assert.False(t, found.CreatedAt.IsZero())
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	dbtest.Require(t, testDB)
	repo := product.NewRepository(testDB)

	_, err := repo.GetByID(context.Background(), uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRepository_Create_DuplicateSKU(t *testing.T) {
	dbtest.Require(t, testDB)
	t.Cleanup(func() { dbtest.Truncate(t, testDB) })
	repo := product.NewRepository(testDB)

	first := seedProduct(t, repo, "Switch", 5)
	dup := *first
	dup.ID = uuid.Nil
	err := repo.Create(context.Background(), &dup)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRepository_AdjustStock(t *testing.T) {
	dbtest.Require(t, testDB)
	t.Cleanup(func() { dbtest.Truncate(t, testDB) })
	repo := product.NewRepository(testDB)
	ctx := context.Background()

	p := seedProduct(t, repo, "Switch", 3)

	require.NoError(t, repo.AdjustStock(ctx, p.ID, -3))
	err := repo.AdjustStock(ctx, p.ID, -1)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	require.NoError(t, repo.AdjustStock(ctx, p.ID, 2))
	found, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Stock)

	err = repo.AdjustStock(ctx, uuid.Must(uuid.NewV4()), 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRepository_GetForUpdate_SortedAndSkipsMissing(t *testing.T) {
	dbtest.Require(t, testDB)
	t.Cleanup(func() { dbtest.Truncate(t, testDB) })
	repo := product.NewRepository(testDB)

	a := seedProduct(t, repo, "A", 1)
	b := seedProduct(t, repo, "B", 1)

	locked, err := repo.GetForUpdate(context.Background(), []uuid.UUID{b.ID, a.ID, uuid.Must(uuid.NewV4())})
	require.NoError(t, err)
	require.Len(t, locked, 2)
	assert.True(t, locked[0].ID.String() < locked[1].ID.String())
}

func TestRepository_ReviewsRecomputeRating(t *testing.T) {
	dbtest.Require(t, testDB)
	t.Cleanup(func() { dbtest.Truncate(t, testDB) })
	repo := product.NewRepository(testDB)
	ctx := context.Background()

	p := seedProduct(t, repo, "Switch", 1)
	userA := uuid.Must(uuid.NewV4())
	userB := uuid.Must(uuid.NewV4())

	created, err := repo.UpsertReview(ctx, &product.Review{ProductID: p.ID, UserID: userA, Name: "A", Rating: 5, Comment: "great"})
	require.NoError(t, err)
	assert.True(t, created)
	_, err = repo.UpsertReview(ctx, &product.Review{ProductID: p.ID, UserID: userB, Name: "B", Rating: 4, Comment: "good"})
	require.NoError(t, err)

	created, err = repo.UpsertReview(ctx, &product.Review{ProductID: p.ID, UserID: userA, Name: "A", Rating: 2, Comment: "changed my mind"})
	require.NoError(t, err)
	assert.False(t, created)

	require.NoError(t, repo.RefreshRating(ctx, p.ID))

	found, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.NumOfReviews)
	assert.InDelta(t, 3.0, found.Rating, 1e-9)

	reviews, total, err := repo.ListReviews(ctx, p.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, reviews, 2)
}

func TestRepository_ListFilters(t *testing.T) {
	dbtest.Require(t, testDB)
	t.Cleanup(func() { dbtest.Truncate(t, testDB) })
	repo := product.NewRepository(testDB)
	ctx := context.Background()

	seedProduct(t, repo, "Switch OLED", 1)
	hidden := seedProduct(t, repo, "Old Switch", 1)
	hidden.Status = product.StatusDiscontinued
	require.NoError(t, repo.Update(ctx, hidden))

	products, total, err := repo.List(ctx, product.ListFilter{Search: "switch", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, "Switch OLED", products[0].Name)

	brands, err := repo.Brands(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Nintendo"}, brands)
}
