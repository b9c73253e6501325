// Package repotest holds the behaviour every storage backend must share.
// Backends call Run from their own tests with a factory for a migrated store.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

// Factory returns a ready store. It may hand out the same store to every
// subtest; fixtures use unique values so data never collides.
type Factory func(t *testing.T) *repository.Store

func Run(t *testing.T, open Factory) {
	t.Run("missing keys", func(t *testing.T) { testMissingKeys(t, open(t)) })
	t.Run("add populates keys", func(t *testing.T) { testAddPopulates(t, open(t)) })
	t.Run("update", func(t *testing.T) { testUpdate(t, open(t)) })
	t.Run("unique conflicts", func(t *testing.T) { testConflicts(t, open(t)) })
	t.Run("review aggregates", func(t *testing.T) { testReviewAggregates(t, open(t)) })
	t.Run("equipment delete", func(t *testing.T) { testEquipmentDelete(t, open(t)) })
	t.Run("item status swap", func(t *testing.T) { testSwapStatus(t, open(t)) })
	t.Run("concurrent reviews", func(t *testing.T) { testConcurrentReviews(t, open(t)) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, open(t)) })
	t.Run("finished and foreign handles", func(t *testing.T) { testHandleMisuse(t, open(t)) })
	t.Run("rentals", func(t *testing.T) { testRentals(t, open(t)) })
	t.Run("refresh tokens", func(t *testing.T) { testRefreshTokens(t, open(t)) })
	t.Run("concurrent rotation", func(t *testing.T) { testConcurrentRotation(t, open(t)) })
}

func unique(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func mustCategory(t *testing.T, s *repository.Store, tx repository.Tx) *domain.Category {
	t.Helper()
	c, err := s.Categories.Add(context.Background(), tx, &domain.Category{Name: "Cameras", Slug: unique("cameras")})
	require.NoError(t, err)
	return c
}

func mustUser(t *testing.T, s *repository.Store) *domain.User {
	t.Helper()
	u, err := s.Users.Add(context.Background(), nil, &domain.User{
		Email:        unique("user") + "@example.com",
		PasswordHash: "hash",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Role:         domain.RoleCustomer,
	})
	require.NoError(t, err)
	return u
}

func mustEquipment(t *testing.T, s *repository.Store, tx repository.Tx, price float64) *domain.Equipment {
	t.Helper()
	c := mustCategory(t, s, tx)
	e, err := s.Equipment.Add(context.Background(), tx, &domain.Equipment{
		CategoryID:  c.ID,
		OwnerID:     1,
		Name:        "Sony A7 IV",
		PricePerDay: price,
	})
	require.NoError(t, err)
	return e
}

func mustItem(t *testing.T, s *repository.Store, equipmentID int64) *domain.EquipmentItem {
	t.Helper()
	it, err := s.EquipmentItems.Add(context.Background(), nil, &domain.EquipmentItem{
		EquipmentID:  equipmentID,
		SerialNumber: unique("sn"),
		Status:       domain.ItemAvailable,
	})
	require.NoError(t, err)
	return it
}

const missingID = 1<<31 - 7

func testMissingKeys(t *testing.T, s *repository.Store) {
	ctx := context.Background()

	c, err := s.Categories.GetByID(ctx, nil, missingID)
	require.NoError(t, err)
	assert.Nil(t, c)
	o, err := s.Offices.GetByID(ctx, nil, missingID)
	require.NoError(t, err)
	assert.Nil(t, o)
	u, err := s.Users.GetByID(ctx, nil, missingID)
	require.NoError(t, err)
	assert.Nil(t, u)
	u, err = s.Users.GetByEmail(ctx, nil, unique("nobody")+"@example.com")
	require.NoError(t, err)
	assert.Nil(t, u)
	e, err := s.Equipment.GetByID(ctx, nil, missingID)
	require.NoError(t, err)
	assert.Nil(t, e)
	it, err := s.EquipmentItems.GetByID(ctx, nil, missingID)
	require.NoError(t, err)
	assert.Nil(t, it)
	r, err := s.Rentals.GetByID(ctx, nil, missingID)
	require.NoError(t, err)
	assert.Nil(t, r)
	rv, err := s.Reviews.GetByID(ctx, nil, domain.ReviewKey{CustomerID: missingID, EquipmentID: missingID})
	require.NoError(t, err)
	assert.Nil(t, rv)
	tok, err := s.RefreshTokens.GetByToken(ctx, nil, unique("tok"))
	require.NoError(t, err)
	assert.Nil(t, tok)

	deleted, err := s.Categories.Delete(ctx, nil, missingID)
	require.NoError(t, err)
	assert.False(t, deleted)
	deleted, err = s.Offices.Delete(ctx, nil, missingID)
	require.NoError(t, err)
	assert.False(t, deleted)
	deleted, err = s.Users.Delete(ctx, nil, missingID)
	require.NoError(t, err)
	assert.False(t, deleted)
	deleted, err = s.EquipmentItems.Delete(ctx, nil, missingID)
	require.NoError(t, err)
	assert.False(t, deleted)
	deleted, err = s.Equipment.Delete(ctx, nil, missingID)
	require.NoError(t, err)
	assert.False(t, deleted)
	deleted, err = s.Rentals.Delete(ctx, nil, missingID)
	require.NoError(t, err)
	assert.False(t, deleted)
	deleted, err = s.Reviews.Delete(ctx, nil, domain.ReviewKey{CustomerID: missingID, EquipmentID: missingID})
	require.NoError(t, err)
	assert.False(t, deleted)
	deleted, err = s.RefreshTokens.Delete(ctx, nil, missingID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = s.Categories.Update(ctx, nil, &domain.Category{ID: missingID, Name: "x", Slug: unique("x")})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.Offices.Update(ctx, nil, &domain.Office{ID: missingID, Name: "x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.Users.Update(ctx, nil, &domain.User{ID: missingID, Email: unique("x") + "@example.com", Role: domain.RoleCustomer})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.Equipment.Update(ctx, nil, &domain.Equipment{ID: missingID, Name: "x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.EquipmentItems.Update(ctx, nil, &domain.EquipmentItem{ID: missingID, EquipmentID: missingID, SerialNumber: unique("sn"), Status: domain.ItemAvailable})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	swapped, err := s.EquipmentItems.SwapStatus(ctx, nil, missingID, domain.ItemAvailable, domain.ItemRented)
	require.NoError(t, err)
	assert.False(t, swapped)
	_, err = s.Rentals.Update(ctx, nil, &domain.Rental{ID: missingID, Status: domain.RentalActive})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.Reviews.Update(ctx, nil, &domain.Review{CustomerID: missingID, EquipmentID: missingID, Rating: 3})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testAddPopulates(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	before := time.Now().Add(-time.Minute)

	c := mustCategory(t, s, nil)
	assert.NotZero(t, c.ID)
	assert.True(t, c.CreatedAt.After(before))
	assert.False(t, c.UpdatedAt.Before(c.CreatedAt))

	o, err := s.Offices.Add(ctx, nil, &domain.Office{Name: "Downtown", City: "Almaty"})
	require.NoError(t, err)
	assert.NotZero(t, o.ID)

	e, err := s.Equipment.Add(ctx, nil, &domain.Equipment{
		CategoryID:    c.ID,
		OwnerID:       7,
		Name:          "DJI Ronin",
		PricePerDay:   25,
		TotalReviews:  9,
		RatingSum:     40,
		AverageRating: 4.4,
	})
	require.NoError(t, err)
	assert.NotZero(t, e.ID)
	assert.Zero(t, e.TotalReviews)
	assert.Zero(t, e.RatingSum)
	assert.Zero(t, e.AverageRating)

	it, err := s.EquipmentItems.Add(ctx, nil, &domain.EquipmentItem{
		EquipmentID:  e.ID,
		OfficeID:     &o.ID,
		SerialNumber: unique("sn"),
		Status:       domain.ItemAvailable,
	})
	require.NoError(t, err)
	assert.NotZero(t, it.ID)

	got, err := s.EquipmentItems.GetByID(ctx, nil, it.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.OfficeID)
	assert.Equal(t, o.ID, *got.OfficeID)
	assert.Equal(t, it.SerialNumber, got.SerialNumber)

	items, err := s.EquipmentItems.ListByEquipment(ctx, nil, e.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, it.ID, items[0].ID)

	all, err := s.Categories.GetAll(ctx, nil)
	require.NoError(t, err)
	assert.True(t, containsFunc(all, func(x domain.Category) bool { return x.ID == c.ID }))

	u := mustUser(t, s)
	byEmail, err := s.Users.GetByEmail(ctx, nil, u.Email)
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, domain.RoleCustomer, byEmail.Role)
}

func testUpdate(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	e := mustEquipment(t, s, nil, 10)

	e.Name = "Sony A7 V"
	e.PricePerDay = 12.5
	e.IsModerated = true
	e.TotalReviews = 99
	updated, err := s.Equipment.Update(ctx, nil, e)
	require.NoError(t, err)
	assert.Equal(t, "Sony A7 V", updated.Name)
	assert.Equal(t, 12.5, updated.PricePerDay)
	assert.True(t, updated.IsModerated)
	assert.Zero(t, updated.TotalReviews)

	got, err := s.Equipment.GetByID(ctx, nil, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Sony A7 V", got.Name)
	assert.Zero(t, got.TotalReviews)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	deleted, err := s.Equipment.Delete(ctx, nil, e.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	_, err = s.Equipment.Update(ctx, nil, e)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testConflicts(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	e := mustEquipment(t, s, nil, 10)
	other := mustEquipment(t, s, nil, 10)
	serial := unique("sn")

	_, err := s.EquipmentItems.Add(ctx, nil, &domain.EquipmentItem{EquipmentID: e.ID, SerialNumber: serial, Status: domain.ItemAvailable})
	require.NoError(t, err)
	_, err = s.EquipmentItems.Add(ctx, nil, &domain.EquipmentItem{EquipmentID: e.ID, SerialNumber: serial, Status: domain.ItemAvailable})
	assert.ErrorIs(t, err, repository.ErrConflict)
	_, err = s.EquipmentItems.Add(ctx, nil, &domain.EquipmentItem{EquipmentID: other.ID, SerialNumber: serial, Status: domain.ItemAvailable})
	assert.NoError(t, err, "same serial on another equipment line is allowed")

	c := mustCategory(t, s, nil)
	_, err = s.Categories.Add(ctx, nil, &domain.Category{Name: "dup", Slug: c.Slug})
	assert.ErrorIs(t, err, repository.ErrConflict)

	u := mustUser(t, s)
	_, err = s.Users.Add(ctx, nil, &domain.User{Email: u.Email, PasswordHash: "x", Role: domain.RoleCustomer})
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = s.Reviews.Add(ctx, nil, &domain.Review{CustomerID: u.ID, EquipmentID: e.ID, Rating: 4})
	require.NoError(t, err)
	_, err = s.Reviews.Add(ctx, nil, &domain.Review{CustomerID: u.ID, EquipmentID: e.ID, Rating: 2})
	assert.ErrorIs(t, err, repository.ErrConflict)

	got, err := s.Equipment.GetByID(ctx, nil, e.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), got.TotalReviews, "a rejected duplicate must not touch the aggregate")
}

func assertAggregate(t *testing.T, s *repository.Store, equipmentID int64, count int32, sum int64) {
	t.Helper()
	e, err := s.Equipment.GetByID(context.Background(), nil, equipmentID)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, count, e.TotalReviews, "total reviews")
	assert.Equal(t, sum, e.RatingSum, "rating sum")
	assert.InDelta(t, domain.Average(sum, count), e.AverageRating, 1e-9, "average rating")
}

func testReviewAggregates(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	e := mustEquipment(t, s, nil, 10)

	_, err := s.Reviews.Add(ctx, nil, &domain.Review{CustomerID: 1, EquipmentID: missingID, Rating: 5})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	r1, err := s.Reviews.Add(ctx, nil, &domain.Review{CustomerID: 1, EquipmentID: e.ID, Rating: 5, Comment: "great"})
	require.NoError(t, err)
	assert.False(t, r1.CreatedAt.IsZero())
	_, err = s.Reviews.Add(ctx, nil, &domain.Review{CustomerID: 2, EquipmentID: e.ID, Rating: 3})
	require.NoError(t, err)
	assertAggregate(t, s, e.ID, 2, 8)

	got, err := s.Reviews.GetByID(ctx, nil, domain.ReviewKey{CustomerID: 1, EquipmentID: e.ID})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int32(5), got.Rating)
	assert.Equal(t, "great", got.Comment)

	updated, err := s.Reviews.Update(ctx, nil, &domain.Review{CustomerID: 2, EquipmentID: e.ID, Rating: 1, Comment: "broke"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), updated.Rating)
	assert.Equal(t, "broke", updated.Comment)
	assertAggregate(t, s, e.ID, 2, 6)

	list, err := s.Reviews.ListByEquipment(ctx, nil, e.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	deleted, err := s.Reviews.Delete(ctx, nil, domain.ReviewKey{CustomerID: 1, EquipmentID: e.ID})
	require.NoError(t, err)
	assert.True(t, deleted)
	assertAggregate(t, s, e.ID, 1, 1)

	deleted, err = s.Reviews.Delete(ctx, nil, domain.ReviewKey{CustomerID: 1, EquipmentID: e.ID})
	require.NoError(t, err)
	assert.False(t, deleted)
	assertAggregate(t, s, e.ID, 1, 1)

	deleted, err = s.Reviews.Delete(ctx, nil, domain.ReviewKey{CustomerID: 2, EquipmentID: e.ID})
	require.NoError(t, err)
	assert.True(t, deleted)
	assertAggregate(t, s, e.ID, 0, 0)
}

func testEquipmentDelete(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	e := mustEquipment(t, s, nil, 10)
	_, err := s.Reviews.Add(ctx, nil, &domain.Review{CustomerID: 1, EquipmentID: e.ID, Rating: 5})
	require.NoError(t, err)
	_, err = s.Reviews.Add(ctx, nil, &domain.Review{CustomerID: 2, EquipmentID: e.ID, Rating: 2})
	require.NoError(t, err)
	assertAggregate(t, s, e.ID, 2, 7)

	deleted, err := s.Equipment.Delete(ctx, nil, e.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	// reviews go with their line
	rv, err := s.Reviews.GetByID(ctx, nil, domain.ReviewKey{CustomerID: 1, EquipmentID: e.ID})
	require.NoError(t, err)
	assert.Nil(t, rv)
	list, err := s.Reviews.ListByEquipment(ctx, nil, e.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	all, err := s.Reviews.GetAll(ctx, nil)
	require.NoError(t, err)
	assert.False(t, containsFunc(all, func(r domain.Review) bool { return r.EquipmentID == e.ID }))
	_, err = s.Reviews.Add(ctx, nil, &domain.Review{CustomerID: 3, EquipmentID: e.ID, Rating: 4})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// a new line never inherits the deleted one's key or reviews
	next := mustEquipment(t, s, nil, 10)
	assert.Greater(t, next.ID, e.ID)
	list, err = s.Reviews.ListByEquipment(ctx, nil, next.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assertAggregate(t, s, next.ID, 0, 0)

	// items keep their line alive
	it := mustItem(t, s, next.ID)
	_, err = s.Equipment.Delete(ctx, nil, next.ID)
	assert.ErrorIs(t, err, repository.ErrConflict)
	still, err := s.Equipment.GetByID(ctx, nil, next.ID)
	require.NoError(t, err)
	assert.NotNil(t, still)

	deleted, err = s.EquipmentItems.Delete(ctx, nil, it.ID)
	require.NoError(t, err)
	require.True(t, deleted)
	deleted, err = s.Equipment.Delete(ctx, nil, next.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = s.EquipmentItems.Add(ctx, nil, &domain.EquipmentItem{EquipmentID: next.ID, SerialNumber: unique("sn"), Status: domain.ItemAvailable})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testSwapStatus(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	e := mustEquipment(t, s, nil, 10)
	it := mustItem(t, s, e.ID)

	swapped, err := s.EquipmentItems.SwapStatus(ctx, nil, it.ID, domain.ItemAvailable, domain.ItemRented)
	require.NoError(t, err)
	assert.True(t, swapped)
	swapped, err = s.EquipmentItems.SwapStatus(ctx, nil, it.ID, domain.ItemAvailable, domain.ItemRented)
	require.NoError(t, err)
	assert.False(t, swapped, "already rented")

	got, err := s.EquipmentItems.GetByID(ctx, nil, it.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.ItemRented, got.Status)
	assert.False(t, got.UpdatedAt.Before(it.UpdatedAt))

	other := mustItem(t, s, e.ID)
	const racers = 8
	var wins atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < racers; i++ {
		g.Go(func() error {
			ok, err := s.EquipmentItems.SwapStatus(gctx, nil, other.ID, domain.ItemAvailable, domain.ItemMaintenance)
			if ok {
				wins.Add(1)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.EqualValues(t, 1, wins.Load())
}

func testConcurrentReviews(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	e := mustEquipment(t, s, nil, 10)

	const reviewers = 20
	var want int64
	g, gctx := errgroup.WithContext(ctx)
	for i := 1; i <= reviewers; i++ {
		rating := int32(i%5 + 1)
		want += int64(rating)
		customer := int64(i)
		g.Go(func() error {
			_, err := s.Reviews.Add(gctx, nil, &domain.Review{CustomerID: customer, EquipmentID: e.ID, Rating: rating})
			return err
		})
	}
	require.NoError(t, g.Wait())
	assertAggregate(t, s, e.ID, reviewers, want)

	// Concurrent edits of distinct reviews on the same line.
	g, gctx = errgroup.WithContext(ctx)
	for i := 1; i <= reviewers; i++ {
		customer := int64(i)
		g.Go(func() error {
			_, err := s.Reviews.Update(gctx, nil, &domain.Review{CustomerID: customer, EquipmentID: e.ID, Rating: 5})
			return err
		})
	}
	require.NoError(t, g.Wait())
	assertAggregate(t, s, e.ID, reviewers, 5*reviewers)

	list, err := s.Reviews.ListByEquipment(ctx, nil, e.ID)
	require.NoError(t, err)
	assert.Len(t, list, reviewers)
}

func testTransactions(t *testing.T, s *repository.Store) {
	ctx := context.Background()

	t.Run("rollback", func(t *testing.T) {
		tx, err := s.Tx.Begin(ctx, repository.ReadCommitted)
		require.NoError(t, err)
		assert.Equal(t, s.Backend, tx.Backend())

		e := mustEquipment(t, s, tx, 10)
		it, err := s.EquipmentItems.Add(ctx, tx, &domain.EquipmentItem{EquipmentID: e.ID, SerialNumber: unique("sn"), Status: domain.ItemAvailable})
		require.NoError(t, err)

		inside, err := s.Equipment.GetByID(ctx, tx, e.ID)
		require.NoError(t, err)
		require.NotNil(t, inside, "writes are visible through the same handle")

		require.NoError(t, tx.Rollback(ctx))
		require.NoError(t, tx.Close(ctx))

		gotEq, err := s.Equipment.GetByID(ctx, nil, e.ID)
		require.NoError(t, err)
		gotIt, err := s.EquipmentItems.GetByID(ctx, nil, it.ID)
		require.NoError(t, err)
		if tx.Atomic() {
			assert.Nil(t, gotEq)
			assert.Nil(t, gotIt)
		} else {
			assert.NotNil(t, gotEq, "non-atomic handles leave partial writes behind")
			assert.NotNil(t, gotIt)
		}
	})

	t.Run("close without commit rolls back", func(t *testing.T) {
		tx, err := s.Tx.Begin(ctx, "")
		require.NoError(t, err)
		c := mustCategory(t, s, tx)
		require.NoError(t, tx.Close(ctx))
		require.NoError(t, tx.Close(ctx), "close is idempotent")

		got, err := s.Categories.GetByID(ctx, nil, c.ID)
		require.NoError(t, err)
		assert.Equal(t, !tx.Atomic(), got != nil)
	})

	t.Run("with tx commits", func(t *testing.T) {
		var eqID, itemID int64
		err := repository.WithTx(ctx, s.Tx, repository.Serializable, func(tx repository.Tx) error {
			e := mustEquipment(t, s, tx, 15)
			eqID = e.ID
			it, err := s.EquipmentItems.Add(ctx, tx, &domain.EquipmentItem{EquipmentID: e.ID, SerialNumber: unique("sn"), Status: domain.ItemAvailable})
			if err != nil {
				return err
			}
			itemID = it.ID
			return nil
		})
		require.NoError(t, err)

		gotEq, err := s.Equipment.GetByID(ctx, nil, eqID)
		require.NoError(t, err)
		assert.NotNil(t, gotEq)
		gotIt, err := s.EquipmentItems.GetByID(ctx, nil, itemID)
		require.NoError(t, err)
		assert.NotNil(t, gotIt)
	})

	t.Run("with tx rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		var catID int32
		var atomicTx bool
		err := repository.WithTx(ctx, s.Tx, repository.RepeatableRead, func(tx repository.Tx) error {
			atomicTx = tx.Atomic()
			catID = mustCategory(t, s, tx).ID
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := s.Categories.GetByID(ctx, nil, catID)
		require.NoError(t, err)
		assert.Equal(t, !atomicTx, got != nil)
	})

	t.Run("with tx rolls back on panic", func(t *testing.T) {
		var catID int32
		var atomicTx bool
		assert.PanicsWithValue(t, "kaboom", func() {
			_ = repository.WithTx(ctx, s.Tx, "", func(tx repository.Tx) error {
				atomicTx = tx.Atomic()
				catID = mustCategory(t, s, tx).ID
				panic("kaboom")
			})
		})

		got, err := s.Categories.GetByID(ctx, nil, catID)
		require.NoError(t, err)
		assert.Equal(t, !atomicTx, got != nil)
	})
}

type foreignTx struct{}

func (foreignTx) Backend() repository.Backend    { return "foreign" }
func (foreignTx) Atomic() bool                   { return true }
func (foreignTx) Commit(context.Context) error   { return nil }
func (foreignTx) Rollback(context.Context) error { return nil }
func (foreignTx) Close(context.Context) error    { return nil }

func testHandleMisuse(t *testing.T, s *repository.Store) {
	ctx := context.Background()

	_, err := s.Categories.GetAll(ctx, foreignTx{})
	assert.ErrorIs(t, err, repository.ErrForeignTx)
	_, err = s.Reviews.Add(ctx, foreignTx{}, &domain.Review{CustomerID: 1, EquipmentID: 1, Rating: 1})
	assert.ErrorIs(t, err, repository.ErrForeignTx)

	tx, err := s.Tx.Begin(ctx, repository.ReadCommitted)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	assert.ErrorIs(t, tx.Commit(ctx), repository.ErrTxDone)
	assert.ErrorIs(t, tx.Rollback(ctx), repository.ErrTxDone)
	assert.NoError(t, tx.Close(ctx))

	_, err = s.Categories.GetAll(ctx, tx)
	assert.ErrorIs(t, err, repository.ErrTxDone)
}

func testRentals(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	e := mustEquipment(t, s, nil, 30)
	it1 := mustItem(t, s, e.ID)
	it2 := mustItem(t, s, e.ID)
	customer := mustUser(t, s)

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r, err := s.Rentals.Add(ctx, nil, &domain.Rental{
		CustomerID: customer.ID,
		Status:     domain.RentalPending,
		StartDate:  start,
		EndDate:    start.Add(72 * time.Hour),
		TotalPrice: 180,
		Items: []domain.RentalItem{
			{EquipmentItemID: it1.ID, PricePerDay: 30},
			{EquipmentItemID: it2.ID, PricePerDay: 30},
		},
	})
	require.NoError(t, err)
	require.NotZero(t, r.ID)
	require.Len(t, r.Items, 2)
	for _, item := range r.Items {
		assert.NotZero(t, item.ID)
		assert.Equal(t, r.ID, item.RentalID)
	}
	assert.NotEqual(t, r.Items[0].ID, r.Items[1].ID)

	// Later price changes do not touch booked items.
	e.PricePerDay = 99
	_, err = s.Equipment.Update(ctx, nil, e)
	require.NoError(t, err)

	got, err := s.Rentals.GetByID(ctx, nil, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.StartDate.Equal(start))
	require.Len(t, got.Items, 2)
	assert.Equal(t, 30.0, got.Items[0].PricePerDay)
	assert.ElementsMatch(t, []int64{it1.ID, it2.ID}, []int64{got.Items[0].EquipmentItemID, got.Items[1].EquipmentItemID})

	got.Status = domain.RentalConfirmed
	got.Items = nil
	updated, err := s.Rentals.Update(ctx, nil, got)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalConfirmed, updated.Status)
	assert.Len(t, updated.Items, 2, "items are kept by update")

	mine, err := s.Rentals.ListByCustomer(ctx, nil, customer.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Len(t, mine[0].Items, 2)

	deleted, err := s.Rentals.Delete(ctx, nil, r.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	gone, err := s.Rentals.GetByID(ctx, nil, r.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func testRefreshTokens(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	u := mustUser(t, s)
	now := time.Now().UTC()

	first := unique("hash")
	tok, err := s.RefreshTokens.Add(ctx, nil, &domain.RefreshToken{UserID: u.ID, Token: first, ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)
	assert.NotZero(t, tok.ID)
	assert.Nil(t, tok.RevokedAt)

	got, err := s.RefreshTokens.GetByToken(ctx, nil, first)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, tok.ID, got.ID)
	assert.True(t, got.IsActive(now))

	_, err = s.RefreshTokens.Add(ctx, nil, &domain.RefreshToken{UserID: u.ID, Token: first, ExpiresAt: now.Add(time.Hour)})
	assert.ErrorIs(t, err, repository.ErrConflict)

	second := unique("hash")
	ok, err := s.RefreshTokens.Rotate(ctx, nil, tok.ID, first, second, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.RefreshTokens.Rotate(ctx, nil, tok.ID, first, unique("hash"), now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "the old value no longer matches")

	old, err := s.RefreshTokens.GetByToken(ctx, nil, first)
	require.NoError(t, err)
	assert.Nil(t, old)
	cur, err := s.RefreshTokens.GetByToken(ctx, nil, second)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.WithinDuration(t, now.Add(2*time.Hour), cur.ExpiresAt, time.Second)

	revoked, err := s.RefreshTokens.Revoke(ctx, nil, tok.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, err = s.RefreshTokens.Revoke(ctx, nil, tok.ID)
	require.NoError(t, err)
	assert.False(t, revoked)
	ok, err = s.RefreshTokens.Rotate(ctx, nil, tok.ID, second, unique("hash"), now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "revoked tokens cannot rotate")

	for i := 0; i < 3; i++ {
		_, err := s.RefreshTokens.Add(ctx, nil, &domain.RefreshToken{UserID: u.ID, Token: unique("hash"), ExpiresAt: now.Add(time.Hour)})
		require.NoError(t, err)
	}
	n, err := s.RefreshTokens.RevokeAllForUser(ctx, nil, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	n, err = s.RefreshTokens.RevokeAllForUser(ctx, nil, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	other := mustUser(t, s)
	expired, err := s.RefreshTokens.Add(ctx, nil, &domain.RefreshToken{UserID: other.ID, Token: unique("hash"), ExpiresAt: now.Add(-time.Hour)})
	require.NoError(t, err)
	live, err := s.RefreshTokens.Add(ctx, nil, &domain.RefreshToken{UserID: other.ID, Token: unique("hash"), ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)

	n, err = s.RefreshTokens.DeleteExpired(ctx, nil, now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
	gone, err := s.RefreshTokens.GetByID(ctx, nil, expired.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	kept, err := s.RefreshTokens.GetByID(ctx, nil, live.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func testConcurrentRotation(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	u := mustUser(t, s)
	base := unique("hash")
	tok, err := s.RefreshTokens.Add(ctx, nil, &domain.RefreshToken{UserID: u.ID, Token: base, ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	const racers = 8
	var wins atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < racers; i++ {
		next := fmt.Sprintf("%s-next-%d", base, i)
		g.Go(func() error {
			ok, err := s.RefreshTokens.Rotate(gctx, nil, tok.ID, base, next, time.Now().Add(time.Hour))
			if ok {
				wins.Add(1)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), wins.Load(), "exactly one refresh may win")
}

func containsFunc[E any](s []E, f func(E) bool) bool {
	for _, v := range s {
		if f(v) {
			return true
		}
	}
	return false
}
