package review

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equiprent/internal/database"
	"equiprent/internal/domain"
	"equiprent/internal/repository"
	"equiprent/internal/repository/sqlrepo"
)

func newStore(t *testing.T) *repository.Store {
	t.Helper()
	ctx := context.Background()
	db, dialect, err := database.OpenSQL(ctx, ":memory:", database.PoolConfig{})
	require.NoError(t, err)
	require.NoError(t, sqlrepo.Migrate(ctx, db, dialect))
	s := sqlrepo.NewStore(db, dialect, 0)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedEquipment(t *testing.T, s *repository.Store) *domain.Equipment {
	t.Helper()
	ctx := context.Background()
	c, err := s.Categories.Add(ctx, nil, &domain.Category{Name: "Lenses", Slug: "lenses"})
	require.NoError(t, err)
	e, err := s.Equipment.Add(ctx, nil, &domain.Equipment{CategoryID: c.ID, OwnerID: 1, Name: "50mm f/1.8", PricePerDay: 12})
	require.NoError(t, err)
	return e
}

func TestService_SubmitEditRemove(t *testing.T) {
	s := newStore(t)
	svc := NewService(s.Reviews, s.Equipment)
	eq := seedEquipment(t, s)
	ctx := context.Background()

	_, got, err := svc.Submit(ctx, 1, eq.ID, 5, "sharp")
	require.NoError(t, err)
	assert.Equal(t, int32(1), got.TotalReviews)
	assert.InDelta(t, 5.0, got.AverageRating, 1e-9)

	_, got, err = svc.Submit(ctx, 2, eq.ID, 2, "")
	require.NoError(t, err)
	assert.InDelta(t, 3.5, got.AverageRating, 1e-9)

	_, _, err = svc.Submit(ctx, 2, eq.ID, 4, "again")
	assert.ErrorIs(t, err, ErrConflict)

	_, got, err = svc.Edit(ctx, 2, eq.ID, 4, "better")
	require.NoError(t, err)
	assert.Equal(t, int32(2), got.TotalReviews)
	assert.InDelta(t, 4.5, got.AverageRating, 1e-9)

	require.NoError(t, svc.Remove(ctx, 1, eq.ID))
	assert.ErrorIs(t, svc.Remove(ctx, 1, eq.ID), ErrNotFound)

	list, err := svc.ListByEquipment(ctx, eq.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int32(4), list[0].Rating)
}

func TestService_Validation(t *testing.T) {
	s := newStore(t)
	svc := NewService(s.Reviews, s.Equipment)
	eq := seedEquipment(t, s)
	ctx := context.Background()

	for _, rating := range []int32{0, 6, -1} {
		_, _, err := svc.Submit(ctx, 1, eq.ID, rating, "")
		assert.ErrorIs(t, err, ErrInvalidRequest, "rating %d", rating)
	}
	_, _, err := svc.Submit(ctx, 1, eq.ID+1000, 3, "")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = svc.Edit(ctx, 1, eq.ID, 3, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandler_Submit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := newStore(t)
	eq := seedEquipment(t, s)
	h := NewHandler(NewService(s.Reviews, s.Equipment))

	r := gin.New()
	api := r.Group("")
	auth := r.Group("")
	auth.Use(func(c *gin.Context) { c.Set("user_id", int64(9)) })
	h.RegisterRoutes(api, auth)

	path := fmt.Sprintf("/equipment/%d/reviews", eq.ID)
	send := func(method, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	w := send(http.MethodPost, `{"rating": 4, "comment": "ok"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"total_reviews":1`)

	assert.Equal(t, http.StatusConflict, send(http.MethodPost, `{"rating": 4}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, send(http.MethodPost, `{"rating": 9}`).Code)
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "").Code)
	assert.Equal(t, http.StatusNoContent, send(http.MethodDelete, "").Code)
	assert.Equal(t, http.StatusNotFound, send(http.MethodDelete, "").Code)
}
