package rental

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"equiprent/internal/database"
	"equiprent/internal/domain"
	"equiprent/internal/pkg/logger"
	"equiprent/internal/repository"
	"equiprent/internal/repository/gormrepo"
	"equiprent/internal/repository/sqlrepo"
)

func stores(t *testing.T) map[string]*repository.Store {
	t.Helper()
	ctx := context.Background()

	gdb, err := database.Connect(":memory:", database.PoolConfig{}, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, gormrepo.Migrate(ctx, gdb))
	g := gormrepo.NewStore(gdb, 0)

	sdb, dialect, err := database.OpenSQL(ctx, ":memory:", database.PoolConfig{})
	require.NoError(t, err)
	require.NoError(t, sqlrepo.Migrate(ctx, sdb, dialect))
	s := sqlrepo.NewStore(sdb, dialect, 0)

	t.Cleanup(func() {
		_ = g.Close()
		_ = s.Close()
	})
	return map[string]*repository.Store{"gorm": g, "sql": s}
}

type fixture struct {
	camera, lens *domain.EquipmentItem
}

func seed(t *testing.T, s *repository.Store) fixture {
	t.Helper()
	ctx := context.Background()
	c, err := s.Categories.Add(ctx, nil, &domain.Category{Name: "Cameras", Slug: "cameras"})
	require.NoError(t, err)
	body, err := s.Equipment.Add(ctx, nil, &domain.Equipment{CategoryID: c.ID, OwnerID: 1, Name: "A7 IV", PricePerDay: 40})
	require.NoError(t, err)
	glass, err := s.Equipment.Add(ctx, nil, &domain.Equipment{CategoryID: c.ID, OwnerID: 1, Name: "24-70", PricePerDay: 15.5})
	require.NoError(t, err)

	camera, err := s.EquipmentItems.Add(ctx, nil, &domain.EquipmentItem{EquipmentID: body.ID, SerialNumber: "CAM-1"})
	require.NoError(t, err)
	lens, err := s.EquipmentItems.Add(ctx, nil, &domain.EquipmentItem{EquipmentID: glass.ID, SerialNumber: "LENS-1"})
	require.NoError(t, err)
	return fixture{camera: camera, lens: lens}
}

func period(days int) (time.Time, time.Time) {
	start := time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)
	return start, start.Add(time.Duration(days) * 24 * time.Hour)
}

func TestService_CreateAndCancel(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := seed(t, store)
			svc := NewService(store, repository.ReadCommitted)
			start, end := period(3)

			r, err := svc.Create(ctx, 7, CreateRentalRequest{ItemIDs: []int64{f.camera.ID, f.lens.ID}, StartDate: start, EndDate: end})
			require.NoError(t, err)
			assert.Equal(t, domain.RentalPending, r.Status)
			require.Len(t, r.Items, 2)
			assert.InDelta(t, (40+15.5)*3, r.TotalPrice, 1e-9)

			it, err := store.EquipmentItems.GetByID(ctx, nil, f.camera.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.ItemRented, it.Status)

			_, err = svc.Create(ctx, 8, CreateRentalRequest{ItemIDs: []int64{f.camera.ID}, StartDate: start, EndDate: end})
			assert.ErrorIs(t, err, ErrItemUnavailable)

			_, err = svc.Cancel(ctx, 8, r.ID)
			assert.ErrorIs(t, err, ErrForbidden)

			cancelled, err := svc.Cancel(ctx, 7, r.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.RentalCancelled, cancelled.Status)
			assert.Len(t, cancelled.Items, 2, "items stay attached to the rental")

			it, err = store.EquipmentItems.GetByID(ctx, nil, f.lens.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.ItemAvailable, it.Status)

			_, err = svc.Cancel(ctx, 7, r.ID)
			assert.ErrorIs(t, err, ErrInvalidStatus)
		})
	}
}

func TestService_CreateRollsBack(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := seed(t, store)
			svc := NewService(store, repository.ReadCommitted)
			start, end := period(1)

			_, err := svc.Create(ctx, 7, CreateRentalRequest{ItemIDs: []int64{f.camera.ID, 999999}, StartDate: start, EndDate: end})
			assert.ErrorIs(t, err, ErrNotFound)

			it, err := store.EquipmentItems.GetByID(ctx, nil, f.camera.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.ItemAvailable, it.Status, "first item update rolled back")

			list, err := svc.ListByCustomer(ctx, 7)
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestService_ConcurrentBookingsOfOneItem(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := seed(t, store)
			svc := NewService(store, repository.ReadCommitted)
			start, end := period(2)

			var won, lost atomic.Int32
			var g errgroup.Group
			for customer := int64(1); customer <= 2; customer++ {
				customer := customer
				g.Go(func() error {
					_, err := svc.Create(ctx, customer, CreateRentalRequest{ItemIDs: []int64{f.camera.ID}, StartDate: start, EndDate: end})
					switch {
					case err == nil:
						won.Add(1)
					case errors.Is(err, ErrItemUnavailable):
						lost.Add(1)
					default:
						return err
					}
					return nil
				})
			}
			require.NoError(t, g.Wait())
			assert.EqualValues(t, 1, won.Load())
			assert.EqualValues(t, 1, lost.Load())

			booked := 0
			for customer := int64(1); customer <= 2; customer++ {
				list, err := svc.ListByCustomer(ctx, customer)
				require.NoError(t, err)
				booked += len(list)
			}
			assert.Equal(t, 1, booked)
		})
	}
}

func TestService_CancelKeepsRetiredItems(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := seed(t, store)
			svc := NewService(store, repository.ReadCommitted)
			start, end := period(1)

			r, err := svc.Create(ctx, 7, CreateRentalRequest{ItemIDs: []int64{f.camera.ID}, StartDate: start, EndDate: end})
			require.NoError(t, err)

			retired, err := store.EquipmentItems.SwapStatus(ctx, nil, f.camera.ID, domain.ItemRented, domain.ItemRetired)
			require.NoError(t, err)
			require.True(t, retired)

			_, err = svc.Cancel(ctx, 7, r.ID)
			require.NoError(t, err)
			it, err := store.EquipmentItems.GetByID(ctx, nil, f.camera.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.ItemRetired, it.Status)
		})
	}
}

func TestService_Validation(t *testing.T) {
	svc := NewService(stores(t)["sql"], repository.ReadCommitted)
	start, end := period(2)
	for name, req := range map[string]CreateRentalRequest{
		"no items":       {StartDate: start, EndDate: end},
		"duplicate item": {ItemIDs: []int64{1, 1}, StartDate: start, EndDate: end},
		"reversed dates": {ItemIDs: []int64{1}, StartDate: end, EndDate: start},
	} {
		_, err := svc.Create(context.Background(), 1, req)
		assert.ErrorIs(t, err, ErrValidation, name)
	}
}

func TestHandler_Create(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := stores(t)["gorm"]
	f := seed(t, store)
	h := NewHandler(NewService(store, repository.ReadCommitted))

	r := gin.New()
	g := r.Group("")
	g.Use(func(c *gin.Context) { c.Set("user_id", int64(3)) })
	h.RegisterRoutes(g)

	body := fmt.Sprintf(`{"item_ids":[%d],"start_date":"2030-01-01T00:00:00Z","end_date":"2030-01-03T00:00:00Z"}`, f.lens.ID)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/rentals", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"total_price":31`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rentals", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"equipment_item_id"`)
}
