package main

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"equiprent/internal/config"
	"equiprent/internal/domain"
	"equiprent/internal/pkg/logger"
	"equiprent/internal/repository"
	"equiprent/internal/store"
)

// seeder fills an empty store with demo data through the repository
// contracts, so it works on every backend.
type seeder struct {
	st  *repository.Store
	log *logger.Logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()
	st, err := store.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("open storage", "error", err)
	}
	defer st.Close()

	s := &seeder{st: st, log: log}
	if err := s.run(ctx); err != nil {
		log.Fatal("seed failed", "error", err)
	}
}

func (s *seeder) run(ctx context.Context) error {
	existing, err := s.st.Users.GetByEmail(ctx, nil, "admin@equiprent.dev")
	if err != nil {
		return err
	}
	if existing != nil {
		s.log.Info("store already seeded, nothing to do")
		return nil
	}

	// ================== USERS ==================
	admin, err := s.user(ctx, "admin@equiprent.dev", "admin123", "Admin", domain.RoleAdmin)
	if err != nil {
		return err
	}
	owner, err := s.user(ctx, "owner@equiprent.dev", "owner123", "Olga", domain.RoleOwner)
	if err != nil {
		return err
	}
	var customers []*domain.User
	for i, name := range []string{"Asel", "Bekzat", "Dina"} {
		c, err := s.user(ctx, fmt.Sprintf("customer%d@equiprent.dev", i+1), "customer123", name, domain.RoleCustomer)
		if err != nil {
			return err
		}
		customers = append(customers, c)
	}
	s.log.Info("users created", "admin", admin.Email, "owner", owner.Email, "customers", len(customers))

	// ================== CATALOG ==================
	office, err := s.st.Offices.Add(ctx, nil, &domain.Office{Name: "Central", Address: "Abay ave 10", City: "Almaty"})
	if err != nil {
		return err
	}

	catalog := []struct {
		category string
		slug     string
		items    []domain.Equipment
	}{
		{"Cameras", "cameras", []domain.Equipment{
			{Name: "Sony A7 IV", PricePerDay: 45},
			{Name: "Canon R6 II", PricePerDay: 50},
		}},
		{"Lighting", "lighting", []domain.Equipment{
			{Name: "Aputure 300d", PricePerDay: 25},
			{Name: "Godox SL60W", PricePerDay: 12.5},
		}},
		{"Audio", "audio", []domain.Equipment{
			{Name: "Rode NTG3", PricePerDay: 9},
		}},
	}

	var units []*domain.EquipmentItem
	var lines []*domain.Equipment
	for _, group := range catalog {
		cat, err := s.st.Categories.Add(ctx, nil, &domain.Category{Name: group.category, Slug: group.slug})
		if err != nil {
			return err
		}
		for _, e := range group.items {
			e.CategoryID = cat.ID
			e.OwnerID = owner.ID
			e.IsModerated = true
			e.CreatedBy = &admin.ID
			line, err := s.st.Equipment.Add(ctx, nil, &e)
			if err != nil {
				return err
			}
			lines = append(lines, line)
			for n := 1; n <= 2; n++ {
				it, err := s.st.EquipmentItems.Add(ctx, nil, &domain.EquipmentItem{
					EquipmentID:  line.ID,
					OfficeID:     &office.ID,
					SerialNumber: fmt.Sprintf("%s-%03d", group.slug, int(line.ID)*10+n),
				})
				if err != nil {
					return err
				}
				units = append(units, it)
			}
		}
	}
	s.log.Info("catalog created", "equipment", len(lines), "items", len(units))

	// ================== REVIEWS ==================
	for i, c := range customers {
		for j, line := range lines {
			rating := int32((i+j)%5 + 1)
			if _, err := s.st.Reviews.Add(ctx, nil, &domain.Review{
				CustomerID:  c.ID,
				EquipmentID: line.ID,
				Rating:      rating,
				Comment:     fmt.Sprintf("%d stars from %s", rating, c.FirstName),
			}); err != nil {
				return err
			}
		}
	}

	// ================== RENTALS ==================
	start := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	rental := &domain.Rental{
		CustomerID: customers[0].ID,
		Status:     domain.RentalConfirmed,
		StartDate:  start,
		EndDate:    start.Add(72 * time.Hour),
	}
	err = repository.WithTx(ctx, s.st.Tx, repository.ReadCommitted, func(tx repository.Tx) error {
		for i, it := range units[:2] {
			it.Status = domain.ItemRented
			if _, err := s.st.EquipmentItems.Update(ctx, tx, it); err != nil {
				return err
			}
			price := lines[i/2].PricePerDay
			rental.Items = append(rental.Items, domain.RentalItem{EquipmentItemID: it.ID, PricePerDay: price})
			rental.TotalPrice += price * float64(rental.Days())
		}
		_, err := s.st.Rentals.Add(ctx, tx, rental)
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info("seed completed", "backend", s.st.Backend)
	return nil
}

func (s *seeder) user(ctx context.Context, email, password, name string, role domain.UserRole) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.st.Users.Add(ctx, nil, &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    name,
		Role:         role,
	})
}
