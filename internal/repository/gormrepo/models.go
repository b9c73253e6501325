package gormrepo

import (
	"time"

	"equiprent/internal/domain"
)

type categoryModel struct {
	ID          int32     `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string    `gorm:"column:name;not null"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex:idx_categories_slug"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (categoryModel) TableName() string { return "categories" }

func toCategoryModel(c *domain.Category) categoryModel {
	return categoryModel{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toDomainCategory(m categoryModel) domain.Category {
	return domain.Category{
		ID:          m.ID,
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type officeModel struct {
	ID        int32     `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;not null"`
	Address   string    `gorm:"column:address"`
	City      string    `gorm:"column:city"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (officeModel) TableName() string { return "offices" }

func toOfficeModel(o *domain.Office) officeModel {
	return officeModel{
		ID:        o.ID,
		Name:      o.Name,
		Address:   o.Address,
		City:      o.City,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func toDomainOffice(m officeModel) domain.Office {
	return domain.Office{
		ID:        m.ID,
		Name:      m.Name,
		Address:   m.Address,
		City:      m.City,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type userModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Email        string    `gorm:"column:email;not null;uniqueIndex:idx_users_email"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	FirstName    string    `gorm:"column:first_name"`
	LastName     string    `gorm:"column:last_name"`
	Role         string    `gorm:"column:role;not null"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

func toUserModel(u *domain.User) userModel {
	return userModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func toDomainUser(m userModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Role:         domain.UserRole(m.Role),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type equipmentModel struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	CategoryID    int32     `gorm:"column:category_id;not null;index"`
	OwnerID       int64     `gorm:"column:owner_id;not null;index"`
	Name          string    `gorm:"column:name;not null"`
	Description   string    `gorm:"column:description"`
	PricePerDay   float64   `gorm:"column:price_per_day;not null"`
	AverageRating float64   `gorm:"column:average_rating;not null;default:0"`
	TotalReviews  int32     `gorm:"column:total_reviews;not null;default:0"`
	RatingSum     int64     `gorm:"column:rating_sum;not null;default:0"`
	IsModerated   bool      `gorm:"column:is_moderated;not null;default:false"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
	CreatedBy     *int64    `gorm:"column:created_by"`
	UpdatedBy     *int64    `gorm:"column:updated_by"`

	// Migration only: reviews go with their line, items block its removal.
	Reviews []reviewModel        `gorm:"foreignKey:EquipmentID;constraint:OnDelete:CASCADE"`
	Items   []equipmentItemModel `gorm:"foreignKey:EquipmentID;constraint:OnDelete:RESTRICT"`
}

func (equipmentModel) TableName() string { return "equipment" }

// Aggregates are owned by the triggers and always start at zero.
func toEquipmentModel(e *domain.Equipment) equipmentModel {
	return equipmentModel{
		ID:          e.ID,
		CategoryID:  e.CategoryID,
		OwnerID:     e.OwnerID,
		Name:        e.Name,
		Description: e.Description,
		PricePerDay: e.PricePerDay,
		IsModerated: e.IsModerated,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		CreatedBy:   e.CreatedBy,
		UpdatedBy:   e.UpdatedBy,
	}
}

func toDomainEquipment(m equipmentModel) domain.Equipment {
	return domain.Equipment{
		ID:            m.ID,
		CategoryID:    m.CategoryID,
		OwnerID:       m.OwnerID,
		Name:          m.Name,
		Description:   m.Description,
		PricePerDay:   m.PricePerDay,
		AverageRating: m.AverageRating,
		TotalReviews:  m.TotalReviews,
		RatingSum:     m.RatingSum,
		IsModerated:   m.IsModerated,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
		CreatedBy:     m.CreatedBy,
		UpdatedBy:     m.UpdatedBy,
	}
}

type equipmentItemModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	EquipmentID  int64     `gorm:"column:equipment_id;not null;uniqueIndex:idx_equipment_items_serial_equipment,priority:2"`
	OfficeID     *int32    `gorm:"column:office_id"`
	SerialNumber string    `gorm:"column:serial_number;not null;uniqueIndex:idx_equipment_items_serial_equipment,priority:1"`
	Status       string    `gorm:"column:status;not null"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (equipmentItemModel) TableName() string { return "equipment_items" }

func toEquipmentItemModel(i *domain.EquipmentItem) equipmentItemModel {
	return equipmentItemModel{
		ID:           i.ID,
		EquipmentID:  i.EquipmentID,
		OfficeID:     i.OfficeID,
		SerialNumber: i.SerialNumber,
		Status:       string(i.Status),
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}

func toDomainEquipmentItem(m equipmentItemModel) domain.EquipmentItem {
	return domain.EquipmentItem{
		ID:           m.ID,
		EquipmentID:  m.EquipmentID,
		OfficeID:     m.OfficeID,
		SerialNumber: m.SerialNumber,
		Status:       domain.ItemStatus(m.Status),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type rentalModel struct {
	ID         int64             `gorm:"column:id;primaryKey;autoIncrement"`
	CustomerID int64             `gorm:"column:customer_id;not null;index"`
	Status     string            `gorm:"column:status;not null"`
	StartDate  time.Time         `gorm:"column:start_date;not null"`
	EndDate    time.Time         `gorm:"column:end_date;not null"`
	TotalPrice float64           `gorm:"column:total_price;not null"`
	Items      []rentalItemModel `gorm:"foreignKey:RentalID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time         `gorm:"column:created_at"`
	UpdatedAt  time.Time         `gorm:"column:updated_at"`
}

func (rentalModel) TableName() string { return "rentals" }

type rentalItemModel struct {
	ID              int64   `gorm:"column:id;primaryKey;autoIncrement"`
	RentalID        int64   `gorm:"column:rental_id;not null;index"`
	EquipmentItemID int64   `gorm:"column:equipment_item_id;not null"`
	PricePerDay     float64 `gorm:"column:price_per_day;not null"`
}

func (rentalItemModel) TableName() string { return "rental_items" }

func toRentalModel(r *domain.Rental) rentalModel {
	m := rentalModel{
		ID:         r.ID,
		CustomerID: r.CustomerID,
		Status:     string(r.Status),
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		TotalPrice: r.TotalPrice,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	for _, it := range r.Items {
		m.Items = append(m.Items, rentalItemModel{
			EquipmentItemID: it.EquipmentItemID,
			PricePerDay:     it.PricePerDay,
		})
	}
	return m
}

func toDomainRental(m rentalModel) domain.Rental {
	r := domain.Rental{
		ID:         m.ID,
		CustomerID: m.CustomerID,
		Status:     domain.RentalStatus(m.Status),
		StartDate:  m.StartDate.UTC(),
		EndDate:    m.EndDate.UTC(),
		TotalPrice: m.TotalPrice,
		Items:      make([]domain.RentalItem, 0, len(m.Items)),
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
	for _, it := range m.Items {
		r.Items = append(r.Items, domain.RentalItem{
			ID:              it.ID,
			RentalID:        it.RentalID,
			EquipmentItemID: it.EquipmentItemID,
			PricePerDay:     it.PricePerDay,
		})
	}
	return r
}

type reviewModel struct {
	CustomerID  int64     `gorm:"column:customer_id;primaryKey;autoIncrement:false"`
	EquipmentID int64     `gorm:"column:equipment_id;primaryKey;autoIncrement:false;index"`
	Rating      int32     `gorm:"column:rating;not null"`
	Comment     string    `gorm:"column:comment"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (reviewModel) TableName() string { return "reviews" }

func toReviewModel(r *domain.Review) reviewModel {
	return reviewModel{
		CustomerID:  r.CustomerID,
		EquipmentID: r.EquipmentID,
		Rating:      r.Rating,
		Comment:     r.Comment,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func toDomainReview(m reviewModel) domain.Review {
	return domain.Review{
		CustomerID:  m.CustomerID,
		EquipmentID: m.EquipmentID,
		Rating:      m.Rating,
		Comment:     m.Comment,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type refreshTokenModel struct {
	ID        int64      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64      `gorm:"column:user_id;not null;index"`
	Token     string     `gorm:"column:token;not null;uniqueIndex:idx_refresh_tokens_token"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null;index"`
	RevokedAt *time.Time `gorm:"column:revoked_at"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (refreshTokenModel) TableName() string { return "refresh_tokens" }

func toRefreshTokenModel(t *domain.RefreshToken) refreshTokenModel {
	return refreshTokenModel{
		ID:        t.ID,
		UserID:    t.UserID,
		Token:     t.Token,
		ExpiresAt: t.ExpiresAt.UTC(),
		RevokedAt: t.RevokedAt,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func toDomainRefreshToken(m refreshTokenModel) domain.RefreshToken {
	t := domain.RefreshToken{
		ID:        m.ID,
		UserID:    m.UserID,
		Token:     m.Token,
		ExpiresAt: m.ExpiresAt.UTC(),
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
	if m.RevokedAt != nil {
		v := m.RevokedAt.UTC()
		t.RevokedAt = &v
	}
	return t
}
