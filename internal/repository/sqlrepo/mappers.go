package sqlrepo

import (
	"database/sql"

	"equiprent/internal/domain"
)

type categoryMapper struct{}

func (categoryMapper) Table() string { return "categories" }
func (categoryMapper) Columns() []string {
	return []string{"id", "name", "slug", "description", "created_at", "updated_at"}
}
func (categoryMapper) Scan(row scanner) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt, c.UpdatedAt = c.CreatedAt.UTC(), c.UpdatedAt.UTC()
	return &c, nil
}
func (categoryMapper) InsertRow(c *domain.Category) ([]string, []interface{}) {
	return []string{"name", "slug", "description", "created_at", "updated_at"},
		[]interface{}{c.Name, c.Slug, c.Description, utc(c.CreatedAt), utc(c.UpdatedAt)}
}
func (categoryMapper) UpdateRow(c *domain.Category) ([]string, []interface{}) {
	return []string{"name", "slug", "description", "updated_at"},
		[]interface{}{c.Name, c.Slug, c.Description, utc(c.UpdatedAt)}
}
func (categoryMapper) ID(c *domain.Category) int32        { return c.ID }
func (categoryMapper) SetID(c *domain.Category, id int32) { c.ID = id }

type officeMapper struct{}

func (officeMapper) Table() string { return "offices" }
func (officeMapper) Columns() []string {
	return []string{"id", "name", "address", "city", "created_at", "updated_at"}
}
func (officeMapper) Scan(row scanner) (*domain.Office, error) {
	var o domain.Office
	if err := row.Scan(&o.ID, &o.Name, &o.Address, &o.City, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.CreatedAt, o.UpdatedAt = o.CreatedAt.UTC(), o.UpdatedAt.UTC()
	return &o, nil
}
func (officeMapper) InsertRow(o *domain.Office) ([]string, []interface{}) {
	return []string{"name", "address", "city", "created_at", "updated_at"},
		[]interface{}{o.Name, o.Address, o.City, utc(o.CreatedAt), utc(o.UpdatedAt)}
}
func (officeMapper) UpdateRow(o *domain.Office) ([]string, []interface{}) {
	return []string{"name", "address", "city", "updated_at"},
		[]interface{}{o.Name, o.Address, o.City, utc(o.UpdatedAt)}
}
func (officeMapper) ID(o *domain.Office) int32        { return o.ID }
func (officeMapper) SetID(o *domain.Office, id int32) { o.ID = id }

type userMapper struct{}

func (userMapper) Table() string { return "users" }
func (userMapper) Columns() []string {
	return []string{"id", "email", "password_hash", "first_name", "last_name", "role", "created_at", "updated_at"}
}
func (userMapper) Scan(row scanner) (*domain.User, error) {
	var u domain.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.UserRole(role)
	u.CreatedAt, u.UpdatedAt = u.CreatedAt.UTC(), u.UpdatedAt.UTC()
	return &u, nil
}
func (userMapper) InsertRow(u *domain.User) ([]string, []interface{}) {
	return []string{"email", "password_hash", "first_name", "last_name", "role", "created_at", "updated_at"},
		[]interface{}{u.Email, u.PasswordHash, u.FirstName, u.LastName, string(u.Role), utc(u.CreatedAt), utc(u.UpdatedAt)}
}
func (userMapper) UpdateRow(u *domain.User) ([]string, []interface{}) {
	return []string{"email", "password_hash", "first_name", "last_name", "role", "updated_at"},
		[]interface{}{u.Email, u.PasswordHash, u.FirstName, u.LastName, string(u.Role), utc(u.UpdatedAt)}
}
func (userMapper) ID(u *domain.User) int64        { return u.ID }
func (userMapper) SetID(u *domain.User, id int64) { u.ID = id }

// equipmentMapper never writes the rating columns.
type equipmentMapper struct{}

func (equipmentMapper) Table() string { return "equipment" }
func (equipmentMapper) Columns() []string {
	return []string{"id", "category_id", "owner_id", "name", "description", "price_per_day",
		"average_rating", "total_reviews", "rating_sum", "is_moderated",
		"created_at", "updated_at", "created_by", "updated_by"}
}
func (equipmentMapper) Scan(row scanner) (*domain.Equipment, error) {
	var (
		e                    domain.Equipment
		createdBy, updatedBy sql.NullInt64
	)
	err := row.Scan(&e.ID, &e.CategoryID, &e.OwnerID, &e.Name, &e.Description, &e.PricePerDay,
		&e.AverageRating, &e.TotalReviews, &e.RatingSum, &e.IsModerated,
		&e.CreatedAt, &e.UpdatedAt, &createdBy, &updatedBy)
	if err != nil {
		return nil, err
	}
	e.CreatedBy, e.UpdatedBy = int64Ptr(createdBy), int64Ptr(updatedBy)
	e.CreatedAt, e.UpdatedAt = e.CreatedAt.UTC(), e.UpdatedAt.UTC()
	return &e, nil
}
func (equipmentMapper) InsertRow(e *domain.Equipment) ([]string, []interface{}) {
	return []string{"category_id", "owner_id", "name", "description", "price_per_day", "is_moderated",
			"created_at", "updated_at", "created_by", "updated_by"},
		[]interface{}{e.CategoryID, e.OwnerID, e.Name, e.Description, e.PricePerDay, e.IsModerated,
			utc(e.CreatedAt), utc(e.UpdatedAt), nullInt64(e.CreatedBy), nullInt64(e.UpdatedBy)}
}
func (equipmentMapper) UpdateRow(e *domain.Equipment) ([]string, []interface{}) {
	return []string{"category_id", "owner_id", "name", "description", "price_per_day", "is_moderated",
			"updated_at", "updated_by"},
		[]interface{}{e.CategoryID, e.OwnerID, e.Name, e.Description, e.PricePerDay, e.IsModerated,
			utc(e.UpdatedAt), nullInt64(e.UpdatedBy)}
}
func (equipmentMapper) ID(e *domain.Equipment) int64        { return e.ID }
func (equipmentMapper) SetID(e *domain.Equipment, id int64) { e.ID = id }

type equipmentItemMapper struct{}

func (equipmentItemMapper) Table() string { return "equipment_items" }
func (equipmentItemMapper) Columns() []string {
	return []string{"id", "equipment_id", "office_id", "serial_number", "status", "created_at", "updated_at"}
}
func (equipmentItemMapper) Scan(row scanner) (*domain.EquipmentItem, error) {
	var (
		it     domain.EquipmentItem
		office sql.NullInt32
		status string
	)
	if err := row.Scan(&it.ID, &it.EquipmentID, &office, &it.SerialNumber, &status, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	it.OfficeID = int32Ptr(office)
	it.Status = domain.ItemStatus(status)
	it.CreatedAt, it.UpdatedAt = it.CreatedAt.UTC(), it.UpdatedAt.UTC()
	return &it, nil
}
func (equipmentItemMapper) InsertRow(it *domain.EquipmentItem) ([]string, []interface{}) {
	return []string{"equipment_id", "office_id", "serial_number", "status", "created_at", "updated_at"},
		[]interface{}{it.EquipmentID, nullInt32(it.OfficeID), it.SerialNumber, string(it.Status), utc(it.CreatedAt), utc(it.UpdatedAt)}
}
func (equipmentItemMapper) UpdateRow(it *domain.EquipmentItem) ([]string, []interface{}) {
	return []string{"equipment_id", "office_id", "serial_number", "status", "updated_at"},
		[]interface{}{it.EquipmentID, nullInt32(it.OfficeID), it.SerialNumber, string(it.Status), utc(it.UpdatedAt)}
}
func (equipmentItemMapper) ID(it *domain.EquipmentItem) int64        { return it.ID }
func (equipmentItemMapper) SetID(it *domain.EquipmentItem, id int64) { it.ID = id }

type rentalMapper struct{}

func (rentalMapper) Table() string { return "rentals" }
func (rentalMapper) Columns() []string {
	return []string{"id", "customer_id", "status", "start_date", "end_date", "total_price", "created_at", "updated_at"}
}
func (rentalMapper) Scan(row scanner) (*domain.Rental, error) {
	var (
		r      domain.Rental
		status string
	)
	if err := row.Scan(&r.ID, &r.CustomerID, &status, &r.StartDate, &r.EndDate, &r.TotalPrice, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Status = domain.RentalStatus(status)
	r.StartDate, r.EndDate = r.StartDate.UTC(), r.EndDate.UTC()
	r.CreatedAt, r.UpdatedAt = r.CreatedAt.UTC(), r.UpdatedAt.UTC()
	return &r, nil
}
func (rentalMapper) InsertRow(r *domain.Rental) ([]string, []interface{}) {
	return []string{"customer_id", "status", "start_date", "end_date", "total_price", "created_at", "updated_at"},
		[]interface{}{r.CustomerID, string(r.Status), utc(r.StartDate), utc(r.EndDate), r.TotalPrice, utc(r.CreatedAt), utc(r.UpdatedAt)}
}
func (rentalMapper) UpdateRow(r *domain.Rental) ([]string, []interface{}) {
	return []string{"customer_id", "status", "start_date", "end_date", "total_price", "updated_at"},
		[]interface{}{r.CustomerID, string(r.Status), utc(r.StartDate), utc(r.EndDate), r.TotalPrice, utc(r.UpdatedAt)}
}
func (rentalMapper) ID(r *domain.Rental) int64        { return r.ID }
func (rentalMapper) SetID(r *domain.Rental, id int64) { r.ID = id }

type refreshTokenMapper struct{}

func (refreshTokenMapper) Table() string { return "refresh_tokens" }
func (refreshTokenMapper) Columns() []string {
	return []string{"id", "user_id", "token", "expires_at", "revoked_at", "created_at", "updated_at"}
}
func (refreshTokenMapper) Scan(row scanner) (*domain.RefreshToken, error) {
	var (
		t       domain.RefreshToken
		revoked sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &revoked, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.RevokedAt = timePtr(revoked)
	t.ExpiresAt = t.ExpiresAt.UTC()
	t.CreatedAt, t.UpdatedAt = t.CreatedAt.UTC(), t.UpdatedAt.UTC()
	return &t, nil
}
func (refreshTokenMapper) InsertRow(t *domain.RefreshToken) ([]string, []interface{}) {
	return []string{"user_id", "token", "expires_at", "revoked_at", "created_at", "updated_at"},
		[]interface{}{t.UserID, t.Token, utc(t.ExpiresAt), nullTime(t.RevokedAt), utc(t.CreatedAt), utc(t.UpdatedAt)}
}
func (refreshTokenMapper) UpdateRow(t *domain.RefreshToken) ([]string, []interface{}) {
	return []string{"user_id", "token", "expires_at", "revoked_at", "updated_at"},
		[]interface{}{t.UserID, t.Token, utc(t.ExpiresAt), nullTime(t.RevokedAt), utc(t.UpdatedAt)}
}
func (refreshTokenMapper) ID(t *domain.RefreshToken) int64        { return t.ID }
func (refreshTokenMapper) SetID(t *domain.RefreshToken, id int64) { t.ID = id }
