package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"userhub/internal/models"
	"userhub/internal/roles"
)

var (
	ErrDuplicateEmail = errors.New("email already registered")
	ErrNotFound       = errors.New("user not found")
	ErrTokenMismatch  = errors.New("stored refresh token mismatch")
	ErrBadFilter      = errors.New("invalid list filter")
)

type UserRepo struct {
	DB *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{DB: db}
}

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	tx := r.DB.WithContext(ctx).Where("email = ?", u.Email).FirstOrCreate(u)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrDuplicateEmail
	}
	return nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) FindByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("refresh_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) Save(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Save(u).Error
}

func (r *UserRepo) DeleteByID(ctx context.Context, id string) error {
	tx := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRefreshToken unconditionally replaces the stored refresh token. Used at
// login, where starting a new session deliberately ends any prior one.
func (r *UserRepo) SetRefreshToken(ctx context.Context, id, token string) error {
	tx := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("refresh_token", token)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RotateRefreshToken swaps old for new only if old is still the stored
// token. The conditional UPDATE makes compare-and-rotate atomic per record:
// a concurrent login or refresh that got there first leaves zero rows
// affected here, and the caller rejects the stale token.
func (r *UserRepo) RotateRefreshToken(ctx context.Context, id, oldToken, newToken string) error {
	tx := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND refresh_token = ?", id, oldToken).
		Update("refresh_token", newToken)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrTokenMismatch
	}
	return nil
}

// ClearRefreshToken ends the session holding the given token. A token no
// record holds (already cleared, rotated away, or forged) is a mismatch.
func (r *UserRepo) ClearRefreshToken(ctx context.Context, token string) error {
	tx := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("refresh_token = ?", token).
		Update("refresh_token", nil)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrTokenMismatch
	}
	return nil
}

type ListFilter struct {
	Role      string
	Email     string
	FirstName string
	LastName  string
	SortBy    string
	Order     string
	Page      int
	Size      int
}

var sortable = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"email":      "email",
	"first_name": "first_name",
	"last_name":  "last_name",
}

func (r *UserRepo) List(ctx context.Context, f ListFilter) ([]models.User, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.User{})

	if f.Role != "" {
		if !roles.IsValid(strings.ToUpper(f.Role)) {
			return nil, 0, fmt.Errorf("%w: unknown role %s", ErrBadFilter, f.Role)
		}
		// Roles serialize to a JSON array of quoted names.
		q = q.Where("roles LIKE ?", "%\""+strings.ToUpper(f.Role)+"\"%")
	}
	if f.Email != "" {
		q = q.Where("email LIKE ?", "%"+f.Email+"%")
	}
	if f.FirstName != "" {
		q = q.Where("first_name LIKE ?", "%"+f.FirstName+"%")
	}
	if f.LastName != "" {
		q = q.Where("last_name LIKE ?", "%"+f.LastName+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortable[f.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(f.Order, "asc") {
		direction = "ASC"
	}

	from, size := pageBounds(f.Page, f.Size)

	var users []models.User
	err := q.Order(column + " " + direction).
		Offset(from).
		Limit(size).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func pageBounds(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 10
	}
	return (page - 1) * size, size
}
