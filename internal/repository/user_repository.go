package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/facility-booking/internal/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByExternalRef(ctx context.Context, externalRef string) (*model.User, error)
	UpsertUser(ctx context.Context, externalRef, displayName, contactPhone string) (*model.User, bool, error)
	SetRole(ctx context.Context, userID uuid.UUID, role model.Role) error
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) FindByExternalRef(ctx context.Context, externalRef string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("external_ref = ?", externalRef).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	// Оставляем только цифры.
	b := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		c := phone[i]
		if c >= '0' && c <= '9' {
			b = append(b, c)
		}
	}
	return string(b)
}

// UpsertUser создаёт пользователя или обновляет контакты существующего.
// Второе значение — true, если запись была создана.
func (r *GormUserRepository) UpsertUser(
	ctx context.Context,
	externalRef, displayName, contactPhone string,
) (*model.User, bool, error) {
	contactPhone = normalizePhone(contactPhone)

	var u model.User
	tx := r.db.WithContext(ctx).Where("external_ref = ?", externalRef).First(&u)
	if tx.Error != nil {
		if !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, false, tx.Error
		}
		return r.insertOrLoad(ctx, &model.User{
			ExternalRef:  externalRef,
			DisplayName:  displayName,
			ContactPhone: contactPhone,
		})
	}

	updates := map[string]any{}
	if displayName != "" {
		updates["display_name"] = displayName
	}
	if contactPhone != "" {
		updates["contact_phone"] = contactPhone
	}
	if len(updates) == 0 {
		return &u, false, nil
	}
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", u.ID).Updates(updates).Error; err != nil {
		return nil, false, err
	}
	if displayName != "" {
		u.DisplayName = displayName
	}
	if contactPhone != "" {
		u.ContactPhone = contactPhone
	}
	return &u, false, nil
}

// insertOrLoad вставляет пользователя; если параллельный запрос уже создал запись
// с тем же external_ref, возвращается она. Ошибку уникальности наружу не отдаём,
// чтобы не обрывать транзакцию в postgres.
func (r *GormUserRepository) insertOrLoad(ctx context.Context, u *model.User) (*model.User, bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "external_ref"}}, DoNothing: true}).
		Create(u)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return u, true, nil
	}

	existing, err := r.FindByExternalRef(ctx, u.ExternalRef)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *GormUserRepository) SetRole(ctx context.Context, userID uuid.UUID, role model.Role) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
