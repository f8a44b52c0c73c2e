package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/facility-booking/internal/model"
	"github.com/Leganyst/facility-booking/internal/repository"
)

var (
	ErrExternalRefRequired = errors.New("external_ref is required")
	ErrInvalidRole         = errors.New("invalid role")
)

// RegisterInput — данные субъекта из внешнего сервиса идентификации.
type RegisterInput struct {
	ExternalRef  string
	DisplayName  string
	ContactPhone string
}

// IdentityService хранит локальную копию пользователей внешнего сервиса идентификации.
// Профиль создаётся явно, в той же транзакции, что и пользователь.
type IdentityService struct {
	store repository.Store
	log   *slog.Logger
}

func NewIdentityService(store repository.Store, log *slog.Logger) *IdentityService {
	if log == nil {
		log = slog.Default()
	}
	return &IdentityService{store: store, log: log}
}

// RegisterUser создаёт пользователя по внешнему идентификатору или возвращает существующего,
// обновляя контактные данные.
func (s *IdentityService) RegisterUser(ctx context.Context, in RegisterInput) (*model.User, error) {
	ref := strings.TrimSpace(in.ExternalRef)
	if ref == "" {
		return nil, ErrExternalRefRequired
	}

	var (
		user    *model.User
		created bool
	)
	err := s.store.InTx(ctx, func(repos repository.Repos) error {
		u, isNew, err := repos.Users.UpsertUser(ctx, ref, in.DisplayName, in.ContactPhone)
		if err != nil {
			return storeError("upsert user", err)
		}
		if _, err := repos.Profiles.EnsureByUserID(ctx, u.ID, u.ContactPhone); err != nil {
			return storeError("ensure profile", err)
		}
		user, created = u, isNew
		return nil
	})
	if err != nil {
		return nil, err
	}
	if created {
		s.log.Info("user registered", slog.String("user_id", user.ID.String()), slog.String("external_ref", ref))
	}
	return user, nil
}

// Resolve находит пользователя по внешнему идентификатору, регистрируя его при первом
// обращении, и синхронизирует роль из токена.
func (s *IdentityService) Resolve(ctx context.Context, externalRef string, role model.Role) (*model.User, error) {
	u, err := s.store.Repos().Users.FindByExternalRef(ctx, externalRef)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storeError("find user", err)
		}
		u, err = s.RegisterUser(ctx, RegisterInput{ExternalRef: externalRef})
		if err != nil {
			return nil, err
		}
	}
	if role.Valid() && u.Role != role {
		if err := s.SetRole(ctx, u.ID, role); err != nil {
			return nil, err
		}
		u.Role = role
	}
	return u, nil
}

// SetRole сохраняет последнюю известную роль пользователя.
func (s *IdentityService) SetRole(ctx context.Context, userID uuid.UUID, role model.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if err := s.store.Repos().Users.SetRole(ctx, userID, role); err != nil {
		return storeError("set role", err)
	}
	return nil
}

// Profile возвращает профиль пользователя.
func (s *IdentityService) Profile(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	p, err := s.store.Repos().Profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, storeError("load profile", err)
	}
	return p, nil
}

// Requester возвращает пользователя по ID; неизвестный пользователь — NotFound.
func (s *IdentityService) Requester(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	u, err := s.store.Repos().Users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeError("load user", err)
	}
	return u, nil
}
