package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go_hostcfg/internal/auth"
	"go_hostcfg/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrDuplicateIdentifier is returned when two entries claim the same identifier
var ErrDuplicateIdentifier = errors.New("duplicate user identifier")

// Entry is a submitted user identity to reconcile into the store
type Entry struct {
	Identifier string
	Username   string
	Password   string
}

// Store handles stored user identities
type Store struct {
	db     *gorm.DB
	logger *logrus.Entry
}

// NewStore creates a user store
func NewStore(db *gorm.DB, logger *logrus.Entry) *Store {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Store{db: db, logger: logger.WithField("component", "user-store")}
}

// FindByIdentifier returns the user with identifier, or nil if there is none
func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	if identifier == "" {
		return nil, nil
	}

	var user model.User
	if err := s.db.WithContext(ctx).Where("identifier = ?", identifier).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user %s: %w", identifier, err)
	}
	return &user, nil
}

// FindByUsername returns the user with username, or nil if there is none
func (s *Store) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user %s: %w", username, err)
	}
	return &user, nil
}

// ListAll returns every stored user ordered by creation
func (s *Store) ListAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// EnsureUser makes sure username can log in with password whenever no stored
// user has a password, which covers both an empty store and one whose
// passwords were all cleared. It returns true when a user was created or reset.
func (s *Store) EnsureUser(ctx context.Context, username, password string) (bool, error) {
	changed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var withPassword int64
		if err := tx.Model(&model.User{}).Where("password_hash <> ?", "").Count(&withPassword).Error; err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		if withPassword > 0 {
			return nil
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		var existing model.User
		err = tx.Where("username = ?", username).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Model(&model.User{}).Where("id = ?", existing.ID).Update("password_hash", hash).Error; err != nil {
				return fmt.Errorf("failed to reset password for %s: %w", username, err)
			}
			s.logger.WithField("username", username).Warn("No user could log in, bootstrap password restored")
		case errors.Is(err, gorm.ErrRecordNotFound):
			user := &model.User{
				Identifier:   uuid.New().String(),
				Username:     username,
				PasswordHash: hash,
			}
			if err := tx.Create(user).Error; err != nil {
				return fmt.Errorf("failed to create user %s: %w", username, err)
			}
			s.logger.WithField("username", username).Info("Bootstrap user created")
		default:
			return fmt.Errorf("failed to find user %s: %w", username, err)
		}
		changed = true
		return nil
	})
	return changed, err
}

// Reconcile makes the stored identities match entries in one transaction.
// Stored users missing from entries are deleted first, then matching
// identifiers are updated and unknown ones created. A password equal to the
// stored hash is kept as is. Entries sharing a non-empty identifier are
// rejected with ErrDuplicateIdentifier before anything is written.
func (s *Store) Reconcile(ctx context.Context, entries []Entry) error {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.Identifier == "" {
			continue
		}
		if _, dup := seen[e.Identifier]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateIdentifier, e.Identifier)
		}
		seen[e.Identifier] = struct{}{}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []model.User
		if err := tx.Find(&existing).Error; err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}
		byID := make(map[string]model.User, len(existing))
		for _, u := range existing {
			byID[u.Identifier] = u
		}

		submitted := make(map[string]struct{}, len(entries))
		for _, e := range entries {
			if e.Identifier != "" {
				submitted[e.Identifier] = struct{}{}
			}
		}
		var removed []string
		for id := range byID {
			if _, ok := submitted[id]; !ok {
				removed = append(removed, id)
			}
		}
		if len(removed) > 0 {
			if err := tx.Where("identifier IN ?", removed).Delete(&model.User{}).Error; err != nil {
				return fmt.Errorf("failed to delete users: %w", err)
			}
			s.logger.WithField("count", len(removed)).Info("Removed users absent from submission")
		}

		for _, e := range entries {
			if stored, ok := byID[e.Identifier]; ok && e.Identifier != "" {
				if err := s.update(tx, stored, e); err != nil {
					return err
				}
				continue
			}
			if _, err := s.create(tx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) update(tx *gorm.DB, stored model.User, e Entry) error {
	updates := map[string]interface{}{}
	if username := strings.TrimSpace(e.Username); username != stored.Username {
		updates["username"] = username
	}
	if e.Password != stored.PasswordHash {
		hash, err := auth.HashPassword(e.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", stored.Identifier, err)
		}
		updates["password_hash"] = hash
	}
	if len(updates) == 0 {
		return nil
	}
	if err := tx.Model(&model.User{}).Where("id = ?", stored.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update user %s: %w", stored.Identifier, err)
	}
	s.logger.WithField("identifier", stored.Identifier).Info("User updated")
	return nil
}

func (s *Store) create(tx *gorm.DB, e Entry) (*model.User, error) {
	identifier := e.Identifier
	if identifier == "" {
		identifier = uuid.New().String()
	}
	hash, err := auth.HashPassword(e.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password for %s: %w", e.Username, err)
	}
	user := &model.User{
		Identifier:   identifier,
		Username:     strings.TrimSpace(e.Username),
		PasswordHash: hash,
	}
	if err := tx.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", e.Username, err)
	}
	s.logger.WithField("identifier", identifier).Info("User created")
	return user, nil
}
