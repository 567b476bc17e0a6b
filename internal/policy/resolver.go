package policy

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kaino/kaino-api/gate"
	"github.com/kaino/kaino-api/internal/models"
)

// DBGrantResolver fetches a user's role and granted permission codes from
// the database. It implements gate.GrantResolver.
type DBGrantResolver struct {
	DB *gorm.DB
}

func NewDBGrantResolver(db *gorm.DB) *DBGrantResolver {
	return &DBGrantResolver{DB: db}
}

// Resolve loads the user with their permissions preloaded.
func (r *DBGrantResolver) Resolve(ctx context.Context, userID uint) (gate.Role, gate.GrantSet, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Preload("Permissions").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return gate.RoleUnknown, nil, gate.ErrUnknownSubject
	}
	if err != nil {
		return gate.RoleUnknown, nil, err
	}
	return user.Role, user.GrantedCodes(), nil
}
