package daemon

import (
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Onboard360/Onboard360/internal/config"
	"github.com/Onboard360/Onboard360/internal/db/models"
)

// ErrSeedPasswordEmpty is returned when the user table is empty and no admin password is configured.
var ErrSeedPasswordEmpty = errors.New("no users exist and no admin password is configured, set " + config.AdminPasswordEnv)

// seed creates the admin permission and role, and the first admin user on an empty database.
// Running it again changes nothing.
func seed(cfg *config.Config, db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		perm := models.Permission{Name: models.AdminPermissionName, Description: "Full access to the console"}
		if err := tx.Where(models.Permission{Name: perm.Name}).FirstOrCreate(&perm).Error; err != nil {
			return err
		}

		role := models.Role{ID: models.SuperAdminRoleID, Name: "Super Admin", Description: "All permissions"}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&role).Error; err != nil {
			return err
		}

		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.RolePermission{RoleID: models.SuperAdminRoleID, PermissionID: perm.ID}).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.User{}).Count(&count).Error; err != nil {
			return err
		}

		if count > 0 {
			return nil
		}

		if cfg.Seed.AdminPassword == "" {
			return ErrSeedPasswordEmpty
		}

		hashed, err := models.HashPassword(cfg.Seed.AdminPassword)
		if err != nil {
			return err
		}

		if err = tx.Create(&models.User{
			Username: cfg.Seed.AdminUsername,
			Email:    cfg.Seed.AdminEmail,
			Password: hashed,
			Active:   true,
			RoleID:   models.SuperAdminRoleID,
		}).Error; err != nil {
			return err
		}

		log.Info().Str("username", cfg.Seed.AdminUsername).Msg("initial admin user created")

		return nil
	})
}
