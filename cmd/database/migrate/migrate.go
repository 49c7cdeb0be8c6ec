package migration

import (
	"stash-backend/entities"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	models := []struct {
		name  string
		model any
	}{
		{"user", &entities.User{}},
		{"receipt", &entities.Receipt{}},
		{"point transaction", &entities.PointTransaction{}},
		{"redemption", &entities.Redemption{}},
	}

	for _, m := range models {
		if err := db.AutoMigrate(m.model); err != nil {
			zap.L().Error("error migrating database", zap.String("model", m.name), zap.Error(err))
			return err
		}
	}

	zap.L().Info("database migration complete")
	return nil
}
