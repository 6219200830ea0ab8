package setup

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"prize-wheel/internal/domain"
)

// MigrateDB 迁移全部表结构。
// 返回错误以便调用者知道迁移是否成功。
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}

	// 顺序有意义：prizes 外键依赖 wheels
	models := []interface{}{
		&domain.Wheel{},
		&domain.Prize{},
		&domain.WinRecord{},
		&domain.Admin{},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			logrus.Errorf("Failed to auto-migrate %T: %v", m, err)
			return fmt.Errorf("failed to auto-migrate %T: %w", m, err)
		}
	}

	logrus.Info("Database migration completed successfully")
	return nil
}
