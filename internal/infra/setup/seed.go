package setup

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"prize-wheel/internal/domain"
)

// DemoWheelSlug 是演示数据中转盘的 slug
const DemoWheelSlug = "main-wheel"

// demoPrizes 对应线上最初的一套奖品配置；"Try Again" 用 NoWin 标记
var demoPrizes = []domain.Prize{
	{Label: "Grand Prize (iPhone)", Color: "#ef4444", Stock: 1, Weight: 0.01},
	{Label: "Try Again", Color: "#6b7280", Stock: 9999, Weight: 0.50, NoWin: true},
	{Label: "Small Prize ($5)", Color: "#f97316", Stock: 50, Weight: 0.20},
	{Label: "Medium Prize ($20)", Color: "#eab308", Stock: 10, Weight: 0.10},
	{Label: "Discount 10%", Color: "#84cc16", Stock: 100, Weight: 0.10},
	{Label: "Discount 50%", Color: "#06b6d4", Stock: 5, Weight: 0.05},
	{Label: "Mystery Box", Color: "#8b5cf6", Stock: 20, Weight: 0.03},
	{Label: "Bonus Spin", Color: "#ec4899", Stock: 30, Weight: 0.01},
}

// SeedDemo 在转盘不存在时写入演示转盘及奖品；已存在则跳过。
func SeedDemo(db *gorm.DB) error {
	var existing domain.Wheel
	err := db.Where("slug = ?", DemoWheelSlug).First(&existing).Error
	if err == nil {
		logrus.WithField("wheel_id", existing.ID).Info("Demo wheel already present, skipping seed")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up demo wheel: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		wheel := &domain.Wheel{Name: "Main Wheel", Slug: DemoWheelSlug, Enabled: true}
		if err := tx.Create(wheel).Error; err != nil {
			return fmt.Errorf("failed to create demo wheel: %w", err)
		}
		prizes := make([]domain.Prize, len(demoPrizes))
		copy(prizes, demoPrizes)
		for i := range prizes {
			prizes[i].WheelID = wheel.ID
		}
		if err := tx.Create(&prizes).Error; err != nil {
			return fmt.Errorf("failed to create demo prizes: %w", err)
		}
		logrus.WithFields(logrus.Fields{"wheel_id": wheel.ID, "prizes": len(prizes)}).Info("Demo wheel seeded")
		return nil
	})
}

// EnsureAdmin 在用户名不存在时创建管理员账号。
func EnsureAdmin(db *gorm.DB, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	var count int64
	if err := db.Model(&domain.Admin{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check admin %q: %w", username, err)
	}
	if count > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	if err := db.Create(&domain.Admin{Username: username, Password: string(hash)}).Error; err != nil {
		return fmt.Errorf("failed to create admin %q: %w", username, err)
	}
	logrus.WithField("username", username).Info("Admin account created")
	return nil
}
