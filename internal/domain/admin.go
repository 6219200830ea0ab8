package domain

import "time"

// Admin 表示后台管理员账号。
type Admin struct {
	ID        uint      `gorm:"primaryKey"`
	Username  string    `gorm:"type:varchar(191);uniqueIndex:idx_admin_username;not null"`
	Password  string    `gorm:"type:text;not null"` // bcrypt 哈希
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
