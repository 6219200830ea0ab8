package domain

import "time"

// Wheel 表示一个独立启用/停用的转盘，拥有一组共享库存的奖品。
type Wheel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:191;not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;size:191;not null" json:"slug"` // 对外稳定名称，用于房间寻址
	Enabled   bool      `gorm:"not null;default:true" json:"enabled"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Prizes []Prize `gorm:"foreignKey:WheelID;constraint:OnDelete:CASCADE" json:"prizes,omitempty"`
}
