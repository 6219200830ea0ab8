package domain

import "time"

// Prize 是转盘上的一个带权重、有库存限制的结果。
// Stock 只能通过条件扣减修改，见 repository.InventoryTx.DecrementStock。
type Prize struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	WheelID  uint    `gorm:"index;not null" json:"wheel_id"`
	Label    string  `gorm:"size:191;not null" json:"label"`
	Color    string  `gorm:"size:32;not null" json:"color"`
	ImageURL *string `gorm:"size:512" json:"image_url,omitempty"`
	Stock    int     `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	// Weight 是相对权重，不要求总和为 1。
	Weight float64 `gorm:"not null;default:0" json:"weight"`
	// NoWin 标记 "再接再厉" 这类非奖品结果，替代按标签文字猜测。
	NoWin     bool      `gorm:"not null;default:false" json:"no_win"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

// InStock 报告奖品是否还能被抽中。
func (p Prize) InStock() bool { return p.Stock > 0 }

// PrizeView 是推送给客户端的奖品公开字段。
type PrizeView struct {
	ID       uint    `json:"id"`
	Label    string  `json:"label"`
	Color    string  `json:"color"`
	ImageURL *string `json:"image_url,omitempty"`
	Stock    int     `json:"stock"`
	Weight   float64 `json:"weight"`
	NoWin    bool    `json:"no_win"`
}

// View 返回奖品的公开视图。
func (p Prize) View() PrizeView {
	return PrizeView{
		ID:       p.ID,
		Label:    p.Label,
		Color:    p.Color,
		ImageURL: p.ImageURL,
		Stock:    p.Stock,
		Weight:   p.Weight,
		NoWin:    p.NoWin,
	}
}
