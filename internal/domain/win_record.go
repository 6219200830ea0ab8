package domain

import "time"

// WinRecord 是一次成功抽奖的永久记录。
// 除领奖人字段（由外部领奖流程补填）外不可变。
type WinRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PrizeID   uint      `gorm:"index;not null" json:"prize_id"`
	WheelID   uint      `gorm:"index;not null" json:"wheel_id"`
	WonAt     time.Time `gorm:"index;not null" json:"won_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`

	// ClaimToken 是只交给中奖者的不可猜测凭证，领奖时用它定位记录
	ClaimToken string `gorm:"size:36;uniqueIndex;not null" json:"-"`

	// 领奖信息，抽奖时为空
	WinnerName    *string    `gorm:"size:191" json:"winner_name,omitempty"`
	WinnerPhone   *string    `gorm:"size:64" json:"winner_phone,omitempty"`
	WinnerAddress *string    `gorm:"type:text" json:"winner_address,omitempty"`
	ClaimedAt     *time.Time `json:"claimed_at,omitempty"`
}

// Claimed 报告该记录是否已被领取。
func (w WinRecord) Claimed() bool { return w.ClaimedAt != nil }

// ClaimDetails 是领奖人提交的联系方式。
type ClaimDetails struct {
	Name    string
	Phone   string
	Address string
}

// WinLogEntry 是后台列表使用的中奖记录，附带奖品展示信息。
type WinLogEntry struct {
	WinRecord
	PrizeLabel string `json:"prize_label"`
	PrizeColor string `json:"prize_color"`
}
