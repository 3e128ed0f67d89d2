package model

import "time"

// 通知。行の作成はトランザクション内、ライブ配信はコミット後。
// 更新はIsCheckedをtrueにするだけ。
type Notification struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	Content   string    `gorm:"type:varchar(255);not null" json:"content"`
	IsChecked bool      `gorm:"not null;default:false" json:"is_checked"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
