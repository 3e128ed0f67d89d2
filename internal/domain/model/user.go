package model

import "time"

type Role string

const (
	RoleUser   Role = "USER"
	RoleSeller Role = "SELLER"
	RoleAdmin  Role = "ADMIN"
)

type User struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Name     string `gorm:"type:varchar(100);not null" json:"name"`
	Role     Role   `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`

	// ポイント残高。マイナス不可（減算はガード付きUPDATEのみ）
	Point int64 `gorm:"not null;default:0" json:"point"`

	// 等級（ポイント還元率を決める）
	GradeID int64 `gorm:"not null;index" json:"grade_id"`
	Grade   Grade `gorm:"foreignKey:GradeID" json:"grade"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
