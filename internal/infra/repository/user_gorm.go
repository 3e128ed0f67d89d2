package repository

import (
	"context"

	"market/internal/domain/model"
	repo "market/internal/repository"

	"gorm.io/gorm"
)

type UserGormRepository struct {
	db *gorm.DB
}

func NewUserGormRepository(db *gorm.DB) *UserGormRepository {
	return &UserGormRepository{db: db}
}

func (r *UserGormRepository) FindByID(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).Preload("Grade").First(&u, id).Error
	if isNotFound(err) {
		return model.User{}, repo.ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (r *UserGormRepository) AddPoint(ctx context.Context, userID int64, amount int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("point", gorm.Expr("point + ?", amount))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 残高が足りるときだけ減算。残高マイナスをDB側で防ぐ。
func (r *UserGormRepository) DebitPointIfEnough(ctx context.Context, userID int64, amount int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND point >= ?", userID, amount).
		Update("point", gorm.Expr("point - ?", amount))

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *UserGormRepository) UpdateGrade(ctx context.Context, userID int64, gradeID int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("grade_id", gradeID)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

type GradeGormRepository struct {
	db *gorm.DB
}

func NewGradeGormRepository(db *gorm.DB) *GradeGormRepository {
	return &GradeGormRepository{db: db}
}

func (r *GradeGormRepository) ListByMinSpendDesc(ctx context.Context) ([]model.Grade, error) {
	var grades []model.Grade
	err := r.db.WithContext(ctx).Order("min_spend DESC").Find(&grades).Error
	if err != nil {
		return nil, err
	}
	return grades, nil
}

type PointHistoryGormRepository struct {
	db *gorm.DB
}

func NewPointHistoryGormRepository(db *gorm.DB) *PointHistoryGormRepository {
	return &PointHistoryGormRepository{db: db}
}

func (r *PointHistoryGormRepository) Create(ctx context.Context, h model.PointHistory) error {
	return r.db.WithContext(ctx).Create(&h).Error
}

func (r *PointHistoryGormRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.PointHistory, int64, error) {
	var hs []model.PointHistory
	var total int64

	q := r.db.WithContext(ctx).Model(&model.PointHistory{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&hs).Error; err != nil {
		return nil, 0, err
	}
	return hs, total, nil
}

func (r *PointHistoryGormRepository) FindByOrderIDAndType(ctx context.Context, orderID int64, t model.PointHistoryType) (model.PointHistory, bool, error) {
	var h model.PointHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND type = ?", orderID, t).
		First(&h).Error
	if isNotFound(err) {
		return model.PointHistory{}, false, nil
	}
	if err != nil {
		return model.PointHistory{}, false, err
	}
	return h, true, nil
}
