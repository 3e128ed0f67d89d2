package usecase

import (
	"context"
	"net/http"
	"time"

	repo "market/internal/repository"
)

type NotificationUsecase struct {
	notifications repo.NotificationRepository
}

func NewNotificationUsecase(notifications repo.NotificationRepository) *NotificationUsecase {
	return &NotificationUsecase{notifications: notifications}
}

type NotificationOutput struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	IsChecked bool      `json:"is_checked"`
	CreatedAt time.Time `json:"created_at"`
}

type NotificationListOutput struct {
	Items []NotificationOutput `json:"items"`
	Total int64                `json:"total"`
}

func (u *NotificationUsecase) ListMyNotifications(ctx context.Context, userID int64, page int, limit int) (NotificationListOutput, error) {
	if userID <= 0 {
		return NotificationListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	ns, total, err := u.notifications.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return NotificationListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items := make([]NotificationOutput, 0, len(ns))
	for _, n := range ns {
		items = append(items, NotificationOutput{
			ID:        n.ID,
			Content:   n.Content,
			IsChecked: n.IsChecked,
			CreatedAt: n.CreatedAt,
		})
	}
	return NotificationListOutput{Items: items, Total: total}, nil
}

// 既読にする。他人の通知は「存在しない扱い」にする。
func (u *NotificationUsecase) Check(ctx context.Context, userID int64, notificationID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if notificationID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	ok, err := u.notifications.MarkChecked(ctx, notificationID, userID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !ok {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	return nil
}
