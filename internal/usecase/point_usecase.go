package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	repo "market/internal/repository"
)

type PointUsecase struct {
	users     repo.UserRepository
	histories repo.PointHistoryRepository
}

func NewPointUsecase(users repo.UserRepository, histories repo.PointHistoryRepository) *PointUsecase {
	return &PointUsecase{users: users, histories: histories}
}

type PointHistoryOutput struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	Amount    int64     `json:"amount"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

type PointHistoryListOutput struct {
	Balance int64                `json:"balance"`
	Items   []PointHistoryOutput `json:"items"`
	Total   int64                `json:"total"`
}

// 残高と履歴。履歴は追記専用の監査証跡なのでそのまま出すだけ。
func (u *PointUsecase) ListMyHistory(ctx context.Context, userID int64, page int, limit int) (PointHistoryListOutput, error) {
	if userID <= 0 {
		return PointHistoryListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return PointHistoryListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err != nil {
		return PointHistoryListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	hs, total, err := u.histories.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return PointHistoryListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items := make([]PointHistoryOutput, 0, len(hs))
	for _, h := range hs {
		items = append(items, PointHistoryOutput{
			ID:        h.ID,
			OrderID:   h.OrderID,
			Amount:    h.Amount,
			Type:      string(h.Type),
			CreatedAt: h.CreatedAt,
		})
	}
	return PointHistoryListOutput{Balance: user.Point, Items: items, Total: total}, nil
}
