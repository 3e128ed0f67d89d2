package usecase

import (
	"context"
	"fmt"

	repo "market/internal/repository"
)

// 等級再計算。確定・キャンセルのコミット後に呼ばれる。
// 失敗しても呼び出し元の決済処理は巻き戻さない。
type GradeRecomputer interface {
	Recompute(ctx context.Context, userID int64) error
}

type GradeUsecase struct {
	orders repo.OrderRepository
	grades repo.GradeRepository
	users  repo.UserRepository
}

func NewGradeUsecase(orders repo.OrderRepository, grades repo.GradeRepository, users repo.UserRepository) *GradeUsecase {
	return &GradeUsecase{orders: orders, grades: grades, users: users}
}

// Recompute は累計決済額から等級を引き直す。
// 今の累計だけで決めるので、キャンセルで下がることもある。
func (u *GradeUsecase) Recompute(ctx context.Context, userID int64) error {
	spend, err := u.orders.SumCompletedSpend(ctx, userID)
	if err != nil {
		return fmt.Errorf("sum completed spend: %w", err)
	}

	grades, err := u.grades.ListByMinSpendDesc(ctx)
	if err != nil {
		return fmt.Errorf("list grades: %w", err)
	}
	if len(grades) == 0 {
		return fmt.Errorf("no grades configured")
	}

	//降順なので最初に届いたしきい値が答え
	chosen := grades[len(grades)-1]
	for _, g := range grades {
		if spend >= g.MinSpend {
			chosen = g
			break
		}
	}

	if err := u.users.UpdateGrade(ctx, userID, chosen.ID); err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	return nil
}
