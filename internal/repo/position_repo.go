package repo

import (
	"context"

	"github.com/go-orz/orz"
	"github.com/yxtlab/tzero/internal/models"
	"gorm.io/gorm"
)

func NewPositionRepo(db *gorm.DB) *PositionRepo {
	return &PositionRepo{
		Repository: orz.NewRepository[models.Position, string](db),
	}
}

type PositionRepo struct {
	orz.Repository[models.Position, string]
}

// FindByRunId 查找指定批次的全部仓位
func (r PositionRepo) FindByRunId(ctx context.Context, runId string) (items []models.Position, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Where("run_id = ?", runId).
		Order("stock_code, account_id, strategy").
		Find(&items).Error
	return items, err
}

func NewT0PositionRepo(db *gorm.DB) *T0PositionRepo {
	return &T0PositionRepo{
		Repository: orz.NewRepository[models.T0Position, string](db),
	}
}

type T0PositionRepo struct {
	orz.Repository[models.T0Position, string]
}

// FindByRunId 查找指定批次的全部 T0 仓位
func (r T0PositionRepo) FindByRunId(ctx context.Context, runId string) (items []models.T0Position, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Where("run_id = ?", runId).
		Order("stock_code, account_id, strategy").
		Find(&items).Error
	return items, err
}
