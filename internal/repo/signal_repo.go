package repo

import (
	"context"

	"github.com/go-orz/orz"
	"github.com/yxtlab/tzero/internal/models"
	"gorm.io/gorm"
)

func NewSignalRepo(db *gorm.DB) *SignalRepo {
	return &SignalRepo{
		Repository: orz.NewRepository[models.T0Signal, string](db),
	}
}

type SignalRepo struct {
	orz.Repository[models.T0Signal, string]
}

// FindByRunId 查找指定批次的全部信号，按优先级排列
func (r SignalRepo) FindByRunId(ctx context.Context, runId string) (items []models.T0Signal, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Where("run_id = ?", runId).
		Order("priority, id").
		Find(&items).Error
	return items, err
}
