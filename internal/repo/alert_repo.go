package repo

import (
	"context"

	"github.com/go-orz/orz"
	"github.com/yxtlab/tzero/internal/models"
	"gorm.io/gorm"
)

func NewAlertRepo(db *gorm.DB) *AlertRepo {
	return &AlertRepo{
		Repository: orz.NewRepository[models.RiskAlert, string](db),
	}
}

type AlertRepo struct {
	orz.Repository[models.RiskAlert, string]
}

// FindByRunId 查找指定批次的全部告警，保持生成顺序
func (r AlertRepo) FindByRunId(ctx context.Context, runId string) (items []models.RiskAlert, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Where("run_id = ?", runId).
		Order("id").
		Find(&items).Error
	return items, err
}
