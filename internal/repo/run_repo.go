package repo

import (
	"context"

	"github.com/go-orz/orz"
	"github.com/yxtlab/tzero/internal/models"
	"gorm.io/gorm"
)

func NewRunRepo(db *gorm.DB) *RunRepo {
	return &RunRepo{
		Repository: orz.NewRepository[models.AnalysisRun, string](db),
	}
}

type RunRepo struct {
	orz.Repository[models.AnalysisRun, string]
}

// FindLatest 查找最近一次计算记录
func (r RunRepo) FindLatest(ctx context.Context) (m models.AnalysisRun, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Order("created_at DESC").
		First(&m).Error
	return m, err
}

// FindRecent 查找最近 N 次计算记录
func (r RunRepo) FindRecent(ctx context.Context, limit int) (items []models.AnalysisRun, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}
