package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/lshigami/tutorlab/internal/model"
)

type TestPlanRepository interface {
	Create(ctx context.Context, plan *model.TestPlan) error
	FindByID(ctx context.Context, id uint) (*model.TestPlan, error)
	FindAllByUser(ctx context.Context, userID uint) ([]model.TestPlan, error)
	UpdateMetadata(ctx context.Context, id uint, title, description string) error
}

type testPlanRepository struct {
	db *gorm.DB
}

func NewTestPlanRepository(db *gorm.DB) TestPlanRepository {
	return &testPlanRepository{db: db}
}

func (r *testPlanRepository) Create(ctx context.Context, plan *model.TestPlan) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(plan).Error, "create test plan")
}

func (r *testPlanRepository) FindByID(ctx context.Context, id uint) (*model.TestPlan, error) {
	var plan model.TestPlan
	if err := r.db.WithContext(ctx).First(&plan, id).Error; err != nil {
		return nil, notFoundOr(err, "test plan", id)
	}
	return &plan, nil
}

// FindAllByUser lists plans the user takes or created, newest first.
func (r *testPlanRepository) FindAllByUser(ctx context.Context, userID uint) ([]model.TestPlan, error) {
	var plans []model.TestPlan
	err := r.db.WithContext(ctx).
		Where("student_id = ? OR created_by_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&plans).Error
	return plans, errors.Wrap(err, "find test plans")
}

// UpdateMetadata only ever touches descriptive columns.
func (r *testPlanRepository) UpdateMetadata(ctx context.Context, id uint, title, description string) error {
	res := r.db.WithContext(ctx).Model(&model.TestPlan{}).Where("id = ?", id).
		Updates(map[string]interface{}{"title": title, "description": description})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "update test plan %d", id)
	}
	if res.RowsAffected == 0 {
		return notFoundOr(gorm.ErrRecordNotFound, "test plan", id)
	}
	return nil
}
