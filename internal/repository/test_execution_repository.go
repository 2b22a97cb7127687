package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lshigami/tutorlab/internal/model"
)

var activeStatuses = []model.ExecutionStatus{model.StatusNotStarted, model.StatusInProgress, model.StatusPaused}

type TestExecutionRepository interface {
	FindByID(ctx context.Context, id uint) (*model.TestExecution, error)
	FindActiveByPlan(ctx context.Context, planID uint) (*model.TestExecution, error)
	FindAllByPlan(ctx context.Context, planID uint) ([]model.TestExecution, error)
	// CreateUnlessActive inserts execution unless its plan already has a
	// non-terminal one, in which case that one is returned with created=false.
	CreateUnlessActive(ctx context.Context, execution *model.TestExecution) (result *model.TestExecution, created bool, err error)
	// Update writes every mutable column when the stored version still
	// matches execution.Version, then bumps it. ErrVersionConflict otherwise.
	Update(ctx context.Context, execution *model.TestExecution) error
}

type testExecutionRepository struct {
	db *gorm.DB
}

func NewTestExecutionRepository(db *gorm.DB) TestExecutionRepository {
	return &testExecutionRepository{db: db}
}

func (r *testExecutionRepository) FindByID(ctx context.Context, id uint) (*model.TestExecution, error) {
	var execution model.TestExecution
	if err := r.db.WithContext(ctx).First(&execution, id).Error; err != nil {
		return nil, notFoundOr(err, "execution", id)
	}
	return &execution, nil
}

// FindActiveByPlan returns nil, nil when every execution of the plan is terminal.
func (r *testExecutionRepository) FindActiveByPlan(ctx context.Context, planID uint) (*model.TestExecution, error) {
	return findActive(r.db.WithContext(ctx), planID)
}

func (r *testExecutionRepository) FindAllByPlan(ctx context.Context, planID uint) ([]model.TestExecution, error) {
	var executions []model.TestExecution
	err := r.db.WithContext(ctx).Where("test_plan_id = ?", planID).
		Order("created_at DESC, id DESC").
		Find(&executions).Error
	return executions, errors.Wrapf(err, "find executions of plan %d", planID)
}

func (r *testExecutionRepository) CreateUnlessActive(ctx context.Context, execution *model.TestExecution) (*model.TestExecution, bool, error) {
	result := execution
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialises concurrent creators on the plan row.
		var plan model.TestPlan
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&plan, execution.TestPlanID).Error; err != nil {
			return notFoundOr(err, "test plan", execution.TestPlanID)
		}
		existing, err := findActive(tx, execution.TestPlanID)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}
		if execution.Version == 0 {
			execution.Version = 1
		}
		if err := tx.Create(execution).Error; err != nil {
			return errors.Wrap(err, "create execution")
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

func (r *testExecutionRepository) Update(ctx context.Context, execution *model.TestExecution) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&model.TestExecution{}).
		Where("id = ? AND version = ?", execution.ID, execution.Version).
		Updates(map[string]interface{}{
			"status":       execution.Status,
			"started_at":   execution.StartedAt,
			"paused_at":    execution.PausedAt,
			"completed_at": execution.CompletedAt,
			"score":        execution.Score,
			"test_data":    execution.TestData,
			"version":      execution.Version + 1,
			"updated_at":   now,
		})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "update execution %d", execution.ID)
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	execution.Version++
	execution.UpdatedAt = now
	return nil
}

func findActive(db *gorm.DB, planID uint) (*model.TestExecution, error) {
	var executions []model.TestExecution
	err := db.Where("test_plan_id = ? AND status IN ?", planID, activeStatuses).
		Order("id ASC").Limit(1).
		Find(&executions).Error
	if err != nil {
		return nil, errors.Wrapf(err, "find active execution of plan %d", planID)
	}
	if len(executions) == 0 {
		return nil, nil
	}
	return &executions[0], nil
}
