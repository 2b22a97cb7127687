package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/lshigami/tutorlab/internal/model"
)

type QuestionRepository interface {
	Create(ctx context.Context, question *model.Question) error
	FindByID(ctx context.Context, id uint) (*model.Question, error)
	FindBySubtopics(ctx context.Context, subtopicIDs []uint, limit int) ([]model.Question, error)
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) Create(ctx context.Context, question *model.Question) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(question).Error, "create question")
}

func (r *questionRepository) FindByID(ctx context.Context, id uint) (*model.Question, error) {
	var question model.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, notFoundOr(err, "question", id)
	}
	return &question, nil
}

// FindBySubtopics returns questions of the given subtopics in id order,
// capped at limit when limit > 0.
func (r *questionRepository) FindBySubtopics(ctx context.Context, subtopicIDs []uint, limit int) ([]model.Question, error) {
	var questions []model.Question
	if len(subtopicIDs) == 0 {
		return questions, nil
	}
	query := r.db.WithContext(ctx).Where("subtopic_id IN ?", subtopicIDs).Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&questions).Error
	return questions, errors.Wrap(err, "find questions by subtopics")
}
