package service

import (
	"context"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"github.com/lshigami/tutorlab/internal/apperror"
	"github.com/lshigami/tutorlab/internal/dto"
	"github.com/lshigami/tutorlab/internal/model"
	"github.com/lshigami/tutorlab/internal/repository"
)

type QuestionService interface {
	CreateQuestion(ctx context.Context, actorID uint, req dto.QuestionCreateDTO) (*dto.QuestionResponseDTO, error)
	GetQuestion(ctx context.Context, id uint) (*dto.QuestionResponseDTO, error)
	ListQuestionsBySubtopics(ctx context.Context, subtopicIDs []uint, limit int) ([]dto.QuestionResponseDTO, error)
}

const maxQuestionPage = 200

type questionService struct {
	repo repository.QuestionRepository
}

func NewQuestionService(repo repository.QuestionRepository) QuestionService {
	return &questionService{repo: repo}
}

func (s *questionService) CreateQuestion(ctx context.Context, actorID uint, req dto.QuestionCreateDTO) (*dto.QuestionResponseDTO, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, apperror.Validation("Question text is required", apperror.FieldError{Field: "text", Error: "required"})
	}
	plain := nonBlank(req.CorrectAnswer)
	markup := nonBlank(req.CorrectAnswerMarkup)
	if plain == nil && markup == nil {
		return nil, apperror.Validation("A correct answer is required in plain or markup form",
			apperror.FieldError{Field: "correct_answer", Error: "required_without=correct_answer_markup"})
	}

	question := model.Question{
		TopicID:             req.TopicID,
		SubtopicID:          req.SubtopicID,
		Text:                req.Text,
		Options:             datatypes.NewJSONType(append([]string{}, req.Options...)),
		Difficulty:          req.Difficulty,
		CorrectAnswer:       plain,
		CorrectAnswerMarkup: markup,
		IsMarkupFormat:      req.IsMarkupFormat,
		CreatedByID:         actorID,
	}
	if err := s.repo.Create(ctx, &question); err != nil {
		log.Error().Err(err).Uint("actorID", actorID).Msg("Failed to create question")
		return nil, err
	}
	return toQuestionDTO(&question)
}

func (s *questionService) GetQuestion(ctx context.Context, id uint) (*dto.QuestionResponseDTO, error) {
	question, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toQuestionDTO(question)
}

func (s *questionService) ListQuestionsBySubtopics(ctx context.Context, subtopicIDs []uint, limit int) ([]dto.QuestionResponseDTO, error) {
	if len(subtopicIDs) == 0 {
		return nil, apperror.Validation("At least one subtopic id is required", apperror.FieldError{Field: "subtopic_ids", Error: "required"})
	}
	if limit <= 0 || limit > maxQuestionPage {
		limit = maxQuestionPage
	}
	questions, err := s.repo.FindBySubtopics(ctx, subtopicIDs, limit)
	if err != nil {
		log.Error().Err(err).Interface("subtopicIDs", subtopicIDs).Msg("Failed to list questions")
		return nil, err
	}
	out := make([]dto.QuestionResponseDTO, 0, len(questions))
	for i := range questions {
		resp, err := toQuestionDTO(&questions[i])
		if err != nil {
			continue
		}
		out = append(out, *resp)
	}
	warnDropped("questions", len(questions), len(out))
	return out, nil
}

func toQuestionDTO(q *model.Question) (*dto.QuestionResponseDTO, error) {
	var resp dto.QuestionResponseDTO
	if err := copier.Copy(&resp, q); err != nil {
		log.Error().Err(err).Uint("questionID", q.ID).Msg("Failed to copy Question model to DTO")
		return nil, err
	}
	resp.Options = q.Options.Data()
	return &resp, nil
}

func nonBlank(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
