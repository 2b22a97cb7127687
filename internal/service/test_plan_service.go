package service

import (
	"context"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"github.com/lshigami/tutorlab/internal/apperror"
	"github.com/lshigami/tutorlab/internal/dto"
	"github.com/lshigami/tutorlab/internal/model"
	"github.com/lshigami/tutorlab/internal/repository"
)

type TestPlanService interface {
	CreatePlan(ctx context.Context, actorID uint, req dto.PlanCreateDTO) (*dto.PlanResponseDTO, error)
	GetPlan(ctx context.Context, planID, userID uint) (*dto.PlanResponseDTO, error)
	ListPlans(ctx context.Context, userID uint) ([]dto.PlanResponseDTO, error)
	UpdatePlanMetadata(ctx context.Context, planID, userID uint, req dto.PlanUpdateDTO) (*dto.PlanResponseDTO, error)
}

type testPlanService struct {
	planRepo repository.TestPlanRepository
}

func NewTestPlanService(planRepo repository.TestPlanRepository) TestPlanService {
	return &testPlanService{planRepo: planRepo}
}

func (s *testPlanService) CreatePlan(ctx context.Context, actorID uint, req dto.PlanCreateDTO) (*dto.PlanResponseDTO, error) {
	mode := model.TimingMode(req.TimingMode)
	switch mode {
	case model.TimingModeTimed:
		if req.TimeLimitMinutes == nil || *req.TimeLimitMinutes <= 0 {
			return nil, apperror.Validation("A timed plan needs a positive time limit",
				apperror.FieldError{Field: "time_limit_minutes", Error: "required"})
		}
	case model.TimingModeUntimed:
		req.TimeLimitMinutes = nil
	default:
		return nil, apperror.Validation("Timing mode must be TIMED or UNTIMED",
			apperror.FieldError{Field: "timing_mode", Error: "oneof"})
	}
	if len(req.SubtopicIDs) == 0 {
		return nil, apperror.Validation("A plan must select at least one subtopic",
			apperror.FieldError{Field: "subtopic_ids", Error: "min"})
	}
	if req.TotalQuestions <= 0 {
		return nil, apperror.Validation("A plan must ask at least one question",
			apperror.FieldError{Field: "total_questions", Error: "min"})
	}

	plan := model.TestPlan{
		StudentID:        req.StudentID,
		CreatedByID:      actorID,
		ExamBoardID:      req.ExamBoardID,
		Title:            req.Title,
		Description:      req.Description,
		TimingMode:       mode,
		TimeLimitMinutes: req.TimeLimitMinutes,
		Config: datatypes.NewJSONType(model.PlanConfig{
			TopicIDs:       req.TopicIDs,
			SubtopicIDs:    req.SubtopicIDs,
			TotalQuestions: req.TotalQuestions,
		}),
	}
	if err := s.planRepo.Create(ctx, &plan); err != nil {
		log.Error().Err(err).Uint("actorID", actorID).Uint("studentID", req.StudentID).Msg("Failed to create test plan")
		return nil, err
	}
	log.Info().Uint("planID", plan.ID).Uint("studentID", plan.StudentID).Msg("Test plan created")
	return toPlanDTO(&plan)
}

func (s *testPlanService) GetPlan(ctx context.Context, planID, userID uint) (*dto.PlanResponseDTO, error) {
	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.CanAccess(userID) {
		return nil, apperror.Unauthorized()
	}
	return toPlanDTO(plan)
}

func (s *testPlanService) ListPlans(ctx context.Context, userID uint) ([]dto.PlanResponseDTO, error) {
	plans, err := s.planRepo.FindAllByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Uint("userID", userID).Msg("Failed to list test plans")
		return nil, err
	}
	out := make([]dto.PlanResponseDTO, 0, len(plans))
	for i := range plans {
		resp, err := toPlanDTO(&plans[i])
		if err != nil {
			continue
		}
		out = append(out, *resp)
	}
	warnDropped("plans", len(plans), len(out))
	return out, nil
}

// warnDropped reports list items that failed DTO conversion and were skipped.
func warnDropped(list string, total, kept int) {
	if dropped := total - kept; dropped > 0 {
		log.Warn().Str("list", list).Int("dropped", dropped).Int("total", total).Msg("Items left out of list response")
	}
}

// UpdatePlanMetadata is reserved to the plan's creator and never changes the
// question selection.
func (s *testPlanService) UpdatePlanMetadata(ctx context.Context, planID, userID uint, req dto.PlanUpdateDTO) (*dto.PlanResponseDTO, error) {
	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.CreatedByID != userID {
		return nil, apperror.Unauthorized()
	}
	if err := s.planRepo.UpdateMetadata(ctx, planID, req.Title, req.Description); err != nil {
		log.Error().Err(err).Uint("planID", planID).Msg("Failed to update test plan metadata")
		return nil, err
	}
	plan.Title = req.Title
	plan.Description = req.Description
	return toPlanDTO(plan)
}

func toPlanDTO(p *model.TestPlan) (*dto.PlanResponseDTO, error) {
	var resp dto.PlanResponseDTO
	if err := copier.Copy(&resp, p); err != nil {
		log.Error().Err(err).Uint("planID", p.ID).Msg("Failed to copy TestPlan model to DTO")
		return nil, err
	}
	cfg := p.Config.Data()
	resp.Config = dto.PlanConfigDTO{
		TopicIDs:       cfg.TopicIDs,
		SubtopicIDs:    cfg.SubtopicIDs,
		TotalQuestions: cfg.TotalQuestions,
	}
	return &resp, nil
}
