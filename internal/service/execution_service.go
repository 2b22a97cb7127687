package service

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/lshigami/tutorlab/config"
	"github.com/lshigami/tutorlab/internal/apperror"
	"github.com/lshigami/tutorlab/internal/dto"
	"github.com/lshigami/tutorlab/internal/grading"
	"github.com/lshigami/tutorlab/internal/model"
	"github.com/lshigami/tutorlab/internal/repository"
)

type ExecutionService interface {
	CreateExecution(ctx context.Context, planID, userID uint) (*dto.ExecutionResponseDTO, bool, error)
	GetExecution(ctx context.Context, executionID, userID uint) (*dto.ExecutionResponseDTO, error)
	ListExecutionsForPlan(ctx context.Context, planID, userID uint) ([]dto.ExecutionSummaryDTO, error)
	StartExecution(ctx context.Context, executionID, userID uint) (*dto.ExecutionResponseDTO, error)
	PauseExecution(ctx context.Context, executionID, userID uint) (*dto.ExecutionResponseDTO, error)
	ResumeExecution(ctx context.Context, executionID, userID uint) (*dto.ExecutionResponseDTO, error)
	AbandonExecution(ctx context.Context, executionID, userID uint) (*dto.ExecutionResponseDTO, error)
	SubmitAnswer(ctx context.Context, executionID, userID uint, req dto.SubmitAnswerDTO) (*dto.ExecutionResponseDTO, error)
	SubmitAllAnswers(ctx context.Context, executionID, userID uint, req dto.SubmitAllAnswersDTO) (*dto.ExecutionResponseDTO, error)
	CompleteExecution(ctx context.Context, executionID, userID uint) (*dto.CompleteExecutionDTO, error)
	CalculateAndUpdateTestScore(ctx context.Context, executionID, userID uint) (*dto.ScoreResultDTO, error)
	GetExecutionResults(ctx context.Context, executionID, userID uint) (*dto.ExecutionResultsDTO, error)
	ReviewExecution(ctx context.Context, executionID, userID uint) (*dto.ExecutionResultsDTO, error)
}

type executionService struct {
	planRepo      repository.TestPlanRepository
	questionRepo  repository.QuestionRepository
	executionRepo repository.TestExecutionRepository
	llm           GeminiLLMService
	validate      *validator.Validate
	autoComplete  bool
	maxRetries    int
	now           func() time.Time
}

func NewExecutionService(
	planRepo repository.TestPlanRepository,
	questionRepo repository.QuestionRepository,
	executionRepo repository.TestExecutionRepository,
	llm GeminiLLMService,
	cfg *config.Config,
) ExecutionService {
	retries := cfg.Execution.MaxWriteRetries
	if retries < 1 {
		retries = 1
	}
	return &executionService{
		planRepo:      planRepo,
		questionRepo:  questionRepo,
		executionRepo: executionRepo,
		llm:           llm,
		validate:      newResponseValidator(),
		autoComplete:  cfg.Execution.AutoComplete,
		maxRetries:    retries,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func newResponseValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// accessFn decides whether userID may act on e.
type accessFn func(ctx context.Context, e *model.TestExecution) error

func (s *executionService) studentOnly(userID uint) accessFn {
	return func(_ context.Context, e *model.TestExecution) error {
		if e.StudentID != userID {
			return apperror.Unauthorized()
		}
		return nil
	}
}

// studentOrPlanner also admits whoever created the execution's plan.
func (s *executionService) studentOrPlanner(userID uint) accessFn {
	return func(ctx context.Context, e *model.TestExecution) error {
		if userID != 0 && e.StudentID == userID {
			return nil
		}
		plan, err := s.planRepo.FindByID(ctx, e.TestPlanID)
		if err != nil {
			return err
		}
		if !plan.CanAccess(userID) {
			return apperror.Unauthorized()
		}
		return nil
	}
}

func (s *executionService) CreateExecution(ctx context.Context, planID, userID uint) (*dto.ExecutionResponseDTO, bool, error) {
	// 1. Load the plan and check the caller's relationship to it
	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, false, err
	}
	if !plan.CanAccess(userID) {
		return nil, false, apperror.Unauthorized()
	}

	// 2. Hand back the open execution if there is one
	existing, err := s.executionRepo.FindActiveByPlan(ctx, planID)
	if err != nil {
		log.Error().Err(err).Uint("planID", planID).Msg("Failed to look up active execution")
		return nil, false, err
	}
	if existing != nil {
		resp, err := toExecutionDTO(existing)
		return resp, false, err
	}

	// 3. Snapshot the selected questions
	cfg := plan.Config.Data()
	questions, err := s.questionRepo.FindBySubtopics(ctx, cfg.SubtopicIDs, cfg.TotalQuestions)
	if err != nil {
		log.Error().Err(err).Uint("planID", planID).Msg("Failed to select questions for execution")
		return nil, false, err
	}
	if len(questions) == 0 {
		return nil, false, apperror.Validation("No questions are available for the selected subtopics")
	}
	snapshots := make([]model.QuestionSnapshot, len(questions))
	for i, q := range questions {
		snapshots[i] = q.Snapshot()
	}

	// 4. Persist, unless a concurrent create got there first
	execution := &model.TestExecution{
		TestPlanID: plan.ID,
		StudentID:  plan.StudentID,
		Status:     model.StatusNotStarted,
		Version:    1,
	}
	execution.SetData(model.NewTestData(snapshots, plan.AllowedSeconds()))

	result, created, err := s.executionRepo.CreateUnlessActive(ctx, execution)
	if err != nil {
		log.Error().Err(err).Uint("planID", planID).Msg("Failed to create execution")
		return nil, false, err
	}
	if created {
		log.Info().Uint("executionID", result.ID).Uint("planID", planID).Int("questions", len(snapshots)).Msg("Execution created")
	}
	resp, err := toExecutionDTO(result)
	return resp, created, err
}

func (s *executionService) GetExecution(ctx context.Context, executionID, userID uint) (*dto.ExecutionResponseDTO, error) {
	execution, err := s.load(ctx, executionID, s.studentOrPlanner(userID))
	if err != nil {
		return nil, err
	}
	return toExecutionDTO(execution)
}

func (s *executionService) ListExecutionsForPlan(ctx context.Context, planID, userID uint) ([]dto.ExecutionSummaryDTO, error) {
	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.CanAccess(userID) {
		return nil, apperror.Unauthorized()
	}
	executions, err := s.executionRepo.FindAllByPlan(ctx, planID)
	if err != nil {
		log.Error().Err(err).Uint("planID", planID).Msg("Failed to list executions")
		return nil, err
	}
	out := make([]dto.ExecutionSummaryDTO, 0, len(executions))
	for i := range executions {
		var item dto.ExecutionSummaryDTO
		if err := copier.Copy(&item, &executions[i]); err != nil {
			log.Error().Err(err).Uint("executionID", executions[i].ID).Msg("Failed to copy TestExecution model to summary DTO")
			continue
		}
		item.TotalQuestions = len(executions[i].TestData.Data().Questions)
		out = append(out, item)
	}
	warnDropped("executions", len(executions), len(out))
	return out, nil
}

func (s *executionService) StartExecution(ctx context.Context, executionID, userID uint) (*dto.ExecutionResponseDTO, error) {
	return s.transition(ctx, executionID, s.studentOnly(userID), func(e *model.TestExecution, d *model.TestData, now time.Time) error {
		if err := e.Apply(model.ActionStart, now); err != nil {
			return err
		}
		d.Timing.StartTime = &now
		return nil
	})
}

func (s *executionService) PauseExecution(ctx context.Context, executionID, userID uint) (*dto.ExecutionResponseDTO, error) {
	return s.transition(ctx, executionID, s.studentOnly(userID), func(e *model.TestExecution, _ *model.TestData, now time.Time) error {
		return e.Apply(model.ActionPause, now)
	})
}

func (s *executionService) ResumeExecution(ctx context.Context, executionID, userID uint) (*dto.ExecutionResponseDTO, error) {
	return s.transition(ctx, executionID, s.studentOnly(userID), func(e *model.TestExecution, _ *model.TestData, now time.Time) error {
		return e.Apply(model.ActionResume, now)
	})
}

// AbandonExecution frees the plan for a new attempt.
func (s *executionService) AbandonExecution(ctx context.Context, executionID, userID uint) (*dto.ExecutionResponseDTO, error) {
	return s.transition(ctx, executionID, s.studentOnly(userID), func(e *model.TestExecution, _ *model.TestData, now time.Time) error {
		return e.Apply(model.ActionAbandon, now)
	})
}

func (s *executionService) SubmitAnswer(ctx context.Context, executionID, userID uint, req dto.SubmitAnswerDTO) (*dto.ExecutionResponseDTO, error) {
	if strings.TrimSpace(req.Answer) == "" {
		return nil, apperror.Validation("Answer must not be blank", apperror.FieldError{Field: "answer", Error: "notblank"})
	}
	if req.TimeSpent < 0 {
		return nil, apperror.Validation("Time spent must not be negative", apperror.FieldError{Field: "timeSpent", Error: "gte"})
	}

	return s.transition(ctx, executionID, s.studentOnly(userID), func(e *model.TestExecution, d *model.TestData, now time.Time) error {
		if err := e.Status.RequireInProgress(); err != nil {
			return err
		}
		idx := d.ResponseIndex(req.QuestionID)
		if idx < 0 {
			return apperror.NotFound("question", req.QuestionID)
		}
		answer := req.Answer
		r := &d.Responses[idx]
		r.StudentAnswer = &answer
		r.TimeSpent = req.TimeSpent
		grading.GradeResponse(d.Questions[idx], r)

		if s.autoComplete && d.AllAnswered() {
			return s.finish(e, d, now)
		}
		return nil
	})
}

func (s *executionService) SubmitAllAnswers(ctx context.Context, executionID, userID uint, req dto.SubmitAllAnswersDTO) (*dto.ExecutionResponseDTO, error) {
	fieldErrs := s.validateResponses(req.Responses)

	return s.transition(ctx, executionID, s.studentOnly(userID), func(e *model.TestExecution, d *model.TestData, now time.Time) error {
		if err := e.Status.RequireInProgress(); err != nil {
			return err
		}
		if len(req.Responses) == 0 {
			return apperror.Validation("At least one response is required", apperror.FieldError{Field: "responses", Error: "min"})
		}
		// 1. Collect every item problem before touching the document
		errs := append([]apperror.FieldError(nil), fieldErrs...)
		for i, item := range req.Responses {
			if item.QuestionID != nil && *item.QuestionID > 0 && d.ResponseIndex(*item.QuestionID) < 0 {
				errs = append(errs, apperror.FieldError{
					Field: fmt.Sprintf("responses[%d].questionId", i),
					Error: "not part of this test",
				})
			}
		}
		if len(errs) > 0 {
			return apperror.Validation("Invalid responses", errs...)
		}

		// 2. Record and grade each answer, later items win on duplicates
		for _, item := range req.Responses {
			idx := d.ResponseIndex(*item.QuestionID)
			answer := *item.Answer
			r := &d.Responses[idx]
			r.StudentAnswer = &answer
			r.TimeSpent = int(math.Round(*item.TimeTaken))
			grading.GradeResponse(d.Questions[idx], r)
		}
		// 3. Close the answering window and maybe finish
		end := now
		if req.EndTime != nil {
			end = req.EndTime.UTC()
		}
		d.Timing.EndTime = &end

		if s.autoComplete && d.AllAnswered() {
			return s.finish(e, d, now)
		}
		return nil
	})
}

func (s *executionService) validateResponses(items []dto.SubmittedResponseDTO) []apperror.FieldError {
	var out []apperror.FieldError
	for i := range items {
		err := s.validate.Struct(items[i])
		if err == nil {
			continue
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			out = append(out, apperror.FieldError{Field: fmt.Sprintf("responses[%d]", i), Error: err.Error()})
			continue
		}
		for _, fe := range verrs {
			out = append(out, apperror.FieldError{
				Field: fmt.Sprintf("responses[%d].%s", i, fe.Field()),
				Error: fe.Tag(),
			})
		}
	}
	return out
}

func (s *executionService) CompleteExecution(ctx context.Context, executionID, userID uint) (*dto.CompleteExecutionDTO, error) {
	resp, err := s.transition(ctx, executionID, s.studentOnly(userID), func(e *model.TestExecution, d *model.TestData, now time.Time) error {
		return s.finish(e, d, now)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Uint("executionID", executionID).Int("score", *resp.Score).Msg("Execution completed")
	return &dto.CompleteExecutionDTO{Execution: *resp, TestData: resp.TestData}, nil
}

// CalculateAndUpdateTestScore re-grades every response from scratch. The
// score column is only written for completed executions; other statuses get
// the refreshed verdicts and a computed, unpersisted score.
func (s *executionService) CalculateAndUpdateTestScore(ctx context.Context, executionID, userID uint) (*dto.ScoreResultDTO, error) {
	var summary grading.Summary
	_, err := s.transition(ctx, executionID, s.studentOnly(userID), func(e *model.TestExecution, d *model.TestData, _ time.Time) error {
		sum, err := grading.GradeAll(d)
		if err != nil {
			return err
		}
		summary = sum
		if e.Status == model.StatusCompleted {
			score := sum.Score
			e.Score = &score
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.ScoreResultDTO{
		ExecutionID:    executionID,
		TotalQuestions: summary.TotalQuestions,
		Answered:       summary.Answered,
		CorrectAnswers: summary.Correct,
		Score:          summary.Score,
	}, nil
}

func (s *executionService) GetExecutionResults(ctx context.Context, executionID, userID uint) (*dto.ExecutionResultsDTO, error) {
	execution, err := s.load(ctx, executionID, s.studentOrPlanner(userID))
	if err != nil {
		return nil, err
	}
	if execution.Status != model.StatusCompleted {
		return nil, apperror.Validation("Results are only available after completing the test")
	}
	data, err := s.document(execution)
	if err != nil {
		return nil, err
	}

	results := &dto.ExecutionResultsDTO{
		ExecutionID:    execution.ID,
		TotalQuestions: len(data.Questions),
		CompletedAt:    execution.CompletedAt,
		Questions:      make([]dto.QuestionResultDTO, len(data.Questions)),
	}
	if execution.Score != nil {
		results.Score = *execution.Score
	}
	for i := range data.Questions {
		r := data.Responses[i]
		if r.IsCorrect != nil && *r.IsCorrect {
			results.CorrectAnswers++
		}
		results.Questions[i] = dto.QuestionResultDTO{Question: data.Questions[i], Response: r}
	}
	return results, nil
}

// ReviewExecution adds a tutor-style explanation to every incorrect answer.
// Explanation failures are logged and leave the entry without one.
func (s *executionService) ReviewExecution(ctx context.Context, executionID, userID uint) (*dto.ExecutionResultsDTO, error) {
	results, err := s.GetExecutionResults(ctx, executionID, userID)
	if err != nil {
		return nil, err
	}
	if s.llm == nil || !s.llm.Enabled() {
		return results, nil
	}
	for i := range results.Questions {
		item := &results.Questions[i]
		if item.Response.IsCorrect == nil || *item.Response.IsCorrect || item.Response.StudentAnswer == nil {
			continue
		}
		explanation, err := s.llm.ExplainAnswer(ctx, item.Question, *item.Response.StudentAnswer)
		if err != nil {
			log.Warn().Err(err).Uint("executionID", executionID).Uint("questionID", item.Question.ID).Msg("Skipping explanation")
			continue
		}
		item.Explanation = explanation
	}
	return results, nil
}

// finish grades the whole document and moves e to COMPLETED. Score, status
// and completion time end up in the same write.
func (s *executionService) finish(e *model.TestExecution, d *model.TestData, now time.Time) error {
	if _, err := e.Status.Next(model.ActionComplete); err != nil {
		return err
	}
	sum, err := grading.GradeAll(d)
	if err != nil {
		return err
	}
	if err := e.Apply(model.ActionComplete, now); err != nil {
		return err
	}
	if d.Timing.EndTime == nil {
		d.Timing.EndTime = &now
	}
	score := sum.Score
	e.Score = &score
	return nil
}

type mutation func(e *model.TestExecution, d *model.TestData, now time.Time) error

// transition loads the execution, applies fn to it and its document, and
// writes both back under the version check. A lost race re-reads and
// re-applies fn up to maxRetries times.
func (s *executionService) transition(ctx context.Context, executionID uint, access accessFn, fn mutation) (*dto.ExecutionResponseDTO, error) {
	for attempt := 1; ; attempt++ {
		// 1. Read a fresh copy and check access
		execution, err := s.load(ctx, executionID, access)
		if err != nil {
			return nil, err
		}
		data, err := s.document(execution)
		if err != nil {
			return nil, err
		}
		// 2. Apply the change in memory
		if err := fn(execution, &data, s.now()); err != nil {
			return nil, publicError(err)
		}
		execution.SetData(data)

		// 3. Write it back only if nobody else wrote in between
		err = s.executionRepo.Update(ctx, execution)
		if err == nil {
			return toExecutionDTO(execution)
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			log.Error().Err(err).Uint("executionID", executionID).Msg("Failed to save execution")
			return nil, err
		}
		if attempt >= s.maxRetries {
			log.Warn().Uint("executionID", executionID).Int("attempts", attempt).Msg("Giving up after repeated version conflicts")
			return nil, apperror.Conflict("The test was changed by another request, please try again")
		}
		log.Debug().Uint("executionID", executionID).Int("attempt", attempt).Msg("Version conflict, retrying")
	}
}

func (s *executionService) load(ctx context.Context, executionID uint, access accessFn) (*model.TestExecution, error) {
	execution, err := s.executionRepo.FindByID(ctx, executionID)
	if err != nil {
		if apperror.IsInternal(err) {
			log.Error().Err(err).Uint("executionID", executionID).Msg("Failed to load execution")
		}
		return nil, err
	}
	if err := access(ctx, execution); err != nil {
		return nil, err
	}
	return execution, nil
}

func (s *executionService) document(e *model.TestExecution) (model.TestData, error) {
	data := e.Data()
	if err := data.Validate(); err != nil {
		log.Error().Err(err).Uint("executionID", e.ID).Msg("Execution holds a corrupt test document")
		return model.TestData{}, errors.Wrapf(err, "execution %d has a corrupt test document", e.ID)
	}
	return data, nil
}

// publicError turns state machine rejections into validation errors that
// carry the precondition message.
func publicError(err error) error {
	var te *model.TransitionError
	if errors.As(err, &te) {
		return apperror.Validation(te.Message)
	}
	return err
}

func toExecutionDTO(e *model.TestExecution) (*dto.ExecutionResponseDTO, error) {
	var resp dto.ExecutionResponseDTO
	if err := copier.Copy(&resp, e); err != nil {
		log.Error().Err(err).Uint("executionID", e.ID).Msg("Failed to copy TestExecution model to DTO")
		return nil, err
	}
	resp.TestData = e.Data()
	return &resp, nil
}
