package user

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lshigami/tutorlab/internal/controller"
	"github.com/lshigami/tutorlab/internal/dto"
	"github.com/lshigami/tutorlab/internal/service"
)

type ExecutionController struct {
	executionService service.ExecutionService
}

func NewExecutionController(executionService service.ExecutionService) *ExecutionController {
	return &ExecutionController{executionService: executionService}
}

func (c *ExecutionController) RegisterRoutes(rg *gin.RouterGroup) {
	executions := rg.Group("/executions")
	executions.GET("/:id", c.GetExecution)
	executions.POST("/:id/start", c.StartExecution)
	executions.POST("/:id/pause", c.PauseExecution)
	executions.POST("/:id/resume", c.ResumeExecution)
	executions.POST("/:id/abandon", c.AbandonExecution)
	executions.POST("/:id/answers", c.SubmitAnswer)
	executions.POST("/:id/submitAllAnswers", c.SubmitAllAnswers)
	executions.POST("/:id/complete", c.CompleteExecution)
	executions.POST("/:id/calculate-score", c.CalculateScore)
	executions.GET("/:id/results", c.GetResults)
	executions.GET("/:id/review", c.ReviewExecution)
}

// withExecution resolves the caller and the :id parameter, then hands both
// to fn. It writes the response.
func (c *ExecutionController) withExecution(ctx *gin.Context, fn func(rc context.Context, executionID, userID uint) (interface{}, error)) {
	userID, ok := controller.CurrentUser(ctx)
	if !ok {
		return
	}
	executionID, ok := controller.ParseID(ctx, "id")
	if !ok {
		return
	}
	resp, err := fn(ctx.Request.Context(), executionID, userID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetExecution godoc
// @Summary Get an execution
// @Tags Executions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Execution ID"
// @Success 200 {object} dto.ExecutionResponseDTO
// @Failure 403 {object} dto.ErrorResponse "Not allowed"
// @Failure 404 {object} dto.ErrorResponse "Execution not found"
// @Router /executions/{id} [get]
func (c *ExecutionController) GetExecution(ctx *gin.Context) {
	c.withExecution(ctx, func(rc context.Context, id, userID uint) (interface{}, error) {
		return c.executionService.GetExecution(rc, id, userID)
	})
}

// StartExecution godoc
// @Summary Start an execution
// @Tags Executions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Execution ID"
// @Success 200 {object} dto.ExecutionResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Test already started"
// @Router /executions/{id}/start [post]
func (c *ExecutionController) StartExecution(ctx *gin.Context) {
	c.withExecution(ctx, func(rc context.Context, id, userID uint) (interface{}, error) {
		return c.executionService.StartExecution(rc, id, userID)
	})
}

// PauseExecution godoc
// @Summary Pause an execution
// @Tags Executions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Execution ID"
// @Success 200 {object} dto.ExecutionResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Test is not in progress"
// @Router /executions/{id}/pause [post]
func (c *ExecutionController) PauseExecution(ctx *gin.Context) {
	c.withExecution(ctx, func(rc context.Context, id, userID uint) (interface{}, error) {
		return c.executionService.PauseExecution(rc, id, userID)
	})
}

// ResumeExecution godoc
// @Summary Resume a paused execution
// @Tags Executions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Execution ID"
// @Success 200 {object} dto.ExecutionResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Test is not paused"
// @Router /executions/{id}/resume [post]
func (c *ExecutionController) ResumeExecution(ctx *gin.Context) {
	c.withExecution(ctx, func(rc context.Context, id, userID uint) (interface{}, error) {
		return c.executionService.ResumeExecution(rc, id, userID)
	})
}

// AbandonExecution godoc
// @Summary Abandon an unfinished execution
// @Tags Executions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Execution ID"
// @Success 200 {object} dto.ExecutionResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Test already completed"
// @Failure 403 {object} dto.ErrorResponse "Not the owning student"
// @Router /executions/{id}/abandon [post]
func (c *ExecutionController) AbandonExecution(ctx *gin.Context) {
	c.withExecution(ctx, func(rc context.Context, id, userID uint) (interface{}, error) {
		return c.executionService.AbandonExecution(rc, id, userID)
	})
}

// SubmitAnswer godoc
// @Summary Answer one question
// @Tags Executions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Execution ID"
// @Param answer body dto.SubmitAnswerDTO true "Answer"
// @Success 200 {object} dto.ExecutionResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Test is not in progress"
// @Failure 404 {object} dto.ErrorResponse "Question is not part of the execution"
// @Router /executions/{id}/answers [post]
func (c *ExecutionController) SubmitAnswer(ctx *gin.Context) {
	var req dto.SubmitAnswerDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}
	c.withExecution(ctx, func(rc context.Context, id, userID uint) (interface{}, error) {
		return c.executionService.SubmitAnswer(rc, id, userID, req)
	})
}

// SubmitAllAnswers godoc
// @Summary Submit every answer at once
// @Description Merges the responses into the execution and grades them. Every malformed entry is reported.
// @Tags Executions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Execution ID"
// @Param submission body dto.SubmitAllAnswersDTO true "End time and responses"
// @Success 200 {object} dto.ExecutionResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid responses or test not in progress"
// @Router /executions/{id}/submitAllAnswers [post]
func (c *ExecutionController) SubmitAllAnswers(ctx *gin.Context) {
	var req dto.SubmitAllAnswersDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}
	c.withExecution(ctx, func(rc context.Context, id, userID uint) (interface{}, error) {
		return c.executionService.SubmitAllAnswers(rc, id, userID, req)
	})
}

// CompleteExecution godoc
// @Summary Complete an execution and score it
// @Tags Executions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Execution ID"
// @Success 200 {object} dto.CompleteExecutionDTO
// @Failure 400 {object} dto.ErrorResponse "Test must be started first"
// @Router /executions/{id}/complete [post]
func (c *ExecutionController) CompleteExecution(ctx *gin.Context) {
	c.withExecution(ctx, func(rc context.Context, id, userID uint) (interface{}, error) {
		return c.executionService.CompleteExecution(rc, id, userID)
	})
}

// CalculateScore godoc
// @Summary Re-grade an execution
// @Tags Executions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Execution ID"
// @Success 200 {object} dto.ScoreResultDTO
// @Router /executions/{id}/calculate-score [post]
func (c *ExecutionController) CalculateScore(ctx *gin.Context) {
	c.withExecution(ctx, func(rc context.Context, id, userID uint) (interface{}, error) {
		return c.executionService.CalculateAndUpdateTestScore(rc, id, userID)
	})
}

// GetResults godoc
// @Summary Get the results of a completed execution
// @Tags Executions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Execution ID"
// @Success 200 {object} dto.ExecutionResultsDTO
// @Failure 400 {object} dto.ErrorResponse "Results are only available after completing the test"
// @Router /executions/{id}/results [get]
func (c *ExecutionController) GetResults(ctx *gin.Context) {
	c.withExecution(ctx, func(rc context.Context, id, userID uint) (interface{}, error) {
		return c.executionService.GetExecutionResults(rc, id, userID)
	})
}

// ReviewExecution godoc
// @Summary Results with an explanation for each wrong answer
// @Description Explanations are generated by Gemini when an API key is configured.
// @Tags Executions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Execution ID"
// @Success 200 {object} dto.ExecutionResultsDTO
// @Failure 400 {object} dto.ErrorResponse "Results are only available after completing the test"
// @Router /executions/{id}/review [get]
func (c *ExecutionController) ReviewExecution(ctx *gin.Context) {
	c.withExecution(ctx, func(rc context.Context, id, userID uint) (interface{}, error) {
		return c.executionService.ReviewExecution(rc, id, userID)
	})
}
