package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lshigami/tutorlab/internal/controller"
	"github.com/lshigami/tutorlab/internal/dto"
	"github.com/lshigami/tutorlab/internal/service"
)

type PlanController struct {
	planService      service.TestPlanService
	executionService service.ExecutionService
}

func NewPlanController(planService service.TestPlanService, executionService service.ExecutionService) *PlanController {
	return &PlanController{planService: planService, executionService: executionService}
}

func (c *PlanController) RegisterRoutes(rg *gin.RouterGroup) {
	plans := rg.Group("/plans")
	plans.POST("", c.CreatePlan)
	plans.GET("", c.ListPlans)
	plans.GET("/:planId", c.GetPlan)
	plans.PATCH("/:planId", c.UpdatePlan)
	plans.POST("/:planId/executions", c.CreateExecution)
	plans.GET("/:planId/executions", c.ListExecutions)
}

// CreatePlan godoc
// @Summary Create a test plan for a student
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body dto.PlanCreateDTO true "Plan data"
// @Success 201 {object} dto.PlanResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 401 {object} dto.ErrorResponse "Missing or invalid token"
// @Router /plans [post]
func (c *PlanController) CreatePlan(ctx *gin.Context) {
	userID, ok := controller.CurrentUser(ctx)
	if !ok {
		return
	}
	var req dto.PlanCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}
	resp, err := c.planService.CreatePlan(ctx.Request.Context(), userID, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// ListPlans godoc
// @Summary List the plans the caller takes or created
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.PlanResponseDTO
// @Router /plans [get]
func (c *PlanController) ListPlans(ctx *gin.Context) {
	userID, ok := controller.CurrentUser(ctx)
	if !ok {
		return
	}
	plans, err := c.planService.ListPlans(ctx.Request.Context(), userID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, plans)
}

// GetPlan godoc
// @Summary Get a test plan
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param planId path int true "Plan ID"
// @Success 200 {object} dto.PlanResponseDTO
// @Failure 403 {object} dto.ErrorResponse "Not allowed"
// @Failure 404 {object} dto.ErrorResponse "Plan not found"
// @Router /plans/{planId} [get]
func (c *PlanController) GetPlan(ctx *gin.Context) {
	userID, ok := controller.CurrentUser(ctx)
	if !ok {
		return
	}
	planID, ok := controller.ParseID(ctx, "planId")
	if !ok {
		return
	}
	resp, err := c.planService.GetPlan(ctx.Request.Context(), planID, userID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// UpdatePlan godoc
// @Summary Update a plan's title and description
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param planId path int true "Plan ID"
// @Param plan body dto.PlanUpdateDTO true "New metadata"
// @Success 200 {object} dto.PlanResponseDTO
// @Failure 403 {object} dto.ErrorResponse "Only the creator may edit a plan"
// @Failure 404 {object} dto.ErrorResponse "Plan not found"
// @Router /plans/{planId} [patch]
func (c *PlanController) UpdatePlan(ctx *gin.Context) {
	userID, ok := controller.CurrentUser(ctx)
	if !ok {
		return
	}
	planID, ok := controller.ParseID(ctx, "planId")
	if !ok {
		return
	}
	var req dto.PlanUpdateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}
	resp, err := c.planService.UpdatePlanMetadata(ctx.Request.Context(), planID, userID, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// CreateExecution godoc
// @Summary Start a new attempt at a plan
// @Description Snapshots the plan's questions into a new execution. When the plan already has an unfinished execution that one is returned with 200.
// @Tags Executions
// @Produce json
// @Security BearerAuth
// @Param planId path int true "Plan ID"
// @Success 201 {object} dto.ExecutionResponseDTO "Execution created"
// @Success 200 {object} dto.ExecutionResponseDTO "Existing unfinished execution"
// @Failure 400 {object} dto.ErrorResponse "No questions available"
// @Failure 403 {object} dto.ErrorResponse "Not allowed"
// @Failure 404 {object} dto.ErrorResponse "Plan not found"
// @Router /plans/{planId}/executions [post]
func (c *PlanController) CreateExecution(ctx *gin.Context) {
	userID, ok := controller.CurrentUser(ctx)
	if !ok {
		return
	}
	planID, ok := controller.ParseID(ctx, "planId")
	if !ok {
		return
	}
	resp, created, err := c.executionService.CreateExecution(ctx.Request.Context(), planID, userID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ctx.JSON(status, resp)
}

// ListExecutions godoc
// @Summary List every attempt at a plan
// @Tags Executions
// @Produce json
// @Security BearerAuth
// @Param planId path int true "Plan ID"
// @Success 200 {array} dto.ExecutionSummaryDTO
// @Failure 403 {object} dto.ErrorResponse "Not allowed"
// @Failure 404 {object} dto.ErrorResponse "Plan not found"
// @Router /plans/{planId}/executions [get]
func (c *PlanController) ListExecutions(ctx *gin.Context) {
	userID, ok := controller.CurrentUser(ctx)
	if !ok {
		return
	}
	planID, ok := controller.ParseID(ctx, "planId")
	if !ok {
		return
	}
	list, err := c.executionService.ListExecutionsForPlan(ctx.Request.Context(), planID, userID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, list)
}
