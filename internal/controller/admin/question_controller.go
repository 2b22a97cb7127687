package admin

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lshigami/tutorlab/internal/controller"
	"github.com/lshigami/tutorlab/internal/dto"
	"github.com/lshigami/tutorlab/internal/service"
)

type QuestionController struct {
	questionService service.QuestionService
}

func NewQuestionController(questionService service.QuestionService) *QuestionController {
	return &QuestionController{questionService: questionService}
}

func (c *QuestionController) RegisterRoutes(rg *gin.RouterGroup) {
	questions := rg.Group("/questions")
	questions.POST("", c.CreateQuestion)
	questions.GET("", c.ListQuestions)
	questions.GET("/:id", c.GetQuestion)
}

// CreateQuestion godoc
// @Summary Add a question to the bank
// @Description Stores a question with its correct answer in plain and/or markup form.
// @Tags Questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param question body dto.QuestionCreateDTO true "Question data"
// @Success 201 {object} dto.QuestionResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 401 {object} dto.ErrorResponse "Missing or invalid token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /questions [post]
func (c *QuestionController) CreateQuestion(ctx *gin.Context) {
	userID, ok := controller.CurrentUser(ctx)
	if !ok {
		return
	}
	var req dto.QuestionCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}
	resp, err := c.questionService.CreateQuestion(ctx.Request.Context(), userID, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// GetQuestion godoc
// @Summary Get a bank question
// @Tags Questions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Question ID"
// @Success 200 {object} dto.QuestionResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid ID format"
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /questions/{id} [get]
func (c *QuestionController) GetQuestion(ctx *gin.Context) {
	if _, ok := controller.CurrentUser(ctx); !ok {
		return
	}
	id, ok := controller.ParseID(ctx, "id")
	if !ok {
		return
	}
	resp, err := c.questionService.GetQuestion(ctx.Request.Context(), id)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListQuestions godoc
// @Summary List bank questions of some subtopics
// @Description Questions are ordered by id, the same order executions snapshot them in.
// @Tags Questions
// @Produce json
// @Security BearerAuth
// @Param subtopic_ids query string true "Comma separated subtopic ids"
// @Param limit query int false "Maximum number of questions (default and cap 200)"
// @Success 200 {array} dto.QuestionResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid subtopic ids"
// @Router /questions [get]
func (c *QuestionController) ListQuestions(ctx *gin.Context) {
	if _, ok := controller.CurrentUser(ctx); !ok {
		return
	}
	var ids []uint
	for _, part := range strings.Split(ctx.Query("subtopic_ids"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseUint(part, 10, 64)
		if err != nil || v == 0 {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid subtopic_ids format"})
			return
		}
		ids = append(ids, uint(v))
	}
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "0"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid limit format"})
		return
	}
	resp, err := c.questionService.ListQuestionsBySubtopics(ctx.Request.Context(), ids, limit)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
