package user_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/lshigami/tutorlab/config"
	"github.com/lshigami/tutorlab/internal/controller/admin"
	"github.com/lshigami/tutorlab/internal/controller/user"
	"github.com/lshigami/tutorlab/internal/database"
	"github.com/lshigami/tutorlab/internal/dto"
	"github.com/lshigami/tutorlab/internal/middleware"
	"github.com/lshigami/tutorlab/internal/model"
	"github.com/lshigami/tutorlab/internal/repository"
	"github.com/lshigami/tutorlab/internal/service"
)

const (
	jwtSecret      = "controller-test-secret"
	student   uint = 7
	tutor     uint = 3
	stranger  uint = 42
)

type api struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	cfg := &config.Config{Execution: config.Execution{AutoComplete: true, MaxWriteRetries: 3}}
	questionRepo := repository.NewQuestionRepository(db)
	planRepo := repository.NewTestPlanRepository(db)
	executionRepo := repository.NewTestExecutionRepository(db)
	llm, err := service.NewGeminiLLMService(cfg)
	require.NoError(t, err)

	questionSvc := service.NewQuestionService(questionRepo)
	planSvc := service.NewTestPlanService(planRepo)
	executionSvc := service.NewExecutionService(planRepo, questionRepo, executionRepo, llm, cfg)

	router := gin.New()
	router.Use(middleware.RequestID())
	v1 := router.Group("/api/v1", middleware.NewAuthMiddleware(jwtSecret).RequireAuth())
	admin.NewQuestionController(questionSvc).RegisterRoutes(v1)
	user.NewPlanController(planSvc, executionSvc).RegisterRoutes(v1)
	user.NewExecutionController(executionSvc).RegisterRoutes(v1)

	return &api{t: t, router: router, db: db}
}

func token(t *testing.T, userID uint) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return s
}

func (a *api) do(userID uint, method, path string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+token(a.t, userID))
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// seed stores four questions in subtopic 10 and a plan for student.
func (a *api) seed() uint {
	a.t.Helper()
	answers := []string{"4", "Paris", "Oxygen", "Jupiter"}
	for i, ans := range answers {
		w := a.do(tutor, http.MethodPost, "/questions", dto.QuestionCreateDTO{
			TopicID: 1, SubtopicID: 10, Text: fmt.Sprintf("Question %d", i+1),
			Difficulty: 1, CorrectAnswer: &ans,
		})
		require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	}
	w := a.do(tutor, http.MethodPost, "/plans", dto.PlanCreateDTO{
		StudentID: student, Title: "General knowledge", TimingMode: "UNTIMED",
		SubtopicIDs: []uint{10}, TotalQuestions: 4,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.PlanResponseDTO](a.t, w).ID
}

func TestExecutionFlow(t *testing.T) {
	a := newAPI(t)
	planID := a.seed()
	plansPath := fmt.Sprintf("/plans/%d/executions", planID)

	w := a.do(student, http.MethodPost, plansPath, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	exec := decode[dto.ExecutionResponseDTO](t, w)
	assert.Equal(t, model.StatusNotStarted, exec.Status)
	assert.Len(t, exec.TestData.Responses, 4)

	w = a.do(tutor, http.MethodPost, plansPath, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, exec.ID, decode[dto.ExecutionResponseDTO](t, w).ID)

	base := fmt.Sprintf("/executions/%d", exec.ID)

	w = a.do(student, http.MethodPost, base+"/complete", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Test must be started first", decode[dto.ErrorResponse](t, w).Message)

	w = a.do(student, http.MethodPost, base+"/start", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = a.do(student, http.MethodPost, base+"/start", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[dto.ErrorResponse](t, w).Message, "already started")

	w = a.do(student, http.MethodGet, base+"/results", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[dto.ErrorResponse](t, w).Message, "only available after completing")

	w = a.do(student, http.MethodPost, base+"/answers", map[string]interface{}{"questionId": 999, "answer": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	qs := exec.TestData.Questions
	for i, ans := range []string{"4", "paris", "oxygen"} {
		w = a.do(student, http.MethodPost, base+"/answers", map[string]interface{}{"questionId": qs[i].ID, "answer": ans, "timeSpent": 10})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = a.do(student, http.MethodPost, base+"/calculate-score", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 75, decode[dto.ScoreResultDTO](t, w).Score)

	w = a.do(student, http.MethodPost, base+"/answers", map[string]interface{}{"questionId": qs[3].ID, "answer": "Mars"})
	require.Equal(t, http.StatusOK, w.Code)
	done := decode[dto.ExecutionResponseDTO](t, w)
	assert.Equal(t, model.StatusCompleted, done.Status)
	require.NotNil(t, done.Score)
	assert.Equal(t, 75, *done.Score)

	w = a.do(tutor, http.MethodGet, base+"/results", nil)
	require.Equal(t, http.StatusOK, w.Code)
	results := decode[dto.ExecutionResultsDTO](t, w)
	assert.Equal(t, 3, results.CorrectAnswers)
	assert.Equal(t, 75, results.Score)

	w = a.do(student, http.MethodGet, base+"/review", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(tutor, http.MethodGet, plansPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]dto.ExecutionSummaryDTO](t, w), 1)
}

func TestSubmitAllAnswersAndComplete(t *testing.T) {
	a := newAPI(t)
	planID := a.seed()

	w := a.do(student, http.MethodPost, fmt.Sprintf("/plans/%d/executions", planID), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	exec := decode[dto.ExecutionResponseDTO](t, w)
	base := fmt.Sprintf("/executions/%d", exec.ID)
	require.Equal(t, http.StatusOK, a.do(student, http.MethodPost, base+"/start", nil).Code)

	w = a.do(student, http.MethodPost, base+"/submitAllAnswers", map[string]interface{}{
		"responses": []map[string]interface{}{
			{"questionId": exec.TestData.Questions[0].ID, "answer": " ", "timeTaken": 3},
			{"answer": "Paris", "timeTaken": 3},
		},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	details := decode[dto.ErrorResponse](t, w).Details
	assert.Contains(t, details, "responses[0].answer: notblank")
	assert.Contains(t, details, "responses[1].questionId: required")

	w = a.do(student, http.MethodPost, base+"/submitAllAnswers", map[string]interface{}{
		"responses": []map[string]interface{}{
			{"questionId": exec.TestData.Questions[0].ID, "answer": "4", "timeTaken": 3.2},
			{"questionId": exec.TestData.Questions[1].ID, "answer": "Rome", "timeTaken": 8},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	partial := decode[dto.ExecutionResponseDTO](t, w)
	assert.Equal(t, model.StatusInProgress, partial.Status)

	w = a.do(student, http.MethodPost, base+"/complete", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Execution dto.ExecutionResponseDTO `json:"execution"`
		TestData  model.TestData           `json:"testData"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, model.StatusCompleted, body.Execution.Status)
	assert.Equal(t, 25, *body.Execution.Score)
	assert.Len(t, body.TestData.Responses, 4)
}

func TestAccessControl(t *testing.T) {
	a := newAPI(t)
	planID := a.seed()

	assert.Equal(t, http.StatusUnauthorized, a.do(0, http.MethodGet, "/plans", nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(student, http.MethodGet, "/plans/abc", nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(student, http.MethodGet, "/plans/999", nil).Code)

	w := a.do(stranger, http.MethodPost, fmt.Sprintf("/plans/%d/executions", planID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "you are not allowed to access this resource", decode[dto.ErrorResponse](t, w).Message)

	w = a.do(student, http.MethodPost, fmt.Sprintf("/plans/%d/executions", planID), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	exec := decode[dto.ExecutionResponseDTO](t, w)

	w = a.do(stranger, http.MethodGet, fmt.Sprintf("/executions/%d", exec.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	forbidden := decode[dto.ErrorResponse](t, w)
	assert.Equal(t, "you are not allowed to access this resource", forbidden.Message)
	assert.Empty(t, forbidden.Details)
	assert.NotContains(t, w.Body.String(), strconv.FormatUint(uint64(exec.ID), 10))

	assert.Equal(t, http.StatusForbidden, a.do(tutor, http.MethodPost, fmt.Sprintf("/executions/%d/start", exec.ID), nil).Code)
	w = a.do(tutor, http.MethodPost, fmt.Sprintf("/executions/%d/abandon", exec.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, forbidden, decode[dto.ErrorResponse](t, w))
	assert.Equal(t, http.StatusOK, a.do(tutor, http.MethodGet, fmt.Sprintf("/executions/%d", exec.ID), nil).Code)

	w = a.do(student, http.MethodPatch, fmt.Sprintf("/plans/%d", planID), dto.PlanUpdateDTO{Title: "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = a.do(tutor, http.MethodPatch, fmt.Sprintf("/plans/%d", planID), dto.PlanUpdateDTO{Title: "Renamed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Renamed", decode[dto.PlanResponseDTO](t, w).Title)

	var stored model.TestPlan
	require.NoError(t, a.db.WithContext(context.Background()).First(&stored, planID).Error)
	assert.Equal(t, "Renamed", stored.Title)
	assert.Equal(t, model.PlanConfig{SubtopicIDs: []uint{10}, TotalQuestions: 4}, stored.Config.Data())
}

func TestUndecodableTestDataIsInternal(t *testing.T) {
	a := newAPI(t)
	planID := a.seed()

	w := a.do(student, http.MethodPost, fmt.Sprintf("/plans/%d/executions", planID), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	exec := decode[dto.ExecutionResponseDTO](t, w)
	require.NoError(t, a.db.Exec("UPDATE test_executions SET test_data = ? WHERE id = ?", "{not json", exec.ID).Error)

	for _, path := range []string{"", "/start", "/results"} {
		method := http.MethodGet
		if path == "/start" {
			method = http.MethodPost
		}
		w = a.do(student, method, fmt.Sprintf("/executions/%d%s", exec.ID, path), nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
		assert.Equal(t, "Internal server error", decode[dto.ErrorResponse](t, w).Message, path)
	}

	var stored model.TestExecution
	require.NoError(t, a.db.Select("status").First(&stored, exec.ID).Error)
	assert.Equal(t, model.StatusNotStarted, stored.Status)
}
