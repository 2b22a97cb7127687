// Package controller holds helpers shared by the admin and user HTTP
// controllers.
package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/lshigami/tutorlab/internal/apperror"
	"github.com/lshigami/tutorlab/internal/dto"
	"github.com/lshigami/tutorlab/internal/middleware"
)

// RespondError writes err with the status its type maps to. Internal
// errors only expose their text outside release mode.
func RespondError(ctx *gin.Context, err error) {
	status := apperror.StatusCode(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).
			Str("request_id", ctx.GetString("requestID")).
			Str("method", ctx.Request.Method).
			Str("path", ctx.FullPath()).
			Msg("Request failed")
		resp := dto.ErrorResponse{Message: "Internal server error"}
		if gin.Mode() != gin.ReleaseMode {
			resp.Details = []string{err.Error()}
		}
		ctx.JSON(status, resp)
		return
	}

	resp := dto.ErrorResponse{Message: err.Error()}
	var ve *apperror.ValidationError
	if errors.As(err, &ve) {
		resp.Message = ve.Message
		for _, f := range ve.Fields {
			resp.Details = append(resp.Details, f.Field+": "+f.Error)
		}
	}
	ctx.JSON(status, resp)
}

// BindError answers 400 for a body that failed ShouldBindJSON.
func BindError(ctx *gin.Context, err error) {
	log.Warn().Err(err).Str("request_id", ctx.GetString("requestID")).Str("path", ctx.FullPath()).Msg("Failed to bind JSON")
	ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
}

// ParseID reads a positive numeric path parameter. It answers 400 and
// returns false otherwise.
func ParseID(ctx *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || v == 0 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + name + " format"})
		return 0, false
	}
	return uint(v), true
}

// CurrentUser returns the authenticated caller or answers 401.
func CurrentUser(ctx *gin.Context) (uint, bool) {
	id, ok := middleware.UserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "missing or invalid token"})
		return 0, false
	}
	return id, true
}
