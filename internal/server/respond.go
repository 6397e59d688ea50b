package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mgpai22/whisperburn/internal/pipeline"
)

type errorResponse struct {
	Stage string `json:"stage,omitempty"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

func statusFor(kind pipeline.Kind) int {
	switch kind {
	case pipeline.KindValidation:
		return http.StatusBadRequest
	case pipeline.KindMissingInput:
		return http.StatusConflict
	case pipeline.KindResourceExhausted:
		return http.StatusServiceUnavailable
	case pipeline.KindExternalProcess:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {stage, kind, error} with the status its kind
// maps to.
func (s *Server) respondError(c *gin.Context, err error) {
	var status int
	body := errorResponse{Error: err.Error()}

	switch {
	case errors.Is(err, errSessionNotFound):
		status = http.StatusNotFound
		body.Kind = "not_found"
	case errors.Is(err, errSessionBusy):
		status = http.StatusConflict
		body.Kind = "busy"
	default:
		kind := pipeline.KindOf(err)
		status = statusFor(kind)
		body.Kind = kind.String()
		body.Stage = string(pipeline.StageOf(err))
	}

	if status >= http.StatusInternalServerError {
		s.log.Errorw("request failed", "path", c.FullPath(), "status", status, "error", err)
	} else {
		s.log.Infow("request rejected", "path", c.FullPath(), "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(format string, args ...any) error {
	return &pipeline.Error{Stage: pipeline.StageValidate, Kind: pipeline.KindValidation, Err: fmt.Errorf(format, args...)}
}

func missingInput(format string, args ...any) error {
	return &pipeline.Error{Stage: pipeline.StageValidate, Kind: pipeline.KindMissingInput, Err: fmt.Errorf(format, args...)}
}
