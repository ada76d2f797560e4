package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/pkg/logging"
	"github.com/rushteam/novelrec/profile"
	"github.com/rushteam/novelrec/recommend"
)

// maxBodyBytes 请求体上限
const maxBodyBytes = 1 << 20

// RecommendRequest 是 POST /api/v1/recommendations 的请求体。
//
// 未知的性别、职业、阅读时长取值不会被拒绝，它们只是不贡献标签；未知的勾选标签会被丢弃。
type RecommendRequest struct {
	UserID       string   `json:"user_id" validate:"max=128"`
	Gender       string   `json:"gender" validate:"max=32"`
	BirthYear    int      `json:"birth_year" validate:"gte=0,lte=9999"`
	Occupation   string   `json:"occupation" validate:"max=32"`
	ReadingTime  string   `json:"reading_time" validate:"max=32"`
	FavoriteTags []string `json:"favorite_tags" validate:"max=64,dive,max=64"`
	Platforms    []string `json:"platforms" validate:"max=64,dive,max=64"`
	Size         *int     `json:"size" validate:"omitempty,lte=1000"`
}

// Demographics 转为领域输入。
func (r *RecommendRequest) Demographics() core.Demographics {
	return core.Demographics{
		Gender:       core.Gender(strings.TrimSpace(r.Gender)),
		BirthYear:    r.BirthYear,
		Occupation:   core.Occupation(strings.TrimSpace(r.Occupation)),
		ReadingTime:  core.ReadingTime(strings.TrimSpace(r.ReadingTime)),
		FavoriteTags: profile.NormalizeTags(r.FavoriteTags),
		Platforms:    r.Platforms,
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, core.ErrorCodeInvalidInput, "invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		msg := err.Error()
		if errors.As(err, &verrs) && len(verrs) > 0 {
			msg = "invalid field " + verrs[0].Field() + ": " + verrs[0].Tag()
		}
		respondError(w, http.StatusBadRequest, core.ErrorCodeInvalidInput, msg)
		return
	}

	resp, err := s.rec.Recommend(r.Context(), recommend.Request{
		RequestID:    chimiddleware.GetReqID(r.Context()),
		UserID:       req.UserID,
		Demographics: req.Demographics(),
		Size:         req.Size,
	})
	if err != nil {
		status, code := statusOf(err)
		logging.Ctx(r.Context()).Warn().Err(err).Int("status", status).Msg("recommend request failed")
		respondError(w, status, code, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.catalog == nil || s.catalog.Len() == 0 {
		respondError(w, http.StatusServiceUnavailable, core.ErrorCodeUnavailable, "catalog not loaded")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready", "novels": s.catalog.Len()})
}

// statusOf 把错误映射到 HTTP 状态码与错误码。
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	case errors.Is(err, context.Canceled):
		// 客户端已断开，状态码只用于日志
		return 499, "CANCELLED"
	case core.IsInvalidInput(err):
		return http.StatusBadRequest, core.ErrorCodeInvalidInput
	case core.IsNotFound(err):
		return http.StatusNotFound, core.ErrorCodeNotFound
	case core.IsUnavailable(err):
		return http.StatusServiceUnavailable, core.ErrorCodeUnavailable
	}
	return http.StatusInternalServerError, core.ErrorCodeInternalError
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn().Err(err).Msg("write response failed")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}
