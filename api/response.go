package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/rushteam/airsat/core"
	"github.com/rushteam/airsat/logging"
)

// APIError 错误响应体中的 error 字段
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type errorResponse struct {
	Error APIError `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

// respondError 按领域错误码选择状态码并写出结构化错误
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classify(err)
	ev := logging.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		ev = logging.Ctx(r.Context()).Error()
	}
	ev.Err(err).Str("code", code).Msg("request rejected")

	respondJSON(w, status, errorResponse{Error: APIError{
		Code:      code,
		Message:   message,
		RequestID: logging.RequestIDFromContext(r.Context()),
	}})
}

// classify 客户端数据问题返回 400，其余视为服务端错误且不暴露内部细节
func classify(err error) (status int, code, message string) {
	de := core.GetDomainError(err)
	if de == nil {
		return http.StatusInternalServerError, core.ErrorCodeInternalError, "internal error"
	}
	switch de.Code {
	case core.ErrorCodeUnknownCategory, core.ErrorCodeMissingFeature,
		core.ErrorCodeInvalidInput, core.ErrorCodeShapeMismatch:
		return http.StatusBadRequest, de.Code, de.Message
	default:
		return http.StatusInternalServerError, de.Code, "internal error"
	}
}
