package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/airsat/core"
	"github.com/rushteam/airsat/metrics"
)

// Health 探活：推理服务可用时返回 200
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Health(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// PredictSatisfaction 处理 POST /predict/satisfaction。
// 请求体是一条平铺的 JSON 记录（特征名 -> 未编码的值），响应 {"probability", "class"}。
func (s *Server) PredictSatisfaction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	record, err := s.decodeRecord(w, r)
	if err != nil {
		metrics.RecordPredictionError(core.ErrorCodeInvalidInput)
		respondError(w, r, err)
		return
	}
	pred, err := s.svc.Predict(r.Context(), record)
	if err != nil {
		_, code, _ := classify(err)
		metrics.RecordPredictionError(code)
		respondError(w, r, err)
		return
	}
	metrics.RecordPrediction(pred.Class, time.Since(start))
	respondJSON(w, http.StatusOK, pred)
}

// decodeRecord 解析请求体为单个 JSON 对象，数字保留为 json.Number 交给编码器转换
func (s *Server) decodeRecord(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var record map[string]any
	if err := dec.Decode(&record); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, core.Errorf(core.ModuleAPI, core.ErrorCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, core.Wrap(core.ModuleAPI, core.ErrorCodeInvalidInput, err, "request body must be a JSON object")
	}
	if record == nil {
		return nil, core.NewDomainError(core.ModuleAPI, core.ErrorCodeInvalidInput, "request body must be a JSON object")
	}
	if dec.More() {
		return nil, core.NewDomainError(core.ModuleAPI, core.ErrorCodeInvalidInput, "request body must hold a single record")
	}
	return record, nil
}
