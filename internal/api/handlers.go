package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/voxlate/voxlate/internal/jobs"
	"github.com/voxlate/voxlate/internal/segmenter"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type subtitlesRequest struct {
	Transcript string           `json:"transcript"`
	Words      []segmenter.Word `json:"words"`
}

func (s *Server) handleSubtitles(w http.ResponseWriter, r *http.Request) {
	var req subtitlesRequest
	if !decodePost(w, r, &req) {
		return
	}
	srt, err := s.svc.GenerateSubtitles(r.Context(), req.Transcript, req.Words)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"srt": srt})
}

type translateRequest struct {
	SRT        string `json:"srt"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.TargetLang == "" {
		writeError(w, http.StatusBadRequest, "target_lang is required")
		return
	}
	srt, err := s.svc.Translate(r.Context(), req.SRT, req.SourceLang, req.TargetLang)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"srt": srt})
}

type optimizeRequest struct {
	SRT string `json:"srt"`
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if !decodePost(w, r, &req) {
		return
	}
	units, err := s.svc.Optimize(r.Context(), req.SRT)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"units": units})
}

type narrateRequest struct {
	SRT   string `json:"srt"`
	Voice string `json:"voice"`
	Model string `json:"model"`
}

func (s *Server) handleNarrate(w http.ResponseWriter, r *http.Request) {
	var req narrateRequest
	if !decodePost(w, r, &req) {
		return
	}
	res, err := s.svc.Synthesize(r.Context(), req.SRT, req.Voice, req.Model)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type batchRequest struct {
	SRT     string `json:"srt"`
	BatchID string `json:"batch_id"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !decodeBatchPost(w, r, &req) {
		return
	}
	report, err := s.svc.Validate(r.Context(), req.SRT, req.BatchID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAdjust(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !decodeBatchPost(w, r, &req) {
		return
	}
	adjusted, err := s.svc.Adjust(r.Context(), req.SRT, req.BatchID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"adjusted_units": adjusted})
}

func (s *Server) handleCombine(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !decodeBatchPost(w, r, &req) {
		return
	}
	url, err := s.svc.Combine(r.Context(), req.SRT, req.BatchID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"track_url": url})
}

type dubRequest struct {
	SRT        string `json:"srt"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Voice      string `json:"voice"`
	Model      string `json:"model"`
}

// handleDub enqueues an asynchronous dubbing job; poll /v1/jobs for
// its result. Identical payloads collapse onto the same job while one
// is still in flight.
func (s *Server) handleDub(w http.ResponseWriter, r *http.Request) {
	var req dubRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.SRT == "" {
		writeError(w, http.StatusBadRequest, "srt is required")
		return
	}
	if req.TargetLang == "" {
		writeError(w, http.StatusBadRequest, "target_lang is required")
		return
	}

	payload := jobs.JobPayload{
		SRT:        req.SRT,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
		Voice:      req.Voice,
		Model:      req.Model,
	}
	job, created := s.queue.Enqueue(jobs.EnqueueRequest{
		Source:    "api",
		DedupeKey: dedupeKey(payload),
		Payload:   payload,
	})
	code := http.StatusCreated
	if !created {
		code = http.StatusOK
	}
	writeJSON(w, code, map[string]any{
		"created": created,
		"job":     job,
	})
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.queue.List())
}

func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing job id")
		return
	}
	job, ok := s.queue.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// dedupeKey fingerprints a dubbing payload so identical in-flight
// requests share one job.
func dedupeKey(p jobs.JobPayload) string {
	h := sha256.New()
	h.Write([]byte(p.SRT))
	h.Write([]byte{0})
	h.Write([]byte(p.SourceLang))
	h.Write([]byte{0})
	h.Write([]byte(p.TargetLang))
	h.Write([]byte{0})
	h.Write([]byte(p.Voice))
	h.Write([]byte{0})
	h.Write([]byte(p.Model))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func decodePost(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func decodeBatchPost(w http.ResponseWriter, r *http.Request, req *batchRequest) bool {
	if !decodePost(w, r, req) {
		return false
	}
	if req.BatchID == "" {
		writeError(w, http.StatusBadRequest, "batch_id is required")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
