package server

import (
	"encoding/json"
	"net/http"
	"os"

	"go.uber.org/zap"

	"pmplanner/pkg/asset"
	"pmplanner/pkg/encoder"
	"pmplanner/pkg/plan"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "pmplanner backend is running!"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := s.logger.With(zap.String("request_id", RequestID(ctx)))

	format, err := encoder.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeDetail(w, err)
		return
	}

	a, err := asset.Decode(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		logger.Info("Rejected asset data", zap.Error(err))
		writeDetail(w, err)
		return
	}
	logger.Info("Plan requested",
		zap.String("format", string(format)),
		zap.String("asset", a.Name),
		zap.String("model", a.Model),
	)

	if s.reqlog != nil {
		s.reqlog.Append(ctx, a)
	}

	p, err := s.planner.Generate(ctx, a)
	if err != nil {
		logger.Error("Plan generation failed", zap.Error(err))
		writeJSON(w, http.StatusOK, encoder.ErrorEnvelope(err))
		return
	}

	switch format {
	case encoder.FormatExcel:
		s.serveExcel(w, r, p, logger)
	default:
		writeJSON(w, http.StatusOK, encoder.NewEnvelope(p))
	}
}

func (s *Server) serveExcel(w http.ResponseWriter, r *http.Request, p plan.Plan, logger *zap.Logger) {
	path, err := s.exporter.Export(p)
	if err != nil {
		logger.Error("Workbook export failed", zap.Error(err))
		writeJSON(w, http.StatusOK, encoder.ErrorEnvelope(err))
		return
	}
	defer s.exporter.Release(path)

	f, err := os.Open(path)
	if err != nil {
		logger.Error("Failed to open exported workbook", zap.Error(err))
		writeJSON(w, http.StatusOK, encoder.ErrorEnvelope(err))
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		writeJSON(w, http.StatusOK, encoder.ErrorEnvelope(err))
		return
	}

	w.Header().Set("Content-Type", encoder.ExcelMIME)
	w.Header().Set("Content-Disposition", `attachment; filename="`+encoder.ExcelFilename+`"`)
	http.ServeContent(w, r, encoder.ExcelFilename, info.ModTime(), f)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail reports a request validation failure.
func writeDetail(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
}
