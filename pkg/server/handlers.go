package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"mercator-hq/saturn/pkg/costs/report"
	"mercator-hq/saturn/pkg/export"
	"mercator-hq/saturn/pkg/server/middleware"
	"mercator-hq/saturn/pkg/telemetry/logging"
)

const uploadField = "file"

func accountID(r *http.Request) string {
	if id := logging.GetAccountID(r.Context()); id != "" {
		return id
	}
	return middleware.DefaultAccountID
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return &RequestError{Message: "invalid JSON body", Cause: err}
	}
	return nil
}

// currentReport returns the latest assembled report, fetching the default
// window when nothing has been assembled yet.
func (s *Server) currentReport(ctx context.Context) (*report.CostReport, error) {
	if latest := s.deps.Reports.Latest(); latest != nil {
		return latest, nil
	}
	return s.deps.Reports.GetCostData(ctx, report.Window{})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"validated": s.deps.Reports.Identity() != nil,
		"timestamp": s.now().Unix(),
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	id, err := s.deps.Reports.Validate(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"valid":    true,
		"identity": id,
	})
}

func (s *Server) handleGetCosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	window := report.Window{Start: q.Get("start"), End: q.Get("end")}

	rep, err := s.deps.Reports.GetCostData(r.Context(), window)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	data, err := readUpload(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rep, err := s.deps.Reports.IngestCSV(data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

// readUpload returns the CSV payload from a multipart "file" field or the
// raw request body.
func readUpload(r *http.Request) ([]byte, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return io.ReadAll(r.Body)
	}

	file, _, err := r.FormFile(uploadField)
	if err != nil {
		return nil, &RequestError{Message: fmt.Sprintf("multipart field %q is required", uploadField), Cause: err}
	}
	defer file.Close()
	return io.ReadAll(file)
}

func (s *Server) handleCacheFlush(w http.ResponseWriter, r *http.Request) {
	s.deps.Reports.Flush()
	s.writeJSON(w, http.StatusOK, map[string]bool{"flushed": true})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"costs":  s.deps.Reports.CacheStats(),
		"shares": s.deps.Shares.Stats(),
	})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	detailed, _ := strconv.ParseBool(r.URL.Query().Get("detailed"))

	rep, err := s.currentReport(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.NewCSVExporter(detailed).Export(r.Context(), rep.Services, &buf); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, s.exportName("csv")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	rep, err := s.currentReport(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	snap := export.NewSnapshot(rep, true, s.now())
	if err := export.NewJSONExporter(true).Export(r.Context(), snap, &buf); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, s.exportName("json")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) exportName(ext string) string {
	return fmt.Sprintf("saturn-costs-%s.%s", s.now().UTC().Format("2006-01-02"), ext)
}
