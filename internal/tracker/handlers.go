package tracker

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleStaticCSS serves the stylesheet
func (s *Server) handleStaticCSS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Write(appCSS)
}

// handleStaticJS serves the frontend script
func (s *Server) handleStaticJS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(appJS)
}

// handleAccessCheck verifies the root folder exists and is writable
func (s *Server) handleAccessCheck(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Root string `json:"root"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Root) == "" {
		corsError(w, "Missing root path", http.StatusBadRequest)
		return
	}
	if err := s.service.CheckAccess(req.Root); err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "error", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRun runs a scan-and-report cycle. The request is multipart so the
// optional master CDs list can come along as a file upload.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	// Master lists are small spreadsheets; 10MB is plenty
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		corsError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	root := strings.TrimSpace(r.FormValue("root"))
	if root == "" {
		corsError(w, "Missing root path", http.StatusBadRequest)
		return
	}

	var master *MasterIndex
	file, _, err := r.FormFile("master")
	switch {
	case err == nil:
		defer file.Close()
		master, err = LoadMaster(file)
		if err != nil {
			slog.Error("Error loading master file", "error", err)
			corsError(w, err.Error(), http.StatusBadRequest)
			return
		}
	case errors.Is(err, http.ErrMissingFile):
		// No master: run in per-invoice mode
	default:
		slog.Error("Error reading master upload", "error", err)
		corsError(w, "Error reading master file", http.StatusBadRequest)
		return
	}

	result, err := s.service.Run(root, master)
	if err != nil {
		if errors.Is(err, ErrNoFiles) {
			corsError(w, "No files found in the specified root", http.StatusUnprocessableEntity)
			return
		}
		slog.Error("Error generating report", "root", root, "error", err)
		corsError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"mode":          result.Report.Mode,
		"rows":          result.Report.Rows,
		"files_scanned": result.Report.FilesScanned,
		"csv":           result.CSVName,
		"parquet":       result.ParquetName,
		"manifest":      ManifestName,
		"run_id":        result.Manifest.RunID,
	})
}

// handleGetReport streams a generated artifact from the scanned root. Only
// bare report filenames are accepted so the handler cannot be walked out of
// the root folder.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	root := strings.TrimSpace(r.URL.Query().Get("root"))
	name := r.PathValue("name")
	if root == "" || name == "" {
		corsError(w, "Missing root or report name", http.StatusBadRequest)
		return
	}
	if name != filepath.Base(name) || !isReportArtifact(name) {
		corsError(w, "Invalid report name", http.StatusBadRequest)
		return
	}

	data, err := os.ReadFile(filepath.Join(root, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			corsError(w, "Report not found", http.StatusNotFound)
			return
		}
		slog.Error("Error reading report", "name", name, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	switch {
	case strings.HasSuffix(name, ".csv"):
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	case strings.HasSuffix(name, ".json"):
		w.Header().Set("Content-Type", "application/json")
	default:
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	w.Write(data)
}

// isReportArtifact accepts only the filenames this tool generates.
func isReportArtifact(name string) bool {
	if name == ManifestName {
		return true
	}
	if !strings.HasPrefix(name, "report_") {
		return false
	}
	return strings.HasSuffix(name, ".csv") ||
		strings.HasSuffix(name, ".parquet") ||
		strings.HasSuffix(name, ".sha256")
}
