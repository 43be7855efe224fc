package api

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"lucidaflow/pkg/errors"
	"lucidaflow/pkg/lucida"
)

// maxBodySize bounds JSON request bodies
const maxBodySize = 1 << 20

type searchRequest struct {
	Query   string `json:"query"`
	Service string `json:"service"`
	Limit   int    `json:"limit"`
}

type trackRequest struct {
	URL string `json:"url"`
}

type downloadRequest struct {
	URL        string `json:"url"`
	OutputPath string `json:"output_path"`
}

type downloadResponse struct {
	Success  bool    `json:"success"`
	Filepath string  `json:"filepath"`
	Size     int64   `json:"size"`
	SizeMB   float64 `json:"size_mb"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    Name,
		"version": Version,
		"endpoints": map[string]string{
			"GET /health":         "Health check",
			"GET /services":       "List available services",
			"GET /stats":          "Rate limiter statistics",
			"POST /search":        "Search for music",
			"POST /info":          "Get track information",
			"POST /download":      "Download track",
			"POST /download-file": "Download track and return the audio file",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"service":  Name,
		"base_url": s.client.BaseURL(),
	})
}

func (s *Server) handleServices(w http.ResponseWriter, _ *http.Request) {
	services := s.client.Services()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"services": services,
		"count":    len(services),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.client.Stats())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" || strings.TrimSpace(req.Service) == "" {
		writeDetail(w, http.StatusBadRequest, "query and service are required")
		return
	}

	result, err := s.client.Search(r.Context(), req.Query, req.Service, req.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if !decode(w, r, &req) {
		return
	}

	info, err := s.client.TrackInfo(r.Context(), req.URL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if !decode(w, r, &req) {
		return
	}

	// callers may only write inside the download directory
	outputPath, err := s.client.ConfineOutputPath(req.OutputPath)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.client.Download(r.Context(), req.URL, outputPath)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, downloadResponse{
		Success:  true,
		Filepath: result.Filepath,
		Size:     result.Size,
		SizeMB:   result.SizeMB(),
	})
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := s.client.Download(r.Context(), req.URL, "")
	if err != nil {
		writeError(w, err)
		return
	}

	f, err := os.Open(result.Filepath)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrorTypeLocalIO, err, "failed to open downloaded file"))
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrorTypeLocalIO, err, "failed to stat downloaded file"))
		return
	}

	name := filepath.Base(result.Filepath)
	w.Header().Set("Content-Type", lucida.MediaTypeFor(name))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, stat.ModTime(), f)
}

// decode reads a JSON body into v, writing a 400 on failure
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body := io.LimitReader(r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// statusFor maps an operation error to an HTTP status
func statusFor(err error) int {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeDetail(w, statusFor(err), err.Error())
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
