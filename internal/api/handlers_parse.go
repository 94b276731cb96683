package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/dgallion1/parsegest/internal/model"
	"github.com/dgallion1/parsegest/internal/pipeline"
	"github.com/dgallion1/parsegest/internal/resource"
)

// parseFailure is the 422 body: the message plus where it pointed.
type parseFailure struct {
	Error string `json:"error"`
	*pipeline.Location
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	typeName, target, ok := s.resolveTarget(w, r.FormValue("type"), filename)
	if !ok {
		return
	}

	data, err := s.readUpload(w, file)
	if err != nil {
		return
	}

	mem := resource.NewMemory(nil)
	mem.Put(filename, data)
	result, err := s.factory().WithResources(mem).ParsePath(r.Context(), filename, target)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(parseFailure{Error: err.Error(), Location: pipeline.LocationOf(err)})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"type":   typeName,
		"result": result,
	})
}

// handleBatchParse parses every uploaded file concurrently into one type,
// "any" unless the form names another.
func (s *Server) handleBatchParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	typeName := r.FormValue("type")
	if typeName == "" {
		typeName = "any"
	}
	target, err := model.Lookup(typeName)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	mem := resource.NewMemory(nil)
	results := make([]map[string]any, 0, len(files))
	var paths []string
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		if !s.factory().Parsers.Supports(filename) {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)),
			})
			continue
		}
		data, err := readPart(fh, s.cfg.MaxUploadBytes)
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}
		mem.Put(filename, data)
		paths = append(paths, filename)
	}

	for _, res := range pipeline.ParseBatch(r.Context(), s.factory().WithResources(mem), paths, target, s.cfg.WorkerCount) {
		entry := map[string]any{"filename": res.Path}
		if res.Err != nil {
			entry["error"] = res.Err.Error()
			if loc := pipeline.LocationOf(res.Err); loc != nil {
				entry["location"] = loc
			}
		} else {
			entry["result"] = res.Value
		}
		results = append(results, entry)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"type":    typeName,
		"results": results,
	})
}

// resolveTarget picks the target type from the form value or, when empty,
// from the file extension. It writes the error response itself.
func (s *Server) resolveTarget(w http.ResponseWriter, typeName, filename string) (string, reflect.Type, bool) {
	if !s.factory().Parsers.Supports(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return "", nil, false
	}
	if typeName == "" {
		typeName = model.DefaultType(filename)
	}
	target, err := model.Lookup(typeName)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return "", nil, false
	}
	return strings.ToLower(typeName), target, true
}

// readUpload reads at most MaxUploadBytes, writing the error response when
// the file is larger or unreadable.
func (s *Server) readUpload(w http.ResponseWriter, file io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return nil, err
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return nil, errTooLarge
	}
	return data, nil
}

var errTooLarge = errors.New("file too large")

func readPart(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, errors.New("failed to open file")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil || int64(len(data)) > limit {
		return nil, errors.New("file too large or read error")
	}
	return data, nil
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
