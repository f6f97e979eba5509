package api

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"

	"github.com/dgallion1/esglens/internal/esg"
	"github.com/dgallion1/esglens/internal/parser"
	"github.com/dgallion1/esglens/internal/report"
	"github.com/dgallion1/esglens/internal/uploads"
)

const statusCompleted = "Completed ✅"

// uploadResponse keeps the field names the browser frontend reads.
type uploadResponse struct {
	Company       string       `json:"Company"`
	Score         int          `json:"ESG Score"`
	Grade         report.Grade `json:"Grade"`
	TotalMentions int          `json:"Total_Mentions"`
	Initiatives   esg.Grouped  `json:"Detected_Initiatives"`
	Summary       string       `json:"AI_Summary"`
	FileURL       string       `json:"File_URL"`
	Status        string       `json:"Status"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Extra 1MB for multipart overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
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

	if !parser.IsSupportedExtension(header.Filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %q", filepath.Ext(header.Filename)), http.StatusBadRequest)
		return
	}
	if header.Size > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	up, err := s.deps.Uploads.Save(header.Filename, file)
	if err != nil {
		s.log.Error("save upload failed", "filename", header.Filename, "error", err)
		jsonError(w, "failed to store file", http.StatusInternalServerError)
		return
	}
	company := uploads.CompanyName(header.Filename)
	log := s.log.With("upload", up.Name, "company", company, "bytes", up.Size)
	log.Info("upload stored")

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.LLMTimeout)
	defer cancel()

	res, err := s.deps.Analyzer.Analyze(ctx, up.Path, company)
	if err != nil {
		code := analysisStatus(err)
		log.Error("analysis failed", "status", code, "error", err)
		jsonError(w, err.Error(), code)
		return
	}

	if r.URL.Query().Get("format") == "html" {
		s.writeReportPage(w, company, res.Markdown)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Company:       company,
		Score:         res.Score,
		Grade:         res.Grade,
		TotalMentions: res.TotalMentions,
		Initiatives:   res.Findings,
		Summary:       res.Markdown,
		FileURL:       up.URL,
		Status:        statusCompleted,
	})
}

func analysisStatus(err error) int {
	switch {
	case errors.Is(err, parser.ErrUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, parser.ErrExtraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

var reportPage = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>ESG Analysis: {{.Company}}</title>
</head>
<body>
{{.Body}}
</body>
</html>
`))

func (s *Server) writeReportPage(w http.ResponseWriter, company, markdown string) {
	body, err := report.HTML(markdown)
	if err != nil {
		s.log.Error("render report failed", "error", err)
		jsonError(w, "failed to render report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := reportPage.Execute(w, struct {
		Company string
		Body    template.HTML
	}{company, template.HTML(body)}); err != nil {
		s.log.Error("write report page failed", "error", err)
	}
}
