// Package report renders the final sustainability report.
package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
	"time"

	"github.com/carbon-assistant/server/internal/agent/model"
)

//go:embed template/report.txt
var reportTemplate string

// Renderer turns a finished session into a downloadable document.
type Renderer interface {
	Render(company string, prediction model.PredictionResult, bundle model.OptimizationBundle) ([]byte, error)
	ContentType() string
	FileName() string
}

// TextRenderer produces a plain-text report.
type TextRenderer struct {
	tmpl *template.Template
	now  func() time.Time
}

func NewTextRenderer() *TextRenderer {
	tmpl := template.Must(template.New("report").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).Parse(reportTemplate))
	return &TextRenderer{tmpl: tmpl, now: time.Now}
}

type reportData struct {
	Company      string
	GeneratedAt  time.Time
	Prediction   model.PredictionResult
	Optimization model.OptimizationBundle
}

func (r *TextRenderer) Render(company string, prediction model.PredictionResult, bundle model.OptimizationBundle) ([]byte, error) {
	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, reportData{
		Company:      company,
		GeneratedAt:  r.now().UTC(),
		Prediction:   prediction,
		Optimization: bundle,
	})
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *TextRenderer) ContentType() string { return "text/plain; charset=utf-8" }

func (r *TextRenderer) FileName() string { return "report.txt" }

var _ Renderer = (*TextRenderer)(nil)
