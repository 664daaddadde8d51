package adapter

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"os"

	m "grader.dev/pkg/grader/internal/model"
	"grader.dev/pkg/grader/internal/sanitize"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

const (
	stylesTemplateFile   = "templates/styles.html.tmpl"
	feedbackTemplateFile = "templates/feedback.html.tmpl"
	errorTemplateFile    = "templates/error.html.tmpl"

	feedbackEntry = "feedback.html.tmpl"
	errorEntry    = "error.html.tmpl"
	customEntry   = "custom"
)

// RenderOptions configures an HTMLRenderer.
type RenderOptions struct {
	// FeedbackTemplate replaces the default results page. It may include the
	// default page with {{template "feedback" .}}.
	FeedbackTemplate m.Path
	// ErrorTemplate replaces the default error page. It may include the
	// default page with {{template "error" .}}.
	ErrorTemplate m.Path
	NoDefaultCSS  bool
}

type feedbackData struct {
	m.ReportContext
	NoTests      bool
	NoDefaultCSS bool
}

type errorData struct {
	Error        m.ErrorReport
	NoDefaultCSS bool
}

// HTMLRenderer renders reports with html/template.
type HTMLRenderer struct {
	feedback      *template.Template
	feedbackEntry string
	errorPage     *template.Template
	errorEntry    string
	noDefaultCSS  bool
}

// NewHTMLRenderer parses the default templates and the custom ones named in
// opts. Missing or malformed templates are reported here, not at render time.
func NewHTMLRenderer(opts RenderOptions) (*HTMLRenderer, error) {
	feedback, feedbackName, err := loadTemplate(feedbackEntry, feedbackTemplateFile, opts.FeedbackTemplate)
	if err != nil {
		return nil, err
	}

	errorPage, errorName, err := loadTemplate(errorEntry, errorTemplateFile, opts.ErrorTemplate)
	if err != nil {
		return nil, err
	}

	return &HTMLRenderer{
		feedback:      feedback,
		feedbackEntry: feedbackName,
		errorPage:     errorPage,
		errorEntry:    errorName,
		noDefaultCSS:  opts.NoDefaultCSS,
	}, nil
}

func loadTemplate(name, file string, custom m.Path) (*template.Template, string, error) {
	tmpl, err := template.New(name).Funcs(TemplateFuncs()).ParseFS(templateFS, stylesTemplateFile, file)
	if err != nil {
		return nil, "", fmt.Errorf("parse embedded template %s: %w", file, err)
	}

	if custom == "" {
		return tmpl, name, nil
	}

	content, err := os.ReadFile(string(custom))
	if err != nil {
		slog.Error("failed to read custom template", "path", custom, "error", err)
		return nil, "", fmt.Errorf("read template %s: %w", custom, err)
	}

	if _, err := tmpl.New(customEntry).Parse(string(content)); err != nil {
		slog.Error("failed to parse custom template", "path", custom, "error", err)
		return nil, "", fmt.Errorf("parse template %s: %w", custom, err)
	}

	return tmpl, customEntry, nil
}

// TemplateFuncs returns the functions available to report templates.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatPoints": m.FormatPoints,
		"outcomeClass": outcomeClass,
		"assertionMessage": func(text string, splitAt ...string) string {
			sep := ""
			if len(splitAt) > 0 {
				sep = splitAt[0]
			}

			return sanitize.ParseAssertionMessage(text, sep)
		},
	}
}

func outcomeClass(outcome m.Outcome) string {
	switch outcome {
	case m.OutcomeSuccess:
		return "outcome-success"
	case m.OutcomeFail:
		return "outcome-fail"
	case m.OutcomeError:
		return "outcome-error"
	default:
		return "outcome-unknown"
	}
}

// RenderResults renders the results page.
func (r *HTMLRenderer) RenderResults(report m.ReportContext) (string, error) {
	return r.execute(r.feedback, r.feedbackEntry, feedbackData{ReportContext: report, NoDefaultCSS: r.noDefaultCSS})
}

// RenderNoTests renders the results page for a run without any tests.
func (r *HTMLRenderer) RenderNoTests() (string, error) {
	return r.execute(r.feedback, r.feedbackEntry, feedbackData{NoTests: true, NoDefaultCSS: r.noDefaultCSS})
}

// RenderError renders the error page.
func (r *HTMLRenderer) RenderError(report m.ErrorReport) (string, error) {
	return r.execute(r.errorPage, r.errorEntry, errorData{Error: report, NoDefaultCSS: r.noDefaultCSS})
}

func (r *HTMLRenderer) execute(tmpl *template.Template, entry string, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, entry, data); err != nil {
		slog.Error("failed to render template", "template", entry, "error", err)
		return "", fmt.Errorf("render %s: %w", entry, err)
	}

	return buf.String(), nil
}
