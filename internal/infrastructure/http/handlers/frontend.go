package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nutriplan/dietplan/internal/domain/plan"
	"github.com/nutriplan/dietplan/internal/domain/profile"
	"github.com/nutriplan/dietplan/internal/ports/inbound"
	"github.com/nutriplan/dietplan/internal/ports/outbound"
	apperrors "github.com/nutriplan/dietplan/pkg/errors"
)

const pageTitle = "AI Diet Planner"

// maxFormBytes bounds a form submission
const maxFormBytes = 64 << 10

// FrontendHandlers handles the server-rendered form
type FrontendHandlers struct {
	templates *template.Template
	plans     inbound.PlanService
	documents outbound.DocumentStore
	logger    *zap.Logger
}

// NewFrontendHandlers creates a new frontend handlers instance
func NewFrontendHandlers(
	templates *template.Template,
	plans inbound.PlanService,
	documents outbound.DocumentStore,
	logger *zap.Logger,
) *FrontendHandlers {
	return &FrontendHandlers{
		templates: templates,
		plans:     plans,
		documents: documents,
		logger:    logger.Named("frontend"),
	}
}

// HandleForm renders the empty form with its defaults
func (h *FrontendHandlers) HandleForm(w http.ResponseWriter, r *http.Request) {
	h.renderTemplate(w, http.StatusOK, "form", FormPage{
		Title:   pageTitle,
		Input:   profile.Defaults(),
		Options: formOptions,
	})
}

// HandleGenerate validates the submitted form and renders the plan
func (h *FrontendHandlers) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.renderTemplate(w, http.StatusBadRequest, "form", FormPage{
			Title:   pageTitle,
			Input:   profile.Defaults(),
			Options: formOptions,
			Error:   &PageError{Message: "Could not read the form", Details: err.Error()},
		})
		return
	}

	in := parseProfileForm(r)
	p, err := profile.New(in)
	if err != nil {
		page := FormPage{Title: pageTitle, Input: in, Options: formOptions}
		if appErr, ok := apperrors.As(err); ok {
			if verrs, ok := appErr.Metadata["validation_errors"].(apperrors.ValidationErrors); ok {
				page.FieldErrors = verrs
			}
		}
		if len(page.FieldErrors) == 0 {
			page.Error = &PageError{Message: "Invalid profile", Details: err.Error()}
		}
		h.renderTemplate(w, http.StatusBadRequest, "form", page)
		return
	}

	result, err := h.plans.Generate(r.Context(), p)
	if err != nil {
		status := http.StatusInternalServerError
		if appErr, ok := apperrors.As(err); ok {
			status = appErr.StatusCode()
		}
		h.renderTemplate(w, status, "form", FormPage{
			Title:   pageTitle,
			Input:   p.Input(),
			Options: formOptions,
			Error:   newPageError(err),
		})
		return
	}

	page := ResultPage{
		Title: pageTitle,
		Input: p.Input(),
		Plan:  result.Plan,
		Foods: foodViews(result),
	}

	switch {
	case result.RenderErr != nil:
		page.DocumentError = "The PDF could not be generated. The plan is shown above."
	default:
		if token := storeDocument(r.Context(), h.documents, result.Document, h.logger); token != "" {
			page.DownloadURL = DownloadPath(token)
			page.Filename = result.Document.Filename
		} else {
			page.DocumentError = "The PDF is not available for download right now."
		}
	}

	h.renderTemplate(w, http.StatusOK, "result", page)
}

// HandleRateLimited re-renders the submitted form when plan generation is
// rate limited
func (h *FrontendHandlers) HandleRateLimited(w http.ResponseWriter, r *http.Request) {
	in := profile.Defaults()
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err == nil {
		in = parseProfileForm(r)
	}

	h.renderTemplate(w, http.StatusTooManyRequests, "form", FormPage{
		Title:   pageTitle,
		Input:   in,
		Options: formOptions,
		Error:   newPageError(apperrors.NewTooManyRequestsError()),
	})
}

// HandleDownload streams a stored document as an attachment
func (h *FrontendHandlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documents.Load(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		if apperrors.Is(err, apperrors.CodeNotFound) {
			http.Error(w, "This download has expired. Please generate the plan again.", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to load document", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	WriteDocument(w, doc)
}

// WriteDocument writes doc as a file download
func WriteDocument(w http.ResponseWriter, doc *plan.Document) {
	contentType := doc.ContentType
	if contentType == "" {
		contentType = plan.ContentTypePDF
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Data)
}

// parseProfileForm reads the form into an Input. Unparseable numbers become
// zero and are then rejected by validation.
func parseProfileForm(r *http.Request) profile.Input {
	atoi := func(key string) int {
		n, _ := strconv.Atoi(strings.TrimSpace(r.PostFormValue(key)))
		return n
	}

	return profile.Input{
		Name:          r.PostFormValue("name"),
		Age:           atoi("age"),
		HeightCM:      atoi("height_cm"),
		WeightKG:      atoi("weight_kg"),
		Gender:        profile.Gender(r.PostFormValue("gender")),
		DietType:      profile.DietType(r.PostFormValue("diet_type")),
		Allergies:     r.PostFormValue("allergies"),
		Cuisine:       profile.Cuisine(r.PostFormValue("cuisine")),
		ActivityLevel: profile.ActivityLevel(r.PostFormValue("activity_level")),
		Goal:          profile.Goal(r.PostFormValue("goal")),
		Budget:        profile.Budget(r.PostFormValue("budget")),
		CustomFoods:   r.PostFormValue("custom_foods"),
	}
}

// renderTemplate executes the template into a buffer first so that a
// template error never leaves a half-written page
func (h *FrontendHandlers) renderTemplate(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("Failed to render template",
			zap.String("template", name),
			zap.Error(err),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
