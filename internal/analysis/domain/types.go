package domain

import (
	"errors"
	"strings"
	"time"
)

// NumPapers is the number of papers fetched per scholarly source
const NumPapers = 5

// NoInputMessage is shown when a submission has neither a file nor a URL
const NoInputMessage = "Please upload a file or enter a PDF URL"

var (
	// ErrNoInput is returned when neither a file nor a URL was supplied
	ErrNoInput = errors.New(NoInputMessage)
	// ErrSubmissionInFlight is returned when a form instance is already loading
	ErrSubmissionInFlight = errors.New("an analysis is already in progress")
)

// Thresholds are per-metric sensitivity cutoffs echoed to the analysis service
type Thresholds struct {
	Semantic float64 `json:"semantic" validate:"gte=0.5,lte=1"`
	Ngram    float64 `json:"ngram" validate:"gte=0.1,lte=0.8"`
	Fuzzy    float64 `json:"fuzzy" validate:"gte=0.3,lte=0.9"`
}

// DefaultThresholds returns the slider positions the dashboard starts with
func DefaultThresholds() Thresholds {
	return Thresholds{Semantic: 0.85, Ngram: 0.4, Fuzzy: 0.7}
}

// Configuration is built fresh from form state for every submission
type Configuration struct {
	CheckOnlineSources bool       `json:"check_online_sources"`
	Thresholds         Thresholds `json:"thresholds"`
}

// DefaultConfiguration returns the form defaults
func DefaultConfiguration() Configuration {
	return Configuration{
		CheckOnlineSources: true,
		Thresholds:         DefaultThresholds(),
	}
}

// ReferenceKind tells which half of a DocumentReference is active
type ReferenceKind string

const (
	ReferenceNone   ReferenceKind = ""
	ReferenceURL    ReferenceKind = "url"
	ReferenceUpload ReferenceKind = "upload"
)

// DocumentReference points the analysis service at a document.
// An uploaded file path wins over a remote URL.
type DocumentReference struct {
	PDFURL   string `json:"pdf_url,omitempty"`
	FilePath string `json:"file_path,omitempty"`
}

// Kind returns the active reference kind
func (d DocumentReference) Kind() ReferenceKind {
	switch {
	case d.FilePath != "":
		return ReferenceUpload
	case strings.TrimSpace(d.PDFURL) != "":
		return ReferenceURL
	default:
		return ReferenceNone
	}
}

// Resolve returns the URL the analysis service should fetch. Uploaded paths
// are root-relative and get the dashboard's public base URL prepended.
func (d DocumentReference) Resolve(publicBaseURL string) string {
	if d.Kind() == ReferenceUpload {
		if strings.HasPrefix(d.FilePath, "http://") || strings.HasPrefix(d.FilePath, "https://") {
			return d.FilePath
		}
		return strings.TrimRight(publicBaseURL, "/") + "/" + strings.TrimLeft(d.FilePath, "/")
	}
	return strings.TrimSpace(d.PDFURL)
}

// CheckRequest is the body sent to POST /api/check-plagiarism
type CheckRequest struct {
	PDFURL             string     `json:"pdf_url"`
	CheckOnlineSources bool       `json:"check_online_sources"`
	NumPapers          int        `json:"num_papers"`
	Thresholds         Thresholds `json:"thresholds"`
}

// NewCheckRequest builds the analysis request for a resolved document URL
func NewCheckRequest(pdfURL string, cfg Configuration) CheckRequest {
	return CheckRequest{
		PDFURL:             pdfURL,
		CheckOnlineSources: cfg.CheckOnlineSources,
		NumPapers:          NumPapers,
		Thresholds:         cfg.Thresholds,
	}
}

// State is the request lifecycle state of one form instance
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateResults State = "results"
	StateError   State = "error"
)

// FormInput is what the user entered; it survives failed submissions
type FormInput struct {
	FileName string        `json:"file_name,omitempty"`
	FilePath string        `json:"file_path,omitempty"`
	PDFURL   string        `json:"pdf_url,omitempty"`
	Config   Configuration `json:"config"`
}

// Lifecycle is a snapshot of the state machine
type Lifecycle struct {
	ID        string    `json:"id,omitempty"`
	State     State     `json:"state"`
	Result    *Result   `json:"result,omitempty"`
	Message   string    `json:"message,omitempty"`
	Input     FormInput `json:"input"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ShowsForm reports whether the form should be displayed for this state.
// Idle and Error both return control to the form with values preserved.
func (l Lifecycle) ShowsForm() bool {
	return l.State == StateIdle || l.State == StateError
}
