package export

import (
	"time"

	"github.com/plagscan/plagscan-dashboard/internal/analysis/domain"
	"github.com/plagscan/plagscan-dashboard/internal/report"
)

// Badge variants of the overall band
const (
	VariantDefault     = "default"
	VariantSecondary   = "secondary"
	VariantDestructive = "destructive"
)

// Document is everything a printable report shows
type Document struct {
	report.Summary
	GeneratedAt  time.Time
	BadgeVariant string
	Metrics      []Metric
}

// Metric is one row of the similarity metrics table
type Metric struct {
	ReferenceID string
	Title       string
	Semantic    string
	Ngram       string
	Fuzzy       string
	Overall     string
}

// NewDocument builds the printable report for a result
func NewDocument(r *domain.Result, generatedAt time.Time) Document {
	summary := report.Summarize(r)

	metrics := make([]Metric, 0, len(summary.Sources))
	for _, card := range summary.Sources {
		metrics = append(metrics, Metric{
			ReferenceID: card.ReferenceID,
			Title:       card.Title,
			Semantic:    card.Semantic,
			Ngram:       card.Ngram,
			Fuzzy:       card.Fuzzy,
			Overall:     card.Score,
		})
	}

	return Document{
		Summary:      summary,
		GeneratedAt:  generatedAt,
		BadgeVariant: variantFor(summary.Band),
		Metrics:      metrics,
	}
}

func variantFor(b report.Band) string {
	switch b {
	case report.BandHigh:
		return VariantDestructive
	case report.BandMedium:
		return VariantSecondary
	default:
		return VariantDefault
	}
}
