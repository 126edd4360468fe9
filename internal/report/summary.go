package report

import (
	"strconv"

	"github.com/plagscan/plagscan-dashboard/internal/analysis/domain"
)

const (
	VerdictAI    = "AI-Generated"
	VerdictHuman = "Human-Written"

	BadgePlagiarized = "Plagiarism Detected"
	BadgeModerate    = "Moderate Match"
)

// Summary is the defaulted view model the dashboard and the exports render
type Summary struct {
	Title          string       `json:"title"`
	OverallScore   float64      `json:"overall_score"`
	OverallPercent string       `json:"overall_percent"`
	Band           Band         `json:"band"`
	BandLabel      string       `json:"band_label"`
	WordCount      int          `json:"word_count"`
	SourceCount    int          `json:"source_count"`
	IsAIGenerated  bool         `json:"is_ai_generated"`
	AIProbability  string       `json:"ai_probability"`
	AIVerdict      string       `json:"ai_verdict"`
	HighestMatch   *SourceCard  `json:"highest_match,omitempty"`
	Sources        []SourceCard `json:"sources"`
}

// SourceCard is one matching source as shown on a reference card
type SourceCard struct {
	ReferenceID string `json:"reference_id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Link        string `json:"link"`
	Source      string `json:"source"`
	Score       string `json:"score"`
	Semantic    string `json:"semantic"`
	Ngram       string `json:"ngram"`
	Fuzzy       string `json:"fuzzy"`
	Badge       string `json:"badge"`
	// Destructive marks cards whose score calls for the alarming style
	Destructive bool `json:"destructive"`
}

// Percent formats a 0..1 ratio as a percentage with two decimals, without the sign
func Percent(ratio float64) string {
	return strconv.FormatFloat(ratio*100, 'f', 2, 64)
}

// NewSourceCard applies the reference card rules to one match
func NewSourceCard(m domain.SourceMatch) SourceCard {
	paper := m.Paper()
	badge := BadgeModerate
	if m.Plagiarized() {
		badge = BadgePlagiarized
	}

	return SourceCard{
		ReferenceID: string(m.ReferenceID),
		Title:       paper.Title,
		Author:      paper.Author,
		Link:        paper.Link,
		Source:      paper.Source,
		Score:       Percent(m.Score()),
		Semantic:    Percent(m.Semantic()),
		Ngram:       Percent(m.Ngram()),
		Fuzzy:       Percent(m.Fuzzy()),
		Badge:       badge,
		Destructive: m.Score() > 0.5,
	}
}

// Summarize builds the view model. Missing fields fall back to zero values.
func Summarize(r *domain.Result) Summary {
	score := r.OverallScore()
	band := BandFor(score)
	sources := r.Sources()

	verdict := VerdictHuman
	if r.IsAIGenerated() {
		verdict = VerdictAI
	}

	s := Summary{
		Title:          r.Title(),
		OverallScore:   score,
		OverallPercent: Percent(score),
		Band:           band,
		BandLabel:      band.Label(),
		WordCount:      r.WordCount(),
		SourceCount:    len(sources),
		IsAIGenerated:  r.IsAIGenerated(),
		AIProbability:  Percent(r.AIProbability()),
		AIVerdict:      verdict,
		Sources:        make([]SourceCard, 0, len(sources)),
	}

	for _, m := range sources {
		s.Sources = append(s.Sources, NewSourceCard(m))
	}

	if r != nil && r.HighestMatch != nil {
		card := NewSourceCard(*r.HighestMatch)
		s.HighestMatch = &card
	}

	return s
}
