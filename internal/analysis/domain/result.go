package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Result is the payload returned by the analysis service. Every field is
// optional; the accessor methods apply the defaulting rules (missing numbers
// are 0, missing booleans are false, missing lists are empty).
type Result struct {
	Success                *bool             `json:"success,omitempty"`
	Message                string            `json:"message,omitempty"`
	PlagiarismOverallScore *float64          `json:"plagiarism_overall_score,omitempty"`
	TotalWordCount         *int              `json:"total_word_count,omitempty"`
	PlagiarismResults      []SourceMatch     `json:"plagiarism_results,omitempty"`
	AIDetectionResults     *AIDetection      `json:"ai_detection_results,omitempty"`
	Sections               map[string]string `json:"sections,omitempty"`
	HighestMatch           *SourceMatch      `json:"highest_match,omitempty"`
	Timestamp              string            `json:"timestamp,omitempty"`
}

// PaperInfo describes a matching source document
type PaperInfo struct {
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
	Link   string `json:"link,omitempty"`
	Source string `json:"source,omitempty"`
}

// SourceMatch is one matching-source record (a reference card)
type SourceMatch struct {
	ReferenceID        ReferenceID `json:"reference_id,omitempty"`
	PaperInfo          *PaperInfo  `json:"paper_info,omitempty"`
	OverallScore       *float64    `json:"overall_score,omitempty"`
	SemanticSimilarity *float64    `json:"semantic_similarity,omitempty"`
	NgramSimilarity    *float64    `json:"ngram_similarity,omitempty"`
	FuzzySimilarity    *float64    `json:"fuzzy_similarity,omitempty"`
	IsPlagiarized      *bool       `json:"is_plagiarized,omitempty"`
	ReferenceText      string      `json:"reference_text,omitempty"`
}

// AIDetection holds the AI-generation estimate
type AIDetection struct {
	OverallIsAIGenerated    *bool                      `json:"overall_is_ai_generated,omitempty"`
	OverallAIProbability    *float64                   `json:"overall_ai_probability,omitempty"`
	OverallHumanProbability *float64                   `json:"overall_human_probability,omitempty"`
	SectionResults          map[string]SectionAIResult `json:"section_results,omitempty"`
}

// SectionAIResult is the AI estimate for one document section
type SectionAIResult struct {
	AIProbability    float64 `json:"ai_probability"`
	HumanProbability float64 `json:"human_probability"`
	IsAIGenerated    bool    `json:"is_ai_generated"`
	Confidence       float64 `json:"confidence"`
	WordCount        int     `json:"word_count"`
}

// ReferenceID accepts both numeric and string ids from the service
type ReferenceID string

// UnmarshalJSON implements json.Unmarshaler
func (r *ReferenceID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = ReferenceID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = ReferenceID(n.String())
	return nil
}

// MarshalJSON emits numeric ids as numbers
func (r ReferenceID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseFloat(string(r), 64); err == nil && json.Valid([]byte(r)) {
		return []byte(r), nil
	}
	return json.Marshal(string(r))
}

func floatOr0(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func boolOrFalse(b *bool) bool {
	return b != nil && *b
}

// OverallScore returns plagiarism_overall_score or 0
func (r *Result) OverallScore() float64 {
	if r == nil {
		return 0
	}
	return floatOr0(r.PlagiarismOverallScore)
}

// WordCount returns total_word_count or 0
func (r *Result) WordCount() int {
	if r == nil || r.TotalWordCount == nil {
		return 0
	}
	return *r.TotalWordCount
}

// Sources returns the matching sources, never nil
func (r *Result) Sources() []SourceMatch {
	if r == nil || r.PlagiarismResults == nil {
		return []SourceMatch{}
	}
	return r.PlagiarismResults
}

// IsAIGenerated returns ai_detection_results.overall_is_ai_generated or false
func (r *Result) IsAIGenerated() bool {
	if r == nil || r.AIDetectionResults == nil {
		return false
	}
	return boolOrFalse(r.AIDetectionResults.OverallIsAIGenerated)
}

// AIProbability returns ai_detection_results.overall_ai_probability or 0
func (r *Result) AIProbability() float64 {
	if r == nil || r.AIDetectionResults == nil {
		return 0
	}
	return floatOr0(r.AIDetectionResults.OverallAIProbability)
}

// Title returns sections.title or ""
func (r *Result) Title() string {
	if r == nil {
		return ""
	}
	return r.Sections["title"]
}

// Highest returns highest_match, or an empty match
func (r *Result) Highest() SourceMatch {
	if r == nil || r.HighestMatch == nil {
		return SourceMatch{}
	}
	return *r.HighestMatch
}

// Score returns overall_score or 0
func (s SourceMatch) Score() float64 { return floatOr0(s.OverallScore) }

// Semantic returns semantic_similarity or 0
func (s SourceMatch) Semantic() float64 { return floatOr0(s.SemanticSimilarity) }

// Ngram returns ngram_similarity or 0
func (s SourceMatch) Ngram() float64 { return floatOr0(s.NgramSimilarity) }

// Fuzzy returns fuzzy_similarity or 0
func (s SourceMatch) Fuzzy() float64 { return floatOr0(s.FuzzySimilarity) }

// Plagiarized returns is_plagiarized or false
func (s SourceMatch) Plagiarized() bool { return boolOrFalse(s.IsPlagiarized) }

// Paper returns paper_info, or an empty one
func (s SourceMatch) Paper() PaperInfo {
	if s.PaperInfo == nil {
		return PaperInfo{}
	}
	return *s.PaperInfo
}
