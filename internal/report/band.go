package report

// Band is the risk band of an overall plagiarism score
type Band string

const (
	BandLow    Band = "Low"
	BandMedium Band = "Medium"
	BandHigh   Band = "High"
)

// BandFor classifies a score. Low covers s <= 0.3, Medium 0.3 < s <= 0.5,
// High s > 0.5. Scores outside [0,1] still land in exactly one band.
func BandFor(score float64) Band {
	switch {
	case score > 0.5:
		return BandHigh
	case score > 0.3:
		return BandMedium
	default:
		return BandLow
	}
}

// Label returns the badge text, e.g. "Medium Plagiarism"
func (b Band) Label() string {
	return string(b) + " Plagiarism"
}

// LabelFor returns the badge text for a score
func LabelFor(score float64) string {
	return BandFor(score).Label()
}
