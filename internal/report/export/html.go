package export

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templatesFS embed.FS

var reportTemplate = template.Must(template.New("report.html").Funcs(template.FuncMap{
	"thousands": thousands,
}).ParseFS(templatesFS, "templates/report.html"))

// RenderHTML writes the printable HTML report
func RenderHTML(w io.Writer, doc Document) error {
	if err := reportTemplate.Execute(w, doc); err != nil {
		return fmt.Errorf("failed to render html report: %w", err)
	}
	return nil
}

// thousands formats n with comma separators, e.g. 12,345
func thousands(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if n < 0 {
		neg = true
		s = s[1:]
	}

	out := make([]byte, 0, len(s)+len(s)/3)
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}

	if neg {
		return "-" + string(out)
	}
	return string(out)
}
