package report

import (
	"bytes"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/carepath/carepath/internal/domain/checklist"
	"github.com/carepath/carepath/internal/domain/patient"
)

// Data is everything a care-plan report shows.
type Data struct {
	Patient     *patient.WithPathway
	Checklist   *checklist.Checklist
	GeneratedAt time.Time
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
	"<", `\<`, ">", `\>`, "|", `\|`, "#", `\#`,
)

func esc(s string) string {
	return mdEscaper.Replace(strings.TrimSpace(s))
}

// formatKRW renders 38500000 as "38,500,000 KRW".
func formatKRW(v int64) string {
	s := strconv.FormatInt(v, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + " KRW"
	if neg {
		out = "-" + out
	}
	return out
}

func stageLabel(t string) string {
	return strings.ReplaceAll(t, "_", " ")
}

// BuildMarkdown lays out the report as GitHub-flavoured Markdown.
func BuildMarkdown(d Data) string {
	p := d.Patient
	var b strings.Builder

	fmt.Fprintf(&b, "# Care plan: %s\n\n", esc(p.Name))
	fmt.Fprintf(&b, "Generated %s\n\n", d.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))

	b.WriteString("## Patient\n\n")
	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Diagnosis | %s |\n", esc(p.Diagnosis))
	if p.DiagnosisDate != nil {
		fmt.Fprintf(&b, "| Diagnosis date | %s |\n", p.DiagnosisDate.Format("2006-01-02"))
	}
	if p.Age != nil {
		fmt.Fprintf(&b, "| Age | %d |\n", *p.Age)
	}
	fmt.Fprintf(&b, "| ADL score | %d |\n", p.ADLScore)
	fmt.Fprintf(&b, "| Severity | %s |\n", p.Severity)
	fmt.Fprintf(&b, "| Insurance | %s |\n", stageLabel(p.InsuranceType))
	if p.LTCGrade != nil {
		fmt.Fprintf(&b, "| Long-term-care grade | %d |\n", *p.LTCGrade)
	}
	if p.CurrentHospital != nil && *p.CurrentHospital != "" {
		fmt.Fprintf(&b, "| Current hospital | %s |\n", esc(*p.CurrentHospital))
	}

	b.WriteString("\n## Care pathway\n\n")
	if p.Pathway == nil || len(p.Pathway.Stages) == 0 {
		b.WriteString("No pathway has been generated.\n")
	} else {
		b.WriteString("| Step | Setting | Weeks | Goal | Estimated cost | LTC application |\n")
		b.WriteString("|---:|---|---:|---|---:|---|\n")
		for _, s := range p.Pathway.Stages {
			ltc := ""
			if s.LTCApplicationAdvised {
				ltc = "advised"
			}
			fmt.Fprintf(&b, "| %d | %s | %d | %s | %s | %s |\n",
				s.StepOrder, stageLabel(string(s.StageType)), s.DurationWeeks, esc(s.TreatmentGoal),
				formatKRW(s.EstimatedCost), ltc)
		}
		fmt.Fprintf(&b, "\n**Total estimated cost:** %s over %d weeks\n",
			formatKRW(p.Pathway.TotalCost), p.Pathway.TotalWeeks)
	}

	b.WriteString("\n## Transfer checklist\n\n")
	if d.Checklist == nil || len(d.Checklist.Items) == 0 {
		b.WriteString("No checklist has been generated.\n")
	} else {
		pr := d.Checklist.Progress
		fmt.Fprintf(&b, "%d of %d items complete (%d%%), %d of %d required items complete.\n\n",
			pr.Completed, pr.Total, pr.Percent, pr.RequiredCompleted, pr.Required)
		var current checklist.TransferType
		for _, it := range d.Checklist.Items {
			if it.TransferType != current {
				current = it.TransferType
				fmt.Fprintf(&b, "\n### %s\n\n", stageLabel(string(current)))
			}
			box := " "
			if it.Completed {
				box = "x"
			}
			req := ""
			if it.Required {
				req = " (required)"
			}
			fmt.Fprintf(&b, "- [%s] %s%s\n", box, esc(it.Title), req)
		}
	}
	return b.String()
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

const pageStyle = "body{font-family:sans-serif;max-width:960px;margin:2rem auto;padding:0 1rem;color:#1c1917;} " +
	"table{width:100%;border-collapse:collapse;margin:0.5rem 0;font-size:0.9rem;} " +
	"th,td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;} " +
	"thead th{background:#f1f5f9;} " +
	"ul{list-style:none;padding-left:0.5rem;} " +
	"@media print{ @page{margin:12mm;} body{margin:0;max-width:none;} }"

// RenderHTML converts the Markdown to a standalone HTML page. Raw HTML in
// the source is dropped by the renderer.
func RenderHTML(title, markdown string) ([]byte, error) {
	var content bytes.Buffer
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return nil, fmt.Errorf("markdown convert: %w", err)
	}
	var out bytes.Buffer
	out.WriteString("<!doctype html><html><head><meta charset='utf-8'><title>")
	out.WriteString(html.EscapeString(title))
	out.WriteString("</title><style>")
	out.WriteString(pageStyle)
	out.WriteString("</style></head><body>")
	out.Write(content.Bytes())
	out.WriteString("</body></html>")
	return out.Bytes(), nil
}
