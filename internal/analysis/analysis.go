// Package analysis holds the clinical prompts and drives the generative
// model for report analysis and diet questions.
package analysis

import (
	"context"
	"strings"

	"github.com/dharitri/backend/internal/llm"
)

const (
	// Temperature used for every generation call.
	Temperature float32 = 0.3

	// RetrievalQuery selects the chunks passed to the clinical prompt.
	RetrievalQuery = "Analyze the patient data for critical conditions."

	// NoReportContext stands in for a missing report in diet questions.
	NoReportContext = "No specific medical report uploaded."
)

// Analyzer writes the clinical analysis of a report.
type Analyzer struct {
	gen llm.Generator
}

func NewAnalyzer(gen llm.Generator) *Analyzer {
	return &Analyzer{gen: gen}
}

// Analyze places all chunks into the clinical prompt, separated by blank
// lines, and returns the model output.
func (a *Analyzer) Analyze(ctx context.Context, chunks []string) (string, error) {
	prompt := strings.Replace(clinicalPrompt, "{{context}}", strings.Join(chunks, "\n\n"), 1)
	return a.gen.Generate(ctx, prompt, Temperature)
}

// DietAdvisor answers free-text diet questions in two model calls: first a
// diet-relevant summary of the report, then the answer given that summary.
type DietAdvisor struct {
	gen llm.Generator
}

func NewDietAdvisor(gen llm.Generator) *DietAdvisor {
	return &DietAdvisor{gen: gen}
}

func (d *DietAdvisor) Ask(ctx context.Context, question, reportText string) (string, error) {
	if strings.TrimSpace(reportText) == "" {
		reportText = NoReportContext
	}

	findings, err := d.gen.Generate(ctx, strings.Replace(dietFindingsPrompt, "{{report}}", reportText, 1), Temperature)
	if err != nil {
		return "", err
	}

	prompt := strings.NewReplacer("{{findings}}", findings, "{{question}}", question).Replace(dietAnswerPrompt)
	return d.gen.Generate(ctx, prompt, Temperature)
}
