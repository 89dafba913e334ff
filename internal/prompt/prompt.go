// Package prompt renders the fixed interview prompt templates.
package prompt

import (
	_ "embed"
	"sort"
	"strings"
)

const (
	FieldResume              = "RESUME"
	FieldJobDescription      = "JOB_DESCRIPTION"
	FieldPreviousAnswers     = "PREVIOUS_ANSWERS"
	FieldInterviewTranscript = "INTERVIEW_TRANSCRIPT"

	// OpeningInstruction replaces the conversation history when there is none yet.
	OpeningInstruction = "This is the beginning of the interview. Please ask an appropriate opening question."
)

var (
	//go:embed templates/question.md
	questionTemplate string

	//go:embed templates/analysis.md
	analysisTemplate string
)

// Build substitutes every {{KEY}} placeholder of template with fields[KEY].
// Substitution is a single pass, so placeholders appearing inside values stay untouched.
func Build(template string, fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, key := range keys {
		pairs = append(pairs, "{{"+key+"}}", fields[key])
	}

	return strings.NewReplacer(pairs...).Replace(template)
}

// Question renders the next-question prompt.
func Question(resume, jobDescription, previousAnswers string) string {
	history := previousAnswers
	if strings.TrimSpace(history) == "" {
		history = OpeningInstruction
	}

	return Build(questionTemplate, map[string]string{
		FieldResume:          resume,
		FieldJobDescription:  jobDescription,
		FieldPreviousAnswers: history,
	})
}

// Analysis renders the transcript analysis prompt.
func Analysis(resume, jobDescription, transcript string) string {
	return Build(analysisTemplate, map[string]string{
		FieldResume:              resume,
		FieldJobDescription:      jobDescription,
		FieldInterviewTranscript: transcript,
	})
}
