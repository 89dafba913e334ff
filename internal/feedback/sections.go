// Package feedback splits an analysis narrative into display sections.
package feedback

import (
	"regexp"
	"strings"
)

// Kind tells which part of the feedback a section belongs to.
type Kind string

const (
	KindParagraph    Kind = "paragraph"
	KindStrengths    Kind = "strengths"
	KindImprovements Kind = "improvements"
)

// Section is one displayable block of feedback.
type Section struct {
	Kind    Kind   `json:"kind"`
	Heading string `json:"heading,omitempty"`
	Body    string `json:"body"`
}

var (
	blankLine = regexp.MustCompile(`\n\s*\n`)

	headings = []struct {
		prefix string
		kind   Kind
		title  string
	}{
		{prefix: "strengths:", kind: KindStrengths, title: "Strengths"},
		{prefix: "areas for improvement:", kind: KindImprovements, title: "Areas for Improvement"},
	}
)

// Sections splits text on blank lines and tags paragraphs that open with a
// known heading. The split is best effort: text without headings comes back
// as plain paragraphs.
func Sections(text string) []Section {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var sections []Section
	for _, para := range blankLine.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		sections = append(sections, classify(para))
	}

	return sections
}

func classify(para string) Section {
	lower := strings.ToLower(para)
	for _, h := range headings {
		if strings.HasPrefix(lower, h.prefix) {
			return Section{
				Kind:    h.kind,
				Heading: h.title,
				Body:    strings.TrimSpace(para[len(h.prefix):]),
			}
		}
	}

	return Section{Kind: KindParagraph, Body: para}
}
