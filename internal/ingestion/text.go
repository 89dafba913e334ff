package ingestion

import (
	"regexp"
	"strings"
)

var (
	excessBlankLines = regexp.MustCompile(`\n{3,}`)
	innerSpaces      = regexp.MustCompile(`[ \t]{2,}`)
)

// CleanText normalises line endings, trailing whitespace and runs of blank
// lines. Leading indentation is kept so bullet lists survive.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	content = strings.Join(lines, "\n")
	content = excessBlankLines.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}

func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	if line == "" {
		return ""
	}

	body := strings.TrimLeft(line, " \t")
	indent := line[:len(line)-len(body)]

	return indent + innerSpaces.ReplaceAllString(body, " ")
}
