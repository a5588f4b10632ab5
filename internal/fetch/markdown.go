// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

var (
	nonSlugChars   = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	slugSeparators = regexp.MustCompile(`[-\s]+`)

	excessNewlines  = regexp.MustCompile(`\n{3,}`)
	whitespaceLines = regexp.MustCompile(`(?m)^[ \t]+$`)
)

// Slugify converts an article title into a file-name slug: lowercased,
// punctuation dropped, runs of spaces and hyphens collapsed to one
// hyphen. The result may be empty for titles made of punctuation only.
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = nonSlugChars.ReplaceAllString(slug, "")
	slug = slugSeparators.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// ToMarkdown converts an HTML article body to Markdown and normalizes
// whitespace: at most one blank line between blocks, no whitespace-only
// lines, no leading or trailing blank space.
func ToMarkdown(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}

	converter := md.NewConverter("", true, nil)
	out, err := converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("converting HTML: %w", err)
	}

	out = whitespaceLines.ReplaceAllString(out, "")
	out = excessNewlines.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out), nil
}
