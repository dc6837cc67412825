package adapter

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var cdataStripper = strings.NewReplacer("<![CDATA[", "", "]]>", "")

// extractText converts an HTML or HTML-encoded feed body to plain text.
// Block elements and <br> become line breaks so marker phrases stay on their
// own lines; runs of spaces collapse and blank lines are dropped.
func extractText(content string) string {
	content = cdataStripper.Replace(content)
	if !strings.ContainsAny(content, "<&") {
		return normalizeLines(content)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return normalizeLines(html.UnescapeString(content))
	}
	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, h1, h2, h3, h4, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	return normalizeLines(doc.Text())
}

func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
