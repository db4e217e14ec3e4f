package ads

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// NormalizeCreative reduces a creative body to its visible text: markup
// stripped, whitespace collapsed, lower-cased. Two creatives that render the
// same text normalize to the same string.
func NormalizeCreative(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}

	text := body
	if strings.ContainsAny(body, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		if err == nil {
			doc.Find("script, style").Remove()
			text = doc.Text()
		}
	}

	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}
