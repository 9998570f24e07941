package olza

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// sanitizeText turns an upstream label into plain single-line text: markup
// and script bodies are dropped, entities decoded, whitespace collapsed.
func sanitizeText(s string) string {
	s = strings.ToValidUTF8(s, "")
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			doc.Find("script, style").Remove()
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}
