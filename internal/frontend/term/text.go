package term

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// fragmentLines flattens a server-rendered fragment into one line per
// block element, skipping hidden ones unless showHidden is set
func fragmentLines(markup string, showHidden bool) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return []string{collapse(markup)}
	}

	var lines []string
	doc.Find("h1, h2, h3, h4, p, li, a, time").Each(func(_ int, s *goquery.Selection) {
		if !showHidden && s.ParentsFiltered("[hidden]").Length() > 0 {
			return
		}
		// text inside an already printed block comes out with its parent
		if s.ParentsFiltered("p, li, h1, h2, h3, h4").Length() > 0 {
			return
		}
		text := collapse(s.Text())
		if text == "" {
			return
		}
		if goquery.NodeName(s) == "a" {
			if href, ok := s.Attr("href"); ok && href != "" {
				text += " <" + href + ">"
			}
		}
		lines = append(lines, text)
	})
	if len(lines) == 0 {
		if text := collapse(doc.Text()); text != "" {
			lines = append(lines, text)
		}
	}
	return lines
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
