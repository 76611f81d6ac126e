package quotes

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FromHTML converts the first <table> of a saved quote page into quote-table
// text: the page title and table caption become the two preamble lines, the
// <th> row becomes the header, and each <td> row becomes a data line.
// Commas inside cells (thousands separators) are removed.
func FromHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return "", nil
	}

	title := cellText(doc.Find("title").First())
	if title == "" {
		title = "quote table"
	}
	caption := cellText(table.Find("caption").First())
	if caption == "" {
		caption = "-"
	}

	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString(caption + "\n")

	var header []string
	table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		row.Find("th").Each(func(_ int, th *goquery.Selection) {
			header = append(header, cellText(th))
		})
		return len(header) == 0
	})
	if len(header) == 0 {
		header = []string{"-"}
	}
	b.WriteString(strings.Join(header, ",") + "\n")

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}
		fields := make([]string, 0, cells.Length())
		cells.Each(func(_ int, td *goquery.Selection) {
			fields = append(fields, cellText(td))
		})
		b.WriteString(strings.Join(fields, ",") + "\n")
	})

	return b.String(), nil
}

func cellText(s *goquery.Selection) string {
	return strings.ReplaceAll(strings.Join(strings.Fields(s.Text()), " "), ",", "")
}

// looksLikeHTML reports whether body should go through FromHTML.
func looksLikeHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '<'
}
