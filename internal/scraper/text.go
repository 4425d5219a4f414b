package scraper

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ErrExtraction is returned (wrapped) when a document cannot be turned into text.
var ErrExtraction = errors.New("extraction failed")

// nonContent holds elements whose character data is never page text.
const nonContent = "script, style, noscript, template"

// ExtractText flattens an HTML document to plain text
func ExtractText(doc string) (string, error) {
	return ExtractTextFromReader(strings.NewReader(doc))
}

// ExtractTextFromReader flattens the HTML read from r.
// Text nodes are trimmed, empty ones skipped, and the rest joined by single
// spaces in document order. Runs of whitespace inside a node collapse too.
func ExtractTextFromReader(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("%w: parsing HTML: %v", ErrExtraction, err)
	}

	doc.Find(nonContent).Remove()

	parts := make([]string, 0, 64)
	for _, n := range doc.Nodes {
		collectText(n, &parts)
	}

	return strings.Join(strings.Fields(strings.Join(parts, " ")), " "), nil
}

// ExtractDocument decodes d and flattens it.
func ExtractDocument(d *Document) (string, error) {
	text, err := d.Text()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	return ExtractText(text)
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}
