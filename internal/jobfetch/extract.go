package jobfetch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// minSelectorText is how much text a selector must yield to be trusted as the
// posting body.
const minSelectorText = 200

var jobSelectors = []string{
	// LinkedIn
	".description__text",
	".show-more-less-html__markup",
	// Indeed
	"#jobDescriptionText",
	".jobsearch-jobDescriptionText",
	// Greenhouse
	"#content",
	".job-description",
	// Lever
	".posting-page",
	".content",
	// Workday
	".job-posting",
	// generic
	"[class*='job-description']",
	"[class*='jobDescription']",
	"[id*='job-description']",
	"article",
	"main",
}

const noiseSelector = "script, style, nav, header, footer, noscript"

// ExtractContent finds the job posting region of an HTML page and returns its
// cleaned text. The first selector yielding enough text wins; the page body
// is the fallback.
func ExtractContent(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(noiseSelector).Remove()

	for _, selector := range jobSelectors {
		selection := doc.Find(selector)
		if selection.Length() == 0 {
			continue
		}
		parts := selection.Map(func(_ int, s *goquery.Selection) string {
			return nodeText(s)
		})
		text := strings.Join(parts, "\n")
		if len(text) > minSelectorText {
			return CleanText(text), nil
		}
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		return "", errors.New("page has no body")
	}
	text := CleanText(nodeText(body))
	if text == "" {
		return "", errors.New("page has no text content")
	}
	return text, nil
}

// nodeText joins the trimmed text nodes under s with newlines so that block
// boundaries survive.
func nodeText(s *goquery.Selection) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.Join(parts, "\n")
}

// CleanText trims every line, drops empty lines and collapses consecutive
// duplicates.
func CleanText(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(out) > 0 && out[len(out)-1] == line {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
