package parser

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Filler joins words in normalized output so that cross-word shingles carry
// the word boundary as content.
const Filler = '_'

// Normalize cleans raw document text into the canonical form the shingle
// extractor consumes: Unicode NFKD normalization, lower-cased letters and
// digits only, every other run of characters collapsed to a single Filler.
// The whole pass is a single scan over the string.
func Normalize(text string) string {
	t := transform.Chain(norm.NFKD)
	normalized, _, _ := transform.String(t, text)

	var sb strings.Builder
	sb.Grow(len(normalized))

	fillerPending := false
	for _, r := range normalized {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			if fillerPending && sb.Len() > 0 {
				sb.WriteRune(Filler)
			}
			sb.WriteRune(unicode.ToLower(r)) // ToLower is safe; it has no effect on caseless scripts.
			fillerPending = false
		} else {
			fillerPending = true
		}
	}

	return sb.String()
}

// ExtractText strips markup from an HTML document and returns its visible
// text. Parse failures fall back to the raw input; a best-effort extraction
// beats losing the document.
func ExtractText(htmlBody string) string {
	doc, err := html.Parse(strings.NewReader(htmlBody))
	if err != nil {
		return htmlBody
	}

	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		case n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style"):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}

	extract(doc)
	return strings.TrimSpace(buf.String())
}
