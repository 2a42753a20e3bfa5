package htmlutil

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText returns the raw concatenation of every text node under node.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

func collectParts(node *html.Node, out *[]string) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		trimmed := strings.TrimSpace(node.Data)
		if trimmed != "" {
			*out = append(*out, trimmed)
		}
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectParts(child, out)
	}
}

// TextParts returns every text node under the selection with surrounding whitespace
// trimmed, dropping the ones that are empty after trimming. Content separated by
// elements (ex. <br>) ends up in different parts.
func TextParts(sel *goquery.Selection) []string {
	var parts []string
	for _, n := range sel.Nodes {
		collectParts(n, &parts)
	}
	return parts
}

// StrippedText is the text of a selection with every text node trimmed and joined
// without a separator.
func StrippedText(sel *goquery.Selection) string {
	return strings.Join(TextParts(sel), "")
}

// CellTexts returns the StrippedText of every `td` directly or indirectly under row.
func CellTexts(row *goquery.Selection) []string {
	cells := row.Find("td")
	out := make([]string, cells.Length())
	cells.Each(func(i int, cell *goquery.Selection) {
		out[i] = StrippedText(cell)
	})
	return out
}

// At returns values[i] or the empty string if i is out of range.
func At(values []string, i int) string {
	if i < 0 || i >= len(values) {
		return ""
	}
	return values[i]
}
