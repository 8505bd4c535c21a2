package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

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
	// <br> separates lines inside a single element
	if node.Type == html.ElementNode && node.Data == "br" {
		buffer.WriteString("\n")
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`[ \t]+`)

func cleanLine(s string) string {
	var out strings.Builder
	for _, c := range s {
		if unicode.IsPrint(c) {
			out.WriteRune(c)
		}
	}
	line := strings.TrimSpace(out.String())
	return innerWhitespace.ReplaceAllString(line, " ")
}

// TextLines flattens an HTML fragment into its visible text, one line
// per top-level element (plus explicit <br> breaks), skipping blanks.
func TextLines(fragment string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, err
	}

	var lines []string
	doc.Find("body").Children().Each(func(_ int, sel *goquery.Selection) {
		for _, node := range sel.Nodes {
			for _, raw := range strings.Split(GetText(node), "\n") {
				line := cleanLine(raw)
				if line != "" {
					lines = append(lines, line)
				}
			}
		}
	})
	return lines, nil
}
