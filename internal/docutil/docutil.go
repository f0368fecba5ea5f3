// Package docutil holds small helpers for reading order documents: locating
// anchor text in markup, walking up and across table structure, and cleaning
// up currency and free-text values.
package docutil

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
)

var (
	ErrNotFound      = errors.New("document node not found")
	ErrInvalidAmount = errors.New("invalid currency amount")
)

// NotFoundError reports a lookup that found nothing
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return "document node not found: " + e.What
}

// Is implements the errors.Is interface for NotFoundError
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Parse reads a raw markup document
func Parse(document string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// FindText returns the first text node beneath root, in document order,
// whose content matches pattern.
func FindText(root *goquery.Selection, pattern *regexp.Regexp) (*goquery.Selection, error) {
	var found *html.Node
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.TextNode && pattern.MatchString(n.Data) {
			found = n
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	for _, n := range root.Nodes {
		if walk(n) {
			return goquery.NewDocumentFromNode(found).Selection, nil
		}
	}
	return nil, &NotFoundError{What: fmt.Sprintf("text matching %q", pattern.String())}
}

// Ancestor climbs the given number of element parents
func Ancestor(sel *goquery.Selection, levels int) (*goquery.Selection, error) {
	for i := 0; i < levels; i++ {
		sel = sel.Parent()
		if sel.Length() == 0 {
			return nil, &NotFoundError{What: fmt.Sprintf("ancestor %d of %d", i+1, levels)}
		}
	}
	return sel, nil
}

// Cell returns the index-th <td> beneath sel, counting nested cells in
// document order.
func Cell(sel *goquery.Selection, index int) (*goquery.Selection, error) {
	cells := sel.Find("td")
	if index < 0 || index >= cells.Length() {
		return nil, &NotFoundError{What: fmt.Sprintf("cell %d of %d", index, cells.Length())}
	}
	return cells.Eq(index), nil
}

// Text returns the selection's text with whitespace runs collapsed
func Text(sel *goquery.Selection) string {
	return NormalizeSpace(sel.Text())
}

// NormalizeSpace trims s and collapses internal whitespace to single spaces
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var shortenReplacer = strings.NewReplacer(",", "", ".", "", "$", "")

// ShortenWords drops commas, periods and dollar signs and keeps the first n
// words. A non-positive n keeps every word.
func ShortenWords(s string, n int) string {
	words := strings.Fields(shortenReplacer.Replace(s))
	if n > 0 && len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

var amountReplacer = strings.NewReplacer("$", "", ",", "")

// ParseAmount parses a currency string such as "-$1,234.56"
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(amountReplacer.Replace(s))
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// Truncate keeps at most n characters of s
func Truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
