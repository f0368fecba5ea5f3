package reconcile

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/amazon-ynab-reconciler/internal/docutil"
	"github.com/amazon-ynab-reconciler/internal/domain/invoice"
	"github.com/amazon-ynab-reconciler/internal/domain/order"
	"github.com/shopspring/decimal"
)

const settlementDateLayout = "January 2, 2006"

// Anchor texts located in invoice documents
const (
	preTaxAnchor = "Total before tax"
	taxAnchor    = "Estimated tax to be collected"
)

// DatePolicy selects the settlement date when several settlement events
// carry the charged amount
type DatePolicy string

const (
	// DatePolicyLastInDocument keeps the last matching event in scan order
	DatePolicyLastInDocument DatePolicy = "last_in_document"
	// DatePolicyLatest keeps the chronologically latest matching event
	DatePolicyLatest DatePolicy = "latest"
)

// ExtractorOptions tunes invoice extraction
type ExtractorOptions struct {
	ShortItems       bool
	WordsPerItem     int
	SettlementMethod order.SettlementMethod
	DatePolicy       DatePolicy
}

// DefaultExtractorOptions returns the options used when nothing is configured
func DefaultExtractorOptions() ExtractorOptions {
	return ExtractorOptions{
		ShortItems:       true,
		WordsPerItem:     3,
		SettlementMethod: order.SettlementCreditCard,
		DatePolicy:       DatePolicyLastInDocument,
	}
}

// Extractor turns raw invoice documents into structured invoices. It holds
// no per-call state and may be shared between goroutines.
type Extractor struct {
	opts              ExtractorOptions
	preTaxPattern     *regexp.Regexp
	taxPattern        *regexp.Regexp
	settlementPattern *regexp.Regexp
}

// NewExtractor creates an Extractor with the given options
func NewExtractor(opts ExtractorOptions) *Extractor {
	if opts.SettlementMethod == "" {
		opts.SettlementMethod = order.SettlementCreditCard
	}
	if opts.DatePolicy == "" {
		opts.DatePolicy = DatePolicyLastInDocument
	}
	return &Extractor{
		opts:              opts,
		preTaxPattern:     regexp.MustCompile(regexp.QuoteMeta(preTaxAnchor)),
		taxPattern:        regexp.MustCompile(regexp.QuoteMeta(taxAnchor)),
		settlementPattern: regexp.MustCompile(regexp.QuoteMeta(string(opts.SettlementMethod) + " transactions")),
	}
}

// Extract builds the invoice for one order. charged is the amount charged to
// the configured settlement method, or nil when the order has none; without
// it no settlement date is looked up. Only a missing pre-tax or tax total is
// an error.
func (x *Extractor) Extract(orderID, document string, charged *decimal.Decimal) (*invoice.Invoice, error) {
	doc, err := docutil.Parse(document)
	if err != nil {
		return nil, err
	}

	inv := &invoice.Invoice{OrderID: orderID}
	if charged != nil {
		c := *charged
		inv.ChargedAmount = &c
	}

	inv.Items = x.lineItems(doc)
	inv.ItemNames = x.itemNames(inv.Items)

	preTax, err := x.total(doc, orderID, x.preTaxPattern, invoice.FieldPreTaxTotal, preTaxAnchor)
	if err != nil {
		return nil, err
	}
	inv.PreTaxTotal = &preTax

	tax, err := x.total(doc, orderID, x.taxPattern, invoice.FieldTaxTotal, taxAnchor)
	if err != nil {
		return nil, err
	}
	inv.TaxTotal = &tax

	inv.DeriveTaxRate()

	if charged != nil {
		inv.SettlementDate = x.settlementDate(doc, charged.Abs())
	}

	return inv, nil
}

// lineItems reads every italicized item name. The quantity leads the
// enclosing cell's text and the unit price sits in the row's second cell.
// Rows that do not have that shape are skipped.
func (x *Extractor) lineItems(doc *goquery.Document) []invoice.LineItem {
	items := []invoice.LineItem{}
	doc.Find("i").Each(func(_ int, name *goquery.Selection) {
		text := docutil.Text(name)
		if text == "" {
			return
		}

		cell := name.Parent()
		fields := strings.Fields(cell.Text())
		if len(fields) == 0 {
			return
		}
		qty, err := strconv.Atoi(fields[0])
		if err != nil || qty <= 0 {
			return
		}

		priceCell, err := docutil.Cell(cell.Parent(), 1)
		if err != nil {
			return
		}
		price, err := docutil.ParseAmount(docutil.Text(priceCell))
		if err != nil {
			return
		}

		items = append(items, invoice.LineItem{
			Name:      text,
			Quantity:  qty,
			UnitPrice: price,
			Amount:    price.Mul(decimal.NewFromInt(int64(qty))),
		})
	})
	return items
}

func (x *Extractor) itemNames(items []invoice.LineItem) []string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		if x.opts.ShortItems {
			names = append(names, docutil.ShortenWords(item.Name, x.opts.WordsPerItem))
		} else {
			names = append(names, item.Name)
		}
	}
	return names
}

// total reads the value cell next to a labelled totals row
func (x *Extractor) total(doc *goquery.Document, orderID string, pattern *regexp.Regexp, field, anchor string) (decimal.Decimal, error) {
	missing := &invoice.RequiredFieldMissingError{OrderID: orderID, Field: field, Anchor: anchor}

	label, err := docutil.FindText(doc.Selection, pattern)
	if err != nil {
		return decimal.Zero, missing
	}
	row, err := docutil.Ancestor(label, 2)
	if err != nil {
		return decimal.Zero, missing
	}
	cell, err := docutil.Cell(row, 1)
	if err != nil {
		return decimal.Zero, missing
	}
	value, err := docutil.ParseAmount(docutil.Text(cell))
	if err != nil {
		return decimal.Zero, missing
	}
	return value, nil
}

// settlementDate scans the settlement block for events whose amount equals
// target. Each event is a label cell ("<card>: <date>:") followed by an
// amount cell.
func (x *Extractor) settlementDate(doc *goquery.Document, target decimal.Decimal) *time.Time {
	anchor, err := docutil.FindText(doc.Selection, x.settlementPattern)
	if err != nil {
		return nil
	}
	block, err := docutil.Ancestor(anchor, 4)
	if err != nil {
		return nil
	}
	events, err := docutil.Cell(block, 1)
	if err != nil {
		return nil
	}

	var chosen *time.Time
	cells := events.Find("td")
	cells.Each(func(ix int, cell *goquery.Selection) {
		if ix == 0 {
			return
		}
		amount, err := docutil.ParseAmount(docutil.Text(cell))
		if err != nil || !amount.Equal(target) {
			return
		}
		date, ok := parseEventDate(docutil.Text(cells.Eq(ix - 1)))
		if !ok {
			return
		}
		if x.opts.DatePolicy == DatePolicyLatest && chosen != nil && !date.After(*chosen) {
			return
		}
		chosen = &date
	})
	return chosen
}

func parseEventDate(label string) (time.Time, bool) {
	parts := strings.SplitN(label, ":", 3)
	if len(parts) < 2 {
		return time.Time{}, false
	}
	date, err := time.Parse(settlementDateLayout, strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}
