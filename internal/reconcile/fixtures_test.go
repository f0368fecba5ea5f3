package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type fixtureItem struct {
	qty   int
	name  string
	price string
}

type fixtureEvent struct {
	label  string
	amount string
}

type invoiceFixture struct {
	items  []fixtureItem
	preTax string
	tax    string
	method string
	events []fixtureEvent
}

// html renders the fixture in the storefront's printable invoice layout
func (f invoiceFixture) html() string {
	var b strings.Builder
	b.WriteString("<html><body><table><tr><td><b>Items Ordered</b></td><td><b>Price</b></td></tr>\n")
	for _, item := range f.items {
		fmt.Fprintf(&b, "<tr><td>%d of: <i>%s</i><br>Sold by: Example Seller</td><td>%s</td></tr>\n", item.qty, item.name, item.price)
	}
	b.WriteString("</table>\n<table>\n")
	if f.preTax != "" {
		fmt.Fprintf(&b, "<tr><td>Total before tax:</td><td>%s</td></tr>\n", f.preTax)
	}
	if f.tax != "" {
		fmt.Fprintf(&b, "<tr><td>Estimated tax to be collected:</td><td>%s</td></tr>\n", f.tax)
	}
	b.WriteString("</table>\n")
	if f.events != nil {
		method := f.method
		if method == "" {
			method = "Credit Card"
		}
		fmt.Fprintf(&b, "<table><tr><td><b>%s transactions</b></td><td><table>", method)
		for _, ev := range f.events {
			fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td></tr>", ev.label, ev.amount)
		}
		b.WriteString("</table></td></tr></table>\n")
	}
	b.WriteString("</body></html>")
	return b.String()
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func datePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}
