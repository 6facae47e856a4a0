// Package report renders admin sales exports as spreadsheets.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/phenrril/storefront/internal/domain"
)

const (
	ordersSheet  = "Orders"
	summarySheet = "Summary"
	dateLayout   = "2006-01-02 15:04"
)

var orderHeader = []any{
	"Number", "Date", "Status", "Customer", "Email", "Phone", "City", "Zone", "Payment",
	"Items", "Subtotal", "Discount", "Coupon", "Shipping", "Total",
}

type XLSX struct{}

func (XLSX) Write(w io.Writer, orders []domain.Order, summary domain.SalesSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(ordersSheet, "A1", &orderHeader); err != nil {
		return err
	}
	if err := f.SetRowStyle(ordersSheet, 1, 1, bold); err != nil {
		return err
	}
	for i, o := range orders {
		items := 0
		for _, it := range o.Items {
			items += it.Quantity
		}
		row := []any{
			o.Number,
			o.CreatedAt.Format(dateLayout),
			string(o.Status),
			o.Name,
			o.Email,
			o.Phone,
			o.City,
			string(o.ShippingZone),
			string(o.PaymentMethod),
			items,
			o.Subtotal.InexactFloat64(),
			o.DiscountAmount.InexactFloat64(),
			o.CouponCode,
			o.ShippingFee.InexactFloat64(),
			o.TotalAmount.InexactFloat64(),
		}
		if err := f.SetSheetRow(ordersSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	if len(orders) > 0 {
		last := len(orders) + 1
		if err := f.SetCellStyle(ordersSheet, "K2", fmt.Sprintf("O%d", last), money); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(ordersSheet, "D", "E", 28); err != nil {
		return err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	rows := [][]any{
		{"From", summary.From.Format(dateLayout)},
		{"To", summary.To.Format(dateLayout)},
		{"Orders", summary.Orders},
		{"Revenue", summary.Revenue.InexactFloat64()},
		{"Discounts", summary.Discounts.InexactFloat64()},
		{"Shipping", summary.Shipping.InexactFloat64()},
		{"Average order", summary.AvgOrderValue.InexactFloat64()},
	}
	for _, s := range domain.OrderStatuses {
		rows = append(rows, []any{"Status " + string(s), summary.StatusCounts[s]})
	}
	for _, code := range sortedKeys(summary.CouponUsage) {
		rows = append(rows, []any{"Coupon " + code, summary.CouponUsage[code]})
	}
	for i, row := range rows {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return err
		}
	}
	if err := f.SetColStyle(summarySheet, "A", bold); err != nil {
		return err
	}
	return f.Write(w)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
