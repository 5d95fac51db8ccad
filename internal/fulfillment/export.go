package fulfillment

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/storefront/report"
	"github.com/odyssey-erp/storefront/web"
)

var csvHeader = []string{
	"product_id", "product_name", "category", "unit",
	"one_time_customers", "one_time_quantity", "recurring_customers", "recurring_quantity",
	"required_stock", "current_stock", "shortfall", "stock_status",
}

// WriteCSV writes one row per requirement of plan.
func WriteCSV(w io.Writer, plan Plan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range plan.Requirements {
		row := []string{
			strconv.FormatInt(r.ProductID, 10),
			r.ProductName,
			r.Category,
			r.Unit,
			strconv.Itoa(r.OneTime.CustomerCount),
			r.OneTime.Quantity.String(),
			strconv.Itoa(r.Recurring.CustomerCount),
			r.Recurring.Quantity.String(),
			r.RequiredStock.String(),
			r.CurrentStock.String(),
			r.Shortfall.String(),
			string(r.StockStatus),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var sheetTemplate = template.Must(template.New("packaging_sheet.html").Funcs(template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("Monday, January 2, 2006")
	},
	"formatQty": func(q decimal.Decimal) string { return q.String() },
	"join": func(fs []Frequency) string {
		parts := make([]string, 0, len(fs))
		for _, f := range fs {
			parts = append(parts, string(f))
		}
		return strings.Join(parts, ", ")
	},
}).ParseFS(web.Templates, "templates/reports/packaging_sheet.html"))

// RenderHTML renders the printable packaging sheet of plan.
func RenderHTML(plan Plan) (string, error) {
	buf := &bytes.Buffer{}
	if err := sheetTemplate.ExecuteTemplate(buf, "packaging_sheet.html", plan); err != nil {
		return "", fmt.Errorf("fulfillment: render packaging sheet: %w", err)
	}
	return buf.String(), nil
}

// PDFRenderer converts HTML to PDF.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, filename, html string, page report.PageOptions) ([]byte, error)
}

// SheetFilename names the exported sheet of plan.
func SheetFilename(plan Plan, ext string) string {
	return fmt.Sprintf("packaging-%d-%s.%s", plan.VendorID, plan.Date.Format("2006-01-02"), ext)
}

// RenderPDF renders the packaging sheet and converts it to PDF.
func RenderPDF(ctx context.Context, renderer PDFRenderer, plan Plan) ([]byte, error) {
	html, err := RenderHTML(plan)
	if err != nil {
		return nil, err
	}
	page := report.A4
	page.Landscape = true
	pdf, err := renderer.RenderHTML(ctx, SheetFilename(plan, "pdf"), html, page)
	if err != nil {
		return nil, fmt.Errorf("fulfillment: render pdf: %w", err)
	}
	return pdf, nil
}
