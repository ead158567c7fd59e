package invoices

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/billdesk/billdesk/internal/clients"
)

//go:embed templates/invoice.html
var templateFS embed.FS

var printer = message.NewPrinter(language.MustParse("es-AR"))

// FormatMoney formats an amount the way Argentine invoices print it.
func FormatMoney(d decimal.Decimal) string {
	return printer.Sprintf("$ %.2f", d.Round(2).InexactFloat64())
}

var invoiceTemplate = template.Must(template.New("invoice.html").
	Funcs(template.FuncMap{"money": FormatMoney}).
	ParseFS(templateFS, "templates/invoice.html"))

type invoiceView struct {
	Invoice     Invoice
	Client      clients.Client
	StatusLabel string
}

func statusLabel(status string) string {
	switch status {
	case StatusPaid:
		return "Pagada"
	default:
		return "Pendiente"
	}
}

// RenderHTML renders the invoice as a standalone HTML document.
func RenderHTML(inv Invoice, client clients.Client) (string, error) {
	var buf bytes.Buffer
	err := invoiceTemplate.ExecuteTemplate(&buf, "invoice.html", invoiceView{
		Invoice:     inv,
		Client:      client,
		StatusLabel: statusLabel(inv.Status),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
