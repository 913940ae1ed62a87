package services

import (
	"fmt"
	"io"
	"strings"

	"distributor/internal/models"

	"github.com/go-pdf/fpdf"
)

// WriteInvoice renders a one page PDF invoice for order, addressed to customer.
func WriteInvoice(w io.Writer, order *models.Order, customer *models.User) error {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetTitle(fmt.Sprintf("Invoice #%d", order.ID), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 24)
	pdf.Text(50, 60, "INVOICE")

	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(50, 85, fmt.Sprintf("Order ID: #%d", order.ID))
	pdf.Text(50, 100, "Date: "+order.CreatedAt.Format("2006-01-02 15:04"))
	pdf.Text(50, 115, "Customer: "+customer.Username)

	pdf.SetDrawColor(128, 128, 128)
	pdf.Line(50, 135, 550, 135)

	y := 165.0
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(50, y, "Item")
	pdf.Text(300, y, "Quantity")
	pdf.Text(450, y, "Total")

	y += 30
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(50, y, order.ProductName)
	pdf.Text(300, y, fmt.Sprint(order.Quantity))
	pdf.Text(450, y, "$"+order.TotalAmount.StringFixed(2))

	y += 50
	pdf.Line(50, y, 550, y)
	y += 30

	rows := []struct {
		label string
		value string
	}{
		{"Total Amount:", order.TotalAmount.StringFixed(2)},
		{"Advance Paid:", order.AdvancePayment.StringFixed(2)},
		{"Remaining Due:", order.RemainingAmount.StringFixed(2)},
	}
	for _, r := range rows {
		pdf.Text(350, y, r.label)
		pdf.Text(450, y, "$"+r.value)
		y += 20
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(50, y, "Status: "+strings.ToUpper(string(order.Status)))

	return pdf.Output(w)
}
