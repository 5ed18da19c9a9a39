// Package receipt renders the printable record of one completed order: a
// fixed-layout A4 PDF with a Code128 barcode encoding the order reference.
// The reference always comes from the saved order; receipts are never issued
// under a freshly generated identifier.
package receipt

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"time"

	"github.com/Math3wsl3vi/beehives-website/internal/blobstore"
	"github.com/Math3wsl3vi/beehives-website/internal/models"
	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

const title = "KMK Beehives Receipt"

// Page geometry in millimetres on A4 portrait. Values carried over from the
// shipped receipt layout; content stays on one page for the handful of line
// items a cart realistically holds.
const (
	pageCenter   = 105.0
	titleY       = 20.0
	headerBoxY   = 30.0
	dateY        = 40.0
	orderIDY     = 50.0
	phoneY       = 60.0
	detailsY     = 80.0
	itemsStartY  = 90.0
	itemLineStep = 10.0
	barcodeX     = 55.0
	barcodeW     = 100.0
	barcodeH     = 30.0
)

type Generator struct {
	Store blobstore.ObjectStore
	// Now is swapped out in tests; the receipt carries its generation date.
	Now func() time.Time
}

func NewGenerator(store blobstore.ObjectStore) *Generator {
	return &Generator{Store: store, Now: time.Now}
}

// ObjectPath is where a given order's receipt lives in the object store.
func ObjectPath(orderRef string) string {
	return fmt.Sprintf("receipts/%s.pdf", orderRef)
}

// Render produces the receipt PDF for an order.
func (g *Generator) Render(order *models.Order) ([]byte, error) {
	barcodePNG, err := barcodePNG(order.OrderRef)
	if err != nil {
		return nil, fmt.Errorf("failed to render barcode: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	centerText(pdf, pageCenter, titleY, title)

	pdf.SetLineWidth(0.5)
	pdf.Line(20, 25, 190, 25)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Rect(18, headerBoxY, 174, 40, "D")

	pdf.Text(22, dateY, "Date:")
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(50, dateY, g.Now().Format("02/01/2006, 15:04:05"))

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(22, orderIDY, "Order ID:")
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(50, orderIDY, order.OrderRef)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(22, phoneY, "Phone Number:")
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(60, phoneY, order.PhoneNumber)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(22, detailsY, "Product Details:")
	pdf.SetFont("Helvetica", "", 12)

	for i, item := range order.Items {
		y := itemsStartY + float64(i)*itemLineStep
		pdf.Text(22, y, fmt.Sprintf("%d. %s x%d - Ksh %s", i+1, item.ProductName, item.Quantity, lineTotal(item)))
	}

	n := float64(len(order.Items))
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(22, itemsStartY+n*itemLineStep, fmt.Sprintf("Total Price: Ksh %s", order.TotalAmount))
	pdf.SetLineWidth(0.3)
	pdf.Line(20, 95+n*itemLineStep, 190, 95+n*itemLineStep)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("order-barcode", opts, bytes.NewReader(barcodePNG))
	pdf.ImageOptions("order-barcode", barcodeX, 100+n*itemLineStep, barcodeW, barcodeH, false, opts, 0, "")

	pdf.SetFont("Helvetica", "I", 12)
	centerText(pdf, pageCenter, 140+n*itemLineStep, "Thank you for choosing KMK Beehives!")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateAndUpload renders the receipt and stores it at
// receipts/<orderRef>.pdf, returning the retrievable URL.
func (g *Generator) GenerateAndUpload(ctx context.Context, order *models.Order) (string, error) {
	pdfBytes, err := g.Render(order)
	if err != nil {
		return "", err
	}
	url, err := g.Store.Put(ctx, ObjectPath(order.OrderRef), "application/pdf", bytes.NewReader(pdfBytes))
	if err != nil {
		return "", fmt.Errorf("failed to upload receipt: %w", err)
	}
	return url, nil
}

func barcodePNG(orderRef string) ([]byte, error) {
	code, err := code128.Encode(orderRef)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, 400, 120)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func centerText(pdf *gofpdf.Fpdf, cx, y float64, s string) {
	pdf.Text(cx-pdf.GetStringWidth(s)/2, y, s)
}

func lineTotal(item models.OrderItem) string {
	price, err := decimal.NewFromString(item.Price)
	if err != nil {
		return "0"
	}
	return price.Mul(decimal.NewFromInt(int64(item.Quantity))).String()
}
