package render

import (
	"bytes"
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/rl1809/inventory-sale/internal/core/domain"
	"github.com/rl1809/inventory-sale/internal/port"
)

// TextRenderer renders a committed receipt as a plain-text artifact:
// heading, issue date and time, receipt number, one row per line and
// the grand total.
type TextRenderer struct{}

func NewTextRenderer() *TextRenderer { return &TextRenderer{} }

var _ port.ReceiptRenderer = (*TextRenderer)(nil)

func (*TextRenderer) Render(ctx context.Context, receipt *domain.Receipt) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, "Sales Receipt")
	fmt.Fprintf(&buf, "Receipt #: %d\n", receipt.Number)
	fmt.Fprintf(&buf, "Date: %s\n", receipt.IssuedAt.Format("2006-01-02"))
	fmt.Fprintf(&buf, "Time: %s\n", receipt.IssuedAt.Format("15:04:05"))
	fmt.Fprintln(&buf)

	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Name\tUnit Price\tQuantity\tTotal")
	for _, line := range receipt.Lines {
		fmt.Fprintf(w, "%s\t$%s\t%d\t$%s\n",
			line.Name, line.UnitPrice.String(), line.Quantity, line.LineTotal.String())
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("render lines: %w", err)
	}

	fmt.Fprintf(&buf, "\nGrand Total: $%s\n", receipt.GrandTotal.String())
	return buf.Bytes(), nil
}

// FileName returns the artifact name for a receipt, numbered per owner
// the way the receipt itself is.
func FileName(receipt *domain.Receipt) string {
	return fmt.Sprintf("receipt%d_%s.txt", receipt.Number, receipt.OwnerID)
}
