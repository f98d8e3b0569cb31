package receipt

import (
	"fmt"
	"strings"

	"github.com/nikolayk812/store-checkout/internal/domain"
)

// Total recomputes the customer-facing total from the snapshot and rounds it
// up to whole cents. Margin pricing rounds half-up instead; the two rules
// are kept apart on purpose.
func Total(rc domain.Receipt) (domain.Money, error) {
	lines := rc.Lines()
	if len(lines) == 0 {
		return domain.Money{}, domain.ErrEmptyReceipt
	}

	sum := domain.ZeroMoney(lines[0].UnitPrice.Currency)
	for _, line := range lines {
		var err error
		if sum, err = sum.Add(line.Total()); err != nil {
			return domain.Money{}, fmt.Errorf("sum.Add[%s]: %w", line.ProductID, err)
		}
	}

	return sum.RoundUp(domain.MoneyPlaces), nil
}

// Render formats a receipt as plain text.
func Render(rc domain.Receipt) (string, error) {
	total, err := Total(rc)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("===== RECEIPT =====\n")
	fmt.Fprintf(&sb, "Receipt Number: %s\n", rc.Serial())
	fmt.Fprintf(&sb, "Cashier: %s\n", rc.Cashier().Name)
	fmt.Fprintf(&sb, "Date: %s\n", rc.IssuedOn())
	sb.WriteString("-------------------\n")
	sb.WriteString("Items:\n")
	for _, line := range rc.Lines() {
		fmt.Fprintf(&sb, "  %s - %s x %s = %s\n",
			line.Name,
			line.Quantity,
			line.UnitPrice.Amount.StringFixed(domain.MoneyPlaces),
			line.Total().RoundUp(domain.MoneyPlaces).Amount.StringFixed(domain.MoneyPlaces),
		)
	}
	sb.WriteString("-------------------\n")
	fmt.Fprintf(&sb, "Total: %s\n", total)
	sb.WriteString("===================\n")

	return sb.String(), nil
}
