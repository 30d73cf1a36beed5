// internal/bot/format.go
package bot

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"xrpl-wallet-bot/internal/domain"
	"xrpl-wallet-bot/pkg/utils"
)

var hundred = decimal.NewFromInt(100)

// formatPriceHistory renders the series as a monospaced table followed by
// the change between the first and last point.
func formatPriceHistory(points []domain.PricePoint) string {
	var b strings.Builder
	b.WriteString("*XRP price, last 7 days (USD)*\n```\n")
	for _, p := range points {
		fmt.Fprintf(&b, "%s  $%s\n", p.Time.UTC().Format("Jan 02 15:04"), p.PriceUSD.StringFixed(4))
	}
	b.WriteString("```")

	first, last := points[0].PriceUSD, points[len(points)-1].PriceUSD
	if len(points) > 1 && first.IsPositive() {
		change := last.Sub(first).Div(first).Mul(hundred)
		arrow := "📈"
		if change.IsNegative() {
			arrow = "📉"
		}
		sign := ""
		if !change.IsNegative() {
			sign = "+"
		}
		fmt.Fprintf(&b, "\n7-day change: %s%s%% %s", sign, change.StringFixed(2), arrow)
	}
	return b.String()
}

func formatTransactions(txs []domain.TransactionSummary) string {
	var b strings.Builder
	b.WriteString("*Recent payments*\n")
	for _, tx := range txs {
		b.WriteString("\n")
		switch tx.Direction {
		case domain.TxDirectionOutgoing:
			fmt.Fprintf(&b, "⬆️ Sent %s to `%s`", utils.FormatBalance(tx.Amount), utils.ShortAddress(tx.Counterparty))
		default:
			fmt.Fprintf(&b, "⬇️ Received %s from `%s`", utils.FormatBalance(tx.Amount), utils.ShortAddress(tx.Counterparty))
		}
		if !tx.Timestamp.IsZero() {
			fmt.Fprintf(&b, " on %s", tx.Timestamp.UTC().Format("Jan 02 15:04"))
		}
		fmt.Fprintf(&b, "\nHash: `%s`\n", shortHash(tx.Hash))
	}
	return strings.TrimRight(b.String(), "\n")
}

func shortHash(h string) string {
	if len(h) <= 16 {
		return h
	}
	return h[:8] + "…" + h[len(h)-8:]
}

func formatUnconfirmed(logs []*domain.TransferLog) string {
	var b strings.Builder
	b.WriteString("⚠️ *Outcome not confirmed*\n")
	for _, t := range logs {
		fmt.Fprintf(&b, "• %s to `%s`", utils.FormatBalance(t.Amount), utils.ShortAddress(t.ToAddress))
		if t.TxHash != "" {
			fmt.Fprintf(&b, " (hash `%s`)", shortHash(t.TxHash))
		}
		b.WriteString("\n")
	}
	b.WriteString("Check your balance before sending again.")
	return b.String()
}
