package notification

import (
	"fmt"

	"rpdbot/internal/model"
)

// SignalAlert renders a reversal signal as a Telegram-flavored Markdown alert:
// direction label, price to 4 decimals, confidence to 2.
func SignalAlert(sig *model.Signal) Alert {
	emoji := "🟢"
	label := "VALLEY REVERSAL (LONG)"
	if sig.Kind == model.SignalPeak {
		emoji = "🔴"
		label = "PEAK REVERSAL (SHORT)"
	}

	msg := fmt.Sprintf(
		"*Asset:* %s (%s)\n*Timeframe:* %s\n*Signal:* %s\n*Price:* `%.4f`\n*Probability:* `%.2f%%` (Simplified)",
		sig.Asset, sig.Symbol, sig.Interval, label, sig.Price, sig.Confidence,
	)

	return Alert{
		Level:   AlertSignal,
		Title:   fmt.Sprintf("%s RPD Signal Detected %s", emoji, emoji),
		Message: msg,
		Signal:  sig,
	}
}
