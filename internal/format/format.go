// Package format renders costs, token counts and durations for terminal output.
package format

import (
	"fmt"
	"strconv"
	"time"
)

// USD formats an amount with the four decimals used by the cost ledger.
func USD(amount float64) string {
	return fmt.Sprintf("$%.4f", amount)
}

// Tokens formats a token count with thousands separators: 12345 -> "12,345".
func Tokens(n int) string {
	s := strconv.Itoa(n)
	neg := n < 0
	if neg {
		s = s[1:]
	}
	out := make([]byte, 0, len(s)+len(s)/3)
	for i := range len(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

// Duration formats a processing time for human display.
// Examples: "850ms", "1.2s", "2m05s".
func Duration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		m := d / time.Minute
		s := (d % time.Minute) / time.Second
		return fmt.Sprintf("%dm%02ds", m, s)
	}
}

// Percent formats a progress value: 42 -> "42%".
func Percent(p int) string {
	return strconv.Itoa(p) + "%"
}
