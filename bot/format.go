package bot

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"bitnostr/llm"
)

func usageFooter(usage llm.Usage, elapsed time.Duration) string {
	return fmt.Sprintf("[⬆️ %s ⬇️ %s ⏱️ %s]", compactTokens(usage.InputTokens), compactTokens(usage.OutputTokens), compactDuration(elapsed))
}

// compactTokens renders 1234 as "~1.2k", 1020 as "1.0k" and small counts verbatim.
func compactTokens(count *int64) string {
	if count == nil {
		return "N/A"
	}
	n := *count
	if n < 1000 {
		return formatInt(n)
	}
	if abs(n%1000) > 50 {
		return "~" + fixed1(math.Round(float64(n)/100)/10) + "k"
	}
	return fixed1(float64(n)/1000) + "k"
}

// compactDuration renders sub-second durations in milliseconds and longer ones in seconds.
func compactDuration(elapsed time.Duration) string {
	ms := elapsed.Milliseconds()
	if ms < 1000 {
		return formatInt(ms) + " ms"
	}
	seconds := fixed1(float64(ms) / 1000)
	if abs(ms%1000) > 50 {
		return "~" + seconds + "s"
	}
	return seconds + "s"
}

// fixed1 rounds half away from zero to one decimal place.
func fixed1(value float64) string {
	return strconv.FormatFloat(math.Round(value*10)/10, 'f', 1, 64)
}

func formatInt(value int64) string {
	return strconv.FormatInt(value, 10)
}

func abs(value int64) int64 {
	if value < 0 {
		return -value
	}
	return value
}
