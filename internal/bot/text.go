package bot

import "strings"

const (
	// SplitChance is the probability that a bot reply is delivered as two
	// chat messages.
	SplitChance = 0.3
	// RepeatAcceptChance is the probability that a bot reply is kept when
	// the previous chat message was also from the bot.
	RepeatAcceptChance = 0.1
	// LongMessageLength is the byte length above which a reply without a
	// usable sentence break is split on a word boundary.
	LongMessageLength = 80
)

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// SplitMessage decides whether msg is sent as one or two parts. roll is a
// uniform sample in [0,1). When two parts are returned,
// parts[0] + " " + parts[1] == msg.
func SplitMessage(msg string, roll float64) []string {
	if roll > SplitChance {
		return []string{msg}
	}

	if parts, ok := splitNearMiddle(msg, ". ", 1); ok {
		return parts
	}
	if len(msg) > LongMessageLength {
		if parts, ok := splitNearMiddle(msg, " ", 0); ok {
			return parts
		}
	}
	return []string{msg}
}

// splitNearMiddle cuts msg at the first occurrence of sep that reaches half of
// its length. keep is how many bytes of sep stay on the first part.
func splitNearMiddle(msg, sep string, keep int) ([]string, bool) {
	pieces := strings.Split(msg, sep)
	if len(pieces) < 2 {
		return nil, false
	}

	total := len(msg)
	cur := 0
	for i := 0; i < len(pieces)-1; i++ {
		cur += len(pieces[i]) + len(sep)
		if cur*2 < total {
			continue
		}
		first := strings.Join(pieces[:i+1], sep) + sep[:keep]
		second := strings.Join(pieces[i+1:], sep)
		if strings.TrimSpace(first) == "" || strings.TrimSpace(second) == "" {
			return nil, false
		}
		return []string{first, second}, true
	}
	return nil, false
}
