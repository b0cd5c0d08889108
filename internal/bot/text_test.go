package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hel", Truncate("hello", 3))
	assert.Equal(t, "", Truncate("hello", 0))
	// counts runes, not bytes
	assert.Equal(t, "héé", Truncate("héééé", 3))
	assert.Len(t, []rune(Truncate(strings.Repeat("x", 500), 120)), 120)
}

func TestSplitMessageAboveGateIsSingle(t *testing.T) {
	msg := "I was at the beach today. The water was cold but nice."
	assert.Equal(t, []string{msg}, SplitMessage(msg, 0.31))
	assert.Equal(t, []string{msg}, SplitMessage(msg, 0.99))
}

func TestSplitMessageOnSentence(t *testing.T) {
	msg := "I was at the beach today. The water was cold but nice."
	parts := SplitMessage(msg, 0.1)
	require.Len(t, parts, 2)
	assert.Equal(t, "I was at the beach today.", parts[0])
	assert.Equal(t, "The water was cold but nice.", parts[1])
	assert.Equal(t, msg, parts[0]+" "+parts[1])
}

func TestSplitMessageOnWordForLongText(t *testing.T) {
	msg := "honestly i have no idea what you are talking about but it sounds like a lot of fun to me"
	require.Greater(t, len(msg), LongMessageLength)

	parts := SplitMessage(msg, 0.3)
	require.Len(t, parts, 2)
	assert.Equal(t, msg, parts[0]+" "+parts[1])
	assert.NotContains(t, parts[0], "  ")
}

func TestSplitMessageShortWithoutSentenceStaysWhole(t *testing.T) {
	msg := "lol same here"
	assert.Equal(t, []string{msg}, SplitMessage(msg, 0))
}

func TestSplitMessageConcatenationInvariant(t *testing.T) {
	msgs := []string{
		"a. b",
		"first. second. third. fourth",
		"short. this second sentence is considerably longer than the first one was",
		strings.Repeat("word ", 30) + "end",
		"trailing dot. ",
	}
	for _, msg := range msgs {
		for _, roll := range []float64{0, 0.15, 0.3} {
			parts := SplitMessage(msg, roll)
			switch len(parts) {
			case 1:
				assert.Equal(t, msg, parts[0])
			case 2:
				assert.Equal(t, msg, parts[0]+" "+parts[1], "msg %q", msg)
				assert.NotEmpty(t, strings.TrimSpace(parts[0]))
				assert.NotEmpty(t, strings.TrimSpace(parts[1]))
			default:
				t.Fatalf("unexpected %d parts for %q", len(parts), msg)
			}
		}
	}
}
