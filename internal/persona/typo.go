package persona

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// Random is the source of every persona coin flip.
type Random interface {
	Float64() float64
	IntN(n int) int
}

type typo struct {
	chance float64
	apply  func(msg []rune, rng Random) []rune
}

// At most one typo is applied per message; the first roll that lands wins.
var typos = []typo{
	{0.15, swapAdjacent},
	{0.12, repeatLetter},
	{0.10, removeSpace},
	{0.08, addSpace},
	{0.08, removeLetter},
	{0.07, doublePunctuation},
	{0.06, capitalizeRandom},
}

const dropQuestionMarkChance = 0.7

// Humanize drops most trailing question marks and may add one typo.
func Humanize(msg string, rng Random) string {
	runes := []rune(msg)
	if len(runes) < 3 {
		return msg
	}
	if runes[len(runes)-1] == '?' && rng.Float64() < dropQuestionMarkChance {
		runes = runes[:len(runes)-1]
	}
	for _, t := range typos {
		if rng.Float64() < t.chance {
			runes = t.apply(runes, rng)
			break
		}
	}
	return string(runes)
}

// RemoveBlocked deletes every case-insensitive occurrence of the blocked words,
// longest first.
func RemoveBlocked(msg string, blocked []string) string {
	words := slices.Clone(blocked)
	slices.SortStableFunc(words, func(a, b string) int { return len(b) - len(a) })

	for _, w := range words {
		if w == "" {
			continue
		}
		re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(w))
		// removal can join the halves into a fresh match
		for re.MatchString(msg) {
			msg = re.ReplaceAllString(msg, "")
		}
	}
	return msg
}

func positions(msg []rune, keep func(i int, r rune) bool) []int {
	var out []int
	for i, r := range msg {
		if keep(i, r) {
			out = append(out, i)
		}
	}
	return out
}

func pick(idx []int, rng Random) (int, bool) {
	if len(idx) == 0 {
		return 0, false
	}
	return idx[rng.IntN(len(idx))], true
}

func swapAdjacent(msg []rune, rng Random) []rune {
	if len(msg) < 2 {
		return msg
	}
	i := rng.IntN(len(msg) - 1)
	out := append([]rune(nil), msg...)
	out[i], out[i+1] = out[i+1], out[i]
	return out
}

func repeatLetter(msg []rune, rng Random) []rune {
	i := rng.IntN(len(msg))
	if !unicode.IsLetter(msg[i]) {
		return msg
	}
	count := 2 + rng.IntN(2)
	out := append([]rune(nil), msg[:i]...)
	for range count {
		out = append(out, msg[i])
	}
	return append(out, msg[i+1:]...)
}

func removeSpace(msg []rune, rng Random) []rune {
	i, ok := pick(positions(msg, func(_ int, r rune) bool { return r == ' ' }), rng)
	if !ok {
		return msg
	}
	return append(append([]rune(nil), msg[:i]...), msg[i+1:]...)
}

func addSpace(msg []rune, rng Random) []rune {
	i, ok := pick(positions(msg, func(i int, r rune) bool {
		return i > 0 && !unicode.IsSpace(msg[i-1]) && !unicode.IsSpace(r)
	}), rng)
	if !ok {
		return msg
	}
	out := append([]rune(nil), msg[:i]...)
	out = append(out, ' ')
	return append(out, msg[i:]...)
}

func removeLetter(msg []rune, rng Random) []rune {
	i, ok := pick(positions(msg, func(i int, r rune) bool {
		return unicode.IsLetter(r) && i > 0 && i < len(msg)-1
	}), rng)
	if !ok {
		return msg
	}
	return append(append([]rune(nil), msg[:i]...), msg[i+1:]...)
}

func doublePunctuation(msg []rune, rng Random) []rune {
	i, ok := pick(positions(msg, func(_ int, r rune) bool { return strings.ContainsRune(".,!?", r) }), rng)
	if !ok {
		return msg
	}
	out := append([]rune(nil), msg[:i+1]...)
	return append(out, msg[i:]...)
}

func capitalizeRandom(msg []rune, rng Random) []rune {
	i, ok := pick(positions(msg, func(i int, r rune) bool { return unicode.IsLetter(r) && i > 0 }), rng)
	if !ok {
		return msg
	}
	out := append([]rune(nil), msg...)
	out[i] = unicode.ToUpper(out[i])
	return out
}
