package utils

import (
	"strconv"

	"github.com/scythe504/turing-game-backend/internal"
	"github.com/scythe504/turing-game-backend/internal/store"
)

// =============================================================================
// SEEDING HELPERS
// =============================================================================

// Permuter is satisfied by *rand.Rand.
type Permuter interface {
	Perm(n int) []int
}

// PickColors draws three distinct palette colors: player 1, player 2, bot.
func PickColors(rng Permuter) internal.RoomColors {
	perm := rng.Perm(len(internal.Palette))
	return internal.RoomColors{
		Player1: internal.Palette[perm[0]],
		Player2: internal.Palette[perm[1]],
		Bot:     internal.Palette[perm[2]],
	}
}

// BuildGames expands pairings into fresh games with sequential numeric ids
// starting at firstID.
func BuildGames(pairings []Pairing, firstID int, rng Permuter) []store.Game {
	var games []store.Game
	id := firstID
	for _, p := range pairings {
		for range p.Games {
			colors := PickColors(rng)
			games = append(games, store.Game{
				ID:              strconv.Itoa(id),
				Player1Username: p.Player1,
				Player1Color:    colors.Player1,
				Player2Username: p.Player2,
				Player2Color:    colors.Player2,
				BotColor:        colors.Bot,
			})
			id++
		}
	}
	return games
}
