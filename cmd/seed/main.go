// Command seed creates users and pending games in the configured store.
//
//	seed -pairs pairs.csv -games 10 -first-id 100
//	seed -pair aaa,bbb -games 16 -first-id 10
package main

import (
	"context"
	"flag"
	"log"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/scythe504/turing-game-backend/internal/config"
	"github.com/scythe504/turing-game-backend/internal/store"
	"github.com/scythe504/turing-game-backend/internal/utils"
)

func main() {
	seedFlags := flag.NewFlagSet("seed", flag.ExitOnError)
	pairsFile := seedFlags.String("pairs", "", "CSV of player1,player2[,games]")
	pair := seedFlags.String("pair", "", "a single player1,player2 pairing")
	games := seedFlags.Int("games", 10, "games per pairing when the CSV row has no count")
	firstID := seedFlags.Int("first-id", 1, "id of the first created game")
	_ = seedFlags.Parse(os.Args[1:])

	// everything after the seed flags is handed to the shared config loader
	cfg, err := config.Load("seed", seedFlags.Args())
	if err != nil {
		log.Fatalf("Config: %v", err)
	}

	var pairings []utils.Pairing
	switch {
	case *pairsFile != "":
		pairings, err = utils.ReadPairsCsv(*pairsFile, *games)
	case *pair != "":
		pairings, err = utils.ParsePairs(strings.NewReader(*pair), *games)
	default:
		log.Fatal("one of -pairs or -pair is required")
	}
	if err != nil {
		log.Fatalf("Pairs: %v", err)
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		log.Fatalf("Store: %v", err)
	}
	defer st.Close()

	created := 0
	for _, g := range utils.BuildGames(pairings, *firstID, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))) {
		if err := st.CreateGame(ctx, g); err != nil {
			log.Printf("Game %s (%s vs %s): %v", g.ID, g.Player1Username, g.Player2Username, err)
			continue
		}
		created++
		log.Printf("Game %s: %s=%s %s=%s bot=%s", g.ID, g.Player1Username, g.Player1Color, g.Player2Username, g.Player2Color, g.BotColor)
	}
	log.Printf("Seeded %d games into %s", created, cfg.StoreDriver)
}
