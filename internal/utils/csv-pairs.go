package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
)

// Pairing is one row of the seed file: two usernames and how many games
// they play together.
type Pairing struct {
	Player1 string
	Player2 string
	Games   int
}

// ReadPairsCsv reads "player1,player2[,games]" rows. Rows without a games
// column get defaultGames.
func ReadPairsCsv(filePath string, defaultGames int) ([]Pairing, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("unable to read input file %s: %w", filePath, err)
	}
	defer f.Close()

	return ParsePairs(f, defaultGames)
}

func ParsePairs(r io.Reader, defaultGames int) ([]Pairing, error) {
	csvReader := csv.NewReader(r)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true
	csvReader.Comment = '#'

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to parse pairs csv: %w", err)
	}

	var pairings []Pairing
	for _, record := range records {
		if len(record) < 2 {
			log.Println("Skipping invalid record: ", record)
			continue
		}
		p := Pairing{
			Player1: strings.TrimSpace(record[0]),
			Player2: strings.TrimSpace(record[1]),
			Games:   defaultGames,
		}
		if p.Player1 == "" || p.Player2 == "" || p.Player1 == p.Player2 {
			log.Println("Skipping invalid record: ", record)
			continue
		}
		if len(record) > 2 && strings.TrimSpace(record[2]) != "" {
			count, err := strconv.Atoi(strings.TrimSpace(record[2]))
			if err != nil || count < 1 {
				log.Println("Invalid games value:", record[2], "in record", record)
				continue
			}
			p.Games = count
		}
		pairings = append(pairings, p)
	}

	return pairings, nil
}
