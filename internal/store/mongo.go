package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/scythe504/turing-game-backend/internal"
)

const mongoDatabase = "turing"

type userGameDoc struct {
	Username    string `bson:"username"`
	GameID      string `bson:"game_id"`
	PlayerOrder int    `bson:"player_order"`
}

type userDoc struct {
	Username  string    `bson:"_id"`
	Score     int       `bson:"score"`
	CreatedAt time.Time `bson:"created_at"`
}

type Mongo struct {
	client   *mongo.Client
	database *mongo.Database
}

func NewMongo(ctx context.Context, uri string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	m := &Mongo{client: client, database: client.Database(mongoDatabase)}
	m.createIndexes(ctx)
	log.Println("[NewMongo] Connected to MongoDB successfully")
	return m, nil
}

func (m *Mongo) createIndexes(ctx context.Context) {
	_, err := m.database.Collection("messages").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "game_id", Value: 1}, {Key: "message_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Printf("[createIndexes] messages: %v", err)
	}
	_, err = m.database.Collection("user_games").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "game_id", Value: 1}, {Key: "player_order", Value: 1}},
	})
	if err != nil {
		log.Printf("[createIndexes] user_games: %v", err)
	}
}

func (m *Mongo) games() *mongo.Collection { return m.database.Collection("games") }

func (m *Mongo) GetGame(ctx context.Context, gameID string) (Game, error) {
	var g Game
	err := m.games().FindOne(ctx, bson.M{"_id": gameID}).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Game{}, fmt.Errorf("game %s: %w", gameID, ErrGameNotFound)
	}
	if err != nil {
		return Game{}, fmt.Errorf("get game %s: %w", gameID, err)
	}
	return g, nil
}

func (m *Mongo) CreateGame(ctx context.Context, g Game) error {
	now := time.Now()
	for _, u := range []string{g.Player1Username, g.Player2Username} {
		_, err := m.database.Collection("users").UpdateOne(ctx,
			bson.M{"_id": u},
			bson.M{"$setOnInsert": bson.M{"score": 0, "created_at": now}},
			options.Update().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("insert user %s: %w", u, err)
		}
	}
	if _, err := m.games().InsertOne(ctx, g); err != nil {
		return fmt.Errorf("insert game %s: %w", g.ID, err)
	}
	_, err := m.database.Collection("user_games").InsertMany(ctx, []any{
		userGameDoc{Username: g.Player1Username, GameID: g.ID, PlayerOrder: 1},
		userGameDoc{Username: g.Player2Username, GameID: g.ID, PlayerOrder: 2},
	})
	if err != nil {
		return fmt.Errorf("insert user_games %s: %w", g.ID, err)
	}
	return nil
}

func (m *Mongo) RecordAccusation(ctx context.Context, gameID string, slot int, accused internal.Accused, at time.Time) error {
	accCol, timeCol, err := accusationColumns(slot)
	if err != nil {
		return err
	}
	return m.set(ctx, gameID, bson.M{accCol: int(accused), timeCol: at})
}

func (m *Mongo) RecordScores(ctx context.Context, gameID string, p1, p2, bot int) error {
	return m.set(ctx, gameID, bson.M{"player1_score": p1, "player2_score": p2, "bot_score": bot})
}

func (m *Mongo) RecordMessage(ctx context.Context, gameID string, seq int, color, text string, at time.Time) error {
	_, err := m.database.Collection("messages").InsertOne(ctx, ChatMessage{
		GameID: gameID, Seq: seq, Color: color, Content: text, SentTime: at,
	})
	if err != nil {
		return fmt.Errorf("insert message %s/%d: %w", gameID, seq, err)
	}
	return nil
}

func (m *Mongo) Messages(ctx context.Context, gameID string) ([]ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "message_id", Value: 1}})
	cursor, err := m.database.Collection("messages").Find(ctx, bson.M{"game_id": gameID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var msgs []ChatMessage
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (m *Mongo) MarkStartTime(ctx context.Context, gameID string, at time.Time) error {
	return m.set(ctx, gameID, bson.M{"start_time": at})
}

func (m *Mongo) MarkEndTime(ctx context.Context, gameID string, at time.Time) error {
	return m.set(ctx, gameID, bson.M{"end_time": at})
}

func (m *Mongo) MarkCompleted(ctx context.Context, gameID string) error {
	return m.set(ctx, gameID, bson.M{"is_completed": true})
}

func (m *Mongo) PlayerUsernames(ctx context.Context, gameID string) ([2]string, error) {
	opts := options.Find().SetSort(bson.D{{Key: "player_order", Value: 1}})
	cursor, err := m.database.Collection("user_games").Find(ctx, bson.M{"game_id": gameID}, opts)
	if err != nil {
		return [2]string{}, fmt.Errorf("usernames %s: %w", gameID, err)
	}
	defer cursor.Close(ctx)

	var docs []userGameDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return [2]string{}, fmt.Errorf("usernames %s: %w", gameID, err)
	}
	if len(docs) != 2 {
		return [2]string{}, fmt.Errorf("usernames %s: %w", gameID, ErrGameNotFound)
	}
	return [2]string{docs[0].Username, docs[1].Username}, nil
}

func (m *Mongo) AddScore(ctx context.Context, username string, delta int) error {
	_, err := m.database.Collection("users").UpdateOne(ctx,
		bson.M{"_id": username},
		bson.M{
			"$inc":         bson.M{"score": delta},
			"$setOnInsert": bson.M{"created_at": time.Now()},
		},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("add score %s: %w", username, err)
	}
	return nil
}

func (m *Mongo) UserScore(ctx context.Context, username string) (int, error) {
	var u userDoc
	err := m.database.Collection("users").FindOne(ctx, bson.M{"_id": username}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	return u.Score, err
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *Mongo) set(ctx context.Context, gameID string, fields bson.M) error {
	res, err := m.games().UpdateOne(ctx, bson.M{"_id": gameID}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrGameNotFound
	}
	return nil
}
