package persona

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tmc/langchaingo/llms"

	"github.com/scythe504/turing-game-backend/internal"
)

var ErrUnknownGame = errors.New("game not started on this bot")

const defaultPrompt = `You are chatting casually with two strangers in a group chat. ` +
	`Everyone is trying to figure out who in the chat is an AI. You are a regular person: ` +
	`write short, informal messages, lowercase is fine, skip perfect grammar, never use emojis or lists, ` +
	`and never admit to being an AI.`

const (
	skipChance      = 0.2
	maxSkippedTurns = 3
	sessionTTL      = 2 * time.Hour
)

var defaultBlocked = []string{"iParam", "abi", "wbu", "hbu"}

type session struct {
	botColor     string
	systemPrompt string
	skipped      int
	startedAt    time.Time
}

type Options struct {
	Temperature float64
	Blocked     []string
	// TypingDelay holds each reply back for a human-ish typing time.
	TypingDelay bool
	Clock       clockwork.Clock
	Random      Random
}

// Persona plays the hidden bot seat in every game it is told about.
type Persona struct {
	llm    llms.Model
	prompt string
	opts   Options

	mu       sync.Mutex
	sessions map[string]*session
}

func New(llm llms.Model, prompt string, opts Options) *Persona {
	if strings.TrimSpace(prompt) == "" {
		prompt = defaultPrompt
	}
	if opts.Blocked == nil {
		opts.Blocked = defaultBlocked
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Random == nil {
		opts.Random = &lockedRandom{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
	}
	return &Persona{
		llm:      llm,
		prompt:   prompt,
		opts:     opts,
		sessions: make(map[string]*session),
	}
}

// LoadPrompt reads the persona prompt, falling back to the built-in one.
func LoadPrompt(path string) string {
	if path == "" {
		return defaultPrompt
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Persona: failed to read prompt %s: %v (using built-in prompt)", path, err)
		return defaultPrompt
	}
	return string(data)
}

// StartGame remembers the game's colors. Calling it again resets the game.
func (p *Persona) StartGame(gameID, botColor, player1Color, player2Color string) {
	now := p.opts.Clock.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	for id, s := range p.sessions {
		if now.Sub(s.startedAt) > sessionTTL {
			delete(p.sessions, id)
		}
	}
	p.sessions[gameID] = &session{
		botColor: botColor,
		systemPrompt: fmt.Sprintf("%s. Your color is %s, your opponents' colors are %s and %s. "+
			"Never refer to your own color. But you can occasionally use others' colors to mention them. "+
			"Provide your response with 1 sentence long.", strings.TrimSpace(p.prompt), botColor, player1Color, player2Color),
		startedAt: now,
	}
	log.Printf("[StartGame] Game %s: playing as %s against %s and %s", gameID, botColor, player1Color, player2Color)
}

// Respond produces the next bot utterance. An empty string means the bot
// stays quiet this turn.
func (p *Persona) Respond(ctx context.Context, gameID string, history []internal.ChatEntry) (string, error) {
	p.mu.Lock()
	s, ok := p.sessions[gameID]
	if !ok {
		p.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrUnknownGame, gameID)
	}
	if s.skipped < maxSkippedTurns && p.opts.Random.Float64() < skipChance {
		s.skipped++
		p.mu.Unlock()
		log.Printf("[Respond] Game %s: staying quiet this turn", gameID)
		return "", nil
	}
	botColor, systemPrompt := s.botColor, s.systemPrompt
	p.mu.Unlock()

	messages := make([]llms.MessageContent, 0, len(history)+1)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	for _, entry := range history {
		role := llms.ChatMessageTypeHuman
		if entry.Role == internal.RoleBot {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, entry.Content))
	}

	resp, err := p.llm.GenerateContent(ctx, messages, llms.WithTemperature(p.opts.Temperature))
	if err != nil {
		return "", fmt.Errorf("generate reply for game %s: %w", gameID, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}

	answer := p.clean(resp.Choices[0].Content, botColor)
	log.Printf("[Respond] Game %s: %q", gameID, answer)

	if p.opts.TypingDelay && answer != "" {
		select {
		case <-p.opts.Clock.After(p.typingDelay(len([]rune(answer)))):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return answer, nil
}

// clean strips the bot's own color and newlines, removes blocked words and
// roughens the text.
func (p *Persona) clean(answer, botColor string) string {
	answer = strings.ReplaceAll(answer, "\n", "")
	if botColor != "" {
		answer = strings.ReplaceAll(answer, botColor+":", "")
		answer = strings.ReplaceAll(answer, botColor, "")
	}
	answer = strings.TrimSpace(RemoveBlocked(answer, p.opts.Blocked))
	return Humanize(answer, p.opts.Random)
}

// typingDelay models 3-5 characters per second plus thinking time, capped at 6s.
func (p *Persona) typingDelay(length int) time.Duration {
	cps := 3 + 2*p.opts.Random.Float64()
	thinking := 0.5 + 1.5*p.opts.Random.Float64()
	secs := min(float64(length)/cps+thinking, 6)
	return time.Duration(secs * float64(time.Second))
}

// Games reports how many games the persona is tracking.
func (p *Persona) Games() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

type lockedRandom struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRandom) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRandom) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}
