package refine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	goopenai "github.com/sashabaranov/go-openai"
	gobreaker "github.com/sony/gobreaker/v2"

	"keyrank/internal/domain"
)

// ChatAPI is the subset of the go-openai client used by the refiner.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// Config configures the OpenAI-compatible refiner.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration

	// Consecutive failures that open the breaker, and how long it stays open.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = goopenai.GPT4oMini
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 3
	}
	if c.BreakerTimeout <= 0 {
		c.BreakerTimeout = 30 * time.Second
	}
	return c
}

const systemPrompt = `You review keywords extracted statistically from a text.
Return the most meaningful ones, best first, as a JSON array of strings.
Only use strings from the candidate list, copied exactly. Drop generic or noisy entries.`

// OpenAI reorders and filters the statistical list with a chat model. Its
// output only ever contains items from the input list, with their scores.
type OpenAI struct {
	api     ChatAPI
	cfg     Config
	breaker *gobreaker.CircuitBreaker[string]
	logger  zerolog.Logger
}

// NewOpenAI builds a refiner against an OpenAI-compatible endpoint.
func NewOpenAI(cfg Config, logger zerolog.Logger) (*OpenAI, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	cfg = cfg.withDefaults()
	clientConfig := goopenai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return NewOpenAIWithAPI(goopenai.NewClientWithConfig(clientConfig), cfg, logger), nil
}

// NewOpenAIWithAPI builds a refiner around an existing client.
func NewOpenAIWithAPI(api ChatAPI, cfg Config, logger zerolog.Logger) *OpenAI {
	cfg = cfg.withDefaults()
	o := &OpenAI{
		api:    api,
		cfg:    cfg,
		logger: logger.With().Str("component", "refiner").Logger(),
	}
	o.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "llm-refiner",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			o.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("refiner circuit breaker state changed")
		},
	})
	return o
}

func (o *OpenAI) Name() string { return "llm" }

// Refine asks the model to reorder ranked. Any failure, including an open
// breaker, a timeout, or an unusable answer, is returned as an error wrapping
// ErrRefinementFailed.
func (o *OpenAI) Refine(ctx context.Context, text string, ranked []domain.Result) ([]domain.Result, error) {
	if len(ranked) == 0 {
		return []domain.Result{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	content, err := o.breaker.Execute(func() (string, error) {
		return o.complete(ctx, text, ranked)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRefinementFailed, err)
	}

	picked, err := parseList(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRefinementFailed, err)
	}
	out := restrict(picked, ranked)
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no known items in response", domain.ErrRefinementFailed)
	}
	o.logger.Debug().Int("in", len(ranked)).Int("out", len(out)).Msg("refined ranking")
	return out, nil
}

func (o *OpenAI) complete(ctx context.Context, text string, ranked []domain.Result) (string, error) {
	items := make([]string, len(ranked))
	for i, r := range ranked {
		items[i] = r.Text
	}
	list, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	resp, err := o.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       o.cfg.Model,
		Temperature: 0,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: "Text:\n" + text + "\n\nCandidates:\n" + string(list)},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// parseList extracts the first JSON array of strings from a model answer,
// tolerating code fences and surrounding prose.
func parseList(content string) ([]string, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, errors.New("response has no JSON array")
	}
	var out []string
	if err := json.Unmarshal([]byte(content[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// restrict maps picked strings back to ranked items, matching exactly first
// and case-insensitively second. Unknown and repeated strings are dropped.
func restrict(picked []string, ranked []domain.Result) []domain.Result {
	exact := make(map[string]int, len(ranked))
	folded := make(map[string]int, len(ranked))
	for i, r := range ranked {
		if _, ok := exact[r.Text]; !ok {
			exact[r.Text] = i
		}
		k := strings.ToLower(strings.TrimSpace(r.Text))
		if _, ok := folded[k]; !ok {
			folded[k] = i
		}
	}
	used := make(map[int]struct{}, len(picked))
	out := make([]domain.Result, 0, len(picked))
	for _, p := range picked {
		i, ok := exact[p]
		if !ok {
			i, ok = folded[strings.ToLower(strings.TrimSpace(p))]
		}
		if !ok {
			continue
		}
		if _, dup := used[i]; dup {
			continue
		}
		used[i] = struct{}{}
		out = append(out, ranked[i])
	}
	return out
}
