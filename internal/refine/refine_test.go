package refine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	goopenai "github.com/sashabaranov/go-openai"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyrank/internal/domain"
)

type fakeChat struct {
	content string
	err     error
	calls   int
	lastReq goopenai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return goopenai.ChatCompletionResponse{}, f.err
	}
	return goopenai.ChatCompletionResponse{
		Choices: []goopenai.ChatCompletionChoice{{Message: goopenai.ChatCompletionMessage{Content: f.content}}},
	}, nil
}

func ranked() []domain.Result {
	return []domain.Result{
		{Text: "python workshop", Score: 0.9, Position: 0, Frequency: 2},
		{Text: "Tokyo", Score: 0.5, Position: 4, Frequency: 1},
		{Text: "beginners", Score: 0.3, Position: 3, Frequency: 1},
	}
}

func TestOpenAI_RestrictsToKnownItems(t *testing.T) {
	api := &fakeChat{content: "```json\n[\"tokyo\", \"python workshop\", \"sushi\", \"Tokyo\"]\n```"}
	r := NewOpenAIWithAPI(api, Config{Model: "m"}, zerolog.Nop())

	out, err := r.Refine(context.Background(), "text", ranked())
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, ranked()[1], out[0], "scores preserved")
	assert.Equal(t, ranked()[0], out[1])
	assert.Equal(t, "m", api.lastReq.Model)
	assert.Contains(t, api.lastReq.Messages[1].Content, `"python workshop"`)
	assert.Equal(t, "llm", r.Name())
}

func TestOpenAI_Failures(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeChat
	}{
		{"transport error", &fakeChat{err: errors.New("connection refused")}},
		{"no array", &fakeChat{content: "I cannot help with that."}},
		{"bad json", &fakeChat{content: "[1, 2"}},
		{"wrong element type", &fakeChat{content: "[1, 2]"}},
		{"only unknown items", &fakeChat{content: `["sushi"]`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewOpenAIWithAPI(tt.api, Config{}, zerolog.Nop())
			in := ranked()

			out, err := r.Refine(context.Background(), "text", in)

			assert.ErrorIs(t, err, domain.ErrRefinementFailed)
			assert.Nil(t, out)
			assert.Equal(t, ranked(), in, "input untouched")
		})
	}
}

func TestOpenAI_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	api := &fakeChat{err: errors.New("503")}
	r := NewOpenAIWithAPI(api, Config{BreakerFailures: 2, BreakerTimeout: time.Minute}, zerolog.Nop())

	for i := 0; i < 2; i++ {
		_, err := r.Refine(context.Background(), "text", ranked())
		require.Error(t, err)
	}
	_, err := r.Refine(context.Background(), "text", ranked())

	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.ErrorIs(t, err, domain.ErrRefinementFailed)
	assert.Equal(t, 2, api.calls)
}

func TestOpenAI_EmptyInput(t *testing.T) {
	api := &fakeChat{}
	r := NewOpenAIWithAPI(api, Config{}, zerolog.Nop())

	out, err := r.Refine(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, api.calls)
}

func TestNewOpenAI_MissingKey(t *testing.T) {
	t.Setenv("KEYRANK_TEST_NO_KEY", "")
	_, err := NewOpenAI(Config{APIKeyEnv: "KEYRANK_TEST_NO_KEY"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestPassthrough(t *testing.T) {
	in := ranked()
	out, err := Passthrough{}.Refine(context.Background(), "text", in)
	require.NoError(t, err)

	assert.Equal(t, in, out)
	out[0].Text = "changed"
	assert.Equal(t, "python workshop", in[0].Text)
}

func TestParseList(t *testing.T) {
	got, err := parseList(`Here you go: ["a", "b"] hope it helps`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}
