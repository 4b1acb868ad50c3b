package extract

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyrank/internal/domain"
)

type brokenTokenizer struct{}

func (brokenTokenizer) Name() string { return "broken" }

func (brokenTokenizer) Tokenize(string) ([]domain.Token, error) {
	return nil, errors.New("morphology service down")
}

func texts(cands []domain.Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Text)
	}
	return out
}

func TestExtract_EmptyInput(t *testing.T) {
	for _, mode := range []domain.Mode{domain.ModePhrase, domain.ModeSentence} {
		e := New(nil, Config{Mode: mode}, zerolog.Nop())
		for _, in := range []string{"", "   ", "\n\t"} {
			got := e.Extract(in)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		}
	}
}

func TestExtract_Sentences(t *testing.T) {
	e := New(nil, Config{Mode: domain.ModeSentence}, zerolog.Nop())
	got := e.Extract("Python workshop for beginners in Tokyo. Python and machine learning workshop. Cooking class in Osaka.")

	require.Len(t, got, 3)
	assert.Equal(t, []string{
		"Python workshop for beginners in Tokyo.",
		"Python and machine learning workshop.",
		"Cooking class in Osaka.",
	}, texts(got))
	assert.Equal(t, []string{"python", "workshop", "beginners", "tokyo"}, got[0].Tokens)
	assert.Equal(t, []string{"cooking", "class", "osaka"}, got[2].Tokens)
	for i, c := range got {
		assert.Equal(t, i, c.Position)
		assert.Equal(t, 1, c.Frequency)
		assert.Equal(t, domain.NoTopic, c.TopicID)
	}
}

func TestExtract_DuplicateSentencesMerge(t *testing.T) {
	e := New(nil, Config{Mode: domain.ModeSentence}, zerolog.Nop())
	got := e.Extract("Graph ranking works. graph ranking works. Something else entirely.")

	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Frequency)
	assert.Equal(t, "Graph ranking works.", got[0].Text)
}

const phraseText = "Python workshop for beginners. Python workshop in Tokyo."

func TestExtract_Phrases(t *testing.T) {
	e := New(nil, Config{Mode: domain.ModePhrase, MaxPhraseLength: 3}, zerolog.Nop())
	got := e.Extract(phraseText)

	assert.Equal(t, []string{"Python", "Python workshop", "workshop", "beginners", "Tokyo"}, texts(got))

	byKey := map[string]domain.Candidate{}
	for _, c := range got {
		byKey[c.Key] = c
	}
	assert.Equal(t, 2, byKey["python"].Frequency)
	assert.Equal(t, 2, byKey["python workshop"].Frequency)
	assert.Equal(t, 0, byKey["python workshop"].Position)
	assert.Equal(t, 1, byKey["python workshop"].EndPosition)
	assert.Equal(t, []string{"python", "workshop"}, byKey["python workshop"].Tokens)
	assert.Equal(t, 3, byKey["beginners"].Position)
	assert.Equal(t, 7, byKey["tokyo"].Position)
}

func TestExtract_PhraseLengthLimit(t *testing.T) {
	e := New(nil, Config{Mode: domain.ModePhrase, MaxPhraseLength: 1}, zerolog.Nop())
	got := e.Extract("graph ranking engine")
	assert.Equal(t, []string{"graph", "ranking", "engine"}, texts(got))
}

func TestExtract_MinUnitLength(t *testing.T) {
	e := New(nil, Config{Mode: domain.ModePhrase, MaxPhraseLength: 3, MinUnitLength: 7}, zerolog.Nop())
	got := e.Extract(phraseText)
	assert.Equal(t, []string{"Python workshop", "workshop", "beginners"}, texts(got))
}

func TestExtract_Blocklist(t *testing.T) {
	e := New(nil, Config{Mode: domain.ModePhrase, MaxPhraseLength: 2, Blocklist: []string{"Tokyo", "python workshop"}}, zerolog.Nop())
	got := e.Extract(phraseText)
	assert.Equal(t, []string{"Python", "workshop", "beginners"}, texts(got))
}

func TestExtract_MaxCandidates(t *testing.T) {
	e := New(nil, Config{Mode: domain.ModePhrase, MaxPhraseLength: 3, MaxCandidates: 2}, zerolog.Nop())
	got := e.Extract(phraseText)
	assert.Equal(t, []string{"Python", "Python workshop"}, texts(got))
}

func TestExtract_TokenizerFailureFallsBack(t *testing.T) {
	e := New(brokenTokenizer{}, Config{Mode: domain.ModePhrase, MaxPhraseLength: 1}, zerolog.Nop())
	got := e.Extract("resilient ranking")
	assert.Equal(t, []string{"resilient", "ranking"}, texts(got))
}

func TestExtract_JapaneseWithNaiveTokenizer(t *testing.T) {
	e := New(nil, Config{Mode: domain.ModePhrase, MaxPhraseLength: 2}, zerolog.Nop())
	got := e.Extract("東京で勉強会。")
	assert.Equal(t, []string{"東京", "勉強会"}, texts(got))
}

func TestExtract_NormalizesFullWidth(t *testing.T) {
	e := New(nil, Config{Mode: domain.ModePhrase, MaxPhraseLength: 1}, zerolog.Nop())
	got := e.Extract("Ｐｙｔｈｏｎ")
	require.Len(t, got, 1)
	assert.Equal(t, "Python", got[0].Text)
	assert.Equal(t, "python", got[0].Key)
}

func TestExtract_ModeOverride(t *testing.T) {
	e := New(nil, Config{Mode: domain.ModePhrase}, zerolog.Nop())
	assert.Equal(t, domain.ModePhrase, e.Mode())
	got := e.ExtractMode("One sentence here. Another sentence there.", domain.ModeSentence)
	assert.Len(t, got, 2)
}
