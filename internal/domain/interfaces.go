package domain

import "context"

// Mode selects the unit of ranking.
type Mode string

const (
	// ModePhrase ranks n-gram phrases built from content tokens.
	ModePhrase Mode = "phrase"
	// ModeSentence ranks whole sentences.
	ModeSentence Mode = "sentence"
)

// NoTopic marks a candidate that has not been assigned to a topic cluster.
const NoTopic = -1

// Token is a single tagged unit produced by a tokenizer.
type Token struct {
	Surface string
	Base    string
	POS     string
	SubPOS  string
	Start   int // byte offset into the normalized text
	End     int
	Content bool // noun/adjective/verb that is not a functional sub-category
}

// Key returns the form used for overlap comparisons.
func (t Token) Key() string {
	if t.Base != "" {
		return t.Base
	}
	return t.Surface
}

// Candidate is a rankable unit: a phrase or a sentence.
type Candidate struct {
	Text        string
	Key         string
	Tokens      []string
	Position    int
	EndPosition int
	Frequency   int
	TopicID     int
	Vector      []float64
}

// Ranked is one entry of a ranked list.
type Ranked struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Result is a final output item.
type Result struct {
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
	Position  int     `json:"position"`
	Frequency int     `json:"frequency"`
}

// Tokenizer turns text into tagged tokens.
type Tokenizer interface {
	Name() string
	Tokenize(text string) ([]Token, error)
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Similarity scores how related two candidates are, in [0,1].
type Similarity interface {
	Name() string
	Similarity(a, b *Candidate) (float64, error)
}

// Refiner post-processes a statistically ranked list. It is best effort.
type Refiner interface {
	Name() string
	Refine(ctx context.Context, text string, ranked []Result) ([]Result, error)
}
