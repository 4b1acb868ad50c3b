package tokenizer

import (
	"fmt"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"keyrank/internal/domain"
)

// IPADIC sub-categories that never carry content on their own.
var functionalSubPOS = map[string]struct{}{
	"非自立": {},
	"接尾":  {},
	"数":   {},
	"代名詞": {},
}

// Light verbs carry no content when independent: 開催する, 本がある.
var lightVerbs = map[string]struct{}{
	"する": {},
	"ある": {},
	"いる": {},
}

// Kagome is a Japanese morphological tokenizer backed by the IPA dictionary.
type Kagome struct {
	t         *tokenizer.Tokenizer
	stopwords map[string]struct{}
}

// NewKagome loads the IPA dictionary. Loading is expensive; share the instance.
func NewKagome(stopwords map[string]struct{}) (*Kagome, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("kagome: %w", err)
	}
	if stopwords == nil {
		stopwords = DefaultStopwords()
	}
	return &Kagome{t: t, stopwords: stopwords}, nil
}

func (k *Kagome) Name() string { return "kagome" }

func (k *Kagome) Tokenize(text string) ([]domain.Token, error) {
	toks := k.t.Tokenize(text)
	out := make([]domain.Token, 0, len(toks))
	for _, tok := range toks {
		if strings.TrimSpace(tok.Surface) == "" {
			continue
		}
		features := tok.POS()
		var major, sub string
		if len(features) > 0 {
			major = features[0]
		}
		if len(features) > 1 {
			sub = features[1]
		}
		base, ok := tok.BaseForm()
		if !ok || base == "" || base == "*" {
			base = tok.Surface
		}
		base = strings.ToLower(base)
		pos, content := mapIPAPOS(major, sub, base)
		if content && isStopword(k.stopwords, base) {
			pos, content = "function", false
		}
		out = append(out, domain.Token{
			Surface: tok.Surface,
			Base:    base,
			POS:     pos,
			SubPOS:  sub,
			Start:   tok.Position,
			End:     tok.Position + len(tok.Surface),
			Content: content,
		})
	}
	return out, nil
}

// mapIPAPOS maps IPADIC major/sub categories and the base form onto the coarse tag set.
func mapIPAPOS(major, sub, base string) (string, bool) {
	var pos string
	switch major {
	case "名詞":
		pos = "noun"
	case "動詞":
		pos = "verb"
	case "形容詞":
		pos = "adjective"
	case "助詞", "助動詞":
		return "particle", false
	case "記号":
		return "symbol", false
	default:
		return "other", false
	}
	if _, functional := functionalSubPOS[sub]; functional {
		return pos, false
	}
	if _, light := lightVerbs[base]; light && pos == "verb" {
		return pos, false
	}
	return pos, true
}
