package tokenizer

import (
	"fmt"
	"sync"

	"keyrank/internal/domain"
)

// Lazy constructs its tokenizer on first use and shares it read-only afterwards.
// A failed initialization is sticky: every call returns the init error so an
// enclosing Chain can fall back.
type Lazy struct {
	name string
	init func() (domain.Tokenizer, error)

	once sync.Once
	tok  domain.Tokenizer
	err  error
}

func NewLazy(name string, init func() (domain.Tokenizer, error)) *Lazy {
	return &Lazy{name: name, init: init}
}

func (l *Lazy) Name() string { return l.name }

func (l *Lazy) Tokenize(text string) ([]domain.Token, error) {
	l.once.Do(func() {
		l.tok, l.err = l.init()
		if l.err == nil && l.tok == nil {
			l.err = fmt.Errorf("%s: init returned no tokenizer", l.name)
		}
	})
	if l.err != nil {
		return nil, fmt.Errorf("%s init: %w", l.name, l.err)
	}
	return l.tok.Tokenize(text)
}
