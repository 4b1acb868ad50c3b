package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyrank/internal/domain"
)

func TestFirstSuccess(t *testing.T) {
	var ran []string
	mk := func(name string, err error) stage[int] {
		return stage[int]{name: name, run: func(context.Context) (int, error) {
			ran = append(ran, name)
			if err != nil {
				return 0, err
			}
			return len(name), nil
		}}
	}

	v, name, err := firstSuccess(context.Background(), zerolog.Nop(), "test",
		[]stage[int]{mk("a", errors.New("no")), mk("bb", nil), mk("ccc", nil)})
	require.NoError(t, err)

	assert.Equal(t, 2, v)
	assert.Equal(t, "bb", name)
	assert.Equal(t, []string{"a", "bb"}, ran)
}

func TestFirstSuccess_AllFail(t *testing.T) {
	boom := errors.New("boom")
	_, name, err := firstSuccess(context.Background(), zerolog.Nop(), "test", []stage[string]{
		{name: "a", run: func(context.Context) (string, error) { return "", boom }},
	})

	assert.Empty(t, name)
	assert.ErrorIs(t, err, domain.ErrNoStageSucceeded)
	assert.ErrorIs(t, err, boom)
}

func TestFirstSuccess_NoStages(t *testing.T) {
	_, _, err := firstSuccess[int](context.Background(), zerolog.Nop(), "test", nil)
	assert.ErrorIs(t, err, domain.ErrNoStageSucceeded)
}
