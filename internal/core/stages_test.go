package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"))
}

func TestRunStages_StopsAtFirstFailure(t *testing.T) {
	var ran []string
	step := func(name string, err error) Stage {
		return Stage{Name: name, Run: func(context.Context) error {
			ran = append(ran, name)
			return err
		}}
	}
	boom := errors.New("boom")

	err := RunStages(context.Background(),
		step(StageToken, nil),
		step(StageRead, boom),
		step(StageWrite, nil),
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StageRead, FailedStage(err))
	assert.Equal(t, "read: boom", err.Error())
	assert.Equal(t, []string{StageToken, StageRead}, ran)
}

func TestRunStages_AllSucceed(t *testing.T) {
	n := 0
	inc := Stage{Name: "inc", Run: func(context.Context) error { n++; return nil }}

	require.NoError(t, RunStages(context.Background(), inc, inc, inc))
	assert.Equal(t, 3, n)
}

func TestRunStages_CancelledBeforeNextStage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	second := false

	err := RunStages(ctx,
		Stage{Name: StageToken, Run: func(context.Context) error { cancel(); return nil }},
		Stage{Name: StageWrite, Run: func(context.Context) error { second = true; return nil }},
	)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StageWrite, FailedStage(err))
	assert.False(t, second)
}

func TestFailedStage_PlainError(t *testing.T) {
	assert.Empty(t, FailedStage(errors.New("x")))
	assert.Empty(t, FailedStage(nil))
}
