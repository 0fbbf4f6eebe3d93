package service

import (
	"testing"

	"ib_quiz_backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func answers(results ...bool) []model.QuizAnswer {
	out := make([]model.QuizAnswer, 0, len(results))
	for _, r := range results {
		out = append(out, model.QuizAnswer{IsCorrect: r})
	}
	return out
}

func TestNextDifficulty(t *testing.T) {
	tests := []struct {
		name    string
		current int
		recent  []model.QuizAnswer
		want    int
	}{
		{"no history keeps current", 3, nil, 3},
		{"all correct steps up", 3, answers(true, true, true, true, true), 4},
		{"mostly wrong steps down", 3, answers(false, false, false, false, true), 2},
		{"middling accuracy holds", 3, answers(true, true, false, false, true), 3},
		{"exactly 80 percent steps up", 3, answers(true, true, true, true, false), 4},
		{"exactly 40 percent steps down", 3, answers(true, true, false, false, false), 2},
		{"clamped at max", 5, answers(true, true, true, true, true), 5},
		{"clamped at min", 1, answers(false, false, false, false, false), 1},
		{"short history still adjusts", 2, answers(true, true), 3},
		{"only first five considered", 3, answers(true, true, true, true, true, false, false, false), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextDifficulty(tt.current, tt.recent, 0))
		})
	}
}

func TestNextDifficultyIgnoresMastery(t *testing.T) {
	recent := answers(true, true, false, false, true)
	assert.Equal(t, NextDifficulty(3, recent, 0), NextDifficulty(3, recent, 100))
}

func TestClampDifficulty(t *testing.T) {
	assert.Equal(t, 1, ClampDifficulty(0))
	assert.Equal(t, 1, ClampDifficulty(-3))
	assert.Equal(t, 5, ClampDifficulty(9))
	assert.Equal(t, 3, ClampDifficulty(3))
}

func TestTimePerQuestion(t *testing.T) {
	assert.Equal(t, 25*60, TimePerQuestion("paper3"))
	assert.Equal(t, 12*60, TimePerQuestion("paper1"))
	assert.Equal(t, 12*60, TimePerQuestion(""))
}
