package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordAnswerIncrementalMean(t *testing.T) {
	now := time.Now()
	p := &Progress{Subject: "math", Topic: "Calculus"}

	p.RecordAnswer(true, 2, now)
	p.RecordAnswer(false, 4, now)

	assert.Equal(t, 2, p.TotalAttempts)
	assert.Equal(t, 1, p.CorrectAnswers)
	assert.InDelta(t, 3.0, p.AverageDifficulty, 1e-9)
}

func TestRecordAnswerStreak(t *testing.T) {
	now := time.Now()
	p := &Progress{}

	p.RecordAnswer(true, 3, now)
	p.RecordAnswer(true, 3, now)
	assert.Equal(t, 2, p.CurrentStreak)

	p.RecordAnswer(false, 3, now)
	assert.Equal(t, 0, p.CurrentStreak)
}

func TestRecordAnswerMasteryClamped(t *testing.T) {
	now := time.Now()

	p := &Progress{MasteryLevel: 99}
	p.RecordAnswer(true, 3, now)
	assert.Equal(t, 100, p.MasteryLevel)

	p = &Progress{MasteryLevel: 0}
	p.RecordAnswer(false, 3, now)
	assert.Equal(t, 0, p.MasteryLevel)
}

func TestRecordAnswerUpdatesActivity(t *testing.T) {
	now := time.Now()
	p := &Progress{}
	p.RecordAnswer(true, 3, now)
	assert.Equal(t, now, p.LastActivity)
}
