package service

import (
	"context"
	"testing"

	"ib_quiz_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestGenerateQuestionsUnconfiguredUsesTemplates(t *testing.T) {
	store := newFakeQuestionStore()
	gen := &fakeGenerator{configured: false}
	svc := NewQuestionService(store, gen)

	resp, err := svc.GenerateQuestions(context.Background(), model.GenerateQuestionRequest{
		Subject: "math",
		Topic:   "Calculus",
		Count:   intPtr(3),
	})
	require.NoError(t, err)
	require.Len(t, resp.Questions, 3)
	for _, q := range resp.Questions {
		assert.Equal(t, model.SourceTemplate, q.Source)
	}
	assert.Empty(t, store.byID, "template questions are not persisted")
	assert.Equal(t, 0, gen.generateCalls())
}

func TestGenerateQuestionsCountClamped(t *testing.T) {
	svc := NewQuestionService(newFakeQuestionStore(), &fakeGenerator{configured: false})

	resp, err := svc.GenerateQuestions(context.Background(), model.GenerateQuestionRequest{
		Subject: "math",
		Topic:   "Calculus",
		Count:   intPtr(50),
	})
	require.NoError(t, err)
	assert.Len(t, resp.Questions, 5)
}

func TestGenerateQuestionsDefaultsToOne(t *testing.T) {
	svc := NewQuestionService(newFakeQuestionStore(), &fakeGenerator{configured: false})

	resp, err := svc.GenerateQuestions(context.Background(), model.GenerateQuestionRequest{
		Subject: "math",
		Topic:   "Calculus",
	})
	require.NoError(t, err)
	assert.Len(t, resp.Questions, 1)
}

func TestGenerateQuestionsDifficultyClamped(t *testing.T) {
	svc := NewQuestionService(newFakeQuestionStore(), &fakeGenerator{configured: false})

	resp, err := svc.GenerateQuestions(context.Background(), model.GenerateQuestionRequest{
		Subject:    "math",
		Topic:      "Calculus",
		Difficulty: intPtr(99),
	})
	require.NoError(t, err)
	assert.Equal(t, MaxDifficulty, resp.Questions[0].Difficulty)
}

func TestGenerateQuestionsBatchPathPersists(t *testing.T) {
	store := newFakeQuestionStore()
	gen := &fakeGenerator{configured: true}
	svc := NewQuestionService(store, gen)

	resp, err := svc.GenerateQuestions(context.Background(), model.GenerateQuestionRequest{
		Subject: "math",
		Topic:   "Calculus",
		Count:   intPtr(3),
	})
	require.NoError(t, err)
	require.Len(t, resp.Questions, 3)
	assert.Len(t, store.byID, 3)
	assert.Equal(t, 1, gen.batchCalls, "multi-question requests use one batch call")
	assert.Equal(t, 0, gen.generateCalls())
}

func TestGenerateQuestionsBatchFailureRetriesPerQuestion(t *testing.T) {
	store := newFakeQuestionStore()
	gen := &fakeGenerator{configured: true, failBatch: true}
	svc := NewQuestionService(store, gen)

	resp, err := svc.GenerateQuestions(context.Background(), model.GenerateQuestionRequest{
		Subject: "math",
		Topic:   "Calculus",
		Count:   intPtr(2),
	})
	require.NoError(t, err)
	require.Len(t, resp.Questions, 2)
	assert.Equal(t, 2, gen.generateCalls())
	assert.Len(t, store.byID, 2)
}

func TestGenerateQuestionsPerItemFailureFallsBack(t *testing.T) {
	store := newFakeQuestionStore()
	gen := &fakeGenerator{configured: true, failGen: true}
	svc := NewQuestionService(store, gen)

	resp, err := svc.GenerateQuestions(context.Background(), model.GenerateQuestionRequest{
		Subject: "math",
		Topic:   "Calculus",
		Count:   intPtr(2),
	})
	require.NoError(t, err, "single-item failures degrade to templates")
	require.Len(t, resp.Questions, 2)
	for _, q := range resp.Questions {
		assert.Equal(t, model.SourceTemplate, q.Source)
	}
	assert.Empty(t, store.byID)
}
