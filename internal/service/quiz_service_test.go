package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ib_quiz_backend/internal/model"
	"ib_quiz_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 内存版存储桩，行为与仓储层契约一致：未命中返回(nil,nil)，
// AdvanceIndex无条件+1，UpsertAnswer按(quiz_id, question_id)覆盖

type fakeQuestionStore struct {
	byID map[string]*model.Question
}

func newFakeQuestionStore() *fakeQuestionStore {
	return &fakeQuestionStore{byID: map[string]*model.Question{}}
}

func (f *fakeQuestionStore) Create(q *model.Question) error {
	f.byID[q.ID] = q
	return nil
}

func (f *fakeQuestionStore) FindByID(id string) (*model.Question, error) {
	return f.byID[id], nil
}

type fakeQuizStore struct {
	quizzes map[string]*model.Quiz
	answers map[[2]string]*model.QuizAnswer
	order   [][2]string
}

func newFakeQuizStore() *fakeQuizStore {
	return &fakeQuizStore{
		quizzes: map[string]*model.Quiz{},
		answers: map[[2]string]*model.QuizAnswer{},
	}
}

func (f *fakeQuizStore) Create(quiz *model.Quiz) error {
	if quiz.ID == "" {
		quiz.ID = model.GenerateUUID()
	}
	f.quizzes[quiz.ID] = quiz
	return nil
}

func (f *fakeQuizStore) FindByID(id string) (*model.Quiz, error) {
	quiz, ok := f.quizzes[id]
	if !ok {
		return nil, nil
	}
	copied := *quiz
	copied.QuestionIDs = append(model.StringList{}, quiz.QuestionIDs...)
	return &copied, nil
}

func (f *fakeQuizStore) AppendQuestion(quizID, questionID string) error {
	quiz, ok := f.quizzes[quizID]
	if !ok {
		return errors.New("quiz not found")
	}
	quiz.QuestionIDs = append(quiz.QuestionIDs, questionID)
	return nil
}

func (f *fakeQuizStore) AdvanceIndex(quizID string) error {
	quiz, ok := f.quizzes[quizID]
	if !ok {
		return errors.New("quiz not found")
	}
	quiz.CurrentIndex++
	return nil
}

func (f *fakeQuizStore) MarkCompleted(quizID string, completedAt time.Time) error {
	quiz, ok := f.quizzes[quizID]
	if !ok {
		return errors.New("quiz not found")
	}
	if quiz.CompletedAt == nil {
		t := completedAt
		quiz.CompletedAt = &t
	}
	return nil
}

func (f *fakeQuizStore) UpsertAnswer(ans *model.QuizAnswer) error {
	key := [2]string{ans.QuizID, ans.QuestionID}
	if _, exists := f.answers[key]; !exists {
		f.order = append(f.order, key)
	}
	f.answers[key] = ans
	return nil
}

func (f *fakeQuizStore) FindAnswer(quizID, questionID string) (*model.QuizAnswer, error) {
	return f.answers[[2]string{quizID, questionID}], nil
}

func (f *fakeQuizStore) RecentAnswers(subject, topic string, limit int) ([]model.QuizAnswer, error) {
	out := make([]model.QuizAnswer, 0, limit)
	for i := len(f.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *f.answers[f.order[i]])
	}
	return out, nil
}

func (f *fakeQuizStore) History(limit int) ([]model.QuizHistoryItem, error) {
	items := make([]model.QuizHistoryItem, 0, len(f.quizzes))
	for _, quiz := range f.quizzes {
		if len(quiz.QuestionIDs) == 0 {
			continue
		}
		items = append(items, model.QuizHistoryItem{
			ID:             quiz.ID,
			Subject:        quiz.Subject,
			Topic:          quiz.Topic,
			TotalQuestions: int64(len(quiz.QuestionIDs)),
		})
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

type fakeGenerator struct {
	mu         sync.Mutex
	configured bool
	failGen    bool
	failBatch  bool
	gradeOK    bool
	gradeErr   error
	genCalls   int
	batchCalls int
	gradeCalls int
}

func (f *fakeGenerator) Configured() bool {
	return f.configured
}

func (f *fakeGenerator) generateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.genCalls
}

func (f *fakeGenerator) GenerateQuestion(ctx context.Context, subject, topic string, difficulty int, paperType string) (*model.Question, error) {
	f.mu.Lock()
	f.genCalls++
	f.mu.Unlock()
	if f.failGen {
		return nil, util.ExternalServiceErr("question generation failed", errors.New("upstream down"))
	}
	return model.NewQuestion(subject, topic, difficulty, "generated question", "42",
		[]model.SolutionStep{{StepNumber: 1, Description: "step", ExpressionLatex: "42"}},
		model.SourceGenerated), nil
}

func (f *fakeGenerator) GenerateQuestions(ctx context.Context, subject, topic string, difficulty int, paperType string, count int) ([]*model.Question, error) {
	f.mu.Lock()
	f.batchCalls++
	f.mu.Unlock()
	if f.failGen || f.failBatch {
		return nil, util.ExternalServiceErr("question generation failed", errors.New("upstream down"))
	}
	out := make([]*model.Question, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, model.NewQuestion(subject, topic, difficulty, "generated question", "42",
			[]model.SolutionStep{{StepNumber: 1, Description: "step", ExpressionLatex: "42"}},
			model.SourceGenerated))
	}
	return out, nil
}

func (f *fakeGenerator) GradeAnswer(ctx context.Context, questionLatex, userAnswer, correctAnswer string) (bool, error) {
	f.gradeCalls++
	if f.gradeErr != nil {
		return false, f.gradeErr
	}
	return f.gradeOK, nil
}

type fakeProgressStore struct {
	rows map[[2]string]*model.Progress
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{rows: map[[2]string]*model.Progress{}}
}

func (f *fakeProgressStore) Find(subject, topic string) ([]model.Progress, error) {
	out := []model.Progress{}
	for key, p := range f.rows {
		if subject != "" && key[0] != subject {
			continue
		}
		if topic != "" && key[1] != topic {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProgressStore) Upsert(subject, topic string, isCorrect bool, difficulty int, now time.Time) (*model.Progress, error) {
	key := [2]string{subject, topic}
	p, ok := f.rows[key]
	if !ok {
		p = &model.Progress{Subject: subject, Topic: topic}
		f.rows[key] = p
	}
	p.RecordAnswer(isCorrect, difficulty, now)
	copied := *p
	return &copied, nil
}

type engineFixture struct {
	questions *fakeQuestionStore
	quizzes   *fakeQuizStore
	generator *fakeGenerator
	progress  *fakeProgressStore
	svc       *QuizService
}

func newEngineFixture(gen *fakeGenerator) *engineFixture {
	questions := newFakeQuestionStore()
	quizzes := newFakeQuizStore()
	progress := newFakeProgressStore()
	return &engineFixture{
		questions: questions,
		quizzes:   quizzes,
		generator: gen,
		progress:  progress,
		svc:       NewQuizService(questions, quizzes, gen, NewProgressService(progress, nil)),
	}
}

func strPtr(s string) *string { return &s }

func TestCreateQuizResolvesExactlyOneQuestion(t *testing.T) {
	fx := newEngineFixture(&fakeGenerator{configured: false})

	resp, err := fx.svc.CreateQuiz(context.Background(), model.CreateQuizRequest{
		Subject: "math",
		Topic:   "Calculus",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, resp.CurrentIndex)
	require.Len(t, resp.Questions, 1)
	assert.NotNil(t, resp.Questions[0].Question)
	assert.Equal(t, 5, resp.QuestionCount)
	assert.Nil(t, resp.TimeLimit)

	stored := fx.quizzes.quizzes[resp.ID]
	require.NotNil(t, stored)
	assert.Len(t, stored.QuestionIDs, 1)
}

func TestCreateQuizExamModeSetsTimeLimit(t *testing.T) {
	fx := newEngineFixture(&fakeGenerator{configured: false})

	resp, err := fx.svc.CreateQuiz(context.Background(), model.CreateQuizRequest{
		Subject:   "math",
		Topic:     "Calculus",
		Mode:      strPtr(model.ModeExam),
		PaperType: strPtr("paper3"),
	})
	require.NoError(t, err)

	require.NotNil(t, resp.TimeLimit)
	assert.Equal(t, 5*25*60, *resp.TimeLimit)
}

func TestCreateQuizUnconfiguredFallsBackToTemplate(t *testing.T) {
	fx := newEngineFixture(&fakeGenerator{configured: false})

	resp, err := fx.svc.CreateQuiz(context.Background(), model.CreateQuizRequest{
		Subject: "math",
		Topic:   "Calculus",
	})
	require.NoError(t, err)
	assert.Equal(t, model.SourceTemplate, resp.Questions[0].Question.Source)
	assert.Equal(t, 0, fx.generator.generateCalls())
}

func TestCreateQuizPracticeModeDegradesOnFailure(t *testing.T) {
	fx := newEngineFixture(&fakeGenerator{configured: true, failGen: true})

	resp, err := fx.svc.CreateQuiz(context.Background(), model.CreateQuizRequest{
		Subject: "math",
		Topic:   "Algebra",
	})
	require.NoError(t, err)
	assert.Equal(t, model.SourceTemplate, resp.Questions[0].Question.Source)
}

func TestCreateQuizExamModeSurfacesGenerationFailure(t *testing.T) {
	fx := newEngineFixture(&fakeGenerator{configured: true, failGen: true})

	_, err := fx.svc.CreateQuiz(context.Background(), model.CreateQuizRequest{
		Subject: "math",
		Topic:   "Algebra",
		Mode:    strPtr(model.ModeExam),
	})
	require.Error(t, err)

	appErr := util.AsAppError(err)
	assert.Equal(t, util.KindExternalService, appErr.Kind)
}

func TestNextQuestionIdempotentWithinResolvedWindow(t *testing.T) {
	fx := newEngineFixture(&fakeGenerator{configured: true})

	created, err := fx.svc.CreateQuiz(context.Background(), model.CreateQuizRequest{
		Subject: "math",
		Topic:   "Calculus",
	})
	require.NoError(t, err)
	stored := len(fx.questions.byID)

	first, err := fx.svc.NextQuestion(context.Background(), created.ID)
	require.NoError(t, err)
	second, err := fx.svc.NextQuestion(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Question.ID, second.Question.ID)
	assert.Equal(t, 1, first.QuestionNumber)
	assert.Equal(t, stored, len(fx.questions.byID), "re-reads must not mint questions")
}

func TestNextQuestionResolvesBeyondWindow(t *testing.T) {
	fx := newEngineFixture(&fakeGenerator{configured: true})

	created, err := fx.svc.CreateQuiz(context.Background(), model.CreateQuizRequest{
		Subject: "math",
		Topic:   "Calculus",
	})
	require.NoError(t, err)
	firstID := created.Questions[0].Question.ID

	_, err = fx.svc.SubmitAnswer(context.Background(), model.QuizSubmitRequest{
		QuizID:      created.ID,
		QuestionID:  firstID,
		AnswerLatex: "42",
	})
	require.NoError(t, err)

	next, err := fx.svc.NextQuestion(context.Background(), created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, firstID, next.Question.ID)
	assert.Equal(t, 2, next.QuestionNumber)

	stored := fx.quizzes.quizzes[created.ID]
	assert.Len(t, stored.QuestionIDs, 2)
}

func TestNextQuestionUnknownQuiz(t *testing.T) {
	fx := newEngineFixture(&fakeGenerator{configured: false})

	_, err := fx.svc.NextQuestion(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, util.KindNotFound, util.AsAppError(err).Kind)
}

func TestSubmitTwiceKeepsOneAnswerRowButAdvancesTwice(t *testing.T) {
	fx := newEngineFixture(&fakeGenerator{configured: false})

	created, err := fx.svc.CreateQuiz(context.Background(), model.CreateQuizRequest{
		Subject: "math",
		Topic:   "Calculus",
	})
	require.NoError(t, err)
	questionID := created.Questions[0].Question.ID

	req := model.QuizSubmitRequest{QuizID: created.ID, QuestionID: questionID, AnswerLatex: "wrong"}
	_, err = fx.svc.SubmitAnswer(context.Background(), req)
	require.NoError(t, err)
	_, err = fx.svc.SubmitAnswer(context.Background(), req)
	require.NoError(t, err)

	assert.Len(t, fx.quizzes.answers, 1, "repeat submission overwrites, never duplicates")
	assert.Equal(t, 2, fx.quizzes.quizzes[created.ID].CurrentIndex, "cursor counts submissions")
	assert.Nil(t, fx.quizzes.quizzes[created.ID].CompletedAt, "quiz stays open before question_count submissions")
}

func TestSubmitFinalQuestionMarksQuizCompleted(t *testing.T) {
	fx := newEngineFixture(&fakeGenerator{configured: false})

	created, err := fx.svc.CreateQuiz(context.Background(), model.CreateQuizRequest{
		Subject:       "math",
		Topic:         "Calculus",
		QuestionCount: intPtr(2),
	})
	require.NoError(t, err)

	_, err = fx.svc.SubmitAnswer(context.Background(), model.QuizSubmitRequest{
		QuizID:      created.ID,
		QuestionID:  created.Questions[0].Question.ID,
		AnswerLatex: "42",
	})
	require.NoError(t, err)
	assert.Nil(t, fx.quizzes.quizzes[created.ID].CompletedAt)

	next, err := fx.svc.NextQuestion(context.Background(), created.ID)
	require.NoError(t, err)

	_, err = fx.svc.SubmitAnswer(context.Background(), model.QuizSubmitRequest{
		QuizID:      created.ID,
		QuestionID:  next.Question.ID,
		AnswerLatex: "42",
	})
	require.NoError(t, err)

	completedAt := fx.quizzes.quizzes[created.ID].CompletedAt
	require.NotNil(t, completedAt, "final submission closes the quiz")

	// 收卷后的重复提交不得改写完成时间
	_, err = fx.svc.SubmitAnswer(context.Background(), model.QuizSubmitRequest{
		QuizID:      created.ID,
		QuestionID:  next.Question.ID,
		AnswerLatex: "43",
	})
	require.NoError(t, err)
	assert.Equal(t, completedAt, fx.quizzes.quizzes[created.ID].CompletedAt)
}

func TestSubmitGradesWithHeuristicWhenUnconfigured(t *testing.T) {
	fx := newEngineFixture(&fakeGenerator{configured: false})

	created, err := fx.svc.CreateQuiz(context.Background(), model.CreateQuizRequest{
		Subject: "math",
		Topic:   "Calculus",
	})
	require.NoError(t, err)
	question := created.Questions[0].Question

	resp, err := fx.svc.SubmitAnswer(context.Background(), model.QuizSubmitRequest{
		QuizID:      created.ID,
		QuestionID:  question.ID,
		AnswerLatex: question.AnswerLatex,
	})
	require.NoError(t, err)
	assert.True(t, resp.IsCorrect)
	assert.Equal(t, 0, fx.generator.gradeCalls)
}

func TestSubmitGradingFailureFallsBackToHeuristic(t *testing.T) {
	gen := &fakeGenerator{configured: true, gradeErr: errors.New("grader down")}
	fx := newEngineFixture(gen)

	created, err := fx.svc.CreateQuiz(context.Background(), model.CreateQuizRequest{
		Subject: "math",
		Topic:   "Calculus",
	})
	require.NoError(t, err)
	question := created.Questions[0].Question

	resp, err := fx.svc.SubmitAnswer(context.Background(), model.QuizSubmitRequest{
		QuizID:      created.ID,
		QuestionID:  question.ID,
		AnswerLatex: question.AnswerLatex,
	})
	require.NoError(t, err, "grading outages must not fail submissions")
	assert.True(t, resp.IsCorrect)
	assert.Equal(t, 1, gen.gradeCalls)
}

func TestSubmitUpdatesProgressAndRecommendsDifficulty(t *testing.T) {
	fx := newEngineFixture(&fakeGenerator{configured: false})

	created, err := fx.svc.CreateQuiz(context.Background(), model.CreateQuizRequest{
		Subject: "math",
		Topic:   "Calculus",
	})
	require.NoError(t, err)
	question := created.Questions[0].Question

	resp, err := fx.svc.SubmitAnswer(context.Background(), model.QuizSubmitRequest{
		QuizID:      created.ID,
		QuestionID:  question.ID,
		AnswerLatex: question.AnswerLatex,
	})
	require.NoError(t, err)

	row := fx.progress.rows[[2]string{"math", "Calculus"}]
	require.NotNil(t, row)
	assert.Equal(t, 1, row.TotalAttempts)
	assert.Equal(t, 1, row.CorrectAnswers)

	// 仅一次正确作答，窗口正确率100% → 难度+1
	assert.Equal(t, question.Difficulty+1, resp.NextDifficulty)
}

func TestGetQuizIncludesAnswers(t *testing.T) {
	fx := newEngineFixture(&fakeGenerator{configured: false})

	created, err := fx.svc.CreateQuiz(context.Background(), model.CreateQuizRequest{
		Subject: "math",
		Topic:   "Calculus",
	})
	require.NoError(t, err)
	question := created.Questions[0].Question

	_, err = fx.svc.SubmitAnswer(context.Background(), model.QuizSubmitRequest{
		QuizID:      created.ID,
		QuestionID:  question.ID,
		AnswerLatex: "my answer",
	})
	require.NoError(t, err)

	view, err := fx.svc.GetQuiz(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, view.Questions, 1)
	require.NotNil(t, view.Questions[0].UserAnswer)
	assert.Equal(t, "my answer", *view.Questions[0].UserAnswer)
	assert.NotNil(t, view.Questions[0].IsCorrect)
}

func TestHistoryDefaultsLimit(t *testing.T) {
	fx := newEngineFixture(&fakeGenerator{configured: false})

	_, err := fx.svc.CreateQuiz(context.Background(), model.CreateQuizRequest{
		Subject: "math",
		Topic:   "Calculus",
	})
	require.NoError(t, err)

	items, err := fx.svc.History(0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
