package service

import (
	"context"
	"time"

	"ib_quiz_backend/internal/model"
	"ib_quiz_backend/internal/util"
	"ib_quiz_backend/pkg/logger"
	"ib_quiz_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// 存储协作方的窄接口：引擎不持有任何跨请求内存态，
// 持久状态全部外置，并发序列化（索引自增、答案upsert）由存储层保证

// QuestionStore 题目持久化
type QuestionStore interface {
	Create(q *model.Question) error
	// FindByID 未命中返回 (nil, nil)
	FindByID(id string) (*model.Question, error)
}

// QuizStore 测验与作答持久化
type QuizStore interface {
	Create(quiz *model.Quiz) error
	// FindByID 未命中返回 (nil, nil)
	FindByID(id string) (*model.Quiz, error)
	AppendQuestion(quizID, questionID string) error
	// AdvanceIndex 原子自增current_index，并发提交不得合并
	AdvanceIndex(quizID string) error
	// MarkCompleted 记录完成时间，仅首次生效
	MarkCompleted(quizID string, completedAt time.Time) error
	UpsertAnswer(ans *model.QuizAnswer) error
	// FindAnswer 未命中返回 (nil, nil)
	FindAnswer(quizID, questionID string) (*model.QuizAnswer, error)
	// RecentAnswers 按作答时间倒序
	RecentAnswers(subject, topic string, limit int) ([]model.QuizAnswer, error)
	History(limit int) ([]model.QuizHistoryItem, error)
}

// Generator 生成协作方（引擎只消费规整后的题目）
type Generator interface {
	Configured() bool
	GenerateQuestion(ctx context.Context, subject, topic string, difficulty int, paperType string) (*model.Question, error)
	GradeAnswer(ctx context.Context, questionLatex, userAnswer, correctAnswer string) (bool, error)
}

// 每题配时（秒）
const (
	timePerQuestionDefault = 12 * 60
	timePerQuestionPaper3  = 25 * 60

	defaultQuestionCount = 5
	defaultHistoryLimit  = 20
)

// TimePerQuestion paper3（探究卷）每题25分钟，其余12分钟
func TimePerQuestion(paperType string) int {
	if paperType == "paper3" {
		return timePerQuestionPaper3
	}
	return timePerQuestionDefault
}

// 题目产出来源标签
type generationSource string

const (
	sourceGenerated generationSource = "generated"
	sourceTemplate  generationSource = "template"
	sourceFailed    generationSource = "failed"
)

// generationOutcome 显式标注的产出结果，考试模式禁止模板替换的
// 规则收敛到 produceQuestion 单个分支里
type generationOutcome struct {
	source   generationSource
	question *model.Question
}

// QuizService 测验推进引擎
type QuizService struct {
	questions QuestionStore
	quizzes   QuizStore
	generator Generator
	progress  *ProgressService
}

func NewQuizService(questions QuestionStore, quizzes QuizStore, generator Generator, progress *ProgressService) *QuizService {
	return &QuizService{
		questions: questions,
		quizzes:   quizzes,
		generator: generator,
		progress:  progress,
	}
}

// produceQuestion 出一道新题
//
// 分支规则：
//   - 凭证未配置：一律模板回退（含考试模式）
//   - 已配置但生成/规整失败：考试模式向上抛出（模板替题有失公平），
//     练习模式降级为模板并告警
func (s *QuizService) produceQuestion(ctx context.Context, subject, topic string, difficulty int, paperType string, examMode bool) (*generationOutcome, error) {
	if !s.generator.Configured() {
		logger.Log.Info("no generator credential configured, using template question",
			zap.String("subject", subject), zap.String("topic", topic))
		monitoring.GenerationCounter.WithLabelValues(string(sourceTemplate)).Inc()
		return &generationOutcome{source: sourceTemplate, question: TemplateQuestion(subject, topic, difficulty)}, nil
	}

	question, err := s.generator.GenerateQuestion(ctx, subject, topic, difficulty, paperType)
	if err != nil {
		monitoring.GenerationCounter.WithLabelValues(string(sourceFailed)).Inc()
		if examMode {
			return nil, err
		}
		logger.Log.Warn("question generation failed, falling back to template",
			zap.String("subject", subject), zap.String("topic", topic), zap.Error(err))
		monitoring.GenerationCounter.WithLabelValues(string(sourceTemplate)).Inc()
		return &generationOutcome{source: sourceTemplate, question: TemplateQuestion(subject, topic, difficulty)}, nil
	}

	monitoring.GenerationCounter.WithLabelValues(string(sourceGenerated)).Inc()
	return &generationOutcome{source: sourceGenerated, question: question}, nil
}

// targetDifficulty 考试模式固定难度，练习模式按近期表现自适应
func (s *QuizService) targetDifficulty(quiz *model.Quiz) int {
	if quiz.IsExam() {
		return ExamDifficulty
	}

	current := DefaultDifficulty
	if n := len(quiz.QuestionIDs); n > 0 {
		if last, err := s.questions.FindByID(quiz.QuestionIDs[n-1]); err == nil && last != nil {
			current = last.Difficulty
		}
	}

	recent, err := s.quizzes.RecentAnswers(quiz.Subject, quiz.Topic, recentWindow)
	if err != nil {
		logger.Log.Warn("failed to load recent answers", zap.Error(err))
		return current
	}
	return NextDifficulty(current, recent, s.progress.MasteryLevel(quiz.Subject, quiz.Topic))
}

// resolveNewQuestion 生成→持久化→追加，持久化成功后才挂到测验上，
// 半成品不会被后续nextQuestion看到
func (s *QuizService) resolveNewQuestion(ctx context.Context, quiz *model.Quiz) (*model.Question, error) {
	paperType := ""
	if quiz.PaperType != nil {
		paperType = *quiz.PaperType
	}

	outcome, err := s.produceQuestion(ctx, quiz.Subject, quiz.Topic, s.targetDifficulty(quiz), paperType, quiz.IsExam())
	if err != nil {
		return nil, err
	}

	if err := s.questions.Create(outcome.question); err != nil {
		return nil, util.DatabaseErr(err)
	}
	if err := s.quizzes.AppendQuestion(quiz.ID, outcome.question.ID); err != nil {
		return nil, util.DatabaseErr(err)
	}
	quiz.QuestionIDs = append(quiz.QuestionIDs, outcome.question.ID)

	return outcome.question, nil
}

// CreateQuiz 建一次新测验并立即解析第一题，返回的测验恒有且仅有一个已填槽位
func (s *QuizService) CreateQuiz(ctx context.Context, req model.CreateQuizRequest) (*model.QuizResponse, error) {
	questionCount := defaultQuestionCount
	if req.QuestionCount != nil && *req.QuestionCount > 0 {
		questionCount = *req.QuestionCount
	}

	var timeLimit *int
	if req.Mode != nil && *req.Mode == model.ModeExam {
		paperType := ""
		if req.PaperType != nil {
			paperType = *req.PaperType
		}
		limit := questionCount * TimePerQuestion(paperType)
		timeLimit = &limit
	}

	quiz := &model.Quiz{
		Subject:       req.Subject,
		Topic:         req.Topic,
		QuestionIDs:   model.StringList{},
		Mode:          req.Mode,
		PaperType:     req.PaperType,
		QuestionCount: questionCount,
		TimeLimit:     timeLimit,
	}
	if err := s.quizzes.Create(quiz); err != nil {
		return nil, util.DatabaseErr(err)
	}

	first, err := s.resolveNewQuestion(ctx, quiz)
	if err != nil {
		return nil, err
	}

	return &model.QuizResponse{
		ID:            quiz.ID,
		Subject:       quiz.Subject,
		Topic:         quiz.Topic,
		CurrentIndex:  0,
		QuestionCount: questionCount,
		Mode:          quiz.Mode,
		PaperType:     quiz.PaperType,
		TimeLimit:     timeLimit,
		Questions:     []model.QuestionWithAnswer{{Question: first}},
	}, nil
}

// GetQuiz 完整测验视图：全部已解析题目及学生作答
func (s *QuizService) GetQuiz(ctx context.Context, quizID string) (*model.QuizResponse, error) {
	quiz, err := s.quizzes.FindByID(quizID)
	if err != nil {
		return nil, util.DatabaseErr(err)
	}
	if quiz == nil {
		return nil, util.NotFoundErr("quiz not found")
	}

	questions := make([]model.QuestionWithAnswer, 0, len(quiz.QuestionIDs))
	for _, questionID := range quiz.QuestionIDs {
		question, err := s.questions.FindByID(questionID)
		if err != nil {
			return nil, util.DatabaseErr(err)
		}
		if question == nil {
			return nil, util.NotFoundErr("question not found")
		}

		qa := model.QuestionWithAnswer{Question: question}
		answer, err := s.quizzes.FindAnswer(quizID, questionID)
		if err != nil {
			return nil, util.DatabaseErr(err)
		}
		if answer != nil {
			qa.UserAnswer = &answer.AnswerLatex
			qa.IsCorrect = &answer.IsCorrect
		}
		questions = append(questions, qa)
	}

	return &model.QuizResponse{
		ID:            quiz.ID,
		Subject:       quiz.Subject,
		Topic:         quiz.Topic,
		CurrentIndex:  quiz.CurrentIndex,
		QuestionCount: quiz.QuestionCount,
		Mode:          quiz.Mode,
		PaperType:     quiz.PaperType,
		TimeLimit:     quiz.TimeLimit,
		CompletedAt:   quiz.CompletedAt,
		Questions:     questions,
	}, nil
}

// NextQuestion 解析当前游标处的题目
//
// 游标落在已填槽位内时纯读、幂等、无副作用；越过已填区间时
// 恰好产出一道新题。子问会一并返回父题干供前端渲染共享上下文。
func (s *QuizService) NextQuestion(ctx context.Context, quizID string) (*model.QuizNextResponse, error) {
	quiz, err := s.quizzes.FindByID(quizID)
	if err != nil {
		return nil, util.DatabaseErr(err)
	}
	if quiz == nil {
		return nil, util.NotFoundErr("quiz not found")
	}

	var question *model.Question
	if quiz.CurrentIndex < len(quiz.QuestionIDs) {
		question, err = s.questions.FindByID(quiz.QuestionIDs[quiz.CurrentIndex])
		if err != nil {
			return nil, util.DatabaseErr(err)
		}
		if question == nil {
			return nil, util.NotFoundErr("question not found")
		}
	} else {
		question, err = s.resolveNewQuestion(ctx, quiz)
		if err != nil {
			return nil, err
		}
	}

	var parent *model.Question
	if question.IsPart() {
		parent, err = s.questions.FindByID(*question.ParentID)
		if err != nil {
			return nil, util.DatabaseErr(err)
		}
	}

	return &model.QuizNextResponse{
		Question:       question,
		ParentQuestion: parent,
		QuizID:         quiz.ID,
		QuestionNumber: quiz.CurrentIndex + 1,
		TotalQuestions: quiz.QuestionCount,
		Mode:           quiz.Mode,
		PaperType:      quiz.PaperType,
		TimeLimit:      quiz.TimeLimit,
	}, nil
}

// SubmitAnswer 提交作答
//
// 步骤顺序有依赖，不可重排：判分 → 答案upsert → 游标+1 → 进度聚合 → 下一难度。
// 游标对每次提交无条件+1，跟踪的是“提交次数”而非“答对题数”；
// 对同一题重复提交会覆盖旧作答但仍推进游标（保留的已知行为）。
func (s *QuizService) SubmitAnswer(ctx context.Context, req model.QuizSubmitRequest) (*model.QuizSubmitResponse, error) {
	question, err := s.questions.FindByID(req.QuestionID)
	if err != nil {
		return nil, util.DatabaseErr(err)
	}
	if question == nil {
		return nil, util.NotFoundErr("question not found")
	}

	quiz, err := s.quizzes.FindByID(req.QuizID)
	if err != nil {
		return nil, util.DatabaseErr(err)
	}
	if quiz == nil {
		return nil, util.NotFoundErr("quiz not found")
	}

	// 判分服务故障降级为启发式比较，这一步绝不失败
	var isCorrect bool
	if s.generator.Configured() {
		isCorrect, err = s.generator.GradeAnswer(ctx, question.QuestionLatex, req.AnswerLatex, question.AnswerLatex)
		if err != nil {
			logger.Log.Warn("grading service failed, falling back to heuristic check", zap.Error(err))
			isCorrect = IsEquivalent(req.AnswerLatex, question.AnswerLatex)
		}
	} else {
		isCorrect = IsEquivalent(req.AnswerLatex, question.AnswerLatex)
	}

	answer := &model.QuizAnswer{
		ID:          model.GenerateUUID(),
		QuizID:      req.QuizID,
		QuestionID:  req.QuestionID,
		AnswerLatex: req.AnswerLatex,
		IsCorrect:   isCorrect,
		TimeTaken:   req.TimeTaken,
		AnsweredAt:  time.Now(),
	}
	if err := s.quizzes.UpsertAnswer(answer); err != nil {
		return nil, util.DatabaseErr(err)
	}

	if err := s.quizzes.AdvanceIndex(req.QuizID); err != nil {
		return nil, util.DatabaseErr(err)
	}

	// 提交次数达到题量即收卷
	if quiz.CompletedAt == nil && quiz.CurrentIndex+1 >= quiz.QuestionCount {
		if err := s.quizzes.MarkCompleted(req.QuizID, time.Now()); err != nil {
			return nil, util.DatabaseErr(err)
		}
	}

	progress, err := s.progress.RecordAnswer(ctx, quiz.Subject, quiz.Topic, isCorrect, question.Difficulty)
	if err != nil {
		return nil, err
	}

	recent, err := s.quizzes.RecentAnswers(quiz.Subject, quiz.Topic, recentWindow)
	if err != nil {
		return nil, util.DatabaseErr(err)
	}
	nextDifficulty := NextDifficulty(question.Difficulty, recent, progress.MasteryLevel)

	return &model.QuizSubmitResponse{
		IsCorrect:      isCorrect,
		CorrectAnswer:  question.AnswerLatex,
		Solution:       question.SolutionSteps,
		NextDifficulty: nextDifficulty,
	}, nil
}

// History 近期测验及正确数统计
func (s *QuizService) History(limit int) ([]model.QuizHistoryItem, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	items, err := s.quizzes.History(limit)
	if err != nil {
		return nil, util.DatabaseErr(err)
	}
	return items, nil
}
