package service

import (
	"context"

	"ib_quiz_backend/internal/model"
	"ib_quiz_backend/internal/util"
	"ib_quiz_backend/pkg/logger"
	"ib_quiz_backend/pkg/monitoring"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// 单次请求最多出5道题，生成并发上限同为5
const (
	maxBatchCount       = 5
	maxGenerateInFlight = 5
)

// BatchGenerator 批量生成协作方
type BatchGenerator interface {
	Configured() bool
	GenerateQuestion(ctx context.Context, subject, topic string, difficulty int, paperType string) (*model.Question, error)
	GenerateQuestions(ctx context.Context, subject, topic string, difficulty int, paperType string, count int) ([]*model.Question, error)
}

// QuestionService 独立出题入口（不挂测验）
type QuestionService struct {
	store     QuestionStore
	generator BatchGenerator
}

func NewQuestionService(store QuestionStore, generator BatchGenerator) *QuestionService {
	return &QuestionService{store: store, generator: generator}
}

// GenerateQuestions 按请求出一批题
//
// 凭证未配置时全部走模板且不落库；已配置时并发生成，
// 单题失败降级为模板，生成成功的题尽力落库，落库失败不影响返回。
func (s *QuestionService) GenerateQuestions(ctx context.Context, req model.GenerateQuestionRequest) (*model.GenerateQuestionResponse, error) {
	difficulty := DefaultDifficulty
	if req.Difficulty != nil {
		difficulty = ClampDifficulty(*req.Difficulty)
	}

	count := 1
	if req.Count != nil && *req.Count > 0 {
		count = *req.Count
	}
	if count > maxBatchCount {
		count = maxBatchCount
	}

	if !s.generator.Configured() {
		questions := make([]*model.Question, count)
		for i := range questions {
			questions[i] = TemplateQuestion(req.Subject, req.Topic, difficulty)
			monitoring.GenerationCounter.WithLabelValues("template").Inc()
		}
		return &model.GenerateQuestionResponse{Questions: questions}, nil
	}

	// 多题优先单次批量调用（省token、题目互补），失败再逐题并发补救
	if count > 1 {
		batch, err := s.generator.GenerateQuestions(ctx, req.Subject, req.Topic, difficulty, "", count)
		if err == nil && len(batch) == count {
			for range batch {
				monitoring.GenerationCounter.WithLabelValues("generated").Inc()
			}
			s.persistGenerated(batch)
			return &model.GenerateQuestionResponse{Questions: batch}, nil
		}
		logger.Log.Warn("batch generation failed, retrying per question",
			zap.String("subject", req.Subject), zap.String("topic", req.Topic), zap.Error(err))
	}

	questions := make([]*model.Question, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxGenerateInFlight)
	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			question, err := s.generator.GenerateQuestion(gctx, req.Subject, req.Topic, difficulty, "")
			if err != nil {
				logger.Log.Warn("question generation failed, falling back to template",
					zap.String("subject", req.Subject), zap.String("topic", req.Topic), zap.Error(err))
				monitoring.GenerationCounter.WithLabelValues("failed").Inc()
				monitoring.GenerationCounter.WithLabelValues("template").Inc()
				questions[i] = TemplateQuestion(req.Subject, req.Topic, difficulty)
				return nil
			}
			monitoring.GenerationCounter.WithLabelValues("generated").Inc()
			questions[i] = question
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, util.AsAppError(err)
	}

	s.persistGenerated(questions)
	return &model.GenerateQuestionResponse{Questions: questions}, nil
}

// persistGenerated 生成题尽力落库，落库失败不影响返回（题目照常出给前端）
func (s *QuestionService) persistGenerated(questions []*model.Question) {
	for _, question := range questions {
		if question.Source != model.SourceGenerated {
			continue
		}
		if err := s.store.Create(question); err != nil {
			logger.Log.Warn("failed to persist generated question", zap.String("id", question.ID), zap.Error(err))
		}
	}
}
