package service

import (
	"context"
	"encoding/json"
	"time"

	"ib_quiz_backend/internal/model"
	"ib_quiz_backend/internal/util"
	"ib_quiz_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ProgressStore 进度聚合持久化
type ProgressStore interface {
	// Find subject/topic 为空串时不过滤
	Find(subject, topic string) ([]model.Progress, error)
	// Upsert 读改写须在单事务内完成，按(subject, topic)定位或新建
	Upsert(subject, topic string, isCorrect bool, difficulty int, now time.Time) (*model.Progress, error)
}

const topicProgressCacheTTL = 60 * time.Second

// ProgressService 学习进度查询与记账，主题维度读多写少，走Redis短缓存
type ProgressService struct {
	store ProgressStore
	rdb   *redis.Client
}

func NewProgressService(store ProgressStore, rdb *redis.Client) *ProgressService {
	return &ProgressService{store: store, rdb: rdb}
}

// GetProgress 按学科/主题过滤的进度行，包在progress信封内返回
func (s *ProgressService) GetProgress(subject, topic string) (*model.ProgressListResponse, error) {
	rows, err := s.store.Find(subject, topic)
	if err != nil {
		return nil, util.DatabaseErr(err)
	}

	out := make([]model.ProgressResponse, 0, len(rows))
	for _, p := range rows {
		out = append(out, toProgressResponse(p))
	}
	return &model.ProgressListResponse{Progress: out}, nil
}

// GetTopicProgress 主题维度汇总，带60秒Redis缓存
func (s *ProgressService) GetTopicProgress(ctx context.Context, subject string) ([]model.TopicProgress, error) {
	cacheKey := "topic_progress:" + subject
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var out []model.TopicProgress
			if err := json.Unmarshal([]byte(cached), &out); err == nil {
				return out, nil
			}
		}
	}

	rows, err := s.store.Find(subject, "")
	if err != nil {
		return nil, util.DatabaseErr(err)
	}

	out := make([]model.TopicProgress, 0, len(rows))
	for _, p := range rows {
		accuracy := 0.0
		if p.TotalAttempts > 0 {
			accuracy = float64(p.CorrectAnswers) / float64(p.TotalAttempts)
		}
		out = append(out, model.TopicProgress{
			Subject:      p.Subject,
			Topic:        p.Topic,
			Accuracy:     accuracy,
			MasteryLevel: p.MasteryLevel,
			Streak:       p.CurrentStreak,
			Attempts:     p.TotalAttempts,
		})
	}

	if s.rdb != nil {
		if data, err := json.Marshal(out); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, data, topicProgressCacheTTL).Err(); err != nil {
				logger.Log.Warn("failed to cache topic progress", zap.Error(err))
			}
		}
	}
	return out, nil
}

// RecordAnswer 记一次作答并返回更新后的进度行
func (s *ProgressService) RecordAnswer(ctx context.Context, subject, topic string, isCorrect bool, difficulty int) (*model.Progress, error) {
	progress, err := s.store.Upsert(subject, topic, isCorrect, difficulty, time.Now())
	if err != nil {
		return nil, util.DatabaseErr(err)
	}
	s.invalidateTopicCache(ctx, subject)
	return progress, nil
}

// MasteryLevel 当前掌握度，查不到时按0处理
func (s *ProgressService) MasteryLevel(subject, topic string) int {
	rows, err := s.store.Find(subject, topic)
	if err != nil || len(rows) == 0 {
		return 0
	}
	return rows[0].MasteryLevel
}

func (s *ProgressService) invalidateTopicCache(ctx context.Context, subject string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, "topic_progress:"+subject).Err(); err != nil && err != redis.Nil {
		logger.Log.Warn("failed to invalidate topic progress cache", zap.Error(err))
	}
}

func toProgressResponse(p model.Progress) model.ProgressResponse {
	accuracy := 0.0
	if p.TotalAttempts > 0 {
		accuracy = float64(p.CorrectAnswers) / float64(p.TotalAttempts)
	}
	return model.ProgressResponse{
		Subject:           p.Subject,
		Topic:             p.Topic,
		TotalAttempts:     p.TotalAttempts,
		CorrectAnswers:    p.CorrectAnswers,
		Accuracy:          accuracy,
		AverageDifficulty: p.AverageDifficulty,
		CurrentStreak:     p.CurrentStreak,
		MasteryLevel:      p.MasteryLevel,
		LastActivity:      p.LastActivity,
	}
}
