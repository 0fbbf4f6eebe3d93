package model

import "time"

// Progress 每个 (subject, topic) 的滚动统计
// AverageDifficulty 按增量均值维护：avg' = (avg*n + d)/(n+1)
// swagger:model Progress
type Progress struct {
	UUIDBase
	Subject           string    `gorm:"size:50;not null;uniqueIndex:idx_progress_subject_topic" json:"subject"`
	Topic             string    `gorm:"size:100;not null;uniqueIndex:idx_progress_subject_topic" json:"topic"`
	TotalAttempts     int       `gorm:"not null;default:0" json:"total_attempts"`
	CorrectAnswers    int       `gorm:"not null;default:0" json:"correct_answers"`
	AverageDifficulty float64   `gorm:"not null;default:0" json:"average_difficulty"`
	CurrentStreak     int       `gorm:"not null;default:0" json:"current_streak"`
	MasteryLevel      int       `gorm:"not null;default:0" json:"mastery_level"` // 0-100
	LastActivity      time.Time `json:"last_activity"`
}

func (Progress) TableName() string {
	return "progress"
}

// RecordAnswer 把一次作答并入滚动统计
// 均值增量更新；连对计数错一次清零；掌握度正确+2/错误-1，收敛[0,100]
func (p *Progress) RecordAnswer(isCorrect bool, difficulty int, now time.Time) {
	n := p.TotalAttempts
	p.AverageDifficulty = (p.AverageDifficulty*float64(n) + float64(difficulty)) / float64(n+1)
	p.TotalAttempts = n + 1

	if isCorrect {
		p.CorrectAnswers++
		p.CurrentStreak++
		p.MasteryLevel += 2
		if p.MasteryLevel > 100 {
			p.MasteryLevel = 100
		}
	} else {
		p.CurrentStreak = 0
		p.MasteryLevel--
		if p.MasteryLevel < 0 {
			p.MasteryLevel = 0
		}
	}

	p.LastActivity = now
}

// ProgressResponse 单个 (subject, topic) 的进度视图，Accuracy 为派生字段
type ProgressResponse struct {
	Subject           string    `json:"subject"`
	Topic             string    `json:"topic"`
	TotalAttempts     int       `json:"total_attempts"`
	CorrectAnswers    int       `json:"correct_answers"`
	Accuracy          float64   `json:"accuracy"`
	AverageDifficulty float64   `json:"average_difficulty"`
	CurrentStreak     int       `json:"current_streak"`
	MasteryLevel      int       `json:"mastery_level"`
	LastActivity      time.Time `json:"last_activity"`
}

// ProgressListResponse GET /api/progress 的信封
type ProgressListResponse struct {
	Progress []ProgressResponse `json:"progress"`
}

// TopicProgress 按主题汇总的正确率视图
type TopicProgress struct {
	Subject      string  `json:"subject"`
	Topic        string  `json:"topic"`
	Accuracy     float64 `json:"accuracy"`
	MasteryLevel int     `json:"mastery_level"`
	Streak       int     `json:"streak"`
	Attempts     int     `json:"attempts"`
}
