package model

import (
	"encoding/json"
	"time"
)

// 测验模式
const (
	ModeQuiz = "quiz"
	ModeExam = "exam"
)

// Quiz 一次按主题进行的有序答题，QuestionIDs 只允许追加，
// CurrentIndex 只允许单调递增（每次提交+1）
// swagger:model Quiz
type Quiz struct {
	UUIDBase
	Subject       string     `gorm:"size:50;not null;index:idx_quiz_subject_topic" json:"subject"`
	Topic         string     `gorm:"size:100;not null;index:idx_quiz_subject_topic" json:"topic"`
	QuestionIDs   StringList `gorm:"type:json" json:"question_ids"`
	CurrentIndex  int        `gorm:"not null;default:0" json:"current_index"`
	Mode          *string    `gorm:"size:10" json:"mode"`       // quiz | exam
	PaperType     *string    `gorm:"size:10" json:"paper_type"` // paper1 | paper2 | paper3
	QuestionCount int        `gorm:"not null;default:5" json:"question_count"`
	TimeLimit     *int       `json:"time_limit"` // 秒，仅exam模式
	CompletedAt   *time.Time `json:"completed_at"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (q *Quiz) IsExam() bool {
	return q.Mode != nil && *q.Mode == ModeExam
}

// QuizAnswer 一次测验中对一道题的作答记录
// (quiz_id, question_id) 唯一，重复提交覆盖旧记录
// swagger:model QuizAnswer
type QuizAnswer struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	QuizID      string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_quiz_question" json:"quiz_id"`
	QuestionID  string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_quiz_question" json:"question_id"`
	AnswerLatex string    `gorm:"type:text;not null" json:"answer_latex"`
	IsCorrect   bool      `gorm:"not null" json:"is_correct"`
	TimeTaken   int       `gorm:"not null;default:0" json:"time_taken"` // 秒
	AnsweredAt  time.Time `json:"answered_at"`
}

func (QuizAnswer) TableName() string {
	return "quiz_answers"
}

type CreateQuizRequest struct {
	Subject       string  `json:"subject" binding:"required"`
	Topic         string  `json:"topic" binding:"required"`
	Mode          *string `json:"mode"`
	PaperType     *string `json:"paper_type"`
	QuestionCount *int    `json:"question_count"`
}

// QuestionWithAnswer 题目及学生已提交的作答（若有）
type QuestionWithAnswer struct {
	Question   *Question `json:"question"`
	UserAnswer *string   `json:"user_answer"`
	IsCorrect  *bool     `json:"is_correct"`
}

type QuizResponse struct {
	ID            string               `json:"id"`
	Subject       string               `json:"subject"`
	Topic         string               `json:"topic"`
	CurrentIndex  int                  `json:"current_index"`
	QuestionCount int                  `json:"question_count"`
	Mode          *string              `json:"mode"`
	PaperType     *string              `json:"paper_type"`
	TimeLimit     *int                 `json:"time_limit"`
	CompletedAt   *time.Time           `json:"completed_at,omitempty"`
	Questions     []QuestionWithAnswer `json:"questions"`
}

type QuizNextResponse struct {
	Question       *Question `json:"question"`
	ParentQuestion *Question `json:"parent_question"` // 多part题的父题干
	QuizID         string    `json:"quiz_id"`
	QuestionNumber int       `json:"question_number"`
	TotalQuestions int       `json:"total_questions"`
	Mode           *string   `json:"mode"`
	PaperType      *string   `json:"paper_type"`
	TimeLimit      *int      `json:"time_limit"`
}

type QuizSubmitRequest struct {
	QuizID      string `json:"quiz_id" binding:"required"`
	QuestionID  string `json:"question_id" binding:"required"`
	AnswerLatex string `json:"answer_latex"`
	TimeTaken   int    `json:"time_taken"`
}

type QuizSubmitResponse struct {
	IsCorrect      bool            `json:"is_correct"`
	CorrectAnswer  string          `json:"correct_answer"`
	Solution       json.RawMessage `json:"solution"`
	NextDifficulty int             `json:"next_difficulty"`
}

// QuizHistoryItem 历史测验及其答题统计
type QuizHistoryItem struct {
	ID             string    `json:"id"`
	Subject        string    `json:"subject"`
	Topic          string    `json:"topic"`
	TotalQuestions int64     `json:"total_questions"`
	CorrectAnswers int64     `json:"correct_answers"`
	StartedAt      time.Time `json:"started_at"`
	Mode           *string   `json:"mode"`
	PaperType      *string   `json:"paper_type"`
}
