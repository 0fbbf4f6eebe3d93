package model

import "encoding/json"

// 题目来源标记
const (
	SourceGenerated = "generated"
	SourceTemplate  = "template"
)

// Question 一道考试题目，生成后不可变
// 多part题（(a)(b)(c)小问）通过 ParentID/PartLabel/PartOrder 关联，
// 子问的 PartOrder 决定展示顺序；独立题目 ParentID 为空
// swagger:model Question
type Question struct {
	UUIDBase
	Subject    string  `gorm:"size:50;not null;index:idx_subject_topic" json:"subject"`
	Topic      string  `gorm:"size:100;not null;index:idx_subject_topic" json:"topic"`
	Subtopic   *string `gorm:"size:100" json:"subtopic"`
	Difficulty int     `gorm:"not null;default:3" json:"difficulty"` // 1-5

	ParentID  *string `gorm:"type:varchar(36);index" json:"parent_id"`
	PartLabel *string `gorm:"size:10" json:"part_label"` // "a", "b", "c"
	PartOrder int     `gorm:"not null;default:0" json:"part_order"`

	QuestionLatex string          `gorm:"type:text;not null" json:"question_latex"`
	AnswerLatex   string          `gorm:"type:text;not null" json:"answer_latex"`
	SolutionSteps json.RawMessage `gorm:"type:json" json:"solution_steps"` // JSON: []SolutionStep
	Hints         json.RawMessage `gorm:"type:json" json:"hints,omitempty"`
	Source        string          `gorm:"size:20;not null" json:"source"` // generated | template
}

func (Question) TableName() string {
	return "questions"
}

func (q *Question) IsPart() bool {
	return q.ParentID != nil
}

// SolutionStep 分步解答中的一步
type SolutionStep struct {
	StepNumber      int    `json:"step_number"`
	Description     string `json:"description"`
	ExpressionLatex string `json:"expression_latex"`
}

// NewQuestion 构造一道独立题目并序列化解答步骤
func NewQuestion(subject, topic string, difficulty int, questionLatex, answerLatex string, steps []SolutionStep, source string) *Question {
	raw, err := json.Marshal(steps)
	if err != nil {
		raw = json.RawMessage("[]")
	}
	return &Question{
		UUIDBase:      UUIDBase{ID: GenerateUUID()},
		Subject:       subject,
		Topic:         topic,
		Difficulty:    difficulty,
		QuestionLatex: questionLatex,
		AnswerLatex:   answerLatex,
		SolutionSteps: raw,
		Source:        source,
	}
}

type GenerateQuestionRequest struct {
	Subject    string `json:"subject" binding:"required"`
	Topic      string `json:"topic" binding:"required"`
	Difficulty *int   `json:"difficulty"`
	Count      *int   `json:"count"`
}

type GenerateQuestionResponse struct {
	Questions []*Question `json:"questions"`
}
