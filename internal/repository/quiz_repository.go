package repository

import (
	"errors"
	"time"

	"ib_quiz_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuizRepository 测验与作答数据访问，游标自增与答案upsert的
// 并发序列化在这一层完成
type QuizRepository struct {
	db *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.db.Create(quiz).Error
}

// FindByID 未命中返回 (nil, nil)
func (r *QuizRepository) FindByID(id string) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := r.db.Where("id = ?", id).First(&quiz).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &quiz, nil
}

// AppendQuestion 追加题目ID，行锁内读改写避免并发追加互相覆盖
func (r *QuizRepository) AppendQuestion(quizID, questionID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var quiz model.Quiz
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", quizID).First(&quiz).Error; err != nil {
			return err
		}
		quiz.QuestionIDs = append(quiz.QuestionIDs, questionID)
		return tx.Model(&quiz).UpdateColumn("question_ids", quiz.QuestionIDs).Error
	})
}

// AdvanceIndex 游标原子+1，不查不比，直接下推到SQL
func (r *QuizRepository) AdvanceIndex(quizID string) error {
	return r.db.Model(&model.Quiz{}).
		Where("id = ?", quizID).
		UpdateColumn("current_index", gorm.Expr("current_index + 1")).Error
}

// MarkCompleted 记录完成时间，WHERE条件保证只有第一次提交生效
func (r *QuizRepository) MarkCompleted(quizID string, completedAt time.Time) error {
	return r.db.Model(&model.Quiz{}).
		Where("id = ? AND completed_at IS NULL", quizID).
		UpdateColumn("completed_at", completedAt).Error
}

// UpsertAnswer 按(quiz_id, question_id)落一条作答，已存在则覆盖
func (r *QuizRepository) UpsertAnswer(ans *model.QuizAnswer) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "quiz_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"answer_latex", "is_correct", "time_taken", "answered_at",
		}),
	}).Create(ans).Error
}

// FindAnswer 未命中返回 (nil, nil)
func (r *QuizRepository) FindAnswer(quizID, questionID string) (*model.QuizAnswer, error) {
	var ans model.QuizAnswer
	err := r.db.Where("quiz_id = ? AND question_id = ?", quizID, questionID).
		First(&ans).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ans, nil
}

// RecentAnswers 某学科/主题下跨测验的近期作答，按时间倒序
func (r *QuizRepository) RecentAnswers(subject, topic string, limit int) ([]model.QuizAnswer, error) {
	var answers []model.QuizAnswer
	err := r.db.
		Joins("JOIN quizzes ON quizzes.id = quiz_answers.quiz_id").
		Where("quizzes.subject = ? AND quizzes.topic = ?", subject, topic).
		Order("quiz_answers.answered_at DESC").
		Limit(limit).
		Find(&answers).Error
	return answers, err
}

// History 近期测验及每次的答题统计，空测验（一题未出）不计入
func (r *QuizRepository) History(limit int) ([]model.QuizHistoryItem, error) {
	var items []model.QuizHistoryItem
	err := r.db.Raw(`
		SELECT q.id,
		       q.subject,
		       q.topic,
		       JSON_LENGTH(q.question_ids)                          AS total_questions,
		       COALESCE(SUM(CASE WHEN a.is_correct THEN 1 ELSE 0 END), 0) AS correct_answers,
		       q.created_at                                         AS started_at,
		       q.mode,
		       q.paper_type
		FROM quizzes q
		LEFT JOIN quiz_answers a ON a.quiz_id = q.id
		GROUP BY q.id, q.subject, q.topic, q.question_ids, q.created_at, q.mode, q.paper_type
		HAVING JSON_LENGTH(q.question_ids) > 0
		ORDER BY q.created_at DESC
		LIMIT ?`, limit).Scan(&items).Error
	return items, err
}
