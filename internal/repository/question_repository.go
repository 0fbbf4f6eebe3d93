package repository

import (
	"errors"

	"ib_quiz_backend/internal/model"

	"gorm.io/gorm"
)

// QuestionRepository 题目数据访问
type QuestionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) Create(q *model.Question) error {
	return r.db.Create(q).Error
}

// FindByID 未命中返回 (nil, nil)
func (r *QuestionRepository) FindByID(id string) (*model.Question, error) {
	var q model.Question
	if err := r.db.Where("id = ?", id).First(&q).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}