package repository

import (
	"errors"
	"time"

	"ib_quiz_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressRepository 进度聚合数据访问
type ProgressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Find subject/topic 为空串时不过滤，按学科、主题稳定排序
func (r *ProgressRepository) Find(subject, topic string) ([]model.Progress, error) {
	query := r.db.Model(&model.Progress{})
	if subject != "" {
		query = query.Where("subject = ?", subject)
	}
	if topic != "" {
		query = query.Where("topic = ?", topic)
	}
	var rows []model.Progress
	err := query.Order("subject ASC, topic ASC").Find(&rows).Error
	return rows, err
}

// Upsert 单事务内锁行读改写，不存在则新建再记账，
// 增量均值等所有聚合更新都走 Progress.RecordAnswer
func (r *ProgressRepository) Upsert(subject, topic string, isCorrect bool, difficulty int, now time.Time) (*model.Progress, error) {
	var progress model.Progress
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("subject = ? AND topic = ?", subject, topic).
			First(&progress).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			progress = model.Progress{Subject: subject, Topic: topic}
			progress.RecordAnswer(isCorrect, difficulty, now)
			return tx.Create(&progress).Error
		}
		if err != nil {
			return err
		}
		progress.RecordAnswer(isCorrect, difficulty, now)
		return tx.Save(&progress).Error
	})
	if err != nil {
		return nil, err
	}
	return &progress, nil
}
