package service

import "ib_quiz_backend/internal/model"

// 难度边界
const (
	MinDifficulty = 1
	MaxDifficulty = 5

	// ExamDifficulty 考试模式固定出题难度
	ExamDifficulty = 4

	// DefaultDifficulty 无历史记录时的起始难度
	DefaultDifficulty = 3

	// recentWindow 自适应模型最多考察的近期作答条数
	recentWindow = 5
)

// NextDifficulty 依据近期表现计算下一题难度
//
// 规则：
//   - 近5次正确率 >= 80%：难度+1
//   - 近5次正确率 <= 40%：难度-1
//   - 其余保持不变
//
// 结果收敛到 [1,5]。recentAnswers 按时间倒序传入；为空时返回当前难度。
// masteryLevel 为将来扩展预留，目前不参与决策（有意为之，非缺陷）。
func NextDifficulty(current int, recentAnswers []model.QuizAnswer, masteryLevel int) int {
	if len(recentAnswers) == 0 {
		return current
	}

	count := len(recentAnswers)
	if count > recentWindow {
		count = recentWindow
	}

	correct := 0
	for _, a := range recentAnswers[:count] {
		if a.IsCorrect {
			correct++
		}
	}

	accuracy := float64(correct) / float64(count)

	adjustment := 0
	if accuracy >= 0.8 {
		adjustment = 1
	} else if accuracy <= 0.4 {
		adjustment = -1
	}

	next := current + adjustment
	if next < MinDifficulty {
		next = MinDifficulty
	}
	if next > MaxDifficulty {
		next = MaxDifficulty
	}
	return next
}

// ClampDifficulty 把请求难度收敛到合法区间
func ClampDifficulty(d int) int {
	if d < MinDifficulty {
		return MinDifficulty
	}
	if d > MaxDifficulty {
		return MaxDifficulty
	}
	return d
}
