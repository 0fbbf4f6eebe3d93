package service

import (
	"fmt"

	"ib_quiz_backend/internal/model"
)

// 模板回退题库：生成服务未配置凭证时按 (subject, topic) 给出固定题目
// 题目本身确定，便于离线环境和前端联调

type templateEntry struct {
	question string
	answer   string
	steps    []model.SolutionStep
}

var templateQuestions = map[[2]string]templateEntry{
	{"math", "Calculus"}: {
		question: `Find \frac{d}{dx}\left(x^3 + 2x^2 - 5x + 1\right)`,
		answer:   `3x^2 + 4x - 5`,
		steps: []model.SolutionStep{
			{StepNumber: 1, Description: "Apply power rule to each term", ExpressionLatex: `\frac{d}{dx}(x^n) = nx^{n-1}`},
			{StepNumber: 2, Description: "Differentiate x^3", ExpressionLatex: `3x^2`},
			{StepNumber: 3, Description: "Differentiate 2x^2", ExpressionLatex: `4x`},
			{StepNumber: 4, Description: "Differentiate -5x", ExpressionLatex: `-5`},
			{StepNumber: 5, Description: "Combine results", ExpressionLatex: `3x^2 + 4x - 5`},
		},
	},
	{"math", "Algebra"}: {
		question: `Solve for x: 2x^2 - 5x - 3 = 0`,
		answer:   `x = 3 \text{ or } x = -\frac{1}{2}`,
		steps: []model.SolutionStep{
			{StepNumber: 1, Description: "Use quadratic formula", ExpressionLatex: `x = \frac{-b \pm \sqrt{b^2 - 4ac}}{2a}`},
			{StepNumber: 2, Description: "Substitute values a=2, b=-5, c=-3", ExpressionLatex: `x = \frac{5 \pm \sqrt{25 + 24}}{4}`},
			{StepNumber: 3, Description: "Simplify", ExpressionLatex: `x = \frac{5 \pm 7}{4}`},
			{StepNumber: 4, Description: "Find solutions", ExpressionLatex: `x = 3 \text{ or } x = -\frac{1}{2}`},
		},
	},
	{"physics", "Mechanics"}: {
		question: `A ball is thrown vertically upward with initial velocity 20 \text{ m/s}. Find the maximum height reached. (g = 10 \text{ m/s}^2)`,
		answer:   `h = 20 \text{ m}`,
		steps: []model.SolutionStep{
			{StepNumber: 1, Description: "Use kinematic equation", ExpressionLatex: `v^2 = u^2 - 2gh`},
			{StepNumber: 2, Description: "At maximum height, v = 0", ExpressionLatex: `0 = (20)^2 - 2(10)h`},
			{StepNumber: 3, Description: "Solve for h", ExpressionLatex: `h = \frac{400}{20} = 20 \text{ m}`},
		},
	},
	{"chemistry", "Stoichiometry"}: {
		question: `How many moles of water are produced when 2 moles of H_2 react with excess O_2?`,
		answer:   `2 \text{ mol}`,
		steps: []model.SolutionStep{
			{StepNumber: 1, Description: "Write balanced equation", ExpressionLatex: `2H_2 + O_2 \rightarrow 2H_2O`},
			{StepNumber: 2, Description: "From stoichiometry, 2 mol H2 produces 2 mol H2O", ExpressionLatex: `n(H_2O) = 2 \text{ mol}`},
		},
	},
}

// TemplateQuestion 构造 (subject, topic) 对应的模板题，未收录的主题给通用占位题
func TemplateQuestion(subject, topic string, difficulty int) *model.Question {
	if entry, ok := templateQuestions[[2]string{subject, topic}]; ok {
		return model.NewQuestion(subject, topic, difficulty, entry.question, entry.answer, entry.steps, model.SourceTemplate)
	}

	return model.NewQuestion(
		subject, topic, difficulty,
		fmt.Sprintf(`Sample %s question on %s`, subject, topic),
		`x = 1`,
		[]model.SolutionStep{{StepNumber: 1, Description: "Solution step", ExpressionLatex: `x = 1`}},
		model.SourceTemplate,
	)
}
