package service

import (
	"os"
	"path/filepath"
	"strings"

	"ib_quiz_backend/pkg/logger"

	"go.uber.org/zap"
)

const defaultGenerationPrompt = `Generate an IB Higher Level {{subject}} exam-style question on the topic of {{topic}}.

Requirements:
- Question must match the style and rigor of actual IB HL exams
- Target difficulty: {{difficulty}} on a 1-5 scale
- {{paper_instructions}}
- Include numerical values where appropriate
- Question should be solvable analytically
- Use proper LaTeX notation for all mathematical expressions

The solution_steps field is required because the app displays step-by-step worked solutions to help students learn the problem-solving process, similar to IB mark schemes.

Return ONLY valid JSON in this exact format (no markdown, no code blocks):
{
  "question": "LaTeX code for the question",
  "answer": "LaTeX code for the final answer",
  "solution_steps": [
    {"step": 1, "description": "First step description", "expression": "LaTeX expression"},
    {"step": 2, "description": "Second step description", "expression": "LaTeX expression"}
  ],
  "hints": ["hint1", "hint2"]
}`

// paperInstructions 各paper类型的出题风格约束
var paperInstructions = map[string]string{
	"paper1": "Paper 1 style: NO CALCULATOR. Use exact values only (fractions, surds, π, e). Focus on algebraic manipulation, factorization, simplification, and proofs. Include 'show that' steps. Penalize decimal approximations.",
	"paper2": "Paper 2 style: CALCULATOR ALLOWED. Use real-world context (motion, growth, economics, optimization). Include numerical solving, graph interpretation, statistics. Ask for interpretation of results and model assumptions.",
	"paper3": "Paper 3 style: HL Investigation. CALCULATOR ALLOWED. Create unfamiliar problem settings with new definitions. Require multi-topic integration and deep reasoning. Use 'explore', 'investigate', 'hence deduce' language. Focus on proof and mathematical discovery.",
}

// PaperInstructions 未知paper类型回落到paper1风格
func PaperInstructions(paperType string) string {
	if instr, ok := paperInstructions[paperType]; ok {
		return instr
	}
	return paperInstructions["paper1"]
}

// PromptService 按目录加载可覆写的提示词模板，{{变量}}语法渲染
type PromptService struct {
	dir string
}

func NewPromptService(dir string) *PromptService {
	return &PromptService{dir: dir}
}

// Load 先找学科级覆写 <dir>/<subject>/<name>.txt，
// 再找默认文件 <dir>/<name>.txt，都没有用内置模板
func (s *PromptService) Load(name, subject string) string {
	if subject != "" {
		path := filepath.Join(s.dir, subject, name+".txt")
		if content, err := os.ReadFile(path); err == nil {
			logger.Log.Debug("loaded subject prompt", zap.String("path", path))
			return string(content)
		}
	}

	path := filepath.Join(s.dir, name+".txt")
	if content, err := os.ReadFile(path); err == nil {
		logger.Log.Debug("loaded default prompt", zap.String("path", path))
		return string(content)
	}

	return defaultGenerationPrompt
}

// Render 用 {{key}} 语法做变量替换
func (s *PromptService) Render(template string, vars map[string]string) string {
	result := template
	for key, value := range vars {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}

func (s *PromptService) LoadAndRender(name, subject string, vars map[string]string) string {
	return s.Render(s.Load(name, subject), vars)
}
