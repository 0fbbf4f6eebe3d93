package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"ib_quiz_backend/internal/model"
)

// 生成内容规整管线：模型输出不可信（markdown包裹、夹杂说明文字、
// LaTeX反斜杠转义不规范），逐段净化后按严格schema解码，失败时带
// 有限长度的片段诊断，绝不回传完整原文

// NormalizeErrorKind 规整失败的具体类别，便于调用方区分
// “服务不可用”和“服务返回了垃圾”
type NormalizeErrorKind int

const (
	// NormalizeErrNoSpan 文本中找不到JSON起始分隔符
	NormalizeErrNoSpan NormalizeErrorKind = iota + 1
	// NormalizeErrUnterminated 找到了起始分隔符但配平失败（疑似截断），不猜测补全
	NormalizeErrUnterminated
	// NormalizeErrDecode JSON语法无法解码
	NormalizeErrDecode
	// NormalizeErrBadShape 字段类型与schema不符
	NormalizeErrBadShape
	// NormalizeErrMissingField 必填字段缺失
	NormalizeErrMissingField
)

// NormalizeError 规整失败，Fragment 是出错片段的有界摘录
type NormalizeError struct {
	Kind     NormalizeErrorKind
	Field    string
	Fragment string
	Err      error
}

func (e *NormalizeError) Error() string {
	switch e.Kind {
	case NormalizeErrNoSpan:
		return fmt.Sprintf("no JSON span found in generator output: %q", e.Fragment)
	case NormalizeErrUnterminated:
		return fmt.Sprintf("unterminated JSON span in generator output: %q", e.Fragment)
	case NormalizeErrMissingField:
		return fmt.Sprintf("generator output missing field %q: %q", e.Field, e.Fragment)
	case NormalizeErrBadShape:
		return fmt.Sprintf("generator output has wrong shape: %v: %q", e.Err, e.Fragment)
	default:
		return fmt.Sprintf("failed to decode generator output: %v: %q", e.Err, e.Fragment)
	}
}

func (e *NormalizeError) Unwrap() error {
	return e.Err
}

const fragmentLimit = 200

// excerpt 截取诊断片段，避免错误体无界膨胀
func excerpt(s string) string {
	runes := []rune(s)
	if len(runes) <= fragmentLimit {
		return s
	}
	return string(runes[:fragmentLimit])
}

// StripFences 去掉markdown代码围栏（可带语言标签），非围栏文本原样返回
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if strings.HasPrefix(text, "```json") {
		text = text[len("```json"):]
	} else {
		text = text[len("```"):]
	}
	text = strings.TrimLeft(text, "\n")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// extractSpan 从首个open起深度计数，返回配平的子串
func extractSpan(text string, open, close rune) (string, error) {
	start := strings.IndexRune(text, open)
	if start < 0 {
		return "", &NormalizeError{Kind: NormalizeErrNoSpan, Fragment: excerpt(text)}
	}

	depth := 0
	for i, c := range text[start:] {
		switch c {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : start+i+1], nil
			}
		}
	}
	return "", &NormalizeError{Kind: NormalizeErrUnterminated, Fragment: excerpt(text[start:])}
}

// ExtractJSONObject 提取首个配平的JSON对象
func ExtractJSONObject(text string) (string, error) {
	return extractSpan(text, '{', '}')
}

// ExtractJSONArray 提取首个配平的JSON数组
func ExtractJSONArray(text string) (string, error) {
	return extractSpan(text, '[', ']')
}

// latexCommands 转义修复允许名单，顺序与替换语义绑定，勿随意重排
var latexCommands = []string{
	"frac", "sqrt", "sum", "prod", "int", "lim", "infty", "partial",
	"alpha", "beta", "gamma", "delta", "epsilon", "theta", "lambda", "mu",
	"pi", "sigma", "omega", "phi", "psi", "rho", "tau", "nu", "xi", "zeta",
	"cdot", "times", "div", "pm", "mp", "leq", "geq", "neq", "approx",
	"in", "notin", "subset", "supset", "cup", "cap", "forall", "exists",
	"rightarrow", "leftarrow", "Rightarrow", "Leftarrow", "implies",
	"sin", "cos", "tan", "cot", "sec", "csc", "ln", "log", "exp",
	"mathbb", "mathbf", "mathrm", "text", "left", "right", "Big", "big",
	"begin", "end", "quad", "qquad", "hspace", "vspace", "newline",
	",", ";", "!", ":", " ", // LaTeX间距命令
}

// RepairLatexEscapes 把JSON字符串里的单反斜杠LaTeX命令改写为双反斜杠
// 已正确转义的不再二次转义，对规范输入幂等
func RepairLatexEscapes(s string) string {
	result := s
	for _, cmd := range latexCommands {
		single := `\` + cmd
		double := `\\` + cmd
		placeholder := "__ESCAPED_" + cmd + "__"
		result = strings.ReplaceAll(result, double, placeholder)
		result = strings.ReplaceAll(result, single, double)
		result = strings.ReplaceAll(result, placeholder, double)
	}
	return result
}

// generatedQuestion 生成端返回的题目schema，指针字段用于缺失检测
type generatedQuestion struct {
	Question      *string         `json:"question"`
	Answer        *string         `json:"answer"`
	SolutionSteps []generatedStep `json:"solution_steps"`
	Hints         []string        `json:"hints"`
}

type generatedStep struct {
	Step        int    `json:"step"`
	Description string `json:"description"`
	Expression  string `json:"expression"`
}

func decodeGenerated(span string) (*generatedQuestion, error) {
	var gen generatedQuestion
	if err := json.Unmarshal([]byte(span), &gen); err != nil {
		kind := NormalizeErrDecode
		if _, ok := err.(*json.UnmarshalTypeError); ok {
			kind = NormalizeErrBadShape
		}
		return nil, &NormalizeError{Kind: kind, Fragment: excerpt(span), Err: err}
	}

	switch {
	case gen.Question == nil:
		return nil, &NormalizeError{Kind: NormalizeErrMissingField, Field: "question", Fragment: excerpt(span)}
	case gen.Answer == nil:
		return nil, &NormalizeError{Kind: NormalizeErrMissingField, Field: "answer", Fragment: excerpt(span)}
	case gen.SolutionSteps == nil:
		return nil, &NormalizeError{Kind: NormalizeErrMissingField, Field: "solution_steps", Fragment: excerpt(span)}
	}
	return &gen, nil
}

// buildQuestion 把解码结果映射为领域题目：新ID、请求的分类、来源generated
// 多part结构由生成端自行编码为独立记录，规整器不做推断
func buildQuestion(gen *generatedQuestion, subject, topic string, difficulty int) *model.Question {
	steps := make([]model.SolutionStep, 0, len(gen.SolutionSteps))
	for _, s := range gen.SolutionSteps {
		steps = append(steps, model.SolutionStep{
			StepNumber:      s.Step,
			Description:     s.Description,
			ExpressionLatex: s.Expression,
		})
	}

	q := model.NewQuestion(subject, topic, difficulty, *gen.Question, *gen.Answer, steps, model.SourceGenerated)
	if len(gen.Hints) > 0 {
		if raw, err := json.Marshal(gen.Hints); err == nil {
			q.Hints = raw
		}
	}
	return q
}

// NormalizeQuestion 完整管线：围栏剥离 → 配平提取 → 转义修复 → 严格解码 → 领域构造
func NormalizeQuestion(raw, subject, topic string, difficulty int) (*model.Question, error) {
	stripped := StripFences(raw)
	span, err := ExtractJSONObject(stripped)
	if err != nil {
		return nil, err
	}

	gen, err := decodeGenerated(RepairLatexEscapes(span))
	if err != nil {
		return nil, err
	}
	return buildQuestion(gen, subject, topic, difficulty), nil
}

// NormalizeQuestions 批量变体，数组span内逐项应用相同规则
func NormalizeQuestions(raw, subject, topic string, difficulty int) ([]*model.Question, error) {
	stripped := StripFences(raw)
	span, err := ExtractJSONArray(stripped)
	if err != nil {
		return nil, err
	}
	repaired := RepairLatexEscapes(span)

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(repaired), &items); err != nil {
		return nil, &NormalizeError{Kind: NormalizeErrDecode, Fragment: excerpt(repaired), Err: err}
	}

	questions := make([]*model.Question, 0, len(items))
	for _, item := range items {
		gen, err := decodeGenerated(string(item))
		if err != nil {
			return nil, err
		}
		questions = append(questions, buildQuestion(gen, subject, topic, difficulty))
	}
	return questions, nil
}

// gradingResult 判分服务返回的schema
type gradingResult struct {
	IsCorrect bool    `json:"is_correct"`
	Reasoning *string `json:"reasoning"`
}

// NormalizeGrading 复用JSON提取逻辑解析判分结果
// 解码失败时退而扫描is_correct字面量，判分路径不因格式问题硬失败
func NormalizeGrading(raw string) (bool, error) {
	stripped := StripFences(raw)
	span, err := ExtractJSONObject(stripped)
	if err != nil {
		return false, err
	}

	var result gradingResult
	if err := json.Unmarshal([]byte(span), &result); err != nil {
		lower := strings.ToLower(span)
		return strings.Contains(lower, `"is_correct": true`) || strings.Contains(lower, `"is_correct":true`), nil
	}
	return result.IsCorrect, nil
}
