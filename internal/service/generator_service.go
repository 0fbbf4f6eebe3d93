package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"ib_quiz_backend/internal/config"
	"ib_quiz_backend/internal/model"
	"ib_quiz_backend/internal/util"
)

// GeneratorService 生成式模型客户端（OpenAI兼容chat接口）
// 凭证通过构造函数注入并支持热更新，核心逻辑不读任何全局状态
type GeneratorService struct {
	mu      sync.RWMutex
	cfg     config.AIConfig
	client  *http.Client
	prompts *PromptService
}

func NewGeneratorService(cfg config.AIConfig, prompts *PromptService) *GeneratorService {
	return &GeneratorService{
		cfg:     cfg,
		client:  &http.Client{Timeout: 60 * time.Second},
		prompts: prompts,
	}
}

// UpdateConfig 配置热重载入口（configwatcher回调）
func (s *GeneratorService) UpdateConfig(cfg config.AIConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// Configured 凭证是否就位，未配置时上层走模板回退
func (s *GeneratorService) Configured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.APIKey != ""
}

func (s *GeneratorService) snapshot() config.AIConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string 或 []contentPart（视觉输入）
}

type contentPart struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	ImageURL *imageURLValue `json:"image_url,omitempty"`
}

type imageURLValue struct {
	URL string `json:"url"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// chat 同步调用chat接口并返回首个choice的文本
func (s *GeneratorService) chat(ctx context.Context, modelName string, messages []chatMessage, temperature float64, maxTokens int) (string, error) {
	cfg := s.snapshot()

	reqBody := chatCompletionRequest{
		Model:       modelName,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("AI API error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("AI returned no choices")
	}

	return result.Choices[0].Message.Content, nil
}

const questionSystemPrompt = "You are a JSON API for generating IB exam questions. " +
	"Return ONLY valid JSON. No markdown, no code fences, no explanations. " +
	"Multi-part questions (a), (b), (c) are allowed and encouraged for authentic IB style."

func (s *GeneratorService) generationVars(subject, topic string, difficulty int, paperType string) map[string]string {
	if paperType == "" {
		paperType = "paper1"
	}
	return map[string]string{
		"subject":            subject,
		"topic":              topic,
		"difficulty":         strconv.Itoa(difficulty),
		"paper_type":         paperType,
		"paper_instructions": PaperInstructions(paperType),
	}
}

// GenerateQuestion 请求一道题并走规整管线，失败归类为外部服务错误
func (s *GeneratorService) GenerateQuestion(ctx context.Context, subject, topic string, difficulty int, paperType string) (*model.Question, error) {
	prompt := s.prompts.LoadAndRender("question_generation", subject, s.generationVars(subject, topic, difficulty, paperType))

	text, err := s.chat(ctx, s.snapshot().Model, []chatMessage{
		{Role: "system", Content: questionSystemPrompt},
		{Role: "user", Content: prompt},
	}, 0.4, 8192)
	if err != nil {
		return nil, util.ExternalServiceErr("question generation failed", err)
	}

	question, err := NormalizeQuestion(text, subject, topic, difficulty)
	if err != nil {
		return nil, util.ExternalServiceErr("generator returned unusable content", err)
	}
	return question, nil
}

// GenerateQuestions 单次调用生成count道题（数组span）
func (s *GeneratorService) GenerateQuestions(ctx context.Context, subject, topic string, difficulty int, paperType string, count int) ([]*model.Question, error) {
	vars := s.generationVars(subject, topic, difficulty, paperType)
	vars["count"] = strconv.Itoa(count)
	prompt := s.prompts.LoadAndRender("question_generation", subject, vars)

	text, err := s.chat(ctx, s.snapshot().Model, []chatMessage{
		{Role: "system", Content: "You are a JSON API for generating IB exam questions. " +
			"Return ONLY a valid JSON array. No markdown, no code fences, no explanations. " +
			"Each question should test a different aspect of the topic."},
		{Role: "user", Content: prompt},
	}, 0.5, 16384)
	if err != nil {
		return nil, util.ExternalServiceErr("question generation failed", err)
	}

	questions, err := NormalizeQuestions(text, subject, topic, difficulty)
	if err != nil {
		return nil, util.ExternalServiceErr("generator returned unusable content", err)
	}
	return questions, nil
}

// GradeAnswer LLM判分，输出经规整管线提取
func (s *GeneratorService) GradeAnswer(ctx context.Context, questionLatex, userAnswer, correctAnswer string) (bool, error) {
	prompt := fmt.Sprintf(`You are grading a math answer. Determine if the student's answer is mathematically equivalent to the correct answer.

Question: %s

Student's answer: %s

Correct answer: %s

Consider:
- Different but equivalent forms (e.g., 1/2 = 0.5, x^2 - 1 = (x-1)(x+1))
- Simplified vs unsimplified forms
- Different notation for the same value
- Minor formatting differences in LaTeX

Return ONLY a JSON object with this format:
{"is_correct": true/false, "reasoning": "brief explanation"}

No markdown, no code fences, just the JSON object.`, questionLatex, userAnswer, correctAnswer)

	text, err := s.chat(ctx, s.snapshot().GradingModel, []chatMessage{
		{Role: "system", Content: "You are a math grading assistant. Return only valid JSON with is_correct boolean and brief reasoning."},
		{Role: "user", Content: prompt},
	}, 0.1, 0)
	if err != nil {
		return false, util.ExternalServiceErr("grading service failed", err)
	}

	return NormalizeGrading(text)
}

// OCRImage 手写数学表达式识别，输入data URL或裸base64
func (s *GeneratorService) OCRImage(ctx context.Context, imageBase64 string) (string, error) {
	contentType := "image/png"
	if strings.HasPrefix(imageBase64, "data:image/jpeg") {
		contentType = "image/jpeg"
	} else if strings.HasPrefix(imageBase64, "data:image/webp") {
		contentType = "image/webp"
	}

	data := imageBase64
	if pos := strings.Index(imageBase64, ","); pos >= 0 {
		data = imageBase64[pos+1:]
	}

	text, err := s.chat(ctx, s.snapshot().Model, []chatMessage{
		{Role: "system", Content: "You are a LaTeX OCR system. Extract mathematical expressions from handwritten " +
			"images and return them as valid LaTeX. Return ONLY the LaTeX code with no " +
			"explanations, markdown formatting, or code fences. If there are multiple " +
			"expressions, separate them with newlines."},
		{Role: "user", Content: []contentPart{
			{Type: "text", Text: "Extract the mathematical expression from this handwritten image as LaTeX:"},
			{Type: "image_url", ImageURL: &imageURLValue{URL: "data:" + contentType + ";base64," + data}},
		}},
	}, 0.1, 0)
	if err != nil {
		return "", util.ExternalServiceErr("OCR failed", err)
	}

	return strings.TrimSpace(text), nil
}
