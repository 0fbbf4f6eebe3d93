package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ib_quiz_backend/internal/model"
	"ib_quiz_backend/internal/util"
)

// SolverService 符号求解sidecar（Python/SymPy）的HTTP客户端
// 作为答案等价检查的强后端预留，同一套接口可替换启发式比较

type SolveRequest struct {
	ExpressionLatex string  `json:"expression_latex" binding:"required"`
	Subject         *string `json:"subject"`
	SolveFor        *string `json:"solve_for"`
	Operation       *string `json:"operation"`
}

type SolveResponse struct {
	Success     bool                 `json:"success"`
	AnswerLatex string               `json:"answer_latex"`
	Steps       []model.SolutionStep `json:"steps"`
	Error       *string              `json:"error"`
}

// solverRequest sidecar的请求体
type solverRequest struct {
	ExpressionLatex string  `json:"expression_latex"`
	Subject         string  `json:"subject"`
	SolveFor        *string `json:"solve_for"`
	ShowSteps       bool    `json:"show_steps"`
	Operation       string  `json:"operation"`
}

type SolverService struct {
	baseURL string
	client  *http.Client
}

func NewSolverService(baseURL string) *SolverService {
	return &SolverService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SolverService) Configured() bool {
	return s.baseURL != ""
}

// Solve 调用sidecar的/solve接口
func (s *SolverService) Solve(ctx context.Context, req SolveRequest) (*SolveResponse, error) {
	if !s.Configured() {
		return nil, util.InternalErr("solver service not configured")
	}

	subject := "math"
	if req.Subject != nil {
		subject = *req.Subject
	}
	operation := "solve"
	if req.Operation != nil {
		operation = *req.Operation
	}

	body, err := json.Marshal(solverRequest{
		ExpressionLatex: req.ExpressionLatex,
		Subject:         subject,
		SolveFor:        req.SolveFor,
		ShowSteps:       true,
		Operation:       operation,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/solve", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, util.ExternalServiceErr("solver service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, util.ExternalServiceErr(fmt.Sprintf("solver service returned %d", resp.StatusCode), nil)
	}

	var result SolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, util.ExternalServiceErr("invalid solver response", err)
	}
	return &result, nil
}
