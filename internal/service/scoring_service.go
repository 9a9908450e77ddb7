package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"lingua_edu_backend/internal/config"
	"lingua_edu_backend/pkg/logger"
	"lingua_edu_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// DiagnosticAnswer 诊断题单条作答，Expected 来自题库标准答案
type DiagnosticAnswer struct {
	QuestionID uint   `json:"questionId"`
	Skill      string `json:"skill"`
	Given      string `json:"given"`
	Expected   string `json:"expected"`
}

type DiagnosticScoreRequest struct {
	LearnerID uint               `json:"learnerId"`
	Bracket   string             `json:"bracket"`
	Answers   []DiagnosticAnswer `json:"answers"`
}

// DiagnosticScore 各技能得分（0~1）与评分质量指标
type DiagnosticScore struct {
	SkillScores map[string]float64 `json:"skillScores"`
	Quality     float64            `json:"quality"`
	Degraded    bool               `json:"degraded"`
}

type InterferenceFinding struct {
	Category string `json:"category"`
	Detail   string `json:"detail"`
}

type FreeTextScoreRequest struct {
	LearnerID      uint   `json:"learnerId"`
	Text           string `json:"text"`
	NativeLanguage string `json:"nativeLanguage"`
}

// FreeTextScore 自由文本分析结果：检出的母语干扰与正确用法信号
type FreeTextScore struct {
	Findings    []InterferenceFinding `json:"findings"`
	CorrectUses []InterferenceFinding `json:"correctUses"`
	Quality     float64               `json:"quality"`
	Degraded    bool                  `json:"degraded"`
}

// Scorer 评分能力接口。两个实现：外部 AI 评分器和本地确定性评分器，
// 按降级策略选择，而不是继承。
type Scorer interface {
	ScoreDiagnostic(ctx context.Context, req *DiagnosticScoreRequest) (*DiagnosticScore, error)
	ScoreFreeText(ctx context.Context, req *FreeTextScoreRequest) (*FreeTextScore, error)
}

// ScoringGateway 评分网关：单次调用外部 AI 评分服务，限时不重试；
// 超时、非 2xx 或响应无法解析时，同步走本地降级评分器并打上 degraded 标记。
// 外部依赖不可用绝不向调用方抛错。
type ScoringGateway struct {
	ai       Scorer
	fallback Scorer
	timeout  time.Duration
}

func NewScoringGateway(cfg config.AIConfig) *ScoringGateway {
	return &ScoringGateway{
		ai:       NewAIScorer(cfg),
		fallback: NewFallbackScorer(),
		timeout:  cfg.Timeout(),
	}
}

// NewScoringGatewayWith 注入评分器，测试用
func NewScoringGatewayWith(ai, fallback Scorer, timeout time.Duration) *ScoringGateway {
	return &ScoringGateway{ai: ai, fallback: fallback, timeout: timeout}
}

// ScoreDiagnostic 即使调用方放弃等待，评分也在服务端限时完成，
// 所以这里基于 Background 而不是请求上下文建超时。
func (g *ScoringGateway) ScoreDiagnostic(req *DiagnosticScoreRequest) *DiagnosticScore {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	score, err := g.ai.ScoreDiagnostic(ctx, req)
	if err == nil {
		monitoring.ScoringRequests.WithLabelValues("diagnostic", "success").Inc()
		return score
	}

	logger.Log.Warn("AI scoring degraded to fallback",
		zap.String("kind", "diagnostic"),
		zap.Uint("learnerId", req.LearnerID),
		zap.Error(err))
	monitoring.ScoringRequests.WithLabelValues("diagnostic", "fallback").Inc()

	score, _ = g.fallback.ScoreDiagnostic(ctx, req)
	score.Degraded = true
	return score
}

func (g *ScoringGateway) ScoreFreeText(req *FreeTextScoreRequest) *FreeTextScore {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	score, err := g.ai.ScoreFreeText(ctx, req)
	if err == nil {
		monitoring.ScoringRequests.WithLabelValues("free_text", "success").Inc()
		return score
	}

	logger.Log.Warn("AI scoring degraded to fallback",
		zap.String("kind", "free_text"),
		zap.Uint("learnerId", req.LearnerID),
		zap.Error(err))
	monitoring.ScoringRequests.WithLabelValues("free_text", "fallback").Inc()

	score, _ = g.fallback.ScoreFreeText(ctx, req)
	score.Degraded = true
	return score
}

// AIScorer 通过 OpenAI 兼容接口调用外部评分模型
type AIScorer struct {
	config config.AIConfig
	client *http.Client
}

func NewAIScorer(cfg config.AIConfig) *AIScorer {
	return &AIScorer{
		config: cfg,
		client: &http.Client{},
	}
}

type aiChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message aiChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (s *AIScorer) complete(ctx context.Context, system, user string) (string, error) {
	reqBody := map[string]interface{}{
		"model": s.config.Model,
		"messages": []aiChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

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

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("AI returned no choices")
	}

	return result.Choices[0].Message.Content, nil
}

const diagnosticSystemPrompt = "你是语言测评引擎。根据学习者的诊断作答，输出严格的 JSON：" +
	`{"skillScores":{"grammar":0.0,"vocabulary":0.0,"reading":0.0,"speaking":0.0,"writing":0.0},"quality":0.0}` +
	"。skillScores 只包含有作答的技能，取值 0~1；quality 表示你对评分的把握，取值 0~1。不要输出任何其他内容。"

func (s *AIScorer) ScoreDiagnostic(ctx context.Context, req *DiagnosticScoreRequest) (*DiagnosticScore, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	content, err := s.complete(ctx, diagnosticSystemPrompt, string(payload))
	if err != nil {
		return nil, err
	}

	var score DiagnosticScore
	if err := json.Unmarshal([]byte(content), &score); err != nil {
		return nil, fmt.Errorf("malformed AI diagnostic response: %v", err)
	}
	if len(score.SkillScores) == 0 {
		return nil, fmt.Errorf("AI diagnostic response missing skill scores")
	}
	return &score, nil
}

const freeTextSystemPrompt = "你是二语习得分析引擎。检测学习者文本中的母语干扰错误，输出严格的 JSON：" +
	`{"findings":[{"category":"verb-tense","detail":"missing-past-marker"}],"correctUses":[],"quality":0.0}` +
	"。findings 是检出的干扰模式，correctUses 是曾经易错但这次用对的模式。不要输出任何其他内容。"

func (s *AIScorer) ScoreFreeText(ctx context.Context, req *FreeTextScoreRequest) (*FreeTextScore, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	content, err := s.complete(ctx, freeTextSystemPrompt, string(payload))
	if err != nil {
		return nil, err
	}

	var score FreeTextScore
	if err := json.Unmarshal([]byte(content), &score); err != nil {
		return nil, fmt.Errorf("malformed AI free-text response: %v", err)
	}
	return &score, nil
}
