package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"google.golang.org/genai"

	"github.com/yunhanz/storymap-api/internal/config"
	"github.com/yunhanz/storymap-api/internal/generation"
)

// Prompt template file names resolved against config.LLMConfig.PromptDir.
const (
	biographySystemFile = "biography_system.md"
	biographyUserFile   = "biography_user.tmpl"
	extractFiguresFile  = "extract_figures.tmpl"
)

// Generator implements generation.Generator and generation.ChatModel using
// Google's Gemini API.
type Generator struct {
	logger *slog.Logger
	config config.LLMConfig
	client *genai.Client
	model  string

	biographySystem string
	biographyUser   *template.Template
	extractFigures  *template.Template
}

// NewGenerator creates a Generator from the LLM configuration. It validates
// the configuration, loads the prompt templates from the prompt directory and
// initializes the Gemini client.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.PromptDir == "" {
		return nil, fmt.Errorf("%w: prompt directory cannot be empty", generation.ErrInvalidConfig)
	}

	systemPrompt, err := os.ReadFile(filepath.Join(cfg.PromptDir, biographySystemFile))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read system prompt: %v", generation.ErrInvalidConfig, err)
	}

	userTmpl, err := loadTemplate(cfg.PromptDir, biographyUserFile)
	if err != nil {
		return nil, err
	}
	extractTmpl, err := loadTemplate(cfg.PromptDir, extractFiguresFile)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &Generator{
		logger:          logger,
		config:          cfg,
		client:          client,
		model:           cfg.ModelName,
		biographySystem: string(systemPrompt),
		biographyUser:   userTmpl,
		extractFigures:  extractTmpl,
	}, nil
}

func loadTemplate(dir, name string) (*template.Template, error) {
	content, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read prompt template %s: %v",
			generation.ErrInvalidConfig, name, err)
	}
	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template %s: %v",
			generation.ErrInvalidConfig, name, err)
	}
	return tmpl, nil
}

// GenerateBiography produces the structured biography markdown for one person.
func (g *Generator) GenerateBiography(ctx context.Context, person string) (string, error) {
	if strings.TrimSpace(person) == "" {
		return "", fmt.Errorf("%w: person name cannot be empty", generation.ErrInvalidConfig)
	}

	var buf bytes.Buffer
	if err := g.biographyUser.Execute(&buf, struct{ Person string }{Person: person}); err != nil {
		return "", fmt.Errorf("failed to execute biography prompt template: %w", err)
	}

	events := generation.EventsFromContext(ctx)
	events(fmt.Sprintf("请求模型生成生平：%s", person))

	text, err := g.callWithRetry(ctx, g.biographySystem, buf.String())
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: biography for %s", generation.ErrGenerationEmpty, person)
	}

	events(fmt.Sprintf("生平生成完成：%s（%d 字符）", person, len([]rune(text))))
	return text, nil
}

// ExtractFigures asks the model to identify historical figure names in the
// input text. The response is expected to be a JSON array of strings, possibly
// wrapped in prose or code fences.
func (g *Generator) ExtractFigures(ctx context.Context, text string) ([]string, error) {
	var buf bytes.Buffer
	if err := g.extractFigures.Execute(&buf, struct{ Text string }{Text: text}); err != nil {
		return nil, fmt.Errorf("failed to execute extraction prompt template: %w", err)
	}

	events := generation.EventsFromContext(ctx)
	events("请求模型识别输入中的历史人物")

	raw, err := g.callWithRetry(ctx, "", buf.String())
	if err != nil {
		return nil, err
	}

	block, ok := generation.ExtractJSONBlock(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON array in extraction response", generation.ErrInvalidResponse)
	}

	var names []string
	if err := json.Unmarshal([]byte(block), &names); err != nil {
		return nil, fmt.Errorf("%w: failed to parse extraction response: %v",
			generation.ErrInvalidResponse, err)
	}

	// Deduplicate while preserving order of first appearance.
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	events(fmt.Sprintf("人物识别完成：%d 人", len(out)))
	return out, nil
}

// Chat sends one system+user prompt pair and returns the raw completion. It
// backs the place-name splitter, which manages its own prompt contract.
func (g *Generator) Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return "", fmt.Errorf("%w: user prompt cannot be empty", generation.ErrInvalidConfig)
	}
	return g.callWithRetry(ctx, systemPrompt, userPrompt)
}

// callWithRetry makes a Gemini API call with exponential backoff retry logic.
//
// Transient errors (network failures, rate limits, server errors) are retried
// up to MaxRetries times with exponential backoff and jitter. Permanent errors
// such as safety blocks are returned immediately.
func (g *Generator) callWithRetry(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	maxRetries := g.config.MaxRetries
	baseDelaySeconds := g.config.RetryDelaySeconds
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if maxRetries < 0 {
		g.logger.WarnContext(ctx, "invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}
	if baseDelaySeconds < 1 {
		g.logger.WarnContext(ctx, "invalid retry delay value, using default", "base_delay_seconds", 2)
		baseDelaySeconds = 2
	}

	genCfg := &genai.GenerateContentConfig{}
	if systemPrompt != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	if g.config.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(g.config.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	events := generation.EventsFromContext(ctx)

	for attempt := 0; ; attempt++ {
		attemptNum := attempt + 1
		g.logger.InfoContext(ctx, "making Gemini API call",
			"model", g.model,
			"attempt", attemptNum,
			"max_attempts", maxRetries+1)

		text, transient, err := g.generateOnce(ctx, userPrompt, genCfg)
		if err == nil {
			return text, nil
		}

		g.logger.ErrorContext(ctx, "Gemini API call failed",
			"attempt", attemptNum,
			"error", err)

		if !transient {
			return "", err
		}
		if attempt >= maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				generation.ErrTransientFailure, maxRetries, err)
		}

		// delay = baseDelay * (2^attempt) * (0.5 + rand(0, 0.5))
		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoffSeconds * (0.5 + rng.Float64()*0.5) * float64(time.Second))

		events(fmt.Sprintf("模型调用失败，%.1f 秒后重试（第 %d 次）", delay.Seconds(), attemptNum))
		g.logger.InfoContext(ctx, "retrying after delay",
			"attempt", attemptNum,
			"delay", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}
}

// generateOnce performs a single GenerateContent call. The second return value
// reports whether a failure may be retried.
func (g *Generator) generateOnce(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, bool, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.Code {
			case 429, 500, 502, 503, 504:
				return "", true, fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
			default:
				return "", false, fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
			}
		}
		// Network-level errors are assumed transient.
		return "", true, fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", false, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", false, fmt.Errorf("%w: finish reason safety", generation.ErrContentBlocked)
	}
	return resp.Text(), false, nil
}
