package gemini

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiClient определяет интерфейс для работы с Gemini API.
// Это позволяет легко создавать моки для тестирования.
type GeminiClient interface {
	GenerateText(ctx context.Context, model string, prompt string) (string, error)
}

// Client инкапсулирует работу с Gemini API через официальный SDK.
type Client struct {
	client *genai.Client
}

// Убеждаемся, что Client реализует интерфейс GeminiClient.
var _ GeminiClient = (*Client)(nil)

// NewClient создаёт новый клиент для работы с Gemini API.
// Ключ передаётся явно: его загрузка из окружения - забота конфигурации.
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{client: client}, nil
}

// failureKind — класс ошибки Gemini API. SDK не отдаёт коды структурно,
// поэтому классификация построена на тексте ошибки.
type failureKind int

const (
	// failFatal — не временная ошибка, повтор не поможет.
	failFatal failureKind = iota
	// failRPD — дневная квота запросов исчерпана, повтор бессмыслен до завтра.
	failRPD
	// failQuota — прочие превышения квоты (403 и т.п.), повтор не поможет.
	failQuota
	// failRateLimit — 429 по RPM/TPM, достаточно подождать минуту.
	failRateLimit
	// failOverloaded — 503, модель перегружена, нужна длинная пауза.
	failOverloaded
	// failTemporary — 500/502/504, обычный повтор с нарастающей задержкой.
	failTemporary
)

const (
	maxRetries      = 5
	baseDelay       = 12 * time.Second // минимум между запросами при RPM=5
	maxDelay        = 60 * time.Second
	rateLimitPause  = time.Minute
	overloadedPause = 5 * time.Minute
)

// GenerateText отправляет промпт модели и возвращает текст ответа.
// Временные сбои (429 RPM/TPM, 500/502/503/504) повторяются с паузами
// под класс ошибки; исчерпание квоты и остальные ошибки фатальны сразу.
func (c *Client) GenerateText(ctx context.Context, model string, prompt string) (string, error) {
	var lastErr error
	kind := failTemporary

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryDelay(kind, attempt)
			switch kind {
			case failOverloaded:
				log.Printf("Service unavailable (503) - waiting %v before retry (attempt %d/%d)...", delay, attempt+1, maxRetries)
			case failRateLimit:
				log.Printf("Rate limit (RPM/TPM) - waiting %v before retry (attempt %d/%d)...", delay, attempt+1, maxRetries)
			default:
				log.Printf("Retrying Gemini API request (attempt %d/%d) after %v...", attempt+1, maxRetries, delay)
			}

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
		if err == nil {
			text, textErr := result.Text()
			if textErr != nil {
				return "", fmt.Errorf("get text from result: %w", textErr)
			}
			return text, nil
		}

		lastErr = err
		kind = classifyFailure(err.Error())

		switch kind {
		case failRPD:
			log.Printf("CRITICAL: RPD quota exceeded (daily limit reached) - stopping retries: %v", err)
			return "", fmt.Errorf("gemini API RPD quota exceeded (daily limit reached): %w", err)
		case failQuota:
			return "", fmt.Errorf("gemini API quota exceeded: %w", err)
		case failRateLimit:
			log.Printf("Rate limit error (RPM/TPM) from Gemini API: %v", err)
		case failOverloaded:
			log.Printf("Service unavailable (503) from Gemini API - model overloaded: %v", err)
		case failTemporary:
			log.Printf("Temporary error from Gemini API (500/502/504): %v", err)
		default:
			return "", fmt.Errorf("generate content: %w", err)
		}
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// retryDelay подбирает паузу перед повтором под класс последней ошибки.
func retryDelay(kind failureKind, attempt int) time.Duration {
	switch kind {
	case failRateLimit:
		return rateLimitPause
	case failOverloaded:
		return overloadedPause
	default:
		delay := baseDelay * time.Duration(attempt)
		if delay > maxDelay {
			delay = maxDelay
		}
		return delay
	}
}

// classifyFailure определяет класс ошибки по её тексту. Порядок проверок
// важен: RPD распознаётся раньше прочих 429, чтобы не зациклиться на
// повторах при исчерпанной дневной квоте.
//
// Признаки RPD в 429: "limit: 20" (дневной лимит бесплатного тарифа) или
// метрика "generate_content_free_tier_requests".
func classifyFailure(errStr string) failureKind {
	s := strings.ToLower(errStr)

	is429 := strings.Contains(s, "429")
	if is429 && (strings.Contains(s, "limit: 20") || strings.Contains(s, "generate_content_free_tier_requests")) {
		return failRPD
	}
	if is429 || strings.Contains(s, "rate limit") ||
		strings.Contains(s, "too many requests") || strings.Contains(s, "resource exhausted") {
		return failRateLimit
	}
	if strings.Contains(s, "503") || strings.Contains(s, "service unavailable") || strings.Contains(s, "overloaded") {
		return failOverloaded
	}
	if strings.Contains(s, "500") || strings.Contains(s, "502") || strings.Contains(s, "504") ||
		strings.Contains(s, "internal server error") || strings.Contains(s, "bad gateway") ||
		strings.Contains(s, "gateway timeout") {
		return failTemporary
	}
	if strings.Contains(s, "quota") || strings.Contains(s, "daily limit") || strings.Contains(s, "403") {
		return failQuota
	}
	return failFatal
}
