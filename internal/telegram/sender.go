package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

const (
	// telegramRateLimitPerSecond - лимит Telegram Bot API: 30 сообщений в секунду
	telegramRateLimitPerSecond = 30
	// retryAttempts - количество попыток отправки при ошибке
	retryAttempts = 3
	// retryDelay - задержка между попытками
	retryDelay = 2 * time.Second
	// rateLimitDelay - минимальная задержка между сообщениями для соблюдения rate limit
	rateLimitDelay = time.Second / telegramRateLimitPerSecond // ~33ms между сообщениями
)

// Sender рассылает сообщения дайджеста по настроенным чатам.
type Sender struct {
	client TelegramClient
	delay  time.Duration
}

// NewSender создаёт отправителя. delaySeconds задаёт паузу между
// сообщениями; при нуле действует минимальная задержка rate limit.
func NewSender(client TelegramClient, delaySeconds int) *Sender {
	delay := rateLimitDelay
	if delaySeconds > 0 {
		delay = time.Duration(delaySeconds) * time.Second
	}
	return &Sender{
		client: client,
		delay:  delay,
	}
}

// Send отправляет каждое сообщение в каждый чат с учётом rate limits и
// retry-логики. Ошибка одного чата логируется и не прерывает рассылку
// остальным.
func (s *Sender) Send(ctx context.Context, chatIDs []string, messages []string) error {
	if len(chatIDs) == 0 {
		return fmt.Errorf("no chat ids provided")
	}
	if len(messages) == 0 {
		return fmt.Errorf("no messages to send")
	}

	totalMessages := len(chatIDs) * len(messages)
	log.Printf("Sending %d messages to %d chats (total: %d messages)", len(messages), len(chatIDs), totalMessages)

	sentCount := 0
	var lastSentTime time.Time

	for _, chatID := range chatIDs {
		for _, message := range messages {
			// Пауза между отправками; перед первым сообщением не ждём
			if !lastSentTime.IsZero() {
				elapsed := time.Since(lastSentTime)
				if elapsed < s.delay {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(s.delay - elapsed):
					}
				}
			}

			err := s.sendWithRetry(ctx, chatID, message)
			lastSentTime = time.Now()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// Логируем ошибку, но продолжаем отправку в остальные чаты
				log.Printf("Failed to send message to chat %s after %d attempts: %v", chatID, retryAttempts, err)
				continue
			}

			sentCount++
		}
	}

	log.Printf("Successfully sent %d/%d messages", sentCount, totalMessages)
	return nil
}

// sendWithRetry отправляет сообщение с повторными попытками при ошибках.
func (s *Sender) sendWithRetry(ctx context.Context, chatID string, message string) error {
	var lastErr error

	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			// Задержка перед повтором (экспоненциальная с максимумом)
			delay := retryDelay * time.Duration(attempt)
			if delay > 10*time.Second {
				delay = 10 * time.Second
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := s.client.SendMessage(ctx, chatID, message, "Markdown")
		if err == nil {
			return nil
		}

		lastErr = err

		// Для некоторых ошибок (чат не найден, бот заблокирован) повтор не поможет
		if !isRetryableError(err) {
			return err
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isRetryableError определяет, можно ли повторить отправку при данной ошибке.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()

	// Ошибки, при которых повтор не поможет
	nonRetryableErrors := []string{
		"chat not found",
		"bot was blocked",
		"user is deactivated",
		"chat_id is empty",
		"message is too long",
		"bad request",
	}

	for _, nonRetryable := range nonRetryableErrors {
		if containsIgnoreCase(errStr, nonRetryable) {
			return false
		}
	}

	// По умолчанию считаем ошибку повторяемой (сетевые сбои, временные проблемы API)
	return true
}

// containsIgnoreCase проверяет, содержит ли строка подстроку (без учёта регистра).
func containsIgnoreCase(s, substr string) bool {
	s = strings.ToLower(s)
	substr = strings.ToLower(substr)
	return strings.Contains(s, substr)
}
