package config

import (
	"fmt"
	"os"
)

// EnvConfig содержит токены и другие переменные окружения.
type EnvConfig struct {
	TelegramBotToken string
	GeminiAPIKey     string
	ReportMode       string // REPORT_MODE переопределяет report.mode из конфига
	ForceDispatch    bool   // Отправить дайджест, даже если новых заголовков нет
	SkipGemini       bool   // Пропустить сводку Gemini (отчёт без вступления)
	SkipTelegram     bool   // Собрать отчёт без отправки в Telegram
}

// LoadEnvConfig читает переменные окружения и возвращает конфигурацию.
// Возвращает ошибку, если обязательные переменные отсутствуют или пустые.
func LoadEnvConfig() (*EnvConfig, error) {
	skipGemini := os.Getenv("SKIP_GEMINI") == "1"
	skipTelegram := os.Getenv("SKIP_TELEGRAM") == "1"

	// TELEGRAM_BOT_TOKEN обязателен только когда отчёт действительно отправляется
	tgToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	if !skipTelegram && tgToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is required (or set SKIP_TELEGRAM=1)")
	}

	// GEMINI_API_KEY обязателен только если сводка не пропускается
	geminiKey := os.Getenv("GEMINI_API_KEY")
	if !skipGemini && geminiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required (or set SKIP_GEMINI=1)")
	}

	return &EnvConfig{
		TelegramBotToken: tgToken,
		GeminiAPIKey:     geminiKey,
		ReportMode:       os.Getenv("REPORT_MODE"),
		ForceDispatch:    os.Getenv("FORCE_DISPATCH") == "1",
		SkipGemini:       skipGemini,
		SkipTelegram:     skipTelegram,
	}, nil
}
