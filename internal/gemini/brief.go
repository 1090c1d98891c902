package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/maine/trendwatch_bot/internal/config"
	"github.com/maine/trendwatch_bot/internal/news"
)

const (
	// defaultBriefGroups - сколько ведущих групп попадает в промпт
	defaultBriefGroups = 5
	// maxSampleTitles - сколько примеров заголовков даём на группу
	maxSampleTitles = 3
	// defaultModel - модель по умолчанию, если конфиг молчит
	defaultModel = "gemini-2.5-flash"
)

// Briefer строит короткую аналитическую сводку по готовому отчёту:
// ведущие группы с примерами заголовков уходят в промпт, ответ модели
// добавляется к отчёту как есть.
type Briefer struct {
	client GeminiClient
	cfg    config.Gemini
	groups int
}

// NewBriefer создаёт генератор сводок.
func NewBriefer(client GeminiClient, cfg config.Gemini) *Briefer {
	groups := cfg.BriefGroups
	if groups <= 0 {
		groups = defaultBriefGroups
	}
	return &Briefer{
		client: client,
		cfg:    cfg,
		groups: groups,
	}
}

// Brief возвращает текст сводки по ведущим группам отчёта.
// Для отчёта без групп с заголовками сводка не запрашивается.
func (b *Briefer) Brief(ctx context.Context, payload news.ReportPayload) (string, error) {
	top := topGroups(payload.Stats, b.groups)
	if len(top) == 0 {
		return "", nil
	}

	model := b.cfg.Model
	if model == "" {
		model = defaultModel
	}

	text, err := b.client.GenerateText(ctx, model, buildBriefPrompt(top, payload.TotalNewCount))
	if err != nil {
		return "", fmt.Errorf("generate brief: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// topGroups отбирает первые limit групп с непустыми заголовками,
// сохраняя порядок отчёта (он уже отсортирован по весу).
func topGroups(stats []news.StatEntry, limit int) []news.StatEntry {
	top := make([]news.StatEntry, 0, limit)
	for _, stat := range stats {
		if len(stat.Titles) == 0 {
			continue
		}
		top = append(top, stat)
		if len(top) == limit {
			break
		}
	}
	return top
}

// buildBriefPrompt собирает промпт: по строке на группу, под ней примеры заголовков.
func buildBriefPrompt(top []news.StatEntry, newCount int) string {
	var sb strings.Builder

	sb.WriteString("Ты ведёшь мониторинг новостных трендов. Ниже группы ключевых слов за день с числом упоминаний и примерами заголовков.\n")
	sb.WriteString("Напиши короткую сводку (3-5 предложений) на русском: какие темы доминируют и что в них происходит. Без списков, только связный текст.\n\n")

	for i, stat := range top {
		sb.WriteString(fmt.Sprintf("%d. %s — %d упоминаний\n", i+1, stat.Word, stat.Count))
		for j, title := range stat.Titles {
			if j == maxSampleTitles {
				break
			}
			sb.WriteString(fmt.Sprintf("   - %s\n", title.Title))
		}
	}

	if newCount > 0 {
		sb.WriteString(fmt.Sprintf("\nНовых заголовков за день: %d\n", newCount))
	}

	return sb.String()
}
