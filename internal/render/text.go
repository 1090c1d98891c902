package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/maine/trendwatch_bot/internal/news"
)

const (
	// telegramMaxMessageLength - максимальная длина сообщения в Telegram (4096 символов)
	telegramMaxMessageLength = 4096
	// digestHeaderTemplate - шаблон для нумерации сообщений
	digestHeaderTemplate = "Сводка трендов (%d/%d)\n\n"
	// ellipsis - символы, добавляемые при обрезке сообщения
	ellipsis = "..."
)

// DigestFormatter форматирует готовый отчёт в текстовый дайджест для
// Telegram: по блоку на группу статистики, с упаковкой блоков в
// сообщения не длиннее лимита.
type DigestFormatter struct {
	maxMessages int
}

// NewDigestFormatter создаёт форматтер дайджеста. При maxMessages <= 0
// действует ограничение в пять сообщений на запуск.
func NewDigestFormatter(maxMessages int) *DigestFormatter {
	if maxMessages <= 0 {
		maxMessages = 5
	}
	return &DigestFormatter{maxMessages: maxMessages}
}

// BuildMessages собирает блоки дайджеста и разбивает их на сообщения.
// Блок группы не разрывается, пока помещается в сообщение целиком.
func (f *DigestFormatter) BuildMessages(payload news.ReportPayload, meta Meta) []string {
	blocks := buildBlocks(payload, meta)
	if len(blocks) == 0 {
		return nil
	}
	return splitIntoMessages(blocks, f.maxMessages)
}

// buildBlocks формирует независимые текстовые блоки отчёта: шапку,
// группы по ключевым словам, дайджесты личных лент и новые заголовки.
func buildBlocks(payload news.ReportPayload, meta Meta) []string {
	var blocks []string

	if s := summaryBlock(payload, meta); s != "" {
		blocks = append(blocks, s)
	}
	for _, stat := range payload.Stats {
		blocks = append(blocks, statBlock(stat))
	}
	for _, stat := range payload.RSSStats {
		blocks = append(blocks, statBlock(stat))
	}
	for _, group := range payload.NewTitles {
		blocks = append(blocks, newTitlesBlock(group))
	}

	return blocks
}

// summaryBlock - шапка дайджеста: режим, время и итоговые счётчики.
func summaryBlock(payload news.ReportPayload, meta Meta) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("*%s* — %s\n", modeLabel(meta.Mode), meta.GeneratedAt.Format("02.01.2006 15:04")))
	sb.WriteString(fmt.Sprintf("Всего заголовков: %d", meta.TotalTitles))
	if payload.TotalNewCount > 0 {
		sb.WriteString(fmt.Sprintf(", новых: %d", payload.TotalNewCount))
	}
	if len(payload.FailedIDs) > 0 {
		sb.WriteString(fmt.Sprintf("\nНедоступные платформы: %s", strings.Join(payload.FailedIDs, ", ")))
	}

	return sb.String()
}

// statBlock форматирует одну группу статистики: заголовок группы и
// нумерованный список заголовков в Markdown.
func statBlock(stat news.StatEntry) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("*%s* (%d)", stat.Word, stat.Count))
	for i, t := range stat.Titles {
		sb.WriteString("\n")
		sb.WriteString(titleLine(i, t))
	}

	return sb.String()
}

// newTitlesBlock форматирует блок новых заголовков одного источника.
func newTitlesBlock(group news.NewTitleGroup) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Новое на «%s» (%d)", group.SourceName, len(group.Titles)))
	for i, t := range group.Titles {
		sb.WriteString("\n")
		sb.WriteString(titleLine(i, t))
	}

	return sb.String()
}

// titleLine - одна строка дайджеста: номер, ссылка и детали через запятую.
func titleLine(idx int, t news.TitleEntry) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%d. ", idx+1))
	if link := preferredLink(t); link != "" {
		sb.WriteString(fmt.Sprintf("[%s](%s)", t.Title, link))
	} else {
		sb.WriteString(t.Title)
	}

	var details []string
	if t.SourceName != "" {
		details = append(details, t.SourceName)
	}
	if len(t.Ranks) > 0 {
		details = append(details, "#"+formatRanks(t.Ranks))
	}
	if t.Count > 1 {
		details = append(details, fmt.Sprintf("×%d", t.Count))
	}
	if t.TimeDisplay != "" {
		details = append(details, t.TimeDisplay)
	}
	if t.IsNew {
		details = append(details, "новое")
	}
	if len(details) > 0 {
		sb.WriteString(" — ")
		sb.WriteString(strings.Join(details, ", "))
	}

	return sb.String()
}

// preferredLink выбирает адрес для ссылки: основной URL, иначе мобильный.
func preferredLink(t news.TitleEntry) string {
	if t.URL != "" {
		return t.URL
	}
	return t.MobileURL
}

// formatRanks выводит короткий список позиций целиком, длинный сжимает
// до диапазона "минимум-максимум".
func formatRanks(ranks []int) string {
	if len(ranks) == 0 {
		return ""
	}
	if len(ranks) <= 3 {
		parts := make([]string, 0, len(ranks))
		for _, r := range ranks {
			parts = append(parts, strconv.Itoa(r))
		}
		return strings.Join(parts, ",")
	}

	lo, hi := ranks[0], ranks[0]
	for _, r := range ranks[1:] {
		if r < lo {
			lo = r
		}
		if r > hi {
			hi = r
		}
	}
	return fmt.Sprintf("%d-%d", lo, hi)
}

// modeLabel возвращает отображаемое название режима отчёта.
func modeLabel(mode news.Mode) string {
	switch mode {
	case news.ModeIncremental:
		return "Новое за запуск"
	case news.ModeCurrent:
		return "Текущий срез"
	default:
		return "Сводка за день"
	}
}

// splitIntoMessages упаковывает блоки в сообщения, не превышая лимит
// Telegram. Построчный разрыв блока допускается только когда блок сам
// по себе не помещается в пустое сообщение.
func splitIntoMessages(blocks []string, maxMessages int) []string {
	// Резерв под заголовок нумерации
	const headerReserve = 40
	// Разделитель между блоками
	const blockSeparator = "\n\n"

	var messages []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		messages = append(messages, current.String())
		current.Reset()
	}

	for _, block := range blocks {
		if len(messages) >= maxMessages {
			break
		}

		// Негабаритный блок режем построчно, начиная с чистого сообщения
		if len(block)+headerReserve > telegramMaxMessageLength {
			flush()
			for _, line := range strings.Split(block, "\n") {
				if len(messages) >= maxMessages {
					break
				}
				if current.Len() > 0 && current.Len()+len(line)+1+headerReserve > telegramMaxMessageLength {
					flush()
				}
				if current.Len() > 0 {
					current.WriteString("\n")
				}
				current.WriteString(line)
			}
			continue
		}

		separator := 0
		if current.Len() > 0 {
			separator = len(blockSeparator)
		}
		if current.Len()+separator+len(block)+headerReserve > telegramMaxMessageLength {
			flush()
			if len(messages) >= maxMessages {
				break
			}
		}
		if current.Len() > 0 {
			current.WriteString(blockSeparator)
		}
		current.WriteString(block)
	}

	// Хвост добавляем, только если лимит сообщений ещё не выбран
	if len(messages) < maxMessages {
		flush()
	}

	if len(messages) <= 1 {
		return messages
	}

	// Нумерация частей с контролем итоговой длины
	total := len(messages)
	numbered := make([]string, 0, total)
	for i, msg := range messages {
		header := fmt.Sprintf(digestHeaderTemplate, i+1, total)
		full := header + msg
		if len(full) > telegramMaxMessageLength {
			maxContent := telegramMaxMessageLength - len(header) - len(ellipsis)
			if maxContent > 0 && len(msg) > maxContent {
				msg = msg[:maxContent] + ellipsis
			}
			full = header + msg
		}
		numbered = append(numbered, full)
	}
	return numbered
}
