package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/maine/trendwatch_bot/internal/news"
	"github.com/maine/trendwatch_bot/internal/render"
	"github.com/maine/trendwatch_bot/internal/report"
	"github.com/maine/trendwatch_bot/internal/state"
)

// ErrNotConfigured возвращается, когда пайплайн запущен без обязательных зависимостей.
var ErrNotConfigured = errors.New("pipeline dependencies not configured")

// Clock определяет источник времени (удобно подменять в тестах).
type Clock func() time.Time

// HotListCollector опрашивает платформы горячих списков.
type HotListCollector interface {
	Collect(ctx context.Context) ([]news.SourceTitles, []string)
}

// FeedCollector опрашивает RSS-ленты.
type FeedCollector interface {
	Collect(ctx context.Context) []news.FeedItems
}

// Registry хранит дневной реестр заголовков.
type Registry interface {
	Load(ctx context.Context, date string) (news.DayRegistry, error)
	Save(ctx context.Context, registry news.DayRegistry) error
}

// Aggregator считает статистику групп по рулбуку.
type Aggregator interface {
	HotList(platforms []news.PlatformHistory) ([]news.StatEntry, int)
	Feeds(feeds []news.FeedItems, personalLabel string) ([]news.StatEntry, []news.StatEntry)
}

// Assembler собирает итоговый payload отчёта.
type Assembler interface {
	Assemble(in report.Input) (news.ReportPayload, error)
}

// HTMLRenderer превращает отчёт в HTML-документ.
type HTMLRenderer interface {
	Render(payload news.ReportPayload, meta render.Meta) (string, error)
}

// ReportWriter сохраняет готовый документ на диск.
type ReportWriter interface {
	Write(html string, at time.Time, mode news.Mode, isDailySummary bool) (string, error)
}

// DigestFormatter формирует сообщения дайджеста для Telegram.
type DigestFormatter interface {
	BuildMessages(payload news.ReportPayload, meta render.Meta) []string
}

// Sender рассылает сообщения по чатам.
type Sender interface {
	Send(ctx context.Context, chatIDs []string, messages []string) error
}

// Briefer строит текстовую сводку по отчёту.
type Briefer interface {
	Brief(ctx context.Context, payload news.ReportPayload) (string, error)
}

// PipelineDeps перечисляет зависимости пайплайна.
type PipelineDeps struct {
	HotLists   HotListCollector
	Feeds      FeedCollector
	Registry   Registry
	Aggregator Aggregator
	Assembler  Assembler
	Renderer   HTMLRenderer
	Writer     ReportWriter
	Formatter  DigestFormatter
	Sender     Sender
	Briefer    Briefer
	Clock      Clock

	Mode          news.Mode
	RankThreshold int
	PersonalLabel string
	ChatIDs       []string
	ForceDispatch bool
}

// Pipeline инкапсулирует один запуск мониторинга: опрос источников,
// обновление дневного реестра, сборку отчёта и его доставку.
type Pipeline struct {
	hotLists   HotListCollector
	feeds      FeedCollector
	registry   Registry
	aggregator Aggregator
	assembler  Assembler
	renderer   HTMLRenderer
	writer     ReportWriter
	formatter  DigestFormatter
	sender     Sender
	briefer    Briefer
	clock      Clock

	mode          news.Mode
	rankThreshold int
	personalLabel string
	chatIDs       []string
	forceDispatch bool
}

// NewPipeline создаёт новый экземпляр пайплайна.
// Sender и Briefer опциональны: без них соответствующие шаги пропускаются.
func NewPipeline(deps PipelineDeps) *Pipeline {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	mode := deps.Mode
	if mode == "" {
		mode = news.ModeDaily
	}
	rankThreshold := deps.RankThreshold
	if rankThreshold <= 0 {
		rankThreshold = 3 // дефолтное значение
	}
	personalLabel := deps.PersonalLabel
	if personalLabel == "" {
		personalLabel = "Личные ленты"
	}

	return &Pipeline{
		hotLists:      deps.HotLists,
		feeds:         deps.Feeds,
		registry:      deps.Registry,
		aggregator:    deps.Aggregator,
		assembler:     deps.Assembler,
		renderer:      deps.Renderer,
		writer:        deps.Writer,
		formatter:     deps.Formatter,
		sender:        deps.Sender,
		briefer:       deps.Briefer,
		clock:         clock,
		mode:          mode,
		rankThreshold: rankThreshold,
		personalLabel: personalLabel,
		chatIDs:       deps.ChatIDs,
		forceDispatch: deps.ForceDispatch,
	}
}

// Run исполняет полный цикл мониторинга.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.validateDeps(); err != nil {
		return err
	}

	now := p.clock()
	date := now.Format("2006-01-02")
	log.Printf("Report mode: %s (date %s)", p.mode, date)

	log.Println("Step 1: Collecting hot lists...")
	crawl, failedIDs := p.hotLists.Collect(ctx)
	log.Printf("Collected %d platforms (%d failed)", len(crawl), len(failedIDs))

	log.Println("Step 2: Collecting RSS feeds...")
	feeds := p.feeds.Collect(ctx)
	log.Printf("Collected %d feeds", len(feeds))

	log.Println("Step 3: Updating day registry...")
	registry, err := p.registry.Load(ctx, date)
	if err != nil {
		return fmt.Errorf("load day registry: %w", err)
	}
	registry, deltas := state.MergeCrawl(registry, crawl, now)
	if err := p.registry.Save(ctx, registry); err != nil {
		return fmt.Errorf("save day registry: %w", err)
	}
	log.Printf("Registry updated: %d platforms, %d sources with new titles", len(registry.Platforms), len(deltas))

	log.Println("Step 4: Aggregating statistics...")
	view := state.SelectView(registry, crawl, p.mode)
	stats, totalTitles := p.aggregator.HotList(view)
	keywordStats, personalStats := p.aggregator.Feeds(feeds, p.personalLabel)
	rssStats := make([]news.StatEntry, 0, len(keywordStats)+len(personalStats))
	rssStats = append(rssStats, keywordStats...)
	rssStats = append(rssStats, personalStats...)

	log.Println("Step 5: Assembling report...")
	payload, err := p.assembler.Assemble(report.Input{
		Stats:         stats,
		RSSStats:      rssStats,
		NewTitles:     deltas,
		FailedIDs:     failedIDs,
		Mode:          p.mode,
		RankThreshold: p.rankThreshold,
	})
	if err != nil {
		return fmt.Errorf("assemble report: %w", err)
	}

	meta := render.Meta{
		TotalTitles:    totalTitles,
		IsDailySummary: true,
		Mode:           p.mode,
		GeneratedAt:    now,
	}

	log.Println("Step 6: Rendering HTML report...")
	html, err := p.renderer.Render(payload, meta)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	// Снимок запуска с именем по времени плюс перезаписываемый сводный файл
	if _, err := p.writer.Write(html, now, p.mode, false); err != nil {
		return fmt.Errorf("write report snapshot: %w", err)
	}
	path, err := p.writer.Write(html, now, p.mode, true)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	log.Printf("Report written to %s", path)

	log.Println("Step 7: Building digest messages...")
	messages := p.formatter.BuildMessages(payload, meta)

	if p.briefer != nil {
		log.Println("Step 8: Requesting model brief...")
		brief, err := p.briefer.Brief(ctx, payload)
		if err != nil {
			// Сводка необязательна: отчёт уже готов, рассылку не срываем
			log.Printf("Brief generation failed (continuing without it): %v", err)
		} else if brief != "" {
			messages = append(messages, "*Сводка*\n\n"+brief)
		}
	}

	if p.sender == nil || len(p.chatIDs) == 0 {
		log.Println("Telegram push skipped: no sender or chat ids configured")
		return nil
	}

	hasContent := len(payload.Stats) > 0 || len(payload.RSSStats) > 0 || payload.TotalNewCount > 0
	if !hasContent && !p.forceDispatch {
		log.Println("Nothing to push: report is empty and force dispatch is off")
		return nil
	}

	log.Println("Step 9: Sending digest to Telegram...")
	if err := p.sender.Send(ctx, p.chatIDs, messages); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}

	return nil
}

func (p *Pipeline) validateDeps() error {
	// sender и briefer опциональны: их отсутствие означает пропуск шага
	switch {
	case p.hotLists == nil,
		p.feeds == nil,
		p.registry == nil,
		p.aggregator == nil,
		p.assembler == nil,
		p.renderer == nil,
		p.writer == nil,
		p.formatter == nil,
		p.clock == nil:
		return ErrNotConfigured
	default:
		return nil
	}
}
