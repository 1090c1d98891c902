package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/maine/trendwatch_bot/internal/app"
	"github.com/maine/trendwatch_bot/internal/config"
	"github.com/maine/trendwatch_bot/internal/gemini"
	"github.com/maine/trendwatch_bot/internal/news"
	"github.com/maine/trendwatch_bot/internal/render"
	"github.com/maine/trendwatch_bot/internal/report"
	"github.com/maine/trendwatch_bot/internal/rulebook"
	"github.com/maine/trendwatch_bot/internal/sources"
	"github.com/maine/trendwatch_bot/internal/state"
	"github.com/maine/trendwatch_bot/internal/stats"
	"github.com/maine/trendwatch_bot/internal/telegram"
)

func main() {
	ctx := context.Background()

	// Загружаем конфигурацию из YAML
	rootCfg, err := config.LoadRoot("configs/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	sourcesCfg, err := config.LoadSources("configs/sources.yaml")
	if err != nil {
		log.Fatalf("load sources config: %v", err)
	}

	// Загружаем переменные окружения (токены и переключатели)
	envCfg, err := config.LoadEnvConfig()
	if err != nil {
		log.Fatalf("load env config: %v", err)
	}

	// Рулбук читается один раз на запуск
	rulebookPath := rulebook.ResolvePath(rootCfg.Report.RulebookPath)
	rules, err := rulebook.Load(rulebookPath)
	if err != nil {
		log.Fatalf("load rulebook: %v", err)
	}
	matcher := rulebook.NewMatcher()

	// Переменная окружения перекрывает режим из конфига
	mode := news.Mode(rootCfg.Report.Mode)
	if envCfg.ReportMode != "" {
		mode = news.Mode(envCfg.ReportMode)
	}

	// Инициализируем модули
	timeout := time.Duration(rootCfg.HotList.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	hotLists := sources.NewHotListCollector(rootCfg.HotList.BaseURL, sourcesCfg.Platforms, httpClient)
	feeds := sources.NewFeedCollector(sourcesCfg.Feeds, httpClient)
	dayStore := state.NewDayStore(rootCfg.Report.StateDir)
	aggregator := stats.NewAggregator(rules, matcher, rootCfg.Report.RankThreshold)
	assembler := &report.Assembler{
		LoadRules: func() (rulebook.Rulebook, error) { return rulebook.Load(rulebookPath) },
		Admits:    matcher.Admits,
	}

	renderer, err := render.NewHTMLRenderer()
	if err != nil {
		log.Fatalf("init renderer: %v", err)
	}
	writer := render.NewWriter(rootCfg.Report.OutputDir, rootCfg.Report.IndexCopy)
	formatter := render.NewDigestFormatter(rootCfg.Telegram.MaxMessages)

	var sender app.Sender
	if !envCfg.SkipTelegram {
		tgClient := telegram.NewClient(envCfg.TelegramBotToken)
		sender = telegram.NewSender(tgClient, rootCfg.Telegram.MessageDelaySeconds)
	}

	var briefer app.Briefer
	if !envCfg.SkipGemini {
		geminiClient, err := gemini.NewClient(envCfg.GeminiAPIKey)
		if err != nil {
			log.Fatalf("create gemini client: %v", err)
		}
		briefer = gemini.NewBriefer(geminiClient, rootCfg.Gemini)
	}

	// Создаём пайплайн
	p := app.NewPipeline(app.PipelineDeps{
		HotLists:      hotLists,
		Feeds:         feeds,
		Registry:      dayStore,
		Aggregator:    aggregator,
		Assembler:     assembler,
		Renderer:      renderer,
		Writer:        writer,
		Formatter:     formatter,
		Sender:        sender,
		Briefer:       briefer,
		Clock:         nil, // используем time.Now по умолчанию
		Mode:          mode,
		RankThreshold: rootCfg.Report.RankThreshold,
		PersonalLabel: rootCfg.Report.PersonalLabel,
		ChatIDs:       rootCfg.Telegram.ChatIDs,
		ForceDispatch: envCfg.ForceDispatch,
	})

	if err := p.Run(ctx); err != nil {
		log.Fatalf("pipeline failed: %v", err)
	}

	log.Println("pipeline completed successfully")
}
