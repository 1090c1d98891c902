package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/maine/trendwatch_bot/internal/news"
	"github.com/maine/trendwatch_bot/internal/render"
	"github.com/maine/trendwatch_bot/internal/report"
)

// Фейки шагов пайплайна

type fakeHotLists struct {
	titles []news.SourceTitles
	failed []string
}

func (f *fakeHotLists) Collect(ctx context.Context) ([]news.SourceTitles, []string) {
	return f.titles, f.failed
}

type fakeFeeds struct{ feeds []news.FeedItems }

func (f *fakeFeeds) Collect(ctx context.Context) []news.FeedItems { return f.feeds }

type fakeRegistry struct {
	loadErr error
	saveErr error
	saved   *news.DayRegistry
}

func (f *fakeRegistry) Load(ctx context.Context, date string) (news.DayRegistry, error) {
	if f.loadErr != nil {
		return news.DayRegistry{}, f.loadErr
	}
	return news.DayRegistry{Date: date}, nil
}

func (f *fakeRegistry) Save(ctx context.Context, registry news.DayRegistry) error {
	f.saved = &registry
	return f.saveErr
}

type fakeAggregator struct {
	stats    []news.StatEntry
	total    int
	keyword  []news.StatEntry
	personal []news.StatEntry
}

func (f *fakeAggregator) HotList(platforms []news.PlatformHistory) ([]news.StatEntry, int) {
	return f.stats, f.total
}

func (f *fakeAggregator) Feeds(feeds []news.FeedItems, personalLabel string) ([]news.StatEntry, []news.StatEntry) {
	return f.keyword, f.personal
}

type fakeAssembler struct {
	gotInput report.Input
	payload  news.ReportPayload
	err      error
}

func (f *fakeAssembler) Assemble(in report.Input) (news.ReportPayload, error) {
	f.gotInput = in
	return f.payload, f.err
}

type fakeRenderer struct{ err error }

func (f *fakeRenderer) Render(payload news.ReportPayload, meta render.Meta) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "<html>отчёт</html>", nil
}

type fakeWriter struct {
	// isDailySummary по порядку вызовов
	calls []bool
	err   error
}

func (f *fakeWriter) Write(html string, at time.Time, mode news.Mode, isDailySummary bool) (string, error) {
	f.calls = append(f.calls, isDailySummary)
	if f.err != nil {
		return "", f.err
	}
	return "output/report.html", nil
}

type fakeFormatter struct{ messages []string }

func (f *fakeFormatter) BuildMessages(payload news.ReportPayload, meta render.Meta) []string {
	return f.messages
}

type fakeSender struct {
	gotChatIDs  []string
	gotMessages []string
	calls       int
	err         error
}

func (f *fakeSender) Send(ctx context.Context, chatIDs []string, messages []string) error {
	f.calls++
	f.gotChatIDs = chatIDs
	f.gotMessages = messages
	return f.err
}

type fakeBriefer struct {
	brief string
	err   error
}

func (f *fakeBriefer) Brief(ctx context.Context, payload news.ReportPayload) (string, error) {
	return f.brief, f.err
}

type pipelineFakes struct {
	hotLists   *fakeHotLists
	feeds      *fakeFeeds
	registry   *fakeRegistry
	aggregator *fakeAggregator
	assembler  *fakeAssembler
	writer     *fakeWriter
	formatter  *fakeFormatter
	sender     *fakeSender
	briefer    *fakeBriefer
}

func newPipelineFakes() *pipelineFakes {
	return &pipelineFakes{
		hotLists: &fakeHotLists{
			titles: []news.SourceTitles{
				{SourceID: "baidu", SourceName: "百度热搜", Titles: []news.RawTitle{{Title: "Новость", Rank: 1}}},
			},
			failed: []string{"zhihu"},
		},
		feeds:    &fakeFeeds{},
		registry: &fakeRegistry{},
		aggregator: &fakeAggregator{
			stats: []news.StatEntry{{Word: "AI", Count: 1}},
			total: 1,
		},
		assembler: &fakeAssembler{
			payload: news.ReportPayload{
				Stats:         []news.StatEntry{{Word: "AI", Count: 1}},
				TotalNewCount: 1,
			},
		},
		writer:    &fakeWriter{},
		formatter: &fakeFormatter{messages: []string{"дайджест"}},
		sender:    &fakeSender{},
		briefer:   &fakeBriefer{brief: "Краткая сводка"},
	}
}

func (f *pipelineFakes) deps() PipelineDeps {
	return PipelineDeps{
		HotLists:      f.hotLists,
		Feeds:         f.feeds,
		Registry:      f.registry,
		Aggregator:    f.aggregator,
		Assembler:     f.assembler,
		Renderer:      &fakeRenderer{},
		Writer:        f.writer,
		Formatter:     f.formatter,
		Sender:        f.sender,
		Briefer:       f.briefer,
		Clock:         func() time.Time { return time.Date(2025, 8, 25, 12, 0, 0, 0, time.UTC) },
		Mode:          news.ModeDaily,
		RankThreshold: 3,
		ChatIDs:       []string{"123"},
	}
}

func TestPipeline_Run(t *testing.T) {
	fakes := newPipelineFakes()
	p := NewPipeline(fakes.deps())

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Реестр сохранён с заголовками из опроса.
	if fakes.registry.saved == nil {
		t.Fatal("registry was not saved")
	}
	if fakes.registry.saved.Date != "2025-08-25" || len(fakes.registry.saved.Platforms) != 1 {
		t.Errorf("saved registry = %+v", fakes.registry.saved)
	}

	// Сборщику передаются режим, порог и данные опроса.
	in := fakes.assembler.gotInput
	if in.Mode != news.ModeDaily || in.RankThreshold != 3 {
		t.Errorf("assemble input mode/threshold = %s/%d", in.Mode, in.RankThreshold)
	}
	if len(in.FailedIDs) != 1 || in.FailedIDs[0] != "zhihu" {
		t.Errorf("assemble input failed ids = %v", in.FailedIDs)
	}
	if len(in.NewTitles) != 1 {
		t.Errorf("assemble input new titles = %v, want delta for first-seen title", in.NewTitles)
	}

	// Отчёт записан дважды: снимок запуска и сводный файл.
	if len(fakes.writer.calls) != 2 || fakes.writer.calls[0] || !fakes.writer.calls[1] {
		t.Errorf("writer calls = %v, want [snapshot, summary]", fakes.writer.calls)
	}

	// Сводка добавлена отдельным сообщением в конец рассылки.
	if fakes.sender.calls != 1 {
		t.Fatalf("sender calls = %d, want 1", fakes.sender.calls)
	}
	if len(fakes.sender.gotChatIDs) != 1 || fakes.sender.gotChatIDs[0] != "123" {
		t.Errorf("sender chat ids = %v", fakes.sender.gotChatIDs)
	}
	if len(fakes.sender.gotMessages) != 2 || !strings.Contains(fakes.sender.gotMessages[1], "Краткая сводка") {
		t.Errorf("sender messages = %v", fakes.sender.gotMessages)
	}
}

func TestPipeline_Run_NotConfigured(t *testing.T) {
	fakes := newPipelineFakes()
	deps := fakes.deps()
	deps.Formatter = nil
	p := NewPipeline(deps)

	if err := p.Run(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Run() error = %v, want ErrNotConfigured", err)
	}
}

func TestPipeline_Run_BriefFailureIsNotFatal(t *testing.T) {
	fakes := newPipelineFakes()
	fakes.briefer.err = errors.New("quota exceeded")
	p := NewPipeline(fakes.deps())

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if len(fakes.sender.gotMessages) != 1 {
		t.Errorf("sender messages = %v, want digest without brief", fakes.sender.gotMessages)
	}
}

func TestPipeline_Run_EmptyReportSkipsPush(t *testing.T) {
	fakes := newPipelineFakes()
	fakes.assembler.payload = news.ReportPayload{}
	p := NewPipeline(fakes.deps())

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if fakes.sender.calls != 0 {
		t.Errorf("sender calls = %d, want 0 for empty report", fakes.sender.calls)
	}
}

func TestPipeline_Run_ForceDispatchPushesEmptyReport(t *testing.T) {
	fakes := newPipelineFakes()
	fakes.assembler.payload = news.ReportPayload{}
	deps := fakes.deps()
	deps.ForceDispatch = true
	p := NewPipeline(deps)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if fakes.sender.calls != 1 {
		t.Errorf("sender calls = %d, want 1 with force dispatch", fakes.sender.calls)
	}
}

func TestPipeline_Run_NoSenderSkipsPush(t *testing.T) {
	fakes := newPipelineFakes()
	deps := fakes.deps()
	deps.Sender = nil
	p := NewPipeline(deps)

	if err := p.Run(context.Background()); err != nil {
		t.Errorf("Run() error = %v, sender must be optional", err)
	}
}

func TestPipeline_Run_RegistrySaveError(t *testing.T) {
	fakes := newPipelineFakes()
	fakes.registry.saveErr = errors.New("disk full")
	p := NewPipeline(fakes.deps())

	err := p.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "save day registry") {
		t.Errorf("Run() error = %v, want save day registry failure", err)
	}
}
