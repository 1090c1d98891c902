package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"time"

	"github.com/maine/trendwatch_bot/internal/news"
)

//go:embed templates/report.html
var reportHTML string

// Meta - сопроводительные данные отчёта, не входящие в payload.
type Meta struct {
	TotalTitles    int       // сколько заголовков собрано за запуск
	IsDailySummary bool      // сводный отчёт дня, а не промежуточный срез
	Mode           news.Mode // режим отчёта
	UpdateInfo     string    // произвольная строка для подвала отчёта
	GeneratedAt    time.Time // момент формирования отчёта
}

// reportView - данные, передаваемые в HTML-шаблон.
type reportView struct {
	Payload   news.ReportPayload
	Meta      Meta
	Title     string
	Date      string
	Time      string
	ModeLabel string
}

// HTMLRenderer превращает отчёт в самодостаточный HTML-документ.
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer разбирает встроенный шаблон отчёта.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"ranks": formatRanks,
		"hot":   isHot,
		"link":  preferredLink,
	}).Parse(reportHTML)
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

// Render выполняет шаблон и возвращает готовый документ.
func (r *HTMLRenderer) Render(payload news.ReportPayload, meta Meta) (string, error) {
	data := reportView{
		Payload:   payload,
		Meta:      meta,
		Title:     "Мониторинг трендов",
		Date:      meta.GeneratedAt.Format("02.01.2006"),
		Time:      meta.GeneratedAt.Format("15:04"),
		ModeLabel: modeLabel(meta.Mode),
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

// isHot сообщает, поднимался ли заголовок до порога выделения.
func isHot(t news.TitleEntry) bool {
	if t.RankThreshold <= 0 {
		return false
	}
	for _, r := range t.Ranks {
		if r > 0 && r <= t.RankThreshold {
			return true
		}
	}
	return false
}
