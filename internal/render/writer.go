package render

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/maine/trendwatch_bot/internal/news"
)

// Writer раскладывает готовые HTML-отчёты по каталогам вида
// output/<дата>/html/ и обновляет копии index.html для сводных отчётов.
type Writer struct {
	outputDir string
	indexCopy bool
}

// NewWriter создаёт райтер отчётов. Пустой outputDir означает "output".
func NewWriter(outputDir string, indexCopy bool) *Writer {
	if outputDir == "" {
		outputDir = "output"
	}
	return &Writer{outputDir: outputDir, indexCopy: indexCopy}
}

// Write сохраняет отчёт и возвращает путь записанного файла.
// Сводный отчёт дня дополнительно копируется в index.html в корне
// рабочего каталога (для статического хостинга) и в каталоге вывода
// (для монтирования томом).
func (w *Writer) Write(html string, at time.Time, mode news.Mode, isDailySummary bool) (string, error) {
	dir := filepath.Join(w.outputDir, at.Format("2006-01-02"), "html")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(dir, reportFileName(at, mode, isDailySummary))
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	if isDailySummary && w.indexCopy {
		indexPaths := []string{
			"index.html",
			filepath.Join(w.outputDir, "index.html"),
		}
		for _, indexPath := range indexPaths {
			if err := os.WriteFile(indexPath, []byte(html), 0644); err != nil {
				return "", fmt.Errorf("write index copy: %w", err)
			}
		}
	}

	return path, nil
}

// reportFileName выбирает имя файла: промежуточные отчёты именуются по
// времени запуска, сводные - по режиму.
func reportFileName(at time.Time, mode news.Mode, isDailySummary bool) string {
	if !isDailySummary {
		return at.Format("15-04") + ".html"
	}
	switch mode {
	case news.ModeCurrent:
		return "current.html"
	case news.ModeIncremental:
		return "incremental.html"
	default:
		return "daily.html"
	}
}
