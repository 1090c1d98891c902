package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/maine/trendwatch_bot/internal/news"
)

// DayStore хранит дневные реестры заголовков в JSON-файлах,
// по файлу на дату: <root>/days/YYYY-MM-DD.json.
type DayStore struct {
	root string
}

// NewDayStore создаёт стор с корневой директорией состояния.
func NewDayStore(root string) *DayStore {
	return &DayStore{root: root}
}

func (s *DayStore) dayPath(date string) string {
	return filepath.Join(s.root, "days", date+".json")
}

// Load читает реестр указанной даты. Отсутствующий файл — не ошибка,
// день просто начинается с пустого реестра.
func (s *DayStore) Load(ctx context.Context, date string) (news.DayRegistry, error) {
	path := s.dayPath(date)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return news.DayRegistry{Date: date}, nil
		}
		return news.DayRegistry{}, fmt.Errorf("read day registry: %w", err)
	}

	var registry news.DayRegistry
	if err := json.Unmarshal(data, &registry); err != nil {
		// Fallback: повреждённый JSON не должен останавливать пайплайн.
		// Содержимое сохраняется рядом с суффиксом .broken для диагностики,
		// а день начинается с пустого реестра.
		brokenPath := path + ".broken"
		_ = os.WriteFile(brokenPath, data, 0644)
		return news.DayRegistry{Date: date}, nil
	}

	if registry.Date == "" {
		registry.Date = date
	}
	return registry, nil
}

// Save записывает реестр атомарно (через временный файл).
func (s *DayStore) Save(ctx context.Context, registry news.DayRegistry) error {
	if registry.Date == "" {
		return fmt.Errorf("save day registry: empty date")
	}

	data, err := json.MarshalIndent(registry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal day registry: %w", err)
	}

	path := s.dayPath(registry.Date)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	// Атомарная запись через временный файл
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temp registry file: %w", err)
	}

	// Переименование атомарно на большинстве файловых систем
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp registry file: %w", err)
	}

	return nil
}
