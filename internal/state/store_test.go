package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/maine/trendwatch_bot/internal/news"
)

func TestDayStore_Load_Save(t *testing.T) {
	// Создаём временную директорию для тестов
	tmpDir := t.TempDir()
	store := NewDayStore(tmpDir)
	ctx := context.Background()

	t.Run("load non-existent day returns empty registry", func(t *testing.T) {
		registry, err := store.Load(ctx, "2025-08-25")
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if registry.Date != "2025-08-25" {
			t.Errorf("Load() Date = %q, want 2025-08-25", registry.Date)
		}
		if len(registry.Platforms) != 0 {
			t.Errorf("Load() Platforms should be empty")
		}
	})

	t.Run("save and load registry", func(t *testing.T) {
		registry := news.DayRegistry{
			Date: "2025-08-25",
			Platforms: []news.PlatformHistory{
				{
					ID:   "baidu",
					Name: "百度热搜",
					Titles: []news.TitleHistory{
						{Title: "AI新品", Ranks: []int{1, 3}, FirstSeen: "09:00", LastSeen: "12:00", Count: 2},
					},
				},
			},
		}

		if err := store.Save(ctx, registry); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		loaded, err := store.Load(ctx, "2025-08-25")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if loaded.Date != registry.Date {
			t.Errorf("Load() Date = %q, want %q", loaded.Date, registry.Date)
		}
		if len(loaded.Platforms) != 1 {
			t.Fatalf("Load() Platforms len = %d, want 1", len(loaded.Platforms))
		}
		got := loaded.Platforms[0]
		if got.ID != "baidu" || got.Name != "百度热搜" {
			t.Errorf("platform = %s/%s, want baidu/百度热搜", got.ID, got.Name)
		}
		if len(got.Titles) != 1 || got.Titles[0].Count != 2 {
			t.Errorf("titles = %+v, want single entry with Count 2", got.Titles)
		}
	})

	t.Run("load corrupted JSON returns empty registry", func(t *testing.T) {
		// Создаём повреждённый JSON файл
		path := filepath.Join(tmpDir, "days", "2025-08-26.json")
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("invalid json {"), 0644); err != nil {
			t.Fatalf("failed to write corrupted file: %v", err)
		}

		registry, err := store.Load(ctx, "2025-08-26")
		if err != nil {
			t.Fatalf("Load() should not return error for corrupted JSON, got %v", err)
		}
		if len(registry.Platforms) != 0 {
			t.Errorf("Load() should return empty registry for corrupted JSON")
		}

		// Проверяем, что повреждённый файл сохранён
		if _, err := os.Stat(path + ".broken"); os.IsNotExist(err) {
			t.Error("Load() should save corrupted file as .broken")
		}
	})

	t.Run("save rejects empty date", func(t *testing.T) {
		if err := store.Save(ctx, news.DayRegistry{}); err == nil {
			t.Error("Save() error = nil, want error for empty date")
		}
	})
}

func TestDayStore_Save_Atomic(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewDayStore(tmpDir)
	ctx := context.Background()

	registry := news.DayRegistry{
		Date: "2025-08-25",
		Platforms: []news.PlatformHistory{
			{ID: "weibo", Name: "微博"},
		},
	}

	if err := store.Save(ctx, registry); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	path := filepath.Join(tmpDir, "days", "2025-08-25.json")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("Save() should create registry file")
	}
	if _, err := os.Stat(path + ".tmp"); err == nil {
		t.Error("Save() should remove temporary file")
	}
}
