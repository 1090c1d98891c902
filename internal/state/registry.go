package state

import (
	"time"

	"github.com/maine/trendwatch_bot/internal/news"
)

// MergeCrawl вливает результаты одного опроса в дневной реестр.
//
// Для каждого заголовка опроса: уже известные получают ещё одну позицию
// в Ranks, инкремент счётчика и свежий LastSeen; новые добавляются в
// конец истории платформы и попадают в возвращаемые дельты. Флаг IsNew
// перед слиянием сбрасывается по всему реестру, так что после вызова
// он означает ровно "впервые увиден в этом опросе".
//
// Платформы и заголовки сохраняют порядок первого появления — реестр
// детерминирован при одинаковой последовательности опросов. Дубликаты
// заголовка внутри одного опроса схлопываются в первое вхождение.
func MergeCrawl(registry news.DayRegistry, crawl []news.SourceTitles, now time.Time) (news.DayRegistry, []news.SourceDelta) {
	timeStr := now.Format("15:04")

	for pi := range registry.Platforms {
		titles := registry.Platforms[pi].Titles
		for ti := range titles {
			titles[ti].IsNew = false
		}
	}

	var deltas []news.SourceDelta

	for _, source := range crawl {
		platform := findPlatform(&registry, source)

		delta := news.SourceDelta{SourceID: source.SourceID, SourceName: source.SourceName}
		seen := make(map[string]bool, len(source.Titles))

		for i, raw := range source.Titles {
			if raw.Title == "" || seen[raw.Title] {
				continue
			}
			seen[raw.Title] = true

			rank := raw.Rank
			if rank <= 0 {
				rank = i + 1
			}

			if history := findTitle(platform, raw.Title); history != nil {
				history.Ranks = append(history.Ranks, rank)
				history.Count++
				history.LastSeen = timeStr
				if history.URL == "" {
					history.URL = raw.URL
				}
				if history.MobileURL == "" {
					history.MobileURL = raw.MobileURL
				}
				continue
			}

			platform.Titles = append(platform.Titles, news.TitleHistory{
				Title:     raw.Title,
				URL:       raw.URL,
				MobileURL: raw.MobileURL,
				Ranks:     []int{rank},
				FirstSeen: timeStr,
				LastSeen:  timeStr,
				Count:     1,
				IsNew:     true,
			})
			delta.Titles = append(delta.Titles, news.NewTitle{
				Title:     raw.Title,
				URL:       raw.URL,
				MobileURL: raw.MobileURL,
				Ranks:     []int{rank},
			})
		}

		if len(delta.Titles) > 0 {
			deltas = append(deltas, delta)
		}
	}

	return registry, deltas
}

// findPlatform возвращает платформу реестра по ID опрошенного источника,
// создавая её при первом появлении. Имя обновляется на свежее из опроса.
func findPlatform(registry *news.DayRegistry, source news.SourceTitles) *news.PlatformHistory {
	for i := range registry.Platforms {
		if registry.Platforms[i].ID == source.SourceID {
			if source.SourceName != "" {
				registry.Platforms[i].Name = source.SourceName
			}
			return &registry.Platforms[i]
		}
	}

	registry.Platforms = append(registry.Platforms, news.PlatformHistory{
		ID:   source.SourceID,
		Name: source.SourceName,
	})
	return &registry.Platforms[len(registry.Platforms)-1]
}

func findTitle(platform *news.PlatformHistory, title string) *news.TitleHistory {
	for i := range platform.Titles {
		if platform.Titles[i].Title == title {
			return &platform.Titles[i]
		}
	}
	return nil
}

// SelectView возвращает срез реестра под режим отчёта:
//   - daily — реестр целиком, вся накопленная за день история;
//   - current — только заголовки, присутствующие в переданном опросе,
//     в порядке этого опроса (актуальный срез лент с дневной историей);
//   - incremental — только заголовки, впервые увиденные последним
//     слиянием (IsNew), в порядке реестра.
//
// Платформы без подходящих заголовков в срез не попадают (кроме daily,
// который отдаёт реестр как есть).
func SelectView(registry news.DayRegistry, crawl []news.SourceTitles, mode news.Mode) []news.PlatformHistory {
	switch mode {
	case news.ModeCurrent:
		var view []news.PlatformHistory
		for _, source := range crawl {
			platform := platformByID(registry, source.SourceID)
			if platform == nil {
				continue
			}

			selected := make([]news.TitleHistory, 0, len(source.Titles))
			for _, raw := range source.Titles {
				if history := findTitle(platform, raw.Title); history != nil {
					selected = append(selected, *history)
				}
			}
			if len(selected) > 0 {
				view = append(view, news.PlatformHistory{ID: platform.ID, Name: platform.Name, Titles: selected})
			}
		}
		return view

	case news.ModeIncremental:
		var view []news.PlatformHistory
		for _, platform := range registry.Platforms {
			var selected []news.TitleHistory
			for _, history := range platform.Titles {
				if history.IsNew {
					selected = append(selected, history)
				}
			}
			if len(selected) > 0 {
				view = append(view, news.PlatformHistory{ID: platform.ID, Name: platform.Name, Titles: selected})
			}
		}
		return view

	default:
		return registry.Platforms
	}
}

func platformByID(registry news.DayRegistry, id string) *news.PlatformHistory {
	for i := range registry.Platforms {
		if registry.Platforms[i].ID == id {
			return &registry.Platforms[i]
		}
	}
	return nil
}
