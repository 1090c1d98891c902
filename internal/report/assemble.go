package report

import (
	"fmt"
	"log"

	"github.com/maine/trendwatch_bot/internal/news"
	"github.com/maine/trendwatch_bot/internal/rulebook"
)

// Assembler собирает итоговый отчёт из разнородных статистик:
// горячие списки, RSS по ключевым словам и дайджесты личных лент.
//
// Обе зависимости инъектируются, чтобы сборку можно было гонять в тестах
// без файла рулбука. Если любая из них nil, фильтрация новых заголовков
// отключена и они проходят как есть.
type Assembler struct {
	// LoadRules возвращает активный рулбук для фильтрации новых заголовков.
	LoadRules func() (rulebook.Rulebook, error)
	// Admits решает, допускается ли заголовок рулбуком.
	Admits func(title string, rb rulebook.Rulebook) bool
}

// Input — сырьё одной сборки отчёта.
type Input struct {
	// Stats — статистика горячих списков по группам рулбука.
	Stats []news.StatEntry
	// RSSStats — статистика RSS: записи с Kind == StatPersonalFeed уходят
	// в дайджесты по лентам, остальные вливаются в Stats по ключу Word.
	RSSStats []news.StatEntry
	// NewTitles — новые заголовки текущего запуска по источникам.
	NewTitles []news.SourceDelta
	// FailedIDs — платформы, опрос которых не удался.
	FailedIDs []string
	// Mode определяет вид отчёта; в ModeIncremental раздел новых
	// заголовков подавляется целиком.
	Mode news.Mode
	// RankThreshold проставляется каждому новому заголовку для подсветки
	// при рендеринге.
	RankThreshold int
}

// Assemble формирует итоговую структуру отчёта.
//
// Порядок работы: RSS-статистика делится на личные ленты и ключевую;
// ключевая вливается в горячие списки (только если она непуста — иначе
// первичная статистика идёт как есть, без пересортировки); личные ленты
// перегруппировываются в дайджесты. Новые заголовки прогоняются через
// рулбук, источники без допущенных заголовков выпадают. Финальная
// зачистка убирает группы с нулевым счётчиком.
//
// Ошибка возможна только при загрузке рулбука; она фатальна для сборки.
func (a *Assembler) Assemble(in Input) (news.ReportPayload, error) {
	var personal, keyword []news.StatEntry
	for _, stat := range in.RSSStats {
		if stat.Kind == news.StatPersonalFeed {
			personal = append(personal, stat)
		} else {
			keyword = append(keyword, stat)
		}
	}

	stats := in.Stats
	if len(keyword) > 0 {
		stats = MergeStats(stats, keyword)
	}

	newGroups := []news.NewTitleGroup{}
	if in.Mode != news.ModeIncremental && len(in.NewTitles) > 0 {
		deltas, err := a.filterNewTitles(in.NewTitles)
		if err != nil {
			return news.ReportPayload{}, err
		}

		for _, delta := range deltas {
			if len(delta.Titles) == 0 {
				continue
			}

			group := news.NewTitleGroup{
				SourceID:   delta.SourceID,
				SourceName: delta.SourceName,
			}
			for _, t := range delta.Titles {
				group.Titles = append(group.Titles, news.TitleEntry{
					Title:         t.Title,
					SourceName:    delta.SourceName,
					TimeDisplay:   "",
					Count:         1,
					Ranks:         t.Ranks,
					RankThreshold: in.RankThreshold,
					URL:           t.URL,
					MobileURL:     t.MobileURL,
					IsNew:         true,
				})
			}
			newGroups = append(newGroups, group)
		}
	}

	processed := make([]news.StatEntry, 0, len(stats))
	for _, stat := range stats {
		if stat.Count <= 0 {
			continue
		}
		entry := stat
		entry.Titles = append([]news.TitleEntry(nil), stat.Titles...)
		processed = append(processed, entry)
	}

	totalNew := 0
	for _, group := range newGroups {
		totalNew += len(group.Titles)
	}

	payload := news.ReportPayload{
		Stats:         processed,
		NewTitles:     newGroups,
		RSSStats:      RegroupPersonalFeeds(personal),
		RSSNewStats:   []news.StatEntry{},
		FailedIDs:     in.FailedIDs,
		TotalNewCount: totalNew,
	}
	if payload.RSSStats == nil {
		payload.RSSStats = []news.StatEntry{}
	}
	if payload.FailedIDs == nil {
		payload.FailedIDs = []string{}
	}
	return payload, nil
}

// filterNewTitles оставляет только заголовки, допущенные рулбуком.
// Без инъектированных зависимостей фильтрация пропускается.
func (a *Assembler) filterNewTitles(deltas []news.SourceDelta) ([]news.SourceDelta, error) {
	original := countNewTitles(deltas)

	filtered := deltas
	if a.LoadRules != nil && a.Admits != nil {
		rb, err := a.LoadRules()
		if err != nil {
			return nil, fmt.Errorf("load rulebook: %w", err)
		}

		filtered = make([]news.SourceDelta, 0, len(deltas))
		for _, delta := range deltas {
			kept := delta
			kept.Titles = nil
			for _, t := range delta.Titles {
				if a.Admits(t.Title, rb) {
					kept.Titles = append(kept.Titles, t)
				}
			}
			if len(kept.Titles) > 0 {
				filtered = append(filtered, kept)
			}
		}
	}

	if original > 0 {
		log.Printf("Rulebook filter: %d of %d new titles admitted", countNewTitles(filtered), original)
	}
	return filtered, nil
}

func countNewTitles(deltas []news.SourceDelta) int {
	total := 0
	for _, delta := range deltas {
		total += len(delta.Titles)
	}
	return total
}
