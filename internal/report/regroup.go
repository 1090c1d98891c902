package report

import (
	"sort"

	"github.com/maine/trendwatch_bot/internal/news"
)

const (
	// defaultFeedName подставляется лентам без имени источника.
	defaultFeedName = "RSS"
	// missingRank назначается записям без позиций: такие считаются
	// наименее свежими и уходят в конец.
	missingRank = 999
)

// RegroupPersonalFeeds разворачивает статистику личных лент в дайджесты
// по лентам, готовые к прямому рендерингу.
//
// Все заголовки входных записей сводятся в одну последовательность и
// раскладываются по имени источника. Внутри ленты записи идут по
// минимальной позиции (меньше = свежее); у отображаемых копий имя
// источника и позиции очищены — заголовок блока и так называет ленту,
// а понятие ранга к нефильтрованному дайджесту неприменимо.
//
// Ленты упорядочены по (свежести, -числу записей, имени): сперва та,
// что обновлялась последней, при равенстве — где записей больше,
// дальше по алфавиту для детерминированности. Position каждой итоговой
// записи — её порядковый номер после сортировки, Percentage всегда 0.
func RegroupPersonalFeeds(personal []news.StatEntry) []news.StatEntry {
	if len(personal) == 0 {
		return nil
	}

	// Обычно группа одна, но на случай нескольких сводим всё вместе.
	var all []news.TitleEntry
	for _, stat := range personal {
		all = append(all, stat.Titles...)
	}

	byFeed := make(map[string][]news.TitleEntry)
	names := make([]string, 0)
	for _, title := range all {
		name := title.SourceName
		if name == "" {
			name = defaultFeedName
		}
		if _, ok := byFeed[name]; !ok {
			names = append(names, name)
		}
		byFeed[name] = append(byFeed[name], title)
	}

	type feedSummary struct {
		name       string
		items      []news.TitleEntry
		latestRank int
	}

	summaries := make([]feedSummary, 0, len(names))
	for _, name := range names {
		items := byFeed[name]
		sort.SliceStable(items, func(i, j int) bool {
			return minRank(items[i]) < minRank(items[j])
		})

		cleaned := make([]news.TitleEntry, 0, len(items))
		for _, item := range items {
			copyItem := item
			copyItem.SourceName = ""
			copyItem.Ranks = []int{}
			cleaned = append(cleaned, copyItem)
		}

		latest := missingRank
		if len(items) > 0 {
			latest = minRank(items[0])
		}
		summaries = append(summaries, feedSummary{name: name, items: cleaned, latestRank: latest})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].latestRank != summaries[j].latestRank {
			return summaries[i].latestRank < summaries[j].latestRank
		}
		if len(summaries[i].items) != len(summaries[j].items) {
			return len(summaries[i].items) > len(summaries[j].items)
		}
		return summaries[i].name < summaries[j].name
	})

	out := make([]news.StatEntry, 0, len(summaries))
	for pos, s := range summaries {
		out = append(out, news.StatEntry{
			Word:       s.name,
			Kind:       news.StatPersonalFeed,
			Count:      len(s.items),
			Position:   pos,
			Percentage: 0,
			Titles:     s.items,
		})
	}
	return out
}

// minRank — минимальная позиция записи; без позиций запись считается
// наименее свежей (missingRank).
func minRank(title news.TitleEntry) int {
	if len(title.Ranks) == 0 {
		return missingRank
	}
	min := title.Ranks[0]
	for _, r := range title.Ranks[1:] {
		if r < min {
			min = r
		}
	}
	return min
}
