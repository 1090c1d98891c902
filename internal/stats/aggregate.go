package stats

import (
	"sort"
	"strings"

	"github.com/maine/trendwatch_bot/internal/news"
	"github.com/maine/trendwatch_bot/internal/rulebook"
)

// Aggregator превращает собранные заголовки в статистику по группам
// рулбука. Один и тот же движок обслуживает горячие списки платформ
// и RSS-ленты с фильтрацией по ключевым словам.
type Aggregator struct {
	rules         rulebook.Rulebook
	matcher       *rulebook.Matcher
	rankThreshold int
}

// NewAggregator создаёт агрегатор. Матчер можно передать общий на запуск,
// чтобы переиспользовать кэш шаблонов; nil означает собственный матчер.
func NewAggregator(rules rulebook.Rulebook, matcher *rulebook.Matcher, rankThreshold int) *Aggregator {
	if matcher == nil {
		matcher = rulebook.NewMatcher()
	}
	return &Aggregator{rules: rules, matcher: matcher, rankThreshold: rankThreshold}
}

// HotList агрегирует дневную историю платформ. Вторым значением
// возвращается общее число заголовков за день (для процентов и шапки
// отчёта).
func (a *Aggregator) HotList(platforms []news.PlatformHistory) ([]news.StatEntry, int) {
	total := 0
	for _, p := range platforms {
		total += len(p.Titles)
	}

	var records []news.TitleEntry
	for _, p := range platforms {
		for _, h := range p.Titles {
			records = append(records, historyEntry(h, p.Name, a.rankThreshold))
		}
	}

	return a.aggregate(records, total), total
}

// Feeds агрегирует содержимое RSS-лент. Ленты с фильтрацией по ключевым
// словам раскладываются по группам рулбука; личные ленты собираются в
// одну группу с меткой personalLabel — дальше её перегруппирует отчёт.
func (a *Aggregator) Feeds(feeds []news.FeedItems, personalLabel string) (keyword, personal []news.StatEntry) {
	var records []news.TitleEntry
	var personalTitles []news.TitleEntry

	for _, feed := range feeds {
		for _, item := range feed.Items {
			entry := feedEntry(item, feed.FeedName, a.rankThreshold)
			if feed.Personal {
				personalTitles = append(personalTitles, entry)
			} else {
				records = append(records, entry)
			}
		}
	}

	keyword = a.aggregate(records, len(records))

	if len(personalTitles) > 0 {
		personal = []news.StatEntry{{
			Word:   personalLabel,
			Kind:   news.StatPersonalFeed,
			Count:  len(personalTitles),
			Titles: personalTitles,
		}}
	}
	return keyword, personal
}

// aggregate раскладывает записи по группам рулбука: заголовок
// засчитывается первой подошедшей группе, позиция группы — её индекс
// в рулбуке. Группы без совпадений остаются с нулевым счётчиком
// (их уберёт финальная зачистка отчёта). Лимит max_count группы
// ограничивает только показываемый список, не счётчик.
//
// Пустой рулбук — режим "показывать всё": записи группируются по
// имени источника в порядке появления.
func (a *Aggregator) aggregate(records []news.TitleEntry, total int) []news.StatEntry {
	if len(a.rules.Groups) == 0 {
		return a.passThrough(records, total)
	}

	titlesByGroup := make([][]news.TitleEntry, len(a.rules.Groups))
	counts := make([]int, len(a.rules.Groups))

	for _, rec := range records {
		idx, ok := a.assignGroup(rec.Title)
		if !ok {
			continue
		}
		counts[idx]++
		titlesByGroup[idx] = append(titlesByGroup[idx], rec)
	}

	entries := make([]news.StatEntry, 0, len(a.rules.Groups))
	for i, g := range a.rules.Groups {
		titles := titlesByGroup[i]
		if g.MaxCount > 0 && len(titles) > g.MaxCount {
			titles = titles[:g.MaxCount]
		}
		entries = append(entries, news.StatEntry{
			Word:       g.Key,
			Kind:       news.StatKeyword,
			Count:      counts[i],
			Position:   i,
			Percentage: percentage(counts[i], total),
			Titles:     titles,
		})
	}

	sortStats(entries)
	return entries
}

// passThrough группирует записи по источникам без рулбука. Глобальные
// фильтры действуют и здесь.
func (a *Aggregator) passThrough(records []news.TitleEntry, total int) []news.StatEntry {
	bySource := make(map[string][]news.TitleEntry)
	order := make([]string, 0)

	for _, rec := range records {
		if !a.matcher.Admits(rec.Title, a.rules) {
			continue
		}
		name := rec.SourceName
		if _, ok := bySource[name]; !ok {
			order = append(order, name)
		}
		bySource[name] = append(bySource[name], rec)
	}

	entries := make([]news.StatEntry, 0, len(order))
	for i, name := range order {
		titles := bySource[name]
		entries = append(entries, news.StatEntry{
			Word:       name,
			Kind:       news.StatKeyword,
			Count:      len(titles),
			Position:   i,
			Percentage: percentage(len(titles), total),
			Titles:     titles,
		})
	}

	sortStats(entries)
	return entries
}

// assignGroup возвращает индекс первой группы, принявшей заголовок.
// Порядок проверок тот же, что у Matcher.Admits: глобальные фильтры,
// затем исключающие слова, затем группы.
func (a *Aggregator) assignGroup(title string) (int, bool) {
	if strings.TrimSpace(title) == "" {
		return 0, false
	}

	for _, w := range a.rules.GlobalFilters {
		if a.matcher.KeywordInTitle(title, w) {
			return 0, false
		}
	}
	for _, w := range a.rules.FilterWords {
		if a.matcher.KeywordInTitle(title, w) {
			return 0, false
		}
	}
	for i, g := range a.rules.Groups {
		if a.matcher.MatchesGroup(title, g) {
			return i, true
		}
	}
	return 0, false
}

func historyEntry(h news.TitleHistory, sourceName string, rankThreshold int) news.TitleEntry {
	return news.TitleEntry{
		Title:         h.Title,
		SourceName:    sourceName,
		TimeDisplay:   timeDisplay(h.FirstSeen, h.LastSeen),
		Count:         h.Count,
		Ranks:         h.Ranks,
		RankThreshold: rankThreshold,
		URL:           h.URL,
		MobileURL:     h.MobileURL,
		IsNew:         h.IsNew,
	}
}

func feedEntry(item news.FeedItem, feedName string, rankThreshold int) news.TitleEntry {
	var ranks []int
	if item.Position > 0 {
		ranks = []int{item.Position}
	}
	return news.TitleEntry{
		Title:         item.Title,
		SourceName:    feedName,
		Count:         1,
		Ranks:         ranks,
		RankThreshold: rankThreshold,
		URL:           item.URL,
	}
}

// timeDisplay форматирует период появления заголовка: одно время,
// если заголовок видели один раз, иначе "HH:MM ~ HH:MM".
func timeDisplay(first, last string) string {
	if first == "" {
		return ""
	}
	if last == "" || last == first {
		return first
	}
	return first + " ~ " + last
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) * 100 / float64(total)
}

func sortStats(entries []news.StatEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Position < entries[j].Position
	})
}
