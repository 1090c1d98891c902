package report

import (
	"sort"

	"github.com/maine/trendwatch_bot/internal/news"
)

// MergeStats складывает вторичную статистику (RSS по ключевым словам)
// в первичную (горячие списки), объединяя записи по ключу Word.
//
// Для совпавшего ключа: счётчики суммируются, списки заголовков
// склеиваются (первичные впереди) в новый срез, позиция берётся
// меньшая из двух, проценты складываются (значение справочное).
// Вторичные записи с новым ключом добавляются как есть; записи
// с пустым ключом пропускаются с обеих сторон.
//
// Итог отсортирован устойчиво по (-Count, Position): больше упоминаний —
// раньше, при равенстве раньше та запись, что была обнаружена раньше.
// Входные срезы не изменяются.
func MergeStats(primary, secondary []news.StatEntry) []news.StatEntry {
	merged := make(map[string]news.StatEntry, len(primary))
	order := make([]string, 0, len(primary))

	for _, stat := range primary {
		if stat.Word == "" {
			continue
		}
		if _, ok := merged[stat.Word]; !ok {
			order = append(order, stat.Word)
		}
		merged[stat.Word] = stat
	}

	for _, stat := range secondary {
		if stat.Word == "" {
			continue
		}

		cur, ok := merged[stat.Word]
		if !ok {
			order = append(order, stat.Word)
			merged[stat.Word] = stat
			continue
		}

		cur.Count += stat.Count

		titles := make([]news.TitleEntry, 0, len(cur.Titles)+len(stat.Titles))
		titles = append(titles, cur.Titles...)
		titles = append(titles, stat.Titles...)
		cur.Titles = titles

		if stat.Position < cur.Position {
			cur.Position = stat.Position
		}
		cur.Percentage += stat.Percentage

		merged[stat.Word] = cur
	}

	out := make([]news.StatEntry, 0, len(order))
	for _, word := range order {
		out = append(out, merged[word])
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Position < out[j].Position
	})

	return out
}
