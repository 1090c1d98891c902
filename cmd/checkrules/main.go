package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/maine/trendwatch_bot/internal/rulebook"
)

// Утилита проверки рулбука: печатает разобранные группы и фильтры и,
// если переданы аргументы, прогоняет их как заголовки через матчер.
//
// Использование:
//
//	checkrules [-rulebook путь] [заголовок ...]
func main() {
	var path string
	flag.StringVar(&path, "rulebook", "", "путь к рулбуку (по умолчанию RULEBOOK_PATH или configs/rulebook.txt)")
	flag.Parse()

	resolved := rulebook.ResolvePath(path)
	rules, err := rulebook.Load(resolved)
	if err != nil {
		log.Fatalf("load rulebook: %v", err)
	}

	fmt.Printf("Рулбук: %s\n", resolved)
	fmt.Printf("Групп: %d, фильтров: %d, глобальных фильтров: %d\n", len(rules.Groups), len(rules.FilterWords), len(rules.GlobalFilters))

	for i, group := range rules.Groups {
		fmt.Printf("\n%2d. %s\n", i+1, group.Key)
		if len(group.Required) > 0 {
			fmt.Printf("    обязательные: %s\n", strings.Join(group.Required, ", "))
		}
		if len(group.Normal) > 0 {
			fmt.Printf("    обычные: %s\n", strings.Join(group.Normal, ", "))
		}
		if len(group.FilterWords) > 0 {
			fmt.Printf("    исключения: %s\n", strings.Join(group.FilterWords, ", "))
		}
		if group.MaxCount > 0 {
			fmt.Printf("    лимит заголовков: %d\n", group.MaxCount)
		}
	}
	if len(rules.GlobalFilters) > 0 {
		fmt.Printf("\nГлобальные фильтры: %s\n", strings.Join(rules.GlobalFilters, ", "))
	}

	titles := flag.Args()
	if len(titles) == 0 {
		return
	}

	matcher := rulebook.NewMatcher()
	fmt.Println("\nПроверка заголовков:")
	for _, title := range titles {
		if !matcher.Admits(title, rules) {
			fmt.Printf("  - %q отфильтрован\n", title)
			continue
		}
		if key := firstGroupKey(matcher, rules, title); key != "" {
			fmt.Printf("  + %q -> группа «%s»\n", title, key)
		} else {
			fmt.Printf("  + %q проходит без группы\n", title)
		}
	}
}

// firstGroupKey возвращает ключ первой подходящей группы.
func firstGroupKey(matcher *rulebook.Matcher, rules rulebook.Rulebook, title string) string {
	for _, group := range rules.Groups {
		if matcher.MatchesGroup(title, group) {
			return group.Key
		}
	}
	return ""
}
