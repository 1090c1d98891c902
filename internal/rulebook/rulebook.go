package rulebook

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrNotFound возвращается, когда файл рулбука отсутствует.
var ErrNotFound = errors.New("rulebook file not found")

const (
	// defaultPath — путь рулбука по умолчанию.
	defaultPath = "configs/rulebook.txt"
	// pathEnv — переменная окружения, переопределяющая путь.
	pathEnv = "RULEBOOK_PATH"

	sectionWordGroups   = "WORD_GROUPS"
	sectionGlobalFilter = "GLOBAL_FILTER"
)

// Group — одна группа ключевых слов рулбука.
type Group struct {
	// Required — слова, которые должны встретиться все.
	Required []string
	// Normal — слова, из которых достаточно любого.
	Normal []string
	// FilterWords — копия исключающих слов группы, собранная при разборе.
	// Решение о допуске принимает плоский список Rulebook.FilterWords;
	// копия в группе на матчинг не влияет.
	FilterWords []string
	// Key — ключ группы: склейка Normal через пробел, иначе Required.
	Key string
	// MaxCount ограничивает число показываемых заголовков группы (0 = без лимита).
	MaxCount int
}

// Rulebook — разобранная конфигурация ключевых слов.
type Rulebook struct {
	Groups []Group
	// FilterWords — исключающие слова всех групп одним плоским списком:
	// любое из них отклоняет заголовок для всего рулбука, не только для своей группы.
	FilterWords []string
	// GlobalFilters — глобальные исключающие слова из секции [GLOBAL_FILTER],
	// приоритетнее всего остального.
	GlobalFilters []string
}

// ResolvePath выбирает путь рулбука: явный аргумент, иначе переменная
// окружения RULEBOOK_PATH, иначе путь по умолчанию.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if fromEnv := os.Getenv(pathEnv); fromEnv != "" {
		return fromEnv
	}
	return defaultPath
}

// Load читает и разбирает рулбук по указанному пути (см. ResolvePath).
// Отсутствующий файл — ошибка ErrNotFound; она фатальна для загрузки
// и пробрасывается наверх без восстановления.
func Load(path string) (Rulebook, error) {
	resolved := ResolvePath(path)

	data, err := os.ReadFile(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return Rulebook{}, fmt.Errorf("%w: %s", ErrNotFound, resolved)
		}
		return Rulebook{}, fmt.Errorf("read rulebook: %w", err)
	}

	return Parse(string(data)), nil
}

// Parse разбирает текст рулбука.
//
// Формат: блоки разделяются пустой строкой; первая строка блока вида
// [NAME] переключает секцию, если NAME — одна из известных секций
// (неизвестные теги считаются обычным содержимым). До первого тега
// действует секция WORD_GROUPS (обратная совместимость).
//
// Синтаксис строк словесной группы:
//   - слово — обычное ключевое слово (достаточно любого),
//   - +слово — обязательное (должны совпасть все),
//   - !слово — исключающее (отклоняет заголовок во всём рулбуке),
//   - @N — максимум показываемых заголовков группы (последний валидный N
//     в блоке побеждает, невалидные значения молча игнорируются).
//
// В секции GLOBAL_FILTER каждая строка — глобальное исключающее слово;
// строки со спецпрефиксами !, +, @ там молча пропускаются.
func Parse(text string) Rulebook {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var rb Rulebook
	section := sectionWordGroups

	for _, block := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(block) == "" {
			continue
		}

		lines := make([]string, 0, 8)
		for _, line := range strings.Split(block, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				lines = append(lines, trimmed)
			}
		}
		if len(lines) == 0 {
			continue
		}

		if name, ok := sectionTag(lines[0]); ok {
			section = name
			lines = lines[1:]
		}

		if section == sectionGlobalFilter {
			for _, line := range lines {
				if strings.HasPrefix(line, "!") || strings.HasPrefix(line, "+") || strings.HasPrefix(line, "@") {
					continue
				}
				rb.GlobalFilters = append(rb.GlobalFilters, line)
			}
			continue
		}

		group := parseGroup(lines, &rb.FilterWords)
		if len(group.Required) > 0 || len(group.Normal) > 0 {
			rb.Groups = append(rb.Groups, group)
		}
	}

	return rb
}

// sectionTag распознаёт строку-метку секции вида [NAME] (регистр не важен).
func sectionTag(line string) (string, bool) {
	if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
		return "", false
	}
	name := strings.ToUpper(line[1 : len(line)-1])
	if name != sectionGlobalFilter && name != sectionWordGroups {
		return "", false
	}
	return name, true
}

// parseGroup разбирает строки одного блока словесной группы.
// Исключающие слова попадают и в группу, и в общий плоский список.
func parseGroup(lines []string, flatFilters *[]string) Group {
	var group Group

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "@"):
			// Принимаются только положительные целые; остальное молча игнорируется.
			if n, err := strconv.Atoi(strings.TrimSpace(line[1:])); err == nil && n > 0 {
				group.MaxCount = n
			}
		case strings.HasPrefix(line, "!"):
			word := line[1:]
			group.FilterWords = append(group.FilterWords, word)
			*flatFilters = append(*flatFilters, word)
		case strings.HasPrefix(line, "+"):
			group.Required = append(group.Required, line[1:])
		default:
			group.Normal = append(group.Normal, line)
		}
	}

	if len(group.Normal) > 0 {
		group.Key = strings.Join(group.Normal, " ")
	} else {
		group.Key = strings.Join(group.Required, " ")
	}

	return group
}
