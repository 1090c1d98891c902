package rulebook

import (
	"regexp"
	"strings"
	"sync"
)

// patternCacheCap ограничивает размер кэша скомпилированных шаблонов.
// Кэш — чистая мемоизация: при переполнении его можно сбросить целиком
// без влияния на корректность.
const patternCacheCap = 4096

// Matcher решает, допускается ли заголовок рулбуком. Держит кэш
// скомпилированных граничных шаблонов; чтение из кэша безопасно
// для конкурентных вызовов.
type Matcher struct {
	mu       sync.RWMutex
	patterns map[string]*regexp.Regexp
}

// NewMatcher создаёт матчер с пустым кэшем шаблонов.
func NewMatcher() *Matcher {
	return &Matcher{patterns: make(map[string]*regexp.Regexp)}
}

// KeywordInTitle сообщает, встречается ли ключевое слово в заголовке.
// Для коротких чисто-ASCII слов (2–4 символа, буквы/цифры) действует
// граничное правило: слово не должно соприкасаться с другими ASCII
// буквами/цифрами, но может стоять вплотную к не-ASCII символам —
// так "AI" находится в "AI新能源", но не в "Air" и не в "arrAIgned".
// Остальные слова ищутся обычным вхождением подстроки без учёта регистра.
func (m *Matcher) KeywordInTitle(title, keyword string) bool {
	return m.keywordIn(title, strings.ToLower(title), keyword)
}

// keywordIn — внутренний вариант с заранее опущенным регистром заголовка,
// чтобы не пересчитывать его в циклах по словам группы.
func (m *Matcher) keywordIn(title, titleLower, keyword string) bool {
	if keyword == "" {
		return false
	}

	if shortASCIIAlnum(keyword) {
		return m.boundaryPattern(strings.ToLower(keyword)).MatchString(title)
	}

	return strings.Contains(titleLower, strings.ToLower(keyword))
}

// MatchesGroup проверяет заголовок против одной группы: обязательные
// слова должны совпасть все, из обычных достаточно любого; пустой
// набор считается выполненным. Исключающие слова здесь не участвуют —
// их применяет Admits на уровне всего рулбука.
func (m *Matcher) MatchesGroup(title string, group Group) bool {
	if title == "" {
		return false
	}
	titleLower := strings.ToLower(title)

	for _, w := range group.Required {
		if !m.keywordIn(title, titleLower, w) {
			return false
		}
	}

	if len(group.Normal) > 0 {
		anyNormal := false
		for _, w := range group.Normal {
			if m.keywordIn(title, titleLower, w) {
				anyNormal = true
				break
			}
		}
		if !anyNormal {
			return false
		}
	}

	return true
}

// Admits решает, допускается ли заголовок рулбуком:
//  1. совпадение с глобальным фильтром отклоняет сразу, приоритетнее всего;
//  2. рулбук без групп пропускает всё (режим "показывать все новости");
//  3. совпадение с любым исключающим словом отклоняет;
//  4. иначе заголовок допущен, если его приняла хотя бы одна группа.
//
// Пустой или пробельный заголовок не допускается никогда.
func (m *Matcher) Admits(title string, rb Rulebook) bool {
	if strings.TrimSpace(title) == "" {
		return false
	}
	titleLower := strings.ToLower(title)

	for _, w := range rb.GlobalFilters {
		if m.keywordIn(title, titleLower, w) {
			return false
		}
	}

	if len(rb.Groups) == 0 {
		return true
	}

	for _, w := range rb.FilterWords {
		if m.keywordIn(title, titleLower, w) {
			return false
		}
	}

	for _, group := range rb.Groups {
		if m.MatchesGroup(title, group) {
			return true
		}
	}

	return false
}

// shortASCIIAlnum сообщает, нужно ли слову граничное ASCII-правило:
// только 2–4 символа, и все — ASCII буквы или цифры. Обычный \b здесь
// не годится: под Юникодом CJK-символы считаются "словесными", и "AI"
// не нашлось бы в "AI新能源".
func shortASCIIAlnum(keyword string) bool {
	if len(keyword) < 2 || len(keyword) > 4 {
		return false
	}
	for i := 0; i < len(keyword); i++ {
		c := keyword[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		default:
			return false
		}
	}
	return true
}

// boundaryPattern возвращает скомпилированный граничный шаблон для слова
// в нижнем регистре, кэшируя результат. RE2 не поддерживает lookaround,
// поэтому границы записаны поглощающими альтернативами — для булевой
// проверки поиска это эквивалентно.
func (m *Matcher) boundaryPattern(keywordLower string) *regexp.Regexp {
	m.mu.RLock()
	p, ok := m.patterns[keywordLower]
	m.mu.RUnlock()
	if ok {
		return p
	}

	p = regexp.MustCompile(`(?i)(?:^|[^A-Za-z0-9])` + regexp.QuoteMeta(keywordLower) + `(?:[^A-Za-z0-9]|$)`)

	m.mu.Lock()
	if len(m.patterns) >= patternCacheCap {
		m.patterns = make(map[string]*regexp.Regexp)
	}
	m.patterns[keywordLower] = p
	m.mu.Unlock()

	return p
}
