package news

// Mode определяет вид отчёта за запуск.
type Mode string

const (
	// ModeDaily — сводка за весь день (реестр целиком).
	ModeDaily Mode = "daily"
	// ModeIncremental — только заголовки, впервые увиденные в этом запуске.
	ModeIncremental Mode = "incremental"
	// ModeCurrent — срез текущего состояния лент без дневной истории.
	ModeCurrent Mode = "current"
)

// RawTitle описывает одну позицию горячего списка сразу после опроса платформы.
type RawTitle struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	MobileURL string `json:"mobile_url"`
	Rank      int    `json:"rank"` // позиция в списке, от 1
}

// SourceTitles — результат одного опроса одной платформы.
type SourceTitles struct {
	SourceID   string     `json:"source_id"`
	SourceName string     `json:"source_name"`
	Titles     []RawTitle `json:"titles"`
}

// FeedItem — одна запись RSS-ленты.
type FeedItem struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Position int    `json:"position"` // позиция в ленте, от 1 (меньше = свежее)
}

// FeedItems — содержимое одной RSS-ленты за один опрос.
// Personal помечает ленты, которые не проходят фильтр по ключевым словам
// и попадают в отчёт отдельным дайджестом по лентам.
type FeedItems struct {
	FeedID   string     `json:"feed_id"`
	FeedName string     `json:"feed_name"`
	Personal bool       `json:"personal"`
	Items    []FeedItem `json:"items"`
}

// TitleEntry — нормализованный заголовок внутри статистики отчёта.
type TitleEntry struct {
	Title         string `json:"title"`
	SourceName    string `json:"source_name"`
	TimeDisplay   string `json:"time_display"`
	Count         int    `json:"count"`
	Ranks         []int  `json:"ranks"`
	RankThreshold int    `json:"rank_threshold"`
	URL           string `json:"url"`
	MobileURL     string `json:"mobile_url"`
	IsNew         bool   `json:"is_new"`
}

// StatKind различает происхождение статистической группы.
// Явный дискриминатор вместо сравнения отображаемого имени группы:
// подпись личной ленты можно локализовать, не ломая классификацию.
type StatKind string

const (
	// StatKeyword — группа, собранная по ключевым словам рулбука.
	StatKeyword StatKind = "keyword"
	// StatPersonalFeed — зарезервированная группа личных лент (без фильтрации).
	StatPersonalFeed StatKind = "personal_feed"
)

// StatEntry — статистика одной группы: ключевой (word = ключ группы)
// или личной ленты (word = имя ленты после перегруппировки).
type StatEntry struct {
	Word       string       `json:"word"`
	Kind       StatKind     `json:"kind,omitempty"`
	Count      int          `json:"count"`
	Position   int          `json:"position"`   // приоритет сортировки, меньше = раньше
	Percentage float64      `json:"percentage"` // справочное значение, на порядок не влияет
	Titles     []TitleEntry `json:"titles"`
}

// NewTitle — сырые данные нового заголовка до нормализации.
type NewTitle struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	MobileURL string `json:"mobile_url"`
	Ranks     []int  `json:"ranks"`
}

// SourceDelta — новые заголовки одного источника за текущий запуск.
type SourceDelta struct {
	SourceID   string     `json:"source_id"`
	SourceName string     `json:"source_name"`
	Titles     []NewTitle `json:"titles"`
}

// NewTitleGroup — блок новых заголовков источника в готовом отчёте.
type NewTitleGroup struct {
	SourceID   string       `json:"source_id"`
	SourceName string       `json:"source_name"`
	Titles     []TitleEntry `json:"titles"`
}

// ReportPayload — итоговая структура отчёта, передаваемая рендерам.
type ReportPayload struct {
	Stats         []StatEntry     `json:"stats"`
	NewTitles     []NewTitleGroup `json:"new_titles"`
	RSSStats      []StatEntry     `json:"rss_stats"`     // только дайджесты личных лент
	RSSNewStats   []StatEntry     `json:"rss_new_stats"` // всегда пусто, оставлено для совместимости формата
	FailedIDs     []string        `json:"failed_ids"`
	TotalNewCount int             `json:"total_new_count"`
}

// TitleHistory — накопленная за день история одного заголовка платформы.
type TitleHistory struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	MobileURL string `json:"mobile_url"`
	Ranks     []int  `json:"ranks"`      // позиции по всем опросам дня
	FirstSeen string `json:"first_seen"` // "15:04"
	LastSeen  string `json:"last_seen"`  // "15:04"
	Count     int    `json:"count"`      // в скольких опросах встречался
	IsNew     bool   `json:"is_new"`     // впервые увиден в последнем опросе
}

// PlatformHistory — дневная история одной платформы, заголовки в порядке
// первого появления (для детерминированного вывода — срезы, не map).
type PlatformHistory struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Titles []TitleHistory `json:"titles"`
}

// DayRegistry — реестр всех заголовков за день.
type DayRegistry struct {
	Date      string            `json:"date"` // "2006-01-02"
	Platforms []PlatformHistory `json:"platforms"`
}
