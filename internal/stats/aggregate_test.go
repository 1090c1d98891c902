package stats

import (
	"reflect"
	"testing"

	"github.com/maine/trendwatch_bot/internal/news"
	"github.com/maine/trendwatch_bot/internal/rulebook"
)

func newAggregator(rulesText string, rankThreshold int) *Aggregator {
	return NewAggregator(rulebook.Parse(rulesText), nil, rankThreshold)
}

func platform(name string, titles ...news.TitleHistory) news.PlatformHistory {
	return news.PlatformHistory{ID: name, Name: name, Titles: titles}
}

func TestHotList_FirstGroupWins(t *testing.T) {
	a := newAggregator("AI\n\n芯片", 3)

	entries, total := a.HotList([]news.PlatformHistory{
		platform("百度热搜",
			news.TitleHistory{Title: "AI芯片发布"},
			news.TitleHistory{Title: "芯片产能提升"},
			news.TitleHistory{Title: "国产芯片新进展"},
			news.TitleHistory{Title: "天气预报"},
		),
	})

	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	// Больше совпадений — выше; заголовок с обоими словами засчитан
	// только первой группе (AI), не 芯片.
	if entries[0].Word != "芯片" || entries[0].Count != 2 {
		t.Errorf("entries[0] = %s/%d, want 芯片/2", entries[0].Word, entries[0].Count)
	}
	if entries[1].Word != "AI" || entries[1].Count != 1 {
		t.Errorf("entries[1] = %s/%d, want AI/1", entries[1].Word, entries[1].Count)
	}
	if entries[1].Titles[0].Title != "AI芯片发布" {
		t.Errorf("AI titles = %+v, want AI芯片发布", entries[1].Titles)
	}
}

func TestHotList_PositionBreaksCountTie(t *testing.T) {
	a := newAggregator("AI\n\n芯片", 3)

	entries, _ := a.HotList([]news.PlatformHistory{
		platform("微博",
			news.TitleHistory{Title: "芯片新闻"},
			news.TitleHistory{Title: "AI新闻"},
		),
	})

	var words []string
	for _, e := range entries {
		words = append(words, e.Word)
	}
	// При равных счётчиках порядок групп рулбука.
	if want := []string{"AI", "芯片"}; !reflect.DeepEqual(words, want) {
		t.Errorf("order = %v, want %v", words, want)
	}
}

func TestHotList_MaxCountCapsTitlesOnly(t *testing.T) {
	a := newAggregator("芯片\n@2", 3)

	entries, _ := a.HotList([]news.PlatformHistory{
		platform("百度热搜",
			news.TitleHistory{Title: "芯片一"},
			news.TitleHistory{Title: "芯片二"},
			news.TitleHistory{Title: "芯片三"},
		),
	})

	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Count != 3 {
		t.Errorf("Count = %d, want 3 (cap must not shrink the counter)", entries[0].Count)
	}
	if len(entries[0].Titles) != 2 {
		t.Errorf("len(Titles) = %d, want 2", len(entries[0].Titles))
	}
}

func TestHotList_EmptyGroupsKeepZeroCount(t *testing.T) {
	a := newAggregator("AI\n\n量子计算", 3)

	entries, _ := a.HotList([]news.PlatformHistory{
		platform("微博", news.TitleHistory{Title: "AI新闻"}),
	})

	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2 (empty group still emitted)", len(entries))
	}
	if entries[1].Word != "量子计算" || entries[1].Count != 0 {
		t.Errorf("entries[1] = %s/%d, want 量子计算/0", entries[1].Word, entries[1].Count)
	}
}

func TestHotList_FiltersReject(t *testing.T) {
	text := "[GLOBAL_FILTER]\n广告\n\n[WORD_GROUPS]\nAI\n!测试"
	a := newAggregator(text, 3)

	entries, _ := a.HotList([]news.PlatformHistory{
		platform("百度热搜",
			news.TitleHistory{Title: "AI广告投放"},
			news.TitleHistory{Title: "AI测试版泄露"},
			news.TitleHistory{Title: "AI正式版上线"},
		),
	})

	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Count != 1 {
		t.Errorf("Count = %d, want 1 (filtered titles must not count)", entries[0].Count)
	}
	if entries[0].Titles[0].Title != "AI正式版上线" {
		t.Errorf("Titles[0] = %q, want AI正式版上线", entries[0].Titles[0].Title)
	}
}

func TestHotList_PassThroughWithoutGroups(t *testing.T) {
	a := newAggregator("", 3)

	entries, total := a.HotList([]news.PlatformHistory{
		platform("百度热搜",
			news.TitleHistory{Title: "新闻一"},
			news.TitleHistory{Title: "新闻二"},
		),
		platform("微博", news.TitleHistory{Title: "новость"}),
	})

	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	// Без рулбука записи группируются по платформам.
	if entries[0].Word != "百度热搜" || entries[0].Count != 2 {
		t.Errorf("entries[0] = %s/%d, want 百度热搜/2", entries[0].Word, entries[0].Count)
	}
	if entries[1].Word != "微博" || entries[1].Count != 1 {
		t.Errorf("entries[1] = %s/%d, want 微博/1", entries[1].Word, entries[1].Count)
	}
}

func TestHotList_GlobalFilterAppliesInPassThrough(t *testing.T) {
	a := newAggregator("[GLOBAL_FILTER]\n广告", 3)

	entries, _ := a.HotList([]news.PlatformHistory{
		platform("微博",
			news.TitleHistory{Title: "广告位招租"},
			news.TitleHistory{Title: "обычная новость"},
		),
	})

	if len(entries) != 1 || entries[0].Count != 1 {
		t.Fatalf("entries = %+v, want single entry with 1 title", entries)
	}
}

func TestHotList_HistoryFieldsPropagate(t *testing.T) {
	a := newAggregator("AI", 5)

	entries, _ := a.HotList([]news.PlatformHistory{
		platform("百度热搜", news.TitleHistory{
			Title:     "AI助手",
			URL:       "https://example.com/n",
			MobileURL: "https://m.example.com/n",
			Ranks:     []int{2, 5},
			FirstSeen: "09:00",
			LastSeen:  "12:30",
			Count:     3,
			IsNew:     true,
		}),
	})

	got := entries[0].Titles[0]
	want := news.TitleEntry{
		Title:         "AI助手",
		SourceName:    "百度热搜",
		TimeDisplay:   "09:00 ~ 12:30",
		Count:         3,
		Ranks:         []int{2, 5},
		RankThreshold: 5,
		URL:           "https://example.com/n",
		MobileURL:     "https://m.example.com/n",
		IsNew:         true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("title entry = %+v, want %+v", got, want)
	}
}

func TestTimeDisplay(t *testing.T) {
	tests := []struct {
		first, last, want string
	}{
		{"09:00", "12:30", "09:00 ~ 12:30"},
		{"09:00", "09:00", "09:00"},
		{"09:00", "", "09:00"},
		{"", "12:30", ""},
	}
	for _, tt := range tests {
		if got := timeDisplay(tt.first, tt.last); got != tt.want {
			t.Errorf("timeDisplay(%q, %q) = %q, want %q", tt.first, tt.last, got, tt.want)
		}
	}
}

func TestFeeds_SplitsPersonalFromKeyword(t *testing.T) {
	a := newAggregator("AI", 3)

	feeds := []news.FeedItems{
		{FeedID: "techfeed", FeedName: "TechFeed", Items: []news.FeedItem{
			{Title: "AI обновление", URL: "https://techfeed.example/ai", Position: 2},
			{Title: "спортивные итоги", Position: 3},
		}},
		{FeedID: "blog", FeedName: "Блог Иванова", Personal: true, Items: []news.FeedItem{
			{Title: "личный пост", URL: "https://blog.example/p", Position: 1},
		}},
	}

	keyword, personal := a.Feeds(feeds, "Личные ленты")

	if len(keyword) != 1 {
		t.Fatalf("len(keyword) = %d, want 1", len(keyword))
	}
	if keyword[0].Word != "AI" || keyword[0].Count != 1 {
		t.Errorf("keyword[0] = %s/%d, want AI/1", keyword[0].Word, keyword[0].Count)
	}
	kt := keyword[0].Titles[0]
	if kt.SourceName != "TechFeed" || !reflect.DeepEqual(kt.Ranks, []int{2}) {
		t.Errorf("keyword title = %+v, want TechFeed with ranks [2]", kt)
	}

	if len(personal) != 1 {
		t.Fatalf("len(personal) = %d, want 1", len(personal))
	}
	p := personal[0]
	if p.Word != "Личные ленты" || p.Kind != news.StatPersonalFeed || p.Count != 1 {
		t.Errorf("personal = %+v, want labelled personal_feed group with 1 title", p)
	}
	if p.Titles[0].SourceName != "Блог Иванова" || !reflect.DeepEqual(p.Titles[0].Ranks, []int{1}) {
		t.Errorf("personal title = %+v, want Блог Иванова with ranks [1]", p.Titles[0])
	}
}

func TestFeeds_NoPersonalFeeds(t *testing.T) {
	a := newAggregator("AI", 3)

	keyword, personal := a.Feeds([]news.FeedItems{
		{FeedName: "TechFeed", Items: []news.FeedItem{{Title: "AI новости", Position: 1}}},
	}, "Личные ленты")

	if len(personal) != 0 {
		t.Errorf("personal = %+v, want empty", personal)
	}
	if len(keyword) != 1 {
		t.Errorf("len(keyword) = %d, want 1", len(keyword))
	}
}
