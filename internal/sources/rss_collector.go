package sources

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/maine/trendwatch_bot/internal/config"
	"github.com/maine/trendwatch_bot/internal/news"
)

// browserUserAgent используется всеми коллекторами: часть источников
// отвечает 403 на запросы без реалистичных браузерных заголовков.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// maxItemsPerFeed ограничивает число записей с одной ленты за опрос.
// Защита от лент, отдающих весь архив целиком.
const maxItemsPerFeed = 50

// FeedCollector загружает записи из RSS/Atom-лент.
type FeedCollector struct {
	feeds  []config.Feed
	client *http.Client
}

// NewFeedCollector создаёт новый экземпляр.
func NewFeedCollector(feeds []config.Feed, client *http.Client) *FeedCollector {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &FeedCollector{feeds: feeds, client: client}
}

// Collect опрашивает все настроенные ленты. Ошибка одной ленты не
// прерывает остальные: лента просто выпадает из текущего запуска.
func (c *FeedCollector) Collect(ctx context.Context) []news.FeedItems {
	var results []news.FeedItems
	for _, feed := range c.feeds {
		if strings.TrimSpace(feed.URL) == "" {
			continue
		}

		items, err := c.fetchFeed(ctx, feed)
		if err != nil {
			log.Printf("Error fetching feed %s (%s): %v", feed.ID, feed.Name, err)
			continue
		}

		results = append(results, news.FeedItems{
			FeedID:   feed.ID,
			FeedName: feed.Name,
			Personal: !feed.Keyword(),
			Items:    items,
		})
	}
	return results
}

func (c *FeedCollector) fetchFeed(ctx context.Context, feed config.Feed) ([]news.FeedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	// Реалистичные заголовки браузера, чтобы избежать блокировки (403 Forbidden)
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,ru;q=0.8,en;q=0.7")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("DNT", "1")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	// 4xx возвращаем сразу: повтор блокировку не снимет
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	parsed, err := parseFeed(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	// Обрабатываем только первые записи ленты (обычно самые свежие)
	if len(parsed) > maxItemsPerFeed {
		parsed = parsed[:maxItemsPerFeed]
	}

	items := make([]news.FeedItem, 0, len(parsed))
	for _, entry := range parsed {
		title := strings.TrimSpace(entry.title)
		link := strings.TrimSpace(entry.link)
		if title == "" || link == "" {
			continue
		}
		items = append(items, news.FeedItem{
			Title:    title,
			URL:      link,
			Position: len(items) + 1, // позиция в ленте, 1 = самая свежая
		})
	}
	return items, nil
}

// --- Разбор лент ---

// parsedItem — запись ленты после разбора, формат источника уже не важен.
type parsedItem struct {
	title string
	link  string
}

type rssFeed struct {
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title string `xml:"title"`
	Link  string `xml:"link"`
}

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title string     `xml:"title"`
	Links []atomLink `xml:"link"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

// linkHref выбирает ссылку записи: alternate (или без rel), иначе первая.
func (e atomEntry) linkHref() string {
	for _, l := range e.Links {
		if l.Rel == "" || l.Rel == "alternate" {
			return l.Href
		}
	}
	if len(e.Links) > 0 {
		return e.Links[0].Href
	}
	return ""
}

// parseFeed разбирает RSS 2.0, а если записей не нашлось — Atom:
// личные блоги часто отдают именно его.
func parseFeed(data []byte) ([]parsedItem, error) {
	data = fixXMLEntities(data)

	var rss rssFeed
	if err := unmarshalLenient(data, &rss); err == nil && len(rss.Channel.Items) > 0 {
		items := make([]parsedItem, 0, len(rss.Channel.Items))
		for _, it := range rss.Channel.Items {
			items = append(items, parsedItem{title: it.Title, link: it.Link})
		}
		return items, nil
	}

	var atom atomFeed
	if err := unmarshalLenient(data, &atom); err != nil {
		return nil, fmt.Errorf("parse feed XML: %w", err)
	}
	if len(atom.Entries) == 0 {
		return nil, fmt.Errorf("no RSS items or Atom entries found")
	}

	items := make([]parsedItem, 0, len(atom.Entries))
	for _, e := range atom.Entries {
		items = append(items, parsedItem{title: e.Title, link: e.linkHref()})
	}
	return items, nil
}

// unmarshalLenient сначала пытается стандартный разбор, затем толерантный
// декодер: часть лент содержит формально некорректный XML.
func unmarshalLenient(data []byte, v any) error {
	if err := xml.Unmarshal(data, v); err != nil {
		decoder := xml.NewDecoder(bytes.NewReader(data))
		decoder.Strict = false
		return decoder.Decode(v)
	}
	return nil
}

// fixXMLEntities исправляет распространённые проблемы с XML-сущностями.
// Некоторые сайты используют & вместо &amp; в тексте.
func fixXMLEntities(data []byte) []byte {
	result := bytes.ReplaceAll(data, []byte("& "), []byte("&amp; "))
	result = bytes.ReplaceAll(result, []byte("&,"), []byte("&amp;,"))
	result = bytes.ReplaceAll(result, []byte("&."), []byte("&amp;."))
	result = bytes.ReplaceAll(result, []byte("&;"), []byte("&amp;;"))
	return result
}
