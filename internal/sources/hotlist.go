package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maine/trendwatch_bot/internal/config"
	"github.com/maine/trendwatch_bot/internal/news"
)

// maxItemsPerList ограничивает число позиций с одной платформы за опрос.
const maxItemsPerList = 50

// HotListCollector опрашивает HTTP-агрегатор горячих списков:
// GET {base}/api/s?id={platform}&latest на каждую платформу.
type HotListCollector struct {
	baseURL   string
	platforms []config.Platform
	client    *http.Client
}

// NewHotListCollector создаёт новый экземпляр.
func NewHotListCollector(baseURL string, platforms []config.Platform, client *http.Client) *HotListCollector {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HotListCollector{
		baseURL:   strings.TrimRight(baseURL, "/"),
		platforms: platforms,
		client:    client,
	}
}

// Collect опрашивает все платформы. Вторым значением возвращаются ID
// платформ, которые опросить не удалось: сбой одной не прерывает
// остальные, а список сбоев попадает в отчёт.
func (c *HotListCollector) Collect(ctx context.Context) ([]news.SourceTitles, []string) {
	var results []news.SourceTitles
	var failed []string

	for _, platform := range c.platforms {
		titles, err := c.fetchPlatform(ctx, platform.ID)
		if err != nil {
			log.Printf("Error fetching hot list %s (%s): %v", platform.ID, platform.Name, err)
			failed = append(failed, platform.ID)
			continue
		}

		name := platform.Name
		if name == "" {
			name = platform.ID
		}
		results = append(results, news.SourceTitles{
			SourceID:   platform.ID,
			SourceName: name,
			Titles:     titles,
		})
	}

	return results, failed
}

// hotListResponse — ответ /api/s агрегатора.
type hotListResponse struct {
	Status string        `json:"status"`
	Items  []hotListItem `json:"items"`
}

// hotListItem принимает оба исторических написания мобильной ссылки;
// канонизация происходит здесь, на границе ввода, и дальше по коду
// живёт единственное поле.
type hotListItem struct {
	Title          string `json:"title"`
	URL            string `json:"url"`
	MobileURL      string `json:"mobile_url"`
	MobileURLCamel string `json:"mobileUrl"`
}

func (i hotListItem) mobileURL() string {
	if i.MobileURL != "" {
		return i.MobileURL
	}
	return i.MobileURLCamel
}

func (c *HotListCollector) fetchPlatform(ctx context.Context, id string) ([]news.RawTitle, error) {
	reqURL := fmt.Sprintf("%s/api/s?id=%s&latest", c.baseURL, url.QueryEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var parsed hotListResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse hot list JSON: %w", err)
	}

	// Агрегатор отвечает success на свежие данные и cache на данные из
	// кэша; всё остальное — сбой платформы.
	if parsed.Status != "" && parsed.Status != "success" && parsed.Status != "cache" {
		return nil, fmt.Errorf("hot list status %q", parsed.Status)
	}

	titles := make([]news.RawTitle, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if len(titles) == maxItemsPerList {
			break
		}
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		titles = append(titles, news.RawTitle{
			Title:     title,
			URL:       strings.TrimSpace(item.URL),
			MobileURL: strings.TrimSpace(item.mobileURL()),
			Rank:      len(titles) + 1, // позиция в списке, 1 = вершина
		})
	}
	return titles, nil
}
