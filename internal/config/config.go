package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type (
	// Root объединяет все конфигурационные блоки.
	Root struct {
		Report   Report   `yaml:"report"`
		HotList  HotList  `yaml:"hotlist"`
		Telegram Telegram `yaml:"telegram"`
		Gemini   Gemini   `yaml:"gemini"`
	}

	// Report описывает параметры формирования отчёта.
	Report struct {
		Mode          string `yaml:"mode"`           // daily | incremental | current
		RankThreshold int    `yaml:"rank_threshold"` // подсветка заголовков с рангом не выше порога
		RulebookPath  string `yaml:"rulebook_path"`
		PersonalLabel string `yaml:"personal_label"` // подпись сводной группы личных лент
		OutputDir     string `yaml:"output_dir"`
		StateDir      string `yaml:"state_dir"`
		IndexCopy     bool   `yaml:"index_copy"` // копировать дневную сводку в index.html
	}

	// HotList описывает доступ к агрегатору горячих списков.
	HotList struct {
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	}

	// Telegram перечисляет чаты доставки дайджеста.
	Telegram struct {
		ChatIDs             []string `yaml:"chat_ids"`
		MessageDelaySeconds int      `yaml:"message_delay_seconds"`
		MaxMessages         int      `yaml:"max_messages"` // лимит сообщений дайджеста на запуск
	}

	// Gemini содержит настройки модели для сводки отчёта.
	Gemini struct {
		Model       string `yaml:"model"`
		BriefGroups int    `yaml:"brief_groups"` // сколько верхних групп уходит в сводку
	}

	// SourcesRoot описывает список опрашиваемых источников.
	SourcesRoot struct {
		Platforms []Platform `yaml:"platforms"`
		Feeds     []Feed     `yaml:"feeds"`
	}

	// Platform — одна платформа горячих списков.
	Platform struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	}

	// Feed — одна RSS-лента.
	Feed struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
		URL  string `yaml:"url"`
		// FilterByKeywords управляет фильтрацией ленты по рулбуку.
		// По умолчанию включена; false переводит ленту в личный дайджест,
		// который показывается без фильтрации.
		FilterByKeywords *bool `yaml:"filter_by_keywords,omitempty"`
	}
)

// Keyword сообщает, проходит ли лента фильтрацию по ключевым словам.
func (f Feed) Keyword() bool {
	return f.FilterByKeywords == nil || *f.FilterByKeywords
}

// LoadRoot читает основной файл конфигурации.
func LoadRoot(path string) (Root, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Root{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Root
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Root{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// LoadSources читает конфиг со списком источников.
func LoadSources(path string) (SourcesRoot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SourcesRoot{}, fmt.Errorf("read sources config: %w", err)
	}

	var cfg SourcesRoot
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SourcesRoot{}, fmt.Errorf("unmarshal sources config: %w", err)
	}
	return cfg, nil
}
