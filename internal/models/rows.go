// Package models holds the per-table records the store boundary produces and
// consumes. Rows carry ISO-8601 UTC timestamps; snapshot dates are ISO dates
// in Asia/Shanghai.
package models

import (
	json "github.com/goccy/go-json"
)

const (
	TableAccounts         = "accounts"
	TableAccountVideos    = "account_videos"
	TableCategories       = "categories"
	TableEntries          = "entries"
	TableSourcingItems    = "sourcing_items"
	TableSchemes          = "schemes"
	TableBlueLinks        = "blue_link_mappings"
	TableKeywords         = "keywords"
	TableQuestions        = "questions"
	TableQuestionKeywords = "question_keywords"
	TableQuestionStats    = "question_stats"
)

type Account struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	HomepageURL string `json:"homepage_url"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// VideoStats is the normalized stat bundle. All five counters are written on
// every upsert; zero is a real value, not an omission.
type VideoStats struct {
	View     int64 `json:"view"`
	Like     int64 `json:"like"`
	Favorite int64 `json:"favorite"`
	Reply    int64 `json:"reply"`
	Danmaku  int64 `json:"danmaku"`
}

type AccountVideo struct {
	AccountID int64           `json:"account_id"`
	Bvid      string          `json:"bvid"`
	Title     string          `json:"title"`
	CoverURL  string          `json:"cover_url"`
	Duration  string          `json:"duration"`
	PubTime   string          `json:"pub_time"`
	Owner     string          `json:"owner"`
	Stats     VideoStats      `json:"stats"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	UpdatedAt string          `json:"updated_at"`
}

type Category struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
	CreatedAt string `json:"created_at,omitempty"`
}

type Entry struct {
	ID         int64           `json:"id,omitempty"`
	CategoryID int64           `json:"category_id"`
	Title      string          `json:"title"`
	URL        string          `json:"url"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	CreatedAt  string          `json:"created_at,omitempty"`
	UpdatedAt  string          `json:"updated_at,omitempty"`
}

type SourcingItem struct {
	ID        int64  `json:"id,omitempty"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Platform  string `json:"platform"`
	SKU       string `json:"sku,omitempty"`
	Price     string `json:"price,omitempty"`
	CoverURL  string `json:"cover_url,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type Scheme struct {
	ID        string          `json:"id"`
	Name      string          `json:"name,omitempty"`
	SortOrder int             `json:"sort_order"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	UpdatedAt string          `json:"updated_at,omitempty"`
}

type BlueLink struct {
	ID         int64  `json:"id,omitempty"`
	AccountID  int64  `json:"account_id"`
	ProductID  string `json:"product_id"`
	Platform   string `json:"platform"`
	SourceLink string `json:"source_link"`
	Title      string `json:"title,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

type Keyword struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

type Question struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	URL            string `json:"url"`
	FirstKeywordID int64  `json:"first_keyword_id"`
	CreatedAt      string `json:"created_at,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

type QuestionKeyword struct {
	QuestionID int64  `json:"question_id"`
	KeywordID  int64  `json:"keyword_id"`
	FirstSeen  string `json:"first_seen,omitempty"`
	LastSeen   string `json:"last_seen"`
}

type QuestionStat struct {
	QuestionID   int64  `json:"question_id"`
	SnapshotDate string `json:"snapshot_date"`
	ViewCount    int64  `json:"view_count"`
	AnswerCount  int64  `json:"answer_count"`
}
