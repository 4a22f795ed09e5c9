package domain

import "github.com/shopspring/decimal"

// PlaceholderLink marks a task with nothing to open.
const PlaceholderLink = "#"

type Task struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Reward      decimal.Decimal `json:"reward"`
	Link        string          `json:"link"`
	IsCompleted bool            `json:"isCompleted"`
}

// HasLink is false for the placeholder link.
func (t Task) HasLink() bool {
	return t.Link != "" && t.Link != PlaceholderLink
}

// SeedTasks is the task list of a fresh install.
func SeedTasks() []Task {
	one := decimal.NewFromInt(1)
	return []Task{
		{ID: "1", Title: "Join Telegram Channel", Description: "Subscribe to our official channel", Reward: one, Link: "https://t.me/olo_official"},
		{ID: "2", Title: "Follow on Twitter/X", Description: "Follow our official X handle", Reward: one, Link: "https://twitter.com/olo_token"},
		{ID: "3", Title: "Subscribe to YouTube", Description: "Watch our latest video and subscribe", Reward: one, Link: "https://youtube.com"},
		{ID: "4", Title: "Share to Story", Description: "Post our app on your Telegram story", Reward: one, Link: PlaceholderLink},
		{ID: "5", Title: "Daily Login Reward", Description: "Claim your daily attendance OLO", Reward: one, Link: PlaceholderLink},
	}
}
