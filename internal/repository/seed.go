package repository

import (
	"fmt"
	"os"
	"strings"

	"olo_mining/internal/domain"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Tasks []seedTask `yaml:"tasks"`
}

type seedTask struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	// Accepts 1, 1.5 or "1.5".
	Reward string `yaml:"reward"`
	Link   string `yaml:"link"`
}

// LoadSeedTasks reads the initial task list from a YAML file. An empty path
// returns the built-in list.
func LoadSeedTasks(path string) ([]domain.Task, error) {
	if path == "" {
		return domain.SeedTasks(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeedTasks(raw)
}

func ParseSeedTasks(raw []byte) ([]domain.Task, error) {
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	tasks := make([]domain.Task, 0, len(f.Tasks))
	seen := make(map[string]bool, len(f.Tasks))
	for i, st := range f.Tasks {
		if st.ID == "" || st.Title == "" {
			return nil, fmt.Errorf("seed task %d: id and title are required", i)
		}
		if seen[st.ID] {
			return nil, fmt.Errorf("seed task %d: duplicate id %q", i, st.ID)
		}
		seen[st.ID] = true

		reward := decimal.NewFromInt(1)
		if s := strings.TrimSpace(st.Reward); s != "" {
			r, err := decimal.NewFromString(s)
			if err != nil {
				return nil, fmt.Errorf("seed task %q: bad reward %q", st.ID, st.Reward)
			}
			reward = r
		}
		link := st.Link
		if link == "" {
			link = domain.PlaceholderLink
		}
		tasks = append(tasks, domain.Task{
			ID:          st.ID,
			Title:       st.Title,
			Description: st.Description,
			Reward:      reward,
			Link:        link,
		})
	}
	return tasks, nil
}
