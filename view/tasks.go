// Package view renders pure view models from engine and backend state. Every
// function here is a pure computation over its inputs; nothing in this
// package performs I/O or mutates state.
package view

import (
	"fmt"
	"time"

	"github.com/cppla/solquest/models"
	"github.com/cppla/solquest/utils"
)

// TaskItem is one rendered task row.
type TaskItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	PointsLabel string `json:"points_label"`
	URL         string `json:"url,omitempty"`
	Completed   bool   `json:"completed"`
	Clickable   bool   `json:"clickable"`
}

// TaskListView is the full rendered task panel.
type TaskListView struct {
	LoggedIn bool       `json:"logged_in"`
	Items    []TaskItem `json:"items"`
}

// TaskList renders the task panel. A nil record renders the logged-out view:
// nothing is completed and nothing is clickable. Tasks without a real target
// URL render but stay inert even when logged in.
func TaskList(tasks []models.Task, record *models.UserRecord, now time.Time) TaskListView {
	loggedIn := record != nil
	items := make([]TaskItem, 0, len(tasks))
	for _, t := range tasks {
		completed := loggedIn && models.CompletedToday(record, t.ID, now)
		items = append(items, TaskItem{
			ID:          t.ID,
			Name:        utils.SanitizeText(t.Name),
			Icon:        t.Icon,
			PointsLabel: fmt.Sprintf("+%d 积分", t.Points),
			URL:         t.URL,
			Completed:   completed,
			Clickable:   loggedIn && t.Actionable() && !completed,
		})
	}
	return TaskListView{LoggedIn: loggedIn, Items: items}
}
