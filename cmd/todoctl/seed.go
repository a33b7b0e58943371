package main

import (
	"fmt"
	"os"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/todosync/todosync-server/internal/domain"
	"github.com/todosync/todosync-server/internal/service"
)

// seedFile is the fixture format accepted by `todoctl seed`.
//
//	owner: user-1
//	defaults: true
//	categories:
//	  - name: Errands
//	    color: "#795548"
//	todos:
//	  - title: Buy milk
//	    category: Errands
//	    priority: high
//	    due_date: 2026-01-15
type seedFile struct {
	Owner      string                 `yaml:"owner"`
	Defaults   bool                   `yaml:"defaults"`
	Categories []domain.CategoryInput `yaml:"categories"`
	Todos      []seedTodo             `yaml:"todos"`
}

type seedTodo struct {
	Title         string        `yaml:"title"`
	Description   string        `yaml:"description"`
	Completed     bool          `yaml:"completed"`
	Priority      string        `yaml:"priority"`
	Category      string        `yaml:"category"` // category name
	Tags          []string      `yaml:"tags"`
	DueDate       *time.Time    `yaml:"due_date"`
	ReminderDate  *time.Time    `yaml:"reminder_date"`
	Subtasks      []seedSubtask `yaml:"subtasks"`
	EstimatedTime *int          `yaml:"estimated_time"`
	ActualTime    *int          `yaml:"actual_time"`
}

type seedSubtask struct {
	Title     string `yaml:"title"`
	Completed bool   `yaml:"completed"`
}

func loadSeedFile(path string) (*seedFile, error) {
	//#nosec G304 -- fixture path comes from the operator
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if f.Owner == "" {
		return nil, fmt.Errorf("seed file %s: owner is required", path)
	}
	return &f, nil
}

func (t seedTodo) input(categoryIDs map[string]string) (domain.TodoInput, error) {
	in := domain.TodoInput{
		Title:         t.Title,
		Description:   t.Description,
		Completed:     t.Completed,
		Priority:      domain.Priority(t.Priority),
		Tags:          t.Tags,
		DueDate:       t.DueDate,
		ReminderDate:  t.ReminderDate,
		EstimatedTime: t.EstimatedTime,
		ActualTime:    t.ActualTime,
	}
	if t.Category != "" {
		id, ok := categoryIDs[t.Category]
		if !ok {
			return in, fmt.Errorf("todo %q: unknown category %q", t.Title, t.Category)
		}
		in.CategoryID = id
	}
	for _, s := range t.Subtasks {
		in.Subtasks = append(in.Subtasks, domain.Subtask{Title: s.Title, Completed: s.Completed})
	}
	return in, nil
}

func newSeedCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load categories and todos from a YAML fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := loadSeedFile(args[0])
			if err != nil {
				return err
			}

			injector := flags.container()
			defer func() { _ = injector.Shutdown() }()

			categories, err := do.Invoke[*service.CategoryService](injector)
			if err != nil {
				return err
			}
			todos, err := do.Invoke[*service.TodoService](injector)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			owner := fixture.Owner

			if fixture.Defaults {
				if _, err := categories.CreateDefaultCategories(ctx, owner); err != nil {
					return fmt.Errorf("create default categories: %w", err)
				}
			}
			for _, c := range fixture.Categories {
				if _, err := categories.CreateCategory(ctx, owner, c); err != nil {
					return fmt.Errorf("create category %q: %w", c.Name, err)
				}
			}

			existing, err := categories.ListCategories(ctx, owner)
			if err != nil {
				return err
			}
			categoryIDs := make(map[string]string, len(existing))
			for _, c := range existing {
				categoryIDs[c.Name] = c.ID
			}

			for _, t := range fixture.Todos {
				in, err := t.input(categoryIDs)
				if err != nil {
					return err
				}
				if _, err := todos.CreateTodo(ctx, owner, in); err != nil {
					return fmt.Errorf("create todo %q: %w", t.Title, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d categories and %d todos for %s\n",
				len(existing), len(fixture.Todos), owner)
			return nil
		},
	}
}
