package cli

import (
	"errors"
	"fmt"
	"strings"

	"workboard/internal/board"
	"workboard/internal/form"
	"workboard/internal/model"

	"github.com/spf13/cobra"
)

type categoryOut struct {
	Category model.Category `json:"category"`
	Count    int            `json:"count"`
	Items    []model.Work   `json:"items"`
}

// withBoard opens a session on the configured board file, runs fn and closes
// the session. Commands that change the board fail if the mirror write failed.
func withBoard(cmd *cobra.Command, app *App, fn func(s *session, coord *board.Coordinator) error) error {
	cfg, err := loadConfig(app)
	if err != nil {
		return err
	}
	if cfg.DB == "" {
		return errNoDB
	}
	s, err := openSession(cmd.Context(), app)
	if err != nil {
		return err
	}
	coord := board.NewCoordinator(s.store, nil, board.WithCoordinatorLogger(s.log))
	runErr := fn(s, coord)
	if err := s.Close(); runErr == nil && err != nil {
		runErr = fmt.Errorf("write %s: %w", s.cfg.DB, err)
	}
	return runErr
}

func newListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list [category]",
		Short: "List works per category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(cmd, app, func(s *session, _ *board.Coordinator) error {
				cats := s.store.Categories()
				if len(args) == 1 {
					c, err := s.store.ResolveCategory(args[0])
					if err != nil {
						return err
					}
					cats = []model.Category{c}
				}
				out := make([]categoryOut, 0, len(cats))
				for _, c := range cats {
					items := s.store.Items(c)
					if items == nil {
						items = []model.Work{}
					}
					out = append(out, categoryOut{Category: c, Count: len(items), Items: items})
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"categories": out}})
			})
		},
	}
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <work-id>",
		Short: "Show one work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(cmd, app, func(s *session, _ *board.Coordinator) error {
				id := strings.TrimSpace(args[0])
				w, ok := s.store.Lookup(id)
				if !ok {
					return errNotFound("work", id)
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"work": w}})
			})
		},
	}
}

func newAddCmd(app *App) *cobra.Command {
	var title, body, due, category string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a work",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(cmd, app, func(s *session, coord *board.Coordinator) error {
				cat := s.store.Categories()[0]
				if strings.TrimSpace(category) != "" {
					c, err := s.store.ResolveCategory(category)
					if err != nil {
						return err
					}
					cat = c
				}
				at, err := model.ParseDue(due, s.cfg.TUI.DateLayout)
				if err != nil {
					return err
				}

				// Same path as the TUI: a create form confirmed into the coordinator.
				ctl := coord.NewWork(cat)
				ctl.UpdateDraft(title, body, at)
				res, err := ctl.Confirm()
				if err != nil {
					if errors.Is(err, form.ErrInvalidDraft) {
						return fmt.Errorf("--title is required")
					}
					return err
				}
				w, ok := s.store.Lookup(res.Work.ID)
				if !ok {
					return fmt.Errorf("work %s was not added", res.Work.ID)
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"work": w}})
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Title (required)")
	cmd.Flags().StringVar(&body, "body", "", "Body (markdown, at most 1000 characters)")
	cmd.Flags().StringVar(&due, "due", "", "Due date (default: now)")
	cmd.Flags().StringVar(&category, "category", "", "Category (default: the first configured)")
	return cmd
}

func newMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <work-id> <category>",
		Short: "Move a work to another category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(cmd, app, func(s *session, coord *board.Coordinator) error {
				id := strings.TrimSpace(args[0])
				w, ok := s.store.Lookup(id)
				if !ok {
					return errNotFound("work", id)
				}
				to, err := s.store.ResolveCategory(args[1])
				if err != nil {
					return err
				}
				if err := coord.HandleMove(w, to); err != nil {
					return err
				}
				w, _ = s.store.Lookup(id)
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"work": w}})
			})
		},
	}
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <work-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a work (deleting a missing work is not an error)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(cmd, app, func(s *session, coord *board.Coordinator) error {
				id := strings.TrimSpace(args[0])
				_, existed := s.store.Lookup(id)
				if err := coord.HandleDelete(model.Work{ID: id}); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"id": id, "deleted": existed}})
			})
		},
	}
}
