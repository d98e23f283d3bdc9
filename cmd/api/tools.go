package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/orgchart-api/internal/client"
	"github.com/orgchart-api/internal/config"
	"github.com/orgchart-api/internal/database"
	"github.com/orgchart-api/internal/domain"
	"github.com/orgchart-api/internal/hierarchy"
)

const defaultAddr = "http://localhost:8080/api"

func newMigrateCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, roll back or inspect database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{database.MigrateUp, database.MigrateDown, database.MigrateStatus},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Log)

			db, err := database.Connect(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return fmt.Errorf("failed to get sql.DB: %w", err)
			}
			defer sqlDB.Close()

			return database.Migrate(sqlDB, cfg.Database.Driver, args[0], logger)
		},
	}
}

func newTreeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Fetch all departments from a running server and print the forest",
		RunE: func(cmd *cobra.Command, args []string) error {
			departments, err := fetchDepartments(cmd.Context(), addr)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), hierarchy.Build(departments))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "Base URL of the API")
	return cmd
}

func newDescendantsCmd() *cobra.Command {
	var (
		addr string
		id   int64
	)

	cmd := &cobra.Command{
		Use:   "descendants",
		Short: "Print a department id followed by every department below it",
		RunE: func(cmd *cobra.Command, args []string) error {
			departments, err := fetchDepartments(cmd.Context(), addr)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), hierarchy.Descendants(departments, id))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "Base URL of the API")
	cmd.Flags().Int64Var(&id, "id", 0, "Department id (required)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

// fetchDepartments loads the flat department list through the API client
func fetchDepartments(ctx context.Context, addr string) ([]domain.Department, error) {
	c, err := client.New(addr)
	if err != nil {
		return nil, err
	}

	list, err := c.ListDepartments(ctx)
	if err != nil {
		return nil, err
	}

	departments := make([]domain.Department, len(list))
	for i, d := range list {
		departments[i] = domain.Department{
			ID:        d.ID,
			Name:      d.Name,
			ParentID:  d.ParentID,
			CreatedAt: d.CreatedAt,
		}
	}
	return departments, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
