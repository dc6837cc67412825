package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List all registered sources",
	Long:  "Opens the store and prints a table of all registered sources.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	silent := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := openStore(context.Background(), cfg, silent)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	srcs, err := st.ListSources(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list sources: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-4s %-25s %-9s %s\n", "ID", "Source", "Status", "URL")
	fmt.Println(strings.Repeat("─", 80))

	active, paused := 0, 0
	for _, s := range srcs {
		status := "active"
		if !s.Active {
			status = "paused"
			paused++
		} else {
			active++
		}
		fmt.Printf("%-4d %-25s %-9s %s\n", s.ID, s.Name, status, s.URL)
	}

	fmt.Printf("\nTotal: %d sources (%d active, %d paused)\n", len(srcs), active, paused)
	return nil
}
