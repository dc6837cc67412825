package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/amishk599/pitchdesk/internal/model"
	"github.com/amishk599/pitchdesk/internal/pipeline"
	"github.com/amishk599/pitchdesk/internal/review"
)

const reviewLimit = 200

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Browse stored postings interactively (TUI)",
	Long:  "Shows the source picker, then the split-pane review of that source's postings. Proposals can be drafted and marked submitted from the detail view.",
	RunE:  runReviewCmd,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReviewCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// The TUI owns the terminal; log output would corrupt the alt-screen.
	silent := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := context.Background()
	st, err := openStore(ctx, cfg, silent)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	gen, err := setupGenerator(ctx, cfg, silent)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up generator: %v\n", err)
		os.Exit(1)
	}
	p := pipeline.New(st, gen, setupCatalog(cfg), setupContacts(cfg), silent)

	srcs, err := st.ListSources(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list sources: %v\n", err)
		os.Exit(1)
	}
	if len(srcs) == 0 {
		fmt.Println("No sources registered.")
		return nil
	}

	opts := review.Options{Proposals: p, Statuses: st, Reviewer: reviewerName()}
	for {
		choice, err := review.RunSourcePicker(srcs)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return nil
		}
		if choice < 0 {
			return nil
		}
		src := srcs[choice]

		postings, err := review.RunLoader(src.Name, func(ctx context.Context) ([]model.Posting, error) {
			return st.ListPostings(ctx, model.PostingFilter{SourceID: src.ID, View: model.ViewAll, Limit: reviewLimit})
		})
		if err != nil {
			fmt.Printf("Error loading postings: %v\n", err)
			continue
		}

		wantQuit, err := review.RunReviewTUI(postings, opts)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
	}
}

func reviewerName() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "cli"
}
