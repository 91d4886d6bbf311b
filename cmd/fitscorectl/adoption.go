package main

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/FitScore/internal/judge"
	"github.com/MikeSquared-Agency/FitScore/internal/scoring"
)

type adoptionFixture struct {
	Items []scoring.AdoptionItem `yaml:"items"`
	Rows  []scoring.UsageRow     `yaml:"rows"`
}

type adoptionOutput struct {
	Tools     []scoring.ToolUsage    `json:"tools,omitempty"`
	Result    scoring.AdoptionResult `json:"result"`
	Narration judge.Narration        `json:"narration"`
}

func newAdoptionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adoption",
		Short: "Score adoption items, or aggregate raw usage rows first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var fx adoptionFixture
			if err := readInput(cmd, &fx); err != nil {
				return err
			}

			var out adoptionOutput
			items := fx.Items
			if len(fx.Rows) > 0 {
				out.Tools = scoring.AggregateUsage(fx.Rows)
				items = make([]scoring.AdoptionItem, 0, len(out.Tools))
				for _, t := range out.Tools {
					items = append(items, t.AdoptionItem())
				}
			}
			if len(items) == 0 {
				return errors.New("input has neither items nor rows")
			}

			out.Result = scoring.ScoreAdoption(items)
			out.Narration = judge.NewNarrator(nil, slog.New(slog.NewTextHandler(io.Discard, nil))).Narrate(context.Background(), out.Result)
			return writeOutput(cmd, out)
		},
	}
}
