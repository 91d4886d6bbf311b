package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/FitScore/internal/judge"
	"github.com/MikeSquared-Agency/FitScore/internal/scoring"
)

// scoreFixture is a recorded scoring run: the RFP's requirements and the
// judge's per-requirement verdicts.
type scoreFixture struct {
	RFPTitle       string                `yaml:"rfp_title"`
	RFPDescription string                `yaml:"rfp_description"`
	Proposal       string                `yaml:"proposal"`
	Requirements   []scoring.Requirement `yaml:"requirements"`
	Judgments      []scoring.Judgment    `yaml:"judgments"`
	// Reply is a raw judge reply; when set it is parsed instead of Judgments.
	Reply string `yaml:"reply"`
}

func newScoreCmd() *cobra.Command {
	var breakdown bool

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute the fit score for recorded requirements and judgments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var fx scoreFixture
			if err := readInput(cmd, &fx); err != nil {
				return err
			}

			judgments := fx.Judgments
			if fx.Reply != "" {
				eval, err := judge.ParseEvaluation(fx.Reply, fx.Requirements)
				if err != nil {
					return fmt.Errorf("parse reply: %w", err)
				}
				judgments = eval.Judgments
			}

			result := scoring.ComputeFitScore(fx.Requirements, judgments)
			if !breakdown {
				result.Breakdown = nil
			}
			return writeOutput(cmd, result)
		},
	}
	cmd.Flags().BoolVar(&breakdown, "breakdown", false, "include the per-requirement breakdown")
	return cmd
}

func newPromptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompt",
		Short: "Print the judge prompt a fixture would produce",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var fx scoreFixture
			if err := readInput(cmd, &fx); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, judge.FitSystemPrompt())
			fmt.Fprintln(out)
			fmt.Fprintln(out, judge.BuildFitPrompt(judge.Request{
				RFPTitle:       fx.RFPTitle,
				RFPDescription: fx.RFPDescription,
				Proposal:       fx.Proposal,
				Requirements:   fx.Requirements,
			}))
			return nil
		},
	}
}
