package judge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

const defaultMaxLogLength = 200

// Evaluator is the Judge backed by a single Completer.
type Evaluator struct {
	completer Completer
	logger    *slog.Logger
	maxLogLen int
}

func NewEvaluator(completer Completer, logger *slog.Logger, maxLogLength int) *Evaluator {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		completer: completer,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (e *Evaluator) Evaluate(ctx context.Context, req Request) (*Evaluation, error) {
	if len(req.Requirements) == 0 {
		return &Evaluation{Judgments: nil, Model: e.completer.Model()}, nil
	}

	prompt := BuildFitPrompt(req)
	log := e.logger.With("submission_id", req.SubmissionID, "model", e.completer.Model())
	log.Debug("sending fit evaluation",
		"requirements", len(req.Requirements),
		"prompt_length", utf8.RuneCountInString(prompt),
		"prompt_preview", truncateForLog(prompt, e.maxLogLen),
	)

	start := time.Now()
	raw, err := e.completer.Complete(ctx, FitSystemPrompt(), prompt)
	if err != nil {
		log.Warn("fit evaluation failed", "error", err, "kind", Kind(err), "elapsed", time.Since(start))
		return nil, fmt.Errorf("evaluate submission %s: %w", req.SubmissionID, err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("evaluate submission %s: %w", req.SubmissionID, ErrNoContent)
	}

	eval, err := ParseEvaluation(raw, req.Requirements)
	if err != nil {
		log.Warn("unparseable fit evaluation", "error", err, "response_preview", truncateForLog(raw, e.maxLogLen))
		return nil, fmt.Errorf("evaluate submission %s: %w", req.SubmissionID, err)
	}
	eval.Model = e.completer.Model()

	if eval.Dropped > 0 {
		log.Warn("dropped unmatched judgments", "dropped", eval.Dropped)
	}
	log.Info("fit evaluation complete",
		"judgments", len(eval.Judgments),
		"elapsed", time.Since(start),
	)
	return eval, nil
}

func truncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
