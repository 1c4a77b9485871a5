package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zatekoja/productar/internal/adapters/classifier"
	"github.com/zatekoja/productar/internal/application/services"
	"github.com/zatekoja/productar/internal/domain/entities"
	"github.com/zatekoja/productar/internal/domain/providers"
	"github.com/zatekoja/productar/internal/evaluation"
)

func newEvaluateCmd() *cobra.Command {
	var (
		engineKind string
		detail     bool
		guardrails evaluation.GuardrailConfig
	)

	cmd := &cobra.Command{
		Use:   "evaluate FRAMES",
		Short: "Measure classifier accuracy against labelled frames",
		Long: `Classifies every frame listed in a JSON or YAML file and compares the
result with the expected product. Prints accuracy, hit@3, MRR and latency,
overall and per product, and fails when a guardrail is not met.

With --engine script each frame answers with its own predictions list.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			frames, err := evaluation.LoadLabeledFrames(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			catalog, err := a.loadCatalog(ctx)
			if err != nil {
				return err
			}

			known := make(map[string]bool, len(catalog.Products))
			for _, p := range catalog.Products {
				known[p.ID] = true
			}
			if err := evaluation.ValidateLabeledFrames(frames, known); err != nil {
				return err
			}

			scripted := &scriptEngine{predictions: map[uint64][]entities.Prediction{}}
			for label := range catalog.LabelMap() {
				scripted.labels = append(scripted.labels, label)
			}
			for i, f := range frames {
				preds := make([]entities.Prediction, len(f.Predictions))
				for j, p := range f.Predictions {
					preds[j] = entities.Prediction{Label: p.Label, Confidence: p.Confidence}
				}
				scripted.predictions[uint64(i+1)] = preds
			}

			var engine providers.InferenceEngine = scripted
			ref := entities.ModelReference{ModelURL: "script://model.json", MetadataURL: "script://metadata.json"}
			if engineKind == "http" {
				engine = classifier.NewHTTPEngine(a.cfg.Classifier.InferenceURL, a.cfg.Classifier.RequestTimeout)
				ref = entities.ModelReference{ModelURL: a.cfg.Classifier.ModelURL, MetadataURL: a.cfg.Classifier.MetadataURL}
			}

			adapter := services.NewClassifierAdapter(engine, ref, a.flags.ConfidenceThreshold(), a.metrics)
			if !adapter.Initialize(ctx, catalog.LabelMap()) {
				return fmt.Errorf("classifier unavailable: model could not be loaded")
			}

			summary, err := evaluation.NewRunner(adapter, evaluationFrame, detail).Run(ctx, frames)
			if err != nil {
				return err
			}
			if err := writeYAML(cmd.OutOrStdout(), summary); err != nil {
				return err
			}

			if violations := evaluation.NewGuardrails(guardrails).Check(summary); len(violations) > 0 {
				return fmt.Errorf("model failed guardrails: %s", strings.Join(violations, "; "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&engineKind, "engine", "script", "Inference engine: script or http")
	cmd.Flags().BoolVar(&detail, "detail", false, "Include per-frame results")
	cmd.Flags().Float64Var(&guardrails.MinAccuracy, "min-accuracy", 0, "Fail below this top-1 accuracy")
	cmd.Flags().Float64Var(&guardrails.MinMRR, "min-mrr", 0, "Fail below this mean reciprocal rank")
	cmd.Flags().DurationVar(&guardrails.MaxAvgLatency, "max-latency", 0, "Fail above this average inference latency")
	cmd.Flags().Float64Var(&guardrails.MaxRejectRate, "max-reject-rate", 1, "Fail when more frames than this share fall below the threshold")

	return cmd
}

func evaluationFrame(lf evaluation.LabeledFrame, seq uint64) (*entities.Frame, error) {
	return stepFrame(simulationStep{Image: lf.Image}, seq, time.Now())
}
