package cli

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zatekoja/productar/internal/adapters/classifier"
	"github.com/zatekoja/productar/internal/application/services"
	"github.com/zatekoja/productar/internal/domain/entities"
)

func newClassifyCmd() *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:   "classify IMAGE",
		Short: "Run one image through the product classifier",
		Long: `Loads the catalog and the classification model, then classifies one
JPEG or PNG image and prints the matched product with every candidate.

Requires CLASSIFIER_MODEL_URL, CLASSIFIER_METADATA_URL and CLASSIFIER_INFERENCE_URL.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			catalog, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			frame, err := readFrame(args[0])
			if err != nil {
				return err
			}

			adapter := services.NewClassifierAdapter(
				classifier.NewHTTPEngine(a.cfg.Classifier.InferenceURL, a.cfg.Classifier.RequestTimeout),
				entities.ModelReference{ModelURL: a.cfg.Classifier.ModelURL, MetadataURL: a.cfg.Classifier.MetadataURL},
				a.flags.ConfidenceThreshold(),
				a.metrics,
			)
			if cmd.Flags().Changed("threshold") {
				adapter.SetThreshold(threshold)
			}
			if !adapter.Initialize(cmd.Context(), catalog.LabelMap()) {
				return fmt.Errorf("classifier unavailable: model could not be loaded")
			}

			out := cmd.OutOrStdout()
			result := adapter.Classify(cmd.Context(), frame)
			if result == nil {
				fmt.Fprintf(out, "no match at threshold %.2f\n", adapter.Threshold())
			} else if err := writeYAML(out, result); err != nil {
				return err
			}
			return writeYAML(out, map[string]interface{}{"stats": adapter.Stats()})
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", services.DefaultConfidenceThreshold, "Override the confidence threshold")

	return cmd
}

func readFrame(path string) (*entities.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	frame := &entities.Frame{
		Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		Data:   data,
	}
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		frame.Width = cfg.Width
		frame.Height = cfg.Height
		frame.Format = format
	}
	return frame, nil
}
