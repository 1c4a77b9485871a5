package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zatekoja/productar/internal/adapters/classifier"
	"github.com/zatekoja/productar/internal/application/services"
	"github.com/zatekoja/productar/internal/domain/entities"
	"github.com/zatekoja/productar/internal/domain/providers"
)

// simulationScript replays tracking engine signals
type simulationScript struct {
	Steps []simulationStep `yaml:"steps"`
}

// simulationStep holds exactly one of found, lost, frame or wait
type simulationStep struct {
	Found       *int                  `yaml:"found,omitempty"`
	Lost        *int                  `yaml:"lost,omitempty"`
	Frame       *int                  `yaml:"frame,omitempty"`
	Image       string                `yaml:"image,omitempty"`
	Predictions []entities.Prediction `yaml:"predictions,omitempty"`
	Wait        time.Duration         `yaml:"wait,omitempty"`
}

func loadScript(path string) (*simulationScript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	var script simulationScript
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	for i, step := range script.Steps {
		set := 0
		for _, ok := range []bool{step.Found != nil, step.Lost != nil, step.Frame != nil, step.Wait > 0} {
			if ok {
				set++
			}
		}
		if set != 1 {
			return nil, fmt.Errorf("step %d must set exactly one of found, lost, frame or wait", i+1)
		}
	}
	return &script, nil
}

// scriptClock only moves on wait steps so throttling is reproducible
type scriptClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *scriptClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *scriptClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// scriptEngine answers each frame with the predictions written in the script
type scriptEngine struct {
	mu          sync.Mutex
	labels      []string
	predictions map[uint64][]entities.Prediction
}

func (e *scriptEngine) Load(ctx context.Context, ref entities.ModelReference) ([]string, error) {
	return e.labels, nil
}

func (e *scriptEngine) Predict(ctx context.Context, frame *entities.Frame) ([]entities.Prediction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.predictions[frame.Seq], nil
}

// consoleUI prints the side effects a presentation layer would perform
type consoleUI struct {
	mu  sync.Mutex
	out io.Writer
}

func (u *consoleUI) printf(format string, args ...interface{}) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintf(u.out, format+"\n", args...)
}

func (u *consoleUI) ShowPanel(productID string)      { u.printf("  ui: show panel %s", productID) }
func (u *consoleUI) HidePanel(productID string)      { u.printf("  ui: hide panel %s", productID) }
func (u *consoleUI) PlaySound(path string)           { u.printf("  ui: play %s", path) }
func (u *consoleUI) PauseAnimation(productID string) { u.printf("  ui: pause animation %s", productID) }
func (u *consoleUI) ClearEffects(targetIndex int)    { u.printf("  ui: clear effects on target %d", targetIndex) }

func newSimulateCmd() *cobra.Command {
	var engineKind string

	cmd := &cobra.Command{
		Use:   "simulate SCRIPT",
		Short: "Replay found/frame/lost signals through the recognition pipeline",
		Long: `Replays a YAML script of tracking signals through the recognition state
machines and prints every recognition message and UI side effect.

  steps:
    - found: 0
    - frame: 0
      predictions:
        - {label: Spearmint, confidence: 0.94}
    - wait: 600ms
    - lost: 0

With --engine http, frames read their image from the step's image field and
are classified by the configured model server.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := loadScript(args[0])
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
			a.sink.Start(ctx)

			out := cmd.OutOrStdout()
			clock := &scriptClock{now: time.Now()}

			scripted := &scriptEngine{predictions: map[uint64][]entities.Prediction{}}
			for label := range catalog.LabelMap() {
				scripted.labels = append(scripted.labels, label)
			}

			var engine providers.InferenceEngine = scripted
			ref := entities.ModelReference{ModelURL: "script://model.json", MetadataURL: "script://metadata.json"}
			if engineKind == "http" {
				engine = classifier.NewHTTPEngine(a.cfg.Classifier.InferenceURL, a.cfg.Classifier.RequestTimeout)
				ref = entities.ModelReference{ModelURL: a.cfg.Classifier.ModelURL, MetadataURL: a.cfg.Classifier.MetadataURL}
			}

			adapter := services.NewClassifierAdapter(engine, ref, a.flags.ConfidenceThreshold(), a.metrics)
			adapter.Initialize(ctx, catalog.LabelMap())

			scene := services.NewSceneGraph(services.NewSceneAssembler(nil).Assemble(catalog))

			bus := a.eventBus()
			defer bus.Close()

			busCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			messages, err := bus.Subscribe(busCtx)
			if err != nil {
				return err
			}
			ui := &consoleUI{out: out}
			printed := make(chan struct{})
			go func() {
				defer close(printed)
				for event := range messages {
					ui.printf("-> %s target=%d product=%s confidence=%.2f",
						event.Type, event.TargetIndex, event.ProductID, event.Confidence)
				}
			}()

			dispatcher := services.NewInteractionDispatcher(ui, bus)
			if err := dispatcher.Start(); err != nil {
				return err
			}
			stopDispatcher := sync.OnceFunc(dispatcher.Stop)
			defer stopDispatcher()

			recognizer := services.NewRecognizer(catalog, services.RecognitionDeps{
				Classifier:       adapter,
				Scene:            scene,
				Publisher:        bus,
				Tracker:          a.sink,
				Clock:            clock,
				ThrottleInterval: a.flags.ThrottleInterval(),
				Metrics:          a.metrics,
			})

			var seq uint64
			for _, step := range script.Steps {
				switch {
				case step.Wait > 0:
					clock.advance(step.Wait)
				case step.Found != nil:
					recognizer.Handle(ctx, entities.TrackingEvent{Type: entities.TrackingEventTargetFound, TargetIndex: *step.Found})
				case step.Lost != nil:
					recognizer.Handle(ctx, entities.TrackingEvent{Type: entities.TrackingEventTargetLost, TargetIndex: *step.Lost})
				case step.Frame != nil:
					seq++
					frame, err := stepFrame(step, seq, clock.Now())
					if err != nil {
						return err
					}
					scripted.mu.Lock()
					scripted.predictions[seq] = step.Predictions
					scripted.mu.Unlock()
					recognizer.Handle(ctx, entities.TrackingEvent{Type: entities.TrackingEventFrame, TargetIndex: *step.Frame, Frame: frame})
					recognizer.Wait()
				}
			}

			cancel()
			<-printed
			// the dispatcher writes to out, so it must be idle before the summary
			stopDispatcher()

			return writeYAML(out, map[string]interface{}{
				"sessions":   recognizer.Sessions(),
				"classifier": adapter.Stats(),
				"sessionId":  a.sink.SessionID(),
			})
		},
	}

	cmd.Flags().StringVar(&engineKind, "engine", "script", "Inference engine: script or http")

	return cmd
}

func stepFrame(step simulationStep, seq uint64, now time.Time) (*entities.Frame, error) {
	if step.Image != "" {
		frame, err := readFrame(step.Image)
		if err != nil {
			return nil, err
		}
		frame.Seq = seq
		frame.Timestamp = now
		return frame, nil
	}
	return &entities.Frame{Seq: seq, Timestamp: now, Format: "rgba", Width: 1, Height: 1, Data: make([]byte, 4)}, nil
}
