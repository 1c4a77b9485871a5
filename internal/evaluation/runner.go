package evaluation

import (
	"context"
	"time"

	"github.com/zatekoja/productar/internal/domain/entities"
	"github.com/zatekoja/productar/internal/infrastructure/observability"
)

const rankDepth = 3

// FrameClassifier is satisfied by services.ClassifierAdapter.
type FrameClassifier interface {
	Classify(ctx context.Context, frame *entities.Frame) *entities.ClassificationResult
}

// FrameLoader turns a labelled frame into the frame handed to the classifier.
type FrameLoader func(lf LabeledFrame, seq uint64) (*entities.Frame, error)

// Runner runs evaluation across a set of labelled frames.
type Runner struct {
	classifier FrameClassifier
	load       FrameLoader
	keepDetail bool
}

func NewRunner(classifier FrameClassifier, load FrameLoader, keepDetail bool) *Runner {
	return &Runner{classifier: classifier, load: load, keepDetail: keepDetail}
}

func (r *Runner) Run(ctx context.Context, frames []LabeledFrame) (*EvalSummary, error) {
	logger := observability.Component("evaluation")
	summary := &EvalSummary{ByProduct: make(map[string]*ProductSummary)}

	for i, lf := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame, err := r.load(lf, uint64(i+1))
		if err != nil {
			logger.Warn().Err(err).Str("frame_id", lf.ID).Msg("skipping frame that could not be loaded")
			summary.Errors++
			continue
		}

		start := time.Now()
		result := r.classifier.Classify(ctx, frame)
		res := EvalResult{
			FrameID:         lf.ID,
			ExpectedProduct: lf.ExpectedProduct,
			Difficulty:      lf.Difficulty,
			Latency:         time.Since(start),
		}

		if result == nil {
			res.Rejected = true
		} else {
			ranked := make([]string, len(result.AllCandidates))
			for j, c := range result.AllCandidates {
				ranked[j] = c.ProductID
			}
			res.PredictedProduct = result.ProductID
			res.Confidence = result.Confidence
			res.Correct = result.ProductID == lf.ExpectedProduct
			res.HitAt3 = HitAtK(lf.ExpectedProduct, ranked, rankDepth)
			res.ReciprocalRank = ReciprocalRankAtK(lf.ExpectedProduct, ranked, rankDepth)
		}

		r.updateSummary(summary, res)
	}

	r.finalizeSummary(summary)
	return summary, nil
}

func (r *Runner) updateSummary(s *EvalSummary, res EvalResult) {
	s.TotalFrames++
	s.AvgHitAt3 += res.HitAt3
	s.MRR += res.ReciprocalRank
	s.AvgLatency += res.Latency
	if res.Correct {
		s.Accuracy++
	}
	if res.Rejected {
		s.Rejected++
	}

	ps, ok := s.ByProduct[res.ExpectedProduct]
	if !ok {
		ps = &ProductSummary{}
		s.ByProduct[res.ExpectedProduct] = ps
	}
	ps.Count++
	ps.MRR += res.ReciprocalRank
	if res.Correct {
		ps.Correct++
	}

	if r.keepDetail {
		s.Results = append(s.Results, res)
	}
}

func (r *Runner) finalizeSummary(s *EvalSummary) {
	if s.TotalFrames > 0 {
		n := float64(s.TotalFrames)
		s.Accuracy /= n
		s.AvgHitAt3 /= n
		s.MRR /= n
		s.AvgLatency /= time.Duration(s.TotalFrames)
	}

	for _, ps := range s.ByProduct {
		if ps.Count > 0 {
			n := float64(ps.Count)
			ps.Accuracy = float64(ps.Correct) / n
			ps.MRR /= n
		}
	}
}
