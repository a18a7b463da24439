// Package learning runs the autonomous ingestion loop: candidate facts are
// encoded, deduplicated against stored knowledge and either inserted,
// merged into an existing record or rejected.
package learning

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/db"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/embedding"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/metrics"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/models"
)

// Storer is the slice of the store adapter the loop needs.
type Storer interface {
	Insert(ctx context.Context, in db.InsertInput) (string, error)
	SimilaritySearch(ctx context.Context, vector []float32, k int, filters models.Filters) ([]models.SearchHit, error)
	BoostConfidence(ctx context.Context, id string, boost float64) (*models.KnowledgeRecord, error)
}

// Options tunes the dedup thresholds and batch behaviour.
type Options struct {
	// MergeThreshold and above is treated as the same fact: the stored
	// record's confidence is boosted, the candidate is dropped.
	MergeThreshold float64

	// RejectThreshold and above (but below merge) is near-duplicate
	// territory: the candidate is discarded without touching the store.
	RejectThreshold float64

	// ConfidenceBoost is added on merge, capped at 1.0.
	ConfidenceBoost float64

	// Concurrency bounds parallel encoding and per-bucket workers.
	Concurrency int

	// Progress, when set, is called after each candidate settles.
	// done counts all settled candidates of the batch so far.
	Progress func(done, total int)

	Metrics *metrics.Collector
}

// Loop ingests candidate facts in batches.
type Loop struct {
	store   Storer
	encoder embedding.Encoder
	opts    Options
}

// New wires a learning loop. Zero option fields fall back to the defaults
// merge=0.92, reject=0.80, boost=0.1, concurrency=4.
func New(store Storer, encoder embedding.Encoder, opts Options) *Loop {
	if opts.MergeThreshold <= 0 {
		opts.MergeThreshold = 0.92
	}
	if opts.RejectThreshold <= 0 {
		opts.RejectThreshold = 0.80
	}
	if opts.ConfidenceBoost <= 0 {
		opts.ConfidenceBoost = 0.1
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Loop{store: store, encoder: encoder, opts: opts}
}

// encoded pairs a candidate with its embedding and batch position.
type encoded struct {
	index     int
	candidate models.LearningCandidate
	vector    []float32
}

// Ingest processes one batch. A candidate that fails to encode or store is
// reported in Report.Failed; the rest of the batch proceeds regardless.
// The loop runs in two phases: all candidates encode in parallel first,
// then dedup-and-insert runs with similar candidates pinned to the same
// worker so two near-identical facts in one batch cannot race past each
// other's duplicate check.
func (l *Loop) Ingest(ctx context.Context, candidates []models.LearningCandidate) (*models.Report, error) {
	start := time.Now()
	defer func() {
		if l.opts.Metrics != nil {
			l.opts.Metrics.RecordTiming(metrics.OpLearn, time.Since(start))
		}
	}()

	report := &batchReport{}
	if len(candidates) == 0 {
		return &report.Report, nil
	}

	encodedBatch := l.encodeAll(ctx, candidates, report)
	l.settleAll(ctx, encodedBatch, report, len(candidates))

	slog.Info("learning batch complete",
		"total", len(candidates),
		"accepted", report.Accepted,
		"merged", report.Merged,
		"rejected", report.Rejected,
		"failed", len(report.Failed))

	return &report.Report, nil
}

// batchReport wraps the models report with a mutex so workers can update it.
type batchReport struct {
	mu sync.Mutex
	models.Report

	settled int
}

func (r *batchReport) fail(index int, text string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failed = append(r.Failed, models.FailureEntry{Index: index, Text: text, Err: err.Error()})
	r.settled++
}

// encodeAll runs phase one: the batch is split into one chunk per worker
// and each chunk goes to the provider as a single EncodeBatch call. A chunk
// that fails as a whole is retried candidate by candidate so one bad text
// cannot sink its neighbours.
func (l *Loop) encodeAll(ctx context.Context, candidates []models.LearningCandidate, report *batchReport) []encoded {
	chunkSize := (len(candidates) + l.opts.Concurrency - 1) / l.opts.Concurrency

	var wg sync.WaitGroup
	var mu sync.Mutex
	var out []encoded

	for start := 0; start < len(candidates); start += chunkSize {
		chunk := candidates[start:min(start+chunkSize, len(candidates))]
		wg.Add(1)
		go func(offset int, chunk []models.LearningCandidate) {
			defer wg.Done()

			texts := make([]string, len(chunk))
			for i, c := range chunk {
				texts[i] = c.Text
			}
			vecs, err := l.encoder.EncodeBatch(ctx, texts)
			if err == nil && len(vecs) == len(chunk) {
				mu.Lock()
				for i, c := range chunk {
					out = append(out, encoded{index: offset + i, candidate: c, vector: vecs[i]})
				}
				mu.Unlock()
				return
			}

			for i, c := range chunk {
				vec, err := l.encoder.Encode(ctx, c.Text)
				if err != nil {
					report.fail(offset+i, c.Text, fmt.Errorf("encoding candidate: %w", err))
					l.progress(report, len(candidates))
					continue
				}
				mu.Lock()
				out = append(out, encoded{index: offset + i, candidate: c, vector: vec})
				mu.Unlock()
			}
		}(start, chunk)
	}
	wg.Wait()
	return out
}

// settleAll runs phase two. Candidates are partitioned into buckets by a
// coarse sign hash of their embedding; near-identical texts land in the
// same bucket and each bucket is processed serially by exactly one worker.
func (l *Loop) settleAll(ctx context.Context, batch []encoded, report *batchReport, total int) {
	buckets := make([][]encoded, l.opts.Concurrency)
	for _, e := range batch {
		b := signBucket(e.vector) % uint32(l.opts.Concurrency)
		buckets[b] = append(buckets[b], e)
	}

	var wg sync.WaitGroup
	for _, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, e := range bucket {
				l.settle(ctx, e, report)
				l.progress(report, total)
			}
		}()
	}
	wg.Wait()
}

// settle runs the read-check-write dedup for one candidate.
func (l *Loop) settle(ctx context.Context, e encoded, report *batchReport) {
	hits, err := l.store.SimilaritySearch(ctx, e.vector, 1, models.Filters{})
	if err != nil {
		report.fail(e.index, e.candidate.Text, fmt.Errorf("dedup search: %w", err))
		return
	}

	if len(hits) > 0 && hits[0].Score >= l.opts.MergeThreshold {
		id := models.MustRecordIDString(hits[0].ID)
		if _, err := l.store.BoostConfidence(ctx, id, l.opts.ConfidenceBoost); err != nil {
			report.fail(e.index, e.candidate.Text, fmt.Errorf("boosting %s: %w", id, err))
			return
		}
		slog.Debug("candidate merged", "record", id, "score", hits[0].Score)
		report.mu.Lock()
		report.Merged++
		report.settled++
		report.mu.Unlock()
		return
	}

	if len(hits) > 0 && hits[0].Score >= l.opts.RejectThreshold {
		slog.Debug("candidate rejected as near-duplicate",
			"record", hits[0].ID.String(), "score", hits[0].Score)
		report.mu.Lock()
		report.Rejected++
		report.settled++
		report.mu.Unlock()
		return
	}

	_, err = l.store.Insert(ctx, db.InsertInput{
		Text:       e.candidate.Text,
		Embedding:  e.vector,
		Category:   e.candidate.Category,
		Language:   e.candidate.Language,
		Source:     e.candidate.Origin.Source(),
		Confidence: e.candidate.InitialConfidence(),
	})
	if err != nil {
		report.fail(e.index, e.candidate.Text, fmt.Errorf("inserting candidate: %w", err))
		return
	}
	report.mu.Lock()
	report.Accepted++
	report.settled++
	report.mu.Unlock()
}

func (l *Loop) progress(report *batchReport, total int) {
	if l.opts.Progress == nil {
		return
	}
	report.mu.Lock()
	done := report.settled
	report.mu.Unlock()
	l.opts.Progress(done, total)
}

// signBucket folds the signs of the leading embedding dimensions into a
// small hash. Vectors of near-identical texts agree on almost all signs,
// so they collide into the same bucket.
func signBucket(vec []float32) uint32 {
	n := len(vec)
	if n > 16 {
		n = 16
	}
	var h uint32
	for i := range n {
		h <<= 1
		if vec[i] >= 0 {
			h |= 1
		}
	}
	return h
}
