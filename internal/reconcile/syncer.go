package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/totallynotjon/actual-flow/internal/config"
	"github.com/totallynotjon/actual-flow/internal/dedupe"
	"github.com/totallynotjon/actual-flow/internal/logger"
	"github.com/totallynotjon/actual-flow/internal/mapper"
	"github.com/totallynotjon/actual-flow/internal/model"
)

// Syncer drives one reconciliation pass: fetch from Lunch Flow, map into
// Actual's shape, flag duplicates, import what's new.
type Syncer struct {
	source SourceClient
	dest   DestinationClient
	cfg    *config.Config
	mapper *mapper.Mapper
}

// New builds a Syncer over the configured account mappings.
func New(source SourceClient, dest DestinationClient, cfg *config.Config) *Syncer {
	return &Syncer{
		source: source,
		dest:   dest,
		cfg:    cfg,
		mapper: mapper.New(cfg.AccountMappings),
	}
}

// RunOptions controls a single pass.
type RunOptions struct {
	// Since floors the fetch window. Per-account sync start dates can
	// move the floor later, never earlier. Zero fetches full history.
	Since time.Time
	// DryRun stops after duplicate detection; nothing is imported.
	DryRun bool
}

// Summary reports what one pass did.
type Summary struct {
	RunID   string
	Fetched int // transactions that entered the mapper
	Mapped  int
	Skipped int // fetched rows with no account mapping

	Duplicates int
	Imported   int // destination-confirmed adds + updates

	// DedupeDegraded is set when the existing-transaction fetch failed
	// and the pass continued without duplicate detection.
	DedupeDegraded bool

	// Transactions holds the annotated candidates, for previews.
	Transactions []model.DestinationTransaction
}

// Run executes one reconciliation pass.
func (s *Syncer) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	log := logger.FromContext(ctx)
	summary := &Summary{RunID: uuid.NewString()}

	log.Info().
		Str("run_id", summary.RunID).
		Time("since", opts.Since).
		Bool("dry_run", opts.DryRun).
		Int("account_mappings", len(s.cfg.AccountMappings)).
		Msg("starting reconciliation pass")

	var fetched []model.SourceTransaction
	for _, m := range s.cfg.AccountMappings {
		since := opts.Since
		if floor, ok := m.StartDate(); ok && floor.After(since) {
			since = floor
		}
		txns, err := s.source.Transactions(ctx, m.LunchFlowAccountID, since)
		if err != nil {
			return nil, fmt.Errorf("fetching lunchflow account %d: %w", m.LunchFlowAccountID, err)
		}
		kept := txns
		if !m.IncludePending {
			kept = dropPending(txns)
		}
		log.Debug().
			Int64("lunchflow_account", m.LunchFlowAccountID).
			Time("since", since).
			Int("fetched", len(txns)).
			Int("kept", len(kept)).
			Msg("fetched account")
		fetched = append(fetched, kept...)
	}
	summary.Fetched = len(fetched)

	candidates := s.mapper.MapTransactions(fetched)
	summary.Mapped = len(candidates)
	summary.Skipped = summary.Fetched - summary.Mapped

	if s.cfg.DuplicateDetection.Enabled {
		existing, err := s.fetchExisting(ctx)
		if err != nil {
			// Import still goes ahead: Actual's imported_id handling is
			// the backstop when we can't compare against the ledger.
			log.Warn().Err(err).Msg("existing-transaction fetch failed, continuing without duplicate detection")
			summary.DedupeDegraded = true
		} else {
			det := dedupe.NewDetector(existing, s.detectorOptions())
			candidates = det.CheckForDuplicates(candidates)
			summary.Duplicates = det.DuplicateCount(candidates)
		}
	}
	summary.Transactions = candidates

	log.Info().
		Int("fetched", summary.Fetched).
		Int("mapped", summary.Mapped).
		Int("skipped", summary.Skipped).
		Int("duplicates", summary.Duplicates).
		Msg("mapped and duplicate-checked")

	if opts.DryRun {
		return summary, nil
	}

	imported, err := s.Import(ctx, candidates)
	if err != nil {
		return nil, err
	}
	summary.Imported = imported

	return summary, nil
}

// Import strips annotations from the non-duplicate candidates and sends
// them to the destination, one import call per account. It returns the
// number of transactions the destination confirmed as added or updated.
// Callers that want a confirmation step between detection and import run
// Run with DryRun and hand the summary's candidates here afterwards.
func (s *Syncer) Import(ctx context.Context, candidates []model.DestinationTransaction) (int, error) {
	log := logger.FromContext(ctx)
	imported := 0
	groups, order := groupByAccount(StripAnnotations(FilterDuplicates(candidates)))
	for _, accountID := range order {
		batch := groups[accountID]
		result, err := s.dest.ImportTransactions(ctx, accountID, batch)
		if err != nil {
			return imported, fmt.Errorf("importing into actual account %s: %w", accountID, err)
		}
		imported += len(result.Added) + len(result.Updated)
		log.Info().
			Str("actual_account", accountID).
			Int("sent", len(batch)).
			Int("added", len(result.Added)).
			Int("updated", len(result.Updated)).
			Msg("imported batch")
	}
	return imported, nil
}

// fetchExisting pulls the current transaction set for every mapped
// destination account. The detector wants the full set, not a window:
// settled history can reach back past any sync floor.
func (s *Syncer) fetchExisting(ctx context.Context) ([]model.DestinationTransaction, error) {
	seen := make(map[string]bool)
	var existing []model.DestinationTransaction
	for _, m := range s.cfg.AccountMappings {
		if seen[m.ActualAccountID] {
			continue
		}
		seen[m.ActualAccountID] = true
		txns, err := s.dest.Transactions(ctx, m.ActualAccountID, time.Time{})
		if err != nil {
			return nil, fmt.Errorf("fetching actual account %s: %w", m.ActualAccountID, err)
		}
		existing = append(existing, txns...)
	}
	return existing, nil
}

// detectorOptions translates the config knobs. Zero date tolerance is a
// real setting (same-day matches only); a zero similarity threshold would
// match everything, so it falls back to the stock value.
func (s *Syncer) detectorOptions() dedupe.Options {
	opts := dedupe.Options{
		DateToleranceDays:        s.cfg.DuplicateDetection.DateToleranceDays,
		PayeeSimilarityThreshold: s.cfg.DuplicateDetection.PayeeSimilarityThreshold,
	}
	if opts.DateToleranceDays < 0 {
		opts.DateToleranceDays = 0
	}
	if opts.PayeeSimilarityThreshold <= 0 {
		opts.PayeeSimilarityThreshold = dedupe.DefaultOptions().PayeeSimilarityThreshold
	}
	return opts
}
