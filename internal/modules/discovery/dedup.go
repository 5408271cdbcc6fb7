package discovery

import (
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/scoutdash/scout/internal/config"
	"github.com/scoutdash/scout/internal/domain"
)

// PipelineStats reports the entry count after each pass, for observability
// and test assertions.
type PipelineStats struct {
	Original        int     `json:"original"`
	AfterSymbolPass int     `json:"after_symbol_dedup"`
	AfterNearDup    int     `json:"after_near_duplicate"`
	AfterQuality    int     `json:"after_quality"`
	ReductionPct    float64 `json:"reduction_pct"`
}

// Pipeline collapses duplicate discoveries and drops low-quality entries.
// Passes run in a fixed order and are individually toggleable.
type Pipeline struct {
	cfg config.DiscoveryConfig
	log zerolog.Logger
}

// NewPipeline creates a dedup/quality pipeline
func NewPipeline(cfg config.DiscoveryConfig, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg: cfg,
		log: log.With().Str("component", "dedup").Logger(),
	}
}

// Process runs the three passes. Entries without a symbol cannot be
// deduplicated or persisted, so they are skipped at intake rather than
// failing the batch.
func (p *Pipeline) Process(in []domain.Discovery) ([]domain.Discovery, PipelineStats) {
	stats := PipelineStats{Original: len(in)}

	entries := make([]domain.Discovery, 0, len(in))
	for _, d := range in {
		if strings.TrimSpace(d.Symbol) == "" {
			continue
		}
		entries = append(entries, d)
	}

	if p.cfg.DedupBySymbol {
		entries = dedupBySymbol(entries)
	}
	stats.AfterSymbolPass = len(entries)

	if p.cfg.NearDupFilter {
		entries = p.filterNearDuplicates(entries)
	}
	stats.AfterNearDup = len(entries)

	if p.cfg.QualityFilter {
		entries = p.filterQuality(entries)
	}
	stats.AfterQuality = len(entries)

	if stats.Original > 0 {
		stats.ReductionPct = float64(stats.Original-stats.AfterQuality) / float64(stats.Original) * 100
	}

	p.log.Debug().
		Int("original", stats.Original).
		Int("kept", stats.AfterQuality).
		Float64("reduction_pct", stats.ReductionPct).
		Msg("Pipeline processed batch")

	return entries, stats
}

// dedupBySymbol keeps the highest-scoring entry per symbol. Exact score ties
// keep whichever entry came first, and output order is stable with respect
// to the input.
func dedupBySymbol(in []domain.Discovery) []domain.Discovery {
	kept := make([]domain.Discovery, 0, len(in))
	bySymbol := make(map[string]int) // symbol -> index into kept

	for _, d := range in {
		idx, seen := bySymbol[d.Symbol]
		if !seen {
			bySymbol[d.Symbol] = len(kept)
			kept = append(kept, d)
			continue
		}
		if d.Score > kept[idx].Score {
			kept[idx] = d
		}
	}

	return kept
}

// filterNearDuplicates drops entries too similar to one already kept in this
// pass. First occurrence wins.
func (p *Pipeline) filterNearDuplicates(in []domain.Discovery) []domain.Discovery {
	kept := make([]domain.Discovery, 0, len(in))

	for _, candidate := range in {
		dup := false
		for _, existing := range kept {
			if p.nearDuplicate(candidate, existing) {
				p.log.Debug().
					Str("dropped", candidate.Symbol).
					Str("kept", existing.Symbol).
					Msg("Near-duplicate suppressed")
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, candidate)
		}
	}

	return kept
}

// nearDuplicate applies the three-way similarity test: close scores plus
// near-identical volume spike and momentum profiles.
func (p *Pipeline) nearDuplicate(a, b domain.Discovery) bool {
	if math.Abs(a.Score-b.Score) >= p.cfg.ScoreDiffThreshold {
		return false
	}
	volSim := similarity(a.RelVolume, b.RelVolume)
	momSim := similarity(a.Components[ComponentMomentum], b.Components[ComponentMomentum])
	return volSim >= p.cfg.MinVolumeSim && momSim >= p.cfg.MinMomentumSim
}

// similarity is 1 - |a-b| / max(|a|,|b|). Two zeros are perfectly similar.
func similarity(a, b float64) float64 {
	denom := math.Max(math.Abs(a), math.Abs(b))
	if denom == 0 {
		return 1.0
	}
	return 1 - math.Abs(a-b)/denom
}

// filterQuality drops entries failing minimum-quality thresholds: malformed
// symbol, low score, weak volume spike, price outside the configured band, or
// a reserved sentinel price leaking through from an unfilled default.
func (p *Pipeline) filterQuality(in []domain.Discovery) []domain.Discovery {
	kept := make([]domain.Discovery, 0, len(in))

	for _, d := range in {
		if !domain.ValidSymbol(d.Symbol) {
			continue
		}
		if d.Score < p.cfg.MinScore {
			continue
		}
		if d.RelVolume < p.cfg.MinRelVolume {
			continue
		}
		if d.Price < p.cfg.MinPrice || d.Price > p.cfg.MaxPrice {
			continue
		}
		if p.sentinelPrice(d.Price) {
			p.log.Warn().Str("symbol", d.Symbol).Float64("price", d.Price).Msg("Dropped placeholder price")
			continue
		}
		kept = append(kept, d)
	}

	return kept
}

func (p *Pipeline) sentinelPrice(price float64) bool {
	for _, s := range p.cfg.SentinelPrices {
		if price == s {
			return true
		}
	}
	return false
}
