package matcher

import (
	"context"
	"sort"
	"sync"

	"invoice-reconciliation-service/internal/models"
)

// Engine is the core engine responsible for pairing invoice line items with
// planned lines from mapping files. It is stateless between calls; all
// tuning lives in Config.
type Engine struct {
	Config *MatchingConfig
}

// NewEngine creates a matching engine with the specified configuration. A
// nil configuration falls back to the defaults.
func NewEngine(config *MatchingConfig) *Engine {
	if config == nil {
		config = DefaultMatchingConfig()
	}
	return &Engine{Config: config}
}

// MatchCandidate is one scored pairing of an invoice line against a planned
// line, before claim resolution
type MatchCandidate struct {
	InvoiceLine *models.InvoiceLineItem
	PlannedLine *models.PlannedLine
	MappingFile string
	StringScore float64
	NumberScore float64
	// OverallScore is the weighted combination of StringScore and
	// NumberScore used to rank competing candidates
	OverallScore float64
}

// LineMatch is an accepted one-to-one pairing after claim resolution
type LineMatch struct {
	InvoiceLine  *models.InvoiceLineItem
	PlannedLine  *models.PlannedLine
	MappingFile  string
	Campaign     string
	StringScore  float64
	NumberScore  float64
	OverallScore float64
}

// fileCandidates holds the candidates produced for one mapping file,
// tagged with the file's input position so the merge is order-stable
// regardless of goroutine completion order.
type fileCandidates struct {
	index      int
	candidates []MatchCandidate
}

// Match pairs invoice line items against planned lines across all mapping
// files. Candidate scoring fans out per mapping file up to the configured
// concurrency; claim resolution then runs globally so each invoice line and
// each planned line is claimed at most once, best overall score first.
//
// Matches are returned in invoice input order, followed by the unmatched
// invoice lines, also in input order. The output is deterministic for a
// given input and configuration.
//
// Cancelling the context abandons the run entirely; no partial result is
// returned.
func (e *Engine) Match(ctx context.Context, lines []models.InvoiceLineItem, mappingFiles []models.MappingFile) ([]LineMatch, []*models.InvoiceLineItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if len(lines) == 0 || len(mappingFiles) == 0 {
		return nil, collectAll(lines), nil
	}

	perFile := make([]fileCandidates, len(mappingFiles))
	sem := make(chan struct{}, e.Config.MaxConcurrentMappingFiles)
	var wg sync.WaitGroup

	for i := range mappingFiles {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}
			perFile[idx] = fileCandidates{
				index:      idx,
				candidates: e.scoreFile(ctx, lines, &mappingFiles[idx]),
			}
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var all []MatchCandidate
	for i := range perFile {
		all = append(all, perFile[i].candidates...)
	}

	matches := e.resolveClaims(all)

	matchedLines := make(map[int]bool, len(matches))
	for i := range matches {
		matchedLines[matches[i].InvoiceLine.LineID] = true
	}

	var unmatched []*models.InvoiceLineItem
	for i := range lines {
		if !matchedLines[lines[i].LineID] {
			unmatched = append(unmatched, &lines[i])
		}
	}

	return matches, unmatched, nil
}

// scoreFile scores every invoice line against every planned line of one
// mapping file and returns the eligible candidates. Eligibility is gated on
// the identity similarity threshold alone; numeric proximity only refines
// the ranking among eligible candidates.
func (e *Engine) scoreFile(ctx context.Context, lines []models.InvoiceLineItem, mf *models.MappingFile) []MatchCandidate {
	var candidates []MatchCandidate

	for i := range lines {
		if ctx.Err() != nil {
			return nil
		}

		inv := &lines[i]
		if !inv.HasIdentity() {
			continue
		}

		for j := range mf.Lines {
			planned := &mf.Lines[j]

			stringScore := identitySimilarity(inv, planned)
			if stringScore < e.Config.StringThreshold {
				continue
			}

			numberScore := numericSimilarity(inv, planned)
			overall := e.Config.Weights.StringWeight*stringScore +
				e.Config.Weights.NumericWeight*numberScore

			candidates = append(candidates, MatchCandidate{
				InvoiceLine:  inv,
				PlannedLine:  planned,
				MappingFile:  mf.SourceFile,
				StringScore:  stringScore,
				NumberScore:  numberScore,
				OverallScore: overall,
			})
		}
	}

	return candidates
}

// resolveClaims performs global greedy one-to-one claim resolution over all
// candidates. Candidates are taken best overall score first; ties break on
// invoice line id, then mapping file name, then planned line id, so the
// outcome never depends on scoring order.
func (e *Engine) resolveClaims(candidates []MatchCandidate) []LineMatch {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := &candidates[i], &candidates[j]
		if a.OverallScore != b.OverallScore {
			return a.OverallScore > b.OverallScore
		}
		if a.InvoiceLine.LineID != b.InvoiceLine.LineID {
			return a.InvoiceLine.LineID < b.InvoiceLine.LineID
		}
		if a.MappingFile != b.MappingFile {
			return a.MappingFile < b.MappingFile
		}
		return a.PlannedLine.LineID < b.PlannedLine.LineID
	})

	claimedLines := make(map[int]bool)
	claimedPlanned := make(map[string]bool)

	var accepted []MatchCandidate
	for i := range candidates {
		c := &candidates[i]
		if claimedLines[c.InvoiceLine.LineID] || claimedPlanned[c.PlannedLine.Key()] {
			continue
		}
		claimedLines[c.InvoiceLine.LineID] = true
		claimedPlanned[c.PlannedLine.Key()] = true
		accepted = append(accepted, *c)
	}

	// Report matches in invoice input order, not claim order
	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].InvoiceLine.LineID < accepted[j].InvoiceLine.LineID
	})

	matches := make([]LineMatch, 0, len(accepted))
	for i := range accepted {
		c := &accepted[i]
		matches = append(matches, LineMatch{
			InvoiceLine:  c.InvoiceLine,
			PlannedLine:  c.PlannedLine,
			MappingFile:  c.MappingFile,
			Campaign:     matchCampaign(c.InvoiceLine, c.PlannedLine),
			StringScore:  c.StringScore,
			NumberScore:  c.NumberScore,
			OverallScore: c.OverallScore,
		})
	}

	return matches
}

// matchCampaign picks the campaign label for reporting a match, preferring
// the invoice's own wording
func matchCampaign(inv *models.InvoiceLineItem, planned *models.PlannedLine) string {
	if inv.CampaignName != "" {
		return inv.CampaignName
	}
	return planned.CampaignName
}

func collectAll(lines []models.InvoiceLineItem) []*models.InvoiceLineItem {
	if len(lines) == 0 {
		return nil
	}
	out := make([]*models.InvoiceLineItem, 0, len(lines))
	for i := range lines {
		out = append(out, &lines[i])
	}
	return out
}
