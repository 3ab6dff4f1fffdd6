package rxnav

import (
	"context"
	"sort"
	"strings"

	"github.com/medreconcile/medreconcile-api/clinical/entities"
	"github.com/medreconcile/medreconcile-api/interfaces"
)

var _ interfaces.TerminologyGateway = (*StaticGateway)(nil)

// StaticGateway answers from bundled reference tables. It covers the common
// medications well enough for development and for degraded operation when
// the terminology service is unreachable.
type StaticGateway struct {
	rxcuis map[string]string
	pairs  map[pairKey]entities.DrugInteraction
}

type pairKey struct {
	a, b string
}

func newPairKey(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

func NewStaticGateway() *StaticGateway {
	g := &StaticGateway{
		rxcuis: map[string]string{
			"lisinopril":   "29046",
			"metformin":    "6809",
			"amlodipine":   "17767",
			"atorvastatin": "83367",
			"omeprazole":   "7646",
			"warfarin":     "11289",
			"aspirin":      "1191",
			"ibuprofen":    "5640",
			"simvastatin":  "36567",
		},
		pairs: map[pairKey]entities.DrugInteraction{},
	}

	known := []entities.DrugInteraction{
		{
			DrugA:       "warfarin",
			DrugB:       "aspirin",
			Severity:    entities.SeverityHigh,
			Description: "Concurrent use significantly increases bleeding risk.",
		},
		{
			DrugA:       "warfarin",
			DrugB:       "ibuprofen",
			Severity:    entities.SeverityHigh,
			Description: "NSAIDs increase bleeding risk and may potentiate anticoagulation.",
		},
		{
			DrugA:       "lisinopril",
			DrugB:       "spironolactone",
			Severity:    entities.SeverityModerate,
			Description: "Combined use raises the risk of hyperkalemia; monitor potassium.",
		},
		{
			DrugA:       "lisinopril",
			DrugB:       "ibuprofen",
			Severity:    entities.SeverityModerate,
			Description: "NSAIDs can blunt the antihypertensive effect and impair renal function.",
		},
		{
			DrugA:       "simvastatin",
			DrugB:       "amiodarone",
			Severity:    entities.SeverityHigh,
			Description: "Amiodarone raises simvastatin exposure and the risk of myopathy.",
		},
		{
			DrugA:       "metformin",
			DrugB:       "furosemide",
			Severity:    entities.SeverityLow,
			Description: "Loop diuretics may alter metformin levels; monitor glycemic control.",
		},
	}
	for _, ix := range known {
		g.pairs[newPairKey(ix.DrugA, ix.DrugB)] = ix
	}
	return g
}

func (g *StaticGateway) Resolve(ctx context.Context, name string) (*interfaces.Resolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := entities.NormalizeName(name)
	if rxcui, ok := g.rxcuis[key]; ok {
		return &interfaces.Resolution{RxCUI: rxcui}, nil
	}
	return &interfaces.Resolution{Suggestions: g.suggest(key)}, nil
}

// suggest returns known names sharing a prefix with the query, so a typo or
// a name-plus-strength entry still points at the table entry.
func (g *StaticGateway) suggest(key string) []string {
	if len(key) < 3 {
		return nil
	}
	prefix := key[:3]
	var out []string
	for name := range g.rxcuis {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Interactions checks every pair in the list against the bundled table.
func (g *StaticGateway) Interactions(ctx context.Context, medications []entities.Medication) (*interfaces.InteractionReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var found []entities.DrugInteraction
	for i := 0; i < len(medications); i++ {
		for j := i + 1; j < len(medications); j++ {
			key := newPairKey(medications[i].Key(), medications[j].Key())
			if ix, ok := g.pairs[key]; ok {
				found = append(found, ix)
			}
		}
	}
	return buildReport(len(medications), found), nil
}
