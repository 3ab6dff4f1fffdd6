package rxnav

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/medreconcile/medreconcile-api/clinical/entities"
	"github.com/medreconcile/medreconcile-api/interfaces"
	"github.com/medreconcile/medreconcile-api/logging"
	"github.com/medreconcile/medreconcile-api/metrics"
)

var _ interfaces.TerminologyGateway = (*Client)(nil)

const maxResponseBytes = 4 << 20

// Client talks to the RxNav REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// RxNav response shapes, trimmed to the fields we read.

type idGroupResponse struct {
	IDGroup struct {
		RxNormID []string `json:"rxnormId"`
	} `json:"idGroup"`
}

type approximateResponse struct {
	ApproximateGroup struct {
		Candidate []struct {
			RxCUI string `json:"rxcui"`
			Name  string `json:"name"`
		} `json:"candidate"`
	} `json:"approximateGroup"`
}

type interactionListResponse struct {
	FullInteractionTypeGroup []struct {
		FullInteractionType []struct {
			MinConcept []struct {
				Name string `json:"name"`
			} `json:"minConcept"`
			InteractionPair []struct {
				Severity    string `json:"severity"`
				Description string `json:"description"`
			} `json:"interactionPair"`
		} `json:"fullInteractionType"`
	} `json:"fullInteractionTypeGroup"`
}

// Resolve tries an exact name match first and falls back to RxNav's
// approximate term search. An unknown name resolves without error; the
// approximate candidates become suggestions.
func (c *Client) Resolve(ctx context.Context, name string) (*interfaces.Resolution, error) {
	var exact idGroupResponse
	err := c.getJSON(ctx, "/rxcui.json?name="+url.QueryEscape(name), &exact)
	if err != nil {
		return nil, err
	}
	if ids := exact.IDGroup.RxNormID; len(ids) > 0 {
		return &interfaces.Resolution{RxCUI: ids[0]}, nil
	}

	var approx approximateResponse
	err = c.getJSON(ctx, "/approximateTerm.json?maxEntries=5&term="+url.QueryEscape(name), &approx)
	if err != nil {
		return nil, err
	}
	res := &interfaces.Resolution{}
	for _, cand := range approx.ApproximateGroup.Candidate {
		if res.RxCUI == "" {
			res.RxCUI = cand.RxCUI
		}
		if cand.Name != "" {
			res.Suggestions = append(res.Suggestions, cand.Name)
		}
	}
	return res, nil
}

// Interactions resolves every medication and screens the resolved set in a
// single interaction list call. Names RxNav does not know are skipped.
func (c *Client) Interactions(ctx context.Context, medications []entities.Medication) (*interfaces.InteractionReport, error) {
	var rxcuis []string
	for _, med := range medications {
		res, err := c.Resolve(ctx, med.Name)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", med.Name, err)
		}
		if res.RxCUI == "" {
			logging.Debug("Medication not found in RxNorm, skipping", "name", med.Name)
			continue
		}
		rxcuis = append(rxcuis, res.RxCUI)
	}

	if len(rxcuis) < 2 {
		return buildReport(len(medications), nil), nil
	}

	var list interactionListResponse
	err := c.getJSON(ctx, "/interaction/list.json?rxcuis="+url.QueryEscape(strings.Join(rxcuis, " ")), &list)
	if err != nil {
		return nil, fmt.Errorf("interaction list: %w", err)
	}

	var found []entities.DrugInteraction
	for _, group := range list.FullInteractionTypeGroup {
		for _, full := range group.FullInteractionType {
			if len(full.MinConcept) < 2 || len(full.InteractionPair) == 0 {
				continue
			}
			pair := full.InteractionPair[0]
			found = append(found, entities.DrugInteraction{
				DrugA:       full.MinConcept[0].Name,
				DrugB:       full.MinConcept[1].Name,
				Severity:    mapSeverity(pair.Severity),
				Description: pair.Description,
			})
		}
	}
	return buildReport(len(medications), found), nil
}

// mapSeverity folds RxNav severity labels onto the internal scale. RxNav
// reports "N/A" for unclassified interactions; those rate moderate rather
// than low so they are not silently buried.
func mapSeverity(s string) entities.Severity {
	switch strings.ToLower(s) {
	case "high":
		return entities.SeverityHigh
	case "moderate":
		return entities.SeverityModerate
	case "low":
		return entities.SeverityLow
	default:
		return entities.SeverityModerate
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	start := time.Now()
	outcome := "success"
	defer func() {
		metrics.GatewayRequestDuration.WithLabelValues("rxnav", outcome).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		outcome = "error"
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		outcome = "error"
		return fmt.Errorf("rxnav request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		outcome = "error"
		return fmt.Errorf("rxnav returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		outcome = "error"
		return fmt.Errorf("read rxnav response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		outcome = "error"
		return fmt.Errorf("decode rxnav response: %w", err)
	}
	return nil
}
