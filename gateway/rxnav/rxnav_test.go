package rxnav

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/medreconcile/medreconcile-api/clinical/entities"
)

func TestStaticResolve(t *testing.T) {
	g := NewStaticGateway()
	ctx := context.Background()

	tests := []struct {
		name string
		want string
	}{
		{"lisinopril", "29046"},
		{"Lisinopril", "29046"},
		{"  METFORMIN  ", "6809"},
		{"unobtainium", ""},
	}
	for _, tt := range tests {
		got, err := g.Resolve(ctx, tt.name)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", tt.name, err)
		}
		if got.RxCUI != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.name, got.RxCUI, tt.want)
		}
	}
}

func TestStaticResolveSuggestions(t *testing.T) {
	g := NewStaticGateway()

	// Misspelled name shares a prefix with the table entry.
	res, err := g.Resolve(context.Background(), "Lisinoprril")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.RxCUI != "" {
		t.Errorf("misspelled name resolved to %q", res.RxCUI)
	}
	if len(res.Suggestions) != 1 || res.Suggestions[0] != "lisinopril" {
		t.Errorf("suggestions = %v, want [lisinopril]", res.Suggestions)
	}

	// Nothing close means no suggestions.
	res, err = g.Resolve(context.Background(), "unobtainium")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(res.Suggestions) != 0 {
		t.Errorf("suggestions = %v, want none", res.Suggestions)
	}
}

func TestStaticInteractions(t *testing.T) {
	g := NewStaticGateway()
	ctx := context.Background()

	meds := []entities.Medication{
		{Name: "Warfarin"},
		{Name: "Aspirin"},
		{Name: "Metformin"},
	}
	report, err := g.Interactions(ctx, meds)
	if err != nil {
		t.Fatalf("Interactions failed: %v", err)
	}
	if report.MedicationsChecked != 3 {
		t.Errorf("MedicationsChecked = %d, want 3", report.MedicationsChecked)
	}
	if len(report.Interactions) != 1 {
		t.Fatalf("found %d interactions, want 1", len(report.Interactions))
	}
	if report.Interactions[0].Severity != entities.SeverityHigh {
		t.Errorf("severity = %s, want high", report.Interactions[0].Severity)
	}
	if report.HighestSeverity != entities.SeverityHigh {
		t.Errorf("HighestSeverity = %s, want high", report.HighestSeverity)
	}
	if report.BySeverity["high"] != 1 {
		t.Errorf("BySeverity[high] = %d, want 1", report.BySeverity["high"])
	}
}

func TestStaticInteractionsOrderIndependent(t *testing.T) {
	g := NewStaticGateway()
	ctx := context.Background()

	forward, _ := g.Interactions(ctx, []entities.Medication{{Name: "Warfarin"}, {Name: "Ibuprofen"}})
	reverse, _ := g.Interactions(ctx, []entities.Medication{{Name: "Ibuprofen"}, {Name: "Warfarin"}})

	if len(forward.Interactions) != 1 || len(reverse.Interactions) != 1 {
		t.Fatalf("pair lookup depends on order: %d vs %d", len(forward.Interactions), len(reverse.Interactions))
	}
}

func TestStaticInteractionsNoneFound(t *testing.T) {
	g := NewStaticGateway()
	report, err := g.Interactions(context.Background(), []entities.Medication{
		{Name: "Amlodipine"},
		{Name: "Omeprazole"},
	})
	if err != nil {
		t.Fatalf("Interactions failed: %v", err)
	}
	if len(report.Interactions) != 0 {
		t.Errorf("found %d interactions, want 0", len(report.Interactions))
	}
	if report.HighestSeverity != entities.SeverityNone {
		t.Errorf("HighestSeverity = %s, want none", report.HighestSeverity)
	}
}

func TestClientResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/rxcui.json"):
			if r.URL.Query().Get("name") == "lisinopril" {
				w.Write([]byte(`{"idGroup":{"rxnormId":["29046"]}}`))
				return
			}
			w.Write([]byte(`{"idGroup":{}}`))
		case strings.HasPrefix(r.URL.Path, "/approximateTerm.json"):
			w.Write([]byte(`{"approximateGroup":{"candidate":[
				{"rxcui":"99999","name":"lisinopril 10 MG Oral Tablet"},
				{"rxcui":"88888","name":"lisinopril 20 MG Oral Tablet"}
			]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)

	got, err := c.Resolve(context.Background(), "lisinopril")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.RxCUI != "29046" {
		t.Errorf("exact match = %q, want 29046", got.RxCUI)
	}
	if len(got.Suggestions) != 0 {
		t.Errorf("exact match carried suggestions: %v", got.Suggestions)
	}

	got, err = c.Resolve(context.Background(), "lisinopril 10mg tab")
	if err != nil {
		t.Fatalf("Resolve fallback failed: %v", err)
	}
	if got.RxCUI != "99999" {
		t.Errorf("approximate match = %q, want 99999", got.RxCUI)
	}
	if len(got.Suggestions) != 2 || got.Suggestions[0] != "lisinopril 10 MG Oral Tablet" {
		t.Errorf("suggestions = %v", got.Suggestions)
	}
}

func TestClientInteractions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/rxcui.json"):
			w.Write([]byte(`{"idGroup":{"rxnormId":["1"]}}`))
		case strings.HasPrefix(r.URL.Path, "/interaction/list.json"):
			w.Write([]byte(`{"fullInteractionTypeGroup":[{"fullInteractionType":[{
				"minConcept":[{"name":"warfarin"},{"name":"aspirin"}],
				"interactionPair":[{"severity":"high","description":"Increased bleeding risk."}]
			}]}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	report, err := c.Interactions(context.Background(), []entities.Medication{
		{Name: "Warfarin"},
		{Name: "Aspirin"},
	})
	if err != nil {
		t.Fatalf("Interactions failed: %v", err)
	}
	if len(report.Interactions) != 1 {
		t.Fatalf("found %d interactions, want 1", len(report.Interactions))
	}
	ix := report.Interactions[0]
	if ix.DrugA != "warfarin" || ix.DrugB != "aspirin" {
		t.Errorf("pair = %s/%s, want warfarin/aspirin", ix.DrugA, ix.DrugB)
	}
	if ix.Severity != entities.SeverityHigh {
		t.Errorf("severity = %s, want high", ix.Severity)
	}
}

func TestClientInteractionsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	if _, err := c.Interactions(context.Background(), []entities.Medication{{Name: "Warfarin"}, {Name: "Aspirin"}}); err == nil {
		t.Fatal("Interactions succeeded against a failing server, want error")
	}
}

func TestMapSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want entities.Severity
	}{
		{"high", entities.SeverityHigh},
		{"High", entities.SeverityHigh},
		{"moderate", entities.SeverityModerate},
		{"low", entities.SeverityLow},
		{"N/A", entities.SeverityModerate},
		{"", entities.SeverityModerate},
	}
	for _, tt := range tests {
		if got := mapSeverity(tt.in); got != tt.want {
			t.Errorf("mapSeverity(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
