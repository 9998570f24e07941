package pickup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"olza-admin/internal/events"
	"olza-admin/internal/logger"
	"olza-admin/internal/models"
	"olza-admin/internal/services/olza"
	"olza-admin/internal/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	service   *Service
	dataDir   string
	publisher *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dataDir := filepath.Join(t.TempDir(), "data")
	pub := &recordingPublisher{}
	fetcher := olza.NewFetcher(olza.Timeouts{Countries: 2 * time.Second, Config: 2 * time.Second, Find: 2 * time.Second}, nil, logger.Discard())
	return &fixture{
		service:   NewService(fetcher, storage.NewFileStore(dataDir), pub, "Showing defaults.", logger.Discard()),
		dataDir:   dataDir,
		publisher: pub,
	}
}

func upstreamServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func settingsFor(url string) *models.Settings {
	defaults := models.DefaultSelection()
	return &models.Settings{
		APIURL:            url,
		AccessToken:       "tok",
		SelectedCountries: defaults.Countries,
		SelectedProviders: defaults.Providers,
	}
}

func TestListAvailableOptionsFallbackWhenUnreachable(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	got, err := f.service.ListAvailableOptions(context.Background(), settingsFor(url))
	if err != nil {
		t.Fatalf("ListAvailableOptions: %v", err)
	}
	if got.Source != SourceFallback || got.Message != "Showing defaults." {
		t.Errorf("source=%q message=%q", got.Source, got.Message)
	}
	want := []models.Country{{
		Code:  "cz",
		Label: "CZ",
		Providers: []models.Provider{
			{Code: "ppl-ps", Label: "Ppl Ps"},
			{Code: "wedo-box", Label: "Wedo Box"},
		},
	}}
	if !reflect.DeepEqual(got.Countries, want) {
		t.Errorf("countries = %#v", got.Countries)
	}
}

func TestListAvailableOptionsIsIdempotent(t *testing.T) {
	f := newFixture(t)
	srv := upstreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/countries") {
			w.Write([]byte(`{"cz":"Czechia","sk":"Slovakia"}`))
			return
		}
		w.Write([]byte(`{"speditions":["ppl-ps"]}`))
	})

	first, err := f.service.ListAvailableOptions(context.Background(), settingsFor(srv.URL))
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := f.service.ListAvailableOptions(context.Background(), settingsFor(srv.URL))
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first.Source != SourceAPI || !reflect.DeepEqual(first, second) {
		t.Errorf("first = %+v, second = %+v", first, second)
	}
	if len(first.Countries) != 2 || first.Countries[1].Providers[0].Label != "PPL-PS" {
		t.Errorf("countries = %+v", first.Countries)
	}
}

func TestListAvailableOptionsErrors(t *testing.T) {
	f := newFixture(t)
	srv := upstreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"Token expired"}`))
	})

	_, err := f.service.ListAvailableOptions(context.Background(), &models.Settings{APIURL: srv.URL})
	if appErr, ok := models.AsAppError(err); !ok || appErr.Message != MsgCredentials {
		t.Errorf("missing token: err = %v", err)
	}

	_, err = f.service.ListAvailableOptions(context.Background(), settingsFor(srv.URL))
	if appErr, ok := models.AsAppError(err); !ok || appErr.Message != "Token expired" || !errors.Is(err, models.ErrUpstream) {
		t.Errorf("envelope: err = %v", err)
	}
}

func TestRefreshPartialSuccess(t *testing.T) {
	f := newFixture(t)
	srv := upstreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		country := r.URL.Query().Get("country")
		switch {
		case strings.HasSuffix(r.URL.Path, "/config") && country == "aa":
			w.WriteHeader(http.StatusServiceUnavailable)
		case strings.HasSuffix(r.URL.Path, "/config"):
			w.Write([]byte(`{"data":{"speditions":{"ppl-ps":{"name":"PPL"},"other":{}}}}`))
		case strings.HasSuffix(r.URL.Path, "/find"):
			w.Write([]byte(`{"items":[1,2,3]}`))
		}
	})

	cfg := settingsFor(srv.URL)
	cfg.SelectedCountries = []string{"aa", "bb"}
	cfg.SelectedProviders = map[string][]string{"bb": {"ppl-ps", "missing"}}
	cfg.CountriesSaved, cfg.ProvidersSaved = true, true

	report, err := f.service.RefreshPickupPointFiles(context.Background(), cfg)
	if err != nil {
		t.Fatalf("RefreshPickupPointFiles: %v", err)
	}

	if !report.Success || !report.Partial {
		t.Errorf("success=%v partial=%v", report.Success, report.Partial)
	}
	wantMessage := "Configuration for BB saved.\n" +
		"Spedition ppl-ps for BB saved.\n" +
		"Failed to retrieve configuration for AA: upstream returned status 503"
	if report.Message != wantMessage {
		t.Errorf("message = %q, want %q", report.Message, wantMessage)
	}
	if report.FilesWritten != 2 || report.Countries != 2 {
		t.Errorf("files=%d countries=%d", report.FilesWritten, report.Countries)
	}

	for _, name := range []string{"bb.json", "bb_ppl-ps.json"} {
		if _, err := os.Stat(filepath.Join(f.dataDir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(f.dataDir, "aa.json")); !os.IsNotExist(err) {
		t.Errorf("aa.json should not exist: %v", err)
	}

	if len(f.publisher.events) != 1 || f.publisher.events[0].Type != events.TypePickupPointsRefreshed {
		t.Errorf("events = %+v", f.publisher.events)
	}
}

func TestRefreshAllFailuresIsFailure(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	report, err := f.service.RefreshPickupPointFiles(context.Background(), settingsFor(url))
	if err != nil {
		t.Fatalf("RefreshPickupPointFiles: %v", err)
	}
	if report.Success || report.Partial {
		t.Errorf("success=%v partial=%v", report.Success, report.Partial)
	}
	if len(report.Errors) != 1 || !strings.HasPrefix(report.Message, "Failed to retrieve configuration for CZ: ") {
		t.Errorf("message = %q", report.Message)
	}
}

func TestRefreshProviderSelection(t *testing.T) {
	var mu sync.Mutex
	var finds []string
	srv := upstreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/config"):
			w.Write([]byte(`{"speditions":["wedo-box","ppl-ps","zasilkovna"]}`))
		case strings.HasSuffix(r.URL.Path, "/find"):
			mu.Lock()
			finds = append(finds, r.URL.Query().Get("spedition"))
			mu.Unlock()
			w.Write([]byte(`[]`))
		}
	})

	tests := []struct {
		name      string
		providers map[string][]string
		saved     bool
		want      []string
	}{
		{"defaults before first save", map[string][]string{"cz": {"ppl-ps", "wedo-box"}}, false, []string{"ppl-ps", "wedo-box"}},
		{"saved selection", map[string][]string{"cz": {"zasilkovna"}}, true, []string{"zasilkovna"}},
		{"saved but empty for country", map[string][]string{}, true, []string{"wedo-box", "ppl-ps", "zasilkovna"}},
		{"saved selection not available", map[string][]string{"cz": {"gls"}}, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finds = nil
			f := newFixture(t)
			cfg := settingsFor(srv.URL)
			cfg.SelectedProviders = tt.providers
			cfg.ProvidersSaved = tt.saved

			report, err := f.service.RefreshPickupPointFiles(context.Background(), cfg)
			if err != nil {
				t.Fatalf("RefreshPickupPointFiles: %v", err)
			}
			if !reflect.DeepEqual(finds, tt.want) {
				t.Errorf("fetched %v, want %v", finds, tt.want)
			}
			if tt.want == nil && !strings.Contains(report.Message, "No providers selected for CZ.") {
				t.Errorf("message = %q", report.Message)
			}
			if !report.Success {
				t.Errorf("report failed: %q", report.Message)
			}
		})
	}
}

func TestRefreshInvalidConfigJSON(t *testing.T) {
	f := newFixture(t)
	srv := upstreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	})

	report, err := f.service.RefreshPickupPointFiles(context.Background(), settingsFor(srv.URL))
	if err != nil {
		t.Fatalf("RefreshPickupPointFiles: %v", err)
	}
	want := "Configuration for CZ saved.\nInvalid configuration JSON for CZ."
	if report.Message != want || !report.Success {
		t.Errorf("report = %+v", report)
	}
}

func TestRefreshPreflightErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		cfg  *models.Settings
		kind error
		msg  string
	}{
		{"no credentials", &models.Settings{}, models.ErrConfiguration, MsgCredentials},
		{"no countries", &models.Settings{APIURL: "https://api.example", AccessToken: "t", SelectedCountries: []string{"", "!!"}}, models.ErrValidation, MsgSelectCountry},
		{"bad url", &models.Settings{APIURL: "api.example", AccessToken: "t", SelectedCountries: []string{"cz"}}, models.ErrConfiguration, MsgEndpoints},
	}

	for _, tt := range tests {
		_, err := f.service.RefreshPickupPointFiles(context.Background(), tt.cfg)
		appErr, ok := models.AsAppError(err)
		if !ok || !errors.Is(err, tt.kind) || appErr.Message != tt.msg {
			t.Errorf("%s: err = %v", tt.name, err)
		}
	}
	if len(f.publisher.events) != 0 {
		t.Errorf("preflight failures published %d events", len(f.publisher.events))
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name        string
		results     []unitResult
		wantSuccess bool
		wantPartial bool
	}{
		{"nothing to do", nil, true, false},
		{"only errors", []unitResult{failed("a"), failed("b")}, false, false},
		{"mixed", []unitResult{failed("a"), succeeded("ok", "f")}, true, true},
		{"informational only", []unitResult{succeeded("No providers selected for CZ.", "")}, true, false},
	}
	for _, tt := range tests {
		r := merge(&Report{}, tt.results)
		if r.Success != tt.wantSuccess || r.Partial != tt.wantPartial {
			t.Errorf("%s: success=%v partial=%v", tt.name, r.Success, r.Partial)
		}
	}

	r := merge(&Report{}, []unitResult{failed("boom"), succeeded("saved", "x")})
	if r.Message != "saved\nboom" {
		t.Errorf("message = %q, want successes before errors", r.Message)
	}
}

func TestBuildCountryPayload(t *testing.T) {
	got := BuildCountryPayload([]string{"CZ", "", "sk"}, map[string][]string{"cz": {"ppl-ps", "", "wedo_box"}})
	want := []models.Country{
		{Code: "cz", Label: "CZ", Providers: []models.Provider{{Code: "ppl-ps", Label: "Ppl Ps"}, {Code: "wedo_box", Label: "Wedo_box"}}},
		{Code: "sk", Label: "SK", Providers: []models.Provider{}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildCountryPayload = %#v", got)
	}
}
