package settings

import (
	"context"
	"net/url"
	"path/filepath"
	"reflect"
	"testing"

	"olza-admin/internal/database"
	"olza-admin/internal/logger"
	"olza-admin/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.New("sqlite://"+filepath.Join(t.TempDir(), "settings.db"), "error")
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db.DB, logger.Discard())
}

func TestSanitizeKey(t *testing.T) {
	tests := map[string]string{
		"CZ":          "cz",
		" ppl-ps ":    "ppl-ps",
		"wedo_box":    "wedo_box",
		"Zásilkovna!": "zsilkovna",
		"":            "",
		"<b>":         "b",
	}
	for in, want := range tests {
		if got := SanitizeKey(in); got != want {
			t.Errorf("SanitizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeCountries(t *testing.T) {
	got := Sanitize(models.KeySelectedCountries, []interface{}{"CZ", "cz", "", "sk"})
	want := []string{"cz", "sk"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sanitize countries = %#v, want %#v", got, want)
	}

	if got := SanitizeCodes("cz"); len(got) != 0 {
		t.Errorf("non-list input = %#v, want empty", got)
	}
}

func TestSanitizeProviders(t *testing.T) {
	raw := map[string]interface{}{
		"CZ": []interface{}{"PPL-PS", "ppl-ps", "", "wedo-box"},
		"":   []interface{}{"x"},
		"sk": "not-a-list",
	}
	got := Sanitize(models.KeySelectedProviders, raw)
	want := map[string][]string{
		"cz": {"ppl-ps", "wedo-box"},
		"sk": {},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sanitize providers = %#v, want %#v", got, want)
	}
}

func TestSanitizeProvidersCollidingKeys(t *testing.T) {
	raw := map[string]interface{}{
		"cz": []interface{}{"wedo-box"},
		"CZ": []interface{}{"ppl-ps"},
	}
	for i := 0; i < 5; i++ {
		got := SanitizeProviderMap(raw)
		want := map[string][]string{"cz": {"wedo-box"}}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("SanitizeProviderMap = %#v, want %#v", got, want)
		}
	}
}

func TestSanitizePassesOtherKeysThrough(t *testing.T) {
	raw := []interface{}{map[string]interface{}{"amount": "10"}}
	if got := Sanitize("basket_fee", raw); !reflect.DeepEqual(got, raw) {
		t.Errorf("Sanitize(basket_fee) = %#v", got)
	}
	if got := Sanitize(models.KeyAPIURL, " https://x "); got != " https://x " {
		t.Errorf("Sanitize(api_url) = %#v", got)
	}
}

func TestLoadWithoutBlobUsesDefaults(t *testing.T) {
	store := newTestStore(t)

	s, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.CountriesSaved || s.ProvidersSaved {
		t.Error("fresh install reports saved selection")
	}
	if !reflect.DeepEqual(s.SelectedCountries, []string{"cz"}) {
		t.Errorf("SelectedCountries = %v", s.SelectedCountries)
	}
	if !reflect.DeepEqual(s.SelectedProviders["cz"], []string{"ppl-ps", "wedo-box"}) {
		t.Errorf("SelectedProviders = %v", s.SelectedProviders)
	}
	if s.HasCredentials() {
		t.Error("fresh install has credentials")
	}
}

func TestActivateIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Activate(ctx); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	s, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.CountriesSaved || !s.ProvidersSaved {
		t.Error("Activate did not persist the default selection")
	}

	if _, err := store.Save(ctx, map[string]interface{}{models.KeySelectedCountries: []string{"sk"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Activate(ctx); err != nil {
		t.Fatalf("second Activate: %v", err)
	}
	s, _ = store.Load(ctx)
	if !reflect.DeepEqual(s.SelectedCountries, []string{"sk"}) {
		t.Errorf("Activate overwrote saved selection: %v", s.SelectedCountries)
	}
}

func TestSaveSanitizesAndMerges(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, map[string]interface{}{
		models.KeyAPIURL:            " https://api.olza.example/v1 ",
		models.KeyAccessToken:       "tok",
		models.KeySelectedCountries: []interface{}{"CZ", "cz", "", "sk"},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Second save touches only the providers; earlier keys must survive.
	s, err := store.Save(ctx, map[string]interface{}{
		models.KeySelectedProviders: map[string][]string{"SK": {"packeta", "PACKETA"}},
		"basket_fee": []interface{}{
			map[string]interface{}{"amount": "1000", "condition": "greater_than_equal", "fee": "0"},
		},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if s.APIURL != "https://api.olza.example/v1" || s.AccessToken != "tok" {
		t.Errorf("credentials = %q / %q", s.APIURL, s.AccessToken)
	}
	if !reflect.DeepEqual(s.SelectedCountries, []string{"cz", "sk"}) {
		t.Errorf("SelectedCountries = %v", s.SelectedCountries)
	}
	if !s.ProvidersSaved || !reflect.DeepEqual(s.SelectedProviders, map[string][]string{"sk": {"packeta"}}) {
		t.Errorf("SelectedProviders = %v (saved=%v)", s.SelectedProviders, s.ProvidersSaved)
	}
	rules := s.FeeRules["basket_fee"]
	if len(rules) != 1 || rules[0].Amount != 1000 || rules[0].Condition != models.FeeConditionGreaterThanEqual {
		t.Errorf("FeeRules = %+v", s.FeeRules)
	}

	reloaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(reloaded, s) {
		t.Errorf("Load() = %+v, want %+v", reloaded, s)
	}
}

func TestSavedEmptySelectionDoesNotFallBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	s, err := store.Save(ctx, map[string]interface{}{models.KeySelectedCountries: []string{}})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !s.CountriesSaved || len(s.SelectedCountries) != 0 {
		t.Errorf("SelectedCountries = %v (saved=%v)", s.SelectedCountries, s.CountriesSaved)
	}
	if s.ProvidersSaved {
		t.Error("providers marked saved")
	}
	if len(s.SelectedProviders["cz"]) != 2 {
		t.Errorf("providers did not fall back to defaults: %v", s.SelectedProviders)
	}
}

func TestFromForm(t *testing.T) {
	form := url.Values{}
	form.Add("olza_options[api_url]", "https://api.olza.example")
	form.Add("olza_options[access_token]", "secret")
	form.Add("olza_options[selected_countries]", "")
	form.Add("olza_options[selected_countries][]", "CZ")
	form.Add("olza_options[selected_countries][]", "sk")
	form.Add("olza_options[selected_providers][cz][]", "")
	form.Add("olza_options[selected_providers][cz][]", "ppl-ps")
	form.Add("olza_options[selected_providers][sk][]", "")
	form.Add("olza_options[basket_fee][1][amount]", "500")
	form.Add("olza_options[basket_fee][1][condition]", "less")
	form.Add("olza_options[basket_fee][1][fee]", "79")
	form.Add("olza_options[basket_fee][0][amount]", "1000")
	form.Add("olza_options[basket_fee][0][condition]", "greater_than_equal")
	form.Add("olza_options[basket_fee][0][fee]", "0")
	form.Add("save", "Save changes")

	values := FromForm(form)

	if values[models.KeyAPIURL] != "https://api.olza.example" {
		t.Errorf("api_url = %#v", values[models.KeyAPIURL])
	}
	if got := SanitizeCodes(values[models.KeySelectedCountries]); !reflect.DeepEqual(got, []string{"cz", "sk"}) {
		t.Errorf("selected_countries = %#v", got)
	}
	providers := SanitizeProviderMap(values[models.KeySelectedProviders])
	want := map[string][]string{"cz": {"ppl-ps"}, "sk": {}}
	if !reflect.DeepEqual(providers, want) {
		t.Errorf("selected_providers = %#v", providers)
	}

	rows, ok := values["basket_fee"].([]interface{})
	if !ok || len(rows) != 2 {
		t.Fatalf("basket_fee = %#v", values["basket_fee"])
	}
	first := rows[0].(map[string]interface{})
	if first["amount"] != "1000" || first["condition"] != "greater_than_equal" {
		t.Errorf("first row = %#v", first)
	}
	if _, ok := values["save"]; ok {
		t.Error("unprefixed field leaked into settings")
	}
}

func TestFromFormRoundTripThroughStore(t *testing.T) {
	store := newTestStore(t)
	form := url.Values{}
	form.Add("olza_options[selected_countries]", "")
	form.Add("olza_options[basket_fee][0][amount]", "100")
	form.Add("olza_options[basket_fee][0][condition]", "less")
	form.Add("olza_options[basket_fee][0][fee]", "49.9")

	s, err := store.Save(context.Background(), FromForm(form))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !s.CountriesSaved || len(s.SelectedCountries) != 0 {
		t.Errorf("unticking all countries should save an empty list, got %v", s.SelectedCountries)
	}
	rules := s.FeeRules["basket_fee"]
	if len(rules) != 1 || rules[0].Fee != 49.9 || rules[0].Condition != models.FeeConditionLess {
		t.Errorf("FeeRules = %+v", rules)
	}
}

func TestFromFormDeletingEveryFeeRowClearsRules(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	form := url.Values{}
	form.Add("olza_options[basket_fee]", "")
	form.Add("olza_options[basket_fee][0][amount]", "100")
	form.Add("olza_options[basket_fee][0][condition]", "less")
	form.Add("olza_options[basket_fee][0][fee]", "49.9")
	if _, err := store.Save(ctx, FromForm(form)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// The page after the only row was deleted: just the hidden inputs remain.
	form = url.Values{}
	form.Add("olza_options[api_url]", "https://api.olza.example")
	form.Add("olza_options[access_token]", "")
	form.Add("olza_options[selected_countries]", "")
	form.Add("olza_options[selected_providers]", "")
	form.Add("olza_options[basket_fee]", "")

	values := FromForm(form)
	if rows, ok := values["basket_fee"].([]interface{}); !ok || len(rows) != 0 {
		t.Fatalf("basket_fee = %#v, want an empty list", values["basket_fee"])
	}
	if values[models.KeyAccessToken] != "" {
		t.Errorf("access_token = %#v, want an empty string", values[models.KeyAccessToken])
	}

	if _, err := store.Save(ctx, values); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rules, ok := s.FeeRules["basket_fee"]; ok {
		t.Errorf("deleted fee rules survived the save: %+v", rules)
	}
}
