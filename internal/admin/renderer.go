// Package admin renders the server-side settings page and serves its script.
package admin

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strconv"

	"olza-admin/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed assets/admin.js
var adminJS []byte

// Script returns the embedded settings page script.
func Script() []byte {
	return adminJS
}

// FeeField is one fee-rule repeater on the settings page.
type FeeField struct {
	ID    string
	Title string
}

// DefaultFeeFields are always shown, even before any rule was saved.
var DefaultFeeFields = []FeeField{
	{ID: "basket_fee", Title: "Basket fee"},
}

// Messages are the strings the page script shows to the admin.
type Messages struct {
	Confirm        string `json:"confirm"`
	GenericError   string `json:"genericError"`
	RefreshSuccess string `json:"refreshSuccess"`
	NoCountries    string `json:"noCountries"`
	NoProviders    string `json:"noProviders"`
}

var defaultMessages = Messages{
	Confirm:        "Refresh pickup point data for the selected countries? This can take several minutes.",
	GenericError:   "Something went wrong while talking to the server. Please try again.",
	RefreshSuccess: "Pickup point data refreshed.",
	NoCountries:    "No countries are available.",
	NoProviders:    "No providers are available for this country.",
}

// Endpoints are the URLs the page script calls.
type Endpoints struct {
	Options string `json:"options"`
	Refresh string `json:"refresh"`
}

// PageData is everything the settings page needs.
type PageData struct {
	Settings        *models.Settings
	Username        string
	RequestToken    string
	SaveToken       string
	Endpoints       Endpoints
	FallbackPayload []models.Country
	Notice          string
	Error           string
}

// bootstrap is serialized into the page for the script.
type bootstrap struct {
	RequestToken      string              `json:"requestToken"`
	Endpoints         Endpoints           `json:"endpoints"`
	SelectedCountries []string            `json:"selectedCountries"`
	SelectedProviders map[string][]string `json:"selectedProviders"`
	FallbackCountries []models.Country    `json:"fallbackCountries"`
	Messages          Messages            `json:"messages"`
}

type conditionOption struct {
	Value    string
	Label    string
	Selected bool
}

type ruleRow struct {
	Index      int
	Amount     string
	Fee        string
	Conditions []conditionOption
}

type feeFieldView struct {
	ID    string
	Title string
	Rows  []ruleRow
	Blank ruleRow
}

type pageView struct {
	PageData
	FeeFields             []feeFieldView
	SelectedCountriesJSON string
	SelectedProvidersJSON string
	Bootstrap             bootstrap
}

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse admin templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// LoginData is what the sign-in page shows.
type LoginData struct {
	Username string
	Error    string
}

// RenderLogin writes the sign-in page.
func (r *Renderer) RenderLogin(w io.Writer, data LoginData) error {
	return r.tmpl.ExecuteTemplate(w, "login.html", data)
}

// RenderSettings writes the settings page.
func (r *Renderer) RenderSettings(w io.Writer, data PageData) error {
	view, err := buildView(data)
	if err != nil {
		return err
	}
	return r.tmpl.ExecuteTemplate(w, "settings.html", view)
}

func buildView(data PageData) (*pageView, error) {
	s := data.Settings
	if s == nil {
		s = &models.Settings{}
		data.Settings = s
	}

	countriesJSON, err := json.Marshal(nonNilCodes(s.SelectedCountries))
	if err != nil {
		return nil, err
	}
	providers := s.SelectedProviders
	if providers == nil {
		providers = map[string][]string{}
	}
	providersJSON, err := json.Marshal(providers)
	if err != nil {
		return nil, err
	}

	fallback := data.FallbackPayload
	if fallback == nil {
		fallback = []models.Country{}
	}

	return &pageView{
		PageData:              data,
		FeeFields:             feeFields(s.FeeRules),
		SelectedCountriesJSON: string(countriesJSON),
		SelectedProvidersJSON: string(providersJSON),
		Bootstrap: bootstrap{
			RequestToken:      data.RequestToken,
			Endpoints:         data.Endpoints,
			SelectedCountries: nonNilCodes(s.SelectedCountries),
			SelectedProviders: providers,
			FallbackCountries: fallback,
			Messages:          defaultMessages,
		},
	}, nil
}

// feeFields lists the default repeaters first, then any other saved rule set by id.
func feeFields(saved map[string][]models.FeeRule) []feeFieldView {
	fields := append([]FeeField{}, DefaultFeeFields...)
	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.ID] = true
	}

	var extra []string
	for id := range saved {
		if !known[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		fields = append(fields, FeeField{ID: id, Title: id})
	}

	views := make([]feeFieldView, 0, len(fields))
	for _, f := range fields {
		view := feeFieldView{ID: f.ID, Title: f.Title}
		for i, rule := range saved[f.ID] {
			view.Rows = append(view.Rows, ruleRow{
				Index:      i,
				Amount:     formatNumber(rule.Amount),
				Fee:        formatNumber(rule.Fee),
				Conditions: conditionOptions(rule.Condition),
			})
		}
		if len(view.Rows) == 0 {
			view.Rows = []ruleRow{{Index: 0, Conditions: conditionOptions("")}}
		}
		view.Blank = ruleRow{Conditions: conditionOptions("")}
		views = append(views, view)
	}
	return views
}

func conditionOptions(selected models.FeeCondition) []conditionOption {
	options := make([]conditionOption, 0, len(models.FeeConditions))
	for _, c := range models.FeeConditions {
		options = append(options, conditionOption{
			Value:    string(c),
			Label:    c.Label(),
			Selected: c == selected,
		})
	}
	return options
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func nonNilCodes(codes []string) []string {
	if codes == nil {
		return []string{}
	}
	return codes
}
