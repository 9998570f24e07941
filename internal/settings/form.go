package settings

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"olza-admin/internal/models"
)

// FormPrefix is the input name prefix used by the settings page.
const FormPrefix = models.OptionName

// FromForm turns the settings page form into raw values for Store.Save.
//
// Recognized shapes:
//
//	olza_options[api_url]                          scalar
//	olza_options[selected_countries][]             list
//	olza_options[selected_providers][cz][]         list per country
//	olza_options[basket_fee][0][amount]            repeater rows
//
// A bare olza_options[selected_countries] (the hidden empty input) still marks
// the key as submitted, so unticking everything saves an empty selection.
// Repeaters post a hidden empty olza_options[<fee-id>] the same way: with no
// rows left it saves an empty rule list.
func FromForm(form url.Values) map[string]interface{} {
	out := make(map[string]interface{})
	rows := make(map[string]map[string]map[string]string)
	emptyRepeaters := make(map[string]bool)

	for name, values := range form {
		segs, ok := splitFormName(name)
		if !ok || len(segs) == 0 || segs[0] == "" {
			continue
		}
		key := segs[0]

		switch {
		case key == models.KeySelectedCountries:
			list, _ := out[key].([]string)
			out[key] = append(list, values...)

		case key == models.KeySelectedProviders:
			providers, _ := out[key].(map[string][]string)
			if providers == nil {
				providers = make(map[string][]string)
			}
			if len(segs) >= 2 && segs[1] != "" {
				providers[segs[1]] = append(providers[segs[1]], values...)
			}
			out[key] = providers

		case len(segs) == 1 && isScalarKey(key):
			out[key] = lastValue(values)

		case len(segs) == 1:
			if v := lastValue(values); v != "" {
				out[key] = v
			} else {
				emptyRepeaters[key] = true
			}

		case len(segs) == 3 && segs[2] != "":
			if rows[key] == nil {
				rows[key] = make(map[string]map[string]string)
			}
			if rows[key][segs[1]] == nil {
				rows[key][segs[1]] = make(map[string]string)
			}
			rows[key][segs[1]][segs[2]] = lastValue(values)
		}
	}

	for key := range emptyRepeaters {
		if _, ok := rows[key]; !ok {
			out[key] = []interface{}{}
		}
	}
	for key, byIndex := range rows {
		out[key] = orderedRows(byIndex)
	}

	return out
}

func isScalarKey(key string) bool {
	return key == models.KeyAPIURL || key == models.KeyAccessToken
}

// splitFormName splits "olza_options[a][b][]" into ["a", "b", ""].
func splitFormName(name string) ([]string, bool) {
	if !strings.HasPrefix(name, FormPrefix+"[") {
		return nil, false
	}
	rest := name[len(FormPrefix):]

	var segs []string
	for rest != "" {
		if rest[0] != '[' {
			return nil, false
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, false
		}
		segs = append(segs, rest[1:end])
		rest = rest[end+1:]
	}
	return segs, true
}

// orderedRows sorts repeater rows by numeric index; non-numeric indexes sort after, by name.
func orderedRows(byIndex map[string]map[string]string) []interface{} {
	indexes := make([]string, 0, len(byIndex))
	for idx := range byIndex {
		indexes = append(indexes, idx)
	}
	sort.Slice(indexes, func(i, j int) bool {
		a, errA := strconv.Atoi(indexes[i])
		b, errB := strconv.Atoi(indexes[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return indexes[i] < indexes[j]
	})

	out := make([]interface{}, 0, len(indexes))
	for _, idx := range indexes {
		row := make(map[string]interface{}, len(byIndex[idx]))
		for field, value := range byIndex[idx] {
			row[field] = value
		}
		out = append(out, row)
	}
	return out
}

func lastValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[len(values)-1]
}
