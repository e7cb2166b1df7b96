package config

import (
	"encoding/json"
	"os"

	"psephos/domain/dataset"
	"psephos/internal/errors"
)

// LoadCatalog reads the metric and party descriptor configuration. The
// catalog is static display configuration, not derived from data; a CATALOG_FILE
// env var points at a JSON file, otherwise the built-in UK defaults apply.
func LoadCatalog() (dataset.Catalog, error) {
	path := os.Getenv("CATALOG_FILE")
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return dataset.Catalog{}, errors.Wrap(err, "failed to read catalog file")
	}

	var catalog dataset.Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return dataset.Catalog{}, errors.Wrap(err, "failed to parse catalog file")
	}
	if len(catalog.Metrics) == 0 || len(catalog.Parties) == 0 {
		return dataset.Catalog{}, errors.ConfigInvalid("catalog must declare at least one metric and one party")
	}
	return catalog, nil
}

// DefaultCatalog returns the built-in descriptor set for the standard UK
// constituency dataset. Swing variables are the signed ones; voteshares and
// census percentages treat zero as no data.
func DefaultCatalog() dataset.Catalog {
	return dataset.Catalog{
		Metrics: []dataset.MetricDescriptor{
			{Key: "imd_rank", Label: "IMD rank", Group: "Deprivation"},
			{Key: "imd_score", Label: "IMD score", Group: "Deprivation"},
			{Key: "income_deprivation", Label: "Income deprivation (%)", Group: "Deprivation"},
			{Key: "employment_deprivation", Label: "Employment deprivation (%)", Group: "Deprivation"},
			{Key: "no_quals_pct", Label: "No qualifications (%)", Group: "Census"},
			{Key: "degree_pct", Label: "Degree or above (%)", Group: "Census"},
			{Key: "owner_occupied_pct", Label: "Owner occupied (%)", Group: "Census"},
			{Key: "social_rented_pct", Label: "Social rented (%)", Group: "Census"},
			{Key: "over_65_pct", Label: "Aged 65+ (%)", Group: "Census"},
			{Key: "born_uk_pct", Label: "Born in UK (%)", Group: "Census"},
		},
		Parties: []dataset.PartyDescriptor{
			{Key: "con_share", Label: "Conservative voteshare", Color: "#0087dc"},
			{Key: "lab_share", Label: "Labour voteshare", Color: "#d50000"},
			{Key: "ld_share", Label: "Lib Dem voteshare", Color: "#fdbb30"},
			{Key: "ref_share", Label: "Reform voteshare", Color: "#12b6cf"},
			{Key: "green_share", Label: "Green voteshare", Color: "#6ab023"},
			{Key: "con_swing", Label: "Conservative swing", Color: "#0087dc", Signed: true},
			{Key: "lab_swing", Label: "Labour swing", Color: "#d50000", Signed: true},
			{Key: "ld_swing", Label: "Lib Dem swing", Color: "#fdbb30", Signed: true},
			{Key: "ref_swing", Label: "Reform swing", Color: "#12b6cf", Signed: true},
			{Key: "green_swing", Label: "Green swing", Color: "#6ab023", Signed: true},
		},
	}
}
