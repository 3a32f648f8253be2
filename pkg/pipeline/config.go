package pipeline

import (
	"time"

	"github.com/agentstation/odflow/pkg/constants"
	"github.com/agentstation/odflow/pkg/errors"
	"github.com/agentstation/odflow/pkg/flows"
	"github.com/agentstation/odflow/pkg/gss"
)

// Config is the explicit configuration of one pipeline invocation. Keys
// and prefixes are relative to the store root.
type Config struct {
	Paths   Paths   `mapstructure:"paths" yaml:"paths" json:"paths"`
	Lookups Lookups `mapstructure:"lookups" yaml:"lookups" json:"lookups"`

	// Sources
	DatasetPage   string `mapstructure:"dataset_page" yaml:"dataset_page" json:"dataset_page"`
	LinkMatch     string `mapstructure:"link_match" yaml:"link_match" json:"link_match"`
	PopulationURL string `mapstructure:"population_url" yaml:"population_url" json:"population_url"`

	// Cleaning
	SheetIndex int `mapstructure:"sheet_index" yaml:"sheet_index" json:"sheet_index"`

	// Reconciliation
	CutoverYear int    `mapstructure:"cutover_year" yaml:"cutover_year" json:"cutover_year"`
	OldVintage  int    `mapstructure:"old_vintage" yaml:"old_vintage" json:"old_vintage"`
	NewVintage  int    `mapstructure:"new_vintage" yaml:"new_vintage" json:"new_vintage"`
	Pattern     string `mapstructure:"pattern" yaml:"pattern" json:"pattern"`
	Aggregation string `mapstructure:"aggregation" yaml:"aggregation" json:"aggregation"`

	// Aggregation
	Rounding    int `mapstructure:"rounding" yaml:"rounding" json:"rounding"`
	ChildMaxAge int `mapstructure:"child_max_age" yaml:"child_max_age" json:"child_max_age"`

	// Force re-downloads files that already exist in the store.
	Force bool `mapstructure:"force" yaml:"force" json:"force"`

	// StepTimeout bounds each step.
	StepTimeout time.Duration `mapstructure:"step_timeout" yaml:"step_timeout" json:"step_timeout"`
}

// Paths locates every step's inputs and outputs in the store.
type Paths struct {
	Raw        string `mapstructure:"raw" yaml:"raw" json:"raw"`
	Clean      string `mapstructure:"clean" yaml:"clean" json:"clean"`
	Combined   string `mapstructure:"combined" yaml:"combined" json:"combined"`
	Backseries string `mapstructure:"backseries" yaml:"backseries" json:"backseries"`
	Recode     string `mapstructure:"recode" yaml:"recode" json:"recode"`
	Series     string `mapstructure:"series" yaml:"series" json:"series"`
	Processed  string `mapstructure:"processed" yaml:"processed" json:"processed"`
	Population string `mapstructure:"population" yaml:"population" json:"population"`
}

// Lookup locates a geography lookup CSV and its key and value columns.
type Lookup struct {
	Key         string `mapstructure:"key" yaml:"key" json:"key"`
	KeyColumn   string `mapstructure:"key_column" yaml:"key_column" json:"key_column"`
	ValueColumn string `mapstructure:"value_column" yaml:"value_column" json:"value_column"`
}

// Lookups are the geography lookups used by the aggregation steps.
type Lookups struct {
	Region     Lookup `mapstructure:"region" yaml:"region" json:"region"`
	Country    Lookup `mapstructure:"country" yaml:"country" json:"country"`
	InnerOuter Lookup `mapstructure:"inner_outer" yaml:"inner_outer" json:"inner_outer"`
}

// DefaultConfig returns the layout and parameters of the published series.
func DefaultConfig() Config {
	return Config{
		Paths: Paths{
			Raw:        constants.DefaultRawPrefix,
			Clean:      constants.DefaultCleanPrefix,
			Combined:   constants.DefaultCombinedKey,
			Backseries: constants.DefaultBackseriesKey,
			Recode:     constants.DefaultRecodeLookupKey,
			Series:     constants.DefaultSeriesPrefix,
			Processed:  constants.DefaultProcessedPrefix,
			Population: constants.DefaultPopulationKey,
		},
		Lookups: Lookups{
			Region:     Lookup{Key: constants.DefaultRegionLookupKey, KeyColumn: "lad_code", ValueColumn: "region_code"},
			Country:    Lookup{Key: constants.DefaultCountryLookupKey, KeyColumn: "lad_code", ValueColumn: "country_code"},
			InnerOuter: Lookup{Key: constants.DefaultInnerOuterLookupKey, KeyColumn: "lad_code", ValueColumn: "io_london"},
		},
		DatasetPage:   constants.ONSDatasetPage,
		LinkMatch:     constants.ONSLinkMatch,
		PopulationURL: constants.PopulationBackseriesURL,
		SheetIndex:    constants.DefaultSheetIndex,
		CutoverYear:   constants.DefaultCutoverYear,
		OldVintage:    constants.DefaultOldVintage,
		NewVintage:    constants.DefaultNewVintage,
		Pattern:       constants.DefaultRecodePattern,
		Aggregation:   "sum",
		Rounding:      constants.DefaultRounding,
		ChildMaxAge:   constants.DefaultChildMaxAge,
		StepTimeout:   constants.StepTimeout,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	required := map[string]string{
		"paths.raw":        c.Paths.Raw,
		"paths.clean":      c.Paths.Clean,
		"paths.combined":   c.Paths.Combined,
		"paths.backseries": c.Paths.Backseries,
		"paths.recode":     c.Paths.Recode,
		"paths.series":     c.Paths.Series,
		"paths.processed":  c.Paths.Processed,
		"paths.population": c.Paths.Population,
	}
	for field, value := range required {
		if value == "" {
			return errors.NewValidationError(field, value, "cannot be empty")
		}
	}
	if c.SheetIndex < 0 {
		return errors.NewValidationError("sheet_index", c.SheetIndex, "cannot be negative")
	}
	if c.CutoverYear <= 0 {
		return errors.NewValidationError("cutover_year", c.CutoverYear, "must be positive")
	}
	if c.OldVintage <= 0 || c.NewVintage <= 0 {
		return errors.NewValidationError("vintage", [2]int{c.OldVintage, c.NewVintage}, "must be positive")
	}
	if _, err := gss.CompilePattern(c.Pattern); err != nil {
		return err
	}
	if _, err := flows.ParseAggregator(c.Aggregation); err != nil {
		return err
	}
	if c.ChildMaxAge < 0 {
		return errors.NewValidationError("child_max_age", c.ChildMaxAge, "cannot be negative")
	}
	return nil
}
