// Package constants provides shared constants used throughout odflow.
// This includes timeouts, limits, file permissions, and the defaults that
// describe where the ONS migration datasets live and how they are recoded.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to ONS and data portals
	DefaultHTTPTimeout = 2 * time.Minute

	// StorageReadTimeout bounds a single object download
	StorageReadTimeout = 5 * time.Minute

	// StorageWriteTimeout bounds a single object upload
	StorageWriteTimeout = 5 * time.Minute

	// StorageListTimeout bounds a prefix listing
	StorageListTimeout = 30 * time.Second

	// StepTimeout is the default timeout for one pipeline step
	StepTimeout = 30 * time.Minute
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// MaxConcurrentDownloads is the maximum number of concurrent file downloads
	MaxConcurrentDownloads = 4

	// MaxRetries is the maximum number of retry attempts for HTTP requests
	MaxRetries = 3

	// RetryBackoff is the base backoff duration for HTTP retries
	RetryBackoff = 1 * time.Second
)

// Source locations.
const (
	// ONSBaseURL is the site root used to resolve relative download links
	ONSBaseURL = "https://www.ons.gov.uk"

	// ONSDatasetPage lists the internal migration dataset downloads
	ONSDatasetPage = ONSBaseURL + "/peoplepopulationandcommunity/populationandmigration/populationestimates/datasets/internalmigrationinenglandandwales/"

	// ONSLinkMatch selects the detailed estimates download links on the dataset page
	ONSLinkMatch = "detailedinternalmigrationestimates"

	// PopulationBackseriesURL is the modelled population backseries (2023 geography)
	PopulationBackseriesURL = "https://data.london.gov.uk/download/modelled-population-backseries/" +
		"2b07a39b-ba63-403a-a3fc-5456518ca785/full_modelled_estimates_series_EW%282023_geog%29.rds"
)

// Default storage layout, relative to the configured store root.
const (
	DefaultBucket              = "dpa-population-projection-data"
	DefaultRawPrefix           = "population_mid_year_estimates/ons_data/1_raw/"
	DefaultCleanPrefix         = "population_mid_year_estimates/ons_data/2_cleaned_data/"
	DefaultCombinedKey         = "population_mid_year_estimates/ons_data/3_cleaned_data_combined/cleaned_data_combined.parquet"
	DefaultBackseriesKey       = "population_mid_year_estimates/modelled-population-backseries/origin_destination_2002_to_2020.parquet.zip"
	DefaultRecodeLookupKey     = "lookups/gss_recode_changes.csv"
	DefaultSeriesPrefix        = "population_mid_year_estimates/ons_data/4_clean_old_and_new_combined_series.parquet/"
	DefaultProcessedPrefix     = "population_mid_year_estimates/processed/"
	DefaultPopulationKey       = "population_mid_year_estimates/processed/population_coc.rds"
	DefaultRegionLookupKey     = "lookups/lookup_lad_rgn_ctry.csv"
	DefaultCountryLookupKey    = "lookups/lookup_lad_ctry.csv"
	DefaultInnerOuterLookupKey = "lookups/lookup_lad_inner_outer_london.csv"
)

// Recoding defaults.
const (
	// DefaultCutoverYear is the first year served by the new ONS series
	DefaultCutoverYear = 2012

	// DefaultOldVintage is the GSS geography year of the backseries
	DefaultOldVintage = 2021

	// DefaultNewVintage is the GSS geography year of the new ONS series
	DefaultNewVintage = 2023

	// DefaultRecodePattern selects English and Welsh local authority codes
	DefaultRecodePattern = "E0|W0"

	// DefaultSheetIndex is the zero-based worksheet holding the detailed estimates
	DefaultSheetIndex = 4

	// DefaultRounding is the number of decimals kept in gross flows
	DefaultRounding = 1

	// DefaultChildMaxAge is the oldest age included in children flows
	DefaultChildMaxAge = 15
)

// Geography codes used by the aggregation steps.
const (
	EnglandCode       = "E92000001"
	LondonRegionCode  = "E12000007"
	InnerLondonCode   = "E13000001"
	OuterLondonCode   = "E13000002"
	LondonBoroughStem = "E09"
	TotalCode         = "total"
	OtherCode         = "other"
)
