// Package screenprofile loads named screening profiles from YAML.
package screenprofile

import (
	"github.com/wonny/winners/internal/contracts"
	"github.com/wonny/winners/internal/selection"
)

// Profile is one named screening setup
// ⭐ SSOT: config/screener/*.yaml 의 구조
type Profile struct {
	Meta     Meta                     `yaml:"meta" json:"meta"`
	Screen   contracts.ScreenCriteria `yaml:"screen" json:"screen"`
	Ranking  RankingConfig            `yaml:"ranking" json:"ranking"`
	Schedule ScheduleConfig           `yaml:"schedule" json:"schedule"`
}

// Meta identifies the profile
type Meta struct {
	ProfileID   string `yaml:"profile_id" json:"profile_id"`
	Description string `yaml:"description" json:"description"`
}

// RankingConfig controls relative strength eligibility
type RankingConfig struct {
	MinCoverage float64 `yaml:"min_coverage" json:"min_coverage"` // 0.8 = lookback 의 80%
}

// ScheduleConfig holds cron specs (with seconds) for maintenance jobs.
// An empty spec disables the job.
type ScheduleConfig struct {
	Incremental  string `yaml:"incremental" json:"incremental"`
	FullRebuild  string `yaml:"full_rebuild" json:"full_rebuild"`
	DataCoverage string `yaml:"data_coverage" json:"data_coverage"`
}

// Default returns the built-in "winners" profile
func Default() *Profile {
	return &Profile{
		Meta: Meta{
			ProfileID:   "winners",
			Description: "Relative strength leaders with growing revenue and positive EBIT",
		},
		Screen: contracts.DefaultScreenCriteria(),
		Ranking: RankingConfig{
			MinCoverage: selection.DefaultMinCoverage,
		},
		Schedule: ScheduleConfig{
			Incremental:  "0 30 18 * * 1-5", // 평일 18:30 (장 마감 후 가격 적재 이후)
			FullRebuild:  "0 0 3 * * 0",     // 일요일 03:00
			DataCoverage: "0 0 19 * * 1-5",  // incremental 이후
		},
	}
}
