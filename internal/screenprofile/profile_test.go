package screenprofile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/winners/internal/contracts"
	"github.com/wonny/winners/pkg/logger"
)

func TestLoad_ShippedProfile(t *testing.T) {
	path := "../../config/screener/winners.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("profile not found")
	}

	profile, data, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	// 배포 프로파일은 기본값과 동일해야 함
	assert.Equal(t, Default(), profile)

	hash, err := Hash(profile)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	hash2, _ := Hash(Default())
	assert.Equal(t, hash, hash2)
}

func TestParse_UnknownFieldFails(t *testing.T) {
	_, err := Parse([]byte(`
meta:
  profile_id: typo
screen:
  min_prise: 10
`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(p *Profile)
		wantField string
	}{
		{"default is valid", func(p *Profile) {}, ""},
		{"missing id", func(p *Profile) { p.Meta.ProfileID = "" }, "meta.profile_id"},
		{"bad lookback", func(p *Profile) { p.Screen.LookbackDays = 0 }, "screen.lookback_days"},
		{"percentile out of range", func(p *Profile) { p.Screen.MinRSPercentile = 120 }, "screen.min_rs_percentile"},
		{"coverage above one", func(p *Profile) { p.Ranking.MinCoverage = 1.5 }, "ranking.min_coverage"},
		{"bad coverage cron", func(p *Profile) { p.Schedule.DataCoverage = "0 0 25 * * *" }, "schedule.data_coverage"},
		{"bad cron", func(p *Profile) { p.Schedule.Incremental = "every day" }, "schedule.incremental"},
		{"empty schedule allowed", func(p *Profile) { p.Schedule = ScheduleConfig{} }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.mutate(p)

			err := Validate(p)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var verr contracts.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantField, verr.Field)
			assert.True(t, contracts.IsInvalidParameter(err))
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	profile, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"), logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "winners", profile.Meta.ProfileID)

	path := filepath.Join(t.TempDir(), "tight.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
meta:
  profile_id: tight
screen:
  min_price: 50
  min_market_cap: 1000000000
  lookback_days: 126
  min_ebit: 50000000
  min_revenue_cagr: 0.2
  min_rs_percentile: 90
ranking:
  min_coverage: 0.9
`), 0o644))

	profile, err = LoadOrDefault(path, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "tight", profile.Meta.ProfileID)
	assert.Equal(t, 126, profile.Screen.LookbackDays)
	assert.Equal(t, 0.9, profile.Ranking.MinCoverage)

	require.NoError(t, os.WriteFile(path, []byte("meta:\n  profile_id: \"\"\n"), 0o644))
	_, err = LoadOrDefault(path, logger.NewNop())
	assert.Error(t, err)
}
