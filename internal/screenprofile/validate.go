package screenprofile

import (
	"errors"

	"github.com/robfig/cron/v3"

	"github.com/wonny/winners/internal/contracts"
)

// scheduleParser matches the scheduler's cron.WithSeconds() format
var scheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate checks all required constraints
func Validate(p *Profile) error {
	if p.Meta.ProfileID == "" {
		return contracts.ValidationError{Field: "meta.profile_id", Message: "required"}
	}

	if err := p.Screen.Validate(); err != nil {
		var verr contracts.ValidationError
		if errors.As(err, &verr) {
			verr.Field = "screen." + verr.Field
			return verr
		}
		return err
	}

	if p.Ranking.MinCoverage <= 0 || p.Ranking.MinCoverage > 1 {
		return contracts.ValidationError{Field: "ranking.min_coverage", Message: "must be in (0, 1]"}
	}

	if err := validateSpec("schedule.incremental", p.Schedule.Incremental); err != nil {
		return err
	}
	if err := validateSpec("schedule.full_rebuild", p.Schedule.FullRebuild); err != nil {
		return err
	}
	return validateSpec("schedule.data_coverage", p.Schedule.DataCoverage)
}

// validateSpec accepts an empty spec (job disabled)
func validateSpec(field, spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := scheduleParser.Parse(spec); err != nil {
		return contracts.ValidationError{Field: field, Message: err.Error()}
	}
	return nil
}
