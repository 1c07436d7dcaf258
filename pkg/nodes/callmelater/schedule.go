package callmelater

import (
	"regexp"

	"github.com/callmelater/operion-callmelater/pkg/models"
)

const scheduleNow = "now"

var relativeSchedule = regexp.MustCompile(`^\d+[mhdw]$`)

// ParseSchedule maps "30m", "2d" and the like to a relative wait and passes
// anything else through as an absolute timestamp.
func ParseSchedule(schedule string) models.Schedule {
	if relativeSchedule.MatchString(schedule) {
		return models.Schedule{Wait: schedule}
	}

	return models.Schedule{At: schedule}
}

// ParseApprovalSchedule additionally accepts "now" as a zero wait.
func ParseApprovalSchedule(schedule string) models.Schedule {
	if schedule == scheduleNow {
		return models.Schedule{Wait: "0m"}
	}

	return ParseSchedule(schedule)
}
