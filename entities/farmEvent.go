package entities

import (
	"errors"
	"time"
)

var timeUnits = map[string]bool{
	"never": true, "minutely": true, "hourly": true, "daily": true,
	"weekly": true, "monthly": true, "yearly": true,
}

// FarmEvent schedules a sequence or regimen on the device calendar.
type FarmEvent struct {
	DeviceOwned
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
	Repeat         int        `json:"repeat"`
	TimeUnit       string     `json:"time_unit"`
	ExecutableID   uint       `gorm:"index:idx_farm_event_executable" json:"executable_id"`
	ExecutableType string     `gorm:"index:idx_farm_event_executable" json:"executable_type"`
}

func (f *FarmEvent) Validate() (string, error) {
	if f.TimeUnit != "" && !timeUnits[f.TimeUnit] {
		return "time_unit", errors.New("unknown time unit")
	}
	if f.ExecutableType != "" && f.ExecutableType != "Sequence" && f.ExecutableType != "Regimen" {
		return "executable_type", errors.New("must be Sequence or Regimen")
	}
	if f.EndTime != nil && f.EndTime.Before(f.StartTime) {
		return "end_time", errors.New("must be after start_time")
	}
	return "", nil
}
