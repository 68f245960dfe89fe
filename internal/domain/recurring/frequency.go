package recurring

import (
	"slices"

	"cloud.google.com/go/civil"
)

// Frequency labels the typical spacing of a recurring payment.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
	FrequencyIrregular Frequency = "irregular"
)

// band maps an inclusive range of median gap days to a label.
type band struct {
	minDays, maxDays int
	label            Frequency
}

// Gaps between the bands (121-299 days, over 430) classify as irregular.
var frequencyBands = []band{
	{1, 10, FrequencyWeekly},
	{11, 20, FrequencyBiweekly},
	{21, 45, FrequencyMonthly},
	{46, 120, FrequencyQuarterly},
	{300, 430, FrequencyYearly},
}

// ClassifyGap labels a median gap in days.
func ClassifyGap(days int) Frequency {
	for _, b := range frequencyBands {
		if days >= b.minDays && days <= b.maxDays {
			return b.label
		}
	}
	return FrequencyIrregular
}

// ClassifyDates labels sorted, distinct dates by their median gap.
// Fewer than two dates is irregular.
func ClassifyDates(dates []civil.Date) Frequency {
	if len(dates) < 2 {
		return FrequencyIrregular
	}
	return ClassifyGap(medianGap(dates))
}

func medianGap(dates []civil.Date) int {
	gaps := make([]int, 0, len(dates)-1)
	for i := 1; i < len(dates); i++ {
		gaps = append(gaps, dates[i].DaysSince(dates[i-1]))
	}
	slices.Sort(gaps)

	mid := len(gaps) / 2
	if len(gaps)%2 == 1 {
		return gaps[mid]
	}
	return (gaps[mid-1] + gaps[mid]) / 2
}
