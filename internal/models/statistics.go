package models

// DailyOutcome counts events per calendar day.
type DailyOutcome struct {
	Day        string `db:"day"`
	Violations int    `db:"violations"`
	Valid      int    `db:"valid"`
}

// QualityCounts feeds the accuracy, recall and precision figures. Scenario group B
// students are the ones the detector is expected to flag.
type QualityCounts struct {
	Total          int `db:"total"`
	Violations     int `db:"violations"`
	Valid          int `db:"valid"`
	Missed         int `db:"missed"`
	FalsePositives int `db:"false_positives"`
}
