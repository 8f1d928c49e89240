package models

import "time"

// GroupCount - количество происшествий в группе (тип, статус, район)
type GroupCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type SummaryCounts struct {
	Total     int `json:"total"`
	Today     int `json:"today"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

type Dashboard struct {
	Summary  SummaryCounts `json:"summary"`
	ByType   []GroupCount  `json:"by_type"`
	ByStatus []GroupCount  `json:"by_status"`
	Recent   []*Occurrence `json:"recent"`
}

type PeriodReport struct {
	Period    string         `json:"period"`
	StartDate time.Time      `json:"start_date"`
	EndDate   time.Time      `json:"end_date"`
	ByDay     map[string]int `json:"by_day"`
	Total     int            `json:"total"`
}

// ResponseSample - время реакции одного происшествия; nil, если выезда не было
type ResponseSample struct {
	Type            OccurrenceType
	ResponseMinutes *int
}

type TypeMean struct {
	Type        OccurrenceType `json:"type"`
	MeanMinutes float64        `json:"mean_minutes"`
	SampleCount int            `json:"sample_count"`
}

type PerformanceReport struct {
	OverallMeanMinutes float64    `json:"overall_mean_minutes"`
	SampleCount        int        `json:"sample_count"`
	ByType             []TypeMean `json:"by_type"`
}
