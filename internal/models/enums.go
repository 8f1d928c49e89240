package models

// Status - статус происшествия в жизненном цикле
type Status string

const (
	StatusNew         Status = "NEW"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusInProgress  Status = "IN_PROGRESS"
	StatusCompleted   Status = "COMPLETED"
)

// Statuses возвращает статусы в каноническом порядке
func Statuses() []Status {
	return []Status{StatusNew, StatusUnderReview, StatusInProgress, StatusCompleted}
}

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusUnderReview, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Pending сообщает, ожидает ли происшествие обработки
func (s Status) Pending() bool {
	switch s {
	case StatusNew, StatusUnderReview:
		return true
	case StatusInProgress, StatusCompleted:
		return false
	}
	return false
}

// OccurrenceType - закрытый набор категорий происшествий
type OccurrenceType string

const (
	TypeFire           OccurrenceType = "FIRE"
	TypeFlooding       OccurrenceType = "FLOODING"
	TypeTraffic        OccurrenceType = "TRAFFIC"
	TypeStructuralRisk OccurrenceType = "STRUCTURAL_RISK"
	TypeFallenTree     OccurrenceType = "FALLEN_TREE"
	TypeAccident       OccurrenceType = "ACCIDENT"
	TypeRescue         OccurrenceType = "RESCUE"
	TypeLeak           OccurrenceType = "LEAK"
)

func OccurrenceTypes() []OccurrenceType {
	return []OccurrenceType{
		TypeFire, TypeFlooding, TypeTraffic, TypeStructuralRisk,
		TypeFallenTree, TypeAccident, TypeRescue, TypeLeak,
	}
}

func (t OccurrenceType) Valid() bool {
	switch t {
	case TypeFire, TypeFlooding, TypeTraffic, TypeStructuralRisk,
		TypeFallenTree, TypeAccident, TypeRescue, TypeLeak:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}
