package v1

import (
	"github.com/shenikar/occurrence_tracking_system/internal/models"
)

// CreateDTOToOccurrenceModel преобразует DTO создания в доменную модель
func CreateDTOToOccurrenceModel(dto CreateOccurrenceRequest) *models.Occurrence {
	occ := &models.Occurrence{
		Type:         models.OccurrenceType(dto.Type),
		Place:        dto.Place,
		Address:      dto.Address,
		Neighborhood: dto.Neighborhood,
		Priority:     models.Priority(dto.Priority),
		Description:  dto.Description,
	}
	if dto.Latitude != nil {
		occ.Latitude = *dto.Latitude
	}
	if dto.Longitude != nil {
		occ.Longitude = *dto.Longitude
	}
	if dto.OccurredAt != nil {
		occ.OccurredAt = dto.OccurredAt.UTC()
	}
	return occ
}

// UpdateDTOToOccurrenceUpdate переносит только присланные поля
func UpdateDTOToOccurrenceUpdate(dto UpdateOccurrenceRequest) models.OccurrenceUpdate {
	update := models.OccurrenceUpdate{
		Place:        dto.Place,
		Address:      dto.Address,
		Neighborhood: dto.Neighborhood,
		Latitude:     dto.Latitude,
		Longitude:    dto.Longitude,
		Description:  dto.Description,
		AssignedTo:   dto.AssignedTo,
	}
	if dto.Priority != nil {
		p := models.Priority(*dto.Priority)
		update.Priority = &p
	}
	if dto.Status != nil {
		s := models.Status(*dto.Status)
		update.Status = &s
	}
	return update
}

// ModelToOccurrenceResponse преобразует доменную модель в DTO для ответа
func ModelToOccurrenceResponse(model *models.Occurrence) *OccurrenceResponse {
	return &OccurrenceResponse{
		ID:              model.ID,
		Type:            string(model.Type),
		Place:           model.Place,
		Address:         model.Address,
		Neighborhood:    model.Neighborhood,
		Latitude:        model.Latitude,
		Longitude:       model.Longitude,
		Status:          string(model.Status),
		Priority:        string(model.Priority),
		Description:     model.Description,
		OccurredAt:      model.OccurredAt,
		DispatchedAt:    model.DispatchedAt,
		ResolvedAt:      model.ResolvedAt,
		ResponseMinutes: model.ResponseMinutes,
		CreatedBy:       model.CreatedBy,
		AssignedTo:      model.AssignedTo,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// ModelsToOccurrenceResponses преобразует слайс моделей в слайс DTO
func ModelsToOccurrenceResponses(models []*models.Occurrence) []*OccurrenceResponse {
	responses := make([]*OccurrenceResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToOccurrenceResponse(model)
	}
	return responses
}

func ModelToHistoryEntryResponse(entry *models.HistoryEntry) *HistoryEntryResponse {
	return &HistoryEntryResponse{
		ID:             entry.ID,
		PreviousStatus: string(entry.PreviousStatus),
		NewStatus:      string(entry.NewStatus),
		Note:           entry.Note,
		ActedBy:        entry.ActedBy,
		CreatedAt:      entry.CreatedAt,
	}
}

func ModelsToHistoryEntryResponses(entries []*models.HistoryEntry) []*HistoryEntryResponse {
	responses := make([]*HistoryEntryResponse, len(entries))
	for i, entry := range entries {
		responses[i] = ModelToHistoryEntryResponse(entry)
	}
	return responses
}
