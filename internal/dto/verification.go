package dto

type OrganizationsRequest struct {
	OrganizationIDs []string `json:"organization_ids"`
}

type OrganizationRequest struct {
	OrganizationID string `json:"organization_id"`
}

type ChangeStatusRequest struct {
	OrganizationID string `json:"organization_id"`
	Status         string `json:"status"`
}
