package dto

import "time"

type SessionFile struct {
	Id          string    `json:"id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	ContentType string    `json:"contentType"`
	Size        string    `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

type SessionInfoResponse struct {
	Tokens int           `json:"tokens"`
	Files  []SessionFile `json:"files"`
}

type ResetQuotaResponse struct {
	Tokens int `json:"tokens"`
}

type DeleteSessionResponse struct {
	Success bool `json:"success"`
}

// PurgeTenantMessage asks the background consumer to drop every indexed
// chunk belonging to a cleared session.
type PurgeTenantMessage struct {
	TenantID string `json:"tenant_id"`
}
