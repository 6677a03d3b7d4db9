package model

import "github.com/google/uuid"

const DefaultDisplayName = "Guest"

type Participant struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
}

type Member struct {
	Participant
	Online bool `json:"online"`
}
