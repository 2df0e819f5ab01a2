package authapi

import "time"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type databaseStatus struct {
	Version           string `json:"version"`
	MaxConnections    int    `json:"max_connections"`
	OpenedConnections int    `json:"opened_connections"`
}

type statusDependencies struct {
	Database *databaseStatus `json:"database"`
}

type statusResponse struct {
	UpdatedAt    time.Time          `json:"updated_at"`
	Dependencies statusDependencies `json:"dependencies"`
}
