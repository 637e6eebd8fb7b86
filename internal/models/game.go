package models

// Game identifies the category a stream is live under.
type Game struct {
	ID          string
	Name        string
	DisplayName string
}
