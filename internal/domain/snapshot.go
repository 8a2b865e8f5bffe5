package domain

// Snapshot is the last-good state persisted between restarts: where the
// screening points, what the user chose, and the weather last applied.
type Snapshot struct {
	Location    *Location    `json:"location,omitempty"`
	Inputs      UserInputs   `json:"inputs"`
	Observation *Observation `json:"observation,omitempty"`
}
