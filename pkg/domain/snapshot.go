package domain

import "time"

// Snapshot is a serializable summary of a person's position in every module they ran.
type Snapshot struct {
	PersonID string                    `json:"person_id"`
	Time     time.Time                 `json:"time"`
	Modules  map[string]ModuleSnapshot `json:"modules"`
}

// ModuleSnapshot captures one module's history, newest first.
type ModuleSnapshot struct {
	Completed bool          `json:"completed"`
	Trail     []StateRecord `json:"trail"`
}

// StateRecord is the persisted form of one state instance.
type StateRecord struct {
	Name    string     `json:"name"`
	Kind    string     `json:"kind"`
	Entered *time.Time `json:"entered,omitempty"`
	Exited  *time.Time `json:"exited,omitempty"`
}

// Current returns the name of the active state, or "" when the trail is empty.
func (m ModuleSnapshot) Current() string {
	if len(m.Trail) == 0 {
		return ""
	}
	return m.Trail[0].Name
}
