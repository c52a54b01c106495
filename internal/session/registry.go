package session

import "github.com/classpulse/backend/internal/models"

// Registry is the sole owner of the connection id -> participant mapping.
// It is not safe for concurrent use; the coordinator serializes access.
type Registry struct {
	participants map[string]models.Participant
}

// NewRegistry creates an empty participant registry.
func NewRegistry() *Registry {
	return &Registry{participants: make(map[string]models.Participant)}
}

// SetRole inserts or overwrites the entry for a connection.
func (r *Registry) SetRole(connectionID, name string, role models.Role) models.Participant {
	p := models.Participant{ConnectionID: connectionID, Name: name, Role: role}
	r.participants[connectionID] = p
	return p
}

// Remove deletes the entry for a connection; no-op if absent.
func (r *Registry) Remove(connectionID string) {
	delete(r.participants, connectionID)
}

// Get returns the participant for a connection.
func (r *Registry) Get(connectionID string) (models.Participant, bool) {
	p, ok := r.participants[connectionID]
	return p, ok
}

// List returns a point-in-time copy of all participants, in no particular order.
func (r *Registry) List() []models.Participant {
	out := make([]models.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, p)
	}
	return out
}
