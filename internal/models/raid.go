package models

// Raid represents an active raid that a streamer's channel is running,
// which a viewer can choose to follow to the target channel.
type Raid struct {
	ID          string
	TargetLogin string
}

func NewRaid(id, targetLogin string) *Raid {
	return &Raid{ID: id, TargetLogin: targetLogin}
}

func (r *Raid) Equal(other *Raid) bool {
	if other == nil {
		return false
	}
	return r.ID == other.ID
}
