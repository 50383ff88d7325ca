package metadata

// UserContext represents the authenticated identity, set by auth middleware.
type UserContext struct {
	ID string `json:"id"`
}
