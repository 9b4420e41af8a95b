package model

// Identity is the verified requester attached to every call. It comes from
// the auth token and is trusted as is.
type Identity struct {
	UserID string
	Email  string
}
