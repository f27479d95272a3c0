package domain

// Caller is the authenticated principal behind a request, taken from the
// verified bearer token and never from the request body.
type Caller struct {
	UserID string
	Email  string
	Role   string
}
