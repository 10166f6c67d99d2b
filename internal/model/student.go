package model

// Student is the identity of an exam taker, as asserted by the auth token.
type Student struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	ClassID int    `json:"class_id"`
}
