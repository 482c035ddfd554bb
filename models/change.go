package models

const (
	TableRestaurants = "restaurants"

	ChangeInsert = "insert"
	ChangeUpdate = "update"
	ChangeDelete = "delete"
)

// Change is the message published for every row change that needs re-indexing.
type Change struct {
	Table string `json:"table"`
	Kind  string `json:"kind"`
	ID    uint64 `json:"id"`
}
