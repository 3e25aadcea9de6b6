package model

import "time"

// Table is a physical seating unit in the dining room.  Tables are
// seeded once and only the Active flag changes afterwards (a retired
// table keeps its row so historic reservations still resolve).
//
// Fields:
//  ID        – primary key identifier.
//  Number    – number printed on the table, used when talking to guests.
//  Capacity  – maximum party size the table seats.
//  Active    – whether the table can be allocated.
//  CreatedAt – creation timestamp.
type Table struct {
	ID        uint64    `json:"id"`         // restaurant_tables.id
	Number    int       `json:"number"`     // restaurant_tables.table_number
	Capacity  int       `json:"capacity"`   // restaurant_tables.capacity
	Active    bool      `json:"active"`     // restaurant_tables.is_active
	CreatedAt time.Time `json:"created_at"` // restaurant_tables.created_at
}

// DefaultTableCapacities is the inventory seeded into an empty
// database: table numbers 1..10 in order.
var DefaultTableCapacities = []int{2, 2, 4, 4, 4, 6, 6, 8, 8, 10}
