package model

// Table is a physical dining table.  Tables are seeded once at startup
// from the built-in layout or a YAML layout file and are never modified
// through the API.
//
// Fields:
//  ID       – table number shown to guests (primary key).
//  Capacity – maximum number of guests the table seats.
//  Type     – placement label such as window, interior or room.
type Table struct {
    ID       uint64 `json:"id" yaml:"id"`             // dining_tables.id
    Capacity int    `json:"capacity" yaml:"capacity"` // dining_tables.capacity
    Type     string `json:"table_type" yaml:"type"`   // dining_tables.table_type
}

// DefaultLayout returns the dining room the restaurant opened with: eight
// four-seat tables and two eight-seat tables.
func DefaultLayout() []Table {
    return []Table{
        {ID: 1, Capacity: 4, Type: "window"},
        {ID: 2, Capacity: 4, Type: "window"},
        {ID: 3, Capacity: 4, Type: "window"},
        {ID: 4, Capacity: 4, Type: "window"},
        {ID: 5, Capacity: 4, Type: "window"},
        {ID: 6, Capacity: 4, Type: "interior"},
        {ID: 7, Capacity: 4, Type: "room"},
        {ID: 8, Capacity: 4, Type: "room"},
        {ID: 9, Capacity: 8, Type: "window"},
        {ID: 10, Capacity: 8, Type: "room"},
    }
}
