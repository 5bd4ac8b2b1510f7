package sqlstore

import "strings"

// Statements use ? placeholders; Dialect.rebind rewrites them where needed.

const (
	dropHotelsSQL = `DROP TABLE IF EXISTS hotels`
	dropGuestsSQL = `DROP TABLE IF EXISTS guests`
)

// -----------------------------------------------------------------------------
// HOTELS
// -----------------------------------------------------------------------------

const insertHotelSQL = `INSERT INTO hotels (name, location) VALUES (?, ?)`

const updateHotelSQL = `
UPDATE hotels
SET name = ?, location = ?
WHERE id = ?`

const deleteHotelSQL = `DELETE FROM hotels WHERE id = ?`

const selectHotelsSQL = `SELECT id, name, location FROM hotels`

const hotelExistsSQL = `SELECT 1 FROM hotels WHERE id = ?`

// -----------------------------------------------------------------------------
// GUESTS
// -----------------------------------------------------------------------------

const insertGuestSQL = `INSERT INTO guests (name, hotel_id) VALUES (?, ?)`

const updateGuestSQL = `
UPDATE guests
SET name = ?, hotel_id = ?
WHERE id = ?`

const deleteGuestSQL = `DELETE FROM guests WHERE id = ?`

const selectGuestsSQL = `SELECT id, name, hotel_id FROM guests`

// Reads are ordered by primary key, which is the storage order of a SQLite
// rowid table and keeps the other engines deterministic.
const (
	byIDClause      = ` WHERE id = ?`
	byNameClause    = ` WHERE name = ? ORDER BY id LIMIT 1`
	byHotelClause   = ` WHERE hotel_id = ? ORDER BY id`
	orderByIDClause = ` ORDER BY id`
)

// byIDsClause matches n primary keys.
func byIDsClause(n int) string {
	return ` WHERE id IN (?` + strings.Repeat(`, ?`, n-1) + `) ORDER BY id`
}
