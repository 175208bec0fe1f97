// Package models defines data structures shared by the scout packages.
package models

import "time"

// NotAvailable is the placeholder for a record cell missing from the markup.
const NotAvailable = "N/A"

// Record represents a single result row from a search page.
type Record struct {
	District   string `csv:"district" json:"district"`
	Title      string `csv:"title" json:"title"`
	FreePlaces string `csv:"free_places" json:"free_places"`
}

// ArchivedRecord is a record stamped with the run that found it.
type ArchivedRecord struct {
	Run     uint64    `csv:"run" json:"run"`
	FoundAt time.Time `csv:"found_at" json:"found_at"`
	Record
}

// RunState tracks the position of the polling loop.
type RunState struct {
	RunNumber uint64
	Attempt   int
}
