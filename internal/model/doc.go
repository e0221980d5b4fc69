// Package model defines the data structures shared across the crawler,
// report writers, and database layers. It has no dependencies on other
// internal packages so that any layer can import it freely.
package model
