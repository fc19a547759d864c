// Package store defines the persistence contract for harvest run
// diagnostics. Implementations live in other packages; this package must not
// import database drivers or concrete clients.
package store
