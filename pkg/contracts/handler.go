// Package contracts holds the interfaces the application shell needs from the booking
// service without importing it.
package contracts

import "github.com/julienschmidt/httprouter"

// Handler mounts a set of routes: the booking API on the app router, the
// health and readiness endpoints on their own.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// EngineState reports whether the date router is serving. Readiness fails while it is
// not, since every booking command would be answered as unavailable.
type EngineState interface {
	Active() bool
}
