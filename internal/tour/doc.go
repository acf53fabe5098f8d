// Package tour drives the guided tour of a name's journey: an introduction
// followed by one narrated step per waypoint.
//
// Each step advances only after both its minimum dwell has elapsed and its
// narration has finished (or failed). Every step entry gets a fresh
// rendezvous tagged with a generation token, and timer or speech callbacks
// carrying any other token are ignored, so stopping, selecting a waypoint or
// replacing the data can never be undone by a late callback.
package tour
