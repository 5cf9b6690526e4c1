// Package campaign is the simulation engine for a two-player campaign game
// on a generated city grid. Players buy advertising on building floors,
// poll regions of the city, challenge each other's polls and accumulate
// public opinion over a fixed number of turns.
//
// The package is pure: it performs no I/O and draws randomness only from
// the Rand passed in, so a fixed seed reproduces a game exactly.
package campaign
