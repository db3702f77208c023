// Package diff computes the categorized change list between two resident
// snapshots and summarizes it for humans.
//
// Every function here is pure: no I/O, no clock, no shared state. Output
// order is part of the contract:
//
//  1. lot fields (lot number, building, floor, door, cellar, status)
//  2. owner fields (name, phone, email)
//  3. occupants: removed, added, then modified sub-fields
//  4. secondary accounts: removed, added, then modified sub-fields
package diff
