// Package core provides the contact selection logic.
//
// This package holds every rule the contact selector applies, independent of
// any UI or transport layer. The web page, the terminal picker, and the CLI
// all drive the same [State] value.
//
// # Import
//
// Decoded spreadsheet rows ([Row]) become [Contact] values through
// [Normalize], which derives the display name from "Name" or from
// "First Name" + "Last Name". Each contact gets the sheet position as its ID,
// so two textually identical rows remain distinct contacts.
//
// # Selection
//
// [State] partitions the contacts into an unselected and a selected list.
// Transitions are pure:
//
//	s := core.State{}.ImportAll(importID, "contacts.csv", rows)
//	s, err := s.Select(importID, 3)   // unselected -> end of selected
//	s, err = s.Deselect(importID, 3)  // selected -> end of unselected
//	s = s.SetQuery("ada")
//
// A toggle for a contact that is not in the source list, or one rendered
// against an older import, returns an error and leaves the state as it was.
//
// # Search
//
// [Filter] keeps contacts whose name or first phone contains the query,
// using Unicode case folding.
//
// # Export
//
// [Project] maps contacts onto the fixed three-column export schema,
// filling "Unknown" and "N/A" for missing values.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
package core
