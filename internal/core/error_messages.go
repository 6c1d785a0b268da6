// Package core provides the contact selection logic.
//
// # Error Codes Reference
//
// This file defines user-facing messages with codes for support reference.
// The page itself stays quiet about decode failures (the list simply does
// not change); these messages reach JSON clients and the CLI.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	          Action: Split the sheet or remove unused columns
//	          Patterns: "file too large"
//
//	FILE002 - Unreadable spreadsheet: The file could not be read as CSV or XLSX
//	          Action: Re-save the file as .csv or .xlsx and try again
//	          Patterns: "invalid spreadsheet"
//
//	FILE003 - Unsupported type: Only .csv and .xlsx files are accepted
//	          Action: Export the contacts as CSV or XLSX
//	          Patterns: "unsupported format"
//
//	FILE004 - No file: No file was selected
//	          Action: Choose a contacts file to upload
//	          Patterns: "no file provided"
//
//	FILE005 - Empty file: The uploaded file is empty
//	          Action: Upload a file with a header row and contacts
//	          Patterns: "empty file"
//
// # Selection Errors (SEL001-SEL099)
//
//	SEL001 - Contact not found: The contact is no longer in that list
//	         Action: Refresh the page
//	         Patterns: "contact not found"
//
//	SEL002 - Stale page: Contacts were re-uploaded since this page loaded
//	         Action: Refresh the page
//	         Patterns: "stale import"
//
//	SEL003 - Nothing selected: Select at least one contact to export
//	         Action: Tick contacts in the Unselected list first
//	         Patterns: "nothing selected"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many files are being read right now
//	UPL003 - Decode pending: A file is still being read
//	UPL004 - Request cancelled
//	UPL005 - Request timeout
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session expired: The browser session is unknown or expired
//
// # Rate Limiting (RATE001)
//
// # Default Error (ERR000)
//
// Patterns are matched case-insensitively with strings.Contains. The first
// matching pattern wins, so specific patterns come before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors (FILE001-FILE005)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the sheet or remove unused columns",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the sheet or remove unused columns",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid spreadsheet",
		msg: UserMessage{
			Message: "The file could not be read as CSV or XLSX",
			Action:  "Re-save the file as .csv or .xlsx and try again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unsupported format",
		msg: UserMessage{
			Message: "Only .csv and .xlsx files are accepted",
			Action:  "Export the contacts as CSV or XLSX",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose a contacts file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a file with a header row and contacts",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Selection Errors (SEL001-SEL003)
	// =========================================================================
	{
		pattern: "contact not found",
		msg: UserMessage{
			Message: "The contact is no longer in that list",
			Action:  "Refresh the page",
			Code:    "SEL001",
		},
	},
	{
		pattern: "stale import",
		msg: UserMessage{
			Message: "Contacts were re-uploaded since this page loaded",
			Action:  "Refresh the page",
			Code:    "SEL002",
		},
	},
	{
		pattern: "nothing selected",
		msg: UserMessage{
			Message: "Select at least one contact to export",
			Action:  "Tick contacts in the Unselected list first",
			Code:    "SEL003",
		},
	},

	// =========================================================================
	// Upload Errors (UPL002-UPL005)
	// =========================================================================
	{
		pattern: "too many decodes",
		msg: UserMessage{
			Message: "Too many files are being read right now",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "decode already in progress",
		msg: UserMessage{
			Message: "A file is still being read",
			Action:  "Wait for the current upload to finish",
			Code:    "UPL003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},

	// =========================================================================
	// Session Errors (SES001)
	// =========================================================================
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Your session has expired",
			Action:  "Reload the page and upload the file again",
			Code:    "SES001",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It returns the first matching pattern, or ERR000 when nothing matches.
//
// Example:
//
//	msg := MapError(fmt.Errorf("select 3: %w", ErrContactNotFound))
//	// msg.Code == "SEL001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
