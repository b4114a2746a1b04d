package core

// error_messages.go maps technical errors to user-facing messages with codes
// that users can quote to support.
//
// # Error Codes Reference
//
// # Authentication (AUTH001-AUTH099)
//
//	AUTH001 - Invalid credentials: username or password did not match
//	          Patterns: "invalid username or password"
//
//	AUTH002 - Missing credentials: username or password left blank
//	          Patterns: "username is required", "password is required"
//
//	AUTH003 - Not signed in: no session or the session expired
//	          Patterns: "not logged in", "session expired"
//
// # Links (LINK001-LINK099)
//
//	LINK001 - Unknown link: no entry for the requested key
//	          Patterns: "no buttons found"
//
//	LINK002 - Incomplete button: a button is missing its name or URL
//	          Patterns: "button name is required", "url is required",
//	          "at least one button"
//
//	LINK003 - Invalid URL: redirect target does not start with http
//	          Patterns: "invalid url"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	          Patterns: "file too large"
//
//	FILE002 - Not a CSV file
//	          Patterns: "valid csv file"
//
//	FILE003 - No file selected
//	          Patterns: "no file provided"
//
// # Dataset Errors (DATA001-DATA099)
//
//	DATA001 - No rows: the CSV produced no rows (missing columns or no data lines)
//	          Patterns: "no valid data found"
//
//	DATA002 - Nothing loaded: an analysis request arrived before any upload
//	          Patterns: "no dataset loaded"
//
// # GitHub Errors (GH001-GH099)
//
//	GH001 - Token unavailable: the token endpoint failed
//	        Patterns: "fetch token"
//
//	GH002 - Storage rejected credentials
//	        Patterns: "github: unauthorized"
//
//	GH003 - Storage file missing
//	        Patterns: "github: not found"
//
//	GH004 - Storage unavailable: any other GitHub failure
//	        Patterns: "github:"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: too many uploads in progress
//	UPL004 - Request cancelled
//	UPL005 - Request timed out
//
// # Requests (REQ001)
//
//	REQ001 - Malformed request body
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//
// # Default (ERR000)
//
//	ERR000 - Unknown error; the technical error is in the application log.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Authentication
	{
		pattern: "invalid username or password",
		msg: UserMessage{
			Message: "Invalid username or password",
			Action:  "Check your credentials and try again",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "username is required",
		msg: UserMessage{
			Message: "Username is required",
			Action:  "Enter your username",
			Code:    "AUTH002",
		},
	},
	{
		pattern: "password is required",
		msg: UserMessage{
			Message: "Password is required",
			Action:  "Enter your password",
			Code:    "AUTH002",
		},
	},
	{
		pattern: "not logged in",
		msg: UserMessage{
			Message: "You are not signed in",
			Action:  "Sign in to continue",
			Code:    "AUTH003",
		},
	},
	{
		pattern: "session expired",
		msg: UserMessage{
			Message: "Your session has expired",
			Action:  "Sign in again to continue",
			Code:    "AUTH003",
		},
	},

	// Links
	{
		pattern: "no buttons found",
		msg: UserMessage{
			Message: "No buttons found for this link",
			Action:  "Check the link address",
			Code:    "LINK001",
		},
	},
	{
		pattern: "button name is required",
		msg: UserMessage{
			Message: "Every button needs a name",
			Action:  "Fill in the missing button names",
			Code:    "LINK002",
		},
	},
	{
		pattern: "url is required",
		msg: UserMessage{
			Message: "Every button needs a URL",
			Action:  "Fill in the missing URLs",
			Code:    "LINK002",
		},
	},
	{
		pattern: "at least one button",
		msg: UserMessage{
			Message: "Add at least one button",
			Action:  "Fill in a button name and URL",
			Code:    "LINK002",
		},
	},
	{
		pattern: "invalid url",
		msg: UserMessage{
			Message: "Invalid URL received.",
			Action:  "Use an address starting with http:// or https://",
			Code:    "LINK003",
		},
	},

	// Files
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller parts",
			Code:    "FILE001",
		},
	},
	{
		pattern: "valid csv file",
		msg: UserMessage{
			Message: "Please upload a valid CSV file",
			Action:  "Choose a file with a .csv extension",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE003",
		},
	},

	// Dataset
	{
		pattern: "no valid data found",
		msg: UserMessage{
			Message: "No valid data found in CSV",
			Action:  "Make sure the header has Ulasan, Rating, Kategori, Nama Produk and label",
			Code:    "DATA001",
		},
	},
	{
		pattern: "no dataset loaded",
		msg: UserMessage{
			Message: "No data has been uploaded yet",
			Action:  "Upload a CSV file first",
			Code:    "DATA002",
		},
	},

	// GitHub
	{
		pattern: "fetch token",
		msg: UserMessage{
			Message: "Could not obtain a storage token",
			Action:  "Please try again in a few moments",
			Code:    "GH001",
		},
	},
	{
		pattern: "github: unauthorized",
		msg: UserMessage{
			Message: "Storage rejected the request credentials",
			Action:  "Please try again; contact support if it persists",
			Code:    "GH002",
		},
	},
	{
		pattern: "github: not found",
		msg: UserMessage{
			Message: "A stored file could not be found",
			Action:  "Please contact support",
			Code:    "GH003",
		},
	},
	{
		pattern: "github:",
		msg: UserMessage{
			Message: "Storage is unavailable",
			Action:  "Please try again in a few moments",
			Code:    "GH004",
		},
	},

	// Uploads
	{
		pattern: "too many uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
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

	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Check the submitted data and try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. The first
// matching pattern wins; ERR000 is returned when nothing matches.
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

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with the message shown for it.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. It returns nil for a nil error.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
