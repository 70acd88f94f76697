package core

// error_messages.go maps load errors to support codes.
//
// # Stage Errors
//
// Typed pipeline errors are matched by stage first:
//
//	SHAPE001 - Table shape: The table does not have 91 rows of 30 values
//	           Action: Check the row labels (0, 10, ..., 900) and fill every cell
//
//	IDX001   - Column header: A column header is not a decimal number
//	           Action: Use sigma values such as 0.0001 as column headers
//
//	ENC001   - Coefficient: A coefficient cannot be stored as fixed point
//	           Action: Use non-negative decimal values below 2^64
//
//	CNT001   - Cell count: The flattened table has the wrong number of cells
//	           Action: Report this to support; the table passed validation
//
//	SUB001   - Ledger rejected: The ledger rejected a batch
//	           Action: Fix the ledger problem and run the load again
//
//	FILE001  - Input file: The table file could not be read
//	           Action: Check the path and that the file is a CSV export
//
//	UPL001   - Cancelled: The load was cancelled before anything was written
//	           Action: Start the load again when ready
//
// # Pattern Errors
//
// Anything else is matched case-insensitively against the text of the error
// (and of the cause, for submission failures). The first matching pattern
// wins:
//
//	DB004 - "connection refused"
//	DB005 - "connection reset"
//	DB006 - "timeout", "deadline exceeded"
//	UPL002 - "already in progress"
//	DB008 - "no deployment"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the logs for the run_id.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Stage   string // Pipeline stage, empty for non-stage errors
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var stageMessages = map[string]UserMessage{
	StageShape: {
		Message: "The table does not have the expected shape",
		Action:  "Check the row labels (0, 10, ..., 900) and fill every cell",
		Code:    "SHAPE001",
	},
	StageIndex: {
		Message: "A column header is not a decimal number",
		Action:  "Use sigma values such as 0.0001 as column headers",
		Code:    "IDX001",
	},
	StageEncoding: {
		Message: "A coefficient cannot be stored as fixed point",
		Action:  "Use non-negative decimal values below 2^64",
		Code:    "ENC001",
	},
	StageCount: {
		Message: "The flattened table has the wrong number of cells",
		Action:  "Report this to support; the table passed validation",
		Code:    "CNT001",
	},
	StageSubmission: {
		Message: "The ledger rejected a batch",
		Action:  "Fix the ledger problem and run the load again",
		Code:    "SUB001",
	},
	StageInput: {
		Message: "The table file could not be read",
		Action:  "Check the path and that the file is a CSV export",
		Code:    "FILE001",
	},
	StageCancelled: {
		Message: "The load was cancelled before anything was written",
		Action:  "Start the load again when ready",
		Code:    "UPL001",
	},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns refine or replace the stage message when the error text
// points at a known infrastructure problem. Order matters.
var errorPatterns = []errorPattern{
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the ledger database",
			Action:  "Check DATABASE_URL and try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "The ledger connection was interrupted",
			Action:  "Run the load again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The ledger did not confirm in time",
			Action:  "Raise LEDGER_CALL_TIMEOUT or run the load again",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "The ledger did not confirm in time",
			Action:  "Raise LEDGER_CALL_TIMEOUT or run the load again",
			Code:    "DB006",
		},
	},
	{
		pattern: "already in progress",
		msg: UserMessage{
			Message: "Another load is still running",
			Action:  "Wait for it to finish and run the load again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "no deployment",
		msg: UserMessage{
			Message: "No K-table deployment is known yet",
			Action:  "Pass --ktable with a deployment name",
			Code:    "DB008",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the logs for this run and try again",
	Code:    "ERR000",
}

// MapError converts a load error to a user-friendly message. Stage errors
// map by stage, except that submission failures caused by a known
// infrastructure problem (timeouts, refused connections) get that problem's
// code. Other errors are matched by pattern.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	stage := StageOf(err)
	msg, isStage := stageMessages[stage]
	if isStage && stage != StageSubmission {
		msg.Stage = stage
		return msg
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			m := ep.msg
			m.Stage = stage
			return m
		}
	}

	if isStage {
		msg.Stage = stage
		return msg
	}
	return defaultMessage
}

// FormatUserError creates a one-line error for the CLI:
// "Stage: Message (Code: XXX). Action". Submission failures also name the
// failing batch.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}

	prefix := ""
	if msg.Stage != "" {
		prefix = msg.Stage + ": "
	}
	var sf *SubmissionFailure
	if errors.As(err, &sf) {
		prefix = fmt.Sprintf("%s (batch %d): ", StageSubmission, sf.BatchIndex)
	}
	return fmt.Sprintf("%s%s (Code: %s). %s", prefix, msg.Message, msg.Code, msg.Action)
}
