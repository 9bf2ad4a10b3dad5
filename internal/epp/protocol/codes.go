package protocol

import "fmt"

// Code is an EPP result code (RFC 5730 section 3).
type Code int

const (
	CodeOK                     Code = 1000
	CodeActionPending          Code = 1001
	CodeNoMessages             Code = 1300
	CodeAckToDequeue           Code = 1301
	CodeEndingSession          Code = 1500
	CodeUnknownCommand         Code = 2000
	CodeSyntaxError            Code = 2001
	CodeUseError               Code = 2002
	CodeParamMissing           Code = 2003
	CodeParamRange             Code = 2004
	CodeParamSyntax            Code = 2005
	CodeUnimplementedVersion   Code = 2100
	CodeUnimplementedCommand   Code = 2101
	CodeUnimplementedOption    Code = 2102
	CodeUnimplementedExtension Code = 2103
	CodeBillingFailure         Code = 2104
	CodeNotEligibleRenewal     Code = 2105
	CodeNotEligibleTransfer    Code = 2106
	CodeAuthenticationError    Code = 2200
	CodeAuthorizationError     Code = 2201
	CodeInvalidAuthInfo        Code = 2202
	CodePendingTransfer        Code = 2300
	CodeNotPendingTransfer     Code = 2301
	CodeObjectExists           Code = 2302
	CodeObjectDoesNotExist     Code = 2303
	CodeStatusProhibits        Code = 2304
	CodeAssociationProhibits   Code = 2305
	CodeParamPolicy            Code = 2306
	CodeUnimplementedService   Code = 2307
	CodeDataPolicyViolation    Code = 2308
	CodeCommandFailed          Code = 2400
	CodeFailedClosing          Code = 2500
	CodeAuthenticationClosing  Code = 2501
	CodeSessionLimitExceeded   Code = 2502
)

var codeText = map[Code]string{
	CodeOK:                     "Command completed successfully",
	CodeActionPending:          "Command completed successfully; action pending",
	CodeNoMessages:             "Command completed successfully; no messages",
	CodeAckToDequeue:           "Command completed successfully; ack to dequeue",
	CodeEndingSession:          "Command completed successfully; ending session",
	CodeUnknownCommand:         "Unknown command",
	CodeSyntaxError:            "Command syntax error",
	CodeUseError:               "Command use error",
	CodeParamMissing:           "Required parameter missing",
	CodeParamRange:             "Parameter value range error",
	CodeParamSyntax:            "Parameter value syntax error",
	CodeUnimplementedVersion:   "Unimplemented protocol version",
	CodeUnimplementedCommand:   "Unimplemented command",
	CodeUnimplementedOption:    "Unimplemented option",
	CodeUnimplementedExtension: "Unimplemented extension",
	CodeBillingFailure:         "Billing failure",
	CodeNotEligibleRenewal:     "Object is not eligible for renewal",
	CodeNotEligibleTransfer:    "Object is not eligible for transfer",
	CodeAuthenticationError:    "Authentication error",
	CodeAuthorizationError:     "Authorization error",
	CodeInvalidAuthInfo:        "Invalid authorization information",
	CodePendingTransfer:        "Object pending transfer",
	CodeNotPendingTransfer:     "Object not pending transfer",
	CodeObjectExists:           "Object exists",
	CodeObjectDoesNotExist:     "Object does not exist",
	CodeStatusProhibits:        "Object status prohibits operation",
	CodeAssociationProhibits:   "Object association prohibits operation",
	CodeParamPolicy:            "Parameter value policy error",
	CodeUnimplementedService:   "Unimplemented object service",
	CodeDataPolicyViolation:    "Data management policy violation",
	CodeCommandFailed:          "Command failed",
	CodeFailedClosing:          "Command failed; server closing connection",
	CodeAuthenticationClosing:  "Authentication error; server closing connection",
	CodeSessionLimitExceeded:   "Session limit exceeded; server closing connection",
}

// Text returns the RFC 5730 message for c.
func (c Code) Text() string {
	if t, ok := codeText[c]; ok {
		return t
	}
	return fmt.Sprintf("Result %d", int(c))
}

// IsSuccess reports whether c is a 1xxx completion code.
func (c Code) IsSuccess() bool { return c >= 1000 && c < 2000 }

// ClosesSession reports whether the server ends the session after replying with c.
func (c Code) ClosesSession() bool {
	switch c {
	case CodeEndingSession, CodeFailedClosing, CodeAuthenticationClosing, CodeSessionLimitExceeded:
		return true
	}
	return false
}

// Class groups error codes by the second digit: 0 protocol syntax,
// 1 implementation-specific, 2 security, 3 data management, 4 server system,
// 5 connection management.
func (c Code) Class() int {
	return (int(c) / 100) % 10
}
