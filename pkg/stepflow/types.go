package stepflow

// AuthMethod identifies an authentication method in the step configuration.
type AuthMethod string

const (
	// MethodInit is the sentinel used to select the first step of a fresh
	// operation; it never runs as a real authentication method.
	MethodInit AuthMethod = "INIT"

	MethodUserIDAssign        AuthMethod = "USER_ID_ASSIGN"
	MethodUsernamePassword    AuthMethod = "USERNAME_PASSWORD_AUTH"
	MethodShowOperationDetail AuthMethod = "SHOW_OPERATION_DETAIL"
	MethodMobileToken         AuthMethod = "POWERAUTH_TOKEN"
	MethodSMSKey              AuthMethod = "SMS_KEY"
)

// PreferenceOrdinals maps each preference-bearing authentication method to its
// slot number in user preference storage. INIT carries no preference.
var PreferenceOrdinals = map[AuthMethod]int{
	MethodUserIDAssign:        1,
	MethodUsernamePassword:    2,
	MethodShowOperationDetail: 3,
	MethodMobileToken:         4,
	MethodSMSKey:              5,
}

// AuthResult is the outcome of an authentication step, and also the terminal
// result of a whole operation.
type AuthResult string

const (
	ResultContinue AuthResult = "CONTINUE"
	ResultDone     AuthResult = "DONE"
	ResultFailed   AuthResult = "FAILED"
)

// FailureReason explains a FAILED resolution.
type FailureReason string

const (
	// ReasonNoEnabledMethod means candidate steps existed but the user has
	// disabled every one of them.
	ReasonNoEnabledMethod FailureReason = "NO_ENABLED_METHOD"
	// ReasonNoMatchingRule means a failed step has no follow-up rule.
	ReasonNoMatchingRule FailureReason = "NO_MATCHING_RULE"
)

// StepDefinition is one row of the step transition table. The set of rows for
// an operation name forms the transition table of a deterministic state
// machine; rows are read-only configuration, never mutated at runtime.
type StepDefinition struct {
	ID                 int64      `json:"id"`
	OperationName      string     `json:"operation_name"`
	RequestAuthMethod  AuthMethod `json:"request_auth_method"`
	RequestResult      AuthResult `json:"request_result"`
	ResponseAuthMethod AuthMethod `json:"response_auth_method"`
	ResponsePriority   int        `json:"response_priority"`
}

// Decision is the outcome of a next-step resolution.
type Decision struct {
	Result AuthResult
	// Method is the next method to run when Result is CONTINUE.
	Method AuthMethod
	// Reason is set when Result is FAILED.
	Reason FailureReason
}
