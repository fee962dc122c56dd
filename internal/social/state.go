// Package social implementa el callback del login federado como una máquina de estados.
//
// AwaitingCode → StateVerified → TokenExchanged → ProfileFetched → IdentityResolved →
// SessionEstablished, o Failed con un motivo interno. Cada intento termina en un único
// evento de auditoría.
package social

// FlowState es el estado del intento de login.
type FlowState string

const (
	StateAwaitingCode       FlowState = "awaiting_code"
	StateVerified           FlowState = "state_verified"
	StateTokenExchanged     FlowState = "token_exchanged"
	StateProfileFetched     FlowState = "profile_fetched"
	StateIdentityResolved   FlowState = "identity_resolved"
	StateSessionEstablished FlowState = "session_established"
	StateFailed             FlowState = "failed"
)

// FailureReason es el motivo interno (audit/logs). Nunca se muestra al usuario.
type FailureReason string

const (
	ReasonNone                     FailureReason = ""
	ReasonProviderError            FailureReason = "provider_error"
	ReasonMissingCode              FailureReason = "missing_code"
	ReasonMissingState             FailureReason = "missing_state"
	ReasonInvalidState             FailureReason = "invalid_state"
	ReasonTokenExchangeFailed      FailureReason = "token_exchange_failed"
	ReasonProfileFetchFailed       FailureReason = "profile_fetch_failed"
	ReasonIdentityResolutionFailed FailureReason = "identity_resolution_failed"
	ReasonSessionFailed            FailureReason = "session_failed"
)
