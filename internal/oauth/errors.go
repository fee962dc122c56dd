package oauth

import (
	"errors"
	"fmt"
)

// Kind clasifica las fallas del flujo de login.
type Kind string

const (
	KindProtocol       Kind = "protocol"        // code/state faltante o inválido, error del proveedor
	KindTransport      Kind = "transport"       // red / timeout contra token o userinfo
	KindResponseFormat Kind = "response_format" // JSON roto o campos requeridos faltantes
	KindIdentity       Kind = "identity"        // perfil incompleto, registro deshabilitado
	KindDirectory      Kind = "directory"       // fallas leyendo/escribiendo el directorio de usuarios
)

// FlowError es un error tipado del flujo. Los valores predefinidos se comparan con errors.Is.
type FlowError struct {
	Kind Kind
	Code string
	msg  string
}

func (e *FlowError) Error() string { return "oauth: " + e.msg }

func newFlowError(kind Kind, code, msg string) *FlowError {
	return &FlowError{Kind: kind, Code: code, msg: msg}
}

var (
	ErrProviderError         = newFlowError(KindProtocol, "provider_error", "provider returned an error")
	ErrMissingCode           = newFlowError(KindProtocol, "missing_code", "missing authorization code")
	ErrMissingState          = newFlowError(KindProtocol, "missing_state", "missing state")
	ErrInvalidState          = newFlowError(KindProtocol, "invalid_state", "unknown or expired state")
	ErrStateExpiredOrUnknown = newFlowError(KindProtocol, "state_expired_or_unknown", "no code verifier for state")
	ErrTokenEndpointRejected = newFlowError(KindProtocol, "token_endpoint_rejected", "token endpoint rejected the request")
	ErrProfileFetchFailed    = newFlowError(KindProtocol, "profile_fetch_failed", "userinfo endpoint rejected the request")

	ErrNetworkFailure = newFlowError(KindTransport, "network_failure", "network failure")

	ErrMalformedTokenResponse = newFlowError(KindResponseFormat, "malformed_token_response", "malformed token response")
	ErrMalformedProfile       = newFlowError(KindResponseFormat, "malformed_profile", "malformed profile")

	ErrIncompleteProfile    = newFlowError(KindIdentity, "incomplete_profile", "profile is missing id or email")
	ErrRegistrationDisabled = newFlowError(KindIdentity, "registration_disabled", "registration is disabled")

	ErrDirectory = newFlowError(KindDirectory, "directory_error", "user directory failure")
)

// ErrRandomUnavailable: la fuente de aleatoriedad segura falló. No tiene recuperación.
var ErrRandomUnavailable = errors.New("oauth: secure random source unavailable")

// RejectedError lleva el status HTTP con el que el token endpoint rechazó el intercambio.
// errors.Is(err, ErrTokenEndpointRejected) es true.
type RejectedError struct {
	Status        int
	ProviderError string // campo "error" del cuerpo, si vino
}

func (e *RejectedError) Error() string {
	if e.ProviderError != "" {
		return fmt.Sprintf("oauth: token endpoint rejected the request: status %d (%s)", e.Status, e.ProviderError)
	}
	return fmt.Sprintf("oauth: token endpoint rejected the request: status %d", e.Status)
}

func (e *RejectedError) Unwrap() error { return ErrTokenEndpointRejected }

// DirectoryError envuelve una falla del directorio conservando la causa.
func DirectoryError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrDirectory, op, err)
}

// wrap agrega contexto a un error predefinido sin perder errors.Is.
func wrap(sentinel *FlowError, cause error) error {
	return fmt.Errorf("%w: %v", sentinel, cause)
}

// KindOf clasifica cualquier error (posiblemente envuelto). "" si no es del flujo.
func KindOf(err error) Kind {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// CodeOf devuelve el código interno (para audit/logs). "" si no es del flujo.
func CodeOf(err error) string {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}
