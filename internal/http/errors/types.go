package errors

import "net/http"

var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "La solicitud es inválida.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMethodNotAllowed = &AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "Método HTTP no permitido para este recurso.",
		HTTPStatus: http.StatusMethodNotAllowed,
	}

	ErrRouteNotFound = &AppError{
		Code:       "ROUTE_NOT_FOUND",
		Message:    "La ruta solicitada no existe.",
		HTTPStatus: http.StatusNotFound,
	}
)

// Login federado. Mensajes genéricos; el motivo interno va al audit.
var (
	ErrLoginFailed = &AppError{
		Code:       "LOGIN_FAILED",
		Message:    "No pudimos completar el inicio de sesión. Intente nuevamente.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrLoginCancelled = &AppError{
		Code:       "LOGIN_CANCELLED",
		Message:    "El inicio de sesión fue cancelado en el proveedor.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrLoginExpired = &AppError{
		Code:       "LOGIN_EXPIRED",
		Message:    "La solicitud de inicio de sesión expiró o ya fue usada. Vuelva a intentarlo.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrLoginUnavailable = &AppError{
		Code:       "LOGIN_UNAVAILABLE",
		Message:    "El proveedor de identidad no está disponible. Intente más tarde.",
		HTTPStatus: http.StatusBadGateway,
	}

	ErrRegistrationClosed = &AppError{
		Code:       "REGISTRATION_CLOSED",
		Message:    "No hay una cuenta asociada y el registro está deshabilitado.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrLoginDisabled = &AppError{
		Code:       "LOGIN_DISABLED",
		Message:    "El inicio de sesión con el proveedor está deshabilitado.",
		HTTPStatus: http.StatusForbidden,
	}
)

var (
	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Ha excedido el límite de solicitudes. Intente más tarde.",
		HTTPStatus: http.StatusTooManyRequests,
	}

	ErrInternalServerError = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Ocurrió un error interno en el servidor.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrServiceUnavailable = &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    "El servicio no está disponible temporalmente.",
		HTTPStatus: http.StatusServiceUnavailable,
	}
)
