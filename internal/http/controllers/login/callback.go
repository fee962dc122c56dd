package login

import (
	"net/http"
	"time"

	httperrors "github.com/dropDatabas3/idlink/internal/http/errors"
	mw "github.com/dropDatabas3/idlink/internal/http/middlewares"
	"github.com/dropDatabas3/idlink/internal/oauth"
	"github.com/dropDatabas3/idlink/internal/social"
)

var nowFunc = time.Now

// Callback maneja el redirect de vuelta del proveedor.
func (c *Controller) Callback(w http.ResponseWriter, r *http.Request) {
	if !c.cfg.Enabled {
		writeFailure(w, r, httperrors.ErrLoginDisabled, c.redirect.Default)
		return
	}
	q := r.URL.Query()
	in := social.CallbackInput{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
		RedirectTo:       q.Get("redirect_to"),
		ClientIP:         mw.ClientIP(r),
		UserAgent:        r.UserAgent(),
	}
	if in.RedirectTo == "" {
		if ck, err := r.Cookie(c.cfg.RedirectCookie); err == nil {
			in.RedirectTo = ck.Value
		}
	}
	// el destino guardado es de un solo uso
	http.SetCookie(w, &http.Cookie{
		Name: c.cfg.RedirectCookie, Value: "", Path: "/", MaxAge: -1,
		HttpOnly: true, Secure: c.cfg.SecureCookies, SameSite: http.SameSiteLaxMode,
	})

	out := c.callback.Handle(r.Context(), in)
	if !out.Succeeded() {
		writeFailure(w, r, publicError(out), out.RedirectTo)
		return
	}
	http.SetCookie(w, out.Cookie)
	http.Redirect(w, r, out.RedirectTo, http.StatusFound)
}

// publicError traduce el motivo interno a un mensaje saneado.
func publicError(out *social.Outcome) *httperrors.AppError {
	var e *httperrors.AppError
	switch out.Failure {
	case social.ReasonProviderError:
		e = httperrors.ErrLoginCancelled
	case social.ReasonInvalidState:
		e = httperrors.ErrLoginExpired
	case social.ReasonTokenExchangeFailed, social.ReasonProfileFetchFailed:
		if oauth.KindOf(out.Err) == oauth.KindTransport {
			e = httperrors.ErrLoginUnavailable
		} else {
			e = httperrors.ErrLoginFailed
		}
	case social.ReasonIdentityResolutionFailed:
		switch oauth.KindOf(out.Err) {
		case oauth.KindDirectory:
			e = httperrors.ErrServiceUnavailable
		default:
			if out.Detail == oauth.ErrRegistrationDisabled.Code {
				e = httperrors.ErrRegistrationClosed
			} else {
				e = httperrors.ErrLoginFailed
			}
		}
	case social.ReasonSessionFailed:
		e = httperrors.ErrInternalServerError
	default:
		e = httperrors.ErrLoginFailed
	}
	return e.WithCause(out.Err)
}
