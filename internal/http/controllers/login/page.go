package login

import (
	"html/template"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/idlink/internal/http/errors"
)

var failurePage = template.Must(template.New("login_failure").Parse(`<!doctype html>
<html lang="es"><head><meta charset="utf-8"><title>Inicio de sesión</title>
<style>body{font-family:sans-serif;max-width:32rem;margin:4rem auto;padding:0 1rem}</style></head>
<body><h1>No pudimos iniciar sesión</h1><p>{{.Message}}</p>
<p><a href="/login">Intentar nuevamente</a> · <a href="{{.Back}}">Volver</a></p></body></html>
`))

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// writeFailure responde HTML a navegadores y JSON al resto. Nunca expone la causa.
func writeFailure(w http.ResponseWriter, r *http.Request, e *httperrors.AppError, back string) {
	if !wantsHTML(r) {
		httperrors.WriteError(w, e)
		return
	}
	if back == "" {
		back = "/"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(e.HTTPStatus)
	_ = failurePage.Execute(w, struct{ Message, Back string }{e.Message, back})
}
