package identity

import (
	"strings"

	"github.com/dropDatabas3/idlink/internal/oauth"
)

// splitName decide first/last name del perfil.
// given_name/family_name explícitos ganan; si no hay ninguno se parte display_name
// en el primer espacio; sin espacio, todo va a first name.
func splitName(p *oauth.ExternalProfile) (first, last string) {
	first = strings.TrimSpace(p.GivenName)
	last = strings.TrimSpace(p.FamilyName)
	if first != "" || last != "" {
		return first, last
	}

	display := strings.TrimSpace(p.DisplayName)
	if display == "" {
		return "", ""
	}
	if i := strings.IndexByte(display, ' '); i > 0 {
		return display[:i], strings.TrimSpace(display[i+1:])
	}
	return display, ""
}
