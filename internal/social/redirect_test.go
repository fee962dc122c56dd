package social

import "testing"

func TestRedirectPolicy_Sanitize(t *testing.T) {
	p := NewRedirectPolicy("https://app.example.com", "/home", []string{"shop.example.com"})
	cases := map[string]string{
		"":                                "/home",
		"/account?tab=1":                  "/account?tab=1",
		"//evil.com/x":                    "/home",
		"/\\evil.com":                     "/home",
		"https://app.example.com/ok":      "https://app.example.com/ok",
		"https://SHOP.example.com/cart":   "https://SHOP.example.com/cart",
		"https://evil.com/":               "/home",
		"javascript:alert(1)":             "/home",
		"https://user@app.example.com/":   "/home",
		"relative/path":                   "/home",
		"http://shop.example.com/x\r\nX:": "/home",
	}
	for in, want := range cases {
		if got := p.Sanitize(in); got != want {
			t.Fatalf("Sanitize(%q) = %q; want %q", in, got, want)
		}
	}
}
