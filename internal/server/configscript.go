package server

import (
	"fmt"
	"net/http"
	"strings"
)

// ConfigScriptPath is where the frontend loads its runtime configuration from.
// index.html includes it with a plain <script> tag before the app bundle.
const ConfigScriptPath = "/__frontdoor/config.js"

// ConfigScriptHandler serves a JavaScript snippet assigning the resolved API
// base URL to window.API_BASE_URL. The value is fixed at startup; it is not
// re-evaluated per request.
func ConfigScriptHandler(baseURL string) http.Handler {
	body := "window.API_BASE_URL = " + escapeScript(fmt.Sprintf("%q", baseURL)) + ";\n"
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		fmt.Fprint(w, body)
	})
}

// escapeScript keeps a quoted URL from terminating the surrounding <script>
// element if it ever contains markup.
func escapeScript(s string) string {
	return strings.ReplaceAll(s, "</", "<\\/")
}
