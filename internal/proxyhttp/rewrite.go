package proxyhttp

// ApplyServerHeaderRewrite sets resp's Server header to value. When
// override is false and the upstream already sent its own Server
// header, value is appended alongside it rather than replacing it
// outright. This mirrors the original project's
// "response.server.override" policy: a plain overwrite is the default
// for every pattern, and augmenting the upstream's own identification
// instead is opt-in, available only once a pattern configures a
// HeaderRewrite with Override left false. Callers own picking override
// accordingly — this function just applies whichever policy it's told.
func ApplyServerHeaderRewrite(resp *Response, value string, override bool) {
	if override {
		resp.Headers.Set("Server", value)
		return
	}

	if existing, ok := resp.Headers.Get("Server"); ok && existing != "" {
		resp.Headers.Set("Server", existing+" ("+value+")")
		return
	}

	resp.Headers.Set("Server", value)
}
