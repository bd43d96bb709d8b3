package runtime

import (
	"log/slog"
	"net/http"
	"time"
)

// debugTransport logs every HTTP round trip at debug level. Request and
// response bodies are never logged; message content may be sensitive.
type debugTransport struct {
	rt  http.RoundTripper
	log *slog.Logger
}

func (d *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	res, err := d.rt.RoundTrip(req)
	if err != nil {
		d.log.Debug("http round trip failed",
			"method", req.Method, "url", req.URL.String(), "error", err)
		return nil, err
	}
	d.log.Debug("http round trip",
		"method", req.Method, "url", req.URL.String(),
		"status", res.StatusCode, "elapsed", time.Since(start))
	return res, nil
}
