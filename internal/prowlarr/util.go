package prowlarr

import (
	"net/http"

	"github.com/go-resty/resty/v2"
)

// NotFollowMagnet stops at redirects to magnet links so the Location header
// can be read instead of failing on an unsupported scheme.
func NotFollowMagnet() resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(r *http.Request, _ []*http.Request) error {
		if r.URL.Scheme == "magnet" {
			return http.ErrUseLastResponse
		}

		return nil
	})
}
