package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"

	"Encarte/pkg/kit"
)

func NewReverseProxy(target string, log *zap.Logger) (http.Handler, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse upstream %q: %w", target, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("upstream url must be absolute: " + target)
	}
	if log == nil {
		log = zap.NewNop()
	}

	p := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.SetXForwarded()
			pr.Out.Host = pr.In.Host
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Warn("upstream error",
				zap.String("upstream", u.Host),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			kit.WriteError(w, r, http.StatusBadGateway, "upstream unavailable", nil)
		},
	}
	return p, nil
}
