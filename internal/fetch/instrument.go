package fetch

import (
	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"
)

// instrument logs every request, response and transport error at debug level.
func instrument(client *resty.Client, logger *log.Logger) {
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		logger.Debug("request", "method", req.Method, "url", req.URL)
		return nil
	})

	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		logger.Debug("response",
			"method", res.Request.Method, "url", res.Request.URL,
			"status", res.StatusCode(), "elapsed", res.Time(), "bytes", len(res.Body()))
		return nil
	})

	client.OnError(func(req *resty.Request, err error) {
		logger.Debug("request error", "method", req.Method, "url", req.URL, "error", err)
	})
}
