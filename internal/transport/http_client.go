package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	domain "xfrost/internal/domain"
	"xfrost/internal/xerr"
)

// HTTPClient is the domain.KvStore adapter that speaks to an xfrost-kvd
// server: PUT /arid/<hex> to write once, GET /arid/<hex> to poll.
type HTTPClient struct {
	Base string
	HTTP *http.Client
}

var _ domain.KvStore = (*HTTPClient)(nil)

// NewHTTPClient returns a client against the kvd server at base.
func NewHTTPClient(base string) *HTTPClient {
	return &HTTPClient{Base: base, HTTP: http.DefaultClient}
}

// Put posts envelope to arid's slot. The server refuses a second write to
// the same ARID; the engine treats that as a protocol error (spec.md §7).
func (c *HTTPClient) Put(ctx context.Context, arid domain.ARID, envelope []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.Base+"/arid/"+arid.String(), bytes.NewReader(envelope))
	if err != nil {
		return xerr.Wrap(xerr.TransportError, "Put", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return xerr.Wrap(xerr.TransportError, "Put", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusConflict {
		return xerr.New(xerr.TransportError, "Put", fmt.Sprintf("arid %s already written", arid))
	}
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return xerr.New(xerr.TransportError, "Put", fmt.Sprintf("kvd put %s: %s: %s", arid, resp.Status, body))
	}
	return nil
}

// Get polls arid's slot until an envelope is posted or deadline elapses,
// returning (nil, nil) in the latter case (spec.md §6).
func (c *HTTPClient) Get(ctx context.Context, arid domain.ARID, deadline time.Time) ([]byte, error) {
	const pollInterval = 500 * time.Millisecond
	for {
		envelope, found, err := c.getOnce(ctx, arid)
		if err != nil {
			return nil, err
		}
		if found {
			return envelope, nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, xerr.Wrap(xerr.Cancelled, "Get", ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

func (c *HTTPClient) getOnce(ctx context.Context, arid domain.ARID) (envelope []byte, found bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+"/arid/"+arid.String(), nil)
	if err != nil {
		return nil, false, xerr.Wrap(xerr.TransportError, "Get", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, false, xerr.Wrap(xerr.TransportError, "Get", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return nil, false, xerr.New(xerr.TransportError, "Get", fmt.Sprintf("kvd get %s: %s: %s", arid, resp.Status, body))
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, xerr.Wrap(xerr.TransportError, "Get", err)
	}
	return b, true, nil
}
