package sources

import (
	"fmt"
	"io"
	"net/http"
)

// Reply is a single-fire handle for an in-flight GET. Err and Body are
// valid only after Done is closed.
type Reply struct {
	done chan struct{}
	body []byte
	err  error
}

func newReply() *Reply {
	return &Reply{done: make(chan struct{})}
}

// Done is closed exactly once, when the request has either completed or
// failed.
func (r *Reply) Done() <-chan struct{} {
	return r.done
}

func (r *Reply) Err() error {
	return r.err
}

func (r *Reply) Body() []byte {
	return r.body
}

func (r *Reply) finish(body []byte, err error) {
	r.body = body
	r.err = err
	close(r.done)
}

// failedReply returns an already-completed reply carrying err.
func failedReply(err error) *Reply {
	r := newReply()
	r.finish(nil, err)
	return r
}

// roundTrip performs req and returns the body. Non-2xx statuses are
// mapped to transport errors carrying the status and a truncated body.
func roundTrip(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := string(body)
		if len(detail) > 300 {
			detail = detail[:300] + "..."
		}
		return nil, fmt.Errorf("reddit returned status %d: %s", resp.StatusCode, detail)
	}

	return body, nil
}
