package feed

import "github.com/kova98/threadfeed.api/models"

// OnSubscribed registers fn to receive the websocket URL of a live thread
// after SubscribeLive completes.
func (t *ThreadList) OnSubscribed(fn func(url string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribed = append(t.subscribed, fn)
}

// SubscribeLive fetches a live thread's about document and surfaces its
// data.websocket_url through the Subscribed listeners. A missing or empty
// websocket_url is reported as an error, like any other envelope
// violation.
func (t *ThreadList) SubscribeLive(aboutURL string) {
	if t.session == nil {
		return
	}
	reply := t.session.Get(aboutURL)
	go func() {
		<-reply.Done()
		t.loop.Post(func() { t.finishLive(reply) })
	}()
}

func (t *ThreadList) finishLive(reply Reply) {
	if err := reply.Err(); err != nil {
		t.notifyError(err.Error())
		return
	}

	url, err := models.ParseWebsocketURL(reply.Body())
	if err != nil {
		t.notifyError(err.Error())
		return
	}

	t.mu.RLock()
	listeners := make([]func(url string), len(t.subscribed))
	copy(listeners, t.subscribed)
	t.mu.RUnlock()

	for _, fn := range listeners {
		fn(url)
	}
}
