package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListing(t *testing.T) {
	body := []byte(`{
		"kind": "Listing",
		"data": {
			"after": "t3_next",
			"before": null,
			"children": [
				{"kind": "t3", "data": {"id": "abc", "title": "First", "author": "alice", "subreddit": "golang", "permalink": "/r/golang/abc", "score": 42, "created_utc": 1700000000}},
				{"kind": "t3", "data": {"id": "def", "title": "Second"}}
			]
		}
	}`)

	listing, err := ParseListing(body)
	require.NoError(t, err)

	assert.Equal(t, "t3_next", listing.After)
	assert.Empty(t, listing.Before)
	require.Len(t, listing.Children, 2)

	first := listing.Children[0]
	assert.Equal(t, "t3", first.Kind)
	assert.Equal(t, "abc", first.Link.ID)
	assert.Equal(t, "First", first.Link.Title)
	assert.Equal(t, "alice", first.Link.Author)
	assert.Equal(t, "golang", first.Link.Subreddit)
	assert.Equal(t, 42, first.Link.Score)
	assert.JSONEq(t, `{"kind": "t3", "data": {"id": "abc", "title": "First", "author": "alice", "subreddit": "golang", "permalink": "/r/golang/abc", "score": 42, "created_utc": 1700000000}}`, string(first.Raw))

	assert.Equal(t, "Second", listing.Children[1].Link.Title)
}

func TestParseListingEmptyChildren(t *testing.T) {
	listing, err := ParseListing([]byte(`{"kind":"Listing","data":{"children":[]}}`))
	require.NoError(t, err)
	assert.Empty(t, listing.Children)
}

func TestParseListingShapeViolations(t *testing.T) {
	cases := map[string]string{
		"root not object":    `"just a string"`,
		"missing kind":       `{"data":{"children":[]}}`,
		"wrong kind":         `{"kind":"t1","data":{"children":[]}}`,
		"missing data":       `{"kind":"Listing"}`,
		"data not object":    `{"kind":"Listing","data":[]}`,
		"missing children":   `{"kind":"Listing","data":{}}`,
		"children not array": `{"kind":"Listing","data":{"children":"nope"}}`,
		"child not object":   `{"kind":"Listing","data":{"children":[42]}}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseListing([]byte(body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedListing)
		})
	}
}

func TestParseListingChildWithoutDataPassesThrough(t *testing.T) {
	listing, err := ParseListing([]byte(`{"kind":"Listing","data":{"children":[{"kind":"t3"}]}}`))
	require.NoError(t, err)
	require.Len(t, listing.Children, 1)
	assert.Empty(t, listing.Children[0].Link.Title)
	assert.Equal(t, "t3", listing.Children[0].Kind)
}

func TestParseWebsocketURL(t *testing.T) {
	url, err := ParseWebsocketURL([]byte(`{"kind":"LiveUpdateEvent","data":{"websocket_url":"wss://ws.example/live/abc"}}`))
	require.NoError(t, err)
	assert.Equal(t, "wss://ws.example/live/abc", url)

	_, err = ParseWebsocketURL([]byte(`{"data":{}}`))
	assert.ErrorIs(t, err, ErrMalformedListing)

	_, err = ParseWebsocketURL([]byte(`{"data":{"websocket_url":""}}`))
	assert.ErrorIs(t, err, ErrMalformedListing)

	_, err = ParseWebsocketURL([]byte(`[]`))
	assert.ErrorIs(t, err, ErrMalformedListing)
}
