package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedListing marks any deviation from the listing envelope shape
// {"kind":"Listing","data":{"children":[...]}}. The upstream API is not a
// trusted invariant, so shape violations are recoverable errors rather
// than panics.
var ErrMalformedListing = errors.New("malformed listing envelope")

// Listing is one page of a reddit listing. After and Before are the
// pagination cursors from the envelope; they are carried through but not
// followed at this layer.
type Listing struct {
	After    string
	Before   string
	Children []Thread
}

// Thread is a single listing child, kept verbatim alongside the decoded
// fields. Raw is the full child object as received, so nothing upstream
// sends is lost.
type Thread struct {
	Kind string
	Raw  json.RawMessage
	Link Link
}

// Link holds the fields of a t3 (link post) child that the service reads.
type Link struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	Subreddit  string  `json:"subreddit"`
	Permalink  string  `json:"permalink"`
	Selftext   string  `json:"selftext"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
}

// ParseListing decodes and validates a listing envelope. It enforces the
// contract the upstream API documents: root is an object, kind is
// "Listing", data is an object, children is an array of objects. Child
// payloads beyond that are passed through opaquely.
func ParseListing(body []byte) (*Listing, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("%w: root is not an object", ErrMalformedListing)
	}

	var kind string
	if raw, ok := root["kind"]; ok {
		_ = json.Unmarshal(raw, &kind)
	}
	if kind != "Listing" {
		return nil, fmt.Errorf("%w: kind is %q, want \"Listing\"", ErrMalformedListing, kind)
	}

	var data map[string]json.RawMessage
	if raw, ok := root["data"]; !ok {
		return nil, fmt.Errorf("%w: data is missing", ErrMalformedListing)
	} else if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: data is not an object", ErrMalformedListing)
	}

	rawChildren, ok := data["children"]
	if !ok {
		return nil, fmt.Errorf("%w: children is missing", ErrMalformedListing)
	}
	var children []json.RawMessage
	if err := json.Unmarshal(rawChildren, &children); err != nil {
		return nil, fmt.Errorf("%w: children is not an array", ErrMalformedListing)
	}

	listing := &Listing{Children: make([]Thread, 0, len(children))}
	_ = json.Unmarshal(data["after"], &listing.After)
	_ = json.Unmarshal(data["before"], &listing.Before)

	for i, rawChild := range children {
		thread, err := parseChild(rawChild)
		if err != nil {
			return nil, fmt.Errorf("%w: child %d: %v", ErrMalformedListing, i, err)
		}
		listing.Children = append(listing.Children, thread)
	}

	return listing, nil
}

func parseChild(raw json.RawMessage) (Thread, error) {
	var child struct {
		Kind string          `json:"kind"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &child); err != nil {
		return Thread{}, errors.New("not an object")
	}

	thread := Thread{Kind: child.Kind, Raw: raw}
	// The link fields are best-effort: a child without a data object (or
	// with unexpected field types) still passes through verbatim and just
	// renders with an empty title.
	_ = json.Unmarshal(child.Data, &thread.Link)

	return thread, nil
}

// ParseWebsocketURL extracts data.websocket_url from a live thread's
// about.json document.
func ParseWebsocketURL(body []byte) (string, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return "", fmt.Errorf("%w: root is not an object", ErrMalformedListing)
	}
	var data map[string]json.RawMessage
	if raw, ok := root["data"]; !ok {
		return "", fmt.Errorf("%w: data is missing", ErrMalformedListing)
	} else if err := json.Unmarshal(raw, &data); err != nil {
		return "", fmt.Errorf("%w: data is not an object", ErrMalformedListing)
	}
	var url string
	_ = json.Unmarshal(data["websocket_url"], &url)
	if url == "" {
		return "", fmt.Errorf("%w: websocket_url is missing or empty", ErrMalformedListing)
	}
	return url, nil
}
