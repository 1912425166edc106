package payment

import (
	"bytes"
	"encoding/json"
	"strings"
)

// The gateway's response envelope has moved between versions, so fields are
// resolved through an ordered list of dotted paths and the first present value wins.
var (
	tokenPaths     = []string{"access_token", "data.access_token", "token", "data.token"}
	schemePaths    = []string{"token_type", "data.token_type"}
	authErrorPaths = []string{"error_description", "message", "data.message", "error"}
	redirectPaths  = []string{"redirectUrl", "data.redirectUrl", "response.redirectUrl"}
	codePaths      = []string{"code", "data.code", "response.code"}
	messagePaths   = []string{"message", "data.message", "response.message"}
	orderIDPaths   = []string{"orderId", "data.orderId", "response.orderId"}
	statePaths     = []string{"state", "data.state", "response.state"}
	amountPaths    = []string{"amount", "data.amount", "response.amount"}
	expireAtPaths  = []string{"expireAt", "data.expireAt", "response.expireAt"}
	metaInfoPaths  = []string{"metaInfo", "data.metaInfo", "response.metaInfo"}
	txnIDPaths     = []string{"paymentDetails.0.transactionId", "data.paymentDetails.0.transactionId"}
)

// decodeDocument parses a JSON object keeping numbers as json.Number.
func decodeDocument(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errNotObject
	}
	return doc, nil
}

type constError string

func (e constError) Error() string { return string(e) }

const errNotObject = constError("response is not a JSON object")

// walk follows a dotted path through nested objects. Numeric segments index arrays.
func walk(doc map[string]any, path string) (any, bool) {
	var cur any = doc
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, ok := index(seg)
			if !ok || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, cur != nil
}

func index(seg string) (int, bool) {
	if seg == "" {
		return 0, false
	}
	n := 0
	for _, r := range seg {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// firstOf returns the first value found at paths that has type T and is not the zero value.
func firstOf[T comparable](doc map[string]any, paths ...string) (T, bool) {
	var zero T
	for _, p := range paths {
		v, ok := walk(doc, p)
		if !ok {
			continue
		}
		t, ok := v.(T)
		if !ok || t == zero {
			continue
		}
		return t, true
	}
	return zero, false
}

func firstString(doc map[string]any, paths ...string) string {
	s, _ := firstOf[string](doc, paths...)
	return strings.TrimSpace(s)
}

func firstInt(doc map[string]any, paths ...string) (int64, bool) {
	n, ok := firstOf[json.Number](doc, paths...)
	if !ok {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return i, true
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return int64(f), true
}

func firstObject(doc map[string]any, paths ...string) map[string]any {
	for _, p := range paths {
		v, ok := walk(doc, p)
		if !ok {
			continue
		}
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}
