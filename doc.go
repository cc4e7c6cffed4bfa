// Package restrequest is a thin client for REST style HTTP calls.
//
// A Request owns one transfer handle configured through an Options mapping of
// transfer option identifiers (OptURL, OptHTTPHeader, OptPostFields, ...).
// Executing it performs a single blocking transfer and yields an immutable
// Response, which decodes its body on demand:
//
//   - Text / Bytes: the raw body
//   - XML: an XMLNode tree
//   - JSON(true): map[string]any / []any, JSON(false): a gjson.Result
//   - DecodeJSON / DecodeXML: typed decoding
//   - HTML: a goquery document
//
// Every decoding failure is a ParseError. Transfer failures are TransportErrors
// carrying the backend's message, and an unknown backend is an EnvironmentError.
// There are no retries.
//
// Typical usage:
//
//	resp, err := restrequest.Get(ctx, "https://api.example.com/items",
//	    []string{"Accept: application/json"}, false, nil)
//	if err != nil {
//	    return err
//	}
//	items, err := resp.JSON(true)
//
// PUT, PATCH and DELETE travel the POST path with a method override and an
// explicit Content-Length header. Map bodies are form encoded with BuildQuery.
//
// A Client carries defaults shared by its requests: backend (WithBackend),
// default options (WithOptions, WithTimeout), middleware wrapping the round
// trip, Prometheus metrics and zap backed debug logging.
package restrequest
