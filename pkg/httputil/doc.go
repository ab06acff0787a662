// Package httputil fetches tree documents over HTTP.
//
// Datasets and pipeline sources may name an http or https URL instead of a
// local file. [Fetch] downloads the body with [RetryWithBackoff]: network
// failures, 429 and 5xx responses are retried, other statuses fail at once.
//
//	data, err := httputil.Fetch(ctx, http.DefaultClient, "https://example.org/tree.json")
//
// [IsURL] tells callers which loader to use for a source string.
package httputil
