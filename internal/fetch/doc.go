// Package fetch implements the resilient request executor and the paginated collector
// that every Suno API call in snx goes through.
//
// # Executor
//
// [Executor.Do] performs one logical HTTP call. Each attempt re-reads the session token from
// the configured [oauth2.TokenSource], sends the request with Authorization and Content-Type
// headers, and classifies the outcome. Transport failures, 401, 5xx and any other non-2xx
// response are retried after a constant [Policy.Backoff] (plus optional jitter) until
// Retries+1 attempts have been made, at which point a [*RequestExhausted] is returned
// wrapping the classified cause ([*TransportError], [*AuthError], [*ServerError] or
// [*StatusError]).
//
// # Collector
//
// [Collect] sweeps a listing endpoint. A first request yields the total count, the page count
// is ceil(total/pageSize), and each page is fetched in order with a fixed pause between pages.
// A failed page is logged, recorded in [Result.Failed] and skipped. Items are added to a
// caller-owned [Accumulator] such as [Set] or [List].
package fetch
