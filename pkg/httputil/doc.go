// Package httputil provides the HTTP plumbing for backend clients.
//
// # Overview
//
//   - [Retry]: retry with exponential backoff for transient failures
//   - [Client]: JSON GETs that classify responses for [Retry]
//
// # Retry
//
// [Retry] only repeats errors wrapped in [RetryableError]. [Client] wraps
// transport errors, 5xx responses and 429 rate limits; everything else is
// returned immediately:
//
//	c := httputil.NewClient(httputil.ClientOptions{Timeout: 10 * time.Second})
//	var payload network.Payload
//	err := c.GetJSON(ctx, "http://localhost:8000/api/creators/network?platform=xiaohongshu", &payload)
//
// # Configuration
//
// Defaults are suitable for a backend on the local network:
//
//   - Timeout: 15 seconds per request
//   - Attempts: 3
//   - Base backoff: 500 milliseconds, doubling
package httputil
