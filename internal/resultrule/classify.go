// Package resultrule implements the Result Rule (§4.3): classifying an
// HTTP/FTP outcome into done/retry/skip/error, and the wait-time policy
// (baseline wait, geometric backoff, random-wait jitter) layered on top
// of pkg/limiter's per-host waiter.
package resultrule

// ClassifyStatus classifies a completed HTTP/FTP response by status code.
func ClassifyStatus(statusCode int) Verdict {
	switch {
	case statusCode == 200 || statusCode == 206 || statusCode == 304:
		return Verdict{Outcome: OutcomeDone}
	case statusCode == 401 || statusCode == 403 || statusCode == 404 || statusCode == 405 || statusCode == 410:
		return Verdict{Outcome: OutcomeSkip, Skip: true}
	case statusCode >= 300 && statusCode < 400:
		// 3xx is handled by the Web Session's REDIRECT state, not here;
		// callers must not pass a raw 3xx through ClassifyStatus once the
		// redirect budget is exhausted (that case maps to OutcomeError).
		return Verdict{Outcome: OutcomeError}
	default:
		return Verdict{Outcome: OutcomeError}
	}
}

// ClassifyNetworkError classifies a transport-level failure that
// prevented a response from being read at all.
func ClassifyNetworkError(kind NetworkErrorKind, policy Policy) Verdict {
	switch kind {
	case NetworkErrorConnectionRefused:
		if policy.RetryConnRefused {
			return Verdict{Outcome: OutcomeRetry}
		}
		return Verdict{Outcome: OutcomeSkip, Skip: true}
	case NetworkErrorDNSNotFound:
		if policy.RetryDNSError {
			return Verdict{Outcome: OutcomeRetry}
		}
		return Verdict{Outcome: OutcomeSkip, Skip: true}
	case NetworkErrorTLSVerification:
		return Verdict{Outcome: OutcomeError}
	default:
		return Verdict{Outcome: OutcomeError}
	}
}
