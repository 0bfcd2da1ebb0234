// Package coalesce implements the merge rule used on re-ingestion:
// an incoming value only overwrites a stored one when it is non-nil.
// Absence never erases previously known data.
package coalesce

// Ptr returns incoming when non-nil, otherwise existing.
func Ptr[T any](incoming, existing *T) *T {
	if incoming != nil {
		return incoming
	}
	return existing
}

// String returns incoming when non-empty, otherwise existing.
func String(incoming, existing string) string {
	if incoming != "" {
		return incoming
	}
	return existing
}
