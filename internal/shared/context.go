package shared

import "context"

// VendorSession is the host-provided identity of the vendor acting on a request.
// Authentication itself lives outside this service; the host injects the session.
type VendorSession struct {
	VendorID int64
	ActorID  int64
}

type vendorContextKey struct{}

// ContextWithVendor stores the vendor session in context.
func ContextWithVendor(ctx context.Context, sess VendorSession) context.Context {
	return context.WithValue(ctx, vendorContextKey{}, sess)
}

// VendorFromContext extracts the vendor session from context.
func VendorFromContext(ctx context.Context) (VendorSession, bool) {
	sess, ok := ctx.Value(vendorContextKey{}).(VendorSession)
	return sess, ok && sess.VendorID > 0
}
