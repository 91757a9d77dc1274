package registry

import "context"

type workdirKey struct{}

// ContextWithWorkdir returns a context carrying the working directory that
// in-process commands resolve relative paths against.
func ContextWithWorkdir(ctx context.Context, dir string) context.Context {
	return context.WithValue(ctx, workdirKey{}, dir)
}

// WorkdirFromContext returns the working directory carried by ctx, or the
// empty string when none was set.
func WorkdirFromContext(ctx context.Context) string {
	if dir, ok := ctx.Value(workdirKey{}).(string); ok {
		return dir
	}
	return ""
}
