package fetch

import (
	"context"
	"net/http"
)

// Get executes the request as GET.
func (e *Executor[T]) Get(ctx context.Context, overrides ...Override) Result[T] {
	return e.Execute(ctx, prepend(overrides, WithMethod(http.MethodGet))...)
}

// Post executes the request as POST with body.
func (e *Executor[T]) Post(ctx context.Context, body any, overrides ...Override) Result[T] {
	return e.Execute(ctx, prepend(overrides, WithMethod(http.MethodPost), WithBody(body))...)
}

// Put executes the request as PUT with body.
func (e *Executor[T]) Put(ctx context.Context, body any, overrides ...Override) Result[T] {
	return e.Execute(ctx, prepend(overrides, WithMethod(http.MethodPut), WithBody(body))...)
}

// Patch executes the request as PATCH with body.
func (e *Executor[T]) Patch(ctx context.Context, body any, overrides ...Override) Result[T] {
	return e.Execute(ctx, prepend(overrides, WithMethod(http.MethodPatch), WithBody(body))...)
}

// Delete executes the request as DELETE.
func (e *Executor[T]) Delete(ctx context.Context, overrides ...Override) Result[T] {
	return e.Execute(ctx, prepend(overrides, WithMethod(http.MethodDelete))...)
}

func prepend(overrides []Override, first ...Override) []Override {
	out := make([]Override, 0, len(first)+len(overrides))
	out = append(out, first...)
	return append(out, overrides...)
}
