package controllers

import (
	"context"
	"net/http"
	"time"
)

// requestContext bounds an operation without tying it to the client
// connection: a disconnect must not abort an in-flight database or
// processor call, so writes still complete server-side.
func requestContext(_ *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}
