// Package sse streams a reactive.Publisher to an HTTP client as
// Server-Sent Events.
//
// Stream subscribes with batched demand: it requests batch items, writes
// and flushes each one as a "next" event and requests the next batch only
// after the current one has been flushed, so a slow client slows the
// source instead of growing a buffer. A "complete" or "error" event ends
// the stream; a client disconnect cancels the subscription.
//
//	router.GET("/numbers", func(c *gin.Context) {
//	    _ = sse.Stream(c.Writer, c.Request, reactive.Range(1, 100), 10)
//	})
package sse
