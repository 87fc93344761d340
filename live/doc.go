// Package live keeps a best-effort WebSocket connection to the ranch
// backend and dispatches the events it pushes.
//
// A Manager reconnects after unexpected closes with capped exponential
// backoff, sends a PING heartbeat while open, queues outbound messages while
// disconnected and drains them, oldest first, as soon as the connection
// opens. Inbound messages are JSON objects with a "type" field. Built-in
// types update the manager's views (online users, update rings, health
// alerts) and raise notifications; every other type is delivered to
// handlers registered with AddEventListener.
//
//	m, err := live.New(live.DefaultConfig(),
//	    live.WithIdentity(sess),
//	    live.WithNotifier(center),
//	)
//	if err != nil {
//	    return err
//	}
//	off := m.AddEventListener("FEED_SCHEDULED", func(msg live.Message) { ... })
//	defer off()
//	_ = m.Connect(ctx)
//	defer m.Disconnect()
package live
