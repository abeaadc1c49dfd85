package inbox

import (
	"context"
	"errors"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gathering-hub/backend/internal/realtime"
)

// Listen connects to the push endpoint (ws://host/ws?token=...) and refreshes on
// every notifications_changed nudge. Polling keeps working without it; Listen
// only shortens the delay. It returns when ctx ends, Close is called or the
// connection drops.
func (i *Inbox) Listen(ctx context.Context, wsURL string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-i.done:
		case <-stop:
		}
		conn.Close()
	}()

	for {
		var msg realtime.WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if i.closed.Load() {
				return nil
			}
			var ce *websocket.CloseError
			if errors.As(err, &ce) && ce.Code == websocket.CloseNormalClosure {
				return nil
			}
			return err
		}
		if msg.Event != realtime.EventNotificationsChanged {
			continue
		}
		if err := i.Refresh(ctx); err != nil {
			i.logger.Warn("notifications refresh on push failed", zap.Error(err))
		}
	}
}
