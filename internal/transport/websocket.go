package transport

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/yanun0323/errors"
)

// websocketSubscriber reads one wire message per websocket data frame.
type websocketSubscriber struct {
	conn *websocket.Conn
	once sync.Once
}

func dialWebsocket(ctx context.Context, endpoint string) (Subscriber, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, errors.Wrapf(err, "websocket dial %s", endpoint)
	}
	return &websocketSubscriber{conn: conn}, nil
}

func (s *websocketSubscriber) Receive(ctx context.Context) ([]byte, error) {
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	for {
		msgType, payload, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, receiveFailed("websocket read", err)
		}
		if msgType == websocket.TextMessage || msgType == websocket.BinaryMessage {
			return payload, nil
		}
	}
}

func (s *websocketSubscriber) Close() error {
	var err error
	s.once.Do(func() {
		err = s.conn.Close()
	})
	return err
}
