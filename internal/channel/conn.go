package channel

import (
	"io"

	"github.com/gorilla/websocket"
)

// wsStream adapts a websocket connection to the byte-stream interface the
// STOMP session reads and writes. Frames may arrive split across or packed
// into websocket messages; Read treats the message sequence as one stream.
type wsStream struct {
	ws     *websocket.Conn
	reader io.Reader
}

func newWSStream(ws *websocket.Conn) *wsStream {
	return &wsStream{ws: ws}
}

func (s *wsStream) Read(p []byte) (int, error) {
	for {
		if s.reader == nil {
			_, r, err := s.ws.NextReader()
			if err != nil {
				return 0, err
			}
			s.reader = r
		}

		n, err := s.reader.Read(p)
		if err == io.EOF {
			s.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (s *wsStream) Write(p []byte) (int, error) {
	if err := s.ws.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *wsStream) Close() error {
	return s.ws.Close()
}
