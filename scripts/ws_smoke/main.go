package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/streamvista/chathub/internal/proto"
)

// Smoke-tests a running hub: connects as a guest, opens a support room,
// sends one message, and waits for it to come back.
func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "bearer token (empty connects as guest)")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	url := *addr
	if *token != "" {
		url += "?token=" + *token
	}

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(msgType string, payload any) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", msgType, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: data}); err != nil {
			return fmt.Errorf("send %s: %w", msgType, err)
		}
		return nil
	}

	if err := send(proto.InboundTypeCreateSupportRoom, struct{}{}); err != nil {
		return err
	}

	var conversationID int64
	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("received: type=%s event=%s\n", outbound.Type, outbound.Event)

		switch outbound.Event {
		case proto.EventSupportRoomReady:
			var ready proto.SupportRoomReady
			if err := json.Unmarshal(outbound.Data, &ready); err != nil {
				return fmt.Errorf("unmarshal ready: %w", err)
			}
			conversationID = ready.ConversationID
			fmt.Printf("support room ready: conversation=%d\n", conversationID)

			if err := send(proto.InboundTypeSendMessage, proto.SendMessageData{
				RoomKind:       "bubble",
				ConversationID: conversationID,
				Text:           *text,
			}); err != nil {
				return err
			}

		case proto.EventReceiveMessage:
			var msg proto.MessageData
			if err := json.Unmarshal(outbound.Data, &msg); err != nil {
				fmt.Printf("raw data: %s\n", string(outbound.Data))
				return fmt.Errorf("unmarshal message: %w", err)
			}
			fmt.Printf("message echoed: id=%d conversation=%d text=%q status=%s\n",
				msg.ID, msg.ConversationID, msg.Body, msg.Status)
			return nil
		}
	}
}
