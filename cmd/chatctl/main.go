// chatctl is a small terminal client for ChatterHub: it opens the
// realtime connection, prints incoming events, and sends every stdin
// line as a direct message to the chosen recipient.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Prateek-02/ChatterHub/realtime"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/olekukonko/tablewriter"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `env:"CHAT_SERVER_URL,default=ws://localhost:5000/ws"`
	Token     string `env:"CHAT_TOKEN,required=true"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	recipient := flag.String("to", "", "recipient user id for outgoing messages")
	flag.Parse()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx,
		config.ServerURL+"?token="+config.Token, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", config.ServerURL, err)
	}
	defer conn.Close()

	color.New(color.BgBlack, color.FgGreen).Println("Connected to ChatterHub")

	go readStdin(ctx, conn, *recipient)

	done := make(chan error, 1)
	go func() { done <- readEvents(conn) }()

	select {
	case <-ctx.Done():
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		return exitOK, nil
	case err := <-done:
		if err != nil {
			return exitRuntime, err
		}
		return exitOK, nil
	}
}

// readEvents prints incoming frames until the connection drops.
func readEvents(conn *websocket.Conn) error {
	for {
		var frame realtime.InboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}

		switch frame.Event {
		case realtime.EventChatMessage:
			var msg realtime.ChatMessageEvent
			if err := json.Unmarshal(frame.Data, &msg); err != nil {
				continue
			}
			sender := color.FgCyan.Render(msg.SenderUsername)
			fmt.Printf("[%s] %s: %s\n", msg.CreatedAt.Local().Format("15:04:05"), sender, msg.Text)

		case realtime.EventUserTyping:
			var username string
			if err := json.Unmarshal(frame.Data, &username); err != nil {
				continue
			}
			color.FgGray.Printf("%s is typing...\n", username)

		case realtime.EventUsersUpdate:
			var online []string
			if err := json.Unmarshal(frame.Data, &online); err != nil {
				continue
			}
			printOnline(online)

		case realtime.EventAck:
			var ack realtime.Ack
			if err := json.Unmarshal(frame.Data, &ack); err != nil {
				continue
			}
			if ack.Status != "ok" {
				color.FgRed.Printf("send failed: %s\n", ack.Message)
			}
		}
	}
}

func printOnline(online []string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Online users"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	for _, id := range online {
		table.Append([]string{id})
	}
	table.Render()
}

// readStdin sends each typed line as a chatMessage to the recipient.
func readStdin(ctx context.Context, conn *websocket.Conn, recipient string) {
	if recipient == "" {
		color.FgYellow.Println("No -to recipient set, read-only mode")
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	var ackID int64
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		text := scanner.Text()
		if text == "" {
			continue
		}

		ackID++
		data, err := json.Marshal(realtime.ChatMessageRequest{ReceiverID: recipient, Text: text})
		if err != nil {
			continue
		}
		frame := realtime.InboundFrame{Event: realtime.EventChatMessage, AckID: &ackID, Data: data}
		if err := conn.WriteJSON(frame); err != nil {
			color.FgRed.Printf("write failed: %v\n", err)
			return
		}
	}
}
