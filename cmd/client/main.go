package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"

	"chat-relay/domain"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `envconfig:"CHAT_SERVER_URL" default:"ws://localhost:8080/ws"`
	Name      string `envconfig:"CHAT_NAME" required:"true"`
	Password  string `envconfig:"CHAT_PASSWORD" required:"true"`
	// CHAT_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"CHAT_COLOURS" default:"true"`
}

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles the websocket client lifecycle: dial, authenticate, then a
// stdin command loop next to a frame reception loop.
func run() (int, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerURL, err)
	}
	defer func() {
		_ = conn.Close()
	}()

	connect := fmt.Sprintf(`{"authInfo":{"name":%q,"password":%q}}`, config.Name, config.Password)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(connect)); err != nil {
		return exitRuntime, fmt.Errorf("authentication send failed: %w", err)
	}

	banner(config.Colours, fmt.Sprintf("  ====== connected to %s as %s ======", config.ServerURL, config.Name))
	fmt.Println("commands: /join <user...> | /join-id <id> | /watch | /conversations | /history | /close | /delete | /quit | anything else is sent as text")

	// Reception loop.
	go func() {
		defer stop()
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					fmt.Fprintf(os.Stderr, "connection lost: %v\n", err)
				}
				return
			}
			printFrame(config.Colours, payload)
		}
	}()

	// Command loop.
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var frame string
		switch {
		case line == "/quit":
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
			return exitOK, nil
		case line == "/watch":
			frame = `{"type":"watch"}`
		case line == "/conversations":
			frame = `{"type":"load","data":{}}`
		case line == "/history":
			frame = `{"type":"load-messages","data":{}}`
		case line == "/close":
			frame = `{"type":"close"}`
		case line == "/delete":
			frame = `{"type":"delete"}`
		case strings.HasPrefix(line, "/join-id "):
			frame = fmt.Sprintf(`{"type":"join","data":{"conversationId":%q}}`, strings.TrimPrefix(line, "/join-id "))
		case strings.HasPrefix(line, "/join "):
			participants, _ := json.Marshal(strings.Fields(strings.TrimPrefix(line, "/join ")))
			frame = fmt.Sprintf(`{"type":"join","data":{"participants":%s}}`, participants)
		default:
			frame = fmt.Sprintf(`{"type":"text","data":{"text":%q}}`, line)
		}

		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			return exitRuntime, fmt.Errorf("send failed: %w", err)
		}
	}

	return exitOK, nil
}

func banner(colours bool, text string) {
	if colours {
		text = color.New(color.BgBlack, color.FgGreen).Render(text)
	}
	fmt.Println(text)
}

func printFrame(colours bool, payload []byte) {
	var envelope struct {
		Type domain.MessageType `json:"type"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		fmt.Println(string(payload))
		return
	}

	switch envelope.Type {
	case domain.TypeConnection:
		var frame domain.ConnectionFrame
		if err := json.Unmarshal(payload, &frame); err == nil {
			banner(colours, fmt.Sprintf("  ====== connection %s, %d conversation(s) ======", frame.ConnectionID, len(frame.Conversations.Conversations)))
			printConversations(frame.Conversations.Conversations)
			return
		}
	case domain.TypeLoaded:
		var frame domain.LoadedFrame
		if err := json.Unmarshal(payload, &frame); err == nil {
			printConversations(frame.Conversations)
			return
		}
	case domain.TypeText, domain.TypeFile:
		var msg domain.Message
		if err := json.Unmarshal(payload, &msg); err == nil && msg.Data.Text != nil {
			line := fmt.Sprintf("[%s] %s: %s", msg.CreatedAt.Format(time.TimeOnly), msg.FromID, msg.Data.Text.Text)
			if colours {
				line = color.FgCyan.Render(line)
			}
			fmt.Println(line)
			return
		}
	case domain.TypeLoadedMessages:
		var page struct {
			Messages []domain.Message `json:"messages"`
		}
		if err := json.Unmarshal(payload, &page); err == nil {
			printHistory(page.Messages)
			return
		}
	case domain.TypeConnected, domain.TypeDisconnected, domain.TypeJoined, domain.TypeLeft:
		var presence struct {
			FromID string `json:"fromId"`
		}
		if err := json.Unmarshal(payload, &presence); err == nil {
			line := fmt.Sprintf("* %s %s", presence.FromID, envelope.Type)
			if colours {
				line = color.FgYellow.Render(line)
			}
			fmt.Println(line)
			return
		}
	}

	fmt.Println(string(payload))
}

func printConversations(conversations []domain.ConversationSummary) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Title", "Participants", "Last Activity"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, c := range conversations {
		last := ""
		if c.LatestMessage != nil {
			last = c.LatestMessage.CreatedAt.Format(time.DateTime)
		}
		table.Append([]string{
			c.ID,
			c.Title,
			strings.Join(c.Participants, ", "),
			last,
		})
	}
	table.Render()
}

func printHistory(messages []domain.Message) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "From", "Type", "Content"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, m := range messages {
		content := ""
		switch {
		case m.Data.Text != nil:
			content = m.Data.Text.Text
		case m.Data.File != nil:
			content = m.Data.File.Name
		}
		table.Append([]string{
			m.CreatedAt.Format(time.TimeOnly),
			m.FromID,
			string(m.Type),
			content,
		})
	}
	table.Render()
}
