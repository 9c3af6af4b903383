// Command line client for the modular chatbot API.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/h7seiji/Modular-Chatbot/clients/go/modchat"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("MODCHAT_URL")
	client := modchat.NewClient(baseURL)
	cmd := os.Args[1]

	switch cmd {
	case "health":
		resp, err := client.Health()
		exitOnError(err)
		printJSON(resp)

	case "chat":
		if len(os.Args) < 5 {
			fmt.Fprintln(os.Stderr, "usage: modchat chat <userId> <conversationId> <message...>")
			os.Exit(1)
		}
		resp, err := client.Chat(strings.Join(os.Args[4:], " "), os.Args[2], os.Args[3])
		exitOnError(err)
		fmt.Println(resp.Response)
		fmt.Println("--", resp.SourceAgentResponse)
		for _, step := range resp.AgentWorkflow {
			fmt.Printf("   %s: %s\n", step.Agent, step.Decision)
		}

	case "conversations":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: modchat conversations <userId>")
			os.Exit(1)
		}
		resp, err := client.ListConversations(os.Args[2])
		exitOnError(err)
		for _, id := range resp.Conversations {
			fmt.Println(" ", id)
		}
		fmt.Printf("%d conversation(s)\n", resp.Count)

	case "delete":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "usage: modchat delete <userId> <conversationId>")
			os.Exit(1)
		}
		exitOnError(client.DeleteConversation(os.Args[2], os.Args[3]))
		fmt.Println("deleted")

	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `modchat - modular chatbot CLI

commands:
  health                                    service health
  chat <userId> <convId> <message...>       send a chat message
  conversations <userId>                    list a user's conversations
  delete <userId> <convId>                  delete a conversation

environment:
  MODCHAT_URL   API base URL (default http://localhost:8080)`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func printJSON(v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
