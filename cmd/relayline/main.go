package main

import "github.com/relayline-ai/relayline/internal/cli/client"

func main() {
	client.Execute()
}
