package main

import "github.com/relayline-ai/relayline/internal/cli/admin"

func main() {
	admin.Execute()
}
