package main

import (
	"context"

	"milpacs-backend/cmd/milpacs-cli/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
