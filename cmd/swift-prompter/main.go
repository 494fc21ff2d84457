// Command swift-prompter serves prompt templates over MCP.
package main

import "github.com/lumix-labs/swift-prompter/internal/cli"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.Main(version)
}
