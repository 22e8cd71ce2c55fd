// Command eerieecho is a themed terminal chat backed by the Gemini API.
package main

import "github.com/diogo/eerieecho/internal/commands"

func main() {
	commands.Execute()
}
