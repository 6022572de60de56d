// Nestscan finds, strips and cross-checks nested block comments.
package main

import "github.com/albertocavalcante/nestscan/cmd/nestscan/internal/cli"

func main() {
	cli.Execute()
}
