package main

import (
	"context"
	"fmt"
	"os"

	"brasa/backend/internal/cli"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		args = []string{"serve"}
	}
	if err := cli.Execute(context.Background(), args); err != nil {
		fmt.Fprintln(os.Stderr, "brasa:", err)
		os.Exit(1)
	}
}
