// Package main is the entry point for the grader CLI.
package main

import "grader.dev/pkg/grader/cmd"

func main() {
	cmd.Execute()
}
