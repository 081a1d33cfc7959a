// Package main provides the entry point for the Course Foundry CLI and
// HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "course_foundry",
	Short: "Course Foundry course generation service",
	Long:  "Course Foundry turns a topic and learner profile into a complete multi-module course with lessons, quizzes, a final project and a glossary, generated stage by stage through the Gemini API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
