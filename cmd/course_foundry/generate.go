package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lucas/course-foundry/internal/config"
	"github.com/lucas/course-foundry/internal/db"
	"github.com/lucas/course-foundry/internal/llm"
	"github.com/lucas/course-foundry/internal/pipeline"
	"github.com/lucas/course-foundry/internal/types"
)

var (
	genTopic          string
	genPurpose        string
	genEducationLevel string
	genPriorKnowledge string
	genLearningStyle  string
	genOutput         string
	genUserID         string
	genVerbose        bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a course from the command line",
	Long: `Run the full generation pipeline once and print the assembled course as JSON.
With --user and DATABASE_URL set, the course is also stored.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genTopic, "topic", "", "Course topic (required)")
	generateCmd.Flags().StringVar(&genPurpose, "purpose", "", "Why the learner wants the course")
	generateCmd.Flags().StringVar(&genEducationLevel, "education-level", "", "Learner's education level")
	generateCmd.Flags().StringVar(&genPriorKnowledge, "prior-knowledge", "", "Learner's current knowledge of the topic")
	generateCmd.Flags().StringVar(&genLearningStyle, "learning-style", "", "Preferred learning style")
	generateCmd.Flags().StringVar(&genOutput, "output", "", "Write the course JSON to a file instead of stdout")
	generateCmd.Flags().StringVar(&genUserID, "user", "", "User UUID to store the course under")
	generateCmd.Flags().BoolVar(&genVerbose, "verbose", false, "Print stage progress")
	_ = generateCmd.MarkFlagRequired("topic")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()

	llmCfg := llm.DefaultConfig().WithRequestTimeout(cfg.RequestTimeout)
	client, err := llm.NewClient(ctx, llmCfg, cfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}
	defer client.Close() //nolint:errcheck

	opts := cfg.PipelineOptions()
	opts.Verbose = opts.Verbose || genVerbose

	course, err := pipeline.New(client, opts).Run(ctx, types.LearnerProfile{
		Topic:          genTopic,
		Purpose:        genPurpose,
		EducationLevel: genEducationLevel,
		PriorKnowledge: genPriorKnowledge,
		LearningStyle:  genLearningStyle,
	})
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	if genUserID != "" {
		if err := storeCourse(ctx, cfg.DatabaseURL, genUserID, course); err != nil {
			return err
		}
	}

	encoded, err := json.MarshalIndent(course, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode course: %w", err)
	}

	if genOutput != "" {
		if err := os.WriteFile(genOutput, encoded, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", genOutput, err)
		}
		fmt.Printf("Course written to %s\n", genOutput)
		return nil
	}

	fmt.Println(string(encoded))
	return nil
}

func storeCourse(ctx context.Context, databaseURL, userID string, course *types.CourseDocument) error {
	if databaseURL == "" {
		return fmt.Errorf("--user requires DATABASE_URL to be set")
	}
	owner, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid --user UUID: %w", err)
	}

	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return err
	}

	courseID, err := database.SaveCourse(ctx, owner, course)
	if err != nil {
		return err
	}
	fmt.Printf("Stored course %s\n", courseID)
	return nil
}
