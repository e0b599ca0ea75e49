package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"staff-quiz/internal/adapter/quizgen"
	"staff-quiz/internal/domain"
	"staff-quiz/internal/logger"
	"staff-quiz/internal/repository"
	"staff-quiz/internal/service"
	"staff-quiz/internal/util"
	"staff-quiz/internal/validation"

	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"
)

// NewGenerateQuestionsCmd asks the LLM for new questions and stores them as
// pending review.
func NewGenerateQuestionsCmd(configPath *string) *cobra.Command {
	var (
		restaurantID string
		bankID       string
		topic        string
		category     string
		count        int
	)

	cmd := &cobra.Command{
		Use:   "generate-questions",
		Short: "Generate pending questions for a question bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			category = strings.ToLower(strings.TrimSpace(category))
			if errs := validation.NewValidator().ValidateGenerateRequest(bankID, category, count); len(errs) > 0 {
				return errs
			}

			cfg, db, err := openDB(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if cfg.LLM.Server == "" {
				return fmt.Errorf("llm.server must be set to generate questions")
			}
			llm, err := ollama.New(
				ollama.WithServerURL(cfg.LLM.Server),
				ollama.WithModel(cfg.LLM.Model),
				ollama.WithHTTPClient(&http.Client{Timeout: cfg.LLM.Timeout}),
			)
			if err != nil {
				return fmt.Errorf("failed to create LLM client: %w", err)
			}
			generator, err := quizgen.NewOllamaQuestionGenerator(llm, cfg.LLM.Timeout)
			if err != nil {
				return err
			}

			batch := service.NewQuestionBatchService(repository.NewSQLXQuestionRepository(db), generator, util.SystemClock{}, cfg.LLM.QuestionCount)
			result, err := batch.GenerateForBank(cmd.Context(), service.GenerateBankRequest{
				RestaurantID:      restaurantID,
				BankID:            bankID,
				Topic:             topic,
				KnowledgeCategory: domain.KnowledgeCategory(category),
				Count:             count,
			})
			if err != nil {
				return err
			}

			logger.Get().Info("Question generation finished",
				zap.String("bank_id", bankID),
				zap.Int("saved", len(result.Saved)),
				zap.Int("duplicates", result.Duplicates),
				zap.Int("rejected", result.Rejected))
			fmt.Fprintf(cmd.OutOrStdout(), "generated %d, saved %d pending, %d duplicate(s), %d rejected\n",
				result.Generated, len(result.Saved), result.Duplicates, result.Rejected)
			for _, id := range result.Saved {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&restaurantID, "restaurant", "", "restaurant that owns the bank")
	cmd.Flags().StringVar(&bankID, "bank", "", "question bank ID")
	cmd.Flags().StringVar(&topic, "topic", "", "subject of the questions, e.g. \"spring menu allergens\"")
	cmd.Flags().StringVar(&category, "category", string(domain.KnowledgeFood), "knowledge category: food, beverage, wine or procedures")
	cmd.Flags().IntVar(&count, "count", 0, "number of questions to request (defaults to llm.question_count)")
	_ = cmd.MarkFlagRequired("restaurant")
	_ = cmd.MarkFlagRequired("bank")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

// NewApproveQuestionCmd moves a reviewed question into the active pool.
func NewApproveQuestionCmd(configPath *string) *cobra.Command {
	var questionID, restaurantID string

	cmd := &cobra.Command{
		Use:   "approve-question",
		Short: "Activate a pending question after review",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !util.IsULID(questionID) {
				return fmt.Errorf("invalid question ID %q", questionID)
			}

			cfg, db, err := openDB(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			batch := service.NewQuestionBatchService(repository.NewSQLXQuestionRepository(db), nil, util.SystemClock{}, cfg.LLM.QuestionCount)
			if err := batch.ApproveQuestion(cmd.Context(), questionID, restaurantID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "question %s is active; pool caches refresh within %s\n", questionID, cfg.Training.PoolCacheTTL)
			return nil
		},
	}

	cmd.Flags().StringVar(&questionID, "question", "", "question ID")
	cmd.Flags().StringVar(&restaurantID, "restaurant", "", "restaurant that owns the question")
	_ = cmd.MarkFlagRequired("question")
	_ = cmd.MarkFlagRequired("restaurant")
	return cmd
}

// NewImportQuestionsCmd loads authored questions from a JSON file straight
// into the active pool of a bank.
func NewImportQuestionsCmd(configPath *string) *cobra.Command {
	var restaurantID, bankID, file string

	cmd := &cobra.Command{
		Use:   "import-questions",
		Short: "Import authored questions from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if errs := validation.NewValidator().ValidateID("bank_id", bankID); len(errs) > 0 {
				return errs
			}
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}
			var candidates []domain.QuestionCandidate
			if err := json.Unmarshal(raw, &candidates); err != nil {
				return fmt.Errorf("failed to parse %s: %w", file, err)
			}

			cfg, db, err := openDB(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			batch := service.NewQuestionBatchService(repository.NewSQLXQuestionRepository(db), nil, util.SystemClock{}, cfg.LLM.QuestionCount)
			result, err := batch.ImportQuestions(cmd.Context(), service.GenerateBankRequest{RestaurantID: restaurantID, BankID: bankID}, candidates)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d, %d duplicate(s), %d rejected\n",
				len(result.Saved), result.Requested, result.Duplicates, result.Rejected)
			return nil
		},
	}

	cmd.Flags().StringVar(&restaurantID, "restaurant", "", "restaurant that owns the bank")
	cmd.Flags().StringVar(&bankID, "bank", "", "question bank ID")
	cmd.Flags().StringVar(&file, "file", "", "JSON array of questions")
	_ = cmd.MarkFlagRequired("restaurant")
	_ = cmd.MarkFlagRequired("bank")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
