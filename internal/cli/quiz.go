package cli

import (
	"fmt"

	"staff-quiz/internal/adapter"
	"staff-quiz/internal/cache"
	"staff-quiz/internal/repository"
	"staff-quiz/internal/service"
	"staff-quiz/internal/util"

	"github.com/spf13/cobra"
)

// NewResnapshotCmd refreshes the stored pool size of a quiz after its banks
// changed.
func NewResnapshotCmd(configPath *string) *cobra.Command {
	var quizID, restaurantID string

	cmd := &cobra.Command{
		Use:   "resnapshot",
		Short: "Recount the active questions behind a quiz",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			redisClient, err := cache.NewRedisClient(cfg.Redis)
			if err != nil {
				return err
			}
			defer redisClient.Close()

			source := service.NewQuestionSource(repository.NewSQLXQuestionRepository(db), adapter.NewRedisCacheAdapter(redisClient), cfg.Training.PoolCacheTTL)
			admin := service.NewQuizAdmin(repository.NewSQLXQuizRepository(db), source, util.SystemClock{})

			resp, err := admin.ResnapshotQuiz(cmd.Context(), quizID, restaurantID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "quiz %s: %d -> %d unique questions\n", resp.QuizID, resp.PreviousTotal, resp.TotalUniqueQuestions)
			return nil
		},
	}

	cmd.Flags().StringVar(&quizID, "quiz", "", "quiz ID")
	cmd.Flags().StringVar(&restaurantID, "restaurant", "", "restaurant that owns the quiz")
	_ = cmd.MarkFlagRequired("quiz")
	_ = cmd.MarkFlagRequired("restaurant")
	return cmd
}
