package client

import (
	"strings"

	"github.com/spf13/cobra"
)

type queryResponse struct {
	Found     bool    `json:"found"`
	Question  string  `json:"question"`
	Answer    string  `json:"answer"`
	Score     float64 `json:"score"`
	MatchType string  `json:"match_type"`
	BestScore float64 `json:"best_score"`
	Degraded  bool    `json:"degraded"`
}

var queryCmd = &cobra.Command{
	Use:   "query <question...>",
	Short: "Run a question through the hybrid knowledge lookup",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		var out queryResponse
		err := newClient().post(cmd.Context(), "/api/knowledge/query",
			map[string]string{"question": question}, &out)
		if err != nil {
			return err
		}

		if !out.Found {
			cmd.Printf("no answer (best score %.2f)\n", out.BestScore)
			if out.Degraded {
				cmd.Println("note: semantic matching was unavailable")
			}
			return nil
		}

		cmd.Printf("answer:   %s\n", out.Answer)
		cmd.Printf("matched:  %q (%s, score %.2f)\n", out.Question, out.MatchType, out.Score)
		if out.Degraded {
			cmd.Println("note: semantic matching was unavailable")
		}
		return nil
	},
}

type statsResponse struct {
	Pending    int `json:"pending"`
	Resolved   int `json:"resolved"`
	Unresolved int `json:"unresolved"`
	Knowledge  int `json:"knowledge"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show queue and knowledge base counters",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var out statsResponse
		if err := newClient().get(cmd.Context(), "/api/stats", &out); err != nil {
			return err
		}
		cmd.Printf("pending:    %d\n", out.Pending)
		cmd.Printf("resolved:   %d\n", out.Resolved)
		cmd.Printf("unresolved: %d\n", out.Unresolved)
		cmd.Printf("knowledge:  %d\n", out.Knowledge)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd, statsCmd)
}
