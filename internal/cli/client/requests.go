package client

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type helpRequest struct {
	ID         int64      `json:"id"`
	CustomerID string     `json:"customer_id"`
	Question   string     `json:"question"`
	Status     string     `json:"status"`
	Answer     *string    `json:"answer"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at"`
}

type requestListResponse struct {
	Requests []helpRequest `json:"requests"`
}

type requestResponse struct {
	Request helpRequest `json:"request"`
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List pending help requests, oldest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var out requestListResponse
		if err := newClient().get(cmd.Context(), "/api/requests/pending", &out); err != nil {
			return err
		}
		printRequestList(cmd, out.Requests)
		return nil
	},
}

var unresolvedCmd = &cobra.Command{
	Use:   "unresolved",
	Short: "List requests that closed without an answer",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var out requestListResponse
		if err := newClient().get(cmd.Context(), "/api/requests/unresolved", &out); err != nil {
			return err
		}
		printRequestList(cmd, out.Requests)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one help request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		var out requestResponse
		if err := newClient().get(cmd.Context(), fmt.Sprintf("/api/requests/%d", id), &out); err != nil {
			return err
		}

		hr := out.Request
		cmd.Printf("id:        %d\n", hr.ID)
		cmd.Printf("customer:  %s\n", hr.CustomerID)
		cmd.Printf("status:    %s\n", hr.Status)
		cmd.Printf("created:   %s\n", hr.CreatedAt.Local().Format(time.RFC822))
		if hr.ResolvedAt != nil {
			cmd.Printf("closed:    %s\n", hr.ResolvedAt.Local().Format(time.RFC822))
		}
		cmd.Printf("question:  %s\n", hr.Question)
		if hr.Answer != nil {
			cmd.Printf("answer:    %s\n", *hr.Answer)
		}
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <id> <answer...>",
	Short: "Answer a pending request",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		answer := strings.Join(args[1:], " ")

		var out requestResponse
		err = newClient().post(cmd.Context(),
			fmt.Sprintf("/api/requests/%d/resolve", id),
			map[string]string{"answer": answer}, &out)
		if err != nil {
			return err
		}
		cmd.Printf("request %d resolved\n", out.Request.ID)
		return nil
	},
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss <id>",
	Short: "Close a pending request without an answer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		var out requestResponse
		err = newClient().post(cmd.Context(),
			fmt.Sprintf("/api/requests/%d/unresolved", id), struct{}{}, &out)
		if err != nil {
			return err
		}
		cmd.Printf("request %d marked unresolved\n", out.Request.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pendingCmd, unresolvedCmd, getCmd, resolveCmd, dismissCmd)
}

func printRequestList(cmd *cobra.Command, requests []helpRequest) {
	if len(requests) == 0 {
		cmd.Println("no requests")
		return
	}
	for _, hr := range requests {
		age := time.Since(hr.CreatedAt).Round(time.Minute)
		cmd.Printf("%-6d %-10s %-8s %s\n", hr.ID, age, hr.Status, hr.Question)
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid request id %q", raw)
	}
	return id, nil
}
