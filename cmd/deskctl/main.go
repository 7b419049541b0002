// Package main implements the deskctl CLI for operator commands against the deskd HTTP server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the deskd HTTP server
	serverURL string
	// verbose prints routing detail alongside the answer
	verbose bool
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "deskctl",
	Short: "CLI for deskd HTTP server operations",
	Long: `deskctl is a command-line interface for interacting with the deskd help-desk server.
It provides commands for asking questions, inspecting department routing, chatting
interactively, building the knowledge base, and checking server health.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9090", "deskd server URL")
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(healthCmd)
	queryCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print routing detail to stderr")
}

// queryCmd asks the help desk one question
var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask the help desk a question",
	Long: `Ask the help desk a question and print the answer.

The question is routed to the relevant departments, answered from their
policy records, and merged into a single reply.

Examples:
  # Ask a question
  deskctl query "How many paid leave days do I get per month?"

  # Read the question from stdin
  echo "What is the invoice payment window?" | deskctl query -

  # Show which departments answered
  deskctl query --verbose "How do I reset my laptop password?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

// routeCmd shows routing without answering
var routeCmd = &cobra.Command{
	Use:   "route [question]",
	Short: "Show which departments a question routes to",
	Long: `Classify a question and print the departments it would be routed to,
without retrieving or generating an answer.

Examples:
  # Inspect routing
  deskctl route "Why was my invoice rejected?"

  # Route against a different server
  deskctl route --server http://deskd.internal:9090 "VPN is down"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRoute,
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check deskd server health",
	Long: `Check the health status of the deskd HTTP server.

Examples:
  # Check health
  deskctl health

  # Check health on a different server
  deskctl health --server http://deskd.internal:9090`,
	RunE: runHealth,
}

// QueryRequest matches internal/http/types.go QueryRequest
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse matches internal/http/types.go QueryResponse
type QueryResponse struct {
	Query       string   `json:"query"`
	Departments []string `json:"departments"`
	Fallback    bool     `json:"fallback"`
	Answer      string   `json:"answer"`
}

// RouteResponse matches internal/http/types.go RouteResponse
type RouteResponse struct {
	Query       string   `json:"query"`
	Departments []string `json:"departments"`
	Fallback    bool     `json:"fallback"`
}

// HealthResponse matches internal/http/types.go HealthResponse
type HealthResponse struct {
	Status           string `json:"status"`
	Service          string `json:"service"`
	Version          string `json:"version,omitempty"`
	KnowledgeEntries int    `json:"knowledge_entries"`
}

// readQuestion assembles the question from args, reading stdin when the
// sole argument is "-".
func readQuestion(args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		question := strings.TrimSpace(string(content))
		if question == "" {
			return "", fmt.Errorf("no question to ask")
		}
		return question, nil
	}
	return strings.Join(args, " "), nil
}

// postQuestion sends a question to a deskd endpoint and decodes the JSON
// response into out.
func postQuestion(baseURL, path, question string, timeout time.Duration, out any) error {
	reqJSON, err := json.Marshal(QueryRequest{Query: question})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s%s", baseURL, path)
	httpReq, err := http.NewRequest("POST", url, bytes.NewReader(reqJSON))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		Timeout: timeout,
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// runQuery handles the query command
func runQuery(cmd *cobra.Command, args []string) error {
	question, err := readQuestion(args)
	if err != nil {
		return err
	}

	// The full pipeline makes up to three model round trips (route, answer,
	// merge), so the timeout is generous compared to the other commands.
	var queryResp QueryResponse
	if err := postQuestion(serverURL, "/api/v1/query", question, 120*time.Second, &queryResp); err != nil {
		return err
	}

	// Answer on stdout; routing detail goes to stderr so the answer pipes clean
	fmt.Println(queryResp.Answer)

	if verbose {
		fmt.Fprintf(os.Stderr, "[deskctl] %s\n", routingLine(queryResp.Departments, queryResp.Fallback))
	}

	return nil
}

// runRoute handles the route command
func runRoute(cmd *cobra.Command, args []string) error {
	question, err := readQuestion(args)
	if err != nil {
		return err
	}

	var routeResp RouteResponse
	if err := postQuestion(serverURL, "/api/v1/route", question, 30*time.Second, &routeResp); err != nil {
		return err
	}

	fmt.Printf("Query: %s\n", routeResp.Query)
	fmt.Printf("Departments: %s\n", strings.Join(routeResp.Departments, ", "))
	if routeResp.Fallback {
		fmt.Println("Fallback: yes (no department matched, broadcasting to all)")
	}

	return nil
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("%s/health", serverURL)

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to %s: %v\n", url, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var healthResp HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&healthResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Server Status: %s\n", healthResp.Status)
	fmt.Printf("Server URL: %s\n", serverURL)
	if healthResp.Version != "" {
		fmt.Printf("Server Version: %s\n", healthResp.Version)
	}
	if healthResp.KnowledgeEntries >= 0 {
		fmt.Printf("Knowledge Entries: %d\n", healthResp.KnowledgeEntries)
	} else {
		fmt.Println("Knowledge Entries: unavailable")
	}

	return nil
}

// routingLine formats the department attribution for an answered query.
func routingLine(departments []string, fallback bool) string {
	depts := strings.Join(departments, ", ")
	if fallback {
		return fmt.Sprintf("routed to all departments (fallback): %s", depts)
	}
	return fmt.Sprintf("routed to: %s", depts)
}
