package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
)

type SmokeClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewSmokeClient(baseURL, token string) *SmokeClient {
	return &SmokeClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the Synapse server")
	testType := flag.String("test", "all", "Test type: all, health, agent-card, demo, simulate, agent, custom")
	campaignID := flag.String("campaign", "demo-smartwatch-x", "Campaign id or demo slug (for custom test)")
	personaID := flag.String("persona", "demo-urban-saver", "Persona id or demo slug (for custom test)")
	model := flag.String("model", "", "Model name or provider alias (for custom test)")
	token := flag.String("token", "", "Bearer token for authenticated requests")
	flag.Parse()

	client := NewSmokeClient(*baseURL, *token)

	printHeader("Synapse - Smoke Tests")
	fmt.Printf("%sBase URL: %s%s\n\n", colorCyan, *baseURL, colorReset)

	var ok bool
	switch *testType {
	case "all":
		client.runAllTests()
		return
	case "health":
		ok = client.testHealthCheck()
	case "agent-card":
		ok = client.testAgentCard()
	case "demo":
		ok = client.testDemoCatalog()
	case "simulate":
		ok = client.testDemoSimulation()
	case "agent":
		ok = client.testAgentNegotiation()
	case "custom":
		ok = client.testSimulation(*campaignID, *personaID, *model)
	default:
		printError(fmt.Sprintf("Unknown test type: %s", *testType))
		fmt.Println("\nAvailable tests: all, health, agent-card, demo, simulate, agent, custom")
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}

func (sc *SmokeClient) runAllTests() {
	tests := []struct {
		name string
		fn   func() bool
	}{
		{"Health Check", sc.testHealthCheck},
		{"Agent Card", sc.testAgentCard},
		{"Demo Catalog", sc.testDemoCatalog},
		{"Demo Simulation", sc.testDemoSimulation},
		{"Agent Negotiation", sc.testAgentNegotiation},
	}

	passed := 0
	failed := 0

	for _, test := range tests {
		if test.fn() {
			passed++
		} else {
			failed++
		}
		fmt.Println()
	}

	printHeader("Test Summary")
	fmt.Printf("%sPassed: %d%s\n", colorGreen, passed, colorReset)
	fmt.Printf("%sFailed: %d%s\n", colorRed, failed, colorReset)
	fmt.Printf("Total: %d\n", passed+failed)

	if failed > 0 {
		os.Exit(1)
	}
}

func (sc *SmokeClient) do(method, path string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, sc.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if sc.token != "" {
		req.Header.Set("Authorization", "Bearer "+sc.token)
	}
	fmt.Printf("%s %s\n", method, sc.baseURL+path)

	resp, err := sc.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	return resp.StatusCode, data, err
}

func (sc *SmokeClient) testHealthCheck() bool {
	printTestHeader("Testing Health Check Endpoint")

	status, body, err := sc.do(http.MethodGet, "/health", nil)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	if status != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", status))
		return false
	}
	if string(body) != "OK" {
		printError(fmt.Sprintf("Expected body 'OK', got '%s'", string(body)))
		return false
	}

	printSuccess("Health check passed")
	return true
}

func (sc *SmokeClient) testAgentCard() bool {
	printTestHeader("Testing Agent Card Endpoint")

	status, body, err := sc.do(http.MethodGet, "/.well-known/agent.json", nil)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	if status != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", status))
		fmt.Printf("Response: %s\n", string(body))
		return false
	}

	var agentCard map[string]interface{}
	if err := json.Unmarshal(body, &agentCard); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}
	for _, field := range []string{"name", "description", "url", "version", "capabilities", "skills"} {
		if _, ok := agentCard[field]; !ok {
			printError(fmt.Sprintf("Missing required field: %s", field))
			return false
		}
	}

	printSuccess("Agent card is valid")
	printJSON(body)
	return true
}

func (sc *SmokeClient) testDemoCatalog() bool {
	printTestHeader("Testing Demo Catalog")

	status, body, err := sc.do(http.MethodGet, "/api/demo", nil)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	if status != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", status))
		return false
	}

	var catalog struct {
		Campaigns []map[string]interface{} `json:"campaigns"`
		Personas  []map[string]interface{} `json:"personas"`
	}
	if err := json.Unmarshal(body, &catalog); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}
	if len(catalog.Campaigns) == 0 || len(catalog.Personas) == 0 {
		printError("Demo catalog is empty")
		return false
	}

	printSuccess(fmt.Sprintf("Demo catalog has %d campaigns and %d personas", len(catalog.Campaigns), len(catalog.Personas)))
	return true
}

func (sc *SmokeClient) testDemoSimulation() bool {
	return sc.testSimulation("demo-smartwatch-x", "demo-urban-saver", "")
}

func (sc *SmokeClient) testSimulation(campaignID, personaID, model string) bool {
	printTestHeader("Testing Simulation Run")
	fmt.Printf("%sCampaign:%s %s  %sPersona:%s %s\n\n", colorCyan, colorReset, campaignID, colorCyan, colorReset, personaID)

	payload := map[string]string{"campaignId": campaignID, "personaId": personaID}
	if model != "" {
		payload["model"] = model
	}
	status, body, err := sc.do(http.MethodPost, "/api/simulations", payload)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	if status != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", status))
		fmt.Printf("Response: %s\n", string(body))
		return false
	}

	var resp struct {
		Simulation struct {
			Outcome    string `json:"outcome"`
			Model      string `json:"model"`
			Transcript []struct {
				Actor     string   `json:"actor"`
				Text      string   `json:"text"`
				Sentiment *float64 `json:"sentiment"`
			} `json:"transcript"`
			Metrics struct {
				AcceptanceRate float64 `json:"acceptanceRate"`
				SentimentAvg   float64 `json:"sentimentAvg"`
			} `json:"metrics"`
		} `json:"simulation"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}
	sim := resp.Simulation
	if sim.Outcome == "" || len(sim.Transcript) == 0 {
		printError("Simulation is missing an outcome or transcript")
		return false
	}

	printSuccess(fmt.Sprintf("Simulation completed: %s (model %s)", sim.Outcome, sim.Model))
	fmt.Printf("\n%sTranscript:%s\n", colorGreen, colorReset)
	fmt.Println(strings.Repeat("=", 80))
	for _, turn := range sim.Transcript {
		sentiment := "-"
		if turn.Sentiment != nil {
			sentiment = fmt.Sprintf("%+.2f", *turn.Sentiment)
		}
		fmt.Printf("%-9s [%s] %s\n", turn.Actor, sentiment, turn.Text)
	}
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("%sAcceptance: %.2f  Sentiment: %.2f%s\n", colorPurple, sim.Metrics.AcceptanceRate, sim.Metrics.SentimentAvg, colorReset)
	return true
}

func (sc *SmokeClient) testAgentNegotiation() bool {
	printTestHeader("Testing Agent Negotiation")

	request := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      fmt.Sprintf("test-%d", time.Now().Unix()),
		"method":  "message/send",
		"params": map[string]interface{}{
			"message": map[string]interface{}{
				"kind": "message",
				"role": "user",
				"parts": []map[string]interface{}{
					{"kind": "text", "text": "demo-eco-bundle demo-green-advocate"},
				},
			},
			"configuration": map[string]interface{}{
				"blocking":            true,
				"acceptedOutputModes": []string{"text", "data"},
			},
		},
	}

	status, body, err := sc.do(http.MethodPost, "/a2a/negotiator", request)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	if status != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", status))
		fmt.Printf("Response: %s\n", string(body))
		return false
	}

	var response map[string]interface{}
	if err := json.Unmarshal(body, &response); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}
	if errObj, ok := response["error"]; ok {
		printError("Request returned an error")
		errJSON, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Println(string(errJSON))
		return false
	}

	result, ok := response["result"].(map[string]interface{})
	if !ok {
		printError("Invalid result format")
		return false
	}
	taskStatus, ok := result["status"].(map[string]interface{})
	if !ok {
		printError("Invalid status format")
		return false
	}
	if state, _ := taskStatus["state"].(string); state != "completed" {
		printError(fmt.Sprintf("Expected state 'completed', got '%s'", state))
		return false
	}

	printSuccess("Agent negotiation completed successfully")
	if msg, ok := taskStatus["message"].(map[string]interface{}); ok {
		if parts, ok := msg["parts"].([]interface{}); ok {
			fmt.Println(strings.Repeat("=", 80))
			for _, part := range parts {
				if p, ok := part.(map[string]interface{}); ok {
					if text, ok := p["text"].(string); ok {
						fmt.Println(text)
					}
				}
			}
			fmt.Println(strings.Repeat("=", 80))
		}
	}
	return true
}

func printHeader(text string) {
	fmt.Printf("\n%s%s%s\n", colorBlue, strings.Repeat("=", len(text)+4), colorReset)
	fmt.Printf("%s= %s =%s\n", colorBlue, text, colorReset)
	fmt.Printf("%s%s%s\n\n", colorBlue, strings.Repeat("=", len(text)+4), colorReset)
}

func printTestHeader(text string) {
	fmt.Printf("%s[TEST] %s%s\n", colorCyan, text, colorReset)
	fmt.Println(strings.Repeat("-", 80))
}

func printSuccess(text string) {
	fmt.Printf("%s✓ %s%s\n", colorGreen, text, colorReset)
}

func printError(text string) {
	fmt.Printf("%s✗ %s%s\n", colorRed, text, colorReset)
}

func printJSON(data []byte) {
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, data, "", "  "); err == nil {
		fmt.Printf("\n%sResponse:%s\n%s\n", colorYellow, colorReset, prettyJSON.String())
	}
}
