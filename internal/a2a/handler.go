package a2a

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/BerylCAtieno/synapse/internal/auth"
	"github.com/BerylCAtieno/synapse/internal/logger"
	"github.com/BerylCAtieno/synapse/internal/models"
	"github.com/BerylCAtieno/synapse/internal/services"
)

const usage = "Send a campaign id and a persona id, e.g. `demo-smartwatch-x demo-urban-saver`, or a data part {\"campaignId\": \"...\", \"personaId\": \"...\"}."

type Handler struct {
	log     *logger.Logger
	service services.SimulationService
	card    AgentCard
}

// NewHandler serves the negotiator agent. baseURL is the public address the
// agent card advertises.
func NewHandler(log *logger.Logger, service services.SimulationService, baseURL string) *Handler {
	return &Handler{
		log:     log.With("handler", "A2AHandler"),
		service: service,
		card:    negotiatorCard(strings.TrimRight(baseURL, "/")),
	}
}

func (h *Handler) Routes(r gin.IRouter) {
	r.GET("/.well-known/agent.json", h.ServeAgentCard)
	r.POST("/a2a/negotiator", h.HandleNegotiator)
}

func negotiatorCard(baseURL string) AgentCard {
	return AgentCard{
		Name:        "Synapse Negotiator",
		Description: "Simulates a price negotiation between a brand and a synthetic consumer persona and reports the outcome.",
		URL:         baseURL + "/a2a/negotiator",
		Version:     "1.0.0",
		Capabilities: map[string]any{
			"streaming":         false,
			"pushNotifications": false,
		},
		DefaultInputModes:  []string{"text/plain", "application/json"},
		DefaultOutputModes: []string{"text/plain", "application/json"},
		Skills: []AgentSkill{{
			ID:          "negotiate",
			Name:        "Negotiation simulation",
			Description: "Plays out a brand and consumer negotiation for a campaign and persona.",
			Tags:        []string{"pricing", "personas", "simulation"},
			Examples:    []string{"demo-smartwatch-x demo-urban-saver"},
		}},
	}
}

func (h *Handler) ServeAgentCard(c *gin.Context) {
	c.JSON(http.StatusOK, h.card)
}

// HandleNegotiator processes A2A messages
func (h *Handler) HandleNegotiator(c *gin.Context) {
	bodyBytes, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Warn("Failed to read request body", "error", err)
		h.sendErrorResponse(c, nil, "Failed to read request body", CodeParseError)
		return
	}

	var rpcReq JSONRPCRequest
	if err := json.Unmarshal(bodyBytes, &rpcReq); err != nil || rpcReq.Method == "" {
		// Some callers post the message params without the JSON-RPC envelope.
		h.handleDirectMessage(c, bodyBytes)
		return
	}

	if rpcReq.JSONRPC != "2.0" {
		h.log.Warn("Invalid JSON-RPC version", "version", rpcReq.JSONRPC)
		h.sendErrorResponse(c, rpcReq.ID, "Invalid JSON-RPC version", CodeInvalidRequest)
		return
	}

	switch rpcReq.Method {
	case "agent/task", "message/send":
		h.handleTask(c, rpcReq)
	default:
		h.log.Warn("Unknown method", "method", rpcReq.Method)
		h.sendErrorResponse(c, rpcReq.ID, fmt.Sprintf("Method not found: %s", rpcReq.Method), CodeMethodNotFound)
	}
}

func (h *Handler) handleDirectMessage(c *gin.Context, bodyBytes []byte) {
	var msgParams MessageParams
	if err := json.Unmarshal(bodyBytes, &msgParams); err != nil {
		h.log.Warn("Failed to parse as direct message", "error", err)
		h.sendErrorResponse(c, nil, "Invalid request format", CodeParseError)
		return
	}
	taskID := "direct-message"
	h.sendSuccessResponse(c, json.RawMessage(`"`+taskID+`"`), h.negotiate(c, taskID, msgParams.Message))
}

func (h *Handler) handleTask(c *gin.Context, rpcReq JSONRPCRequest) {
	var msgParams MessageParams
	if err := json.Unmarshal(rpcReq.Params, &msgParams); err != nil {
		h.log.Warn("Failed to unmarshal params", "error", err)
		h.sendErrorResponse(c, rpcReq.ID, "Invalid parameters", CodeInvalidParams)
		return
	}
	h.sendSuccessResponse(c, rpcReq.ID, h.negotiate(c, rpcReq.TaskID(), msgParams.Message))
}

func (h *Handler) negotiate(c *gin.Context, taskID string, msg A2AMessage) TaskResult {
	req, ok := extractRunRequest(msg)
	if !ok {
		return h.createErrorTaskResult(taskID, usage)
	}

	ctx := context.WithoutCancel(c.Request.Context())
	sim, err := h.service.Run(ctx, auth.PrincipalFrom(c), req)
	if err != nil {
		h.log.Warn("Negotiation failed", "campaign_id", req.CampaignID, "persona_id", req.PersonaID, "error", err)
		return h.createErrorTaskResult(taskID, fmt.Sprintf("Simulation failed: %v", err))
	}
	return h.createSuccessTaskResult(taskID, sim)
}

// extractRunRequest reads campaign and persona ids from a data part, a JSON
// text part, or a text part holding the two ids separated by whitespace.
func extractRunRequest(msg A2AMessage) (services.RunRequest, bool) {
	for _, part := range msg.Parts {
		if part.Kind != "data" || len(part.Data) == 0 {
			continue
		}
		var req services.RunRequest
		if err := json.Unmarshal(part.Data, &req); err == nil && req.CampaignID != "" && req.PersonaID != "" {
			return req, true
		}
	}

	for _, part := range msg.Parts {
		if part.Kind != "text" {
			continue
		}
		text := strings.TrimSpace(part.Text)
		text = strings.ReplaceAll(text, "<p>", "")
		text = strings.ReplaceAll(text, "</p>", "")
		text = strings.TrimSpace(text)

		var req services.RunRequest
		if err := json.Unmarshal([]byte(text), &req); err == nil && req.CampaignID != "" && req.PersonaID != "" {
			return req, true
		}

		fields := strings.Fields(text)
		if len(fields) >= 2 {
			req = services.RunRequest{CampaignID: fields[0], PersonaID: fields[1]}
			if len(fields) >= 3 {
				req.Model = fields[2]
			}
			return req, true
		}
	}
	return services.RunRequest{}, false
}

func (h *Handler) createSuccessTaskResult(taskID string, sim *models.Simulation) TaskResult {
	responseText := formatSimulation(sim)
	parts := []MessagePart{TextPart(responseText)}
	if data, err := DataPart(sim); err == nil {
		parts = append(parts, data)
	} else {
		h.log.Warn("Failed to encode simulation artifact", "error", err)
	}

	return TaskResult{
		ID:   taskID,
		Kind: "task",
		Status: TaskStatus{
			State:     StateCompleted,
			Timestamp: Timestamp(),
			Message: &A2AMessage{
				Kind:      "message",
				Role:      RoleAgent,
				MessageID: uuid.New().String(),
				TaskID:    taskID,
				Parts:     []MessagePart{TextPart(responseText)},
			},
		},
		Artifacts: []Artifact{{
			ArtifactID: uuid.New().String(),
			Name:       "Negotiation Simulation",
			Parts:      parts,
		}},
	}
}

func (h *Handler) createErrorTaskResult(taskID string, errorMsg string) TaskResult {
	return TaskResult{
		ID:   taskID,
		Kind: "task",
		Status: TaskStatus{
			State:     StateFailed,
			Timestamp: Timestamp(),
			Message: &A2AMessage{
				Kind:  "message",
				Role:  RoleAgent,
				Parts: []MessagePart{TextPart(errorMsg)},
			},
		},
	}
}

func formatSimulation(sim *models.Simulation) string {
	var b strings.Builder
	product, persona := "campaign", "persona"
	if sim.Campaign != nil {
		product = sim.Campaign.ProductName
	}
	if sim.Persona != nil {
		persona = sim.Persona.Name
	}
	fmt.Fprintf(&b, "# Negotiation: %s with %s\n\n", product, persona)
	fmt.Fprintf(&b, "**Outcome:** %s\n", sim.Outcome)
	m := sim.MetricsData()
	fmt.Fprintf(&b, "**Acceptance:** %.0f%%  **Mean sentiment:** %.2f\n\n", m.AcceptanceRate*100, m.SentimentAvg)

	for _, turn := range sim.Turns() {
		speaker := "Brand"
		if turn.Actor == models.ActorConsumer {
			speaker = "Consumer"
		}
		fmt.Fprintf(&b, "**%s:** %s\n", speaker, strings.TrimSpace(turn.Text))
	}
	return b.String()
}

func (h *Handler) sendSuccessResponse(c *gin.Context, id json.RawMessage, result TaskResult) {
	h.log.Debug("Sending task result", "id", string(id), "state", result.Status.State)
	c.JSON(http.StatusOK, JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result})
}

// JSON-RPC errors are sent with 200 OK.
func (h *Handler) sendErrorResponse(c *gin.Context, id json.RawMessage, message string, code int) {
	h.log.Debug("Sending RPC error", "id", string(id), "code", code, "message", message)
	c.JSON(http.StatusOK, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message},
	})
}
