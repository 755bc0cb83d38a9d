package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"quoteflow/internal/model"
	"quoteflow/internal/service"
	"quoteflow/internal/transport/rest/middleware"
)

// ToolHandler handles tool configuration endpoints
type ToolHandler struct {
	toolSvc *service.ToolService
}

// NewToolHandler creates a new tool handler
func NewToolHandler(toolSvc *service.ToolService) *ToolHandler {
	return &ToolHandler{toolSvc: toolSvc}
}

// SaveToolRequest is the request body for creating or updating a tool
type SaveToolRequest struct {
	Settings  model.ToolSettings         `json:"settings"`
	GHL       model.GHLConfig            `json:"ghl"`
	Questions []model.QuestionDefinition `json:"questions"`
}

// Create handles POST /v1/tools
func (h *ToolHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SaveToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tool := &model.Tool{
		OwnerID:   ownerID,
		Settings:  req.Settings,
		GHL:       req.GHL,
		Questions: req.Questions,
	}

	id, err := h.toolSvc.Create(r.Context(), tool)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"toolId": id})
}

// Get handles GET /v1/tools/{toolId}
func (h *ToolHandler) Get(w http.ResponseWriter, r *http.Request) {
	toolID := mux.Vars(r)["toolId"]

	tool, err := h.toolSvc.GetByID(r.Context(), toolID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tool == nil {
		writeError(w, http.StatusNotFound, "tool not found")
		return
	}

	writeJSON(w, http.StatusOK, tool)
}

// List handles GET /v1/tools
func (h *ToolHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tools, err := h.toolSvc.GetByOwnerID(r.Context(), ownerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"tools": tools})
}

// Update handles PUT /v1/tools/{toolId}
func (h *ToolHandler) Update(w http.ResponseWriter, r *http.Request) {
	toolID := mux.Vars(r)["toolId"]
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SaveToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tool := &model.Tool{
		ID:        toolID,
		OwnerID:   ownerID,
		Settings:  req.Settings,
		GHL:       req.GHL,
		Questions: req.Questions,
	}

	if err := h.toolSvc.Update(r.Context(), tool); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, tool)
}

// Delete handles DELETE /v1/tools/{toolId}
func (h *ToolHandler) Delete(w http.ResponseWriter, r *http.Request) {
	toolID := mux.Vars(r)["toolId"]

	if err := h.toolSvc.Delete(r.Context(), toolID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Widget handles GET /v1/tools/{toolId}/widget: the public widget bootstrap,
// stripped of dashboard-only fields
func (h *ToolHandler) Widget(w http.ResponseWriter, r *http.Request) {
	toolID := mux.Vars(r)["toolId"]

	tool, err := h.toolSvc.GetByID(r.Context(), toolID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tool == nil {
		writeError(w, http.StatusNotFound, "tool not found")
		return
	}

	writeJSON(w, http.StatusOK, tool.WidgetView())
}
