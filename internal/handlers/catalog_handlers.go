package handlers

import (
	"net/http"

	"clinic_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// CatalogHandler manages the account's materials and machines.
type CatalogHandler struct {
	catalogService services.CatalogService
}

func NewCatalogHandler(cs services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: cs}
}

// Materials

func (h *CatalogHandler) CreateMaterial(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	var req services.MaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateMaterial")
		return
	}

	material, err := h.catalogService.CreateMaterial(c.Request.Context(), identity.AccountID, req)
	if err != nil {
		respondServiceError(c, err, "CreateMaterial: Error from catalogService.CreateMaterial", "Failed to create material.")
		return
	}
	c.JSON(http.StatusCreated, material)
}

func (h *CatalogHandler) ListMaterials(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}

	materials, err := h.catalogService.ListMaterials(c.Request.Context(), identity.AccountID)
	if err != nil {
		respondServiceError(c, err, "ListMaterials: Error from catalogService.ListMaterials", "Failed to retrieve materials.")
		return
	}
	c.JSON(http.StatusOK, materials)
}

func (h *CatalogHandler) UpdateMaterial(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "material")
	if !ok {
		return
	}
	var req services.MaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "UpdateMaterial")
		return
	}

	material, err := h.catalogService.UpdateMaterial(c.Request.Context(), identity.AccountID, id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateMaterial: Error from catalogService.UpdateMaterial for ID "+c.Param("id"), "Failed to update material.")
		return
	}
	c.JSON(http.StatusOK, material)
}

func (h *CatalogHandler) DeleteMaterial(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "material")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteMaterial(c.Request.Context(), identity.AccountID, id); err != nil {
		respondServiceError(c, err, "DeleteMaterial: Error from catalogService.DeleteMaterial for ID "+c.Param("id"), "Failed to delete material.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Material deleted successfully"})
}

// Machines

func (h *CatalogHandler) CreateMachine(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	var req services.MachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateMachine")
		return
	}

	machine, err := h.catalogService.CreateMachine(c.Request.Context(), identity.AccountID, req)
	if err != nil {
		respondServiceError(c, err, "CreateMachine: Error from catalogService.CreateMachine", "Failed to create machine.")
		return
	}
	c.JSON(http.StatusCreated, machine)
}

func (h *CatalogHandler) ListMachines(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}

	machines, err := h.catalogService.ListMachines(c.Request.Context(), identity.AccountID)
	if err != nil {
		respondServiceError(c, err, "ListMachines: Error from catalogService.ListMachines", "Failed to retrieve machines.")
		return
	}
	c.JSON(http.StatusOK, machines)
}

func (h *CatalogHandler) UpdateMachine(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "machine")
	if !ok {
		return
	}
	var req services.MachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "UpdateMachine")
		return
	}

	machine, err := h.catalogService.UpdateMachine(c.Request.Context(), identity.AccountID, id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateMachine: Error from catalogService.UpdateMachine for ID "+c.Param("id"), "Failed to update machine.")
		return
	}
	c.JSON(http.StatusOK, machine)
}

func (h *CatalogHandler) DeleteMachine(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "machine")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteMachine(c.Request.Context(), identity.AccountID, id); err != nil {
		respondServiceError(c, err, "DeleteMachine: Error from catalogService.DeleteMachine for ID "+c.Param("id"), "Failed to delete machine.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Machine deleted successfully"})
}
