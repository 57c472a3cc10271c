package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arielwu/deskpulse/internal/state"
	"github.com/arielwu/deskpulse/internal/utils"
)

type StateHandler struct {
	states *state.Store
}

func NewStateHandler(states *state.Store) *StateHandler {
	return &StateHandler{states: states}
}

// Get returns the user's current behavioral state.
func (h *StateHandler) Get(c *gin.Context) {
	userID, ok := requireOwnUser(c)
	if !ok {
		return
	}

	st, ok := h.states.Get(userID)
	if !ok {
		writeError(c, utils.E(utils.CodeNotFound, "StateHandler.Get", "no state for user", nil))
		return
	}
	c.JSON(http.StatusOK, st)
}
