package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/panchen451161722/daoaiagent/internal/logger"
	"github.com/panchen451161722/daoaiagent/internal/logic"
	"github.com/panchen451161722/daoaiagent/internal/repository"
)

type DAOHandler struct {
	daoLogic *logic.DAOLogic
}

func NewDAOHandler(store repository.RecordStore) *DAOHandler {
	return &DAOHandler{
		daoLogic: logic.NewDAOLogic(store),
	}
}

// GetDAOs 获取DAO列表
func (h *DAOHandler) GetDAOs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	records, total, query, err := h.daoLogic.GetDAOs(c.Request.Context(), c.Query("creator"), c.Query("dao_address"), page, pageSize)
	if err != nil {
		h.fail(c, err)
		return
	}

	daos := make([]DAOResponse, 0, len(records))
	for i := range records {
		daos = append(daos, NewDAOResponse(&records[i]))
	}

	SuccessResponse(c, http.StatusOK, "ok", GetDAOsResponse{
		DAOs:       daos,
		Pagination: NewPagination(query.Page, query.PageSize, total),
	})
}

// GetDAO 按记录ID获取DAO
func (h *DAOHandler) GetDAO(c *gin.Context) {
	record, err := h.daoLogic.GetDAO(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", NewDAOResponse(record))
}

// GetDAOByAddress 按DAO地址获取
func (h *DAOHandler) GetDAOByAddress(c *gin.Context) {
	record, err := h.daoLogic.GetDAOByAddress(c.Request.Context(), c.Param("address"))
	if err != nil {
		h.fail(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", NewDAOResponse(record))
}

// GetStats 获取统计
func (h *DAOHandler) GetStats(c *gin.Context) {
	stats, err := h.daoLogic.GetStats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", stats)
}

func (h *DAOHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, logic.ErrInvalidArgument):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, logic.ErrNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	default:
		logger.Error("Request %s failed: %v", c.Request.URL.Path, err)
		ErrorResponse(c, http.StatusInternalServerError, "internal error")
	}
}
