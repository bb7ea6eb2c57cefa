package handler

import (
	"github.com/panchen451161722/daoaiagent/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// DAOResponse DAO响应模型
type DAOResponse struct {
	ID               string `json:"id"`
	DaoAddress       string `json:"daoAddress"`
	Creator          string `json:"creator"`
	Timestamp        string `json:"timestamp"`
	OtherContentHash string `json:"otherContentHash"`
	BlockNumber      int64  `json:"blockNumber"`
	BlockTimestamp   int64  `json:"blockTimestamp"`
	TransactionHash  string `json:"transactionHash"`
}

// GetDAOsResponse 获取DAO列表响应
type GetDAOsResponse struct {
	DAOs       []DAOResponse `json:"daos"`
	Pagination Pagination    `json:"pagination"`
}

// NewDAOResponse 转换为响应模型
func NewDAOResponse(m *model.DAOCreatedModel) DAOResponse {
	return DAOResponse{
		ID:               m.IdHex(),
		DaoAddress:       m.DaoAddress,
		Creator:          m.Creator,
		Timestamp:        m.Timestamp,
		OtherContentHash: m.OtherContentHash,
		BlockNumber:      m.BlockNumber,
		BlockTimestamp:   m.BlockTimestamp,
		TransactionHash:  m.TransactionHash,
	}
}

// NewPagination 计算分页信息
func NewPagination(page, pageSize int, total int64) Pagination {
	totalPage := int64(0)
	if pageSize > 0 {
		totalPage = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPage: totalPage}
}
