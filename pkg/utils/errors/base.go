package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// 通用错误 (服务代码 00)
var (
	OK = &Errno{Code: 0, HTTP: http.StatusOK, GRPCCode: codes.OK, MessageEN: "OK", MessageZH: "成功"}

	ErrInvalidParam = Register(New(MakeCode(ServiceCommon, CategoryRequest, 1), http.StatusBadRequest, codes.InvalidArgument, "Invalid parameter", "参数无效"))
	ErrBind         = Register(New(MakeCode(ServiceCommon, CategoryRequest, 2), http.StatusBadRequest, codes.InvalidArgument, "Error occurred while binding the request body", "请求体解析失败"))
	ErrNotFound     = Register(New(MakeCode(ServiceCommon, CategoryResource, 1), http.StatusNotFound, codes.NotFound, "Resource not found", "资源不存在"))
	ErrInternal     = Register(New(MakeCode(ServiceCommon, CategoryInternal, 1), http.StatusInternalServerError, codes.Internal, "Internal server error", "服务器内部错误"))
	ErrDatabase     = Register(New(MakeCode(ServiceCommon, CategoryDatabase, 1), http.StatusInternalServerError, codes.Internal, "Database error", "数据库错误"))
	ErrCache        = Register(New(MakeCode(ServiceCommon, CategoryCache, 1), http.StatusInternalServerError, codes.Internal, "Cache error", "缓存错误"))
	ErrConfig       = Register(New(MakeCode(ServiceCommon, CategoryConfig, 1), http.StatusInternalServerError, codes.FailedPrecondition, "Invalid configuration", "配置错误"))
)

// 问答服务错误 (服务代码 20)
var (
	ErrInvalidRequest   = Register(New(MakeCode(ServiceAssistant, CategoryRequest, 1), http.StatusBadRequest, codes.InvalidArgument, "Invalid request parameters", "请求参数无效"))
	ErrInvalidDirectory = Register(New(MakeCode(ServiceAssistant, CategoryRequest, 2), http.StatusBadRequest, codes.InvalidArgument, "Invalid directory path", "目录路径无效"))
	ErrInvalidFeedback  = Register(New(MakeCode(ServiceAssistant, CategoryRequest, 3), http.StatusBadRequest, codes.InvalidArgument, "Feedback value must be 1 or -1", "反馈值必须为 1 或 -1"))

	ErrRequestNotFound = Register(New(MakeCode(ServiceAssistant, CategoryResource, 1), http.StatusNotFound, codes.NotFound, "Request not found", "请求记录不存在"))

	ErrRetrievalFailed  = Register(New(MakeCode(ServiceAssistant, CategoryInternal, 1), http.StatusInternalServerError, codes.Internal, "Retrieval failed", "检索失败"))
	ErrIndexFailed      = Register(New(MakeCode(ServiceAssistant, CategoryInternal, 2), http.StatusInternalServerError, codes.Internal, "Vector index operation failed", "向量索引操作失败"))
	ErrIngestFailed     = Register(New(MakeCode(ServiceAssistant, CategoryInternal, 3), http.StatusInternalServerError, codes.Internal, "Document ingestion failed", "文档导入失败"))
	ErrStatsUnavailable = Register(New(MakeCode(ServiceAssistant, CategoryDatabase, 1), http.StatusInternalServerError, codes.Internal, "Statistics unavailable", "统计信息不可用"))

	ErrGenerationFailed = Register(New(MakeCode(ServiceAssistant, CategoryNetwork, 1), http.StatusBadGateway, codes.Unavailable, "Answer generation failed", "答案生成失败"))
	ErrEmbeddingFailed  = Register(New(MakeCode(ServiceAssistant, CategoryNetwork, 2), http.StatusBadGateway, codes.Unavailable, "Embedding failed", "向量化失败"))
)
