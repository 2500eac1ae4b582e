package handler

import (
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/rag-assistant/internal/assistant/biz"
	"github.com/kart-io/rag-assistant/internal/pkg/httputils"
	"github.com/kart-io/rag-assistant/pkg/utils/errors"
)

// IndexHandler handles document ingestion and index maintenance.
type IndexHandler struct {
	ingestor *biz.Ingestor
	root     string
}

// NewIndexHandler creates a new IndexHandler. Ingestion requests may only
// name directories below root.
func NewIndexHandler(ingestor *biz.Ingestor, root string) *IndexHandler {
	return &IndexHandler{ingestor: ingestor, root: root}
}

// IngestRequest is the request body of Ingest.
type IngestRequest struct {
	// Dir 相对文档根目录的子目录，为空时导入整个根目录。
	Dir   string `json:"dir" validate:"max=1024"`
	Clear bool   `json:"clear"`
}

// Ingest indexes a directory of documents.
func (h *IndexHandler) Ingest(c *gin.Context) {
	var req IngestRequest
	if c.Request.ContentLength != 0 {
		if err := httputils.ShouldBindAndValidate(c, &req); err != nil {
			httputils.WriteResponse(c, err, nil)
			return
		}
	}

	dir, err := h.resolve(req.Dir)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}

	report, err := h.ingestor.IngestDir(c.Request.Context(), dir, req.Clear)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, report)
}

// Count returns the number of indexed passages.
func (h *IndexHandler) Count(c *gin.Context) {
	n, err := h.ingestor.Count(c.Request.Context())
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, gin.H{"count": n})
}

// Clear removes every indexed passage.
func (h *IndexHandler) Clear(c *gin.Context) {
	if err := h.ingestor.Clear(c.Request.Context()); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, gin.H{"count": 0})
}

func (h *IndexHandler) resolve(dir string) (string, error) {
	if dir == "" {
		return h.root, nil
	}
	if filepath.IsAbs(dir) {
		return "", errors.ErrInvalidDirectory.WithMessage("dir must be relative to the documents directory")
	}
	clean := filepath.Clean(dir)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.ErrInvalidDirectory.WithMessage("dir must stay inside the documents directory")
	}
	return filepath.Join(h.root, clean), nil
}
