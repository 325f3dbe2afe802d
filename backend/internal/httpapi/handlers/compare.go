package handlers

import (
	"bytes"
	"context"
	"embed"
	"encoding/hex"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"

	"compare-service/backend/internal/compare"
	"compare-service/backend/internal/content"
	"compare-service/backend/internal/httpapi/middleware"
)

//go:embed templates/compare.html
var templateFS embed.FS

var compareTemplate = template.Must(template.ParseFS(templateFS, "templates/compare.html"))

// Submitter 由 compare.Service 实现
type Submitter interface {
	Submit(ctx context.Context, req compare.ComparisonRequest) (*compare.Result, error)
}

type CompareHandler struct {
	svc Submitter
}

func NewCompareHandler(svc Submitter) *CompareHandler {
	return &CompareHandler{svc: svc}
}

type pageView struct {
	Action  string
	Request compare.ComparisonRequest
	Errors  map[string]string
	Diff    *content.DiffPage
}

type fieldErrorResp struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type resolvedResp struct {
	Old int64 `json:"old"`
	New int64 `json:"new"`
}

type compareResp struct {
	Request  compare.ComparisonRequest `json:"request"`
	Outcome  string                    `json:"outcome"`
	Resolved resolvedResp              `json:"resolved"`
	Errors   map[string]fieldErrorResp `json:"errors,omitempty"`
	Diff     *content.DiffPage         `json:"diff,omitempty"`
}

// bind GET 只读 query，多余参数忽略
func bind(c *gin.Context) (compare.ComparisonRequest, error) {
	var req compare.ComparisonRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		return req, err
	}
	req.RequestID = c.GetString(middleware.ContextRequestID)
	return req, nil
}

// Page GET /compare：表单 + 差异，字段错误原地显示
func (h *CompareHandler) Page() gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := bind(c)
		if err != nil {
			c.String(http.StatusBadRequest, "bad query: %v", err)
			return
		}
		res, err := h.svc.Submit(c.Request.Context(), req)
		if err != nil {
			_ = c.Error(err)
			c.String(http.StatusInternalServerError, "internal error")
			return
		}

		view := pageView{
			Action:  c.Request.URL.Path,
			Request: res.Request,
			Errors:  res.Errors.Messages(),
			Diff:    res.Diff,
		}
		var buf bytes.Buffer
		if err := compareTemplate.Execute(&buf, view); err != nil {
			log.WithError(err).WithField("request_id", req.RequestID).Error("render compare page failed")
			c.String(http.StatusInternalServerError, "internal error")
			return
		}

		body := buf.Bytes()
		etag := ETag(body)
		c.Header("ETag", etag)
		c.Header("Cache-Control", "private, must-revalidate")
		if match(c.GetHeader("If-None-Match"), etag) {
			c.Status(http.StatusNotModified)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", body)
	}
}

// API GET /v1/compare：同样的流程，返回 JSON
func (h *CompareHandler) API() gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := bind(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		res, err := h.svc.Submit(c.Request.Context(), req)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		resp := compareResp{
			Request:  res.Request,
			Outcome:  res.Outcome,
			Resolved: resolvedResp{Old: res.OldRevision, New: res.NewRevision},
			Diff:     res.Diff,
		}
		if len(res.Errors) > 0 {
			resp.Errors = make(map[string]fieldErrorResp, len(res.Errors))
			for field, fe := range res.Errors {
				resp.Errors[field] = fieldErrorResp{Code: fe.Err.Error(), Message: compare.Message(fe.Err)}
			}
		}
		// 字段错误不算请求失败，和页面一样返回 200
		c.JSON(http.StatusOK, resp)
	}
}

func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// ETag 对响应体做 blake2b 摘要，强校验
func ETag(body []byte) string {
	sum := blake2b.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func match(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
