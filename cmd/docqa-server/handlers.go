package main

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/semaj90/docqa-engine/internal/coordinator"
	"github.com/semaj90/docqa-engine/internal/xjson"
)

// hackrxRunRequest mirrors spec §6's JSON body: {"documents": "<url>",
// "questions": ["..."]}.
type hackrxRunRequest struct {
	Documents string   `json:"documents"`
	Questions []string `json:"questions"`
}

// hackrxHandler implements POST /api/v1/hackrx/run: a document URL plus a
// batch of questions, answered in one coordinator.Handle call.
func hackrxHandler(co *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read request body"})
			return
		}

		var req hackrxRunRequest
		if err := xjson.Unmarshal(body, &req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
			return
		}
		if req.Documents == "" || len(req.Questions) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "documents and questions are required"})
			return
		}

		resp, err := co.Handle(c.Request.Context(), coordinator.Request{
			DocumentURL: req.Documents,
			Questions:   req.Questions,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"answers": resp.Answers})
	}
}

// allowedUploadExtensions is the multipart-path equivalent of the
// dispatcher's extension table (spec §6's documented accepted formats for
// direct file upload).
var allowedUploadExtensions = map[string]bool{
	".pdf": true, ".docx": true, ".xlsx": true, ".pptx": true,
	".eml": true, ".msg": true, ".png": true, ".jpg": true, ".jpeg": true,
}

// processPDFHandler implements POST /api/v1/process-pdf: a multipart upload
// (field "pdf") plus a "questions" form field carrying a JSON array. Per
// spec §6, a request with no questions still succeeds, returning
// {"message": "..."} instead of an {"answers": [...]} body.
func processPDFHandler(co *coordinator.Coordinator, maxUploadBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

		fileHeader, err := c.FormFile("pdf")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pdf field is required"})
			return
		}

		ext := extOf(fileHeader.Filename)
		if !allowedUploadExtensions[ext] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file extension: " + ext})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not open uploaded file"})
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "uploaded file too large"})
			return
		}

		var questions []string
		if raw := c.PostForm("questions"); raw != "" {
			if err := xjson.Unmarshal([]byte(raw), &questions); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "questions must be a JSON array of strings"})
				return
			}
		}
		if len(questions) == 0 {
			c.JSON(http.StatusOK, gin.H{"message": "file uploaded successfully, no questions were provided"})
			return
		}

		resp, err := co.Handle(c.Request.Context(), coordinator.Request{
			UploadedBytes:    data,
			UploadedFilename: fileHeader.Filename,
			Questions:        questions,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"answers": resp.Answers})
	}
}

func extOf(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i:])
}
